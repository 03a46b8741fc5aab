package persona

// Cities are sampled proportionally to population, so transcripts skew toward the
// large markets the way real inbound leads do.
var cityTable = []struct {
	name       string
	population int
}{
	{"Київ", 2952301},
	{"Харків", 1421125},
	{"Одеса", 1010537},
	{"Дніпро", 968502},
	{"Донецьк", 901645},
	{"Запоріжжя", 722713},
	{"Львів", 717273},
	{"Кривий Ріг", 603904},
	{"Миколаїв", 470011},
	{"Вінниця", 369739},
	{"Полтава", 279593},
	{"Чернівці", 264298},
	{"Черкаси", 269836},
	{"Житомир", 261624},
	{"Суми", 256474},
	{"Рівне", 243873},
	{"Івано-Франківськ", 237686},
	{"Тернопіль", 225238},
	{"Луцьк", 215986},
	{"Ужгород", 115449},
}

var cityTotalPopulation = func() int {
	var total int
	for _, c := range cityTable {
		total += c.population
	}
	return total
}()

func (g *Generator) city() string {
	n := g.rng.Intn(cityTotalPopulation)
	for _, c := range cityTable {
		n -= c.population
		if n < 0 {
			return c.name
		}
	}
	return cityTable[len(cityTable)-1].name
}
