// Package persona samples simulated client profiles and renders them into
// first-person Ukrainian system prompts for the client side of a conversation.
package persona

import (
	"fmt"
	"math/rand"
)

type Child struct {
	Name string `json:"name"`
	Age  int    `json:"age"`
}

// Person is one sampled client profile. Interest, Tone and Mood are 0..9 scales
// rendered into words by RenderPrompt.
type Person struct {
	Name         string  `json:"name"`
	Age          int     `json:"age"`
	Sex          string  `json:"sex"`
	Hobby        string  `json:"hobby"`
	Profession   string  `json:"profession"`
	Character    string  `json:"character"`
	Values       string  `json:"values"`
	FamilyStatus string  `json:"family_status"`
	Children     []Child `json:"children"`
	City         string  `json:"city"`
	Country      string  `json:"country"`
	Phone        string  `json:"phone"`
	Interest     int     `json:"interest"`
	Tone         int     `json:"tone"`
	Mood         int     `json:"mood"`
}

var (
	names       = []string{"Анна", "Іван", "Софія", "Максим", "Олексій", "Юлія"}
	childNames  = []string{"Марійка", "Тарас", "Оля", "Дмитрик", "Соломія", "Назар"}
	hobbies     = []string{"читання", "футбол", "подорожі", "малювання", "випікання"}
	professions = []string{"вчитель", "підприємець", "лікар", "дизайнер", "механік"}
	characters  = []string{"емпат", "логік", "екстраверт", "інтроверт"}
	valuesPool  = []string{"сім'я", "кар'єра", "екологія", "подорожі"}
	statuses    = []string{"одружений", "розлучений", "самотній"}
	sexes       = []string{"чоловіча", "жіноча"}
)

// Generator samples persons from a seeded source so pipelines are reproducible.
type Generator struct {
	rng *rand.Rand
}

func NewGenerator(seed int64) *Generator {
	return &Generator{rng: rand.New(rand.NewSource(seed))}
}

func (g *Generator) pick(pool []string) string {
	return pool[g.rng.Intn(len(pool))]
}

// Person samples one profile. Children ages keep at least fifteen years below the
// parent's age and stay within 3..18.
func (g *Generator) Person() Person {
	p := Person{
		Name:         g.pick(names),
		Age:          20 + g.rng.Intn(41),
		Sex:          g.pick(sexes),
		Hobby:        g.pick(hobbies),
		Profession:   g.pick(professions),
		Character:    g.pick(characters),
		Values:       g.pick(valuesPool),
		FamilyStatus: g.pick(statuses),
		City:         g.city(),
		Country:      "Ukraine",
		Phone:        g.phone(),
		Interest:     g.rng.Intn(10),
		Tone:         g.rng.Intn(10),
		Mood:         g.rng.Intn(10),
	}

	var count int
	switch g.rng.Intn(4) {
	case 0:
		count = 0
	case 1:
		count = 1
	case 2:
		count = 2
	default:
		count = 3 + g.rng.Intn(3)
	}
	maxAge := p.Age - 15
	if maxAge > 18 {
		maxAge = 18
	}
	for i := 0; i < count && maxAge >= 3; i++ {
		p.Children = append(p.Children, Child{
			Name: g.pick(childNames),
			Age:  3 + g.rng.Intn(maxAge-2),
		})
	}
	return p
}

// Persons samples count profiles.
func (g *Generator) Persons(count int) []Person {
	out := make([]Person, count)
	for i := range out {
		out[i] = g.Person()
	}
	return out
}

func (g *Generator) phone() string {
	n := g.rng.Int63n(1_000_000_000)
	return fmt.Sprintf("380%09d", n)
}
