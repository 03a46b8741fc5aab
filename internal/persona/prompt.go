package persona

import (
	"fmt"
	"math/rand"
	"strings"
)

// Prompt is a rendered client system prompt, keyed by the persona's name.
type Prompt struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// Scale wordings for the 0..9 interest, tone and mood values.
var interestWords = [10]string{
	"Не цікаво зовсім",
	"Майже не цікаво",
	"Слабкий інтерес",
	"Низький інтерес",
	"Помірний інтерес",
	"Дещо цікаво",
	"Зацікавлений",
	"Досить цікавить",
	"Дуже цікаво",
	"Максимально зацікавлений",
}

var toneWords = [10]string{
	"Грубий і неприємний",
	"Різкий",
	"Холодний",
	"Нейтральний",
	"Стримано-доброзичливий",
	"Помірно теплий",
	"Привітний",
	"Дружній",
	"М'який і уважний",
	"Максимально ввічливий та доброзичливий",
}

var moodWords = [10]string{
	"Дуже поганий настрій",
	"Роздратований",
	"Незадоволений",
	"Скептичний",
	"Нейтральний",
	"Помірно позитивний",
	"Гарний настрій",
	"Оптимістичний",
	"Радісний",
	"Енергійний і дуже доброзичливий",
}

// Typical opening answers a cold-called client gives.
var shortResponses = []string{
	"Що саме?",
	"У чому суть?",
	"Навіщо це?",
	"Слухаю.",
	"Так, говоріть.",
	"Який сенс?",
	"Скільки коштує?",
	"Я зайнятий, кажіть швидко.",
	"Чим це кращe за інші курси?",
	"Нема часу. Коротше, що ви хочете?",
}

// Objections are phrased in the first person so the client model can voice them
// verbatim.
var objections = []string{
	"Мені це не цікаво.",
	"Дорого.",
	"У дитини немає часу на додаткові заняття.",
	"Ми поки не плануємо додаткові заняття для дитини.",
	"Я не впевнений, що дитині це потрібно.",
	"Дитина й так перевантажена школою.",
}

// RenderPrompt builds the client system prompt for one persona. The opening style
// and objection are drawn from rng, everything else comes from the persona itself.
func RenderPrompt(p Person, rng *rand.Rand) string {
	var b strings.Builder
	b.WriteString("Ти не бот, а реальна людина. Говори лише від першої особи.\n")
	b.WriteString("Не використовуй другу особу (ти, твій, ваш) у відповідях.\n")
	b.WriteString("Не озвучуй ціни самостійно після викликів get_price(), лише сприймай інформацію від бота.\n")
	b.WriteString("Сприймай JSON-відповіді (get_price, запис на урок) як інформацію, а не як код.\n")
	fmt.Fprintf(&b, "Місто: %s, країна: %s.\n", p.City, p.Country)
	fmt.Fprintf(&b, "Телефон: %s.\n", p.Phone)
	fmt.Fprintf(&b, "Мене звати %s, мені %d років, працюю %s.\n", p.Name, p.Age, p.Profession)
	fmt.Fprintf(&b, "Моє хобі: %s.\n", p.Hobby)
	fmt.Fprintf(&b, "Характер: %s.\n", p.Character)
	b.WriteString(childrenLine(p.Children))
	b.WriteString("\n")
	fmt.Fprintf(&b, "Рівень інтересу: %s.\n", interestWords[clampScale(p.Interest)])
	fmt.Fprintf(&b, "Тон: %s.\n", toneWords[clampScale(p.Tone)])
	fmt.Fprintf(&b, "Настрій: %s.\n", moodWords[clampScale(p.Mood)])
	b.WriteString("Відповідаю завжди одним реченням.\n")
	if p.Interest >= 5 {
		b.WriteString("Оскільки в мене досить високий інтерес, я можу поцікавитися ціною і погодитися на пробний урок.\n")
		if hasSchoolAgeChild(p.Children) {
			b.WriteString("Якщо мене переконають у перевагах саме для дитини 5–12 років, можу записатися після уточнення ціни.\n")
		}
	}
	fmt.Fprintf(&b, "Початкова типова відповідь: «%s»\n", shortResponses[rng.Intn(len(shortResponses))])
	fmt.Fprintf(&b, "Я сумніваюся і думаю, що: «%s»", objections[rng.Intn(len(objections))])
	return b.String()
}

// RenderPrompts renders every persona, keyed by name.
func RenderPrompts(persons []Person, rng *rand.Rand) []Prompt {
	out := make([]Prompt, len(persons))
	for i, p := range persons {
		out[i] = Prompt{ID: p.Name, Text: RenderPrompt(p, rng)}
	}
	return out
}

func childrenLine(children []Child) string {
	if len(children) == 0 {
		return "У мене немає дітей."
	}
	parts := make([]string, len(children))
	for i, ch := range children {
		parts[i] = fmt.Sprintf("%s (%d років)", ch.Name, ch.Age)
	}
	return fmt.Sprintf("У мене %d діточок: %s.", len(children), strings.Join(parts, ", "))
}

func hasSchoolAgeChild(children []Child) bool {
	for _, ch := range children {
		if ch.Age >= 5 && ch.Age <= 12 {
			return true
		}
	}
	return false
}

func clampScale(v int) int {
	if v < 0 {
		return 0
	}
	if v > 9 {
		return 9
	}
	return v
}
