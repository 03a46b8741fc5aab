// Package intent holds the rule-based utterance classifiers the dialogue driver uses
// to decide when a simulated conversation ends. All four predicates are pure and
// independent; precedence between simultaneously-true intents is the driver's job.
package intent

import (
	"regexp"
	"strings"
)

// goodbyePatterns must match whole words. Go's \b is ASCII-only and never fires
// between Cyrillic letters, so the boundary is spelled out as "not a letter".
var goodbyePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?:^|[^\p{L}])до\s+побачення(?:[^\p{L}]|$)`),
	regexp.MustCompile(`(?:^|[^\p{L}])до\s+зустрічі(?:[^\p{L}]|$)`),
	regexp.MustCompile(`(?:^|[^\p{L}])прощавай(?:[^\p{L}]|$)`),
	regexp.MustCompile(`(?:^|[^\p{L}])бувай(?:[^\p{L}]|$)`),
}

var refusalKeywords = []string{
	"не цікаво", "не потрібно", "відмовляюся", "не маю часу",
	"не планую", "не зацікавлена", "не підходить", "ні, дякую",
}

var successKeywords = []string{
	"запишіть", "як записатися", "як можна записатися", "пробний урок",
	"хочу спробувати", "давайте спробуємо", "я згоден", "я згідна",
	"так, хочу", "так, згоден", "так, згодна",
}

// priceKeyword deliberately drops the first letter of "скільки" so that the common
// misspelling "кільки коштує" matches too.
const priceKeyword = "кільки коштує"

// IsGoodbye reports whether text contains a whole-word farewell phrase.
func IsGoodbye(text string) bool {
	lower := strings.ToLower(text)
	for _, pattern := range goodbyePatterns {
		if pattern.MatchString(lower) {
			return true
		}
	}
	return false
}

// IsRefusal reports whether text contains a refusal phrase.
func IsRefusal(text string) bool {
	lower := strings.ToLower(text)
	for _, kw := range refusalKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// IsSuccess reports whether text contains a sign-up commitment phrase.
func IsSuccess(text string) bool {
	lower := strings.ToLower(text)
	for _, kw := range successKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// IsPriceInquiry reports whether text asks how much the course costs.
func IsPriceInquiry(text string) bool {
	return strings.Contains(strings.ToLower(text), priceKeyword)
}
