package claims

import "strings"

// Subjectivity estimates TextBlob's sentiment.subjectivity (a 0-1 score,
// fraction of subjective-lexicon words among a sentence's words), used
// only as classify_claim_type's final fallback below the indicator-word
// checks above it. No sentiment/NLP library exists in the retrieved pack
// (the Python original itself only asks TextBlob for this one scalar), so
// this substitutes a small weighted lexicon of subjective markers —
// opinion verbs, hedges, intensifiers, evaluative adjectives — counted as
// a fraction of total words, the same shape TextBlob's pattern-based
// subjectivity score takes.
var subjectiveWords = map[string]float64{
	"believe": 1.0, "think": 0.8, "feel": 0.8, "seems": 0.8, "appears": 0.7,
	"arguably": 1.0, "perhaps": 0.6, "maybe": 0.6, "probably": 0.5,
	"amazing": 1.0, "terrible": 1.0, "wonderful": 1.0, "awful": 1.0,
	"beautiful": 0.8, "ugly": 0.8, "best": 0.7, "worst": 0.7,
	"should": 0.6, "must": 0.5, "clearly": 0.5, "obviously": 0.6,
	"shocking": 0.9, "outrageous": 1.0, "disgraceful": 1.0,
	"controversial": 0.6, "disputed": 0.5, "alleged": 0.4, "allegedly": 0.4,
	"unfortunately": 0.7, "fortunately": 0.7, "surprisingly": 0.6,
}

// Subjectivity returns a score in [0,1]: the sum of subjective-lexicon
// weights found divided by the word count, capped at 1.0.
func Subjectivity(text string) float64 {
	words := strings.Fields(strings.ToLower(text))
	if len(words) == 0 {
		return 0
	}

	var total float64
	for _, w := range words {
		w = strings.Trim(w, ".,!?;:\"'()")
		if weight, ok := subjectiveWords[w]; ok {
			total += weight
		}
	}

	score := total / float64(len(words))
	if score > 1.0 {
		score = 1.0
	}
	return score
}
