package writingquality

import (
	"regexp"
	"strings"
)

var sentenceBoundary = regexp.MustCompile(`[.!?]+(\s+|$)`)
var wordPattern = regexp.MustCompile(`[A-Za-z']+`)

// tokenizeSentences is a punctuation-boundary stand-in for nltk's
// sent_tokenize, the way claims.splitSentences stands in for spaCy's.
func tokenizeSentences(text string) []string {
	raw := sentenceBoundary.Split(text, -1)
	var out []string
	for _, s := range raw {
		s = strings.TrimSpace(s)
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

// tokenizeWords is a stand-in for nltk's word_tokenize: contiguous letter
// runs (including apostrophes), matching textstat's own word-counting
// behavior closely enough for the point-band thresholds below.
func tokenizeWords(text string) []string {
	return wordPattern.FindAllString(text, -1)
}

var vowelRuns = regexp.MustCompile(`[aeiouyAEIOUY]+`)

// countSyllables approximates textstat's syllable counter: count vowel
// groups, drop a trailing silent "e", and floor at 1 — the same heuristic
// textstat itself uses (a vowel-group count with common English
// adjustments), since no syllable-counting library exists in the pack.
func countSyllables(word string) int {
	word = strings.ToLower(word)
	if word == "" {
		return 0
	}
	groups := vowelRuns.FindAllString(word, -1)
	count := len(groups)
	if strings.HasSuffix(word, "e") && count > 1 {
		count--
	}
	if count < 1 {
		count = 1
	}
	return count
}

// fleschReadingEase and fleschKincaidGrade implement the standard formulas
// textstat.flesch_reading_ease / flesch_kincaid_grade compute, since no
// readability library exists in the retrieved pack.
func fleschReadingEase(words, sentences, syllables int) float64 {
	if words == 0 || sentences == 0 {
		return 0
	}
	wordsPerSentence := float64(words) / float64(sentences)
	syllablesPerWord := float64(syllables) / float64(words)
	return 206.835 - 1.015*wordsPerSentence - 84.6*syllablesPerWord
}

func fleschKincaidGrade(words, sentences, syllables int) float64 {
	if words == 0 || sentences == 0 {
		return 0
	}
	wordsPerSentence := float64(words) / float64(sentences)
	syllablesPerWord := float64(syllables) / float64(words)
	return 0.39*wordsPerSentence + 11.8*syllablesPerWord - 15.59
}
