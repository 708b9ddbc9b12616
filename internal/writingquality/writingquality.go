// Package writingquality implements C6: a four-component writing-quality
// score (readability, journalistic structure, linguistic quality,
// objectivity), ported verbatim from writing_quality_analyzer.py. No
// readability/NLP library exists in the retrieved pack, so the Flesch
// formulas and tokenizers in readability.go are hand-written, the same
// way the Python original computes syllables itself via textstat rather
// than a bespoke library wrapper.
package writingquality

import (
	"math"
	"regexp"
	"strings"
)

// Scores is the C6 output, one per article.
type Scores struct {
	ReadabilityScore int
	StructureScore   int
	LinguisticScore  int
	ObjectivityScore int
	TotalScore       int

	FleschReadingEase  float64
	FleschKincaidGrade float64
	LeadQuality        int
	SourceAttribution  int
	SentenceVariety    int
	GrammarQuality     int
	BiasIndicators     []string
}

// defaultScores is the fixed neutral profile returned when text is too
// short to analyze, matching _get_default_scores verbatim — total 49.
func defaultScores() Scores {
	return Scores{
		ReadabilityScore:   15,
		StructureScore:     17,
		LinguisticScore:    10,
		ObjectivityScore:   7,
		TotalScore:         49,
		FleschReadingEase:  60.0,
		FleschKincaidGrade: 10.0,
		LeadQuality:        5,
		SourceAttribution:  5,
		SentenceVariety:    2,
		GrammarQuality:     5,
		BiasIndicators:     nil,
	}
}

var biasIndicators = []string{
	"allegedly", "reportedly", "supposedly", "it seems", "apparently",
	"shocking", "outrageous", "devastating", "incredible", "amazing",
	"everyone knows", "it is obvious", "clearly", "undoubtedly", "certainly",
}

// Analyze scores an article's writing quality. Text shorter than 100
// characters gets the fixed neutral profile, matching analyze_article.
func Analyze(text, title string) Scores {
	if len(text) < 100 {
		return defaultScores()
	}

	readability := readabilityScore(text)
	structure := structureScore(text)
	linguistic := linguisticScore(text)
	objectivity := objectivityScore(text)

	total := readability + structure + linguistic + objectivity
	if total > 100 {
		total = 100
	}

	words := tokenizeWords(text)
	sentences := tokenizeSentences(text)
	syllables := 0
	for _, w := range words {
		syllables += countSyllables(w)
	}

	return Scores{
		ReadabilityScore:   readability,
		StructureScore:     structure,
		LinguisticScore:    linguistic,
		ObjectivityScore:   objectivity,
		TotalScore:         total,
		FleschReadingEase:  fleschReadingEase(len(words), len(sentences), syllables),
		FleschKincaidGrade: fleschKincaidGrade(len(words), len(sentences), syllables),
		LeadQuality:        leadQuality(text),
		SourceAttribution:  sourceAttribution(text),
		SentenceVariety:    sentenceVariety(text),
		GrammarQuality:     grammarQuality(text),
		BiasIndicators:     detectBiasIndicators(text),
	}
}

// readabilityScore is 0-30: Flesch Reading Ease banded to 0-15 points plus
// Flesch-Kincaid Grade banded to 0-15 points, both more generous than the
// textbook bands to suit news prose — matching _calculate_readability_score.
func readabilityScore(text string) int {
	words := tokenizeWords(text)
	sentences := tokenizeSentences(text)
	syllables := 0
	for _, w := range words {
		syllables += countSyllables(w)
	}
	ease := fleschReadingEase(len(words), len(sentences), syllables)
	grade := fleschKincaidGrade(len(words), len(sentences), syllables)

	var easePoints int
	switch {
	case ease >= 70:
		easePoints = 15
	case ease >= 60:
		easePoints = 13
	case ease >= 50:
		easePoints = 11
	case ease >= 40:
		easePoints = 9
	case ease >= 30:
		easePoints = 7
	default:
		easePoints = 5
	}

	var gradePoints int
	switch {
	case grade <= 10:
		gradePoints = 15
	case grade <= 12:
		gradePoints = 13
	case grade <= 14:
		gradePoints = 11
	case grade <= 16:
		gradePoints = 9
	default:
		gradePoints = 7
	}

	return minInt(30, easePoints+gradePoints)
}

// structureScore is 0-35: lead quality + source attribution + factual
// completeness, matching _analyze_journalistic_structure.
func structureScore(text string) int {
	return minInt(35, leadQuality(text)+sourceAttribution(text)+factualCompleteness(text))
}

var (
	whoPattern   = regexp.MustCompile(`(?i)\b(president|minister|official|spokesman|spokesperson|ceo|director|[A-Z][a-z]+ [A-Z][a-z]+)\b`)
	whatPattern  = regexp.MustCompile(`(?i)\b(announced|said|declared|confirmed|revealed|reported|stated)\b`)
	whenPattern  = regexp.MustCompile(`(?i)\b(today|yesterday|monday|tuesday|wednesday|thursday|friday|saturday|sunday|january|february|march|april|may|june|july|august|september|october|november|december|\d{1,2}/\d{1,2}/\d{4})\b`)
	wherePattern = regexp.MustCompile(`\b([A-Z][a-z]+ [A-Z][a-z]+|Washington|London|Paris|Berlin|Tokyo|Beijing|Moscow|New York|Los Angeles)\b`)
	vaguePattern = regexp.MustCompile(`(?i)\b(something|things|stuff|important|affect|happened)\b`)
)

// leadQuality is 0-10, matching _analyze_lead_quality.
func leadQuality(text string) int {
	sentences := tokenizeSentences(text)
	if len(sentences) == 0 {
		return 0
	}
	first := sentences[0]

	who := len(whoPattern.FindAllString(first, -1))
	what := len(whatPattern.FindAllString(first, -1))
	when := len(whenPattern.FindAllString(first, -1))
	where := len(wherePattern.FindAllString(first, -1))
	vague := len(vaguePattern.FindAllString(first, -1))

	elements := minInt(4, who+what+when+where)

	switch {
	case elements >= 3 && vague == 0:
		return 10
	case elements >= 2 && vague <= 1:
		return 7
	case elements >= 1 && vague <= 2:
		return 4
	case vague >= 3:
		return 1
	default:
		return 2
	}
}

var (
	namedSourcePattern    = regexp.MustCompile(`\b([A-Z][a-z]+ [A-Z][a-z]+)\s+(said|told|confirmed|stated|announced)`)
	officialSourcePattern = regexp.MustCompile(`(?i)\b(officials?|spokesman|spokesperson|representative|minister|secretary)\s+(said|told|confirmed|stated)`)
	quotePattern          = regexp.MustCompile(`(?i)"[^"]*",?\s*(said|told|confirmed|stated|according to)`)
)

// sourceAttribution is 0-10, matching _analyze_source_attribution.
func sourceAttribution(text string) int {
	total := len(namedSourcePattern.FindAllString(text, -1)) +
		len(officialSourcePattern.FindAllString(text, -1)) +
		len(quotePattern.FindAllString(text, -1))

	switch {
	case total >= 4:
		return 10
	case total >= 2:
		return 8
	case total >= 1:
		return 6
	default:
		return 2
	}
}

var (
	numbersDataPattern      = regexp.MustCompile(`(?i)\b\d+(\.\d+)?\s*(percent|million|billion|dollars?|people|years?|days?|months?)\b`)
	contextIndicatorPattern = regexp.MustCompile(`(?i)\b(background|context|previously|earlier|according to|data shows|statistics|research)\b`)
)

// factualCompleteness is 0-15, matching _analyze_factual_completeness.
func factualCompleteness(text string) int {
	words := tokenizeWords(text)
	wordCount := len(words)

	var lengthScore int
	switch {
	case wordCount >= 500:
		lengthScore = 5
	case wordCount >= 300:
		lengthScore = 3
	case wordCount >= 150:
		lengthScore = 2
	default:
		lengthScore = 0
	}

	numbersData := len(numbersDataPattern.FindAllString(text, -1))
	context := len(contextIndicatorPattern.FindAllString(text, -1))
	detailScore := minInt(10, (numbersData+context)*2)

	return minInt(15, lengthScore+detailScore)
}

// linguisticScore is 0-20: sentence variety + vocabulary precision +
// grammar/mechanics, matching _assess_linguistic_quality.
func linguisticScore(text string) int {
	return minInt(20, sentenceVariety(text)+vocabularyPrecision(text)+grammarQuality(text))
}

// sentenceVariety is 0-5, scored on the population variance of per-sentence
// word counts, matching _analyze_sentence_variety.
func sentenceVariety(text string) int {
	sentences := tokenizeSentences(text)
	if len(sentences) < 3 {
		return 1
	}

	lengths := make([]float64, 0, len(sentences))
	for _, s := range sentences {
		lengths = append(lengths, float64(len(tokenizeWords(s))))
	}
	if len(lengths) == 0 {
		return 0
	}

	var sum float64
	for _, l := range lengths {
		sum += l
	}
	avg := sum / float64(len(lengths))

	var variance float64
	for _, l := range lengths {
		variance += (l - avg) * (l - avg)
	}
	variance /= float64(len(lengths))

	switch {
	case variance > 30:
		return 5
	case variance > 15:
		return 4
	case variance > 5:
		return 3
	default:
		return 2
	}
}

var specificTermsPattern = regexp.MustCompile(`(?i)\b(specifically|particularly|precisely|exactly|detailed|comprehensive|thorough)\b`)

// vocabularyPrecision is 0-5, matching _analyze_vocabulary_precision.
func vocabularyPrecision(text string) int {
	words := tokenizeWords(strings.ToLower(text))
	if len(words) < 50 {
		return 1
	}

	unique := make(map[string]bool, len(words))
	for _, w := range words {
		unique[w] = true
	}
	lexicalDiversity := float64(len(unique)) / float64(len(words))
	specificTerms := len(specificTermsPattern.FindAllString(text, -1))

	switch {
	case lexicalDiversity > 0.6 && specificTerms > 1:
		return 5
	case lexicalDiversity > 0.5 || specificTerms > 0:
		return 4
	case lexicalDiversity > 0.4:
		return 3
	default:
		return 2
	}
}

var (
	itsConfusionPattern    = regexp.MustCompile(`(?i)\b(it's)\s+(own|impact|affect)`)
	pronounConfusionPatt   = regexp.MustCompile(`(?i)\b(their|there|they're)\b`)
	missingCapPattern      = regexp.MustCompile(`[.!?]\s+[a-z]`)
	punctuationSpacingPatt = regexp.MustCompile(`\s+,|\s+\.`)
)

// grammarQuality is 0-10 (floored at 5), matching _assess_grammar_quality's
// lenient deduction scheme.
func grammarQuality(text string) int {
	issues := float64(len(itsConfusionPattern.FindAllString(text, -1)))
	issues += float64(len(pronounConfusionPatt.FindAllString(text, -1))) * 0.1
	issues += float64(len(missingCapPattern.FindAllString(text, -1)))
	issues += float64(len(punctuationSpacingPatt.FindAllString(text, -1)))

	score := 10 - int(math.Floor(issues))
	return maxInt(5, score)
}

// objectivityScore is 0-15: bias detection + multiple-perspectives,
// matching _evaluate_objectivity_balance.
func objectivityScore(text string) int {
	return minInt(15, biasScore(text)+multiplePerspectivesScore(text))
}

var emotionalWordsPattern = regexp.MustCompile(`(?i)\b(shocking|outrageous|devastating|incredible|amazing|terrible|wonderful|fantastic|horrible)\b`)

// biasScore is 0-10, matching _detect_bias_score.
func biasScore(text string) int {
	lower := strings.ToLower(text)
	count := 0
	for _, indicator := range biasIndicators {
		count += strings.Count(lower, indicator)
	}
	count += len(emotionalWordsPattern.FindAllString(text, -1))

	switch {
	case count == 0:
		return 10
	case count <= 2:
		return 7
	case count <= 5:
		return 3
	default:
		return 0
	}
}

var (
	perspectivePattern  = regexp.MustCompile(`(?i)\b(however|meanwhile|on the other hand|alternatively|critics say|supporters argue|opponents claim)\b`)
	contrastingSrcPatt  = regexp.MustCompile(`\b(but [A-Z][a-z]+ [A-Z][a-z]+ said|while .+ argued|however .+ stated)\b`)
)

// multiplePerspectivesScore is 0-5, matching _analyze_multiple_perspectives.
func multiplePerspectivesScore(text string) int {
	total := len(perspectivePattern.FindAllString(text, -1)) + len(contrastingSrcPatt.FindAllString(text, -1))
	switch {
	case total >= 3:
		return 5
	case total >= 1:
		return 3
	default:
		return 1
	}
}

// detectBiasIndicators returns every bias phrase present, matching
// _detect_bias_indicators.
func detectBiasIndicators(text string) []string {
	lower := strings.ToLower(text)
	var found []string
	for _, indicator := range biasIndicators {
		if strings.Contains(lower, indicator) {
			found = append(found, indicator)
		}
	}
	return found
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
