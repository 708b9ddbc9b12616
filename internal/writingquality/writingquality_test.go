package writingquality

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAnalyzeShortTextReturnsDefaults(t *testing.T) {
	scores := Analyze("Too short.", "")
	assert.Equal(t, defaultScores(), scores)
	assert.Equal(t, 49, scores.TotalScore)
}

func TestAnalyzeWellSourcedArticleScoresHigherThanVague(t *testing.T) {
	strong := strings.Repeat(`President Jane Smith announced today in Washington that the new policy would take effect immediately. `, 8) +
		`Officials said the decision followed months of review. "This is a significant step," Jane Smith told reporters. ` +
		`According to data shows, the policy affects 2 million people across 15 states. However, critics say the plan has flaws. ` +
		strings.Repeat("Additional context and detailed analysis follow in this comprehensive report. ", 10)

	weak := strings.Repeat("Something happened and things changed, it is obvious that it was shocking and outrageous. ", 20)

	strongScores := Analyze(strong, "")
	weakScores := Analyze(weak, "")

	assert.Greater(t, strongScores.TotalScore, weakScores.TotalScore)
	assert.NotEmpty(t, weakScores.BiasIndicators)
}

func TestReadabilityScoreCapsAtThirty(t *testing.T) {
	text := strings.Repeat("The cat sat on the mat. Dogs run fast. Birds fly high. ", 30)
	got := readabilityScore(text)
	assert.LessOrEqual(t, got, 30)
	assert.GreaterOrEqual(t, got, 0)
}

func TestDetectBiasIndicatorsFindsPresentPhrases(t *testing.T) {
	text := "Sources allegedly confirmed the shocking and outrageous claim, reportedly."
	found := detectBiasIndicators(text)
	assert.Contains(t, found, "allegedly")
	assert.Contains(t, found, "shocking")
	assert.Contains(t, found, "outrageous")
	assert.Contains(t, found, "reportedly")
}

func TestGrammarQualityNeverBelowFive(t *testing.T) {
	text := strings.Repeat("their there they're their there they're. bad.cap spacing , here . ", 40)
	assert.GreaterOrEqual(t, grammarQuality(text), 5)
}

func TestSentenceVarietyRequiresThreeSentences(t *testing.T) {
	assert.Equal(t, 1, sentenceVariety("One sentence only."))
	assert.Equal(t, 1, sentenceVariety("Two sentences. Here."))
}
