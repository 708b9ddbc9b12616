package claims

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mkolb22/k8s-news-engine/internal/models"
)

func TestExtractClaimsFindsIndicatorSentence(t *testing.T) {
	text := "The weather was mild today. According to officials, the new policy will take effect next year and studies show it reduces costs by 12 percent."
	claims := ExtractClaims("Policy announcement", text)
	if assert.NotEmpty(t, claims) {
		found := false
		for _, c := range claims {
			if c.Confidence == 0.8 {
				found = true
			}
		}
		assert.True(t, found)
	}
}

func TestExtractClaimsCapsAtTwenty(t *testing.T) {
	var sb string
	for i := 0; i < 30; i++ {
		sb += "According to sources, the report confirmed major findings in the annual review today. "
	}
	claims := ExtractClaims("", sb)
	assert.LessOrEqual(t, len(claims), 20)
}

func TestClassifyClaimTypeOrder(t *testing.T) {
	assert.Equal(t, models.ClaimPrediction, classifyClaimType("Officials say the policy will likely expand next year."))
	assert.Equal(t, models.ClaimOpinion, classifyClaimType("Many believe the decision was a mistake."))
	assert.Equal(t, models.ClaimFact, classifyClaimType("The report confirmed 42 new cases this week."))
}

func TestVerifyClaimTrustedOutlet(t *testing.T) {
	state, source := VerifyClaim("The agency confirmed the figures.", "reuters.com")
	assert.Equal(t, models.VerifiedYes, state)
	assert.NotNil(t, source)

	state, source = VerifyClaim("The agency allegedly confirmed the figures.", "reuters.com")
	assert.Equal(t, models.Unverified, state)
	assert.Nil(t, source)
}

func TestVerifyClaimUntrustedOutlet(t *testing.T) {
	state, _ := VerifyClaim("The decision remains controversial among experts.", "randomblog.example")
	assert.Equal(t, models.Contested, state)
}

func TestSubjectivityScoresOpinionHigherThanNeutral(t *testing.T) {
	assert.Greater(t, Subjectivity("This is an amazing and wonderful decision."), Subjectivity("The report lists 42 new cases."))
}
