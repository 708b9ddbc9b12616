package composer

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// TestCapRoundMatchesQualityRoundingLaw pins the exact worked examples
// from spec §8's "Quality rounding law" invariant.
func TestCapRoundMatchesQualityRoundingLaw(t *testing.T) {
	cases := []struct {
		writingTotal float64
		repScore     float64 // raw reputation score; composeQualityScore applies ×0.4
		want         int
	}{
		{67, 100, 80}, // R = 100*0.4 = 40
		{68, 100, 81},
		{83, 62.5, 75}, // R = 62.5*0.4 = 25
		{54, 62.5, 57},
		{60, 62.5, 61},
	}

	for _, c := range cases {
		composite := c.writingTotal*0.6 + c.repScore*0.4
		got := capRound(composite)
		assert.Equal(t, c.want, got, "writingTotal=%v repScore=%v", c.writingTotal, c.repScore)
	}
}

func TestCapRoundCapsAtHundred(t *testing.T) {
	assert.Equal(t, 100, capRound(142.7))
}

func TestCapRoundNeverNegative(t *testing.T) {
	assert.Equal(t, 0, capRound(-5))
}

func TestRecencyBonusBands(t *testing.T) {
	assert.Equal(t, 0.0, recencyBonus(nil))

	h1 := time.Now().Add(-1 * time.Hour)
	assert.Equal(t, 5.0, recencyBonus(&h1))

	h20 := time.Now().Add(-20 * time.Hour)
	assert.Equal(t, 3.0, recencyBonus(&h20))

	h40 := time.Now().Add(-40 * time.Hour)
	assert.Equal(t, 1.0, recencyBonus(&h40))

	h100 := time.Now().Add(-100 * time.Hour)
	assert.Equal(t, 0.0, recencyBonus(&h100))
}

func TestComposeQualityScoreFallsBackOnReputationError(t *testing.T) {
	s := &Service{}
	score := s.composeQualityScore(90, 0, errors.New("store unavailable"), "unknown-outlet", nil)
	assert.Equal(t, minInt(100, exceptionFallbackAuthority+35), score)
}
