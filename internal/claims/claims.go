// Package claims implements C4: extracting and classifying candidate
// factual claims from an article's text, then applying a basic
// verification heuristic, directly ported from claim-extractor/extractor.py.
package claims

import (
	"regexp"
	"strings"

	"github.com/mkolb22/k8s-news-engine/internal/models"
)

// claimIndicators mirrors extractor.py's ClaimExtractor.claim_indicators
// verbatim — phrases whose presence in a sentence marks it as a claim
// candidate.
var claimIndicators = []string{
	`according to`,
	`studies show`,
	`research indicates`,
	`data suggests`,
	`statistics reveal`,
	`surveys found`,
	`reports indicate`,
	`analysis shows`,
	`evidence suggests`,
	`experts say`,
	`officials confirmed`,
	`sources claim`,
	`it is estimated`,
	`approximately \d+`,
	`\d+\s*percent`,
	`\d+\s*%`,
	`increased by`,
	`decreased by`,
	`rose to`,
	`fell to`,
}

var claimPattern = regexp.MustCompile(`(?i)` + strings.Join(claimIndicators, "|"))

var numericClaimPattern = regexp.MustCompile(`(?i)\b\d+[\d,]*\.?\d*\s*(percent|%|million|billion|thousand)`)

var predictionWords = []string{"will", "could", "might", "expected", "forecast", "predict", "future", "likely"}
var opinionWords = []string{"believe", "think", "feel", "seems", "appears", "arguably", "perhaps", "maybe"}
var factWords = []string{"data", "study", "research", "report", "confirmed"}

var digitPattern = regexp.MustCompile(`\d+`)
var whitespacePattern = regexp.MustCompile(`\s+`)

const maxClaimsPerArticle = 20

// Candidate is one extracted claim sentence before persistence.
type Candidate struct {
	Text       string
	Type       models.ClaimType
	Confidence float64
}

// ExtractClaims scans an article's title+text for claim-indicator
// sentences and numeric-claim sentences, classifies each, deduplicates,
// and returns at most 20 ranked by confidence descending — matching
// extract_claims_from_text exactly.
func ExtractClaims(title, text string) []Candidate {
	if text == "" {
		return nil
	}

	fullText := title + "\n\n" + text
	if len(fullText) > 100_000 {
		fullText = fullText[:100_000]
	}

	sentences := splitSentences(fullText)

	var claims []Candidate
	seen := make(map[string]bool)

	for _, sent := range sentences {
		if len(sent) < 30 || len(sent) > 500 {
			continue
		}
		if !claimPattern.MatchString(sent) {
			continue
		}
		claimText := normalizeWhitespace(sent)
		key := claimKey(claimText)
		if seen[key] {
			continue
		}
		seen[key] = true

		claims = append(claims, Candidate{
			Text:       claimText,
			Type:       classifyClaimType(claimText),
			Confidence: 0.8,
		})
	}

	for _, sent := range sentences {
		if !numericClaimPattern.MatchString(sent) {
			continue
		}
		key := claimKey(sent)
		if seen[key] {
			continue
		}
		seen[key] = true
		claims = append(claims, Candidate{Text: sent, Type: models.ClaimFact, Confidence: 0.9})
	}

	sortByConfidenceDesc(claims)
	if len(claims) > maxClaimsPerArticle {
		claims = claims[:maxClaimsPerArticle]
	}
	return claims
}

func claimKey(s string) string {
	lower := strings.ToLower(s)
	if len(lower) > 100 {
		lower = lower[:100]
	}
	return lower
}

// classifyClaimType mirrors classify_claim_type's four-step order exactly:
// prediction words, then opinion words, then numeric/fact words, then a
// subjectivity fallback, defaulting to fact.
func classifyClaimType(claimText string) models.ClaimType {
	lower := strings.ToLower(claimText)

	if containsAny(lower, predictionWords) {
		return models.ClaimPrediction
	}
	if containsAny(lower, opinionWords) {
		return models.ClaimOpinion
	}
	if digitPattern.MatchString(claimText) || containsAny(lower, factWords) {
		return models.ClaimFact
	}
	if Subjectivity(claimText) > 0.5 {
		return models.ClaimOpinion
	}
	return models.ClaimFact
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}

func normalizeWhitespace(s string) string {
	return strings.TrimSpace(whitespacePattern.ReplaceAllString(s, " "))
}

func sortByConfidenceDesc(claims []Candidate) {
	for i := 1; i < len(claims); i++ {
		for j := i; j > 0 && claims[j].Confidence > claims[j-1].Confidence; j-- {
			claims[j], claims[j-1] = claims[j-1], claims[j]
		}
	}
}

// splitSentences is a punctuation-boundary sentence splitter standing in
// for spaCy's statistical sentence boundary detection (doc.sents), which
// is unavailable without an NLP model in this pack.
func splitSentences(text string) []string {
	var sentences []string
	var buf strings.Builder
	runes := []rune(text)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		buf.WriteRune(r)
		if r == '.' || r == '!' || r == '?' {
			next := rune(0)
			if i+1 < len(runes) {
				next = runes[i+1]
			}
			if next == 0 || next == ' ' || next == '\n' {
				s := strings.TrimSpace(buf.String())
				if s != "" {
					sentences = append(sentences, s)
				}
				buf.Reset()
			}
		}
	}
	if rest := strings.TrimSpace(buf.String()); rest != "" {
		sentences = append(sentences, rest)
	}
	return sentences
}

// VerifyClaim applies verify_claim_basic's heuristic: trusted outlets get
// benefit of the doubt unless hedged; everyone else's hedged or disputed
// language is classified accordingly, defaulting to unverified.
func VerifyClaim(claimText, outlet string) (models.VerifiedState, *string) {
	lower := strings.ToLower(claimText)

	if isTrustedOutlet(outlet) {
		if strings.Contains(lower, "allegedly") || strings.Contains(lower, "reportedly") {
			return models.Unverified, nil
		}
		o := outlet
		return models.VerifiedYes, &o
	}

	if containsAny(lower, []string{"allegedly", "reportedly", "claimed", "accused"}) {
		return models.Unverified, nil
	}
	if containsAny(lower, []string{"controversial", "disputed", "debate", "conflicting"}) {
		return models.Contested, nil
	}
	return models.Unverified, nil
}

// trustedOutlets mirrors verify_claim_basic's high_confidence_outlets list
// verbatim.
var trustedOutlets = map[string]bool{
	"reuters.com": true,
	"apnews.com":  true,
	"bbc.co.uk":   true,
}

func isTrustedOutlet(outlet string) bool {
	return trustedOutlets[strings.ToLower(strings.TrimSpace(outlet))]
}

// PlaceholderClaim is the single no-claims-found row saved so an article
// is never reprocessed, matching process_article's empty branch.
func PlaceholderClaim(articleID int64) models.Claim {
	return models.Claim{
		ArticleID:     articleID,
		ClaimText:     "No claims extracted",
		ClaimType:     models.ClaimNone,
		VerifiedState: models.Unverified,
	}
}
