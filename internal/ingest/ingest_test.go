package ingest

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanonicalizeURLStripsTrackingParams(t *testing.T) {
	got, err := canonicalizeURL("HTTPS://Example.com/story/42/?utm_source=rss&utm_medium=feed&id=42#top")
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/story/42?id=42", got)
}

func TestCanonicalizeURLRejectsInvalid(t *testing.T) {
	_, err := canonicalizeURL("not a url at all")
	assert.Error(t, err)
}

func TestStripHTML(t *testing.T) {
	got := stripHTML("<p>Hello   <b>world</b></p>\n<p>Second line</p>")
	assert.Equal(t, "Hello world Second line", got)
}

func TestTruncate(t *testing.T) {
	s := strings.Repeat("a", 100)
	assert.Len(t, truncate(s, 10), 10)
	assert.Equal(t, s, truncate(s, 1000))
}

func TestCleanAuthorDropsStopWords(t *testing.T) {
	assert.Equal(t, "", cleanAuthor("Reuters"))
	assert.Equal(t, "Jane Smith", cleanAuthor("  Jane Smith  "))
}
