package ner

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractFindsProperNouns(t *testing.T) {
	e := NewExtractor()
	text := "President Joe Biden met with Israeli Prime Minister Benjamin Netanyahu at the White House."
	result := e.Extract("", text)

	flat := result.FlatSet()
	assert.True(t, flat["president joe biden"])
	assert.True(t, flat["israeli prime minister benjamin netanyahu"])
	assert.True(t, flat["white house"])
}

func TestExtractFiltersNoiseAndStopwords(t *testing.T) {
	e := NewExtractor()
	text := "The Associated Press reported that Who said the meeting was productive on Monday."
	result := e.Extract("", text)
	flat := result.FlatSet()
	assert.False(t, flat["who"])
	assert.False(t, flat["monday"])
}

func TestExtractIsCached(t *testing.T) {
	e := NewExtractor()
	text := "Senator Jane Doe visited Berlin last week."
	first := e.Extract("", text)
	second := e.Extract("", text)
	assert.Equal(t, first, second)
}

func TestIsValidEntityRespectsMinLength(t *testing.T) {
	assert.False(t, isValidEntity("Al", "UNKNOWN"))
	assert.True(t, isValidEntity("Joe Biden", "PERSON"))
}

func TestLRUCacheEvictsOldest(t *testing.T) {
	c := newLRUCache(2)
	c.Put("a", Result{Others: []string{"a"}})
	c.Put("b", Result{Others: []string{"b"}})
	c.Put("c", Result{Others: []string{"c"}})

	_, ok := c.Get("a")
	assert.False(t, ok)
	_, ok = c.Get("b")
	assert.True(t, ok)
	_, ok = c.Get("c")
	assert.True(t, ok)
}
