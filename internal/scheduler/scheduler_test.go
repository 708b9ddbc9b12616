package scheduler

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestHostOf(t *testing.T) {
	assert.Equal(t, "example.com", hostOf("https://example.com/feed.xml"))
	assert.Equal(t, "example.com:8080", hostOf("http://example.com:8080/rss"))
	assert.Equal(t, "not a url", hostOf("not a url"))
}

func newTestService() *Service {
	return NewService(nil, nil, zerolog.Nop(), time.Second, 2, time.Second, time.Second)
}

func TestLimiterForIsStablePerHost(t *testing.T) {
	s := newTestService()
	a := s.limiterFor("example.com")
	b := s.limiterFor("example.com")
	c := s.limiterFor("other.com")
	assert.Same(t, a, b)
	assert.NotSame(t, a, c)
}

func TestBreakerForIsStablePerHost(t *testing.T) {
	s := newTestService()
	a := s.breakerFor("example.com")
	b := s.breakerFor("example.com")
	assert.Same(t, a, b)
}
