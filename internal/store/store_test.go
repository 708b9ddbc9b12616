package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/mkolb22/k8s-news-engine/internal/errs"
	"github.com/mkolb22/k8s-news-engine/internal/models"
)

func TestDueFeeds(t *testing.T) {
	now := time.Date(2026, 7, 30, 12, 0, 0, 0, time.UTC)
	never := now.Add(-90 * time.Minute)
	recent := now.Add(-5 * time.Minute)

	feeds := []models.Feed{
		{ID: 1, LastFetched: nil, PollIntervalMinutes: 30},
		{ID: 2, LastFetched: &never, PollIntervalMinutes: 30},
		{ID: 3, LastFetched: &recent, PollIntervalMinutes: 30},
	}

	due := DueFeeds(feeds, now)
	assert.Len(t, due, 2)
	assert.Equal(t, int64(1), due[0].ID)
	assert.Equal(t, int64(2), due[1].ID)
}

func TestClassifyWriteErr(t *testing.T) {
	cases := []struct {
		msg  string
		kind errs.Kind
	}{
		{`pq: duplicate key value violates unique constraint "articles_url_key"`, errs.KindStoreConstraint},
		{`pq: new row for relation "articles" violates check constraint "articles_quality_score_check"`, errs.KindStoreConstraint},
		{"pq: deadlock detected", errs.KindStoreConflict},
		{"dial tcp: connection refused", errs.KindStoreUnavailable},
	}
	for _, c := range cases {
		err := classifyWriteErr("op", fakeErr(c.msg))
		kind, ok := errs.KindOf(err)
		assert.True(t, ok)
		assert.Equal(t, c.kind, kind, c.msg)
	}
}

type fakeErr string

func (f fakeErr) Error() string { return string(f) }
