package webapi

import (
	"context"
	"testing"

	"github.com/graphql-go/graphql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkolb22/k8s-news-engine/internal/auth"
	"github.com/mkolb22/k8s-news-engine/internal/models"
)

type fakeStore struct {
	feeds    []models.Feed
	articles []models.Article
	events   []models.Event
	metrics  map[int64]*models.EventMetrics
}

func (f *fakeStore) ListFeeds(ctx context.Context) ([]models.Feed, error) { return f.feeds, nil }

func (f *fakeStore) ListRecentArticles(ctx context.Context, limit int) ([]models.Article, error) {
	if limit < len(f.articles) {
		return f.articles[:limit], nil
	}
	return f.articles, nil
}

func (f *fakeStore) GetArticle(ctx context.Context, id int64) (*models.Article, error) {
	for _, a := range f.articles {
		if a.ID == id {
			return &a, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) ListRecentEvents(ctx context.Context, limit int) ([]models.Event, error) {
	return f.events, nil
}

func (f *fakeStore) EventArticles(ctx context.Context, eventID int64) ([]models.Article, error) {
	return f.articles, nil
}

func (f *fakeStore) GetEventMetrics(ctx context.Context, eventID int64) (*models.EventMetrics, error) {
	return f.metrics[eventID], nil
}

type fakeConfigManager struct {
	updates map[string]interface{}
	err     error
}

func (f *fakeConfigManager) UpdateConfiguration(ctx context.Context, updates map[string]interface{}, reason string) error {
	if f.err != nil {
		return f.err
	}
	f.updates = updates
	return nil
}

func newTestStore() *fakeStore {
	qs := 82
	return &fakeStore{
		feeds: []models.Feed{{ID: 1, URL: "https://example.com/rss", OutletName: "Example Wire", Active: true}},
		articles: []models.Article{
			{ID: 1, URL: "https://example.com/a", OutletName: "Example Wire", Title: "Headline", QualityScore: &qs},
		},
		events:  []models.Event{{ID: 1, Title: "Event One", Active: true}},
		metrics: map[int64]*models.EventMetrics{1: {EventID: 1, EQISScore: 71.5}},
	}
}

func TestHandlerBuildsSchema(t *testing.T) {
	st := newTestStore()
	h, err := Handler(st, &fakeConfigManager{}, nil)
	require.NoError(t, err)
	require.NotNil(t, h)
}

func TestHandlerBuildsWithArticlesOverrideAndStoreReturnsArticle(t *testing.T) {
	st := newTestStore()
	eventType.AddFieldConfig("articles", &graphql.Field{
		Type: graphql.NewList(articleType),
		Resolve: func(p graphql.ResolveParams) (interface{}, error) {
			return nil, nil
		},
	})
	_, err := Handler(st, &fakeConfigManager{}, nil)
	require.NoError(t, err)

	got, err := st.GetArticle(context.Background(), 1)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Headline", got.Title)
}

func TestUpdateGroupingConfigRejectsWithoutAdminToken(t *testing.T) {
	hash, err := auth.HashPassword("operator-password")
	require.NoError(t, err)
	authSvc := auth.NewService("test-secret", hash)

	requireAdmin := func(p graphql.ResolveParams) error {
		token, _ := p.Context.Value(adminTokenKey{}).(string)
		if token == "" {
			return auth.ErrInvalidToken
		}
		return authSvc.ValidateToken(token)
	}
	err = requireAdmin(graphql.ResolveParams{Context: context.Background()})
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestUpdateGroupingConfigAcceptsIssuedToken(t *testing.T) {
	hash, err := auth.HashPassword("operator-password")
	require.NoError(t, err)
	authSvc := auth.NewService("test-secret", hash)

	token, err := authSvc.IssueToken("operator-password")
	require.NoError(t, err)

	requireAdmin := func(p graphql.ResolveParams) error {
		tok, _ := p.Context.Value(adminTokenKey{}).(string)
		return authSvc.ValidateToken(tok)
	}
	ctx := contextWithAdminToken(context.Background(), token)
	assert.NoError(t, requireAdmin(graphql.ResolveParams{Context: ctx}))
}

func TestCoerceConfigValueConvertsKnownParams(t *testing.T) {
	assert.Equal(t, 3, coerceConfigValue("min_shared_entities", "3"))
	assert.Equal(t, 0.75, coerceConfigValue("entity_overlap_threshold", "0.75"))
	assert.Equal(t, true, coerceConfigValue("allow_same_outlet", "true"))
	assert.Equal(t, false, coerceConfigValue("allow_same_outlet", "false"))
	assert.Equal(t, "unknown_value", coerceConfigValue("some_unknown_param", "unknown_value"))
}

func TestParseIDAcceptsStringAndInt(t *testing.T) {
	id, err := parseID("42")
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)

	id, err = parseID(7)
	require.NoError(t, err)
	assert.Equal(t, int64(7), id)

	_, err = parseID("not-a-number")
	assert.Error(t, err)
}

func TestFakeConfigManagerRecordsUpdate(t *testing.T) {
	cfg := &fakeConfigManager{}
	err := cfg.UpdateConfiguration(context.Background(), map[string]interface{}{"min_shared_entities": 4}, "test update")
	require.NoError(t, err)
	assert.Equal(t, 4, cfg.updates["min_shared_entities"])
}

func TestEventMetricsLookupMissingReturnsNil(t *testing.T) {
	st := newTestStore()
	m, err := st.GetEventMetrics(context.Background(), 999)
	require.NoError(t, err)
	assert.Nil(t, m)
}

func TestFeedLastFetchedNilWhenUnset(t *testing.T) {
	f := models.Feed{ID: 2, OutletName: "No Fetch Yet"}
	assert.Nil(t, f.LastFetched)
}

func TestArticleQualityScoreNilBeforeScoring(t *testing.T) {
	a := models.Article{ID: 3, OutletName: "Pending Outlet"}
	assert.Nil(t, a.QualityScore)
}
