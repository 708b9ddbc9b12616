// Package webapi is the read-only query surface plus a narrow admin
// mutation endpoint, adapted from the teacher's internal/graphql and
// internal/auth packages: same graphql-go schema-building shape and the
// same chi/cors/zerolog router wiring, repointed at the feed/article/
// event/EQIS data model and a single admin password exchanged for signed
// bearer tokens instead of a user/session model the spec has no use for.
package webapi

import (
	"context"
	"fmt"

	"github.com/graphql-go/graphql"
	"github.com/graphql-go/handler"

	"github.com/mkolb22/k8s-news-engine/internal/models"
)

// Store is the subset of *store.Store this package's resolvers depend on.
type Store interface {
	ListFeeds(ctx context.Context) ([]models.Feed, error)
	ListRecentArticles(ctx context.Context, limit int) ([]models.Article, error)
	GetArticle(ctx context.Context, id int64) (*models.Article, error)
	ListRecentEvents(ctx context.Context, limit int) ([]models.Event, error)
	EventArticles(ctx context.Context, eventID int64) ([]models.Article, error)
	GetEventMetrics(ctx context.Context, eventID int64) (*models.EventMetrics, error)
}

// ConfigManager is the subset of *perfconfig.Manager the admin mutation
// needs to apply a runtime configuration update.
type ConfigManager interface {
	UpdateConfiguration(ctx context.Context, updates map[string]interface{}, reason string) error
}

var feedType = graphql.NewObject(graphql.ObjectConfig{
	Name: "Feed",
	Fields: graphql.Fields{
		"id":                  &graphql.Field{Type: graphql.NewNonNull(graphql.ID)},
		"url":                 &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
		"outletName":          &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
		"active":              &graphql.Field{Type: graphql.NewNonNull(graphql.Boolean)},
		"pollIntervalMinutes": &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
		"lastFetched": &graphql.Field{
			Type: graphql.String,
			Resolve: func(p graphql.ResolveParams) (interface{}, error) {
				f := p.Source.(models.Feed)
				if f.LastFetched == nil {
					return nil, nil
				}
				return f.LastFetched.Format("2006-01-02T15:04:05Z07:00"), nil
			},
		},
	},
})

var articleType = graphql.NewObject(graphql.ObjectConfig{
	Name: "Article",
	Fields: graphql.Fields{
		"id":         &graphql.Field{Type: graphql.NewNonNull(graphql.ID)},
		"url":        &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
		"outletName": &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
		"title":      &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
		"qualityScore": &graphql.Field{
			Type: graphql.Int,
			Resolve: func(p graphql.ResolveParams) (interface{}, error) {
				a := p.Source.(models.Article)
				if a.QualityScore == nil {
					return nil, nil
				}
				return *a.QualityScore, nil
			},
		},
		"nerPersons":       &graphql.Field{Type: graphql.NewList(graphql.String)},
		"nerOrganizations": &graphql.Field{Type: graphql.NewList(graphql.String)},
		"nerLocations":     &graphql.Field{Type: graphql.NewList(graphql.String)},
		"computedEventId": &graphql.Field{
			Type: graphql.ID,
			Resolve: func(p graphql.ResolveParams) (interface{}, error) {
				a := p.Source.(models.Article)
				if a.ComputedEventID == nil {
					return nil, nil
				}
				return *a.ComputedEventID, nil
			},
		},
	},
})

var eventMetricsType = graphql.NewObject(graphql.ObjectConfig{
	Name: "EventMetrics",
	Fields: graphql.Fields{
		"ageDays":            &graphql.Field{Type: graphql.Float},
		"coverageSites":      &graphql.Field{Type: graphql.Int},
		"keywordCoherence":   &graphql.Field{Type: graphql.Float},
		"bestSource":         &graphql.Field{Type: graphql.String},
		"corroborationRatio": &graphql.Field{Type: graphql.Float},
		"contradictionRate":  &graphql.Field{Type: graphql.Float},
		"correctionRisk":     &graphql.Field{Type: graphql.Float},
		"eqisScore":          &graphql.Field{Type: graphql.Float},
	},
})

var eventType = graphql.NewObject(graphql.ObjectConfig{
	Name: "Event",
	Fields: graphql.Fields{
		"id":          &graphql.Field{Type: graphql.NewNonNull(graphql.ID)},
		"title":       &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
		"description": &graphql.Field{Type: graphql.String},
		"active":      &graphql.Field{Type: graphql.NewNonNull(graphql.Boolean)},
	},
})

// Handler builds the GraphQL HTTP handler over the read-only query
// surface plus the admin-guarded updateGroupingConfig mutation, matching
// the teacher's Handler(db, ...) constructor shape.
func Handler(st Store, cfgMgr ConfigManager, requireAdmin func(p graphql.ResolveParams) error) (*handler.Handler, error) {
	eventType.AddFieldConfig("articles", &graphql.Field{
		Type: graphql.NewList(articleType),
		Resolve: func(p graphql.ResolveParams) (interface{}, error) {
			e := p.Source.(models.Event)
			return st.EventArticles(p.Context, e.ID)
		},
	})
	eventType.AddFieldConfig("metrics", &graphql.Field{
		Type: eventMetricsType,
		Resolve: func(p graphql.ResolveParams) (interface{}, error) {
			e := p.Source.(models.Event)
			return st.GetEventMetrics(p.Context, e.ID)
		},
	})

	rootQuery := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"feeds": &graphql.Field{
				Type: graphql.NewList(feedType),
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return st.ListFeeds(p.Context)
				},
			},
			"articles": &graphql.Field{
				Type: graphql.NewList(articleType),
				Args: graphql.FieldConfigArgument{
					"limit": &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 50},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					limit := p.Args["limit"].(int)
					return st.ListRecentArticles(p.Context, limit)
				},
			},
			"article": &graphql.Field{
				Type: articleType,
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.ID)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					id, err := parseID(p.Args["id"])
					if err != nil {
						return nil, err
					}
					return st.GetArticle(p.Context, id)
				},
			},
			"events": &graphql.Field{
				Type: graphql.NewList(eventType),
				Args: graphql.FieldConfigArgument{
					"limit": &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 50},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					limit := p.Args["limit"].(int)
					return st.ListRecentEvents(p.Context, limit)
				},
			},
		},
	})

	rootMutation := graphql.NewObject(graphql.ObjectConfig{
		Name: "Mutation",
		Fields: graphql.Fields{
			"updateGroupingConfig": &graphql.Field{
				Type: graphql.Boolean,
				Args: graphql.FieldConfigArgument{
					"param":  &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"value":  &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"reason": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					if requireAdmin != nil {
						if err := requireAdmin(p); err != nil {
							return nil, err
						}
					}
					param := p.Args["param"].(string)
					reason := p.Args["reason"].(string)
					coerced := coerceConfigValue(param, p.Args["value"].(string))
					if err := cfgMgr.UpdateConfiguration(p.Context, map[string]interface{}{param: coerced}, reason); err != nil {
						return false, err
					}
					return true, nil
				},
			},
		},
	})

	schema, err := graphql.NewSchema(graphql.SchemaConfig{Query: rootQuery, Mutation: rootMutation})
	if err != nil {
		return nil, fmt.Errorf("building graphql schema: %w", err)
	}

	return handler.New(&handler.Config{Schema: &schema, Pretty: true, GraphiQL: true}), nil
}

// coerceConfigValue converts a GraphQL string argument into the Go type
// internal/perfconfig.applyUpdates expects for the named parameter
// (int, float64, or bool), matching update_configuration's own param-type
// dispatch. Unrecognized params pass through as strings and are rejected
// by UpdateConfiguration's key validation.
func coerceConfigValue(param, value string) interface{} {
	switch param {
	case "min_shared_entities", "min_title_keywords", "max_time_diff_hours", "min_entity_length", "max_entity_length":
		var n int
		if _, err := fmt.Sscanf(value, "%d", &n); err == nil {
			return n
		}
		return value
	case "entity_overlap_threshold", "title_keyword_bonus", "entity_noise_threshold":
		var f float64
		if _, err := fmt.Sscanf(value, "%g", &f); err == nil {
			return f
		}
		return value
	case "allow_same_outlet":
		return value == "true"
	default:
		return value
	}
}

func parseID(v interface{}) (int64, error) {
	switch id := v.(type) {
	case string:
		var n int64
		if _, err := fmt.Sscanf(id, "%d", &n); err != nil {
			return 0, fmt.Errorf("invalid id %q: %w", id, err)
		}
		return n, nil
	case int:
		return int64(id), nil
	default:
		return 0, fmt.Errorf("unexpected id type %T", v)
	}
}
