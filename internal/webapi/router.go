package webapi

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/graphql-go/graphql"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/mkolb22/k8s-news-engine/internal/auth"
)

// adminTokenKey is the context key the requireAdmin resolver checks.
type adminTokenKey struct{}

func contextWithAdminToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, adminTokenKey{}, token)
}

// NewRouter builds the chi router: CORS + logging + recoverer middleware
// (teacher's cmd/main.go stack), the GraphQL endpoint, a login endpoint
// that exchanges the operator's admin password for a signed JWT, and
// health/metrics endpoints. authSvc, if non-nil, gates the
// updateGroupingConfig mutation behind a valid admin bearer token; a nil
// authSvc (no admin password configured) leaves the mutation open, for
// local/dev use.
func NewRouter(st Store, cfgMgr ConfigManager, authSvc *auth.Service, log zerolog.Logger) (http.Handler, error) {
	requireAdmin := func(p graphql.ResolveParams) error {
		if authSvc == nil {
			return nil
		}
		token, _ := p.Context.Value(adminTokenKey{}).(string)
		if token == "" {
			return auth.ErrInvalidToken
		}
		return authSvc.ValidateToken(token)
	}

	gqlHandler, err := Handler(st, cfgMgr, requireAdmin)
	if err != nil {
		return nil, err
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(chiZerologLogger(log))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Route("/graphql", func(sr chi.Router) {
		sr.Use(bearerTokenMiddleware)
		sr.Handle("/", gqlHandler)
	})

	r.Post("/admin/login", adminLoginHandler(authSvc))

	r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
	r.Handle("/metrics", promhttp.Handler())

	return r, nil
}

// adminLoginHandler exchanges {"password": "..."} for a signed admin JWT,
// the HTTP-side counterpart to the teacher's POST /auth/login endpoint.
func adminLoginHandler(authSvc *auth.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if authSvc == nil {
			http.Error(w, "admin login is not configured", http.StatusNotFound)
			return
		}
		var body struct {
			Password string `json:"password"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}
		token, err := authSvc.IssueToken(body.Password)
		if err != nil {
			http.Error(w, auth.ErrInvalidCredentials.Error(), http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(struct {
			Token string `json:"token"`
		}{Token: token})
	}
}

// bearerTokenMiddleware extracts "Authorization: Bearer <token>" into the
// request context for requireAdmin to check. Absence is not itself an
// error — only mutations that call requireAdmin enforce it.
func bearerTokenMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token := strings.TrimPrefix(header, "Bearer ")
		ctx := r.Context()
		if token != "" && token != header {
			ctx = contextWithAdminToken(ctx, token)
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func chiZerologLogger(log zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			log.Debug().Str("method", r.Method).Str("path", r.URL.Path).Msg("http request")
			next.ServeHTTP(w, r)
		})
	}
}
