package main

import (
	"net/http"
	"os"
	"path/filepath"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"

	"github.com/localrank/localrank/pkg/types"
	"github.com/localrank/localrank/server/internal/api"
	"github.com/localrank/localrank/server/internal/auth"
	"github.com/localrank/localrank/server/internal/config"
)

type routes struct {
	api    http.Handler
	ingest http.Handler
	hub    http.Handler
	uiDir  string
}

// newRouter mounts every handler on one mux:
//
//	/ingest/v1/snapshots  agent ingest, API-key protected
//	/api/v1/...           REST API behind CORS
//	/ws/stream            WebSocket hub
//	/metrics              Prometheus exposition
//	/                     optional static UI
func newRouter(sc config.ServerConfig, rt routes) http.Handler {
	r := mux.NewRouter()

	requireKey := auth.APIKeyMiddleware(sc.Auth.Mode, sc.Auth.EffectiveHeader(), sc.Auth.Key())
	r.Handle(types.IngestPath, requireKey(rt.ingest))

	c := cors.New(cors.Options{
		AllowedOrigins: sc.CORS.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", api.SessionHeader},
		ExposedHeaders: []string{api.SessionHeader},
	})
	r.PathPrefix("/api/").Handler(c.Handler(rt.api))

	r.Handle("/ws/stream", rt.hub)
	r.Handle("/metrics", promhttp.Handler())

	if rt.uiDir != "" {
		r.PathPrefix("/").Handler(spaHandler(rt.uiDir))
	}
	return r
}

// spaHandler serves files from dir, falling back to index.html for unknown
// paths so client-side routing works.
func spaHandler(dir string) http.Handler {
	fs := http.FileServer(http.Dir(dir))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := filepath.Join(dir, filepath.Clean("/"+r.URL.Path))
		if _, err := os.Stat(path); os.IsNotExist(err) {
			http.ServeFile(w, r, filepath.Join(dir, "index.html"))
			return
		}
		fs.ServeHTTP(w, r)
	})
}

// originChecker returns the WebSocket origin check for the configured CORS
// origins. "*" or an empty list accepts every origin.
func originChecker(allowed []string) func(*http.Request) bool {
	set := make(map[string]struct{}, len(allowed))
	for _, o := range allowed {
		if o == "*" {
			return nil
		}
		set[o] = struct{}{}
	}
	if len(set) == 0 {
		return nil
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		_, ok := set[origin]
		return ok
	}
}
