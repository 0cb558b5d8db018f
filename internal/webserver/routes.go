package webserver

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spboyer/probscore/internal/webapi"
)

// registerRoutes sets up the API and the Prometheus scrape endpoint.
func registerRoutes(mux *http.ServeMux, cfg Config) error {
	store := webapi.NewFileStore(cfg.ResultsDir)
	if err := store.Reload(); err != nil {
		return fmt.Errorf("loading results from %s: %w", cfg.ResultsDir, err)
	}

	h := webapi.NewHandlers(store, cfg.Evaluator, cfg.MaxBodyBytes, cfg.Logger)
	webapi.RegisterRoutes(mux, h)
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("/api/", handleAPINotFound)
	return nil
}

// handleAPINotFound answers unknown API paths with a JSON error.
func handleAPINotFound(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusNotFound)
	fmt.Fprintf(w, "{\"error\":%q,\"code\":404}\n", "no route for "+r.URL.Path)
}
