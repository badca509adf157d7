// Command romaudit-web serves a small read-only HTTP status surface over an
// existing romaudit store: Prometheus metrics and a JSON snapshot.
package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/ryanm101/romaudit/internal/config"
	"github.com/ryanm101/romaudit/internal/datadir"
	"github.com/ryanm101/romaudit/internal/metrics"
	"github.com/ryanm101/romaudit/internal/store"
	"github.com/ryanm101/romaudit/internal/tracing"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Printf("warning: failed to load config: %v", err)
		cfg = config.DefaultConfig()
	}

	ctx := context.Background()

	dbPath := cfg.DBPath
	if dbPath == "" {
		dir, err := datadir.Resolve()
		if err != nil {
			log.Fatalf("resolve data directory: %v", err)
		}
		dbPath = dir + "/romaudit.db"
	}

	st, err := store.Open(ctx, dbPath)
	if err != nil {
		log.Fatalf("open store %s: %v", dbPath, err)
	}
	defer func() { _ = st.Close() }()

	shutdown, err := tracing.Setup(ctx, tracing.DefaultConfig())
	if err != nil {
		log.Printf("warning: failed to setup tracing: %v", err)
	}
	defer func() {
		if err := shutdown(ctx); err != nil {
			log.Printf("error shutting down tracer: %v", err)
		}
	}()

	port := os.Getenv("ROMAUDIT_PORT")
	if port == "" {
		port = "8080"
	}

	server := newServer(st.Conn())

	fmt.Printf("romaudit status server\n  http://localhost:%s\n\n", port)

	handler := otelhttp.NewHandler(server, "romaudit-web",
		otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
			return fmt.Sprintf("%s %s", r.Method, r.URL.Path)
		}),
	)

	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      handler,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("server error: %v", err)
	}
}

// server handles HTTP requests over a romaudit store.
type server struct {
	db  *sql.DB
	mux *http.ServeMux
}

func newServer(conn *sql.DB) *server {
	s := &server{db: conn, mux: http.NewServeMux()}
	s.mux.HandleFunc("/status", s.handleStatus)
	s.mux.HandleFunc("/health", s.handleHealth)
	s.mux.HandleFunc("/metrics", s.handleMetrics)
	return s
}

func (s *server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// datStatus summarizes one catalog's coverage for the /status endpoint.
type datStatus struct {
	Name    string `json:"name"`
	Sets    int    `json:"sets"`
	Roms    int    `json:"roms"`
	Files   int    `json:"files"`
	Matched int    `json:"matched"`
}

func (s *server) handleStatus(w http.ResponseWriter, r *http.Request) {
	dats, err := store.ListDats(r.Context(), s.db)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	out := make([]datStatus, 0, len(dats))
	for _, d := range dats {
		var sets, roms, files, matched int
		_ = s.db.QueryRowContext(r.Context(), `SELECT COUNT(*) FROM sets WHERE dat_id = ?`, int64(d.ID)).Scan(&sets)
		_ = s.db.QueryRowContext(r.Context(), `SELECT COUNT(*) FROM roms WHERE dat_id = ?`, int64(d.ID)).Scan(&roms)
		_ = s.db.QueryRowContext(r.Context(), `
			SELECT COUNT(*) FROM files WHERE dir_id IN (SELECT id FROM dirs WHERE dat_id = ?)
		`, int64(d.ID)).Scan(&files)
		_ = s.db.QueryRowContext(r.Context(), `
			SELECT COUNT(DISTINCT file_id) FROM matches WHERE dat_id = ? AND status = 'match'
		`, int64(d.ID)).Scan(&matched)
		out = append(out, datStatus{Name: d.Name, Sets: sets, Roms: roms, Files: files, Matched: matched})
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"dats": out})
}

func (s *server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	status := "healthy"
	code := http.StatusOK
	if err := s.db.Ping(); err != nil {
		status = "unhealthy"
		code = http.StatusServiceUnavailable
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{"status": status})
}

func (s *server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	if err := metrics.Snapshot(r.Context(), s.db); err != nil {
		log.Printf("error updating metrics: %v", err)
	}
	promhttp.Handler().ServeHTTP(w, r)
}
