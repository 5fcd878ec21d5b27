// Package server exposes region lookup, dataset generation and stored
// datasets over HTTP, and streams generated trials over WebSocket.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/mux"

	"github.com/san-kum/phypno/internal/anat"
	"github.com/san-kum/phypno/internal/simulate"
	"github.com/san-kum/phypno/internal/storage"
)

const shutdownTimeout = 5 * time.Second

type Server struct {
	freesurfer *anat.Freesurfer
	store      *storage.Store
	registry   *simulate.Registry
	logger     *log.Logger
	router     *mux.Router
}

type Option func(*Server)

// WithFreesurfer enables the region and lookup table endpoints.
func WithFreesurfer(f *anat.Freesurfer) Option { return func(s *Server) { s.freesurfer = f } }

// WithStore enables the dataset endpoints.
func WithStore(st *storage.Store) Option { return func(s *Server) { s.store = st } }

func WithRegistry(r *simulate.Registry) Option { return func(s *Server) { s.registry = r } }

func WithLogger(l *log.Logger) Option { return func(s *Server) { s.logger = l } }

func New(opts ...Option) *Server {
	s := &Server{registry: simulate.NewRegistry()}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = log.New(io.Discard)
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() *mux.Router {
	r := mux.NewRouter()
	r.Use(corsMiddleware, s.logMiddleware)

	r.HandleFunc("/api/region", s.handleRegion).Methods("GET", "OPTIONS")
	r.HandleFunc("/api/lut/{index:-?[0-9]+}", s.handleLUT).Methods("GET", "OPTIONS")
	r.HandleFunc("/api/simulate", s.handleSimulate).Methods("POST", "OPTIONS")
	r.HandleFunc("/api/presets", s.handlePresets).Methods("GET", "OPTIONS")
	r.HandleFunc("/api/datasets", s.handleDatasets).Methods("GET", "OPTIONS")
	r.HandleFunc("/api/datasets/{id}", s.handleDataset).Methods("GET", "OPTIONS")
	r.HandleFunc("/api/datasets/{id}", s.handleDeleteDataset).Methods("DELETE")
	r.HandleFunc("/ws/simulate", s.handleSimulateWS)
	return r
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ListenAndServe serves on addr until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) logMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/ws/simulate" {
			// the upgrader needs the raw writer
			next.ServeHTTP(w, r)
			s.logger.Debug("request", "method", r.Method, "path", r.URL.Path)
			return
		}
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.logger.Debug("request", "method", r.Method, "path", r.URL.Path, "status", rec.status, "took", time.Since(start))
	})
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, errorResponse{Error: err.Error()})
}
