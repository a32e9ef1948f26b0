// Package server exposes the formula pipeline over HTTP.
//
// Routes:
//
//	POST /solve        {"image": "<base64 or data URL>"}
//	POST /solve/latex  {"latex": "..."}
//	GET  /health
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/google/uuid"

	"github.com/njchilds90/formsolve/internal/cache"
	"github.com/njchilds90/formsolve/internal/format"
	"github.com/njchilds90/formsolve/internal/pipeline"
	"github.com/njchilds90/formsolve/internal/ratelimit"
	"github.com/njchilds90/formsolve/internal/recognize"
)

const defaultMaxBodyBytes = 10 << 20

type Config struct {
	Addr         string
	RateLimit    float64
	Burst        int
	MaxBodyBytes int64
	Pipeline     *pipeline.Pipeline
	Recognizer   recognize.Recognizer // nil disables POST /solve
	Cache        *cache.Cache         // nil disables caching
	Logger       *slog.Logger
}

type Server struct {
	httpServer *http.Server
	cfg        Config
	limiter    *ratelimit.Limiter
	logger     *slog.Logger
}

func New(cfg Config) (*Server, error) {
	if cfg.Pipeline == nil {
		return nil, errors.New("server: pipeline is required")
	}
	if cfg.Addr == "" {
		cfg.Addr = "127.0.0.1:8080"
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = defaultMaxBodyBytes
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	s := &Server{
		cfg:     cfg,
		limiter: ratelimit.New(cfg.RateLimit, cfg.Burst),
		logger:  cfg.Logger,
	}
	s.httpServer = &http.Server{
		Addr:              cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      90 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s, nil
}

// Handler returns the routed handler with all middleware applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("POST /solve", s.limited(http.HandlerFunc(s.handleSolveImage)))
	mux.Handle("POST /solve/latex", s.limited(http.HandlerFunc(s.handleSolveLatex)))
	mux.HandleFunc("GET /health", s.handleHealth)
	return s.withRequestID(s.withCORS(s.withRecover(mux)))
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("formsolve server listening", "addr", s.cfg.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	s.logger.Info("shutting down server")
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// ============================================================
// Handlers
// ============================================================

type imageRequest struct {
	Image string `json:"image"`
}

type latexRequest struct {
	Latex string `json:"latex"`
}

func (s *Server) handleSolveImage(w http.ResponseWriter, r *http.Request) {
	if s.cfg.Recognizer == nil {
		writeError(w, http.StatusServiceUnavailable, "no recognizer configured")
		return
	}
	var req imageRequest
	if !s.decode(w, r, &req) {
		return
	}
	img, err := recognize.DecodeBase64Image(req.Image)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	latex, err := s.cfg.Recognizer.Recognize(r.Context(), img)
	if err != nil {
		s.logger.Error("recognition failed", "request_id", requestID(r), "recognizer", s.cfg.Recognizer.Name(), "error", err)
		writeJSON(w, http.StatusInternalServerError, format.Failure(err))
		return
	}
	s.logger.Info("recognized LaTeX", "request_id", requestID(r), "latex", latex)
	writeJSON(w, http.StatusOK, s.solve(w, latex))
}

func (s *Server) handleSolveLatex(w http.ResponseWriter, r *http.Request) {
	var req latexRequest
	if !s.decode(w, r, &req) {
		return
	}
	writeJSON(w, http.StatusOK, s.solve(w, req.Latex))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

// solve runs latex through the cache and pipeline and reports the cache
// outcome in the X-Cache header.
func (s *Server) solve(w http.ResponseWriter, latex string) format.DisplayResult {
	if s.cfg.Cache == nil {
		return s.cfg.Pipeline.Process(latex)
	}
	res, hit := s.cfg.Cache.GetOrCompute(latex, s.cfg.Pipeline.Process)
	if hit {
		w.Header().Set("X-Cache", "HIT")
	} else {
		w.Header().Set("X-Cache", "MISS")
	}
	return res
}

// decode reads a single JSON object from the body, answering 400 itself
// on failure.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxBodyBytes)
	defer r.Body.Close()

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return false
	}
	if dec.More() {
		writeError(w, http.StatusBadRequest, "invalid JSON: trailing data")
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// ============================================================
// Middleware
// ============================================================

type ctxKey struct{}

func requestID(r *http.Request) string {
	id, _ := r.Context().Value(ctxKey{}).(string)
	return id
}

func (s *Server) withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, id)))
	})
}

func (s *Server) withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Access-Control-Allow-Origin", "*")
		h.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		h.Set("Access-Control-Allow-Headers", "Content-Type, X-Request-ID")
		h.Set("Access-Control-Expose-Headers", "X-Request-ID, X-Cache")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) withRecover(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				s.logger.Error("panic in handler", "request_id", requestID(r), "path", r.URL.Path, "panic", rec, "stack", string(debug.Stack()))
				writeError(w, http.StatusInternalServerError, "internal server error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func (s *Server) limited(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.limiter.Allow(clientIP(r)) {
			w.Header().Set("Retry-After", "1")
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
