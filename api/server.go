package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"webhub/config"
	"webhub/pipeline"
)

const shutdownTimeout = 10 * time.Second

// Server exposes the retrieval tools to agent hubs over MCP/SSE.
type Server struct {
	hub    *Hub
	mcp    *server.MCPServer
	sse    *server.SSEServer
	addr   string
	logger *zap.Logger
}

// NewServer creates a new API server
func NewServer(logger *zap.Logger, p *pipeline.Pipeline, cfg config.ServerConfig, version string) *Server {
	hub := NewHub(logger, p)
	mcpServer := server.NewMCPServer("webhub", version,
		server.WithToolCapabilities(false),
		server.WithRecovery(),
	)
	hub.Register(mcpServer)

	return &Server{
		hub:    hub,
		mcp:    mcpServer,
		sse:    server.NewSSEServer(mcpServer),
		addr:   cfg.Addr,
		logger: logger,
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(requestLogger(s.logger))
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	r.Handle("/sse", s.sse.SSEHandler())
	r.Handle("/message", s.sse.MessageHandler())
	return r
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Starting API server", zap.String("addr", s.addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.logger.Info("Shutting down API server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.sse.Shutdown(shutdownCtx); err != nil {
		s.logger.Warn("sse shutdown", zap.Error(err))
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return nil
}

// requestLogger skips the long-lived SSE stream; it would only log on disconnect.
func requestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/sse" || r.URL.Path == "/health" {
				next.ServeHTTP(w, r)
				return
			}
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			logger.Info("request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("elapsed", time.Since(start)))
		})
	}
}
