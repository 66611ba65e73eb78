// Package server exposes the reverb pipeline over HTTP multipart uploads
// and a WebSocket endpoint.
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cwbudde/algo-reverb/internal/pipeline"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

// Defaults applied by New for zero Config fields.
const (
	DefaultAddr           = ":8000"
	DefaultMaxUploadBytes = 64 << 20
	DefaultRequestTimeout = 2 * time.Minute

	shutdownTimeout = 10 * time.Second
	multipartMemory = 8 << 20
)

// Config holds server configuration.
type Config struct {
	Addr           string
	MaxUploadBytes int64
	RequestTimeout time.Duration
	// KeepOutputs leaves rendered files in the pipeline's output directory
	// after they have been sent.
	KeepOutputs bool
}

// Server serves reverb requests.
type Server struct {
	cfg      Config
	proc     *pipeline.Processor
	log      logrus.FieldLogger
	upgrader websocket.Upgrader
	handler  http.Handler
}

// New creates a server around proc. log may be nil.
func New(cfg Config, proc *pipeline.Processor, log logrus.FieldLogger) *Server {
	if cfg.Addr == "" {
		cfg.Addr = DefaultAddr
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = DefaultMaxUploadBytes
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = DefaultRequestTimeout
	}
	if log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		log = l
	}

	s := &Server{
		cfg:  cfg,
		proc: proc,
		log:  log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  64 << 10,
			WriteBufferSize: 64 << 10,
			// Browsers on any origin may call the API, matching the CORS policy.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/apply_reverb/", s.handleApply)
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/ws", s.handleWebSocket)

	s.handler = s.withRequestID(withCORS(mux))

	return s
}

// Handler returns the root handler with middleware applied.
func (s *Server) Handler() http.Handler { return s.handler }

// Config returns the effective configuration.
func (s *Server) Config() Config { return s.cfg }

// ListenAndServe serves until ctx is canceled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.WithField("addr", s.cfg.Addr).Info("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server: shutdown: %w", err)
	}
	<-errCh
	return nil
}
