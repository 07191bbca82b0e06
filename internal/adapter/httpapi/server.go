package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"ragchat/internal/usecase"
)

const (
	DefaultMaxBodyBytes = 10 << 20

	shutdownTimeout = 10 * time.Second
)

// Metrics records HTTP traffic and exposes it for scraping.
type Metrics interface {
	ObserveRequest(route, method string, status int, d time.Duration)
	Handler() http.Handler
}

// Server exposes the chat and retrieval use cases over HTTP.
type Server struct {
	chat         *usecase.ChatUseCase
	retrieve     *usecase.RetrieveUseCase
	logger       zerolog.Logger
	metrics      Metrics
	maxBodyBytes int64
	router       *mux.Router
	handler      http.Handler
}

type Option func(*Server)

func WithLogger(logger zerolog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

func WithMetrics(m Metrics) Option {
	return func(s *Server) {
		s.metrics = m
	}
}

// WithMaxBodyBytes limits the size of request bodies.
func WithMaxBodyBytes(n int64) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxBodyBytes = n
		}
	}
}

func NewServer(chat *usecase.ChatUseCase, retrieve *usecase.RetrieveUseCase, opts ...Option) *Server {
	s := &Server{
		chat:         chat,
		retrieve:     retrieve,
		logger:       zerolog.Nop(),
		maxBodyBytes: DefaultMaxBodyBytes,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.router = s.routes()
	s.handler = cors(s.router)
	return s
}

func (s *Server) routes() *mux.Router {
	r := mux.NewRouter()
	r.Use(requestID(s.logger), accessLog(s.metrics))

	r.HandleFunc("/api/chat", s.handleChat).Methods(http.MethodPost)
	r.HandleFunc("/functions/v1/gemini-rag-chat", s.handleChat).Methods(http.MethodPost)
	r.HandleFunc("/api/retrieve", s.handleRetrieve).Methods(http.MethodPost)
	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	if s.metrics != nil {
		r.Handle("/metrics", s.metrics.Handler()).Methods(http.MethodGet)
	}

	r.PathPrefix("/").Methods(http.MethodOptions).HandlerFunc(s.handlePreflight)

	return r
}

// Handler returns the router wrapped in the CORS middleware, so unmatched
// routes carry the headers as well.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", addr).Msg("http server listening")
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

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	s.logger.Info().Msg("shutting down http server")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return nil
}
