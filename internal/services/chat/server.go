package chat

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/louisbranch/chatfeed/internal/platform/timeouts"
	"github.com/louisbranch/chatfeed/internal/services/chat/feed"
	"github.com/louisbranch/chatfeed/internal/services/chat/identity"
	"github.com/louisbranch/chatfeed/internal/services/chat/platform/httpx"
	"github.com/louisbranch/chatfeed/internal/services/chat/platform/requestmeta"
	"github.com/louisbranch/chatfeed/internal/services/chat/tag"
)

// DefaultMaxBodyBytes caps form posts.
const DefaultMaxBodyBytes = 16 << 10

// FeedReader returns the current message list.
type FeedReader interface {
	Fetch(ctx context.Context) feed.Result
}

// Sender submits a message on behalf of the visitor.
type Sender interface {
	Submit(ctx context.Context, rawText string, author string, hasAuthor bool) error
}

// Pinger is a dependency probed by the health endpoint.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Config defines startup inputs for the chat service.
type Config struct {
	HTTPAddr string
	Version  string

	Feed     FeedReader
	Sender   Sender
	Tags     tag.Registry
	Identity *identity.Store

	// HealthChecks maps a check name to the dependency it probes.
	HealthChecks map[string]Pinger

	Logger       zerolog.Logger
	SchemePolicy requestmeta.SchemePolicy
	// SendLimiter throttles POST routes per client; nil disables it.
	SendLimiter  *httpx.Limiter
	RefreshEvery time.Duration
	MaxBodyBytes int64
}

// Server hosts the chat HTTP surface and lifecycle.
type Server struct {
	httpAddr   string
	httpServer *http.Server
	logger     zerolog.Logger
}

// NewHandler builds the root handler.
func NewHandler(cfg Config) (http.Handler, error) {
	if cfg.Feed == nil {
		return nil, errors.New("feed reader is required")
	}
	if cfg.Sender == nil {
		return nil, errors.New("sender is required")
	}
	if cfg.Tags == nil {
		return nil, errors.New("tag registry is required")
	}
	if cfg.Identity == nil {
		cfg.Identity = identity.NewStore(cfg.SchemePolicy, false)
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if cfg.RefreshEvery <= 0 {
		cfg.RefreshEvery = feed.DefaultPollInterval
	}
	return newRouter(newHandlers(cfg), cfg), nil
}

// NewServer validates config and constructs a chat server.
func NewServer(_ context.Context, cfg Config) (*Server, error) {
	httpAddr := strings.TrimSpace(cfg.HTTPAddr)
	if httpAddr == "" {
		return nil, errors.New("http address is required")
	}
	handler, err := NewHandler(cfg)
	if err != nil {
		return nil, fmt.Errorf("compose chat handler: %w", err)
	}
	return &Server{
		httpAddr: httpAddr,
		logger:   cfg.Logger,
		httpServer: &http.Server{
			Addr:              httpAddr,
			Handler:           handler,
			ReadHeaderTimeout: timeouts.ReadHeader,
		},
	}, nil
}

// ListenAndServe serves HTTP traffic until context cancellation or server stop.
func (s *Server) ListenAndServe(ctx context.Context) error {
	if s == nil {
		return errors.New("chat server is nil")
	}
	if ctx == nil {
		return errors.New("context is required")
	}

	serveErr := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", s.httpAddr).Msg("chat server listening")
		serveErr <- s.httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeouts.Shutdown)
		err := s.httpServer.Shutdown(shutdownCtx)
		cancel()
		if err != nil {
			return fmt.Errorf("shutdown chat http server: %w", err)
		}
		return nil
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve chat http: %w", err)
	}
}

// Close closes open server resources.
func (s *Server) Close() {
	if s == nil || s.httpServer == nil {
		return
	}
	_ = s.httpServer.Close()
}
