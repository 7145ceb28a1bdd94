package feed

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"

	"github.com/louisbranch/chatfeed/internal/platform/metrics"
	platformotel "github.com/louisbranch/chatfeed/internal/platform/otel"
	"github.com/louisbranch/chatfeed/internal/services/chat/source"
	"github.com/louisbranch/chatfeed/internal/services/chat/storage"
	"github.com/louisbranch/chatfeed/internal/services/chat/tag"
)

// DefaultCacheTTL bounds how long a cached read may be served without any
// touch at all.
const DefaultCacheTTL = 30 * time.Second

// Source lists the backend message log.
type Source interface {
	ListMessages(ctx context.Context) ([]source.Message, error)
}

// Option customizes a Synchronizer.
type Option func(*Synchronizer)

// WithCacheTTL sets the safety expiry on cached reads. Zero disables expiry.
func WithCacheTTL(ttl time.Duration) Option {
	return func(s *Synchronizer) {
		if ttl >= 0 {
			s.ttl = ttl
		}
	}
}

// WithLogger sets the logger used for fail-soft paths.
func WithLogger(logger zerolog.Logger) Option {
	return func(s *Synchronizer) {
		s.logger = logger
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Synchronizer) {
		if now != nil {
			s.now = now
		}
	}
}

// Synchronizer reads the message list through a tag-scoped cache.
type Synchronizer struct {
	source Source
	tags   tag.Registry
	store  storage.Store
	ttl    time.Duration
	now    func() time.Time
	logger zerolog.Logger
	tracer trace.Tracer
	flight singleflight.Group
}

// NewSynchronizer builds a synchronizer over src, invalidated through tags and
// caching into store.
func NewSynchronizer(src Source, tags tag.Registry, store storage.Store, opts ...Option) *Synchronizer {
	s := &Synchronizer{
		source: src,
		tags:   tags,
		store:  store,
		ttl:    DefaultCacheTTL,
		now:    time.Now,
		logger: zerolog.Nop(),
		tracer: platformotel.Tracer(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// FetchMessages returns the current list, or an empty list when the backend
// cannot be read. It never fails.
func (s *Synchronizer) FetchMessages(ctx context.Context) []source.Message {
	result := s.Fetch(ctx)
	if !result.OK() {
		return []source.Message{}
	}
	return result.Messages
}

// Fetch returns the current list with an explicit outcome.
func (s *Synchronizer) Fetch(ctx context.Context) Result {
	ctx, span := s.tracer.Start(ctx, "feed.Fetch")
	defer span.End()

	epoch, epochErr := s.tags.Epoch(ctx, tag.Messages)
	if epochErr != nil {
		s.logger.Warn().Err(epochErr).Msg("tag epoch unavailable, reading through")
	} else if messages, ok := s.cached(ctx, epoch); ok {
		span.SetAttributes(attribute.String("feed.state", string(StateFresh)))
		metrics.FeedReads.WithLabelValues(metrics.FeedOutcomeCached).Inc()
		return Result{Messages: messages, State: StateFresh}
	}

	messages, err := s.fetch(ctx, epoch, epochErr == nil)
	if err != nil {
		result := failed(err)
		span.SetAttributes(
			attribute.String("feed.state", string(StateFailed)),
			attribute.String("feed.failure", string(result.Failure)),
		)
		metrics.FeedReads.WithLabelValues(metrics.FeedOutcomeFailed).Inc()
		level := zerolog.WarnLevel
		if result.Failure == FailureCanceled {
			level = zerolog.DebugLevel
		}
		s.logger.WithLevel(level).Err(err).Str("failure", string(result.Failure)).Msg("feed read failed")
		return result
	}
	span.SetAttributes(attribute.String("feed.state", string(StateFetched)))
	metrics.FeedReads.WithLabelValues(metrics.FeedOutcomeFetched).Inc()
	return Result{Messages: messages, State: StateFetched}
}

// cached returns the stored list when it was recorded at epoch under the
// registry's current scope and has not expired. Store or decode problems
// count as a miss.
func (s *Synchronizer) cached(ctx context.Context, epoch uint64) ([]source.Message, bool) {
	if s.store == nil {
		return nil, false
	}
	entry, ok, err := s.store.GetCacheEntry(ctx, tag.Messages)
	if err != nil {
		s.logger.Warn().Err(err).Msg("cache read failed")
		return nil, false
	}
	if !ok || entry.Scope != s.tags.Scope() || entry.Epoch != epoch || entry.Expired(s.now()) {
		return nil, false
	}
	var messages []source.Message
	if err := json.Unmarshal(entry.Payload, &messages); err != nil {
		s.logger.Warn().Err(err).Msg("cache entry undecodable, discarding")
		_ = s.store.DeleteCacheEntry(ctx, tag.Messages)
		return nil, false
	}
	if messages == nil {
		messages = []source.Message{}
	}
	return messages, true
}

// fetch reads the backend. Callers at the same known epoch share one request;
// a caller whose context ends first stops waiting without cancelling the
// shared request for the others.
func (s *Synchronizer) fetch(ctx context.Context, epoch uint64, known bool) ([]source.Message, error) {
	if !known {
		messages, err := s.source.ListMessages(ctx)
		if err != nil {
			return nil, err
		}
		return clone(messages), nil
	}

	key := tag.Messages + "@" + strconv.FormatUint(epoch, 10)
	ch := s.flight.DoChan(key, func() (any, error) {
		fctx := context.WithoutCancel(ctx)
		messages, err := s.source.ListMessages(fctx)
		if err != nil {
			return nil, err
		}
		s.remember(fctx, epoch, messages)
		return messages, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return clone(res.Val.([]source.Message)), nil
	}
}

func clone(messages []source.Message) []source.Message {
	out := make([]source.Message, len(messages))
	copy(out, messages)
	return out
}

func (s *Synchronizer) remember(ctx context.Context, epoch uint64, messages []source.Message) {
	if s.store == nil {
		return
	}
	payload, err := json.Marshal(messages)
	if err != nil {
		s.logger.Warn().Err(err).Msg("cache encode failed")
		return
	}
	now := s.now().UTC()
	entry := storage.CacheEntry{
		Tag:         tag.Messages,
		Scope:       s.tags.Scope(),
		Epoch:       epoch,
		Payload:     payload,
		RefreshedAt: now,
	}
	if s.ttl > 0 {
		entry.ExpiresAt = now.Add(s.ttl)
	}
	if err := s.store.PutCacheEntry(ctx, entry); err != nil {
		s.logger.Warn().Err(err).Msg("cache write failed")
	}
}
