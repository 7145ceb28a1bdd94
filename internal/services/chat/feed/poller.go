package feed

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/louisbranch/chatfeed/internal/platform/metrics"
	"github.com/louisbranch/chatfeed/internal/services/chat/tag"
)

// DefaultPollInterval is how often the poller invalidates the feed.
const DefaultPollInterval = 5 * time.Second

// Poller touches the messages tag on a fixed interval. It never fetches; the
// next consumer read pays for the refresh.
type Poller struct {
	tags     tag.Registry
	interval time.Duration
	logger   zerolog.Logger
}

// NewPoller builds a poller. Non-positive intervals use DefaultPollInterval.
func NewPoller(tags tag.Registry, interval time.Duration, logger zerolog.Logger) *Poller {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &Poller{tags: tags, interval: interval, logger: logger}
}

// Interval returns the tick period.
func (p *Poller) Interval() time.Duration {
	return p.interval
}

// Start runs the tick loop until ctx ends or stop is called. done closes once
// the loop has exited; no touch happens after that.
func (p *Poller) Start(ctx context.Context) (stop context.CancelFunc, done <-chan struct{}) {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithCancel(ctx)
	finished := make(chan struct{})
	go func() {
		defer close(finished)
		p.run(ctx)
	}()
	return cancel, finished
}

func (p *Poller) run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.logger.Debug().Dur("interval", p.interval).Msg("feed poller started")
	defer p.logger.Debug().Msg("feed poller stopped")

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			// A stop that races with a tick must win.
			if ctx.Err() != nil {
				return
			}
			p.tick(ctx)
		}
	}
}

// tick bounds the touch by one interval so a slow registry cannot stall the
// loop for longer than a period.
func (p *Poller) tick(ctx context.Context) {
	touchCtx, cancel := context.WithTimeout(ctx, p.interval)
	defer cancel()
	tag.TouchFrom(touchCtx, p.tags, tag.Messages, metrics.TouchTriggerPoll)
}
