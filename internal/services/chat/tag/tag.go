// Package tag tracks invalidation tags: named freshness epochs that cached
// reads compare against to decide whether they are still current.
//
// A touch advances the epoch of a tag. Readers remember the epoch they saw
// before fetching and treat any later epoch as proof that their copy is stale.
// Touching twice has the same effect on readers as touching once.
package tag

import (
	"context"

	"github.com/louisbranch/chatfeed/internal/platform/metrics"
)

// Messages is the tag shared by every read and write of the message log.
const Messages = "messages"

// Registry maps tag names to monotonically advancing epochs.
type Registry interface {
	// Touch advances the epoch of name. Failures are absorbed by the
	// implementation; callers never need to handle them.
	Touch(ctx context.Context, name string)
	// Epoch returns the current epoch of name. Unknown tags report zero.
	Epoch(ctx context.Context, name string) (uint64, error)
	// Scope identifies the epoch sequence. Epochs read under different
	// scopes are unrelated even when their numbers match.
	Scope() string
}

// checkedToucher is implemented by registries whose touches can fail.
type checkedToucher interface {
	TryTouch(ctx context.Context, name string) error
}

// TouchFrom touches name on r and counts the touch under trigger. Touches
// that the registry reports as failed are not counted.
func TouchFrom(ctx context.Context, r Registry, name string, trigger string) {
	if r == nil {
		return
	}
	if checked, ok := r.(checkedToucher); ok {
		if err := checked.TryTouch(ctx, name); err != nil {
			return
		}
	} else {
		r.Touch(ctx, name)
	}
	metrics.TagTouches.WithLabelValues(name, trigger).Inc()
}
