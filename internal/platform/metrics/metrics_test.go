package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var m dto.Metric
	if err := c.Write(&m); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	return m.GetCounter().GetValue()
}

func TestCollectorsRegisteredWithDefaultRegistry(t *testing.T) {
	t.Parallel()

	FeedReads.WithLabelValues(FeedOutcomeCached)
	TagTouches.WithLabelValues("messages", TouchTriggerPoll)
	MessagesSent.WithLabelValues(SendOutcomeOK)

	families, err := prometheus.DefaultGatherer.Gather()
	if err != nil {
		t.Fatalf("Gather() error = %v", err)
	}
	names := map[string]bool{}
	for _, family := range families {
		names[family.GetName()] = true
	}
	for _, want := range []string{
		"chatfeed_feed_reads_total",
		"chatfeed_tag_touches_total",
		"chatfeed_messages_sent_total",
	} {
		if !names[want] {
			t.Fatalf("collector %q not registered", want)
		}
	}
}

func TestCounterIncrementsByLabel(t *testing.T) {
	t.Parallel()

	counter := TagTouchFailures.WithLabelValues("metrics-test")
	before := counterValue(t, counter)
	counter.Inc()
	if got := counterValue(t, counter); got != before+1 {
		t.Fatalf("counter = %v, want %v", got, before+1)
	}
}
