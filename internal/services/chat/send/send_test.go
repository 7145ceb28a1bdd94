package send

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"testing"

	"github.com/rs/zerolog"

	apperrors "github.com/louisbranch/chatfeed/internal/services/chat/platform/errors"
	"github.com/louisbranch/chatfeed/internal/services/chat/source"
	"github.com/louisbranch/chatfeed/internal/services/chat/tag"
	"github.com/louisbranch/chatfeed/internal/testkit/chatapi"
)

type recordingWriter struct {
	mu    sync.Mutex
	calls []source.NewMessage
	err   error

	// epochAtWrite records the tag epoch seen while each write runs.
	tags         tag.Registry
	epochAtWrite []uint64
}

func (w *recordingWriter) CreateMessage(ctx context.Context, msg source.NewMessage) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.calls = append(w.calls, msg)
	if w.tags != nil {
		epoch, _ := w.tags.Epoch(ctx, tag.Messages)
		w.epochAtWrite = append(w.epochAtWrite, epoch)
	}
	return w.err
}

func epoch(t *testing.T, tags tag.Registry) uint64 {
	t.Helper()
	value, err := tags.Epoch(context.Background(), tag.Messages)
	if err != nil {
		t.Fatalf("Epoch: %v", err)
	}
	return value
}

func TestSubmitRejectsBlankText(t *testing.T) {
	t.Parallel()

	inputs := []string{"", " ", "\t\n", "   \r\n  "}
	for _, input := range inputs {
		writer := &recordingWriter{}
		tags := tag.NewMemory()
		err := NewAction(writer, tags, zerolog.Nop()).Submit(context.Background(), input, "alice", true)

		if !apperrors.Is(err, KeyEmptyMessage) {
			t.Fatalf("Submit(%q) err = %v, want %s", input, err, KeyEmptyMessage)
		}
		if apperrors.KindOf(err) != apperrors.KindInvalidInput {
			t.Fatalf("kind = %q, want %q", apperrors.KindOf(err), apperrors.KindInvalidInput)
		}
		if len(writer.calls) != 0 {
			t.Fatalf("Submit(%q) made %d writes, want 0", input, len(writer.calls))
		}
		if epoch(t, tags) != 0 {
			t.Fatalf("Submit(%q) touched the tag", input)
		}
	}
}

func TestSubmitEmptyCheckRunsBeforeIdentityCheck(t *testing.T) {
	t.Parallel()

	err := NewAction(&recordingWriter{}, tag.NewMemory(), zerolog.Nop()).Submit(context.Background(), "  ", "", false)
	if !apperrors.Is(err, KeyEmptyMessage) {
		t.Fatalf("err = %v, want %s", err, KeyEmptyMessage)
	}
}

func TestSubmitRequiresIdentity(t *testing.T) {
	t.Parallel()

	writer := &recordingWriter{}
	tags := tag.NewMemory()
	err := NewAction(writer, tags, zerolog.Nop()).Submit(context.Background(), "  hello  ", "", false)

	if !apperrors.Is(err, KeyMissingIdentity) {
		t.Fatalf("err = %v, want %s", err, KeyMissingIdentity)
	}
	if err.Error() != "Please set your username before sending messages" {
		t.Fatalf("message = %q", err.Error())
	}
	if len(writer.calls) != 0 {
		t.Fatalf("writes = %d, want 0", len(writer.calls))
	}
	if epoch(t, tags) != 0 {
		t.Fatalf("expected no touch")
	}
}

func TestSubmitSendsTrimmedTextThenTouches(t *testing.T) {
	t.Parallel()

	tags := tag.NewMemory()
	writer := &recordingWriter{tags: tags}
	err := NewAction(writer, tags, zerolog.Nop()).Submit(context.Background(), "  hi  ", "alice", true)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	if len(writer.calls) != 1 {
		t.Fatalf("writes = %d, want 1", len(writer.calls))
	}
	if got := writer.calls[0]; got.Body != "hi" || got.Author != "alice" {
		t.Fatalf("payload = %+v, want {hi alice}", got)
	}
	if writer.epochAtWrite[0] != 0 {
		t.Fatalf("tag touched before the write was confirmed")
	}
	if epoch(t, tags) != 1 {
		t.Fatalf("epoch = %d, want 1 after success", epoch(t, tags))
	}
}

func TestSubmitWriteFailureIsRetryableAndSkipsTouch(t *testing.T) {
	t.Parallel()

	cause := errors.New("dial tcp: connection refused")
	tags := tag.NewMemory()
	err := NewAction(&recordingWriter{err: cause}, tags, zerolog.Nop()).Submit(context.Background(), "hi", "alice", true)

	if !apperrors.Is(err, KeySendFailed) {
		t.Fatalf("err = %v, want %s", err, KeySendFailed)
	}
	if apperrors.KindOf(err) != apperrors.KindUnavailable {
		t.Fatalf("kind = %q, want %q", apperrors.KindOf(err), apperrors.KindUnavailable)
	}
	if err.Error() != "Failed to send message. Please try again." {
		t.Fatalf("message = %q", err.Error())
	}
	if strings.Contains(err.Error(), "dial tcp") {
		t.Fatalf("raw fault leaked into message %q", err.Error())
	}
	if epoch(t, tags) != 0 {
		t.Fatalf("expected no touch after failure")
	}
}

func TestSubmitAgainstBackend(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		setup      func(*chatapi.Server)
		wantErrKey string
		wantEpoch  uint64
		wantStored int
	}{
		{name: "accepted", setup: func(*chatapi.Server) {}, wantEpoch: 1, wantStored: 1},
		{name: "server error", setup: func(s *chatapi.Server) { s.SetCreateStatus(http.StatusInternalServerError) }, wantErrKey: KeySendFailed},
		{name: "transport fault", setup: func(s *chatapi.Server) { s.DropConnections(false, true) }, wantErrKey: KeySendFailed},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			backend := chatapi.New()
			tc.setup(backend)
			srv := chatapi.Start(t, backend)
			client, err := source.NewClient(srv.URL, chatapi.Token)
			if err != nil {
				t.Fatalf("NewClient: %v", err)
			}
			tags := tag.NewMemory()

			err = NewAction(client, tags, zerolog.Nop()).Submit(context.Background(), "hi", "alice", true)
			if tc.wantErrKey == "" && err != nil {
				t.Fatalf("Submit: %v", err)
			}
			if tc.wantErrKey != "" && !apperrors.Is(err, tc.wantErrKey) {
				t.Fatalf("err = %v, want %s", err, tc.wantErrKey)
			}
			if got := epoch(t, tags); got != tc.wantEpoch {
				t.Fatalf("epoch = %d, want %d", got, tc.wantEpoch)
			}
			if got := len(backend.Messages()); got != tc.wantStored {
				t.Fatalf("stored = %d, want %d", got, tc.wantStored)
			}
			if tc.name == "accepted" {
				stored := backend.Messages()[0]
				if stored.Body != "hi" || stored.Author != "alice" {
					t.Fatalf("stored = %+v", stored)
				}
			}
		})
	}
}
