// Package send validates and submits new chat messages.
package send

import (
	"context"
	"strings"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/louisbranch/chatfeed/internal/platform/metrics"
	platformotel "github.com/louisbranch/chatfeed/internal/platform/otel"
	apperrors "github.com/louisbranch/chatfeed/internal/services/chat/platform/errors"
	"github.com/louisbranch/chatfeed/internal/services/chat/source"
	"github.com/louisbranch/chatfeed/internal/services/chat/tag"
)

// Localization keys returned by Submit.
const (
	KeyEmptyMessage    = "empty_message"
	KeyMissingIdentity = "missing_identity"
	KeySendFailed      = "send_failed"
)

// Writer appends a message to the backend.
type Writer interface {
	CreateMessage(ctx context.Context, msg source.NewMessage) error
}

// Action submits messages and invalidates the feed after each accepted write.
type Action struct {
	writer Writer
	tags   tag.Registry
	logger zerolog.Logger
	tracer trace.Tracer
}

// NewAction builds a send action.
func NewAction(writer Writer, tags tag.Registry, logger zerolog.Logger) *Action {
	return &Action{
		writer: writer,
		tags:   tags,
		logger: logger,
		tracer: platformotel.Tracer(),
	}
}

// Submit validates rawText and the author identity, sends the message and,
// only once the backend confirmed it, touches the messages tag.
//
// Validation checks run in order and stop at the first failure: empty text,
// then missing identity. Backend and transport failures are reported as one
// retryable error; the raw fault is only logged.
func (a *Action) Submit(ctx context.Context, rawText string, author string, hasAuthor bool) (err error) {
	ctx, span := a.tracer.Start(ctx, "send.Submit")
	defer func() {
		if err != nil {
			span.SetAttributes(attribute.String("send.error_key", apperrors.LocalizationKey(err)))
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	text := strings.TrimSpace(rawText)
	if text == "" {
		metrics.MessagesSent.WithLabelValues(metrics.SendOutcomeInvalid).Inc()
		return apperrors.EK(apperrors.KindInvalidInput, KeyEmptyMessage, "Message cannot be empty")
	}
	author = strings.TrimSpace(author)
	if !hasAuthor || author == "" {
		metrics.MessagesSent.WithLabelValues(metrics.SendOutcomeInvalid).Inc()
		return apperrors.EK(apperrors.KindInvalidInput, KeyMissingIdentity, "Please set your username before sending messages")
	}

	if writeErr := a.writer.CreateMessage(ctx, source.NewMessage{Body: text, Author: author}); writeErr != nil {
		metrics.MessagesSent.WithLabelValues(metrics.SendOutcomeTransport).Inc()
		a.logger.Warn().Err(writeErr).Str("author", author).Msg("send message failed")
		return apperrors.Wrap(apperrors.KindUnavailable, KeySendFailed, "Failed to send message. Please try again.", writeErr)
	}

	metrics.MessagesSent.WithLabelValues(metrics.SendOutcomeOK).Inc()
	tag.TouchFrom(ctx, a.tags, tag.Messages, metrics.TouchTriggerSend)
	return nil
}
