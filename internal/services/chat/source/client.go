// Package source is the HTTP client for the remote message backend.
package source

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/louisbranch/chatfeed/internal/platform/metrics"
	platformotel "github.com/louisbranch/chatfeed/internal/platform/otel"
	"github.com/louisbranch/chatfeed/internal/platform/timeouts"
)

// MessagesPath is the backend collection endpoint.
const MessagesPath = "/api/v1/messages"

const maxResponseBytes = 4 << 20

// ErrDecode marks a success response whose body could not be decoded.
var ErrDecode = errors.New("decode response")

// StatusError reports a non-success backend response.
type StatusError struct {
	Op         string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: unexpected status %d", e.Op, e.StatusCode)
}

// Client talks to the remote message backend with a static bearer token.
type Client struct {
	baseURL    *url.URL
	token      string
	httpClient *http.Client
	tracer     trace.Tracer
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		if httpClient != nil {
			c.httpClient = httpClient
		}
	}
}

// NewClient builds a client rooted at baseURL.
func NewClient(baseURL string, token string, opts ...Option) (*Client, error) {
	parsed, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil {
		return nil, fmt.Errorf("parse backend url: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, fmt.Errorf("backend url must be http or https, got %q", baseURL)
	}
	if parsed.Host == "" {
		return nil, fmt.Errorf("backend url must include a host, got %q", baseURL)
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, errors.New("backend token is required")
	}
	c := &Client{
		baseURL:    parsed,
		token:      token,
		httpClient: &http.Client{Timeout: timeouts.SourceRequest},
		tracer:     platformotel.Tracer(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c, nil
}

// ListMessages returns the full message log in backend order.
func (c *Client) ListMessages(ctx context.Context) (_ []Message, err error) {
	ctx, span := c.tracer.Start(ctx, "source.ListMessages")
	defer func() { endSpan(span, err) }()
	defer observe("list", time.Now())

	req, err := c.newRequest(ctx, http.MethodGet, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer resp.Body.Close()
	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))

	if resp.StatusCode != http.StatusOK {
		drain(resp.Body)
		return nil, &StatusError{Op: "list messages", StatusCode: resp.StatusCode}
	}

	var messages []Message
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&messages); err != nil {
		return nil, fmt.Errorf("list messages: %w: %w", ErrDecode, err)
	}
	if messages == nil {
		messages = []Message{}
	}
	span.SetAttributes(attribute.Int("chat.messages", len(messages)))
	return messages, nil
}

// CreateMessage appends msg to the backend log.
func (c *Client) CreateMessage(ctx context.Context, msg NewMessage) (err error) {
	ctx, span := c.tracer.Start(ctx, "source.CreateMessage")
	defer func() { endSpan(span, err) }()
	defer observe("create", time.Now())

	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encode message: %w", err)
	}
	req, err := c.newRequest(ctx, http.MethodPost, body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("create message: %w", err)
	}
	defer resp.Body.Close()
	drain(resp.Body)
	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{Op: "create message", StatusCode: resp.StatusCode}
	}
	return nil
}

func (c *Client) newRequest(ctx context.Context, method string, body []byte) (*http.Request, error) {
	endpoint := c.baseURL.JoinPath(MessagesPath)
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint.String(), reader)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")
	return req, nil
}

func drain(body io.Reader) {
	_, _ = io.Copy(io.Discard, io.LimitReader(body, maxResponseBytes))
}

func observe(operation string, start time.Time) {
	metrics.SourceLatency.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
