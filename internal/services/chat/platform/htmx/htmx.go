// Package htmx renders templ components for HTMX swaps and full page loads.
package htmx

import (
	"bytes"
	"context"
	"errors"
	"net/http"

	"github.com/a-h/templ"

	"github.com/louisbranch/chatfeed/internal/services/chat/platform/httpx"
)

// ErrAbandoned reports a render discarded because the request went away.
var ErrAbandoned = errors.New("render abandoned: request canceled")

// Render writes fragment for HTMX requests and full otherwise. When one of
// them is nil the other is used for both paths. The component is buffered
// first so a failed or abandoned render never leaves a partial body.
func Render(w http.ResponseWriter, r *http.Request, status int, fragment, full templ.Component) error {
	target := full
	if httpx.IsHTMXRequest(r) && fragment != nil {
		target = fragment
	}
	if target == nil {
		target = fragment
	}
	if target == nil {
		return errors.New("component is required")
	}

	ctx := context.Background()
	if r != nil {
		ctx = r.Context()
	}
	var body bytes.Buffer
	if err := target.Render(ctx, &body); err != nil {
		return err
	}
	if ctx.Err() != nil {
		return ErrAbandoned
	}

	if status == 0 {
		status = http.StatusOK
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Vary", "HX-Request")
	w.WriteHeader(status)
	_, err := w.Write(body.Bytes())
	return err
}
