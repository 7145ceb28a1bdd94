package chat

import (
	"context"
	"errors"
	"net/http"
	"sort"
	"time"
	"unicode/utf8"

	"github.com/a-h/templ"
	"github.com/rs/zerolog"
	"golang.org/x/text/message"

	"github.com/louisbranch/chatfeed/internal/platform/metrics"
	"github.com/louisbranch/chatfeed/internal/platform/timeouts"
	"github.com/louisbranch/chatfeed/internal/services/chat/i18n"
	"github.com/louisbranch/chatfeed/internal/services/chat/identity"
	apperrors "github.com/louisbranch/chatfeed/internal/services/chat/platform/errors"
	"github.com/louisbranch/chatfeed/internal/services/chat/platform/htmx"
	"github.com/louisbranch/chatfeed/internal/services/chat/platform/httpx"
	"github.com/louisbranch/chatfeed/internal/services/chat/tag"
	"github.com/louisbranch/chatfeed/internal/services/chat/templates"
)

const keyRateLimited = "rate_limited"

type handlers struct {
	feed         FeedReader
	sender       Sender
	tags         tag.Registry
	identity     *identity.Store
	checks       map[string]Pinger
	version      string
	refreshEvery time.Duration
	logger       zerolog.Logger
}

func newHandlers(cfg Config) *handlers {
	return &handlers{
		feed:         cfg.Feed,
		sender:       cfg.Sender,
		tags:         cfg.Tags,
		identity:     cfg.Identity,
		checks:       cfg.HealthChecks,
		version:      cfg.Version,
		refreshEvery: cfg.RefreshEvery,
		logger:       cfg.Logger,
	}
}

// viewer is the per-request identity and language.
type viewer struct {
	loc     *message.Printer
	lang    string
	name    string
	hasName bool
}

func (h *handlers) resolveViewer(w http.ResponseWriter, r *http.Request) viewer {
	lang, persist := i18n.ResolveTag(r)
	if persist {
		i18n.SetLanguageCookie(w, lang)
	}
	name, ok := h.identity.Get(r)
	return viewer{loc: i18n.Printer(lang), lang: lang.String(), name: name, hasName: ok}
}

func (h *handlers) feedView(ctx context.Context, v viewer) templates.FeedView {
	result := h.feed.Fetch(ctx)
	return templates.FeedView{
		Messages:     result.Messages,
		Viewer:       v.name,
		RefreshEvery: h.refreshEvery,
	}
}

func (h *handlers) pageView(ctx context.Context, v viewer) templates.PageView {
	return templates.PageView{
		Lang:     v.lang,
		Identity: templates.IdentityView{Username: v.name},
		Feed:     h.feedView(ctx, v),
		Composer: templates.ComposerView{Enabled: v.hasName},
	}
}

func (h *handlers) showPage(w http.ResponseWriter, r *http.Request) {
	v := h.resolveViewer(w, r)
	view := h.pageView(r.Context(), v)
	view.Identity.Expanded = r.URL.Query().Get("edit") == "1"
	h.render(w, r, http.StatusOK, nil, templates.Page(v.loc, view))
}

func (h *handlers) showFeed(w http.ResponseWriter, r *http.Request) {
	v := h.resolveViewer(w, r)
	h.render(w, r, http.StatusOK, templates.Feed(v.loc, h.feedView(r.Context(), v)), nil)
}

func (h *handlers) revalidate(w http.ResponseWriter, r *http.Request) {
	tag.TouchFrom(r.Context(), h.tags, tag.Messages, metrics.TouchTriggerManual)
	if !httpx.IsHTMXRequest(r) {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	h.showFeed(w, r)
}

func (h *handlers) sendMessage(w http.ResponseWriter, r *http.Request) {
	v := h.resolveViewer(w, r)
	text := r.PostFormValue("message")
	err := h.sender.Submit(r.Context(), text, v.name, v.hasName)
	if err == nil {
		if !httpx.IsHTMXRequest(r) {
			httpx.WriteRedirect(w, r, "/")
			return
		}
		httpx.SetHXTrigger(w, templates.MessagesChangedEvent)
		h.render(w, r, http.StatusOK, templates.Composer(v.loc, templates.ComposerView{Enabled: v.hasName}), nil)
		return
	}

	composer := templates.ComposerView{
		Enabled: v.hasName,
		Draft:   text,
		Error:   h.errorText(v, err),
	}
	h.renderComposer(w, r, v, apperrors.HTTPStatus(err), composer)
}

func (h *handlers) setUsername(w http.ResponseWriter, r *http.Request) {
	v := h.resolveViewer(w, r)
	raw := r.PostFormValue("username")
	name, err := h.identity.Set(w, r, raw)
	if err == nil {
		h.logger.Debug().Str("request_id", httpx.RequestIDFromContext(r.Context())).Int("length", utf8.RuneCountInString(name)).Msg("username set")
		httpx.WriteRedirect(w, r, "/")
		return
	}
	if apperrors.KindOf(err) == apperrors.KindUnknown {
		h.logger.Error().Err(err).Str("request_id", httpx.RequestIDFromContext(r.Context())).Msg("set username failed")
	}
	bar := templates.IdentityView{
		Username: v.name,
		Expanded: true,
		Draft:    raw,
		Error:    h.errorText(v, err),
	}
	h.renderIdentity(w, r, v, apperrors.HTTPStatus(err), bar)
}

func (h *handlers) sendRateLimited(w http.ResponseWriter, r *http.Request) {
	v := h.resolveViewer(w, r)
	composer := templates.ComposerView{
		Enabled: v.hasName,
		Error:   h.errorText(v, rateLimitedError()),
	}
	h.renderComposer(w, r, v, http.StatusTooManyRequests, composer)
}

func (h *handlers) usernameRateLimited(w http.ResponseWriter, r *http.Request) {
	v := h.resolveViewer(w, r)
	bar := templates.IdentityView{
		Username: v.name,
		Expanded: true,
		Error:    h.errorText(v, rateLimitedError()),
	}
	h.renderIdentity(w, r, v, http.StatusTooManyRequests, bar)
}

func (h *handlers) renderComposer(w http.ResponseWriter, r *http.Request, v viewer, status int, composer templates.ComposerView) {
	if httpx.IsHTMXRequest(r) {
		h.render(w, r, status, templates.Composer(v.loc, composer), nil)
		return
	}
	view := h.pageView(r.Context(), v)
	view.Composer = composer
	h.render(w, r, status, nil, templates.Page(v.loc, view))
}

func (h *handlers) renderIdentity(w http.ResponseWriter, r *http.Request, v viewer, status int, bar templates.IdentityView) {
	if httpx.IsHTMXRequest(r) {
		h.render(w, r, status, templates.Identity(v.loc, bar), nil)
		return
	}
	view := h.pageView(r.Context(), v)
	view.Identity = bar
	h.render(w, r, status, nil, templates.Page(v.loc, view))
}

func (h *handlers) render(w http.ResponseWriter, r *http.Request, status int, fragment, full templ.Component) {
	err := htmx.Render(w, r, status, fragment, full)
	switch {
	case err == nil:
	case errors.Is(err, htmx.ErrAbandoned):
		h.logger.Debug().Str("path", r.URL.Path).Str("request_id", httpx.RequestIDFromContext(r.Context())).Msg("render discarded")
	default:
		h.logger.Error().Err(err).Str("path", r.URL.Path).Str("request_id", httpx.RequestIDFromContext(r.Context())).Msg("render failed")
		w.WriteHeader(http.StatusInternalServerError)
	}
}

func (h *handlers) errorText(v viewer, err error) string {
	return i18n.ErrorText(v.loc, apperrors.LocalizationKey(err), err.Error())
}

func rateLimitedError() error {
	return apperrors.EK(apperrors.KindRateLimited, keyRateLimited, "Too many requests. Please wait a moment.")
}

type healthResponse struct {
	Status  string            `json:"status"`
	Version string            `json:"version,omitempty"`
	Checks  map[string]string `json:"checks"`
}

func (h *handlers) health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.HealthCheck)
	defer cancel()

	resp := healthResponse{Status: "ok", Version: h.version, Checks: map[string]string{}}
	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := h.checks[name].Ping(ctx); err != nil {
			h.logger.Warn().Err(err).Str("check", name).Msg("health check failed")
			resp.Checks[name] = "error"
			resp.Status = "degraded"
			continue
		}
		resp.Checks[name] = "ok"
	}

	status := http.StatusOK
	if resp.Status != "ok" {
		status = http.StatusServiceUnavailable
	}
	if err := httpx.WriteJSON(w, status, resp); err != nil {
		h.logger.Warn().Err(err).Msg("write health response")
	}
}
