package templates

import (
	"context"
	"strconv"
	"time"

	"github.com/a-h/templ"
	"golang.org/x/text/message"

	"github.com/louisbranch/chatfeed/internal/services/chat/identity"
)

// Localizer prints catalog keys. *message.Printer satisfies it.
type Localizer interface {
	Sprintf(key message.Reference, a ...any) string
}

const autoScrollScript = `<script>(function(){function s(){var f=document.getElementById("feed");if(f){f.scrollTop=f.scrollHeight;}}document.addEventListener("DOMContentLoaded",s);document.addEventListener("htmx:afterSwap",s);})();</script>`

// Page renders the complete chat document.
func Page(loc Localizer, view PageView) templ.Component {
	return component(func(ctx context.Context, h *htmlWriter) {
		lang := view.Lang
		if lang == "" {
			lang = "en-US"
		}
		h.raw(`<!DOCTYPE html><html`)
		h.attr("lang", lang)
		h.raw(`><head><meta charset="utf-8"><meta name="viewport" content="width=device-width, initial-scale=1"><title>`)
		h.text(loc.Sprintf("title.chat"))
		h.raw(`</title><link rel="stylesheet" href="/static/chat.css"><script src="/static/hx.js" defer></script></head><body><main class="chat">`)
		h.render(ctx, Identity(loc, view.Identity))
		h.render(ctx, Feed(loc, view.Feed))
		h.render(ctx, Composer(loc, view.Composer))
		h.raw(`</main>`)
		h.raw(autoScrollScript)
		h.raw(`</body></html>`)
	})
}

// Identity renders the identity bar, collapsed or as the username form.
func Identity(loc Localizer, view IdentityView) templ.Component {
	return component(func(_ context.Context, h *htmlWriter) {
		if !view.expanded() {
			h.raw(`<section id="identity" class="identity"><div class="identity-bar"><span>`)
			h.text(loc.Sprintf("identity.logged_in_as"))
			h.raw(` <strong>`)
			h.text(view.Username)
			h.raw(`</strong></span><a class="identity-change"`)
			h.attr("href", EditPath)
			h.raw(`>`)
			h.text(loc.Sprintf("identity.change"))
			h.raw(`</a></div></section>`)
			return
		}

		hasName := view.Username != ""
		h.raw(`<section id="identity" class="identity identity-expanded"><form class="identity-form" method="post"`)
		h.attr("action", UsernamePath)
		h.attr("hx-post", UsernamePath)
		h.raw(` hx-target="#identity" hx-swap="outerHTML"><label for="username">`)
		if hasName {
			h.text(loc.Sprintf("identity.change_label"))
		} else {
			h.text(loc.Sprintf("identity.set_label"))
		}
		h.raw(`</label>`)
		if hasName {
			h.raw(`<p class="identity-current">`)
			h.text(loc.Sprintf("identity.current", view.Username))
			h.raw(`</p>`)
		}
		h.raw(`<div class="form-row"><input type="text" id="username" name="username" required autocomplete="nickname"`)
		h.attr("maxlength", strconv.Itoa(identity.MaxLength))
		h.attr("placeholder", loc.Sprintf("identity.placeholder"))
		h.attr("value", view.Draft)
		h.raw(`><button type="submit">`)
		if hasName {
			h.text(loc.Sprintf("identity.submit_update"))
		} else {
			h.text(loc.Sprintf("identity.submit_set"))
		}
		h.raw(`</button>`)
		if hasName {
			h.raw(`<a class="button-secondary" href="/">`)
			h.text(loc.Sprintf("identity.cancel"))
			h.raw(`</a>`)
		}
		h.raw(`</div>`)
		if view.Error != "" {
			h.raw(`<p class="form-error" role="alert">`)
			h.text(view.Error)
			h.raw(`</p>`)
		}
		h.raw(`</form></section>`)
	})
}

// Feed renders the polled message list, or the empty state.
func Feed(loc Localizer, view FeedView) templ.Component {
	return component(func(_ context.Context, h *htmlWriter) {
		h.raw(`<section id="feed" class="feed" role="feed"`)
		h.attr("aria-label", loc.Sprintf("feed.label"))
		h.attr("hx-get", FeedPath)
		h.attr("hx-trigger", "every "+strconv.Itoa(view.refreshSeconds())+"s, "+MessagesChangedEvent+" from:body")
		h.raw(` hx-swap="outerHTML">`)
		if len(view.Messages) == 0 {
			h.raw(`<p class="feed-empty">`)
			h.text(loc.Sprintf("feed.empty"))
			h.raw(`</p>`)
		}
		for _, msg := range view.Messages {
			class := "message"
			if view.own(msg) {
				class += " message-own"
			}
			h.raw(`<article`)
			h.attr("class", class)
			h.attr("aria-label", loc.Sprintf("feed.message_from", msg.Author))
			h.raw(`><small class="message-author">`)
			h.text(msg.Author)
			h.raw(`</small><p class="message-body">`)
			h.text(msg.Body)
			h.raw(`</p>`)
			if !msg.CreatedAt.IsZero() {
				h.raw(`<small class="message-time"><time`)
				h.attr("datetime", msg.CreatedAt.UTC().Format(time.RFC3339))
				h.raw(`>`)
				h.text(view.timestamp(msg.CreatedAt))
				h.raw(`</time></small>`)
			}
			h.raw(`</article>`)
		}
		h.raw(`</section>`)
	})
}

// Composer renders the send form. Without an identity the form is disabled
// and a hint replaces the error slot.
func Composer(loc Localizer, view ComposerView) templ.Component {
	return component(func(_ context.Context, h *htmlWriter) {
		h.raw(`<section id="composer" class="composer"><form class="form-row" method="post"`)
		h.attr("action", MessagesPath)
		h.attr("hx-post", MessagesPath)
		h.raw(` hx-target="#composer" hx-swap="outerHTML"><input type="text" name="message" autocomplete="off"`)
		if view.Enabled {
			h.attr("placeholder", loc.Sprintf("send.placeholder"))
		} else {
			h.attr("placeholder", loc.Sprintf("send.placeholder_no_identity"))
		}
		h.attr("aria-label", loc.Sprintf("send.input_label"))
		h.attr("value", view.Draft)
		h.flag("disabled", !view.Enabled)
		h.raw(`><button type="submit"`)
		h.attr("aria-label", loc.Sprintf("send.button_label"))
		h.flag("disabled", !view.Enabled)
		h.raw(`>`)
		h.text(loc.Sprintf("send.button"))
		h.raw(`</button></form>`)
		switch {
		case view.Error != "":
			h.raw(`<p class="form-error" role="alert">`)
			h.text(view.Error)
			h.raw(`</p>`)
		case !view.Enabled:
			h.raw(`<p class="composer-hint">`)
			h.text(loc.Sprintf("send.hint_no_identity"))
			h.raw(`</p>`)
		}
		h.raw(`</section>`)
	})
}
