// Package templates renders the chat page and its HTMX fragments.
package templates

import (
	"time"

	"github.com/louisbranch/chatfeed/internal/services/chat/source"
)

// Routes targeted by rendered forms and polling.
const (
	FeedPath     = "/feed"
	MessagesPath = "/messages"
	UsernamePath = "/username"
	EditPath     = "/?edit=1"

	// MessagesChangedEvent is dispatched on body after a successful send.
	MessagesChangedEvent = "messages-changed"

	// TimestampLayout formats message times as day, short month, year and
	// 24h clock.
	TimestampLayout = "02 Jan 2006 15:04"

	defaultRefresh = 5 * time.Second
)

// PageView is the full chat page.
type PageView struct {
	Lang     string
	Identity IdentityView
	Feed     FeedView
	Composer ComposerView
}

// IdentityView drives the identity bar. The username form is shown when
// Expanded is set or no username exists yet.
type IdentityView struct {
	Username string
	Expanded bool
	Draft    string
	Error    string
}

// FeedView is the polled message list.
type FeedView struct {
	Messages []source.Message
	// Viewer is the current identity; messages authored by it align right.
	Viewer string
	// RefreshEvery is the client polling period.
	RefreshEvery time.Duration
	// Location renders timestamps; nil means UTC.
	Location *time.Location
}

// ComposerView is the send form.
type ComposerView struct {
	Enabled bool
	Draft   string
	Error   string
}

func (v IdentityView) expanded() bool {
	return v.Expanded || v.Username == ""
}

func (v FeedView) own(m source.Message) bool {
	return v.Viewer != "" && m.Author == v.Viewer
}

func (v FeedView) refreshSeconds() int {
	every := v.RefreshEvery
	if every <= 0 {
		every = defaultRefresh
	}
	seconds := int(every.Round(time.Second) / time.Second)
	if seconds < 1 {
		seconds = 1
	}
	return seconds
}

func (v FeedView) timestamp(t time.Time) string {
	loc := v.Location
	if loc == nil {
		loc = time.UTC
	}
	return t.In(loc).Format(TimestampLayout)
}
