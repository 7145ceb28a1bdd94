// Package identity stores the visitor display name in a long-lived cookie.
package identity

import (
	"net/http"
	"net/url"
	"strings"
	"unicode/utf8"

	apperrors "github.com/louisbranch/chatfeed/internal/services/chat/platform/errors"
	"github.com/louisbranch/chatfeed/internal/services/chat/platform/requestmeta"
)

const (
	// CookieName is the identity cookie key.
	CookieName = "chat_username"
	// MaxLength caps display names, counted in characters.
	MaxLength = 50
	// MaxAge keeps the cookie for one year.
	MaxAge = 60 * 60 * 24 * 365
)

// Localization keys returned by Set.
const (
	KeyEmptyUsername   = "empty_username"
	KeyUsernameTooLong = "username_too_long"
	KeyUsernameFailed  = "username_failed"
)

// Store reads and writes the identity cookie.
type Store struct {
	policy       requestmeta.SchemePolicy
	alwaysSecure bool
}

// NewStore builds a cookie store. alwaysSecure marks the cookie Secure even
// on plain HTTP requests, as production deployments sit behind TLS.
func NewStore(policy requestmeta.SchemePolicy, alwaysSecure bool) *Store {
	return &Store{policy: policy, alwaysSecure: alwaysSecure}
}

// Get returns the display name carried by r. Missing, empty or malformed
// cookies report absent.
func (s *Store) Get(r *http.Request) (string, bool) {
	if r == nil {
		return "", false
	}
	cookie, err := r.Cookie(CookieName)
	if err != nil {
		return "", false
	}
	name, err := url.QueryUnescape(cookie.Value)
	if err != nil {
		return "", false
	}
	name = strings.TrimSpace(name)
	if name == "" || utf8.RuneCountInString(name) > MaxLength {
		return "", false
	}
	return name, true
}

// Set validates raw and overwrites the identity cookie. It returns the stored
// name.
func (s *Store) Set(w http.ResponseWriter, r *http.Request, raw string) (string, error) {
	name := strings.TrimSpace(raw)
	if name == "" {
		return "", apperrors.EK(apperrors.KindInvalidInput, KeyEmptyUsername, "Username cannot be empty")
	}
	if utf8.RuneCountInString(name) > MaxLength {
		return "", apperrors.EK(apperrors.KindInvalidInput, KeyUsernameTooLong, "Username must be 50 characters or less")
	}

	cookie := &http.Cookie{
		Name:     CookieName,
		Value:    url.QueryEscape(name),
		Path:     "/",
		MaxAge:   MaxAge,
		HttpOnly: true,
		Secure:   s.alwaysSecure || requestmeta.IsHTTPS(r, s.policy),
		SameSite: http.SameSiteLaxMode,
	}
	if w == nil {
		return "", apperrors.EK(apperrors.KindUnknown, KeyUsernameFailed, "Failed to set username. Please try again.")
	}
	if err := cookie.Valid(); err != nil {
		return "", apperrors.Wrap(apperrors.KindUnknown, KeyUsernameFailed, "Failed to set username. Please try again.", err)
	}
	http.SetCookie(w, cookie)
	return name, nil
}
