package identity

import (
	"crypto/tls"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	apperrors "github.com/louisbranch/chatfeed/internal/services/chat/platform/errors"
	"github.com/louisbranch/chatfeed/internal/services/chat/platform/requestmeta"
)

func setCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	cookies := rec.Result().Cookies()
	if len(cookies) != 1 {
		t.Fatalf("cookies = %d, want 1", len(cookies))
	}
	return cookies[0]
}

func requestWith(cookie *http.Cookie) *http.Request {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	if cookie != nil {
		r.AddCookie(cookie)
	}
	return r
}

func TestGetAbsentByDefault(t *testing.T) {
	t.Parallel()

	store := NewStore(requestmeta.SchemePolicy{}, false)
	if name, ok := store.Get(requestWith(nil)); ok || name != "" {
		t.Fatalf("Get() = %q, %v, want absent", name, ok)
	}
	if _, ok := store.Get(nil); ok {
		t.Fatalf("Get(nil) reported present")
	}
	if _, ok := store.Get(requestWith(&http.Cookie{Name: CookieName, Value: ""})); ok {
		t.Fatalf("empty cookie reported present")
	}
	if _, ok := store.Get(requestWith(&http.Cookie{Name: CookieName, Value: "%zz"})); ok {
		t.Fatalf("undecodable cookie reported present")
	}
}

func TestSetWritesCookieAttributes(t *testing.T) {
	t.Parallel()

	store := NewStore(requestmeta.SchemePolicy{}, false)
	rec := httptest.NewRecorder()
	name, err := store.Set(rec, httptest.NewRequest(http.MethodPost, "/username", nil), "  alice  ")
	if err != nil {
		t.Fatalf("Set: %v", err)
	}
	if name != "alice" {
		t.Fatalf("name = %q, want alice", name)
	}

	cookie := setCookie(t, rec)
	if cookie.Name != CookieName {
		t.Fatalf("Name = %q, want %q", cookie.Name, CookieName)
	}
	if cookie.Value != "alice" {
		t.Fatalf("Value = %q, want alice", cookie.Value)
	}
	if !cookie.HttpOnly {
		t.Fatalf("expected HttpOnly")
	}
	if cookie.Secure {
		t.Fatalf("expected non-secure cookie on plain http")
	}
	if cookie.SameSite != http.SameSiteLaxMode {
		t.Fatalf("SameSite = %v, want Lax", cookie.SameSite)
	}
	if cookie.MaxAge != 31536000 {
		t.Fatalf("MaxAge = %d, want 31536000", cookie.MaxAge)
	}
	if cookie.Path != "/" {
		t.Fatalf("Path = %q, want /", cookie.Path)
	}
}

func TestSetSecureFlag(t *testing.T) {
	t.Parallel()

	tlsReq := httptest.NewRequest(http.MethodPost, "/username", nil)
	tlsReq.TLS = &tls.ConnectionState{}
	forwarded := httptest.NewRequest(http.MethodPost, "/username", nil)
	forwarded.Header.Set("X-Forwarded-Proto", "https")

	tests := []struct {
		name   string
		store  *Store
		req    *http.Request
		secure bool
	}{
		{name: "tls", store: NewStore(requestmeta.SchemePolicy{}, false), req: tlsReq, secure: true},
		{name: "untrusted forwarded", store: NewStore(requestmeta.SchemePolicy{}, false), req: forwarded, secure: false},
		{name: "trusted forwarded", store: NewStore(requestmeta.SchemePolicy{TrustForwardedProto: true}, false), req: forwarded, secure: true},
		{name: "production", store: NewStore(requestmeta.SchemePolicy{}, true), req: httptest.NewRequest(http.MethodPost, "/username", nil), secure: true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			if _, err := tc.store.Set(rec, tc.req, "alice"); err != nil {
				t.Fatalf("Set: %v", err)
			}
			if got := setCookie(t, rec).Secure; got != tc.secure {
				t.Fatalf("Secure = %v, want %v", got, tc.secure)
			}
		})
	}
}

func TestSetValidation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		input   string
		wantKey string
	}{
		{name: "empty", input: "", wantKey: KeyEmptyUsername},
		{name: "whitespace", input: " \t\n ", wantKey: KeyEmptyUsername},
		{name: "fifty one ascii", input: strings.Repeat("a", 51), wantKey: KeyUsernameTooLong},
		{name: "fifty one after trim", input: "  " + strings.Repeat("b", 51) + "  ", wantKey: KeyUsernameTooLong},
		{name: "fifty one runes", input: strings.Repeat("é", 51), wantKey: KeyUsernameTooLong},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			rec := httptest.NewRecorder()
			_, err := NewStore(requestmeta.SchemePolicy{}, false).Set(rec, httptest.NewRequest(http.MethodPost, "/", nil), tc.input)
			if !apperrors.Is(err, tc.wantKey) {
				t.Fatalf("err = %v, want %s", err, tc.wantKey)
			}
			if apperrors.KindOf(err) != apperrors.KindInvalidInput {
				t.Fatalf("kind = %q, want %q", apperrors.KindOf(err), apperrors.KindInvalidInput)
			}
			if len(rec.Result().Cookies()) != 0 {
				t.Fatalf("cookie written on validation failure")
			}
		})
	}
}

func TestSetMessagesDistinguishEmptyFromTooLong(t *testing.T) {
	t.Parallel()

	store := NewStore(requestmeta.SchemePolicy{}, false)
	_, emptyErr := store.Set(httptest.NewRecorder(), nil, " ")
	_, longErr := store.Set(httptest.NewRecorder(), nil, strings.Repeat("x", 60))
	if emptyErr.Error() != "Username cannot be empty" {
		t.Fatalf("empty message = %q", emptyErr.Error())
	}
	if longErr.Error() != "Username must be 50 characters or less" {
		t.Fatalf("too long message = %q", longErr.Error())
	}
}

func TestSetAcceptsExactlyFiftyCharacters(t *testing.T) {
	t.Parallel()

	store := NewStore(requestmeta.SchemePolicy{}, false)
	for _, input := range []string{strings.Repeat("a", 50), strings.Repeat("ç", 50)} {
		rec := httptest.NewRecorder()
		name, err := store.Set(rec, httptest.NewRequest(http.MethodPost, "/", nil), input)
		if err != nil {
			t.Fatalf("Set(%d runes): %v", len([]rune(input)), err)
		}
		got, ok := store.Get(requestWith(setCookie(t, rec)))
		if !ok || got != name {
			t.Fatalf("Get() = %q, %v, want %q", got, ok, name)
		}
	}
}

func TestSetOverwritesAndRoundTripsUnicode(t *testing.T) {
	t.Parallel()

	store := NewStore(requestmeta.SchemePolicy{}, false)
	for _, input := range []string{"alice", "João da Silva", "名前; x=y"} {
		rec := httptest.NewRecorder()
		if _, err := store.Set(rec, httptest.NewRequest(http.MethodPost, "/", nil), input); err != nil {
			t.Fatalf("Set(%q): %v", input, err)
		}
		got, ok := store.Get(requestWith(setCookie(t, rec)))
		if !ok || got != input {
			t.Fatalf("round trip = %q, %v, want %q", got, ok, input)
		}
	}
}

func TestSetWithoutWriterFailsInternally(t *testing.T) {
	t.Parallel()

	_, err := NewStore(requestmeta.SchemePolicy{}, false).Set(nil, nil, "alice")
	if !apperrors.Is(err, KeyUsernameFailed) {
		t.Fatalf("err = %v, want %s", err, KeyUsernameFailed)
	}
	if apperrors.KindOf(err) != apperrors.KindUnknown {
		t.Fatalf("kind = %q, want %q", apperrors.KindOf(err), apperrors.KindUnknown)
	}
}
