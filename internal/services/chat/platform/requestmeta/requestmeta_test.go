package requestmeta

import (
	"crypto/tls"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestIsHTTPS(t *testing.T) {
	t.Parallel()

	plain := httptest.NewRequest(http.MethodGet, "http://chat.test/", nil)
	if IsHTTPS(plain, SchemePolicy{}) {
		t.Fatalf("expected plain request to be http")
	}

	secure := httptest.NewRequest(http.MethodGet, "http://chat.test/", nil)
	secure.TLS = &tls.ConnectionState{}
	if !IsHTTPS(secure, SchemePolicy{}) {
		t.Fatalf("expected TLS request to be https")
	}

	forwarded := httptest.NewRequest(http.MethodGet, "http://chat.test/", nil)
	forwarded.Header.Set("X-Forwarded-Proto", "https")
	if IsHTTPS(forwarded, SchemePolicy{}) {
		t.Fatalf("expected untrusted forwarded proto to be ignored")
	}
	if !IsHTTPS(forwarded, SchemePolicy{TrustForwardedProto: true}) {
		t.Fatalf("expected trusted forwarded proto to be honored")
	}

	if IsHTTPS(nil, SchemePolicy{}) {
		t.Fatalf("expected nil request to be non-https")
	}
}

func TestSameOrigin(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		origin  string
		referer string
		policy  SchemePolicy
		want    bool
	}{
		{name: "matching origin", origin: "http://chat.test", want: true},
		{name: "explicit default port", origin: "http://chat.test:80", want: true},
		{name: "other host", origin: "http://evil.test", want: false},
		{name: "other scheme", origin: "https://chat.test", want: false},
		{name: "trusted forwarded scheme", origin: "https://chat.test", policy: SchemePolicy{TrustForwardedProto: true}, want: true},
		{name: "referer fallback", referer: "http://chat.test/?edit=1", want: true},
		{name: "null origin uses referer", origin: "null", referer: "http://evil.test/", want: false},
		{name: "no proof", want: false},
		{name: "garbage", origin: "::::", want: false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			r := httptest.NewRequest(http.MethodPost, "http://chat.test/messages", nil)
			r.Header.Set("X-Forwarded-Proto", "https")
			if tc.origin != "" {
				r.Header.Set("Origin", tc.origin)
			}
			if tc.referer != "" {
				r.Header.Set("Referer", tc.referer)
			}
			if got := SameOrigin(r, tc.policy); got != tc.want {
				t.Fatalf("SameOrigin() = %v, want %v", got, tc.want)
			}
		})
	}
}
