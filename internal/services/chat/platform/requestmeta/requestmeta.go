// Package requestmeta resolves request scheme and origin facts used by cookie
// and form handling.
package requestmeta

import (
	"net/http"
	"net/url"
	"strings"
)

// SchemePolicy controls how the request scheme is resolved.
//
// X-Forwarded-Proto is ignored unless TrustForwardedProto is set, since any
// client can send it.
type SchemePolicy struct {
	TrustForwardedProto bool
}

// IsHTTPS reports whether r should be treated as HTTPS under policy.
func IsHTTPS(r *http.Request, policy SchemePolicy) bool {
	return Scheme(r, policy) == "https"
}

// Scheme returns "https" or "http" for r.
func Scheme(r *http.Request, policy SchemePolicy) string {
	if r == nil {
		return ""
	}
	if policy.TrustForwardedProto {
		forwarded := strings.ToLower(strings.TrimSpace(r.Header.Get("X-Forwarded-Proto")))
		if forwarded == "http" || forwarded == "https" {
			return forwarded
		}
	}
	if r.TLS != nil {
		return "https"
	}
	if r.URL != nil {
		if scheme := strings.ToLower(r.URL.Scheme); scheme == "https" {
			return scheme
		}
	}
	return "http"
}

// SameOrigin reports whether the Origin header, or failing that the Referer,
// names the same scheme, host and port as r. Requests carrying neither header
// report false.
func SameOrigin(r *http.Request, policy SchemePolicy) bool {
	if r == nil {
		return false
	}
	claimed := strings.TrimSpace(r.Header.Get("Origin"))
	if claimed == "" || claimed == "null" {
		claimed = strings.TrimSpace(r.Header.Get("Referer"))
	}
	if claimed == "" {
		return false
	}
	origin, err := url.Parse(claimed)
	if err != nil || origin.Host == "" {
		return false
	}

	scheme := Scheme(r, policy)
	host, port := splitHost(r.Host)
	if host == "" {
		return false
	}
	originScheme := strings.ToLower(origin.Scheme)
	if originScheme != scheme {
		return false
	}
	originHost, originPort := splitHost(origin.Host)
	if originHost != host {
		return false
	}
	return withDefaultPort(originPort, originScheme) == withDefaultPort(port, scheme)
}

func splitHost(raw string) (string, string) {
	parsed, err := url.Parse("//" + strings.TrimSpace(raw))
	if err != nil {
		return "", ""
	}
	return strings.ToLower(parsed.Hostname()), parsed.Port()
}

func withDefaultPort(port, scheme string) string {
	if port != "" {
		return port
	}
	if scheme == "https" {
		return "443"
	}
	return "80"
}
