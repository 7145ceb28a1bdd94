package httpx

import (
	"net/http"
	"strings"

	"github.com/louisbranch/chatfeed/internal/services/chat/platform/requestmeta"
)

// RejectCrossOrigin blocks unsafe requests whose Origin or Referer names a
// different site. Requests carrying neither header pass through; the identity
// cookie is SameSite=Lax so browsers will not attach it cross-site anyway.
func RejectCrossOrigin(policy requestmeta.SchemePolicy) Middleware {
	return func(next http.Handler) http.Handler {
		if next == nil {
			next = http.NotFoundHandler()
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet, http.MethodHead, http.MethodOptions:
				next.ServeHTTP(w, r)
				return
			}
			hasProof := strings.TrimSpace(r.Header.Get("Origin")) != "" ||
				strings.TrimSpace(r.Header.Get("Referer")) != ""
			if hasProof && !requestmeta.SameOrigin(r, policy) {
				w.WriteHeader(http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
