package middleware

import (
	"net/http"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/gitify-app/updater/client/server/util"
)

// OriginGuard allows browser requests only from a fixed set of origins.
// Requests without an Origin header come from non-browser clients such as the CLI and pass.
type OriginGuard struct {
	allowed map[string]struct{}
}

func NewOriginGuard(origins []string) *OriginGuard {
	allowed := make(map[string]struct{}, len(origins))
	for _, origin := range origins {
		allowed[normalizeOrigin(origin)] = struct{}{}
	}
	return &OriginGuard{allowed: allowed}
}

// Allowed reports whether origin may call the API
func (g *OriginGuard) Allowed(origin string) bool {
	_, ok := g.allowed[normalizeOrigin(origin)]
	return ok
}

// Middleware rejects state changing requests sent by a foreign origin with 403.
// Simple cross-origin POSTs skip the CORS preflight, so they are checked here.
func (g *OriginGuard) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin == "" || isSafeMethod(r.Method) || g.Allowed(origin) {
			next.ServeHTTP(w, r)
			return
		}

		log.WithContext(r.Context()).Warnf("rejected %s %s from origin %q", r.Method, r.URL.Path, origin)
		util.WriteErrorResponse("origin not allowed", http.StatusForbidden, w)
	})
}

func isSafeMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return true
	default:
		return false
	}
}

func normalizeOrigin(origin string) string {
	return strings.ToLower(strings.TrimSuffix(strings.TrimSpace(origin), "/"))
}
