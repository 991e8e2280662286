// Package middleware provides the route guard for the counselor admin
// area.
//
// The guard runs a fixed decision sequence per request: public allow-list
// check, cookie extraction, token signature verification, session lookup
// and expiry check, then accept. Every failure path degrades to a redirect
// to the login route; the guard never surfaces a raw error to the
// requester.
package middleware

import (
	"context"
	"net/http"

	guidancedesk "github.com/campuskit/guidancedesk"
)

type sessionContextKey struct{}

// SessionFromContext returns the session attached by the guard on accepted
// requests.
func SessionFromContext(ctx context.Context) (*guidancedesk.SessionInfo, bool) {
	info, ok := ctx.Value(sessionContextKey{}).(*guidancedesk.SessionInfo)
	return info, ok
}

// SessionValidator is the slice of the engine the guard needs.
type SessionValidator interface {
	ValidateSession(ctx context.Context, token string) (*guidancedesk.SessionInfo, error)
}

// GuardConfig configures the guard's cookie, redirect target, and public
// allow-list.
type GuardConfig struct {
	// CookieName is the session cookie, "counselorToken" by convention.
	CookieName string
	// LoginPath receives every rejected request via 302.
	LoginPath string
	// PublicPaths pass through without any session check (login,
	// register, setup-password). Matched exactly.
	PublicPaths []string
	// Metrics is optional; nil disables counting.
	Metrics *guidancedesk.Metrics
}

// Guard wraps next with the session check.
func Guard(validator SessionValidator, cfg GuardConfig) func(http.Handler) http.Handler {
	public := make(map[string]struct{}, len(cfg.PublicPaths))
	for _, p := range cfg.PublicPaths {
		public[p] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := public[r.URL.Path]; ok {
				next.ServeHTTP(w, r)
				return
			}

			if validator == nil {
				reject(w, r, cfg)
				return
			}

			cookie, err := r.Cookie(cfg.CookieName)
			if err != nil || cookie.Value == "" {
				reject(w, r, cfg)
				return
			}

			// Signature, session lookup, and expiry all live behind
			// ValidateSession; any failure, including a store outage,
			// normalizes to the same redirect.
			info, err := validator.ValidateSession(r.Context(), cookie.Value)
			if err != nil {
				reject(w, r, cfg)
				return
			}

			cfg.Metrics.Inc(guidancedesk.MetricGuardAccept)
			ctx := context.WithValue(r.Context(), sessionContextKey{}, info)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func reject(w http.ResponseWriter, r *http.Request, cfg GuardConfig) {
	cfg.Metrics.Inc(guidancedesk.MetricGuardReject)
	http.Redirect(w, r, cfg.LoginPath, http.StatusFound)
}
