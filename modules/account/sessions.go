package account

import (
	"errors"
	"net/http"

	"github.com/glomun/portal/pkg/cookie"
	"github.com/glomun/portal/pkg/subscription"
)

// CookieName is the browser session cookie. Its value is a preapproval
// id; there is no server-side session table.
const CookieName = "glomun_sub"

// sessionMaxAge keeps the cookie for a year; actual access is still
// gated by subscription status on every request.
const sessionMaxAge = 365 * 24 * 60 * 60

// Sessions resolves and writes the session cookie.
type Sessions struct {
	cookies *cookie.Manager
	store   subscription.Store
	secure  bool
}

// NewSessions creates the session bridge. secure should be true in any
// environment served over HTTPS.
func NewSessions(cookies *cookie.Manager, store subscription.Store, secure bool) *Sessions {
	return &Sessions{cookies: cookies, store: store, secure: secure}
}

// Establish writes the session cookie for a subscription.
func (s *Sessions) Establish(w http.ResponseWriter, preapprovalID string) {
	s.cookies.Set(w, CookieName, preapprovalID,
		cookie.WithMaxAge(sessionMaxAge),
		cookie.WithSecure(s.secure),
		cookie.WithSameSite(http.SameSiteLaxMode),
	)
}

// Clear logs the browser out. No server-side state exists to invalidate.
func (s *Sessions) Clear(w http.ResponseWriter) {
	s.cookies.Delete(w, CookieName)
}

// Resolve maps the request's cookie to a subscription. A missing cookie,
// an unknown id and a cancelled record are all the same ErrNoSession;
// callers must not be able to tell them apart.
func (s *Sessions) Resolve(r *http.Request) (*subscription.Subscription, error) {
	value, err := s.cookies.Get(r, CookieName)
	if err != nil || value == "" {
		return nil, ErrNoSession
	}

	sub, err := s.store.FindByPreapprovalID(r.Context(), value)
	if err != nil {
		if errors.Is(err, subscription.ErrNotFound) {
			return nil, ErrNoSession
		}
		return nil, err
	}
	if sub.IsCancelled() {
		return nil, ErrNoSession
	}
	return sub, nil
}

// Middleware rejects requests without a resolvable session and attaches
// the subscription to the request context.
func (s *Sessions) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sub, err := s.Resolve(r)
		if err != nil {
			respondError(w, http.StatusUnauthorized, "login required")
			return
		}
		next.ServeHTTP(w, r.WithContext(subscription.NewContext(r.Context(), sub)))
	})
}
