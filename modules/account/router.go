package account

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/glomun/portal/pkg/logger"
	"github.com/glomun/portal/pkg/subscription"
)

// Router mounts the account endpoints. loginLimiter optionally guards
// magic-link issuance against abuse; pass nil to mount it unguarded.
func Router(svc *Service, loginLimiter func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()

	login := http.Handler(http.HandlerFunc(svc.handleLogin))
	if loginLimiter != nil {
		login = loginLimiter(login)
	}
	r.Method(http.MethodPost, "/login", login)
	r.Get("/login/verify", svc.handleVerify)
	r.Post("/logout", svc.handleLogout)

	r.Group(func(g chi.Router) {
		g.Use(svc.sessions.Middleware)
		g.Get("/me", svc.handleMe)
		g.Post("/cancel", svc.handleCancel)
	})

	return r
}

func (s *Service) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Email == "" {
		respondError(w, http.StatusBadRequest, "email is required")
		return
	}

	if err := s.RequestLoginLink(r.Context(), req.Email); err != nil {
		if errors.Is(err, ErrNoActiveSubscription) {
			respondError(w, http.StatusNotFound, ErrNoActiveSubscription.Error())
			return
		}
		s.log.ErrorContext(r.Context(), "failed to issue login link",
			logger.Error(err), logger.Email(req.Email))
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"sent": true})
}

func (s *Service) handleVerify(w http.ResponseWriter, r *http.Request) {
	sub, err := s.VerifyLoginToken(r.Context(), r.URL.Query().Get("token"))
	if err != nil {
		if !errors.Is(err, ErrInvalidToken) {
			s.log.ErrorContext(r.Context(), "login verification failed", logger.Error(err))
		}
		http.Redirect(w, r, "/account?error=invalid_token", http.StatusSeeOther)
		return
	}

	s.sessions.Establish(w, sub.PreapprovalID)
	http.Redirect(w, r, "/account", http.StatusSeeOther)
}

func (s *Service) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.sessions.Clear(w)
	respondJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (s *Service) handleMe(w http.ResponseWriter, r *http.Request) {
	sub, ok := subscription.FromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "login required")
		return
	}
	respondJSON(w, http.StatusOK, sub)
}

func (s *Service) handleCancel(w http.ResponseWriter, r *http.Request) {
	sub, ok := subscription.FromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "login required")
		return
	}

	if err := s.Cancel(r.Context(), sub); err != nil {
		s.log.ErrorContext(r.Context(), "cancellation failed",
			logger.Error(err), logger.PreapprovalID(sub.PreapprovalID))
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}

	s.sessions.Clear(w)
	respondJSON(w, http.StatusOK, map[string]bool{"cancelled": true})
}
