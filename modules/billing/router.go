package billing

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/glomun/portal/pkg/logger"
	"github.com/glomun/portal/pkg/mercadopago"
	"github.com/glomun/portal/pkg/subscription"
)

// SessionWriter establishes a browser session for a subscription. The
// account module provides the implementation; billing only needs it on
// the return-from-checkout path.
type SessionWriter interface {
	Establish(w http.ResponseWriter, preapprovalID string)
}

// RouterOptions configures the optional pieces of the billing router.
type RouterOptions struct {
	// RequireSession guards the upgrade endpoint. Without it the
	// endpoint is not mounted.
	RequireSession func(http.Handler) http.Handler

	// Sessions lets the return endpoint log the payer in once their
	// record carries a confirmed preapproval id.
	Sessions SessionWriter
}

// Router mounts the billing endpoints.
func Router(svc *Service, opts RouterOptions) chi.Router {
	r := chi.NewRouter()

	r.Post("/checkout", svc.handleCheckout)
	r.Post("/webhook", svc.handleWebhook)
	r.Get("/return", svc.handleReturn(opts.Sessions))

	if opts.RequireSession != nil {
		r.Group(func(g chi.Router) {
			g.Use(opts.RequireSession)
			g.Post("/upgrade", svc.handleUpgrade)
		})
	}

	return r
}

func (s *Service) handleCheckout(w http.ResponseWriter, r *http.Request) {
	var req CheckoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	checkout, err := s.CreateCheckout(r.Context(), req)
	if err != nil {
		s.respondCheckoutError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, checkout)
}

func (s *Service) handleUpgrade(w http.ResponseWriter, r *http.Request) {
	current, ok := subscription.FromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "login required")
		return
	}

	checkout, err := s.CreateUpgrade(r.Context(), current)
	if err != nil {
		s.respondCheckoutError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, checkout)
}

// respondCheckoutError maps service errors onto the API contract:
// validation problems are 400s, processor failures carry the upstream
// status and body verbatim for debugging.
func (s *Service) respondCheckoutError(w http.ResponseWriter, r *http.Request, err error) {
	var apiErr *mercadopago.APIError
	switch {
	case errors.Is(err, ErrMissingEmail),
		errors.Is(err, subscription.ErrUnknownPlan),
		errors.Is(err, subscription.ErrPlanNotSelfServe):
		respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrNoSession):
		respondError(w, http.StatusUnauthorized, "login required")
	case errors.As(err, &apiErr):
		respondJSON(w, apiErr.StatusCode, map[string]any{
			"error":           "payment processor error",
			"upstream_status": apiErr.StatusCode,
			"upstream_body":   json.RawMessage(rawOrQuoted(apiErr.Body)),
		})
	default:
		s.log.ErrorContext(r.Context(), "checkout failed", logger.Error(err))
		respondError(w, http.StatusInternalServerError, "internal error")
	}
}

// rawOrQuoted passes JSON bodies through untouched and quotes anything
// else so the response stays valid JSON.
func rawOrQuoted(body string) []byte {
	if json.Valid([]byte(body)) {
		return []byte(body)
	}
	quoted, _ := json.Marshal(body)
	return quoted
}

func (s *Service) handleReturn(sessions SessionWriter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tempID := r.URL.Query().Get("ref")
		if tempID == "" {
			http.Redirect(w, r, "/", http.StatusSeeOther)
			return
		}

		sub, err := s.ResolveReturn(r.Context(), tempID)
		if err != nil {
			if !errors.Is(err, subscription.ErrNotFound) {
				s.log.ErrorContext(r.Context(), "failed to resolve checkout return", logger.Error(err))
			}
			http.Redirect(w, r, "/account?error=unknown_checkout", http.StatusSeeOther)
			return
		}

		if sub.PreapprovalID != "" && sessions != nil {
			sessions.Establish(w, sub.PreapprovalID)
		}
		http.Redirect(w, r, "/account", http.StatusSeeOther)
	}
}
