package admin

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/glomun/portal/pkg/logger"
	"github.com/glomun/portal/pkg/ratelimit"
	"github.com/glomun/portal/pkg/subscription"
)

// Service exposes the back-office read and metadata operations.
type Service struct {
	log    *slog.Logger
	store  subscription.Store
	events subscription.EventStore
}

func NewService(log *slog.Logger, store subscription.Store, events subscription.EventStore) *Service {
	return &Service{
		log:    log.With(logger.Component("admin")),
		store:  store,
		events: events,
	}
}

// Router mounts the admin endpoints behind the rate limiter and the
// credential guard, in that order, so brute-force attempts burn the
// limiter before touching bcrypt.
func Router(svc *Service, guard *Guard, limiter ratelimit.Limiter) chi.Router {
	r := chi.NewRouter()
	r.Use(ratelimit.Middleware(limiter))
	r.Use(guard.Middleware)

	r.Get("/subscriptions", svc.handleListSubscriptions)
	r.Put("/subscriptions/{preapprovalID}/metadata", svc.handleSetMetadata)
	r.Get("/events", svc.handleListEvents)
	r.Get("/charges/recent", svc.handleRecentCharge)

	return r
}

func (s *Service) handleListSubscriptions(w http.ResponseWriter, r *http.Request) {
	subs, err := s.store.ListAll(r.Context())
	if err != nil {
		s.log.ErrorContext(r.Context(), "failed to list subscriptions", logger.Error(err))
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"subscriptions": subs})
}

func (s *Service) handleSetMetadata(w http.ResponseWriter, r *http.Request) {
	preapprovalID := chi.URLParam(r, "preapprovalID")

	var md subscription.OperationalMetadata
	if err := json.NewDecoder(r.Body).Decode(&md); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := s.store.SetMetadata(r.Context(), preapprovalID, md); err != nil {
		if errors.Is(err, subscription.ErrNotFound) {
			respondError(w, http.StatusNotFound, "subscription not found")
			return
		}
		s.log.ErrorContext(r.Context(), "failed to set metadata",
			logger.Error(err), logger.PreapprovalID(preapprovalID))
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"updated": true})
}

func (s *Service) handleListEvents(w http.ResponseWriter, r *http.Request) {
	limit := int64(100)
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || parsed <= 0 || parsed > 1000 {
			respondError(w, http.StatusBadRequest, "limit must be between 1 and 1000")
			return
		}
		limit = parsed
	}

	events, err := s.events.ListRecent(r.Context(), limit)
	if err != nil {
		s.log.ErrorContext(r.Context(), "failed to list webhook events", logger.Error(err))
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"events": events})
}

// handleRecentCharge answers "does this payer have a successful charge
// in the window", derived from the webhook audit log.
func (s *Service) handleRecentCharge(w http.ResponseWriter, r *http.Request) {
	payerEmail := r.URL.Query().Get("email")
	if payerEmail == "" {
		respondError(w, http.StatusBadRequest, "email is required")
		return
	}

	window := 35 * 24 * time.Hour
	if raw := r.URL.Query().Get("days"); raw != "" {
		days, err := strconv.Atoi(raw)
		if err != nil || days <= 0 || days > 365 {
			respondError(w, http.StatusBadRequest, "days must be between 1 and 365")
			return
		}
		window = time.Duration(days) * 24 * time.Hour
	}

	charged, err := s.events.HasRecentAuthorizedCharge(r.Context(), payerEmail, time.Now().Add(-window))
	if err != nil {
		s.log.ErrorContext(r.Context(), "failed to query recent charges",
			logger.Error(err), logger.Email(payerEmail))
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"charged": charged})
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, map[string]string{"error": msg})
}
