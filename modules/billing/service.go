package billing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/glomun/portal/pkg/logger"
	"github.com/glomun/portal/pkg/mercadopago"
	"github.com/glomun/portal/pkg/subscription"
)

// ProcessorClient is the slice of the payment processor API this module
// consumes.
type ProcessorClient interface {
	CreatePreapproval(ctx context.Context, req mercadopago.CreatePreapprovalRequest) (*mercadopago.Preapproval, error)
	GetPreapproval(ctx context.Context, id string) (*mercadopago.Preapproval, error)
	CancelPreapproval(ctx context.Context, id string) (*mercadopago.Preapproval, error)
}

// Service implements checkout creation, webhook reconciliation, upgrades
// and cancellation against a processor client and the subscription store.
type Service struct {
	log     *slog.Logger
	store   subscription.Store
	events  subscription.EventStore
	client  ProcessorClient
	policy  mercadopago.SignaturePolicy
	catalog subscription.Catalog
	baseURL string
	now     func() time.Time
}

// NewService wires the billing service. baseURL must already be a
// validated public HTTPS base URL; the processor rejects anything else as
// a notification endpoint.
func NewService(
	log *slog.Logger,
	store subscription.Store,
	events subscription.EventStore,
	client ProcessorClient,
	policy mercadopago.SignaturePolicy,
	catalog subscription.Catalog,
	baseURL string,
) *Service {
	return &Service{
		log:     log.With(logger.Component("billing")),
		store:   store,
		events:  events,
		client:  client,
		policy:  policy,
		catalog: catalog,
		baseURL: baseURL,
		now:     time.Now,
	}
}

// CheckoutRequest carries the payer's details for a fresh agreement.
type CheckoutRequest struct {
	Plan  string `json:"plan"`
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
	Phone string `json:"phone,omitempty"`
}

// Checkout is the hosted-checkout handoff returned to the browser.
type Checkout struct {
	RedirectURL string `json:"redirect_url"`
	TempID      string `json:"temp_id"`
}

// CreateCheckout validates the request, writes a pending record keyed by
// a fresh temp id, creates the agreement at the processor and returns its
// hosted-checkout URL. Processor errors are surfaced verbatim and never
// retried; the user can simply retry the button.
func (s *Service) CreateCheckout(ctx context.Context, req CheckoutRequest) (*Checkout, error) {
	if req.Email == "" {
		return nil, ErrMissingEmail
	}
	plan, err := s.catalog.SelfServePlan(req.Plan)
	if err != nil {
		return nil, err
	}

	tempID := uuid.NewString()
	sub := &subscription.Subscription{
		TempID: tempID,
		Email:  req.Email,
		Name:   req.Name,
		Phone:  req.Phone,
		Plan:   plan.Code,
	}
	if err := s.store.InsertPending(ctx, sub); err != nil {
		return nil, err
	}

	ref := subscription.NewReference(plan.Code, s.now())
	pa, err := s.createAgreement(ctx, plan, req.Email, ref, tempID)
	if err != nil {
		return nil, err
	}

	// The processor owns the id; a failed link only costs the
	// return-from-checkout shortcut, reconciliation still works.
	if err := s.store.LinkPreapprovalID(ctx, tempID, pa.ID); err != nil {
		s.log.WarnContext(ctx, "failed to link preapproval id",
			logger.Error(err), logger.PreapprovalID(pa.ID), slog.String("temp_id", tempID))
	}

	return &Checkout{RedirectURL: pa.InitPoint, TempID: tempID}, nil
}

// CreateUpgrade creates a second agreement for the session's subscriber,
// tagged so webhook reconciliation can retire the current one once the
// new agreement is authorized. Payer email is fixed from the stored
// record, never from the request.
func (s *Service) CreateUpgrade(ctx context.Context, current *subscription.Subscription) (*Checkout, error) {
	if current == nil || current.IsCancelled() {
		return nil, ErrNoSession
	}
	plan, err := s.catalog.SelfServePlan(current.Plan)
	if err != nil {
		return nil, err
	}

	tempID := uuid.NewString()
	sub := &subscription.Subscription{
		TempID: tempID,
		Email:  current.Email,
		Name:   current.Name,
		Phone:  current.Phone,
		Plan:   plan.Code,
	}
	if err := s.store.InsertPending(ctx, sub); err != nil {
		return nil, err
	}

	ref := subscription.NewUpgradeReference(plan.Code, s.now(), current.PreapprovalID)
	pa, err := s.createAgreement(ctx, plan, current.Email, ref, tempID)
	if err != nil {
		return nil, err
	}

	if err := s.store.LinkPreapprovalID(ctx, tempID, pa.ID); err != nil {
		s.log.WarnContext(ctx, "failed to link preapproval id",
			logger.Error(err), logger.PreapprovalID(pa.ID), slog.String("temp_id", tempID))
	}

	return &Checkout{RedirectURL: pa.InitPoint, TempID: tempID}, nil
}

func (s *Service) createAgreement(ctx context.Context, plan subscription.Plan, email, ref, tempID string) (*mercadopago.Preapproval, error) {
	return s.client.CreatePreapproval(ctx, mercadopago.CreatePreapprovalRequest{
		Reason:     fmt.Sprintf("Glomun %s", plan.Name),
		PayerEmail: email,
		AutoRecurring: mercadopago.AutoRecurring{
			Frequency:         1,
			FrequencyType:     "months",
			TransactionAmount: plan.Amount,
			CurrencyID:        plan.CurrencyID,
		},
		BackURL:           s.baseURL + "/api/billing/return?ref=" + tempID,
		ExternalReference: ref,
		NotificationURL:   s.baseURL + "/api/billing/webhook",
		Status:            mercadopago.StatusPending,
	})
}

// Reconcile fetches the authoritative agreement record and converges the
// local subscription onto it. A failed fetch returns an error so the
// caller can decide the acknowledgment shape; everything downstream of a
// successful fetch is best-effort and logged.
func (s *Service) Reconcile(ctx context.Context, preapprovalID string) (*subscription.EventSummary, error) {
	pa, err := s.client.GetPreapproval(ctx, preapprovalID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch agreement %s: %w", preapprovalID, err)
	}

	summary := &subscription.EventSummary{
		Amount:     pa.AutoRecurring.TransactionAmount,
		Currency:   pa.AutoRecurring.CurrencyID,
		PayerEmail: pa.PayerEmail,
		Status:     pa.Status,
	}

	status, known := subscription.StatusFromProcessor(pa.Status)
	if !known {
		s.log.InfoContext(ctx, "ignoring unmapped processor status",
			logger.PreapprovalID(pa.ID), slog.String("status", pa.Status))
		return summary, nil
	}

	if err := s.store.SetStatus(ctx, pa.ID, status); err != nil {
		switch {
		case errors.Is(err, subscription.ErrNotFound):
			s.log.WarnContext(ctx, "notification for unknown subscription",
				logger.PreapprovalID(pa.ID), slog.String("status", pa.Status))
		case errors.Is(err, subscription.ErrInvalidTransition):
			s.log.WarnContext(ctx, "refused status transition",
				logger.Error(err), logger.PreapprovalID(pa.ID))
		default:
			s.log.ErrorContext(ctx, "failed to update subscription status",
				logger.Error(err), logger.PreapprovalID(pa.ID))
		}
	}

	if status == subscription.StatusAuthorized {
		s.cascadeUpgrade(ctx, pa)
	}

	return summary, nil
}

// cascadeUpgrade retires the agreement this one supersedes. Best-effort:
// the processor treats cancelling an already-cancelled agreement as a
// no-op, and any failure here is logged, never surfaced to the webhook
// exchange.
func (s *Service) cascadeUpgrade(ctx context.Context, pa *mercadopago.Preapproval) {
	prior, ok := subscription.UpgradeFrom(pa.ExternalReference)
	if !ok || prior == pa.ID {
		return
	}

	if _, err := s.client.CancelPreapproval(ctx, prior); err != nil {
		s.log.ErrorContext(ctx, "failed to cancel superseded agreement",
			logger.Error(err), logger.PreapprovalID(prior),
			slog.String("superseded_by", pa.ID))
		return
	}

	if err := s.store.SetStatus(ctx, prior, subscription.StatusCancelled); err != nil && !errors.Is(err, subscription.ErrNotFound) {
		s.log.WarnContext(ctx, "failed to mark superseded subscription cancelled",
			logger.Error(err), logger.PreapprovalID(prior))
	}

	s.log.InfoContext(ctx, "superseded agreement cancelled",
		logger.PreapprovalID(prior), slog.String("superseded_by", pa.ID))
}

// CancelSubscription cancels the agreement at the processor and mirrors
// the status locally. Processor errors are surfaced verbatim.
func (s *Service) CancelSubscription(ctx context.Context, preapprovalID string) error {
	if _, err := s.client.CancelPreapproval(ctx, preapprovalID); err != nil {
		return err
	}
	if err := s.store.SetStatus(ctx, preapprovalID, subscription.StatusCancelled); err != nil {
		return err
	}
	return nil
}

// ResolveReturn maps a return-from-checkout correlation id back to its
// subscription record.
func (s *Service) ResolveReturn(ctx context.Context, tempID string) (*subscription.Subscription, error) {
	return s.store.FindByTempID(ctx, tempID)
}
