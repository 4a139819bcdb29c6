package billing

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/glomun/portal/pkg/logger"
	"github.com/glomun/portal/pkg/mercadopago"
	"github.com/glomun/portal/pkg/subscription"
)

const maxWebhookBody = 1 << 20

// handleWebhook accepts processor notifications. The contract is strict:
// 401 on a failed signature check, otherwise always a 200 acknowledgment
// so the processor does not multiply redeliveries; reconciliation
// failures are logged and converge on the next delivery.
func (s *Service) handleWebhook(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		s.log.ErrorContext(ctx, "failed to read webhook body", logger.Error(err))
		respondJSON(w, http.StatusOK, map[string]bool{"received": true})
		return
	}

	resourceID, hasID := mercadopago.ResourceID(r.URL.Query(), body)

	event := &subscription.WebhookEvent{
		ReceivedAt: time.Now().UTC(),
		Path:       r.URL.Path,
		Query:      flatten(r.URL.Query()),
		Headers:    flatten(r.Header),
		Body:       string(body),
	}

	// The manifest id is the query-string id only; a body-only id is
	// not part of what the processor signed.
	if err := s.policy.Verify(r.Header.Get("X-Signature"), r.Header.Get("X-Request-Id"), mercadopago.QueryResourceID(r.URL.Query())); err != nil {
		s.log.WarnContext(ctx, "rejected webhook signature",
			logger.Error(err), logger.PreapprovalID(resourceID))
		s.appendEvent(ctx, event)
		respondJSON(w, http.StatusUnauthorized, map[string]bool{"received": false})
		return
	}
	event.SignatureVerified = s.policy.Enforced()

	if !hasID {
		s.log.WarnContext(ctx, "webhook carried no resource id")
		s.appendEvent(ctx, event)
		respondJSON(w, http.StatusOK, map[string]bool{"received": true})
		return
	}

	summary, err := s.Reconcile(ctx, resourceID)
	if err != nil {
		// The processor redelivers; acknowledge and let the next
		// delivery converge.
		s.log.ErrorContext(ctx, "reconciliation failed",
			logger.Error(err), logger.PreapprovalID(resourceID))
	}
	event.Summary = summary

	s.appendEvent(ctx, event)
	respondJSON(w, http.StatusOK, map[string]bool{"received": true})
}

func (s *Service) appendEvent(ctx context.Context, event *subscription.WebhookEvent) {
	if err := s.events.Append(ctx, event); err != nil {
		s.log.ErrorContext(ctx, "failed to append webhook event", logger.Error(err))
	}
}

func flatten(values map[string][]string) map[string]string {
	if len(values) == 0 {
		return nil
	}
	out := make(map[string]string, len(values))
	for k, v := range values {
		if len(v) > 0 {
			out[k] = v[0]
		}
	}
	return out
}
