package billing_test

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glomun/portal/modules/billing"
	"github.com/glomun/portal/pkg/mercadopago"
	"github.com/glomun/portal/pkg/subscription"
)

const webhookSecret = "whsec_test"

// signWebhook mirrors the processor's manifest: segments with absent
// values are omitted entirely.
func signWebhook(secret, resourceID, requestID, ts string) string {
	manifest := ""
	if resourceID != "" {
		manifest += fmt.Sprintf("id:%s;", resourceID)
	}
	if requestID != "" {
		manifest += fmt.Sprintf("request-id:%s;", requestID)
	}
	if ts != "" {
		manifest += fmt.Sprintf("ts:%s;", ts)
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(manifest))
	return fmt.Sprintf("ts=%s,v1=%s", ts, hex.EncodeToString(mac.Sum(nil)))
}

func deliverWebhook(t *testing.T, handler http.Handler, target, signature, requestID, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(body))
	if signature != "" {
		req.Header.Set("X-Signature", signature)
	}
	if requestID != "" {
		req.Header.Set("X-Request-Id", requestID)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestWebhookReconciliation(t *testing.T) {
	t.Parallel()

	t.Run("authorizes the notified subscription", func(t *testing.T) {
		t.Parallel()

		store := newFakeStore(&subscription.Subscription{
			TempID:        "tmp-1",
			PreapprovalID: "PA1",
			Email:         "a@example.com",
			Plan:          "web",
			Status:        subscription.StatusPending,
		})
		events := &fakeEventStore{}
		proc := &fakeProcessor{
			getFn: func(id string) (*mercadopago.Preapproval, error) {
				require.Equal(t, "PA1", id)
				return &mercadopago.Preapproval{
					ID:                "PA1",
					Status:            "authorized",
					ExternalReference: "web-123",
					PayerEmail:        "a@example.com",
					AutoRecurring:     mercadopago.AutoRecurring{TransactionAmount: 150000, CurrencyID: "ARS"},
				}, nil
			},
		}
		svc := newService(t, store, events, proc, webhookSecret)
		router := billing.Router(svc, billing.RouterOptions{})

		sig := signWebhook(webhookSecret, "PA1", "req-1", "1704908010")
		rec := deliverWebhook(t, router, "/webhook?data.id=PA1", sig, "req-1", `{"type":"subscription_preapproval","data":{"id":"PA1"}}`)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"received":true}`, rec.Body.String())

		sub, err := store.FindByPreapprovalID(context.Background(), "PA1")
		require.NoError(t, err)
		assert.Equal(t, subscription.StatusAuthorized, sub.Status)

		require.Equal(t, 1, events.count())
		event := events.last()
		assert.True(t, event.SignatureVerified)
		require.NotNil(t, event.Summary)
		assert.Equal(t, "a@example.com", event.Summary.PayerEmail)
		assert.Equal(t, "authorized", event.Summary.Status)
		assert.Equal(t, 150000.0, event.Summary.Amount)
	})

	t.Run("body-only id verifies against a manifest without an id segment", func(t *testing.T) {
		t.Parallel()

		store := newFakeStore(&subscription.Subscription{
			TempID:        "tmp-1",
			PreapprovalID: "PA1",
			Email:         "a@example.com",
			Plan:          "web",
			Status:        subscription.StatusPending,
		})
		proc := &fakeProcessor{
			getFn: func(id string) (*mercadopago.Preapproval, error) {
				require.Equal(t, "PA1", id)
				return &mercadopago.Preapproval{ID: "PA1", Status: "authorized", ExternalReference: "web-123"}, nil
			},
		}
		svc := newService(t, store, &fakeEventStore{}, proc, webhookSecret)
		router := billing.Router(svc, billing.RouterOptions{})

		// No query id: the processor signs request-id and ts only.
		sig := signWebhook(webhookSecret, "", "req-1", "1704908010")
		rec := deliverWebhook(t, router, "/webhook", sig, "req-1", `{"type":"subscription_preapproval","data":{"id":"PA1"}}`)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"received":true}`, rec.Body.String())

		sub, err := store.FindByPreapprovalID(context.Background(), "PA1")
		require.NoError(t, err)
		assert.Equal(t, subscription.StatusAuthorized, sub.Status)
	})

	t.Run("rejects a bad signature without touching state", func(t *testing.T) {
		t.Parallel()

		store := newFakeStore(&subscription.Subscription{
			PreapprovalID: "PA1",
			Plan:          "web",
			Status:        subscription.StatusPending,
		})
		events := &fakeEventStore{}
		proc := &fakeProcessor{
			getFn: func(id string) (*mercadopago.Preapproval, error) {
				t.Fatal("processor must not be consulted for an unauthenticated notification")
				return nil, nil
			},
		}
		svc := newService(t, store, events, proc, webhookSecret)
		router := billing.Router(svc, billing.RouterOptions{})

		sig := signWebhook("wrong-secret", "PA1", "req-1", "1704908010")
		rec := deliverWebhook(t, router, "/webhook?data.id=PA1", sig, "req-1", `{"data":{"id":"PA1"}}`)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.JSONEq(t, `{"received":false}`, rec.Body.String())

		sub, err := store.FindByPreapprovalID(context.Background(), "PA1")
		require.NoError(t, err)
		assert.Equal(t, subscription.StatusPending, sub.Status)

		// The rejected delivery is still logged for audit.
		require.Equal(t, 1, events.count())
		assert.False(t, events.last().SignatureVerified)
	})

	t.Run("acknowledges when the authoritative fetch fails", func(t *testing.T) {
		t.Parallel()

		store := newFakeStore(&subscription.Subscription{
			PreapprovalID: "PA1",
			Plan:          "web",
			Status:        subscription.StatusPending,
		})
		proc := &fakeProcessor{
			getFn: func(id string) (*mercadopago.Preapproval, error) {
				return nil, &mercadopago.APIError{StatusCode: http.StatusBadGateway, Body: "upstream down"}
			},
		}
		svc := newService(t, store, &fakeEventStore{}, proc, "")
		router := billing.Router(svc, billing.RouterOptions{})

		rec := deliverWebhook(t, router, "/webhook?id=PA1", "", "", "")

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"received":true}`, rec.Body.String())

		sub, err := store.FindByPreapprovalID(context.Background(), "PA1")
		require.NoError(t, err)
		assert.Equal(t, subscription.StatusPending, sub.Status)
	})

	t.Run("redelivery converges to the same state", func(t *testing.T) {
		t.Parallel()

		store := newFakeStore(&subscription.Subscription{
			PreapprovalID: "PA1",
			Plan:          "web",
			Status:        subscription.StatusPending,
		})
		proc := &fakeProcessor{
			getFn: func(id string) (*mercadopago.Preapproval, error) {
				return &mercadopago.Preapproval{ID: "PA1", Status: "authorized", ExternalReference: "web-123"}, nil
			},
		}
		svc := newService(t, store, &fakeEventStore{}, proc, "")
		router := billing.Router(svc, billing.RouterOptions{})

		for i := 0; i < 2; i++ {
			rec := deliverWebhook(t, router, "/webhook?id=PA1", "", "", "")
			assert.Equal(t, http.StatusOK, rec.Code)
		}

		sub, err := store.FindByPreapprovalID(context.Background(), "PA1")
		require.NoError(t, err)
		assert.Equal(t, subscription.StatusAuthorized, sub.Status)
		assert.Empty(t, proc.cancelled())
	})

	t.Run("ignores unmapped processor statuses", func(t *testing.T) {
		t.Parallel()

		store := newFakeStore(&subscription.Subscription{
			PreapprovalID: "PA1",
			Plan:          "web",
			Status:        subscription.StatusAuthorized,
		})
		proc := &fakeProcessor{
			getFn: func(id string) (*mercadopago.Preapproval, error) {
				return &mercadopago.Preapproval{ID: "PA1", Status: "paused"}, nil
			},
		}
		svc := newService(t, store, &fakeEventStore{}, proc, "")
		router := billing.Router(svc, billing.RouterOptions{})

		rec := deliverWebhook(t, router, "/webhook?id=PA1", "", "", "")
		assert.Equal(t, http.StatusOK, rec.Code)

		sub, err := store.FindByPreapprovalID(context.Background(), "PA1")
		require.NoError(t, err)
		assert.Equal(t, subscription.StatusAuthorized, sub.Status)
	})
}

func TestWebhookUpgradeCascade(t *testing.T) {
	t.Parallel()

	t.Run("cancels the superseded agreement exactly once per delivery", func(t *testing.T) {
		t.Parallel()

		store := newFakeStore(
			&subscription.Subscription{PreapprovalID: "PA1", Plan: "web", Status: subscription.StatusAuthorized},
			&subscription.Subscription{PreapprovalID: "PA2", Plan: "web", Status: subscription.StatusPending},
		)
		proc := &fakeProcessor{
			getFn: func(id string) (*mercadopago.Preapproval, error) {
				return &mercadopago.Preapproval{
					ID:                "PA2",
					Status:            "authorized",
					ExternalReference: "upgrade-web-999|from:PA1",
				}, nil
			},
		}
		svc := newService(t, store, &fakeEventStore{}, proc, "")
		router := billing.Router(svc, billing.RouterOptions{})

		rec := deliverWebhook(t, router, "/webhook?data.id=PA2", "", "", "")
		assert.Equal(t, http.StatusOK, rec.Code)

		assert.Equal(t, []string{"PA1"}, proc.cancelled())

		prior, err := store.FindByPreapprovalID(context.Background(), "PA1")
		require.NoError(t, err)
		assert.Equal(t, subscription.StatusCancelled, prior.Status)

		current, err := store.FindByPreapprovalID(context.Background(), "PA2")
		require.NoError(t, err)
		assert.Equal(t, subscription.StatusAuthorized, current.Status)
	})

	t.Run("no cancellation while the new agreement is pending", func(t *testing.T) {
		t.Parallel()

		store := newFakeStore(
			&subscription.Subscription{PreapprovalID: "PA1", Plan: "web", Status: subscription.StatusAuthorized},
			&subscription.Subscription{PreapprovalID: "PA2", Plan: "web", Status: subscription.StatusPending},
		)
		proc := &fakeProcessor{
			getFn: func(id string) (*mercadopago.Preapproval, error) {
				return &mercadopago.Preapproval{
					ID:                "PA2",
					Status:            "pending",
					ExternalReference: "upgrade-web-999|from:PA1",
				}, nil
			},
		}
		svc := newService(t, store, &fakeEventStore{}, proc, "")
		router := billing.Router(svc, billing.RouterOptions{})

		rec := deliverWebhook(t, router, "/webhook?data.id=PA2", "", "", "")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Empty(t, proc.cancelled())
	})

	t.Run("self-referencing tag does not cancel the new agreement", func(t *testing.T) {
		t.Parallel()

		store := newFakeStore(
			&subscription.Subscription{PreapprovalID: "PA2", Plan: "web", Status: subscription.StatusPending},
		)
		proc := &fakeProcessor{
			getFn: func(id string) (*mercadopago.Preapproval, error) {
				return &mercadopago.Preapproval{
					ID:                "PA2",
					Status:            "authorized",
					ExternalReference: "upgrade-web-999|from:PA2",
				}, nil
			},
		}
		svc := newService(t, store, &fakeEventStore{}, proc, "")
		router := billing.Router(svc, billing.RouterOptions{})

		deliverWebhook(t, router, "/webhook?data.id=PA2", "", "", "")
		assert.Empty(t, proc.cancelled())
	})
}
