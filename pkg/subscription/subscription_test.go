package subscription_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glomun/portal/pkg/subscription"
)

func TestStatusCanTransitionTo(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		from    subscription.Status
		to      subscription.Status
		allowed bool
	}{
		{"pending to authorized", subscription.StatusPending, subscription.StatusAuthorized, true},
		{"pending to cancelled", subscription.StatusPending, subscription.StatusCancelled, true},
		{"authorized to cancelled", subscription.StatusAuthorized, subscription.StatusCancelled, true},
		{"authorized to pending", subscription.StatusAuthorized, subscription.StatusPending, false},
		{"cancelled to authorized", subscription.StatusCancelled, subscription.StatusAuthorized, false},
		{"cancelled to pending", subscription.StatusCancelled, subscription.StatusPending, false},
		{"pending to pending is a no-op", subscription.StatusPending, subscription.StatusPending, true},
		{"authorized to authorized is a no-op", subscription.StatusAuthorized, subscription.StatusAuthorized, true},
		{"cancelled to cancelled is a no-op", subscription.StatusCancelled, subscription.StatusCancelled, true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.allowed, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestStatusFromProcessor(t *testing.T) {
	t.Parallel()

	t.Run("known statuses map directly", func(t *testing.T) {
		t.Parallel()
		for _, raw := range []string{"pending", "authorized", "cancelled"} {
			status, ok := subscription.StatusFromProcessor(raw)
			require.True(t, ok, raw)
			assert.Equal(t, subscription.Status(raw), status)
		}
	})

	t.Run("unknown statuses are rejected", func(t *testing.T) {
		t.Parallel()
		for _, raw := range []string{"paused", "", "PENDING", "approved"} {
			_, ok := subscription.StatusFromProcessor(raw)
			assert.False(t, ok, raw)
		}
	})
}

func TestSubscriptionIsActive(t *testing.T) {
	t.Parallel()

	sub := &subscription.Subscription{Status: subscription.StatusAuthorized}
	assert.True(t, sub.IsActive())
	assert.False(t, sub.IsCancelled())

	sub.Status = subscription.StatusCancelled
	assert.False(t, sub.IsActive())
	assert.True(t, sub.IsCancelled())

	sub.Status = subscription.StatusPending
	assert.False(t, sub.IsActive())
}
