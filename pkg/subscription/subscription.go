package subscription

import "time"

// Status is the local lifecycle state of a billing agreement.
type Status string

const (
	StatusPending    Status = "pending"
	StatusAuthorized Status = "authorized"
	StatusCancelled  Status = "cancelled"
)

// allowedTransitions maps each status to the statuses it may move to.
// Re-setting the same status is handled as a no-op by the store, not
// listed here.
var allowedTransitions = map[Status][]Status{
	StatusPending:    {StatusAuthorized, StatusCancelled},
	StatusAuthorized: {StatusCancelled},
	StatusCancelled:  {},
}

// Valid reports whether s is a known status value.
func (s Status) Valid() bool {
	_, ok := allowedTransitions[s]
	return ok
}

// CanTransitionTo reports whether the transition from s to next is allowed.
// Same-status "transitions" return true so redelivered webhooks converge
// instead of erroring.
func (s Status) CanTransitionTo(next Status) bool {
	if s == next {
		return true
	}
	for _, allowed := range allowedTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// StatusFromProcessor maps a processor-reported status onto the local
// enumeration. Unknown values (e.g. "paused") report false and leave the
// record untouched.
func StatusFromProcessor(status string) (Status, bool) {
	switch Status(status) {
	case StatusPending, StatusAuthorized, StatusCancelled:
		return Status(status), true
	}
	return "", false
}

// OperationalMetadata is attached later by an operator and never affects
// the lifecycle.
type OperationalMetadata struct {
	AnalyticsPropertyID string             `bson:"analyticsPropertyId,omitempty" json:"analytics_property_id,omitempty"`
	CachedMetrics       map[string]float64 `bson:"cachedMetrics,omitempty" json:"cached_metrics,omitempty"`
}

// Subscription is one document per billing agreement.
type Subscription struct {
	TempID        string               `bson:"tempId" json:"temp_id"`
	PreapprovalID string               `bson:"preapprovalId,omitempty" json:"preapproval_id,omitempty"`
	Email         string               `bson:"email" json:"email"`
	Name          string               `bson:"name,omitempty" json:"name,omitempty"`
	Phone         string               `bson:"phone,omitempty" json:"phone,omitempty"`
	Plan          string               `bson:"plan" json:"plan"`
	Status        Status               `bson:"status" json:"status"`
	Metadata      *OperationalMetadata `bson:"metadata,omitempty" json:"metadata,omitempty"`
	CreatedAt     time.Time            `bson:"createdAt" json:"created_at"`
	UpdatedAt     time.Time            `bson:"updatedAt" json:"updated_at"`
}

// IsActive reports whether the subscription grants portal access.
func (s *Subscription) IsActive() bool {
	return s.Status == StatusAuthorized
}

func (s *Subscription) IsCancelled() bool {
	return s.Status == StatusCancelled
}
