package subscription

import (
	"context"
	"time"
)

// Store persists subscription documents. All operations target a single
// collection; each accessor is individually atomic and concurrent status
// flips on the same record are last-write-wins, except that the
// transition table is enforced so a cancelled record can never be
// resurrected.
type Store interface {
	// InsertPending creates a new pending record keyed by its TempID.
	InsertPending(ctx context.Context, sub *Subscription) error

	// LinkPreapprovalID attaches the processor-assigned id to a record
	// created before the processor confirmed one.
	LinkPreapprovalID(ctx context.Context, tempID, preapprovalID string) error

	// SetStatus moves a record to status per the transition table.
	// Setting the current status again is a no-op; a disallowed
	// transition returns ErrInvalidTransition.
	SetStatus(ctx context.Context, preapprovalID string, status Status) error

	// SetMetadata attaches operator-supplied operational metadata.
	SetMetadata(ctx context.Context, preapprovalID string, md OperationalMetadata) error

	FindByTempID(ctx context.Context, tempID string) (*Subscription, error)
	FindByPreapprovalID(ctx context.Context, preapprovalID string) (*Subscription, error)

	// FindAuthorizedByEmail returns the most recently created authorized
	// subscription for the email, or ErrNotFound.
	FindAuthorizedByEmail(ctx context.Context, email string) (*Subscription, error)

	ListAll(ctx context.Context) ([]Subscription, error)
}

// EventSummary is derived from the authoritative agreement record at
// reconciliation time and used for display and recent-charge queries.
type EventSummary struct {
	Amount     float64 `bson:"amount,omitempty" json:"amount,omitempty"`
	Currency   string  `bson:"currency,omitempty" json:"currency,omitempty"`
	PayerEmail string  `bson:"payerEmail,omitempty" json:"payer_email,omitempty"`
	Status     string  `bson:"status,omitempty" json:"status,omitempty"`
}

// WebhookEvent is one appended row per inbound notification. Duplicate
// deliveries append duplicate rows; that is the processor's at-least-once
// semantics, not a bug to dedupe here.
type WebhookEvent struct {
	ReceivedAt        time.Time         `bson:"receivedAt" json:"received_at"`
	Path              string            `bson:"path" json:"path"`
	Query             map[string]string `bson:"query,omitempty" json:"query,omitempty"`
	Headers           map[string]string `bson:"headers,omitempty" json:"headers,omitempty"`
	Body              string            `bson:"body,omitempty" json:"body,omitempty"`
	SignatureVerified bool              `bson:"signatureVerified" json:"signature_verified"`
	Summary           *EventSummary     `bson:"summary,omitempty" json:"summary,omitempty"`
}

// EventStore is the append-only audit log of webhook deliveries.
type EventStore interface {
	Append(ctx context.Context, event *WebhookEvent) error
	ListRecent(ctx context.Context, limit int64) ([]WebhookEvent, error)

	// HasRecentAuthorizedCharge answers "does this payer have a
	// successful charge since the given time".
	HasRecentAuthorizedCharge(ctx context.Context, email string, since time.Time) (bool, error)
}
