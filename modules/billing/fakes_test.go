package billing_test

import (
	"context"
	"sync"
	"time"

	"github.com/glomun/portal/pkg/mercadopago"
	"github.com/glomun/portal/pkg/subscription"
)

// fakeStore is an in-memory subscription.Store mirroring the Mongo
// store's transition semantics.
type fakeStore struct {
	mu   sync.Mutex
	subs []*subscription.Subscription
}

func newFakeStore(seed ...*subscription.Subscription) *fakeStore {
	return &fakeStore{subs: seed}
}

func (s *fakeStore) InsertPending(_ context.Context, sub *subscription.Subscription) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now().UTC()
	sub.Status = subscription.StatusPending
	sub.CreatedAt = now
	sub.UpdatedAt = now
	s.subs = append(s.subs, sub)
	return nil
}

func (s *fakeStore) LinkPreapprovalID(_ context.Context, tempID, preapprovalID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sub := range s.subs {
		if sub.TempID == tempID {
			sub.PreapprovalID = preapprovalID
			sub.UpdatedAt = time.Now().UTC()
			return nil
		}
	}
	return subscription.ErrNotFound
}

func (s *fakeStore) SetStatus(_ context.Context, preapprovalID string, status subscription.Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sub := range s.subs {
		if sub.PreapprovalID != preapprovalID {
			continue
		}
		if sub.Status == status {
			return nil
		}
		if !sub.Status.CanTransitionTo(status) {
			return subscription.ErrInvalidTransition
		}
		sub.Status = status
		sub.UpdatedAt = time.Now().UTC()
		return nil
	}
	return subscription.ErrNotFound
}

func (s *fakeStore) SetMetadata(_ context.Context, preapprovalID string, md subscription.OperationalMetadata) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sub := range s.subs {
		if sub.PreapprovalID == preapprovalID {
			sub.Metadata = &md
			return nil
		}
	}
	return subscription.ErrNotFound
}

func (s *fakeStore) FindByTempID(_ context.Context, tempID string) (*subscription.Subscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sub := range s.subs {
		if sub.TempID == tempID {
			clone := *sub
			return &clone, nil
		}
	}
	return nil, subscription.ErrNotFound
}

func (s *fakeStore) FindByPreapprovalID(_ context.Context, preapprovalID string) (*subscription.Subscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sub := range s.subs {
		if sub.PreapprovalID == preapprovalID {
			clone := *sub
			return &clone, nil
		}
	}
	return nil, subscription.ErrNotFound
}

func (s *fakeStore) FindAuthorizedByEmail(_ context.Context, email string) (*subscription.Subscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var latest *subscription.Subscription
	for _, sub := range s.subs {
		if sub.Email == email && sub.Status == subscription.StatusAuthorized {
			if latest == nil || sub.CreatedAt.After(latest.CreatedAt) {
				latest = sub
			}
		}
	}
	if latest == nil {
		return nil, subscription.ErrNotFound
	}
	clone := *latest
	return &clone, nil
}

func (s *fakeStore) ListAll(_ context.Context) ([]subscription.Subscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]subscription.Subscription, 0, len(s.subs))
	for _, sub := range s.subs {
		out = append(out, *sub)
	}
	return out, nil
}

// fakeEventStore records appended webhook events.
type fakeEventStore struct {
	mu     sync.Mutex
	events []subscription.WebhookEvent
}

func (s *fakeEventStore) Append(_ context.Context, event *subscription.WebhookEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, *event)
	return nil
}

func (s *fakeEventStore) ListRecent(_ context.Context, limit int64) ([]subscription.WebhookEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]subscription.WebhookEvent, len(s.events))
	copy(out, s.events)
	return out, nil
}

func (s *fakeEventStore) HasRecentAuthorizedCharge(_ context.Context, email string, since time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.events {
		if e.Summary != nil && e.Summary.PayerEmail == email &&
			e.Summary.Status == string(subscription.StatusAuthorized) &&
			!e.ReceivedAt.Before(since) {
			return true, nil
		}
	}
	return false, nil
}

func (s *fakeEventStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.events)
}

func (s *fakeEventStore) last() subscription.WebhookEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.events[len(s.events)-1]
}

// fakeProcessor stubs the processor API and records cancel calls.
type fakeProcessor struct {
	mu          sync.Mutex
	createFn    func(req mercadopago.CreatePreapprovalRequest) (*mercadopago.Preapproval, error)
	getFn       func(id string) (*mercadopago.Preapproval, error)
	cancelFn    func(id string) (*mercadopago.Preapproval, error)
	created     []mercadopago.CreatePreapprovalRequest
	cancelCalls []string
}

func (p *fakeProcessor) CreatePreapproval(_ context.Context, req mercadopago.CreatePreapprovalRequest) (*mercadopago.Preapproval, error) {
	p.mu.Lock()
	p.created = append(p.created, req)
	p.mu.Unlock()
	return p.createFn(req)
}

func (p *fakeProcessor) GetPreapproval(_ context.Context, id string) (*mercadopago.Preapproval, error) {
	return p.getFn(id)
}

func (p *fakeProcessor) CancelPreapproval(_ context.Context, id string) (*mercadopago.Preapproval, error) {
	p.mu.Lock()
	p.cancelCalls = append(p.cancelCalls, id)
	p.mu.Unlock()
	if p.cancelFn != nil {
		return p.cancelFn(id)
	}
	return &mercadopago.Preapproval{ID: id, Status: mercadopago.StatusCancelled}, nil
}

func (p *fakeProcessor) cancelled() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.cancelCalls))
	copy(out, p.cancelCalls)
	return out
}

func (p *fakeProcessor) lastCreate() mercadopago.CreatePreapprovalRequest {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.created[len(p.created)-1]
}
