package account_test

import (
	"context"
	"sync"
	"time"

	"github.com/glomun/portal/modules/account"
	"github.com/glomun/portal/pkg/email"
	"github.com/glomun/portal/pkg/subscription"
)

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
	sub.Status = subscription.StatusPending
	s.subs = append(s.subs, sub)
	return nil
}

func (s *fakeStore) LinkPreapprovalID(_ context.Context, tempID, preapprovalID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sub := range s.subs {
		if sub.TempID == tempID {
			sub.PreapprovalID = preapprovalID
			return nil
		}
	}
	return subscription.ErrNotFound
}

func (s *fakeStore) SetStatus(_ context.Context, preapprovalID string, status subscription.Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sub := range s.subs {
		if sub.PreapprovalID == preapprovalID {
			if sub.Status == status {
				return nil
			}
			if !sub.Status.CanTransitionTo(status) {
				return subscription.ErrInvalidTransition
			}
			sub.Status = status
			return nil
		}
	}
	return subscription.ErrNotFound
}

func (s *fakeStore) SetMetadata(_ context.Context, preapprovalID string, md subscription.OperationalMetadata) error {
	return nil
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

func (s *fakeStore) FindAuthorizedByEmail(_ context.Context, addr string) (*subscription.Subscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sub := range s.subs {
		if sub.Email == addr && sub.Status == subscription.StatusAuthorized {
			clone := *sub
			return &clone, nil
		}
	}
	return nil, subscription.ErrNotFound
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

// memTokenStore mirrors the Mongo store's semantics: Consume is atomic
// and matches only unexpired tokens; expired records linger unmatched.
type memTokenStore struct {
	mu     sync.Mutex
	tokens map[string]account.LoginToken
}

func newMemTokenStore() *memTokenStore {
	return &memTokenStore{tokens: make(map[string]account.LoginToken)}
}

func (s *memTokenStore) Create(_ context.Context, token *account.LoginToken) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[token.Token] = *token
	return nil
}

func (s *memTokenStore) Consume(_ context.Context, token string, now time.Time) (*account.LoginToken, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.tokens[token]
	if !ok || !record.ExpiresAt.After(now) {
		return nil, account.ErrInvalidToken
	}
	delete(s.tokens, token)
	return &record, nil
}

func (s *memTokenStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tokens)
}

func (s *memTokenStore) first() (account.LoginToken, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, record := range s.tokens {
		return record, true
	}
	return account.LoginToken{}, false
}

type fakeMailer struct {
	mu   sync.Mutex
	sent []email.SendEmailParams
	err  error
}

func (m *fakeMailer) SendEmail(_ context.Context, params email.SendEmailParams) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, params)
	return nil
}

func (m *fakeMailer) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sent)
}

func (m *fakeMailer) last() email.SendEmailParams {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sent[len(m.sent)-1]
}

type fakeBilling struct {
	mu        sync.Mutex
	cancelled []string
	err       error
}

func (b *fakeBilling) CancelSubscription(_ context.Context, preapprovalID string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.err != nil {
		return b.err
	}
	b.cancelled = append(b.cancelled, preapprovalID)
	return nil
}
