package subscription

import "context"

type ctxKey struct{}

// NewContext returns ctx carrying the session's subscription.
func NewContext(ctx context.Context, sub *Subscription) context.Context {
	return context.WithValue(ctx, ctxKey{}, sub)
}

// FromContext returns the subscription attached by session middleware.
func FromContext(ctx context.Context) (*Subscription, bool) {
	sub, ok := ctx.Value(ctxKey{}).(*Subscription)
	return sub, ok && sub != nil
}
