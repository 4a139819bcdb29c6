package subscription

import "errors"

var (
	ErrNotFound          = errors.New("subscription not found")
	ErrInvalidTransition = errors.New("subscription status transition not allowed")
	ErrInvalidStatus     = errors.New("invalid subscription status")

	ErrUnknownPlan      = errors.New("unknown plan code")
	ErrPlanNotSelfServe = errors.New("plan has no self-serve price")
	ErrInvalidCatalog   = errors.New("invalid plan catalog")
)
