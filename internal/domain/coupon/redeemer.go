package coupon

import (
	"context"
	"time"

	"github.com/go-faster/errors"
)

// Redeemer validates a coupon code and consumes one unit of its redemption
// limit. Redemption is not idempotent: every successful call burns one use,
// so callers invoke it at most once per order attempt.
type Redeemer struct {
	repo Repository
	now  func() time.Time
}

// NewRedeemer creates a Redeemer backed by the given Repository.
func NewRedeemer(repo Repository) *Redeemer {
	return &Redeemer{repo: repo, now: time.Now}
}

// Redeem looks up the coupon, checks its status, expiration, and remaining
// limit, then atomically consumes one redemption. Lazy status transitions
// are persisted on the way out: an active coupon past its expiration date
// is marked expired, one with an exhausted limit is marked redeemed_out,
// and the corresponding error is returned.
func (r *Redeemer) Redeem(ctx context.Context, code string) (*Coupon, error) {
	c, err := r.repo.FindByCode(ctx, code)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, errors.Wrap(err, "lookup coupon")
	}

	if c.Status != StatusActive {
		return nil, ErrNotActive
	}

	if c.ExpirationDate != nil && c.ExpirationDate.Before(r.now()) {
		if err := r.repo.SetStatus(ctx, code, StatusExpired); err != nil {
			return nil, errors.Wrap(err, "mark coupon expired")
		}
		return nil, ErrExpired
	}

	if c.Limit <= 0 {
		if err := r.repo.SetStatus(ctx, code, StatusRedeemedOut); err != nil {
			return nil, errors.Wrap(err, "mark coupon redeemed out")
		}
		return nil, ErrRedeemedOut
	}

	// ConsumeOne re-checks status and limit inside a conditional update, so
	// a concurrent redemption losing the race fails here instead of driving
	// the limit negative.
	redeemed, err := r.repo.ConsumeOne(ctx, code)
	if err != nil {
		if errors.Is(err, ErrRedeemedOut) {
			return nil, ErrRedeemedOut
		}
		return nil, errors.Wrap(err, "consume coupon")
	}

	return redeemed, nil
}
