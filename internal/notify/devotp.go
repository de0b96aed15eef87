package notify

import (
	"context"
	"time"

	"agrovision-auth/internal/devotp"
)

// DevOTPNotifier records each code in a dev store before handing it to the next Notifier,
// so the dev-only GetOTP RPC can return it.
type DevOTPNotifier struct {
	next  Notifier
	store devotp.Store
	ttl   time.Duration
	now   func() time.Time
}

// NewDevOTPNotifier wraps next. Codes are kept in store for ttl.
func NewDevOTPNotifier(next Notifier, store devotp.Store, ttl time.Duration) *DevOTPNotifier {
	return &DevOTPNotifier{next: next, store: store, ttl: ttl, now: time.Now}
}

func (n *DevOTPNotifier) Send(ctx context.Context, phone, code string) error {
	n.store.Put(ctx, phone, code, n.now().Add(n.ttl))
	if n.next == nil {
		return nil
	}
	return n.next.Send(ctx, phone, code)
}
