// Package notify delivers one-time codes to phones.
package notify

import (
	"context"
)

// Notifier delivers a code to a phone. Implementations must not log the code
// unless they are development-only.
type Notifier interface {
	Send(ctx context.Context, phone, code string) error
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, phone, code string) error

func (f NotifierFunc) Send(ctx context.Context, phone, code string) error {
	return f(ctx, phone, code)
}
