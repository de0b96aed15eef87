// Package events publishes verification lifecycle events to Kafka, NSQ, or OTel logs.
// Events never carry a one-time code.
package events

import (
	"time"

	"github.com/google/uuid"
)

// Event types.
const (
	TypeAccountCreated  = "account.created"
	TypeOTPIssued       = "otp.issued"
	TypeOTPVerifyFailed = "otp.verify_failed"
	TypeAccountVerified = "account.verified"
	TypeLoginSucceeded  = "login.succeeded"
	TypeLoginRejected   = "login.rejected"
	TypeRPCRequest      = "rpc.request"
)

// Source is stamped on events from this service.
const Source = "otpauth"

// Event is one lifecycle event, serialized as JSON on every transport.
type Event struct {
	ID        string            `json:"id"`
	Type      string            `json:"event_type"`
	Source    string            `json:"source"`
	AccountID string            `json:"account_id,omitempty"`
	Phone     string            `json:"phone,omitempty"`
	Outcome   string            `json:"outcome,omitempty"`
	Reason    string            `json:"reason,omitempty"`
	Attrs     map[string]string `json:"attrs,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
}

// New returns an event of type typ stamped with a fresh id and the current time.
func New(typ string) Event {
	return Event{
		ID:        uuid.New().String(),
		Type:      typ,
		Source:    Source,
		CreatedAt: time.Now().UTC(),
	}
}

// WithAccount sets the account id and phone.
func (e Event) WithAccount(accountID, phone string) Event {
	e.AccountID = accountID
	e.Phone = phone
	return e
}

// WithAttr returns a copy of e with key set to value.
func (e Event) WithAttr(key, value string) Event {
	attrs := make(map[string]string, len(e.Attrs)+1)
	for k, v := range e.Attrs {
		attrs[k] = v
	}
	attrs[key] = value
	e.Attrs = attrs
	return e
}

// Key is the partitioning key: the phone, so one phone's events stay ordered.
func (e Event) Key() []byte {
	if e.Phone == "" {
		return nil
	}
	return []byte(e.Phone)
}
