package domain

import "time"

// Challenge is the pending verification for one phone (stored in otp_challenges).
// At most one exists per phone; issuing a new one replaces it.
type Challenge struct {
	Phone     string    `json:"phone"`
	CodeHash  string    `json:"code_hash"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

// Expired reports whether the challenge is past its expiry at now. A challenge is still valid at exactly ExpiresAt.
func (c *Challenge) Expired(now time.Time) bool {
	return now.After(c.ExpiresAt)
}

// Remaining returns the time left before expiry at now, or zero when expired.
func (c *Challenge) Remaining(now time.Time) time.Duration {
	d := c.ExpiresAt.Sub(now)
	if d < 0 {
		return 0
	}
	return d
}
