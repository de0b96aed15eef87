package client

import (
	"strings"
	"sync"

	"agrovision-auth/internal/otp"
)

// CodeEntry buffers the digits typed so far for a verification code.
type CodeEntry struct {
	mu     sync.Mutex
	digits []byte
}

// Type appends the digits in s, ignoring anything else, until the code is full.
func (e *CodeEntry) Type(s string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, r := range s {
		if len(e.digits) == otp.CodeLength {
			return
		}
		if r >= '0' && r <= '9' {
			e.digits = append(e.digits, byte(r))
		}
	}
}

// Backspace removes the last digit.
func (e *CodeEntry) Backspace() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if n := len(e.digits); n > 0 {
		e.digits = e.digits[:n-1]
	}
}

func (e *CodeEntry) Clear() {
	e.mu.Lock()
	e.digits = e.digits[:0]
	e.mu.Unlock()
}

func (e *CodeEntry) Code() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return string(e.digits)
}

// Complete reports whether a full code has been entered.
func (e *CodeEntry) Complete() bool {
	return otp.WellFormed(e.Code())
}

// Masked renders the entry as six slots, e.g. "12____".
func (e *CodeEntry) Masked() string {
	c := e.Code()
	return c + strings.Repeat("_", otp.CodeLength-len(c))
}
