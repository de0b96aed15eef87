package domain

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrDuplicateIdentity is returned when another account already uses the email or phone.
	ErrDuplicateIdentity = errors.New("account already exists")
	// ErrNotFound is returned when no account matches the lookup key.
	ErrNotFound = errors.New("account not found")
)

// Language is the account's preferred UI language.
type Language string

const (
	LanguageEnglish Language = "en"
	LanguageHindi   Language = "hi"
)

// ParseLanguage returns the Language for s. Empty input defaults to English.
func ParseLanguage(s string) (Language, error) {
	switch Language(strings.ToLower(strings.TrimSpace(s))) {
	case "", LanguageEnglish:
		return LanguageEnglish, nil
	case LanguageHindi:
		return LanguageHindi, nil
	default:
		return "", errors.New("preferred language must be one of en, hi")
	}
}

// Account is a registered identity. Email and Phone are each unique across accounts.
// IsVerified flips to true once, on the first successful OTP verification, and never reverts.
type Account struct {
	ID                string
	Name              string
	Email             string
	Phone             string
	PreferredLanguage Language
	IsVerified        bool
	VerifiedAt        *time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// NewAccount returns an unverified account with a fresh ID. Identity fields are trimmed and the email lower-cased.
func NewAccount(name, email, phone string, lang Language) *Account {
	now := time.Now().UTC()
	return &Account{
		ID:                uuid.New().String(),
		Name:              strings.TrimSpace(name),
		Email:             NormalizeEmail(email),
		Phone:             NormalizePhone(phone),
		PreferredLanguage: lang,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
}

// Validate validates the account for persistence. Returns an error describing the first validation failure.
func (a *Account) Validate() error {
	if a.ID == "" {
		return errors.New("id is required")
	}
	if a.Name == "" {
		return errors.New("name is required")
	}
	if a.Email == "" {
		return errors.New("email is required")
	}
	if a.Phone == "" {
		return errors.New("phone is required")
	}
	if a.PreferredLanguage == "" {
		a.PreferredLanguage = LanguageEnglish
	}
	if _, err := ParseLanguage(string(a.PreferredLanguage)); err != nil {
		return err
	}
	return nil
}

// NormalizeEmail trims and lower-cases an email so uniqueness is case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// NormalizePhone strips spaces and dashes; a leading "+" is kept.
func NormalizePhone(phone string) string {
	phone = strings.TrimSpace(phone)
	return strings.NewReplacer(" ", "", "-", "", "(", "", ")", "").Replace(phone)
}
