package security

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"testing"
	"time"
)

func TestTokenProvider_IssueAndValidate(t *testing.T) {
	p, err := NewTestTokenProvider()
	if err != nil {
		t.Fatalf("NewTestTokenProvider: %v", err)
	}
	token, exp, err := p.IssueAccess("acc-1", "+911234567890")
	if err != nil {
		t.Fatalf("IssueAccess: %v", err)
	}
	if token == "" {
		t.Fatal("token empty")
	}
	if !exp.After(time.Now()) {
		t.Fatal("expires at in the past")
	}
	id, phone, err := p.ValidateAccess(token)
	if err != nil {
		t.Fatalf("ValidateAccess: %v", err)
	}
	if id != "acc-1" || phone != "+911234567890" {
		t.Errorf("ValidateAccess: got accountID=%q phone=%q", id, phone)
	}
}

func TestTokenProvider_ES256(t *testing.T) {
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}
	p := NewTokenProvider(key, key.Public(), "iss", "aud", time.Minute)
	token, _, err := p.IssueAccess("acc-2", "+912")
	if err != nil {
		t.Fatalf("IssueAccess: %v", err)
	}
	if id, _, err := p.ValidateAccess(token); err != nil || id != "acc-2" {
		t.Errorf("ValidateAccess = %q, %v", id, err)
	}
}

func TestTokenProvider_ValidateAccessRejects(t *testing.T) {
	p, err := NewTestTokenProvider()
	if err != nil {
		t.Fatalf("NewTestTokenProvider: %v", err)
	}
	signer, _ := ParsePrivateKey(testPrivateKeyPEM)
	pub, _ := ParsePublicKey(testPublicKeyPEM)

	otherIssuer := NewTokenProvider(signer, pub, "someone-else", "test-audience", time.Minute)
	otherAudience := NewTokenProvider(signer, pub, "test-issuer", "other", time.Minute)
	expired := NewTokenProvider(signer, pub, "test-issuer", "test-audience", -time.Minute)

	tokenFrom := func(tp *TokenProvider) string {
		tok, _, err := tp.IssueAccess("acc-1", "+911")
		if err != nil {
			t.Fatalf("IssueAccess: %v", err)
		}
		return tok
	}

	testCases := []struct {
		name  string
		token string
	}{
		{"garbage", "invalid-token"},
		{"empty", ""},
		{"wrong issuer", tokenFrom(otherIssuer)},
		{"wrong audience", tokenFrom(otherAudience)},
		{"expired", tokenFrom(expired)},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if _, _, err := p.ValidateAccess(tc.token); err != ErrInvalidToken {
				t.Errorf("want ErrInvalidToken, got %v", err)
			}
		})
	}
}

func TestTokenProvider_ForeignKeyRejected(t *testing.T) {
	p, _ := NewTestTokenProvider()
	key, _ := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	forger := NewTokenProvider(key, key.Public(), "test-issuer", "test-audience", time.Minute)
	tok, _, err := forger.IssueAccess("acc-1", "+911")
	if err != nil {
		t.Fatalf("IssueAccess: %v", err)
	}
	if _, _, err := p.ValidateAccess(tok); err != ErrInvalidToken {
		t.Errorf("token signed by another key: want ErrInvalidToken, got %v", err)
	}
}
