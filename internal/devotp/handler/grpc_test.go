package handler

import (
	"context"
	"testing"
	"time"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	verificationv1 "agrovision-auth/internal/api/verification/v1"
	"agrovision-auth/internal/devotp"
)

// mockStore implements devotp.Store for tests.
type mockStore struct {
	otps map[string]string
}

func (m *mockStore) Put(ctx context.Context, phone, code string, expiresAt time.Time) {
	if m.otps == nil {
		m.otps = make(map[string]string)
	}
	m.otps[phone] = code
}

func (m *mockStore) Get(ctx context.Context, phone string) (string, bool) {
	code, ok := m.otps[phone]
	return code, ok
}

func TestGetOTP_Success(t *testing.T) {
	store := &mockStore{otps: map[string]string{"+911234567890": "012345"}}
	srv := NewServer(store)

	resp, err := srv.GetOTP(context.Background(), &verificationv1.GetOTPRequest{Phone: "+91 12345-67890"})
	if err != nil {
		t.Fatalf("GetOTP: %v", err)
	}
	if resp.OTP != "012345" {
		t.Errorf("otp = %q, want %q", resp.OTP, "012345")
	}
	if resp.Note != devOTPNote {
		t.Errorf("note = %q, want %q", resp.Note, devOTPNote)
	}
}

func TestGetOTP_NotFound(t *testing.T) {
	srv := NewServer(&mockStore{})

	_, err := srv.GetOTP(context.Background(), &verificationv1.GetOTPRequest{Phone: "+911234567890"})
	if status.Code(err) != codes.NotFound {
		t.Errorf("status code = %v, want %v", status.Code(err), codes.NotFound)
	}
}

func TestGetOTP_EmptyPhone(t *testing.T) {
	srv := NewServer(&mockStore{})

	_, err := srv.GetOTP(context.Background(), &verificationv1.GetOTPRequest{Phone: "  "})
	if status.Code(err) != codes.InvalidArgument {
		t.Errorf("status code = %v, want %v", status.Code(err), codes.InvalidArgument)
	}
}

func TestGetOTP_ExpiredInMemoryStore(t *testing.T) {
	store := devotp.NewMemoryStore()
	store.Put(context.Background(), "+911234567890", "999999", time.Now().Add(-time.Second))
	srv := NewServer(store)

	_, err := srv.GetOTP(context.Background(), &verificationv1.GetOTPRequest{Phone: "+911234567890"})
	if status.Code(err) != codes.NotFound {
		t.Errorf("status code = %v, want %v", status.Code(err), codes.NotFound)
	}
}
