package client

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestDescribe(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"duplicate verbatim", status.Error(codes.AlreadyExists, "User with this email or phone already exists"), "User with this email or phone already exists"},
		{"account not found", status.Error(codes.NotFound, "Something went wrong. Please try again."), msgTryAgain},
		{"challenge not found", status.Error(codes.NotFound, "Something went wrong. Please try again."), msgTryAgain},
		{"expired", status.Error(codes.FailedPrecondition, "OTP has expired. Please request a new one."), msgExpired},
		{"mismatch", status.Error(codes.InvalidArgument, "Invalid OTP"), msgWrongCode},
		{"bad argument", status.Error(codes.InvalidArgument, "phone is required"), "phone is required"},
		{"bad password", status.Error(codes.Unauthenticated, "Invalid phone number or password"), msgWrongPassword},
		{"token expired", status.Error(codes.Unauthenticated, "invalid or expired token"), msgSignedOut},
		{"unverified", status.Error(codes.PermissionDenied, "phone not verified"), "Please verify your phone number first."},
		{"storage", status.Error(codes.Unavailable, "service temporarily unavailable, try again later"), msgTryLater},
		{"internal", status.Error(codes.Internal, "internal error"), msgTryAgain},
		{"plain error", errors.New("dial tcp: refused"), msgTryAgain},
		{"incomplete code", fmt.Errorf("verify: %w", ErrIncompleteCode), "Please enter the complete 6-digit code."},
		{"missing field", ErrMissingField, "Please fill in all required fields."},
		{"not signed in", ErrNotSignedIn, "You are not logged in."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Describe(tt.err))
		})
	}
}
