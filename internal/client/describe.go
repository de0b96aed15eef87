package client

import (
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	msgTryAgain      = "Something went wrong. Please try again."
	msgTryLater      = "Service is temporarily unavailable. Please try again later."
	msgExpired       = "This code has expired. Request a new one."
	msgWrongCode     = "Invalid OTP. Please check the code and try again."
	msgWrongPassword = "Invalid phone number or password."
	msgSignedOut     = "Your session has ended. Please log in again."
)

// Describe turns an error from the client or the server into a line to show the user.
// Conflicts and argument errors carry the server's own message.
func Describe(err error) string {
	if err == nil {
		return ""
	}
	for _, local := range []error{ErrMissingField, ErrIncompleteCode, ErrNoPendingPhone, ErrResendNotReady} {
		if errors.Is(err, local) {
			return capitalize(local.Error()) + "."
		}
	}
	if errors.Is(err, ErrNotSignedIn) {
		return "You are not logged in."
	}
	st, ok := status.FromError(err)
	if !ok {
		return msgTryAgain
	}
	switch st.Code() {
	case codes.AlreadyExists:
		return st.Message()
	case codes.NotFound:
		return msgTryAgain
	case codes.FailedPrecondition:
		return msgExpired
	case codes.InvalidArgument:
		if st.Message() == "Invalid OTP" {
			return msgWrongCode
		}
		return st.Message()
	case codes.Unauthenticated:
		if st.Message() == "Invalid phone number or password" {
			return msgWrongPassword
		}
		return msgSignedOut
	case codes.PermissionDenied:
		return "Please verify your phone number first."
	case codes.Unavailable, codes.DeadlineExceeded:
		return msgTryLater
	default:
		return msgTryAgain
	}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	b := []byte(s)
	if b[0] >= 'a' && b[0] <= 'z' {
		b[0] -= 'a' - 'A'
	}
	return string(b)
}
