// Package rbac holds authorization checks shared by gRPC handlers.
package rbac

import (
	"context"
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"agrovision-auth/internal/account/domain"
	"agrovision-auth/internal/server/interceptors"
)

// AccountGetter loads an account by id.
type AccountGetter interface {
	GetAccount(ctx context.Context, id string) (*domain.Account, error)
}

// RequireVerifiedAccount ensures the caller is authenticated and that the token's account still exists and is verified.
// Returns the account on success; returns a gRPC error (Unauthenticated, PermissionDenied, or Unavailable) on failure.
func RequireVerifiedAccount(ctx context.Context, getter AccountGetter) (*domain.Account, error) {
	accountID, ok := interceptors.GetAccountID(ctx)
	if !ok || accountID == "" {
		return nil, status.Error(codes.Unauthenticated, "account context required")
	}
	a, err := getter.GetAccount(ctx, accountID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, status.Error(codes.Unauthenticated, "account no longer exists")
		}
		return nil, status.Error(codes.Unavailable, "failed to resolve account")
	}
	if a == nil {
		return nil, status.Error(codes.Unauthenticated, "account no longer exists")
	}
	if !a.IsVerified {
		return nil, status.Error(codes.PermissionDenied, "phone number not verified")
	}
	return a, nil
}
