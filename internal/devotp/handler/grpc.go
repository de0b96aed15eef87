// Package handler implements the dev-only gRPC DevService (GetOTP).
package handler

import (
	"context"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	accountdomain "agrovision-auth/internal/account/domain"
	verificationv1 "agrovision-auth/internal/api/verification/v1"
	"agrovision-auth/internal/devotp"
)

const devOTPNote = "DEV MODE ONLY"

// Server implements DevService. Only registered when dev OTP is enabled and not production.
type Server struct {
	store devotp.Store
}

// NewServer returns a DevService server that reads codes from the given store.
func NewServer(store devotp.Store) *Server {
	return &Server{store: store}
}

// GetOTP returns the last plain code issued to phone. Returns NotFound if missing or expired.
func (s *Server) GetOTP(ctx context.Context, req *verificationv1.GetOTPRequest) (*verificationv1.GetOTPResponse, error) {
	phone := accountdomain.NormalizePhone(req.Phone)
	if phone == "" {
		return nil, status.Error(codes.InvalidArgument, "phone is required")
	}
	code, ok := s.store.Get(ctx, phone)
	if !ok {
		return nil, status.Error(codes.NotFound, "OTP not found or expired")
	}
	return &verificationv1.GetOTPResponse{
		OTP:  code,
		Note: devOTPNote,
	}, nil
}
