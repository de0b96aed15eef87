// Package handler exposes the verification service over gRPC.
package handler

import (
	"context"
	"errors"
	"math"
	"time"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	accountdomain "agrovision-auth/internal/account/domain"
	verificationv1 "agrovision-auth/internal/api/verification/v1"
	"agrovision-auth/internal/platform/rbac"
	"agrovision-auth/internal/verification/service"
)

const (
	msgSignup       = "User created successfully. OTP sent to phone."
	msgNeedsVerify  = "Phone number not verified. OTP sent to your phone."
	msgLogin        = "Login successful"
	msgVerified     = "Phone number verified successfully"
	msgResendPrefix = "OTP sent to "
	msgNotFound     = "Something went wrong. Please try again."
)

// TokenIssuer issues access tokens for verified accounts.
type TokenIssuer interface {
	IssueAccess(accountID, phone string) (token string, expiresAt time.Time, err error)
}

// Server implements VerificationService. A nil service makes every RPC return Unimplemented.
type Server struct {
	verificationv1.UnimplementedVerificationServiceServer
	svc    *service.VerificationService
	tokens TokenIssuer
	now    func() time.Time
}

// NewServer returns a VerificationService server. tokens may be nil, in which case successful
// logins and verifications carry no access token.
func NewServer(svc *service.VerificationService, tokens TokenIssuer) *Server {
	return &Server{svc: svc, tokens: tokens, now: time.Now}
}

func (s *Server) Signup(ctx context.Context, req *verificationv1.SignupRequest) (*verificationv1.SignupResponse, error) {
	if s.svc == nil {
		return nil, status.Error(codes.Unimplemented, "method Signup not implemented")
	}
	res, err := s.svc.Signup(ctx, req.Name, req.Email, req.Phone, req.Password, req.PreferredLanguage)
	if err != nil {
		return nil, toStatus(err)
	}
	return &verificationv1.SignupResponse{
		Success:          true,
		Message:          msgSignup,
		UserID:           res.Account.ID,
		ExpiresInSeconds: s.secondsUntil(res.ExpiresAt),
	}, nil
}

// Login returns success with an access token for a verified account. An unverified account gets
// success=false with needsVerification set; that is a normal outcome, not an RPC error.
func (s *Server) Login(ctx context.Context, req *verificationv1.LoginRequest) (*verificationv1.LoginResponse, error) {
	if s.svc == nil {
		return nil, status.Error(codes.Unimplemented, "method Login not implemented")
	}
	res, err := s.svc.Login(ctx, req.Phone, req.Password)
	if err != nil {
		return nil, toStatus(err)
	}
	if res.NeedsVerification {
		return &verificationv1.LoginResponse{
			Success:           false,
			Message:           msgNeedsVerify,
			NeedsVerification: true,
			ExpiresInSeconds:  s.secondsUntil(res.ExpiresAt),
		}, nil
	}
	token, err := s.issueToken(res.Account)
	if err != nil {
		return nil, err
	}
	return &verificationv1.LoginResponse{
		Success:     true,
		Message:     msgLogin,
		User:        toUser(res.Account),
		AccessToken: token,
	}, nil
}

func (s *Server) VerifyOTP(ctx context.Context, req *verificationv1.VerifyOTPRequest) (*verificationv1.VerifyOTPResponse, error) {
	if s.svc == nil {
		return nil, status.Error(codes.Unimplemented, "method VerifyOTP not implemented")
	}
	a, err := s.svc.VerifyOTP(ctx, req.Phone, req.OTP)
	if err != nil {
		return nil, toStatus(err)
	}
	token, err := s.issueToken(a)
	if err != nil {
		return nil, err
	}
	return &verificationv1.VerifyOTPResponse{
		Success:     true,
		Message:     msgVerified,
		User:        toUser(a),
		AccessToken: token,
	}, nil
}

func (s *Server) ResendOTP(ctx context.Context, req *verificationv1.ResendOTPRequest) (*verificationv1.ResendOTPResponse, error) {
	if s.svc == nil {
		return nil, status.Error(codes.Unimplemented, "method ResendOTP not implemented")
	}
	expiresAt, err := s.svc.ResendOTP(ctx, req.Phone)
	if err != nil {
		return nil, toStatus(err)
	}
	return &verificationv1.ResendOTPResponse{
		Success:          true,
		Message:          msgResendPrefix + accountdomain.NormalizePhone(req.Phone),
		ExpiresInSeconds: s.secondsUntil(expiresAt),
	}, nil
}

// GetAccount returns the account named by the caller's access token.
func (s *Server) GetAccount(ctx context.Context, _ *verificationv1.GetAccountRequest) (*verificationv1.GetAccountResponse, error) {
	if s.svc == nil {
		return nil, status.Error(codes.Unimplemented, "method GetAccount not implemented")
	}
	a, err := rbac.RequireVerifiedAccount(ctx, s.svc)
	if err != nil {
		return nil, err
	}
	return &verificationv1.GetAccountResponse{User: toUser(a)}, nil
}

func (s *Server) issueToken(a *accountdomain.Account) (string, error) {
	if s.tokens == nil {
		return "", nil
	}
	token, _, err := s.tokens.IssueAccess(a.ID, a.Phone)
	if err != nil {
		return "", status.Error(codes.Internal, "failed to issue access token")
	}
	return token, nil
}

// secondsUntil rounds up so a fresh code reports 300, not 299.
func (s *Server) secondsUntil(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	d := t.Sub(s.now())
	if d <= 0 {
		return 0
	}
	return int64(math.Ceil(d.Seconds()))
}

func toUser(a *accountdomain.Account) *verificationv1.User {
	if a == nil {
		return nil
	}
	return &verificationv1.User{
		ID:                a.ID,
		Name:              a.Name,
		Email:             a.Email,
		Phone:             a.Phone,
		PreferredLanguage: string(a.PreferredLanguage),
		IsVerified:        a.IsVerified,
	}
}

// toStatus maps service errors to gRPC status errors. Storage failures never leak their cause,
// and the not-found kinds share one message so it does not reveal which record was missing.
func toStatus(err error) error {
	switch {
	case errors.Is(err, service.ErrStorage):
		return status.Error(codes.Unavailable, "service temporarily unavailable, try again later")
	case errors.Is(err, service.ErrDuplicateIdentity):
		return status.Error(codes.AlreadyExists, "User with this email or phone already exists")
	case errors.Is(err, service.ErrInvalidCredentials):
		return status.Error(codes.Unauthenticated, "Invalid phone number or password")
	case errors.Is(err, service.ErrAccountNotFound), errors.Is(err, service.ErrChallengeNotFound):
		return status.Error(codes.NotFound, msgNotFound)
	case errors.Is(err, service.ErrChallengeExpired):
		return status.Error(codes.FailedPrecondition, "OTP has expired. Please request a new one.")
	case errors.Is(err, service.ErrCodeMismatch):
		return status.Error(codes.InvalidArgument, "Invalid OTP")
	case errors.Is(err, service.ErrInvalidArgument):
		return status.Error(codes.InvalidArgument, err.Error())
	default:
		return status.Error(codes.Internal, "internal error")
	}
}
