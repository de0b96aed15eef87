package v1

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	VerificationServiceName = "otpauth.verification.v1.VerificationService"
	DevServiceName          = "otpauth.verification.v1.DevService"

	VerificationService_Signup_FullMethodName     = "/" + VerificationServiceName + "/Signup"
	VerificationService_Login_FullMethodName      = "/" + VerificationServiceName + "/Login"
	VerificationService_VerifyOTP_FullMethodName  = "/" + VerificationServiceName + "/VerifyOTP"
	VerificationService_ResendOTP_FullMethodName  = "/" + VerificationServiceName + "/ResendOTP"
	VerificationService_GetAccount_FullMethodName = "/" + VerificationServiceName + "/GetAccount"
	DevService_GetOTP_FullMethodName              = "/" + DevServiceName + "/GetOTP"
)

// VerificationServiceServer is the server API for VerificationService.
type VerificationServiceServer interface {
	Signup(context.Context, *SignupRequest) (*SignupResponse, error)
	Login(context.Context, *LoginRequest) (*LoginResponse, error)
	VerifyOTP(context.Context, *VerifyOTPRequest) (*VerifyOTPResponse, error)
	ResendOTP(context.Context, *ResendOTPRequest) (*ResendOTPResponse, error)
	GetAccount(context.Context, *GetAccountRequest) (*GetAccountResponse, error)
}

// UnimplementedVerificationServiceServer returns Unimplemented for every method. Embed it for forward compatibility.
type UnimplementedVerificationServiceServer struct{}

func (UnimplementedVerificationServiceServer) Signup(context.Context, *SignupRequest) (*SignupResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method Signup not implemented")
}
func (UnimplementedVerificationServiceServer) Login(context.Context, *LoginRequest) (*LoginResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method Login not implemented")
}
func (UnimplementedVerificationServiceServer) VerifyOTP(context.Context, *VerifyOTPRequest) (*VerifyOTPResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method VerifyOTP not implemented")
}
func (UnimplementedVerificationServiceServer) ResendOTP(context.Context, *ResendOTPRequest) (*ResendOTPResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method ResendOTP not implemented")
}
func (UnimplementedVerificationServiceServer) GetAccount(context.Context, *GetAccountRequest) (*GetAccountResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method GetAccount not implemented")
}

// DevServiceServer is the dev-only API for reading the last issued code.
type DevServiceServer interface {
	GetOTP(context.Context, *GetOTPRequest) (*GetOTPResponse, error)
}

// unary builds a grpc.MethodHandler that decodes Req and calls fn on the registered server S.
func unary[S any, Req any, Resp any](fullMethod string, fn func(S, context.Context, *Req) (*Resp, error)) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return fn(srv.(S), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return fn(srv.(S), ctx, req.(*Req))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// VerificationService_ServiceDesc is the grpc.ServiceDesc for VerificationService.
var VerificationService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: VerificationServiceName,
	HandlerType: (*VerificationServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Signup", Handler: unary(VerificationService_Signup_FullMethodName, VerificationServiceServer.Signup)},
		{MethodName: "Login", Handler: unary(VerificationService_Login_FullMethodName, VerificationServiceServer.Login)},
		{MethodName: "VerifyOTP", Handler: unary(VerificationService_VerifyOTP_FullMethodName, VerificationServiceServer.VerifyOTP)},
		{MethodName: "ResendOTP", Handler: unary(VerificationService_ResendOTP_FullMethodName, VerificationServiceServer.ResendOTP)},
		{MethodName: "GetAccount", Handler: unary(VerificationService_GetAccount_FullMethodName, VerificationServiceServer.GetAccount)},
	},
	Metadata: "otpauth/verification/v1",
}

// DevService_ServiceDesc is the grpc.ServiceDesc for DevService.
var DevService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: DevServiceName,
	HandlerType: (*DevServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "GetOTP", Handler: unary(DevService_GetOTP_FullMethodName, DevServiceServer.GetOTP)},
	},
	Metadata: "otpauth/verification/v1",
}

func RegisterVerificationServiceServer(s grpc.ServiceRegistrar, srv VerificationServiceServer) {
	s.RegisterService(&VerificationService_ServiceDesc, srv)
}

func RegisterDevServiceServer(s grpc.ServiceRegistrar, srv DevServiceServer) {
	s.RegisterService(&DevService_ServiceDesc, srv)
}
