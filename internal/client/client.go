// Package client drives the verification API from a terminal: it keeps the signed-in session,
// remembers which phone is waiting for a code, and runs the resend countdown while it waits.
package client

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
	"google.golang.org/grpc/metadata"

	verificationv1 "agrovision-auth/internal/api/verification/v1"
	"agrovision-auth/internal/otp"
	"agrovision-auth/internal/resendtimer"
	"agrovision-auth/internal/session"
)

var (
	ErrMissingField     = errors.New("please fill in all required fields")
	ErrIncompleteCode   = errors.New("please enter the complete 6-digit code")
	ErrNoPendingPhone   = errors.New("no phone is waiting for verification")
	ErrResendNotReady   = errors.New("please wait before requesting a new code")
	ErrNotSignedIn      = errors.New("not signed in")
	ErrUnexpectedResult = errors.New("unexpected response from server")
)

// SignupForm is the input collected for a new account.
type SignupForm struct {
	Name              string
	Email             string
	Phone             string
	Password          string
	PreferredLanguage string
}

func (f SignupForm) validate() error {
	for _, v := range []string{f.Name, f.Email, f.Phone, f.Password} {
		if strings.TrimSpace(v) == "" {
			return ErrMissingField
		}
	}
	return nil
}

// LoginOutcome is the result of Login. When NeedsVerification is set, a code was sent and
// the client now waits for it on Pending().
type LoginOutcome struct {
	Message           string
	NeedsVerification bool
	User              *verificationv1.User
}

// Client wraps the API with client-side state. Methods are safe for concurrent use.
type Client struct {
	api     verificationv1.VerificationServiceClient
	session *session.Session
	timer   *resendtimer.Timer
	entry   CodeEntry
	log     logrus.FieldLogger

	// base outlives individual calls so the countdown keeps running between them.
	base   context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	pending string
}

// Option configures a Client.
type Option func(*Client)

// WithTimer replaces the default five-minute resend countdown.
func WithTimer(t *resendtimer.Timer) Option {
	return func(c *Client) { c.timer = t }
}

func WithLogger(log logrus.FieldLogger) Option {
	return func(c *Client) { c.log = log }
}

// New returns a Client over api that stores the signed-in account in sess.
func New(api verificationv1.VerificationServiceClient, sess *session.Session, opts ...Option) *Client {
	c := &Client{api: api, session: sess}
	c.base, c.cancel = context.WithCancel(context.Background())
	for _, o := range opts {
		o(c)
	}
	if c.timer == nil {
		c.timer = resendtimer.New()
	}
	if c.log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		c.log = l
	}
	return c
}

func (c *Client) Timer() *resendtimer.Timer { return c.timer }
func (c *Client) Entry() *CodeEntry         { return &c.entry }

// Pending returns the phone waiting for a code, if any.
func (c *Client) Pending() (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pending, c.pending != ""
}

// Await marks phone as waiting for a code without starting a countdown, for a code that was
// requested by an earlier run.
func (c *Client) Await(phone string) {
	c.mu.Lock()
	c.pending = strings.TrimSpace(phone)
	c.mu.Unlock()
}

func (c *Client) startWaiting(phone string) {
	c.Await(phone)
	c.entry.Clear()
	c.timer.Start(c.base)
}

func (c *Client) stopWaiting() {
	c.mu.Lock()
	c.pending = ""
	c.mu.Unlock()
	c.entry.Clear()
	c.timer.Stop()
}

// Signup creates the account and starts waiting for its code.
func (c *Client) Signup(ctx context.Context, f SignupForm) (*verificationv1.SignupResponse, error) {
	if err := f.validate(); err != nil {
		return nil, err
	}
	resp, err := c.api.Signup(ctx, &verificationv1.SignupRequest{
		Name:              strings.TrimSpace(f.Name),
		Email:             strings.TrimSpace(f.Email),
		Phone:             strings.TrimSpace(f.Phone),
		Password:          f.Password,
		PreferredLanguage: f.PreferredLanguage,
	})
	if err != nil {
		return nil, err
	}
	c.log.WithField("user_id", resp.UserID).Debug("signup accepted")
	c.startWaiting(f.Phone)
	return resp, nil
}

// Login signs in a verified account, or starts waiting for a code when the server sent one.
func (c *Client) Login(ctx context.Context, phone, password string) (*LoginOutcome, error) {
	if strings.TrimSpace(phone) == "" || password == "" {
		return nil, ErrMissingField
	}
	resp, err := c.api.Login(ctx, &verificationv1.LoginRequest{Phone: strings.TrimSpace(phone), Password: password})
	if err != nil {
		return nil, err
	}
	out := &LoginOutcome{Message: resp.Message, NeedsVerification: resp.NeedsVerification, User: resp.User}
	if resp.NeedsVerification {
		c.startWaiting(phone)
		return out, nil
	}
	if !resp.Success || resp.User == nil {
		return nil, ErrUnexpectedResult
	}
	if err := c.session.Set(resp.User, resp.AccessToken); err != nil {
		return nil, err
	}
	c.stopWaiting()
	return out, nil
}

// Verify submits the code typed into Entry for the pending phone.
func (c *Client) Verify(ctx context.Context) (*verificationv1.User, error) {
	phone, ok := c.Pending()
	if !ok {
		return nil, ErrNoPendingPhone
	}
	return c.VerifyCode(ctx, phone, c.entry.Code())
}

// VerifyCode submits code for phone and signs the account in on success.
func (c *Client) VerifyCode(ctx context.Context, phone, code string) (*verificationv1.User, error) {
	if !otp.WellFormed(code) {
		return nil, ErrIncompleteCode
	}
	resp, err := c.api.VerifyOTP(ctx, &verificationv1.VerifyOTPRequest{Phone: strings.TrimSpace(phone), OTP: code})
	if err != nil {
		return nil, err
	}
	if !resp.Success || resp.User == nil {
		return nil, ErrUnexpectedResult
	}
	if err := c.session.Set(resp.User, resp.AccessToken); err != nil {
		return nil, err
	}
	c.stopWaiting()
	return resp.User, nil
}

// Resend asks for a new code once the countdown allows it, restarts the countdown, and clears
// any partially typed code.
func (c *Client) Resend(ctx context.Context) (*verificationv1.ResendOTPResponse, error) {
	phone, ok := c.Pending()
	if !ok {
		return nil, ErrNoPendingPhone
	}
	if !c.timer.CanResend() {
		return nil, ErrResendNotReady
	}
	resp, err := c.api.ResendOTP(ctx, &verificationv1.ResendOTPRequest{Phone: phone})
	if err != nil {
		return nil, err
	}
	c.entry.Clear()
	c.timer.Start(c.base)
	return resp, nil
}

// WhoAmI fetches the signed-in account from the server using the stored access token.
func (c *Client) WhoAmI(ctx context.Context) (*verificationv1.User, error) {
	st, ok := c.session.Current()
	if !ok || st.AccessToken == "" {
		return nil, ErrNotSignedIn
	}
	ctx = metadata.AppendToOutgoingContext(ctx, "authorization", "Bearer "+st.AccessToken)
	resp, err := c.api.GetAccount(ctx, &verificationv1.GetAccountRequest{})
	if err != nil {
		return nil, err
	}
	if resp.User == nil {
		return nil, ErrUnexpectedResult
	}
	return resp.User, nil
}

// Logout clears the session and stops any countdown.
func (c *Client) Logout() error {
	c.stopWaiting()
	return c.session.Clear()
}

// Close stops the countdown goroutine.
func (c *Client) Close() {
	c.cancel()
	c.timer.Stop()
}
