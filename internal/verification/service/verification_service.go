package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"golang.org/x/crypto/bcrypt"

	accountdomain "agrovision-auth/internal/account/domain"
	"agrovision-auth/internal/credential"
	"agrovision-auth/internal/events"
	"agrovision-auth/internal/notify"
	"agrovision-auth/internal/otp"
	"agrovision-auth/internal/policy"
)

// Sentinel errors for the verification service; the handler maps them to gRPC codes.
var (
	ErrDuplicateIdentity  = accountdomain.ErrDuplicateIdentity
	ErrAccountNotFound    = accountdomain.ErrNotFound
	ErrChallengeNotFound  = otp.ErrChallengeNotFound
	ErrChallengeExpired   = otp.ErrChallengeExpired
	ErrCodeMismatch       = otp.ErrCodeMismatch
	ErrInvalidCredentials = errors.New("invalid phone number or password")
	ErrInvalidArgument    = errors.New("invalid argument")
	// ErrStorage wraps every store failure. The cause is kept as text only, so a wrapped
	// storage error never matches one of the domain errors above.
	ErrStorage = errors.New("storage unavailable")
)

// AccountRepo is the minimal account repository needed by the service.
type AccountRepo interface {
	Create(ctx context.Context, a *accountdomain.Account) error
	GetByID(ctx context.Context, id string) (*accountdomain.Account, error)
	GetByPhone(ctx context.Context, phone string) (*accountdomain.Account, error)
	MarkVerified(ctx context.Context, phone string, at time.Time) error
}

// AccountCredentialCreator is implemented by account repositories that can store an account
// and its credential atomically.
type AccountCredentialCreator interface {
	CreateWithCredential(ctx context.Context, a *accountdomain.Account, c *credential.Credential) error
}

// CredentialRepo is the minimal credential repository needed by the service.
type CredentialRepo interface {
	Put(ctx context.Context, c *credential.Credential) error
	Get(ctx context.Context, accountID string) (*credential.Credential, error)
}

// PasswordHasher hashes and compares passwords.
type PasswordHasher interface {
	Hash(password []byte) (string, error)
	Compare(hash string, password []byte) error
}

// OTPStore issues and verifies codes.
type OTPStore interface {
	Issue(ctx context.Context, phone string) (code string, expiresAt time.Time, err error)
	Verify(ctx context.Context, phone, code string) error
	Peek(ctx context.Context, phone string) (otp.Status, error)
	TTL() time.Duration
}

// ReissueDecider decides whether an unverified login gets a new code.
type ReissueDecider interface {
	ShouldReissue(ctx context.Context, in policy.ReissueInput) (bool, error)
}

// SignupResult is returned by Signup.
type SignupResult struct {
	Account   *accountdomain.Account
	ExpiresAt time.Time
}

// LoginResult is returned by Login. For an unverified account Account is nil and NeedsVerification is set;
// Reissued tells whether a new code went out or the pending one was kept.
type LoginResult struct {
	Account           *accountdomain.Account
	NeedsVerification bool
	Reissued          bool
	ExpiresAt         time.Time
}

// VerificationService implements signup, login, OTP verification, and resend.
type VerificationService struct {
	accounts    AccountRepo
	credentials CredentialRepo
	hasher      PasswordHasher
	otps        OTPStore
	notifier    notify.Notifier
	reissue     ReissueDecider
	publisher   events.Publisher
	log         logrus.FieldLogger
	now         func() time.Time

	dummyOnce sync.Once
	dummyHash string

	otpIssued     metric.Int64Counter
	otpVerify     metric.Int64Counter
	accountSignup metric.Int64Counter
}

// Option configures a VerificationService.
type Option func(*VerificationService)

// WithReissuePolicy sets the login re-issue policy. Without it every unverified login re-issues.
func WithReissuePolicy(d ReissueDecider) Option {
	return func(s *VerificationService) { s.reissue = d }
}

func WithPublisher(p events.Publisher) Option {
	return func(s *VerificationService) { s.publisher = p }
}

func WithLogger(log logrus.FieldLogger) Option {
	return func(s *VerificationService) { s.log = log }
}

func WithClock(now func() time.Time) Option {
	return func(s *VerificationService) { s.now = now }
}

// WithMeter records counters on m instead of the global meter provider.
func WithMeter(m metric.Meter) Option {
	return func(s *VerificationService) { s.initMetrics(m) }
}

// NewVerificationService returns a VerificationService with the given dependencies.
func NewVerificationService(
	accounts AccountRepo,
	credentials CredentialRepo,
	hasher PasswordHasher,
	otps OTPStore,
	notifier notify.Notifier,
	opts ...Option,
) *VerificationService {
	s := &VerificationService{
		accounts:    accounts,
		credentials: credentials,
		hasher:      hasher,
		otps:        otps,
		notifier:    notifier,
		publisher:   events.Noop{},
		log:         logrus.StandardLogger(),
		now:         time.Now,
	}
	s.initMetrics(otel.GetMeterProvider().Meter("agrovision-auth/verification"))
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *VerificationService) initMetrics(m metric.Meter) {
	s.otpIssued, _ = m.Int64Counter("otp.issued", metric.WithDescription("One-time codes issued"))
	s.otpVerify, _ = m.Int64Counter("otp.verify", metric.WithDescription("Code verification attempts by outcome"))
	s.accountSignup, _ = m.Int64Counter("account.signup", metric.WithDescription("Signup attempts by outcome"))
}

// Signup creates an unverified account with its password hash and sends the first code.
// A duplicate email or phone returns ErrDuplicateIdentity and changes nothing. A storage failure
// leaves no account behind, so the same signup can be retried.
func (s *VerificationService) Signup(ctx context.Context, name, email, phone, password, language string) (*SignupResult, error) {
	lang, err := accountdomain.ParseLanguage(language)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidArgument, err)
	}
	a := accountdomain.NewAccount(name, email, phone, lang)
	if err := validateSignup(a, password); err != nil {
		return nil, err
	}
	hashed, err := s.hasher.Hash([]byte(password))
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return nil, fmt.Errorf("%w: password is too long", ErrInvalidArgument)
		}
		return nil, fmt.Errorf("signup: hash password: %w", err)
	}
	cred := &credential.Credential{
		AccountID:    a.ID,
		PasswordHash: hashed,
		CreatedAt:    a.CreatedAt,
		UpdatedAt:    a.CreatedAt,
	}
	if err := s.createAccount(ctx, a, cred); err != nil {
		if errors.Is(err, accountdomain.ErrDuplicateIdentity) {
			s.accountSignup.Add(ctx, 1, outcome("duplicate"))
			return nil, ErrDuplicateIdentity
		}
		return nil, storageErr("signup: create account", err)
	}
	s.accountSignup.Add(ctx, 1, outcome("created"))
	events.PublishAsync(s.publisher, s.log, events.New(events.TypeAccountCreated).WithAccount(a.ID, a.Phone))

	expiresAt, err := s.issue(ctx, a, "signup")
	if err != nil {
		return nil, err
	}
	return &SignupResult{Account: a, ExpiresAt: expiresAt}, nil
}

// createAccount stores a and its credential. Without a transactional repository the credential goes
// first: it is keyed by the pre-generated account id and stays unreachable until the account exists.
func (s *VerificationService) createAccount(ctx context.Context, a *accountdomain.Account, c *credential.Credential) error {
	if tx, ok := s.accounts.(AccountCredentialCreator); ok {
		return tx.CreateWithCredential(ctx, a, c)
	}
	if err := s.credentials.Put(ctx, c); err != nil {
		return fmt.Errorf("store credential: %w", err)
	}
	return s.accounts.Create(ctx, a)
}

// Login checks the password for phone. An unknown phone and a wrong password both return ErrInvalidCredentials
// after the same bcrypt work.
// An unverified account gets NeedsVerification and, when the re-issue policy allows, a fresh code.
func (s *VerificationService) Login(ctx context.Context, phone, password string) (*LoginResult, error) {
	phone = accountdomain.NormalizePhone(phone)
	if phone == "" || password == "" {
		return nil, ErrInvalidCredentials
	}
	a, err := s.accounts.GetByPhone(ctx, phone)
	if err != nil {
		return nil, storageErr("login: get account", err)
	}
	if a == nil {
		s.compareDummy(password)
		s.loginRejected(phone, "unknown_phone")
		return nil, ErrInvalidCredentials
	}
	cred, err := s.credentials.Get(ctx, a.ID)
	if err != nil {
		return nil, storageErr("login: get credential", err)
	}
	if cred == nil {
		s.compareDummy(password)
		s.loginRejected(phone, "no_credential")
		return nil, ErrInvalidCredentials
	}
	if s.hasher.Compare(cred.PasswordHash, []byte(password)) != nil {
		s.loginRejected(phone, "bad_password")
		return nil, ErrInvalidCredentials
	}
	if a.IsVerified {
		events.PublishAsync(s.publisher, s.log, events.New(events.TypeLoginSucceeded).WithAccount(a.ID, a.Phone))
		return &LoginResult{Account: a}, nil
	}

	st, err := s.otps.Peek(ctx, a.Phone)
	if err != nil {
		return nil, storageErr("login: peek challenge", err)
	}
	if !s.shouldReissue(ctx, st) {
		return &LoginResult{NeedsVerification: true, ExpiresAt: s.now().UTC().Add(st.Remaining)}, nil
	}
	expiresAt, err := s.issue(ctx, a, "login")
	if err != nil {
		return nil, err
	}
	return &LoginResult{NeedsVerification: true, Reissued: true, ExpiresAt: expiresAt}, nil
}

// VerifyOTP consumes the challenge for phone and marks the account verified.
// Challenge errors are returned unchanged and leave the account untouched.
func (s *VerificationService) VerifyOTP(ctx context.Context, phone, code string) (*accountdomain.Account, error) {
	phone = accountdomain.NormalizePhone(phone)
	code = strings.TrimSpace(code)
	if phone == "" {
		return nil, fmt.Errorf("%w: phone is required", ErrInvalidArgument)
	}
	if err := s.otps.Verify(ctx, phone, code); err != nil {
		reason := verifyReason(err)
		s.otpVerify.Add(ctx, 1, outcome(reason))
		e := events.New(events.TypeOTPVerifyFailed).WithAccount("", phone)
		e.Reason = reason
		events.PublishAsync(s.publisher, s.log, e)
		if reason == "storage" {
			return nil, storageErr("verify: check challenge", err)
		}
		return nil, err
	}
	s.otpVerify.Add(ctx, 1, outcome("success"))
	if err := s.accounts.MarkVerified(ctx, phone, s.now()); err != nil {
		if errors.Is(err, accountdomain.ErrNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, storageErr("verify: mark verified", err)
	}
	a, err := s.accounts.GetByPhone(ctx, phone)
	if err != nil {
		return nil, storageErr("verify: get account", err)
	}
	if a == nil {
		return nil, ErrAccountNotFound
	}
	events.PublishAsync(s.publisher, s.log, events.New(events.TypeAccountVerified).WithAccount(a.ID, a.Phone))
	return a, nil
}

// ResendOTP issues a fresh code for phone, replacing any pending one. Cooldown is the caller's concern.
// An unknown phone gets the same answer as a known one, but no code is issued or sent.
func (s *VerificationService) ResendOTP(ctx context.Context, phone string) (time.Time, error) {
	phone = accountdomain.NormalizePhone(phone)
	if phone == "" {
		return time.Time{}, fmt.Errorf("%w: phone is required", ErrInvalidArgument)
	}
	a, err := s.accounts.GetByPhone(ctx, phone)
	if err != nil {
		return time.Time{}, storageErr("resend: get account", err)
	}
	if a == nil {
		s.log.WithField("phone", phone).Debug("verification: resend for unknown phone ignored")
		return s.now().UTC().Add(s.otps.TTL()), nil
	}
	return s.issue(ctx, a, "resend")
}

// GetAccount returns the account for id.
func (s *VerificationService) GetAccount(ctx context.Context, id string) (*accountdomain.Account, error) {
	a, err := s.accounts.GetByID(ctx, id)
	if err != nil {
		return nil, storageErr("get account", err)
	}
	if a == nil {
		return nil, ErrAccountNotFound
	}
	return a, nil
}

// issue creates a challenge and hands the code to the notifier. A delivery failure is logged, not returned:
// the challenge exists and the caller can resend.
func (s *VerificationService) issue(ctx context.Context, a *accountdomain.Account, trigger string) (time.Time, error) {
	code, expiresAt, err := s.otps.Issue(ctx, a.Phone)
	if err != nil {
		return time.Time{}, storageErr(trigger+": issue challenge", err)
	}
	s.otpIssued.Add(ctx, 1, metric.WithAttributes(attribute.String("trigger", trigger)))
	if err := s.notifier.Send(ctx, a.Phone, code); err != nil {
		s.log.WithError(err).WithFields(logrus.Fields{"account_id": a.ID, "trigger": trigger}).Warn("verification: OTP delivery failed")
	}
	events.PublishAsync(s.publisher, s.log, events.New(events.TypeOTPIssued).WithAccount(a.ID, a.Phone).WithAttr("trigger", trigger))
	return expiresAt, nil
}

// shouldReissue asks the policy; without one, or when evaluation fails, the code is re-issued.
func (s *VerificationService) shouldReissue(ctx context.Context, st otp.Status) bool {
	if s.reissue == nil {
		return true
	}
	ok, err := s.reissue.ShouldReissue(ctx, policy.ReissueInput{
		Trigger:          "login",
		HasChallenge:     st.Exists,
		Expired:          st.Expired,
		RemainingSeconds: int64(st.Remaining / time.Second),
	})
	if err != nil {
		s.log.WithError(err).Warn("verification: re-issue policy failed, issuing a new code")
		return true
	}
	return ok
}

// compareDummy spends one bcrypt comparison at the configured cost, so a rejected login costs
// the same whether or not the phone has a password on record.
func (s *VerificationService) compareDummy(password string) {
	s.dummyOnce.Do(func() {
		s.dummyHash, _ = s.hasher.Hash([]byte("agrovision-unknown-account"))
	})
	_ = s.hasher.Compare(s.dummyHash, []byte(password))
}

func (s *VerificationService) loginRejected(phone, reason string) {
	e := events.New(events.TypeLoginRejected).WithAccount("", phone)
	e.Reason = reason
	events.PublishAsync(s.publisher, s.log, e)
}

func storageErr(op string, err error) error {
	return fmt.Errorf("%s: %w: %v", op, ErrStorage, err)
}

func outcome(v string) metric.AddOption {
	return metric.WithAttributes(attribute.String("outcome", v))
}

func verifyReason(err error) string {
	switch {
	case errors.Is(err, otp.ErrChallengeNotFound):
		return "not_found"
	case errors.Is(err, otp.ErrChallengeExpired):
		return "expired"
	case errors.Is(err, otp.ErrCodeMismatch):
		return "mismatch"
	default:
		return "storage"
	}
}

// maxPasswordBytes is the most bcrypt will hash.
const maxPasswordBytes = 72

var (
	emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	phonePattern = regexp.MustCompile(`^\+?[0-9]{7,15}$`)
)

func validateSignup(a *accountdomain.Account, password string) error {
	switch {
	case a.Name == "":
		return fmt.Errorf("%w: name is required", ErrInvalidArgument)
	case a.Email == "":
		return fmt.Errorf("%w: email is required", ErrInvalidArgument)
	case !emailPattern.MatchString(a.Email):
		return fmt.Errorf("%w: invalid email format", ErrInvalidArgument)
	case a.Phone == "":
		return fmt.Errorf("%w: phone is required", ErrInvalidArgument)
	case !phonePattern.MatchString(a.Phone):
		return fmt.Errorf("%w: invalid phone number", ErrInvalidArgument)
	case password == "":
		return fmt.Errorf("%w: password is required", ErrInvalidArgument)
	case len(password) > maxPasswordBytes:
		return fmt.Errorf("%w: password must be at most %d bytes", ErrInvalidArgument, maxPasswordBytes)
	}
	return nil
}
