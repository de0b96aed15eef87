package v1

// User is the account as returned to clients.
type User struct {
	ID                string `json:"id"`
	Name              string `json:"name"`
	Email             string `json:"email"`
	Phone             string `json:"phone"`
	PreferredLanguage string `json:"preferredLanguage"`
	IsVerified        bool   `json:"isVerified"`
}

type SignupRequest struct {
	Name              string `json:"name"`
	Email             string `json:"email"`
	Phone             string `json:"phone"`
	Password          string `json:"password"`
	PreferredLanguage string `json:"preferredLanguage,omitempty"`
}

type SignupResponse struct {
	Success          bool   `json:"success"`
	Message          string `json:"message"`
	UserID           string `json:"userId,omitempty"`
	ExpiresInSeconds int64  `json:"expiresInSeconds,omitempty"`
}

type LoginRequest struct {
	Phone    string `json:"phone"`
	Password string `json:"password"`
}

// LoginResponse carries either a verified User with an access token, or NeedsVerification.
type LoginResponse struct {
	Success           bool   `json:"success"`
	Message           string `json:"message"`
	NeedsVerification bool   `json:"needsVerification,omitempty"`
	User              *User  `json:"user,omitempty"`
	AccessToken       string `json:"accessToken,omitempty"`
	ExpiresInSeconds  int64  `json:"expiresInSeconds,omitempty"`
}

type VerifyOTPRequest struct {
	Phone string `json:"phone"`
	OTP   string `json:"otp"`
}

type VerifyOTPResponse struct {
	Success     bool   `json:"success"`
	Message     string `json:"message"`
	User        *User  `json:"user,omitempty"`
	AccessToken string `json:"accessToken,omitempty"`
}

type ResendOTPRequest struct {
	Phone string `json:"phone"`
}

type ResendOTPResponse struct {
	Success          bool   `json:"success"`
	Message          string `json:"message"`
	ExpiresInSeconds int64  `json:"expiresInSeconds,omitempty"`
}

// GetAccountRequest is empty; the account comes from the bearer token.
type GetAccountRequest struct{}

type GetAccountResponse struct {
	User *User `json:"user"`
}

type GetOTPRequest struct {
	Phone string `json:"phone"`
}

type GetOTPResponse struct {
	OTP  string `json:"otp"`
	Note string `json:"note"`
}
