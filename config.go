package authgate

import (
	"errors"
	"net/http"
	"time"
)

// Config defines a public type used by authgate APIs.
//
// Config instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Config struct {
	JWT            JWTConfig
	TemporaryToken TemporaryTokenConfig
	OTP            OTPConfig
	AbuseGuard     AbuseGuardConfig
	Password       PasswordConfig
	Cookie         CookieConfig
	Mail           MailConfig
	Account        AccountConfig
	Audit          AuditConfig
	Security       SecurityConfig
}

/*
====================================
JWT CONFIG
====================================
*/

// JWTConfig defines a public type used by authgate APIs.
//
// JWTConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type JWTConfig struct {
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	AccessSecret  []byte
	RefreshSecret []byte
	Issuer        string
	Leeway        time.Duration
}

/*
====================================
SINGLE-USE CREDENTIAL CONFIG
====================================
*/

// TemporaryTokenConfig defines a public type used by authgate APIs.
//
// TemporaryTokenConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type TemporaryTokenConfig struct {
	TTL time.Duration
}

// OTPConfig defines a public type used by authgate APIs.
//
// OTPConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type OTPConfig struct {
	TTL time.Duration
}

/*
====================================
ABUSE GUARD CONFIG
====================================
*/

// AbuseGuardConfig defines a public type used by authgate APIs.
//
// AbuseGuardConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type AbuseGuardConfig struct {
	Window        time.Duration
	MaxRequests   int
	BlockDuration time.Duration
	RedisPrefix   string
}

/*
====================================
PASSWORD CONFIG
====================================
*/

// PasswordConfig defines a public type used by authgate APIs.
//
// PasswordConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type PasswordConfig struct {
	Memory      uint32 // in KB
	Time        uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

/*
====================================
TRANSPORT CONFIG
====================================
*/

// CookieConfig defines a public type used by authgate APIs.
//
// CookieConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type CookieConfig struct {
	Path     string
	Domain   string
	SameSite http.SameSite
	// Secure restricts issued cookies to HTTPS transports. The server
	// entrypoint enables it for production deployments.
	Secure bool
}

// MailConfig defines a public type used by authgate APIs.
//
// MailConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type MailConfig struct {
	// VerificationURLBase prefixes the emailed verification link; the
	// plaintext token is appended as the final path segment.
	VerificationURLBase string
	// SSORedirectURLBase is the client URL federated logins redirect to,
	// with the minted token pair appended as path segments.
	SSORedirectURLBase string
	// DispatchTimeout bounds the background delivery attempt.
	DispatchTimeout time.Duration
}

// AccountConfig defines a public type used by authgate APIs.
//
// AccountConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type AccountConfig struct {
	DefaultRole Role
}

// AuditConfig defines a public type used by authgate APIs.
//
// AuditConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// SecurityConfig defines a public type used by authgate APIs.
//
// SecurityConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type SecurityConfig struct {
	ProductionMode bool
}

// DefaultConfig returns the baseline configuration: 15-minute access tokens,
// 10-day refresh tokens, 20-minute single-use credential windows, and the
// 200-requests-per-5-minutes guard with a 24-hour block.
func DefaultConfig() Config {
	return Config{
		JWT: JWTConfig{
			AccessTTL:  15 * time.Minute,
			RefreshTTL: 10 * 24 * time.Hour,
			Issuer:     "authgate",
			Leeway:     30 * time.Second,
		},
		TemporaryToken: TemporaryTokenConfig{
			TTL: 20 * time.Minute,
		},
		OTP: OTPConfig{
			TTL: 20 * time.Minute,
		},
		AbuseGuard: AbuseGuardConfig{
			Window:        5 * time.Minute,
			MaxRequests:   200,
			BlockDuration: 24 * time.Hour,
			RedisPrefix:   "ag",
		},
		Password: PasswordConfig{
			Memory:      64 * 1024,
			Time:        3,
			Parallelism: 2,
			SaltLength:  16,
			KeyLength:   32,
		},
		Cookie: CookieConfig{
			Path:     "/",
			SameSite: http.SameSiteStrictMode,
		},
		Mail: MailConfig{
			DispatchTimeout: 15 * time.Second,
		},
		Account: AccountConfig{
			DefaultRole: RoleUser,
		},
		Audit: AuditConfig{
			Enabled:    true,
			BufferSize: 256,
			DropIfFull: true,
		},
	}
}

// Validate describes the validate operation and its observable behavior.
//
// Validate may return an error when input validation, dependency calls, or security checks fail.
// Validate does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c Config) Validate() error {
	if c.JWT.AccessTTL <= 0 || c.JWT.RefreshTTL <= 0 {
		return errors.New("jwt TTLs must be positive")
	}
	if c.JWT.RefreshTTL <= c.JWT.AccessTTL {
		return errors.New("refresh TTL must exceed access TTL")
	}
	if len(c.JWT.AccessSecret) < 32 || len(c.JWT.RefreshSecret) < 32 {
		return errors.New("jwt secrets must be at least 32 bytes")
	}
	if string(c.JWT.AccessSecret) == string(c.JWT.RefreshSecret) {
		return errors.New("access and refresh secrets must differ")
	}
	if c.TemporaryToken.TTL <= 0 {
		return errors.New("temporary token TTL must be positive")
	}
	if c.OTP.TTL <= 0 {
		return errors.New("otp TTL must be positive")
	}
	if c.AbuseGuard.Window <= 0 || c.AbuseGuard.MaxRequests <= 0 {
		return errors.New("abuse guard window and request limit must be positive")
	}
	if c.AbuseGuard.BlockDuration <= 0 {
		return errors.New("abuse guard block duration must be positive")
	}
	if !c.Account.DefaultRole.Valid() {
		return errors.New("account default role is not a known role")
	}
	return nil
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.JWT.AccessSecret = append([]byte(nil), cfg.JWT.AccessSecret...)
	out.JWT.RefreshSecret = append([]byte(nil), cfg.JWT.RefreshSecret...)
	return out
}
