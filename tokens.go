package authgate

import (
	"time"

	"github.com/MrEthical07/authgate/internal"
)

// TemporaryToken is a freshly minted single-use credential. Plain is handed
// to the account holder exactly once; Hash is what gets persisted.
type TemporaryToken struct {
	Plain  string
	Hash   string
	Expiry time.Time
}

// TemporaryTokenFactory mints opaque single-use tokens for email
// verification and password-reset continuation.
//
// TemporaryTokenFactory instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type TemporaryTokenFactory struct {
	ttl time.Duration
	now func() time.Time
}

// NewTemporaryTokenFactory describes the newtemporarytokenfactory operation and its observable behavior.
//
// NewTemporaryTokenFactory may return an error when input validation, dependency calls, or security checks fail.
// NewTemporaryTokenFactory does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func NewTemporaryTokenFactory(cfg TemporaryTokenConfig) *TemporaryTokenFactory {
	return &TemporaryTokenFactory{
		ttl: cfg.TTL,
		now: time.Now,
	}
}

// Issue mints a 32-byte random token. Plain and Hash correspond to the same
// credential; only Hash is safe to store.
func (f *TemporaryTokenFactory) Issue() (TemporaryToken, error) {
	plain, err := internal.NewTempToken()
	if err != nil {
		return TemporaryToken{}, err
	}
	return TemporaryToken{
		Plain:  plain,
		Hash:   internal.HashToken(plain),
		Expiry: f.now().Add(f.ttl),
	}, nil
}

// OTP is a freshly minted six-digit numeric code. Code is mailed to the
// account holder; Hash is what gets persisted.
type OTP struct {
	Code   string
	Hash   string
	Expiry time.Time
}

// OtpGenerator mints six-digit one-time codes for the forgot-password flow.
//
// OtpGenerator instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type OtpGenerator struct {
	ttl time.Duration
	now func() time.Time
}

// NewOtpGenerator describes the newotpgenerator operation and its observable behavior.
//
// NewOtpGenerator may return an error when input validation, dependency calls, or security checks fail.
// NewOtpGenerator does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func NewOtpGenerator(cfg OTPConfig) *OtpGenerator {
	return &OtpGenerator{
		ttl: cfg.TTL,
		now: time.Now,
	}
}

// Issue mints a code in [100000, 999999] so every code is exactly six digits.
func (g *OtpGenerator) Issue() (OTP, error) {
	code, err := internal.NewOTP()
	if err != nil {
		return OTP{}, err
	}
	return OTP{
		Code:   code,
		Hash:   internal.HashToken(code),
		Expiry: g.now().Add(g.ttl),
	}, nil
}
