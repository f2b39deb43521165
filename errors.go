package authgate

import "errors"

var (
	// ErrUnauthorized is an exported constant or variable used by the authentication engine.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrInvalidCredentials is an exported constant or variable used by the authentication engine.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrAccountNotFound is an exported constant or variable used by the authentication engine.
	ErrAccountNotFound = errors.New("account not found")
	// ErrAccountExists is an exported constant or variable used by the authentication engine.
	ErrAccountExists = errors.New("account already exists")
	// ErrLoginTypeMismatch is an exported constant or variable used by the authentication engine.
	ErrLoginTypeMismatch = errors.New("account registered with a different login provider")
	// ErrEmailNotVerified is an exported constant or variable used by the authentication engine.
	ErrEmailNotVerified = errors.New("email not verified")
	// ErrEmailAlreadyVerified is an exported constant or variable used by the authentication engine.
	ErrEmailAlreadyVerified = errors.New("email already verified")
	// ErrTokenInvalidOrExpired is an exported constant or variable used by the authentication engine.
	ErrTokenInvalidOrExpired = errors.New("token is invalid or expired")
	// ErrOTPExpired is an exported constant or variable used by the authentication engine.
	ErrOTPExpired = errors.New("otp expired")
	// ErrOTPInvalid is an exported constant or variable used by the authentication engine.
	ErrOTPInvalid = errors.New("otp invalid")
	// ErrRefreshInvalid is an exported constant or variable used by the authentication engine.
	ErrRefreshInvalid = errors.New("invalid refresh token")
	// ErrRefreshReuse is an exported constant or variable used by the authentication engine.
	ErrRefreshReuse = errors.New("refresh token reuse detected")
	// ErrTooManyRequests is an exported constant or variable used by the authentication engine.
	ErrTooManyRequests = errors.New("too many requests")
	// ErrAvatarMissing is an exported constant or variable used by the authentication engine.
	ErrAvatarMissing = errors.New("avatar file missing")
	// ErrStoreUnavailable is an exported constant or variable used by the authentication engine.
	ErrStoreUnavailable = errors.New("account store unavailable")
	// ErrEngineNotReady is an exported constant or variable used by the authentication engine.
	ErrEngineNotReady = errors.New("engine not initialized")
)
