package authgate

import (
	"context"
	"errors"
	"time"
)

// Audit event types emitted by the engine. Success and failure share the
// same type; the Success flag on the event distinguishes them.
const (
	// AuditAccountCreated is an exported constant or variable used by the authentication engine.
	AuditAccountCreated = "account_created"
	// AuditLogin is an exported constant or variable used by the authentication engine.
	AuditLogin = "login"
	// AuditLogout is an exported constant or variable used by the authentication engine.
	AuditLogout = "logout"
	// AuditFederatedLogin is an exported constant or variable used by the authentication engine.
	AuditFederatedLogin = "federated_login"
	// AuditRefresh is an exported constant or variable used by the authentication engine.
	AuditRefresh = "refresh"
	// AuditRefreshReuse is an exported constant or variable used by the authentication engine.
	AuditRefreshReuse = "refresh_reuse_detected"
	// AuditEmailVerified is an exported constant or variable used by the authentication engine.
	AuditEmailVerified = "email_verified"
	// AuditVerificationResent is an exported constant or variable used by the authentication engine.
	AuditVerificationResent = "verification_resent"
	// AuditOTPIssued is an exported constant or variable used by the authentication engine.
	AuditOTPIssued = "otp_issued"
	// AuditOTPVerified is an exported constant or variable used by the authentication engine.
	AuditOTPVerified = "otp_verified"
	// AuditPasswordReset is an exported constant or variable used by the authentication engine.
	AuditPasswordReset = "password_reset"
	// AuditAvatarUpdated is an exported constant or variable used by the authentication engine.
	AuditAvatarUpdated = "avatar_updated"
	// AuditRateLimitTriggered is an exported constant or variable used by the authentication engine.
	AuditRateLimitTriggered = "rate_limit_triggered"
)

// auditErrorCode collapses engine errors into stable audit strings so sinks
// never see raw wrapped error text.
func auditErrorCode(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInvalidCredentials):
		return "invalid_credentials"
	case errors.Is(err, ErrAccountExists):
		return "account_exists"
	case errors.Is(err, ErrAccountNotFound):
		return "account_not_found"
	case errors.Is(err, ErrLoginTypeMismatch):
		return "login_type_mismatch"
	case errors.Is(err, ErrEmailNotVerified):
		return "email_not_verified"
	case errors.Is(err, ErrEmailAlreadyVerified):
		return "email_already_verified"
	case errors.Is(err, ErrTokenInvalidOrExpired):
		return "token_invalid_or_expired"
	case errors.Is(err, ErrOTPExpired):
		return "otp_expired"
	case errors.Is(err, ErrOTPInvalid):
		return "otp_invalid"
	case errors.Is(err, ErrRefreshReuse):
		return "refresh_reuse"
	case errors.Is(err, ErrRefreshInvalid):
		return "refresh_invalid"
	case errors.Is(err, ErrTooManyRequests):
		return "too_many_requests"
	case errors.Is(err, ErrUnauthorized):
		return "unauthorized"
	case errors.Is(err, ErrStoreUnavailable):
		return "store_unavailable"
	default:
		return "internal"
	}
}

func (e *Engine) emitAudit(ctx context.Context, eventType, accountID string, err error, metadata map[string]string) {
	if e.audit == nil {
		return
	}

	event := AuditEvent{
		Timestamp: time.Now().UTC(),
		EventType: eventType,
		AccountID: accountID,
		IP:        clientIPFromContext(ctx),
		Success:   err == nil,
		Error:     auditErrorCode(err),
		Metadata:  metadata,
	}

	e.audit.Emit(ctx, event)
}
