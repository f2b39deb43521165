package authgate

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"

	"github.com/MrEthical07/authgate/internal"
)

// ForgotPassword starts the three-step reset flow: mint a six-digit code,
// persist its digest as the account's pending challenge, and mail the code.
// Only verified email/password accounts may start the flow. Calling it
// again replaces the pending code, so only the newest one redeems.
//
// ForgotPassword may return an error when input validation, dependency calls, or security checks fail.
// ForgotPassword does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) ForgotPassword(ctx context.Context, email string) error {
	account, err := e.store.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			e.emitAudit(ctx, AuditOTPIssued, "", ErrAccountNotFound, nil)
			return ErrAccountNotFound
		}
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	if account.LoginType != LoginEmailPassword {
		err := fmt.Errorf("%w: use the %s login option", ErrLoginTypeMismatch, strings.ToLower(string(account.LoginType)))
		e.emitAudit(ctx, AuditOTPIssued, account.ID, err, nil)
		return err
	}
	if !account.IsEmailVerified {
		e.emitAudit(ctx, AuditOTPIssued, account.ID, ErrEmailNotVerified, nil)
		return ErrEmailNotVerified
	}

	otp, err := e.otp.Issue()
	if err != nil {
		return fmt.Errorf("issue otp: %w", err)
	}

	if err := e.store.SetVerificationChallenge(ctx, account.ID, otp.Hash, otp.Expiry); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	to, username, code := account.Email, account.Username, otp.Code
	e.dispatchMail("password reset otp", func(ctx context.Context) error {
		return e.mailer.SendPasswordResetOTP(ctx, to, username, code)
	})

	e.emitAudit(ctx, AuditOTPIssued, account.ID, nil, nil)
	return nil
}

// VerifyOTP redeems the emailed code for a single-use reset token. Expiry is
// checked before value: a correct-but-stale code reports [ErrOTPExpired],
// not [ErrOTPInvalid]. Redeeming consumes the code and installs the reset
// challenge in its place.
//
// VerifyOTP may return an error when input validation, dependency calls, or security checks fail.
// VerifyOTP does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) VerifyOTP(ctx context.Context, email, code string) (string, error) {
	account, err := e.store.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			e.emitAudit(ctx, AuditOTPVerified, "", ErrAccountNotFound, nil)
			return "", ErrAccountNotFound
		}
		return "", fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	if account.EmailVerificationTokenHash == "" || !account.EmailVerificationExpiry.After(e.now()) {
		e.emitAudit(ctx, AuditOTPVerified, account.ID, ErrOTPExpired, nil)
		return "", ErrOTPExpired
	}

	presented := internal.HashToken(code)
	if subtle.ConstantTimeCompare([]byte(presented), []byte(account.EmailVerificationTokenHash)) != 1 {
		e.emitAudit(ctx, AuditOTPVerified, account.ID, ErrOTPInvalid, nil)
		return "", ErrOTPInvalid
	}

	token, err := e.tempTokens.Issue()
	if err != nil {
		return "", fmt.Errorf("issue reset token: %w", err)
	}

	// One update: the consumed code is cleared and the reset challenge
	// installed, so the code cannot be redeemed twice.
	if err := e.store.SetResetChallenge(ctx, account.ID, token.Hash, token.Expiry); err != nil {
		return "", fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	e.emitAudit(ctx, AuditOTPVerified, account.ID, nil, nil)
	return token.Plain, nil
}

// ResetPassword completes the flow: the reset token from [Engine.VerifyOTP]
// authorizes exactly one password change. The stored session is cleared so
// every device must log in with the new password.
//
// ResetPassword may return an error when input validation, dependency calls, or security checks fail.
// ResetPassword does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) ResetPassword(ctx context.Context, token, newPassword string) error {
	if token == "" {
		return ErrTokenInvalidOrExpired
	}

	account, err := e.store.FindByResetHash(ctx, internal.HashToken(token), e.now())
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			e.emitAudit(ctx, AuditPasswordReset, "", ErrTokenInvalidOrExpired, nil)
			return ErrTokenInvalidOrExpired
		}
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	passwordHash, err := e.hasher.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidCredentials, err)
	}

	if err := e.store.UpdatePassword(ctx, account.ID, passwordHash); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if err := e.store.ClearRefreshToken(ctx, account.ID); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	e.emitAudit(ctx, AuditPasswordReset, account.ID, nil, nil)
	return nil
}
