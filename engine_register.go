package authgate

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/MrEthical07/authgate/internal"
)

// Register creates an email/password account, stores a hashed verification
// challenge, and dispatches the verification mail in the background. The
// returned account is unverified until [Engine.VerifyEmail] succeeds.
//
// Register may return an error when input validation, dependency calls, or security checks fail.
// Register does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) Register(ctx context.Context, req RegisterRequest) (PublicAccount, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	username := strings.TrimSpace(req.Username)
	if email == "" || username == "" {
		return PublicAccount{}, ErrInvalidCredentials
	}

	role := req.Role
	if role == "" {
		role = e.config.Account.DefaultRole
	}
	if !role.Valid() {
		return PublicAccount{}, fmt.Errorf("%w: unknown role %q", ErrInvalidCredentials, req.Role)
	}

	if _, err := e.store.FindByEmail(ctx, email); err == nil {
		e.emitAudit(ctx, AuditAccountCreated, "", ErrAccountExists, map[string]string{"email": email})
		return PublicAccount{}, ErrAccountExists
	} else if !errors.Is(err, ErrAccountNotFound) {
		return PublicAccount{}, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	passwordHash, err := e.hasher.Hash(req.Password)
	if err != nil {
		return PublicAccount{}, fmt.Errorf("%w: %v", ErrInvalidCredentials, err)
	}

	account, err := e.store.Create(ctx, CreateAccountInput{
		Email:        email,
		Username:     username,
		PasswordHash: passwordHash,
		Role:         role,
		LoginType:    LoginEmailPassword,
	})
	if err != nil {
		if errors.Is(err, ErrAccountExists) {
			return PublicAccount{}, ErrAccountExists
		}
		return PublicAccount{}, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	if err := e.issueVerification(ctx, account); err != nil {
		return PublicAccount{}, err
	}

	e.emitAudit(ctx, AuditAccountCreated, account.ID, nil, nil)
	return account.Public(), nil
}

// VerifyEmail consumes a verification token from the emailed link. The token
// matches only while unexpired; a consumed or expired token fails with
// [ErrTokenInvalidOrExpired].
//
// VerifyEmail may return an error when input validation, dependency calls, or security checks fail.
// VerifyEmail does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) VerifyEmail(ctx context.Context, token string) (PublicAccount, error) {
	if token == "" {
		return PublicAccount{}, ErrTokenInvalidOrExpired
	}

	account, err := e.store.FindByVerificationHash(ctx, internal.HashToken(token), e.now())
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			e.emitAudit(ctx, AuditEmailVerified, "", ErrTokenInvalidOrExpired, nil)
			return PublicAccount{}, ErrTokenInvalidOrExpired
		}
		return PublicAccount{}, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	if err := e.store.MarkEmailVerified(ctx, account.ID); err != nil {
		return PublicAccount{}, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	account.IsEmailVerified = true
	account.EmailVerificationTokenHash = ""

	e.emitAudit(ctx, AuditEmailVerified, account.ID, nil, nil)
	return account.Public(), nil
}

// ResendVerification replaces the pending verification challenge with a
// fresh one and dispatches a new mail. Any earlier emailed link stops
// working the moment the new challenge is stored.
//
// ResendVerification may return an error when input validation, dependency calls, or security checks fail.
// ResendVerification does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) ResendVerification(ctx context.Context, email string) error {
	account, err := e.store.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			return ErrAccountNotFound
		}
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	if account.IsEmailVerified {
		e.emitAudit(ctx, AuditVerificationResent, account.ID, ErrEmailAlreadyVerified, nil)
		return ErrEmailAlreadyVerified
	}

	if err := e.issueVerification(ctx, account); err != nil {
		return err
	}

	e.emitAudit(ctx, AuditVerificationResent, account.ID, nil, nil)
	return nil
}

// issueVerification mints a fresh single-use token, persists its digest,
// and dispatches the verification mail.
func (e *Engine) issueVerification(ctx context.Context, account Account) error {
	token, err := e.tempTokens.Issue()
	if err != nil {
		return fmt.Errorf("issue verification token: %w", err)
	}

	if err := e.store.SetVerificationChallenge(ctx, account.ID, token.Hash, token.Expiry); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	verifyURL := strings.TrimRight(e.config.Mail.VerificationURLBase, "/") + "/" + token.Plain
	to, username := account.Email, account.Username
	e.dispatchMail("verification", func(ctx context.Context) error {
		return e.mailer.SendVerification(ctx, to, username, verifyURL)
	})

	return nil
}
