package authgate

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Login authenticates an email/password account and mints a fresh token
// pair, replacing any existing session. Accounts created through a
// federated provider are told which provider to use instead. Email
// verification does not gate login; it gates the password-reset flow.
//
// Login may return an error when input validation, dependency calls, or security checks fail.
// Login does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) Login(ctx context.Context, email, pass string) (AuthResult, error) {
	account, err := e.store.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			e.emitAudit(ctx, AuditLogin, "", ErrAccountNotFound, nil)
			return AuthResult{}, ErrAccountNotFound
		}
		return AuthResult{}, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	if account.LoginType != LoginEmailPassword {
		err := fmt.Errorf("%w: use the %s login option", ErrLoginTypeMismatch, strings.ToLower(string(account.LoginType)))
		e.emitAudit(ctx, AuditLogin, account.ID, err, nil)
		return AuthResult{}, err
	}

	ok, err := e.hasher.Verify(pass, account.PasswordHash)
	if err != nil || !ok {
		e.emitAudit(ctx, AuditLogin, account.ID, ErrInvalidCredentials, nil)
		return AuthResult{}, ErrInvalidCredentials
	}

	pair, err := e.mintPair(ctx, account)
	if err != nil {
		return AuthResult{}, err
	}

	e.emitAudit(ctx, AuditLogin, account.ID, nil, nil)
	return AuthResult{
		Account:      account.Public(),
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	}, nil
}

// Logout ends the account's active session by clearing the stored refresh
// token. Outstanding access tokens stay valid until they expire.
//
// Logout may return an error when input validation, dependency calls, or security checks fail.
// Logout does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) Logout(ctx context.Context, accountID string) error {
	if accountID == "" {
		return ErrUnauthorized
	}

	if err := e.store.ClearRefreshToken(ctx, accountID); err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			return ErrAccountNotFound
		}
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	e.emitAudit(ctx, AuditLogout, accountID, nil, nil)
	return nil
}

// FederatedLogin signs in an identity already verified by an external
// provider. A first-time identity gets an account created on the spot,
// marked verified, with no usable password.
//
// FederatedLogin may return an error when input validation, dependency calls, or security checks fail.
// FederatedLogin does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) FederatedLogin(ctx context.Context, identity FederatedIdentity) (AuthResult, error) {
	email := strings.ToLower(strings.TrimSpace(identity.Email))
	if email == "" {
		return AuthResult{}, ErrInvalidCredentials
	}
	if identity.Provider != LoginGoogle && identity.Provider != LoginInstagram {
		return AuthResult{}, fmt.Errorf("%w: unknown provider %q", ErrInvalidCredentials, identity.Provider)
	}

	account, err := e.store.FindByEmail(ctx, email)
	switch {
	case err == nil:
		// Existing account wins regardless of how it was created; the
		// provider has already proven control of the mailbox.
	case errors.Is(err, ErrAccountNotFound):
		username := strings.TrimSpace(identity.Username)
		if username == "" {
			username = email
		}
		account, err = e.store.Create(ctx, CreateAccountInput{
			Email:         email,
			Username:      username,
			Role:          e.config.Account.DefaultRole,
			LoginType:     identity.Provider,
			EmailVerified: true,
		})
		if err != nil {
			return AuthResult{}, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
		}
	default:
		return AuthResult{}, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	pair, err := e.mintPair(ctx, account)
	if err != nil {
		return AuthResult{}, err
	}

	e.emitAudit(ctx, AuditFederatedLogin, account.ID, nil, map[string]string{"provider": string(identity.Provider)})
	return AuthResult{
		Account:      account.Public(),
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	}, nil
}
