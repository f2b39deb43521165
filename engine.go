package authgate

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	internalaudit "github.com/MrEthical07/authgate/internal/audit"
	"github.com/MrEthical07/authgate/jwt"
	"github.com/MrEthical07/authgate/password"
)

// Engine is the credential-lifecycle core: registration, login, session
// rotation, challenge flows, and the abuse guard all hang off it.
//
// Engine instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Engine struct {
	config Config

	store     AccountStore
	mailer    Mailer
	fileStore FileStore

	guard  *AbuseGuard
	hasher *password.Argon2
	jwt    *jwt.Manager

	tempTokens *TemporaryTokenFactory
	otp        *OtpGenerator

	audit *internalaudit.Dispatcher

	now func() time.Time
}

// Guard exposes the engine's abuse guard for transport middleware.
func (e *Engine) Guard() *AbuseGuard {
	return e.guard
}

// Tokens exposes the engine's JWT manager for transport middleware.
func (e *Engine) Tokens() *jwt.Manager {
	return e.jwt
}

// Close drains the audit dispatcher. The engine must not be used afterwards.
func (e *Engine) Close() {
	if e.audit != nil {
		e.audit.Close()
	}
}

// Self returns the public view of the account identified by id.
//
// Self may return an error when input validation, dependency calls, or security checks fail.
// Self does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) Self(ctx context.Context, id string) (PublicAccount, error) {
	account, err := e.store.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			return PublicAccount{}, ErrAccountNotFound
		}
		return PublicAccount{}, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return account.Public(), nil
}

// mintTokens creates an access/refresh pair for account without touching
// the store.
func (e *Engine) mintTokens(account Account) (TokenPair, error) {
	identity := jwt.Identity{
		ID:       account.ID,
		Email:    account.Email,
		Username: account.Username,
		Role:     string(account.Role),
	}

	access, err := e.jwt.CreateAccess(identity)
	if err != nil {
		return TokenPair{}, fmt.Errorf("mint access token: %w", err)
	}
	refresh, err := e.jwt.CreateRefresh(identity)
	if err != nil {
		return TokenPair{}, fmt.Errorf("mint refresh token: %w", err)
	}

	return TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// mintPair creates the access/refresh pair for account and persists the
// refresh token as the account's single live session, replacing whatever
// session existed before.
func (e *Engine) mintPair(ctx context.Context, account Account) (TokenPair, error) {
	pair, err := e.mintTokens(account)
	if err != nil {
		return TokenPair{}, err
	}

	if err := e.store.SetRefreshToken(ctx, account.ID, pair.RefreshToken); err != nil {
		return TokenPair{}, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	return pair, nil
}

// dispatchMail runs send in the background, detached from the request
// context. Delivery failures are logged and never surfaced to the caller.
func (e *Engine) dispatchMail(what string, send func(ctx context.Context) error) {
	timeout := e.config.Mail.DispatchTimeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		if err := send(ctx); err != nil {
			log.Printf("authgate: %s mail dispatch failed: %v", what, err)
		}
	}()
}
