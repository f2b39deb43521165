package authgate

import (
	"context"
	"errors"
	"fmt"
)

// Refresh rotates a presented refresh token for a new pair. The swap is a
// conditional write against the stored token, so two racing rotations
// cannot both succeed. A presented token that no longer matches the stored
// one is treated as reuse: the session is invalidated outright and the
// caller must authenticate again.
//
// Refresh may return an error when input validation, dependency calls, or security checks fail.
// Refresh does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) Refresh(ctx context.Context, refreshToken string) (TokenPair, error) {
	if refreshToken == "" {
		return TokenPair{}, ErrRefreshInvalid
	}

	claims, err := e.jwt.ParseRefresh(refreshToken)
	if err != nil {
		e.emitAudit(ctx, AuditRefresh, "", ErrRefreshInvalid, nil)
		return TokenPair{}, fmt.Errorf("%w: %v", ErrRefreshInvalid, err)
	}

	account, err := e.store.FindByID(ctx, claims.UID)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			e.emitAudit(ctx, AuditRefresh, claims.UID, ErrRefreshInvalid, nil)
			return TokenPair{}, ErrRefreshInvalid
		}
		return TokenPair{}, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	pair, err := e.mintTokens(account)
	if err != nil {
		return TokenPair{}, err
	}

	if err := e.store.SwapRefreshToken(ctx, account.ID, refreshToken, pair.RefreshToken); err != nil {
		if errors.Is(err, ErrRefreshReuse) {
			// The presented token was already rotated out. Someone is
			// replaying it, or the legitimate client lost a race; either way
			// the only safe move is to end the session.
			if clearErr := e.store.ClearRefreshToken(ctx, account.ID); clearErr != nil {
				return TokenPair{}, fmt.Errorf("%w: %v", ErrStoreUnavailable, clearErr)
			}
			e.emitAudit(ctx, AuditRefreshReuse, account.ID, ErrRefreshReuse, nil)
			return TokenPair{}, ErrRefreshReuse
		}
		return TokenPair{}, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	e.emitAudit(ctx, AuditRefresh, account.ID, nil, nil)
	return pair, nil
}
