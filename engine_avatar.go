package authgate

import (
	"context"
	"errors"
	"fmt"
	"io"
)

// UpdateAvatar uploads a new profile image and swaps the account's avatar
// to it. The previous avatar record is overwritten, not merged.
//
// UpdateAvatar may return an error when input validation, dependency calls, or security checks fail.
// UpdateAvatar does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) UpdateAvatar(ctx context.Context, accountID, filename, contentType string, content io.Reader) (PublicAccount, error) {
	if accountID == "" {
		return PublicAccount{}, ErrUnauthorized
	}
	if content == nil || filename == "" {
		return PublicAccount{}, ErrAvatarMissing
	}
	if e.fileStore == nil {
		return PublicAccount{}, fmt.Errorf("%w: file store is required", ErrEngineNotReady)
	}

	avatar, err := e.fileStore.Upload(ctx, filename, contentType, content)
	if err != nil {
		e.emitAudit(ctx, AuditAvatarUpdated, accountID, err, nil)
		return PublicAccount{}, fmt.Errorf("upload avatar: %w", err)
	}

	account, err := e.store.UpdateAvatar(ctx, accountID, avatar)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			return PublicAccount{}, ErrAccountNotFound
		}
		return PublicAccount{}, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	e.emitAudit(ctx, AuditAvatarUpdated, account.ID, nil, nil)
	return account.Public(), nil
}
