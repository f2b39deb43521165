package memstore

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	authgate "github.com/MrEthical07/authgate"
)

// Store defines a public type used by authgate APIs.
//
// Store instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Store struct {
	mu       sync.RWMutex
	accounts map[string]authgate.Account // keyed by ID
	byEmail  map[string]string           // lowercased email -> ID
	now      func() time.Time
}

// New describes the new operation and its observable behavior.
//
// New may return an error when input validation, dependency calls, or security checks fail.
// New does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func New() *Store {
	return &Store{
		accounts: make(map[string]authgate.Account),
		byEmail:  make(map[string]string),
		now:      time.Now,
	}
}

func (s *Store) Create(_ context.Context, input authgate.CreateAccountInput) (authgate.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	email := strings.ToLower(input.Email)
	if _, ok := s.byEmail[email]; ok {
		return authgate.Account{}, authgate.ErrAccountExists
	}

	now := s.now()
	account := authgate.Account{
		ID:              uuid.NewString(),
		Email:           email,
		Username:        input.Username,
		PasswordHash:    input.PasswordHash,
		Role:            input.Role,
		LoginType:       input.LoginType,
		IsEmailVerified: input.EmailVerified,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	s.accounts[account.ID] = account
	s.byEmail[email] = account.ID
	return account, nil
}

func (s *Store) FindByID(_ context.Context, id string) (authgate.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	account, ok := s.accounts[id]
	if !ok {
		return authgate.Account{}, authgate.ErrAccountNotFound
	}
	return account, nil
}

func (s *Store) FindByEmail(_ context.Context, email string) (authgate.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byEmail[strings.ToLower(email)]
	if !ok {
		return authgate.Account{}, authgate.ErrAccountNotFound
	}
	return s.accounts[id], nil
}

func (s *Store) FindByVerificationHash(_ context.Context, hash string, now time.Time) (authgate.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, account := range s.accounts {
		if account.EmailVerificationTokenHash == hash && account.EmailVerificationExpiry.After(now) {
			return account, nil
		}
	}
	return authgate.Account{}, authgate.ErrAccountNotFound
}

func (s *Store) FindByResetHash(_ context.Context, hash string, now time.Time) (authgate.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, account := range s.accounts {
		if account.ForgotPasswordTokenHash == hash && account.ForgotPasswordExpiry.After(now) {
			return account, nil
		}
	}
	return authgate.Account{}, authgate.ErrAccountNotFound
}

func (s *Store) SetVerificationChallenge(_ context.Context, id, hash string, expiry time.Time) error {
	return s.update(id, func(account *authgate.Account) error {
		account.EmailVerificationTokenHash = hash
		account.EmailVerificationExpiry = expiry
		return nil
	})
}

func (s *Store) MarkEmailVerified(_ context.Context, id string) error {
	return s.update(id, func(account *authgate.Account) error {
		account.IsEmailVerified = true
		account.EmailVerificationTokenHash = ""
		account.EmailVerificationExpiry = time.Time{}
		return nil
	})
}

func (s *Store) SetResetChallenge(_ context.Context, id, hash string, expiry time.Time) error {
	return s.update(id, func(account *authgate.Account) error {
		account.EmailVerificationTokenHash = ""
		account.EmailVerificationExpiry = time.Time{}
		account.ForgotPasswordTokenHash = hash
		account.ForgotPasswordExpiry = expiry
		return nil
	})
}

func (s *Store) UpdatePassword(_ context.Context, id, passwordHash string) error {
	return s.update(id, func(account *authgate.Account) error {
		account.PasswordHash = passwordHash
		account.ForgotPasswordTokenHash = ""
		account.ForgotPasswordExpiry = time.Time{}
		return nil
	})
}

func (s *Store) SwapRefreshToken(_ context.Context, id, previous, next string) error {
	return s.update(id, func(account *authgate.Account) error {
		if account.CurrentRefreshToken != previous {
			return authgate.ErrRefreshReuse
		}
		account.CurrentRefreshToken = next
		return nil
	})
}

func (s *Store) SetRefreshToken(_ context.Context, id, token string) error {
	return s.update(id, func(account *authgate.Account) error {
		account.CurrentRefreshToken = token
		return nil
	})
}

func (s *Store) ClearRefreshToken(_ context.Context, id string) error {
	return s.update(id, func(account *authgate.Account) error {
		account.CurrentRefreshToken = ""
		return nil
	})
}

func (s *Store) UpdateAvatar(_ context.Context, id string, avatar authgate.Avatar) (authgate.Account, error) {
	var updated authgate.Account
	err := s.update(id, func(account *authgate.Account) error {
		account.Avatar = avatar
		updated = *account
		return nil
	})
	if err != nil {
		return authgate.Account{}, err
	}
	return updated, nil
}

// update applies fn to the account under the write lock and bumps UpdatedAt
// when fn succeeds.
func (s *Store) update(id string, fn func(*authgate.Account) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	account, ok := s.accounts[id]
	if !ok {
		return authgate.ErrAccountNotFound
	}

	if err := fn(&account); err != nil {
		return err
	}

	account.UpdatedAt = s.now()
	s.accounts[id] = account
	return nil
}
