package gormstore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	authgate "github.com/MrEthical07/authgate"
)

// accountModel is the persisted row shape. Nullable challenge columns map
// to empty string / zero time in the engine model.
type accountModel struct {
	ID           string `gorm:"primaryKey;size:36"`
	Email        string `gorm:"uniqueIndex;size:255;not null"`
	Username     string `gorm:"size:100;not null"`
	PasswordHash string `gorm:"size:255"`
	Role         string `gorm:"size:20;not null"`
	LoginType    string `gorm:"size:20;not null"`

	IsEmailVerified bool `gorm:"not null;default:false"`

	EmailVerificationTokenHash string `gorm:"index;size:64"`
	EmailVerificationExpiry    *time.Time

	ForgotPasswordTokenHash string `gorm:"index;size:64"`
	ForgotPasswordExpiry    *time.Time

	CurrentRefreshToken string `gorm:"size:1024"`

	AvatarURL       string `gorm:"size:512"`
	AvatarStorageID string `gorm:"size:255"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (accountModel) TableName() string {
	return "accounts"
}

// Store defines a public type used by authgate APIs.
//
// Store instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Store struct {
	db *gorm.DB
}

// New runs the schema migration and returns the store.
//
// New may return an error when input validation, dependency calls, or security checks fail.
// New does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func New(db *gorm.DB) (*Store, error) {
	if db == nil {
		return nil, errors.New("gormstore requires a db handle")
	}
	if err := db.AutoMigrate(&accountModel{}); err != nil {
		return nil, fmt.Errorf("migrate accounts table: %w", err)
	}
	return &Store{db: db}, nil
}

func toAccount(m accountModel) authgate.Account {
	account := authgate.Account{
		ID:                         m.ID,
		Email:                      m.Email,
		Username:                   m.Username,
		PasswordHash:               m.PasswordHash,
		Role:                       authgate.Role(m.Role),
		LoginType:                  authgate.LoginType(m.LoginType),
		IsEmailVerified:            m.IsEmailVerified,
		EmailVerificationTokenHash: m.EmailVerificationTokenHash,
		ForgotPasswordTokenHash:    m.ForgotPasswordTokenHash,
		CurrentRefreshToken:        m.CurrentRefreshToken,
		Avatar: authgate.Avatar{
			URL:       m.AvatarURL,
			StorageID: m.AvatarStorageID,
		},
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
	if m.EmailVerificationExpiry != nil {
		account.EmailVerificationExpiry = *m.EmailVerificationExpiry
	}
	if m.ForgotPasswordExpiry != nil {
		account.ForgotPasswordExpiry = *m.ForgotPasswordExpiry
	}
	return account
}

func (s *Store) Create(ctx context.Context, input authgate.CreateAccountInput) (authgate.Account, error) {
	model := accountModel{
		ID:              uuid.NewString(),
		Email:           strings.ToLower(input.Email),
		Username:        input.Username,
		PasswordHash:    input.PasswordHash,
		Role:            string(input.Role),
		LoginType:       string(input.LoginType),
		IsEmailVerified: input.EmailVerified,
	}

	if err := s.db.WithContext(ctx).Create(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return authgate.Account{}, authgate.ErrAccountExists
		}
		return authgate.Account{}, fmt.Errorf("create account: %w", err)
	}
	return toAccount(model), nil
}

func (s *Store) FindByID(ctx context.Context, id string) (authgate.Account, error) {
	return s.findOne(ctx, "id = ?", id)
}

func (s *Store) FindByEmail(ctx context.Context, email string) (authgate.Account, error) {
	return s.findOne(ctx, "email = ?", strings.ToLower(email))
}

func (s *Store) FindByVerificationHash(ctx context.Context, hash string, now time.Time) (authgate.Account, error) {
	return s.findOne(ctx, "email_verification_token_hash = ? AND email_verification_expiry > ?", hash, now)
}

func (s *Store) FindByResetHash(ctx context.Context, hash string, now time.Time) (authgate.Account, error) {
	return s.findOne(ctx, "forgot_password_token_hash = ? AND forgot_password_expiry > ?", hash, now)
}

func (s *Store) findOne(ctx context.Context, query string, args ...any) (authgate.Account, error) {
	var model accountModel
	err := s.db.WithContext(ctx).Where(query, args...).First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return authgate.Account{}, authgate.ErrAccountNotFound
		}
		return authgate.Account{}, fmt.Errorf("query account: %w", err)
	}
	return toAccount(model), nil
}

func (s *Store) SetVerificationChallenge(ctx context.Context, id, hash string, expiry time.Time) error {
	return s.updateByID(ctx, id, map[string]any{
		"email_verification_token_hash": hash,
		"email_verification_expiry":     expiry,
	})
}

func (s *Store) MarkEmailVerified(ctx context.Context, id string) error {
	return s.updateByID(ctx, id, map[string]any{
		"is_email_verified":             true,
		"email_verification_token_hash": "",
		"email_verification_expiry":     nil,
	})
}

func (s *Store) SetResetChallenge(ctx context.Context, id, hash string, expiry time.Time) error {
	return s.updateByID(ctx, id, map[string]any{
		"email_verification_token_hash": "",
		"email_verification_expiry":     nil,
		"forgot_password_token_hash":    hash,
		"forgot_password_expiry":        expiry,
	})
}

func (s *Store) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	return s.updateByID(ctx, id, map[string]any{
		"password_hash":              passwordHash,
		"forgot_password_token_hash": "",
		"forgot_password_expiry":     nil,
	})
}

// SwapRefreshToken is the rotation primitive: one conditional UPDATE whose
// WHERE clause pins the previous token, so of two racing rotations exactly
// one sees RowsAffected == 1.
func (s *Store) SwapRefreshToken(ctx context.Context, id, previous, next string) error {
	tx := s.db.WithContext(ctx).
		Model(&accountModel{}).
		Where("id = ? AND current_refresh_token = ?", id, previous).
		Update("current_refresh_token", next)
	if tx.Error != nil {
		return fmt.Errorf("swap refresh token: %w", tx.Error)
	}
	if tx.RowsAffected == 0 {
		if _, err := s.FindByID(ctx, id); err != nil {
			return err
		}
		return authgate.ErrRefreshReuse
	}
	return nil
}

func (s *Store) SetRefreshToken(ctx context.Context, id, token string) error {
	return s.updateByID(ctx, id, map[string]any{"current_refresh_token": token})
}

func (s *Store) ClearRefreshToken(ctx context.Context, id string) error {
	return s.updateByID(ctx, id, map[string]any{"current_refresh_token": ""})
}

func (s *Store) UpdateAvatar(ctx context.Context, id string, avatar authgate.Avatar) (authgate.Account, error) {
	err := s.updateByID(ctx, id, map[string]any{
		"avatar_url":        avatar.URL,
		"avatar_storage_id": avatar.StorageID,
	})
	if err != nil {
		return authgate.Account{}, err
	}
	return s.FindByID(ctx, id)
}

func (s *Store) updateByID(ctx context.Context, id string, fields map[string]any) error {
	tx := s.db.WithContext(ctx).Model(&accountModel{}).Where("id = ?", id).Updates(fields)
	if tx.Error != nil {
		return fmt.Errorf("update account: %w", tx.Error)
	}
	if tx.RowsAffected == 0 {
		if _, err := s.FindByID(ctx, id); err != nil {
			return err
		}
		// Row exists but nothing changed; treat as success.
	}
	return nil
}
