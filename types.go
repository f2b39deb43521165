package authgate

import (
	"context"
	"io"
	"time"

	internalaudit "github.com/MrEthical07/authgate/internal/audit"
)

// Role identifies the authorization tier assigned to an account.
type Role string

const (
	// RoleAdmin is an exported constant or variable used by the authentication engine.
	RoleAdmin Role = "ADMIN"
	// RoleCreator is an exported constant or variable used by the authentication engine.
	RoleCreator Role = "CREATOR"
	// RoleUser is an exported constant or variable used by the authentication engine.
	RoleUser Role = "USER"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleCreator, RoleUser:
		return true
	default:
		return false
	}
}

// LoginType identifies the credential provider an account was created with.
type LoginType string

const (
	// LoginEmailPassword is an exported constant or variable used by the authentication engine.
	LoginEmailPassword LoginType = "EMAIL_PASSWORD"
	// LoginGoogle is an exported constant or variable used by the authentication engine.
	LoginGoogle LoginType = "GOOGLE"
	// LoginInstagram is an exported constant or variable used by the authentication engine.
	LoginInstagram LoginType = "INSTAGRAM"
)

// Avatar holds the uploaded profile image location and the file-store
// identifier needed to replace it later.
type Avatar struct {
	URL       string `json:"url"`
	StorageID string `json:"storageId"`
}

// Account is the full credential record handed back by [AccountStore].
// Token fields only ever carry sha-256 digests, never plaintext.
type Account struct {
	ID           string
	Email        string
	Username     string
	PasswordHash string
	Role         Role
	LoginType    LoginType

	IsEmailVerified bool

	// Verification challenge pair: set and cleared together. The pair doubles
	// as OTP storage during the forgot-password flow, matching the single
	// in-flight-challenge-per-account model.
	EmailVerificationTokenHash string
	EmailVerificationExpiry    time.Time

	// Reset challenge pair: set and cleared together.
	ForgotPasswordTokenHash string
	ForgotPasswordExpiry    time.Time

	// CurrentRefreshToken holds the single live refresh token value, or ""
	// when the account has no active session.
	CurrentRefreshToken string

	Avatar Avatar

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Public returns the externally safe view of the account.
func (a Account) Public() PublicAccount {
	return PublicAccount{
		ID:              a.ID,
		Email:           a.Email,
		Username:        a.Username,
		Role:            a.Role,
		LoginType:       a.LoginType,
		IsEmailVerified: a.IsEmailVerified,
		Avatar:          a.Avatar,
		CreatedAt:       a.CreatedAt,
		UpdatedAt:       a.UpdatedAt,
	}
}

// PublicAccount is the account view returned across the API boundary.
// Password and challenge fields are structurally absent, not merely blanked.
type PublicAccount struct {
	ID              string    `json:"id"`
	Email           string    `json:"email"`
	Username        string    `json:"username"`
	Role            Role      `json:"role"`
	LoginType       LoginType `json:"loginType"`
	IsEmailVerified bool      `json:"isEmailVerified"`
	Avatar          Avatar    `json:"avatar"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// CreateAccountInput is the input for [AccountStore.Create].
type CreateAccountInput struct {
	Email         string
	Username      string
	PasswordHash  string
	Role          Role
	LoginType     LoginType
	EmailVerified bool
}

// AccountStore is the durable credential store contract the caller must
// implement. All mutations that touch a challenge pair update hash and expiry
// in one operation so that neither field can outlive the other.
//
// SwapRefreshToken is the rotation primitive: it must be a single conditional
// write (compare-and-swap on the previous value), returning
// [ErrRefreshReuse] when the stored value does not equal previous.
type AccountStore interface {
	Create(ctx context.Context, input CreateAccountInput) (Account, error)
	FindByID(ctx context.Context, id string) (Account, error)
	FindByEmail(ctx context.Context, email string) (Account, error)

	// FindByVerificationHash matches the verification challenge pair:
	// hash equality AND expiry strictly after now.
	FindByVerificationHash(ctx context.Context, hash string, now time.Time) (Account, error)
	// FindByResetHash matches the reset challenge pair the same way.
	FindByResetHash(ctx context.Context, hash string, now time.Time) (Account, error)

	SetVerificationChallenge(ctx context.Context, id, hash string, expiry time.Time) error
	// MarkEmailVerified clears the verification pair and flips the flag.
	MarkEmailVerified(ctx context.Context, id string) error
	// SetResetChallenge clears the verification pair (the consumed OTP) and
	// installs the reset pair in the same update.
	SetResetChallenge(ctx context.Context, id, hash string, expiry time.Time) error
	// UpdatePassword overwrites the password hash and clears the reset pair.
	UpdatePassword(ctx context.Context, id, passwordHash string) error

	SwapRefreshToken(ctx context.Context, id, previous, next string) error
	SetRefreshToken(ctx context.Context, id, token string) error
	ClearRefreshToken(ctx context.Context, id string) error

	UpdateAvatar(ctx context.Context, id string, avatar Avatar) (Account, error)
}

// Mailer dispatches the two outbound message kinds the engine produces.
// Implementations render and deliver; the engine treats delivery as
// fire-and-forget and never surfaces mailer errors to callers.
type Mailer interface {
	SendVerification(ctx context.Context, to, username, verifyURL string) error
	SendPasswordResetOTP(ctx context.Context, to, username, code string) error
}

// FileStore uploads binary content and returns its public URL plus the
// identifier needed to address the stored object later.
type FileStore interface {
	Upload(ctx context.Context, filename, contentType string, content io.Reader) (Avatar, error)
}

// FederatedIdentity is the verified output of an external SSO provider.
// The engine only consumes it; the redirect dance happens upstream.
type FederatedIdentity struct {
	Email    string
	Username string
	Provider LoginType
}

// AuthResult is returned by [Engine.Login] and [Engine.FederatedLogin].
type AuthResult struct {
	Account      PublicAccount
	AccessToken  string
	RefreshToken string
}

// TokenPair is returned by [Engine.Refresh].
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// RegisterRequest is the input for [Engine.Register].
// Role defaults to [RoleUser] when empty.
type RegisterRequest struct {
	Email    string
	Username string
	Password string
	Role     Role
}

// AuditEvent is a structured audit record emitted by the engine.
type AuditEvent = internalaudit.Event

// AuditSink receives [AuditEvent] values from the engine's audit dispatcher.
type AuditSink = internalaudit.Sink

// NoOpSink is an [AuditSink] that silently discards all events.
type NoOpSink = internalaudit.NoOpSink

// ChannelSink is a buffered channel-based [AuditSink].
type ChannelSink = internalaudit.ChannelSink

// JSONWriterSink is an [AuditSink] that writes JSON-encoded events to an
// [io.Writer].
type JSONWriterSink = internalaudit.JSONWriterSink

// NewChannelSink creates a [ChannelSink] with the given buffer capacity.
func NewChannelSink(buffer int) *ChannelSink {
	return internalaudit.NewChannelSink(buffer)
}

// NewJSONWriterSink creates a [JSONWriterSink] that writes to w.
func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	return internalaudit.NewJSONWriterSink(w)
}
