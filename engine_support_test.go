package authgate

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/MrEthical07/authgate/jwt"
	"github.com/MrEthical07/authgate/password"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis.Run failed: %v", err)
	}

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return mr, client
}

func newTestHasher(t *testing.T) *password.Argon2 {
	t.Helper()

	h, err := password.NewArgon2(password.Config{
		Memory:      8 * 1024,
		Time:        1,
		Parallelism: 1,
		SaltLength:  16,
		KeyLength:   16,
	})
	if err != nil {
		t.Fatalf("NewArgon2 failed: %v", err)
	}
	return h
}

// fakeStore is an in-memory AccountStore with the same conditional-write
// semantics as the durable implementations.
type fakeStore struct {
	mu       sync.Mutex
	accounts map[string]Account
}

func newFakeStore() *fakeStore {
	return &fakeStore{accounts: make(map[string]Account)}
}

func (s *fakeStore) Create(_ context.Context, input CreateAccountInput) (Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	email := strings.ToLower(input.Email)
	for _, a := range s.accounts {
		if a.Email == email {
			return Account{}, ErrAccountExists
		}
	}

	account := Account{
		ID:              uuid.NewString(),
		Email:           email,
		Username:        input.Username,
		PasswordHash:    input.PasswordHash,
		Role:            input.Role,
		LoginType:       input.LoginType,
		IsEmailVerified: input.EmailVerified,
		CreatedAt:       time.Now(),
		UpdatedAt:       time.Now(),
	}
	s.accounts[account.ID] = account
	return account, nil
}

func (s *fakeStore) FindByID(_ context.Context, id string) (Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	account, ok := s.accounts[id]
	if !ok {
		return Account{}, ErrAccountNotFound
	}
	return account, nil
}

func (s *fakeStore) FindByEmail(_ context.Context, email string) (Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, a := range s.accounts {
		if a.Email == strings.ToLower(email) {
			return a, nil
		}
	}
	return Account{}, ErrAccountNotFound
}

func (s *fakeStore) FindByVerificationHash(_ context.Context, hash string, now time.Time) (Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, a := range s.accounts {
		if a.EmailVerificationTokenHash == hash && a.EmailVerificationExpiry.After(now) {
			return a, nil
		}
	}
	return Account{}, ErrAccountNotFound
}

func (s *fakeStore) FindByResetHash(_ context.Context, hash string, now time.Time) (Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, a := range s.accounts {
		if a.ForgotPasswordTokenHash == hash && a.ForgotPasswordExpiry.After(now) {
			return a, nil
		}
	}
	return Account{}, ErrAccountNotFound
}

func (s *fakeStore) mutate(id string, fn func(*Account) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	account, ok := s.accounts[id]
	if !ok {
		return ErrAccountNotFound
	}
	if err := fn(&account); err != nil {
		return err
	}
	account.UpdatedAt = time.Now()
	s.accounts[id] = account
	return nil
}

func (s *fakeStore) SetVerificationChallenge(_ context.Context, id, hash string, expiry time.Time) error {
	return s.mutate(id, func(a *Account) error {
		a.EmailVerificationTokenHash = hash
		a.EmailVerificationExpiry = expiry
		return nil
	})
}

func (s *fakeStore) MarkEmailVerified(_ context.Context, id string) error {
	return s.mutate(id, func(a *Account) error {
		a.IsEmailVerified = true
		a.EmailVerificationTokenHash = ""
		a.EmailVerificationExpiry = time.Time{}
		return nil
	})
}

func (s *fakeStore) SetResetChallenge(_ context.Context, id, hash string, expiry time.Time) error {
	return s.mutate(id, func(a *Account) error {
		a.EmailVerificationTokenHash = ""
		a.EmailVerificationExpiry = time.Time{}
		a.ForgotPasswordTokenHash = hash
		a.ForgotPasswordExpiry = expiry
		return nil
	})
}

func (s *fakeStore) UpdatePassword(_ context.Context, id, passwordHash string) error {
	return s.mutate(id, func(a *Account) error {
		a.PasswordHash = passwordHash
		a.ForgotPasswordTokenHash = ""
		a.ForgotPasswordExpiry = time.Time{}
		return nil
	})
}

func (s *fakeStore) SwapRefreshToken(_ context.Context, id, previous, next string) error {
	return s.mutate(id, func(a *Account) error {
		if a.CurrentRefreshToken != previous {
			return ErrRefreshReuse
		}
		a.CurrentRefreshToken = next
		return nil
	})
}

func (s *fakeStore) SetRefreshToken(_ context.Context, id, token string) error {
	return s.mutate(id, func(a *Account) error {
		a.CurrentRefreshToken = token
		return nil
	})
}

func (s *fakeStore) ClearRefreshToken(_ context.Context, id string) error {
	return s.mutate(id, func(a *Account) error {
		a.CurrentRefreshToken = ""
		return nil
	})
}

func (s *fakeStore) UpdateAvatar(_ context.Context, id string, avatar Avatar) (Account, error) {
	var updated Account
	err := s.mutate(id, func(a *Account) error {
		a.Avatar = avatar
		updated = *a
		return nil
	})
	return updated, err
}

func (s *fakeStore) get(t *testing.T, id string) Account {
	t.Helper()

	s.mu.Lock()
	defer s.mu.Unlock()

	account, ok := s.accounts[id]
	if !ok {
		t.Fatalf("account %s not in store", id)
	}
	return account
}

// recordingMailer captures dispatched messages so tests can extract the
// plaintext token or code.
type recordingMailer struct {
	mu         sync.Mutex
	verifyURLs []string
	otpCodes   []string
	delivered  chan struct{}
}

func newRecordingMailer() *recordingMailer {
	return &recordingMailer{delivered: make(chan struct{}, 16)}
}

func (m *recordingMailer) SendVerification(_ context.Context, _, _, verifyURL string) error {
	m.mu.Lock()
	m.verifyURLs = append(m.verifyURLs, verifyURL)
	m.mu.Unlock()
	m.delivered <- struct{}{}
	return nil
}

func (m *recordingMailer) SendPasswordResetOTP(_ context.Context, _, _, code string) error {
	m.mu.Lock()
	m.otpCodes = append(m.otpCodes, code)
	m.mu.Unlock()
	m.delivered <- struct{}{}
	return nil
}

// waitDelivery blocks until a background dispatch lands, then returns the
// most recent value captured by pick.
func (m *recordingMailer) waitDelivery(t *testing.T, pick func() string) string {
	t.Helper()

	select {
	case <-m.delivered:
	case <-time.After(2 * time.Second):
		t.Fatal("mail dispatch did not happen")
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	return pick()
}

func (m *recordingMailer) lastVerifyURL(t *testing.T) string {
	return m.waitDelivery(t, func() string {
		if len(m.verifyURLs) == 0 {
			return ""
		}
		return m.verifyURLs[len(m.verifyURLs)-1]
	})
}

func (m *recordingMailer) lastOTP(t *testing.T) string {
	return m.waitDelivery(t, func() string {
		if len(m.otpCodes) == 0 {
			return ""
		}
		return m.otpCodes[len(m.otpCodes)-1]
	})
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.JWT.AccessSecret = []byte("test-access-secret-0123456789abcdef")
	cfg.JWT.RefreshSecret = []byte("test-refresh-secret-0123456789abcde")
	cfg.Mail.VerificationURLBase = "https://app.example.com/verify-email"
	cfg.Audit.Enabled = false
	return cfg
}

func newTestEngine(t *testing.T, rdb *redis.Client, store AccountStore, mailer Mailer) *Engine {
	t.Helper()

	cfg := testConfig()
	jwtManager, err := jwt.NewManager(jwt.Config{
		AccessTTL:     cfg.JWT.AccessTTL,
		RefreshTTL:    cfg.JWT.RefreshTTL,
		AccessSecret:  cfg.JWT.AccessSecret,
		RefreshSecret: cfg.JWT.RefreshSecret,
		Issuer:        cfg.JWT.Issuer,
		Leeway:        cfg.JWT.Leeway,
	})
	if err != nil {
		t.Fatalf("jwt.NewManager failed: %v", err)
	}

	return &Engine{
		config:     cfg,
		store:      store,
		mailer:     mailer,
		guard:      NewAbuseGuard(rdb, cfg.AbuseGuard),
		hasher:     newTestHasher(t),
		jwt:        jwtManager,
		tempTokens: NewTemporaryTokenFactory(cfg.TemporaryToken),
		otp:        NewOtpGenerator(cfg.OTP),
		now:        time.Now,
	}
}
