package authgate

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	internalaudit "github.com/MrEthical07/authgate/internal/audit"
	"github.com/MrEthical07/authgate/jwt"
	"github.com/MrEthical07/authgate/password"
)

// Builder assembles an [Engine] from its dependencies. Zero value is not
// usable; start from [NewBuilder].
type Builder struct {
	config    Config
	hasConfig bool

	redis     redis.UniversalClient
	store     AccountStore
	mailer    Mailer
	fileStore FileStore
	auditSink AuditSink
}

// NewBuilder describes the newbuilder operation and its observable behavior.
//
// NewBuilder may return an error when input validation, dependency calls, or security checks fail.
// NewBuilder does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func NewBuilder() *Builder {
	return &Builder{}
}

// WithConfig describes the withconfig operation and its observable behavior.
//
// WithConfig may return an error when input validation, dependency calls, or security checks fail.
// WithConfig does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	b.hasConfig = true
	return b
}

// WithRedis describes the withredis operation and its observable behavior.
//
// WithRedis may return an error when input validation, dependency calls, or security checks fail.
// WithRedis does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithAccountStore describes the withaccountstore operation and its observable behavior.
//
// WithAccountStore may return an error when input validation, dependency calls, or security checks fail.
// WithAccountStore does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithAccountStore(store AccountStore) *Builder {
	b.store = store
	return b
}

// WithMailer describes the withmailer operation and its observable behavior.
//
// WithMailer may return an error when input validation, dependency calls, or security checks fail.
// WithMailer does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithMailer(mailer Mailer) *Builder {
	b.mailer = mailer
	return b
}

// WithFileStore describes the withfilestore operation and its observable behavior.
//
// WithFileStore may return an error when input validation, dependency calls, or security checks fail.
// WithFileStore does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithFileStore(fileStore FileStore) *Builder {
	b.fileStore = fileStore
	return b
}

// WithAuditSink describes the withauditsink operation and its observable behavior.
//
// WithAuditSink may return an error when input validation, dependency calls, or security checks fail.
// WithAuditSink does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// Build validates the assembled dependencies and returns a ready engine.
//
// Build may return an error when input validation, dependency calls, or security checks fail.
// Build does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) Build() (*Engine, error) {
	if !b.hasConfig {
		return nil, fmt.Errorf("%w: config is required", ErrEngineNotReady)
	}
	if err := b.config.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEngineNotReady, err)
	}
	if b.store == nil {
		return nil, fmt.Errorf("%w: account store is required", ErrEngineNotReady)
	}
	if b.redis == nil {
		return nil, fmt.Errorf("%w: redis client is required", ErrEngineNotReady)
	}
	if b.mailer == nil {
		return nil, fmt.Errorf("%w: mailer is required", ErrEngineNotReady)
	}

	jwtManager, err := jwt.NewManager(jwt.Config{
		AccessTTL:     b.config.JWT.AccessTTL,
		RefreshTTL:    b.config.JWT.RefreshTTL,
		AccessSecret:  b.config.JWT.AccessSecret,
		RefreshSecret: b.config.JWT.RefreshSecret,
		Issuer:        b.config.JWT.Issuer,
		Leeway:        b.config.JWT.Leeway,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEngineNotReady, err)
	}

	hasher, err := password.NewArgon2(password.Config{
		Memory:      b.config.Password.Memory,
		Time:        b.config.Password.Time,
		Parallelism: b.config.Password.Parallelism,
		SaltLength:  b.config.Password.SaltLength,
		KeyLength:   b.config.Password.KeyLength,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEngineNotReady, err)
	}

	var dispatcher *internalaudit.Dispatcher
	if b.config.Audit.Enabled {
		sink := b.auditSink
		if sink == nil {
			sink = internalaudit.NoOpSink{}
		}
		dispatcher = internalaudit.NewDispatcher(internalaudit.Config{
			Enabled:    true,
			BufferSize: b.config.Audit.BufferSize,
			DropIfFull: b.config.Audit.DropIfFull,
		}, sink)
	} else if b.auditSink != nil {
		return nil, errors.New("audit sink set but auditing disabled")
	}

	engine := &Engine{
		config:     b.config,
		store:      b.store,
		mailer:     b.mailer,
		fileStore:  b.fileStore,
		guard:      NewAbuseGuard(b.redis, b.config.AbuseGuard),
		hasher:     hasher,
		jwt:        jwtManager,
		tempTokens: NewTemporaryTokenFactory(b.config.TemporaryToken),
		otp:        NewOtpGenerator(b.config.OTP),
		audit:      dispatcher,
		now:        time.Now,
	}
	engine.guard.onBlock = func(ctx context.Context, ip string) {
		engine.emitAudit(WithClientIP(ctx, ip), AuditRateLimitTriggered, "", ErrTooManyRequests, nil)
	}
	return engine, nil
}
