package authgate

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/MrEthical07/authgate/internal"
)

func TestRegisterStoresDigestNotPlaintext(t *testing.T) {
	mr, rdb := newTestRedis(t)
	defer mr.Close()

	store := newFakeStore()
	mailer := newRecordingMailer()
	engine := newTestEngine(t, rdb, store, mailer)
	ctx := context.Background()

	account, err := engine.Register(ctx, RegisterRequest{
		Email:    "A@X.com",
		Username: "alice",
		Password: "Password1!",
	})
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if account.Email != "a@x.com" {
		t.Fatalf("expected normalized email, got %q", account.Email)
	}
	if account.Role != RoleUser {
		t.Fatalf("expected default role USER, got %q", account.Role)
	}
	if account.IsEmailVerified {
		t.Fatal("new account must not be verified")
	}

	verifyURL := mailer.lastVerifyURL(t)
	if verifyURL == "" {
		t.Fatal("no verification mail dispatched")
	}
	plain := verifyURL[strings.LastIndex(verifyURL, "/")+1:]

	stored := store.get(t, account.ID)
	if stored.EmailVerificationTokenHash == plain {
		t.Fatal("store holds the plaintext token")
	}
	if stored.EmailVerificationTokenHash != internal.HashToken(plain) {
		t.Fatal("stored hash does not match the mailed token")
	}
	if !stored.EmailVerificationExpiry.After(engine.now()) {
		t.Fatal("challenge expiry must be in the future")
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	mr, rdb := newTestRedis(t)
	defer mr.Close()

	engine := newTestEngine(t, rdb, newFakeStore(), newRecordingMailer())
	ctx := context.Background()

	if _, err := engine.Register(ctx, RegisterRequest{Email: "a@x.com", Username: "alice", Password: "Password1!"}); err != nil {
		t.Fatalf("first Register failed: %v", err)
	}
	_, err := engine.Register(ctx, RegisterRequest{Email: "a@x.com", Username: "alice2", Password: "Password2!"})
	if !errors.Is(err, ErrAccountExists) {
		t.Fatalf("expected ErrAccountExists, got %v", err)
	}
}

func TestVerifyEmailConsumesToken(t *testing.T) {
	mr, rdb := newTestRedis(t)
	defer mr.Close()

	store := newFakeStore()
	mailer := newRecordingMailer()
	engine := newTestEngine(t, rdb, store, mailer)
	ctx := context.Background()

	account, err := engine.Register(ctx, RegisterRequest{Email: "a@x.com", Username: "alice", Password: "Password1!"})
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	verifyURL := mailer.lastVerifyURL(t)
	plain := verifyURL[strings.LastIndex(verifyURL, "/")+1:]

	verified, err := engine.VerifyEmail(ctx, plain)
	if err != nil {
		t.Fatalf("VerifyEmail failed: %v", err)
	}
	if !verified.IsEmailVerified {
		t.Fatal("account should be verified")
	}
	if store.get(t, account.ID).EmailVerificationTokenHash != "" {
		t.Fatal("challenge must be cleared after verification")
	}

	// Second redemption of the same link must fail.
	if _, err := engine.VerifyEmail(ctx, plain); !errors.Is(err, ErrTokenInvalidOrExpired) {
		t.Fatalf("expected ErrTokenInvalidOrExpired on reuse, got %v", err)
	}
}

func TestVerifyEmailExpiredToken(t *testing.T) {
	mr, rdb := newTestRedis(t)
	defer mr.Close()

	store := newFakeStore()
	mailer := newRecordingMailer()
	engine := newTestEngine(t, rdb, store, mailer)
	ctx := context.Background()

	account, err := engine.Register(ctx, RegisterRequest{Email: "a@x.com", Username: "alice", Password: "Password1!"})
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	verifyURL := mailer.lastVerifyURL(t)
	plain := verifyURL[strings.LastIndex(verifyURL, "/")+1:]

	// Age the challenge past its window.
	stored := store.get(t, account.ID)
	if err := store.SetVerificationChallenge(ctx, account.ID, stored.EmailVerificationTokenHash, engine.now().Add(-time.Minute)); err != nil {
		t.Fatalf("SetVerificationChallenge failed: %v", err)
	}

	if _, err := engine.VerifyEmail(ctx, plain); !errors.Is(err, ErrTokenInvalidOrExpired) {
		t.Fatalf("expected ErrTokenInvalidOrExpired, got %v", err)
	}
}

func TestResendVerificationInvalidatesOldLink(t *testing.T) {
	mr, rdb := newTestRedis(t)
	defer mr.Close()

	store := newFakeStore()
	mailer := newRecordingMailer()
	engine := newTestEngine(t, rdb, store, mailer)
	ctx := context.Background()

	if _, err := engine.Register(ctx, RegisterRequest{Email: "a@x.com", Username: "alice", Password: "Password1!"}); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	firstURL := mailer.lastVerifyURL(t)
	firstPlain := firstURL[strings.LastIndex(firstURL, "/")+1:]

	if err := engine.ResendVerification(ctx, "a@x.com"); err != nil {
		t.Fatalf("ResendVerification failed: %v", err)
	}
	secondURL := mailer.lastVerifyURL(t)
	secondPlain := secondURL[strings.LastIndex(secondURL, "/")+1:]

	if _, err := engine.VerifyEmail(ctx, firstPlain); !errors.Is(err, ErrTokenInvalidOrExpired) {
		t.Fatalf("old link must be dead, got %v", err)
	}
	if _, err := engine.VerifyEmail(ctx, secondPlain); err != nil {
		t.Fatalf("new link must work: %v", err)
	}

	if err := engine.ResendVerification(ctx, "a@x.com"); !errors.Is(err, ErrEmailAlreadyVerified) {
		t.Fatalf("expected ErrEmailAlreadyVerified, got %v", err)
	}
	if err := engine.ResendVerification(ctx, "nobody@x.com"); !errors.Is(err, ErrAccountNotFound) {
		t.Fatalf("expected ErrAccountNotFound, got %v", err)
	}
}
