package authgate

import (
	"errors"
	"testing"
)

func TestBuilderRequiresDependencies(t *testing.T) {
	mr, rdb := newTestRedis(t)
	defer mr.Close()

	if _, err := NewBuilder().Build(); !errors.Is(err, ErrEngineNotReady) {
		t.Fatalf("expected ErrEngineNotReady without config, got %v", err)
	}

	if _, err := NewBuilder().WithConfig(testConfig()).Build(); !errors.Is(err, ErrEngineNotReady) {
		t.Fatalf("expected ErrEngineNotReady without store, got %v", err)
	}

	if _, err := NewBuilder().
		WithConfig(testConfig()).
		WithAccountStore(newFakeStore()).
		Build(); !errors.Is(err, ErrEngineNotReady) {
		t.Fatalf("expected ErrEngineNotReady without redis, got %v", err)
	}

	if _, err := NewBuilder().
		WithConfig(testConfig()).
		WithAccountStore(newFakeStore()).
		WithRedis(rdb).
		Build(); !errors.Is(err, ErrEngineNotReady) {
		t.Fatalf("expected ErrEngineNotReady without mailer, got %v", err)
	}

	engine, err := NewBuilder().
		WithConfig(testConfig()).
		WithAccountStore(newFakeStore()).
		WithRedis(rdb).
		WithMailer(newRecordingMailer()).
		Build()
	if err != nil {
		t.Fatalf("complete build failed: %v", err)
	}
	defer engine.Close()

	if engine.Guard() == nil || engine.Tokens() == nil {
		t.Fatal("engine accessors must be wired")
	}
}

func TestBuilderRejectsInvalidConfig(t *testing.T) {
	mr, rdb := newTestRedis(t)
	defer mr.Close()

	cfg := testConfig()
	cfg.JWT.RefreshSecret = cfg.JWT.AccessSecret

	_, err := NewBuilder().
		WithConfig(cfg).
		WithAccountStore(newFakeStore()).
		WithRedis(rdb).
		WithMailer(newRecordingMailer()).
		Build()
	if !errors.Is(err, ErrEngineNotReady) {
		t.Fatalf("expected ErrEngineNotReady for bad config, got %v", err)
	}
}
