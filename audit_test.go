package authgate

import (
	"context"
	"errors"
	"testing"
	"time"

	internalaudit "github.com/MrEthical07/authgate/internal/audit"
)

func TestEngineEmitsAuditEvents(t *testing.T) {
	mr, rdb := newTestRedis(t)
	defer mr.Close()

	store := newFakeStore()
	engine := newTestEngine(t, rdb, store, newRecordingMailer())

	sink := NewChannelSink(16)
	engine.audit = internalaudit.NewDispatcher(internalaudit.Config{
		Enabled:    true,
		BufferSize: 16,
		DropIfFull: false,
	}, sink)
	defer engine.audit.Close()

	seedVerifiedAccount(t, engine, store, "a@x.com", "Password1!")
	ctx := WithClientIP(context.Background(), "203.0.113.7")

	if _, err := engine.Login(ctx, "a@x.com", "Password1!"); err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	select {
	case event := <-sink.Events():
		if event.EventType != AuditLogin {
			t.Fatalf("expected %q, got %q", AuditLogin, event.EventType)
		}
		if !event.Success {
			t.Fatal("successful login must audit success")
		}
		if event.IP != "203.0.113.7" {
			t.Fatalf("expected client IP on event, got %q", event.IP)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no audit event delivered")
	}

	// A failed login audits the stable error code, not raw error text.
	if _, err := engine.Login(ctx, "a@x.com", "wrong-password"); err == nil {
		t.Fatal("expected login failure")
	}

	select {
	case event := <-sink.Events():
		if event.Success {
			t.Fatal("failed login must audit failure")
		}
		if event.Error != "invalid_credentials" {
			t.Fatalf("expected invalid_credentials, got %q", event.Error)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no audit event for the failure")
	}
}

func TestRateLimitBreachAudited(t *testing.T) {
	mr, rdb := newTestRedis(t)
	defer mr.Close()

	cfg := testConfig()
	cfg.Audit = AuditConfig{Enabled: true, BufferSize: 16}
	cfg.AbuseGuard.MaxRequests = 2

	sink := NewChannelSink(16)
	engine, err := NewBuilder().
		WithConfig(cfg).
		WithAccountStore(newFakeStore()).
		WithRedis(rdb).
		WithMailer(newRecordingMailer()).
		WithAuditSink(sink).
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	defer engine.Close()

	ctx := context.Background()
	const ip = "198.51.100.9"
	for i := 0; i < cfg.AbuseGuard.MaxRequests; i++ {
		if err := engine.Guard().RecordRequest(ctx, ip); err != nil {
			t.Fatalf("request %d failed: %v", i, err)
		}
	}
	if err := engine.Guard().RecordRequest(ctx, ip); !errors.Is(err, ErrTooManyRequests) {
		t.Fatalf("expected ErrTooManyRequests, got %v", err)
	}

	select {
	case event := <-sink.Events():
		if event.EventType != AuditRateLimitTriggered {
			t.Fatalf("expected %q, got %q", AuditRateLimitTriggered, event.EventType)
		}
		if event.Success {
			t.Fatal("a triggered block must audit failure")
		}
		if event.IP != ip {
			t.Fatalf("expected blocked IP on event, got %q", event.IP)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no audit event for the block")
	}
}
