package jwt

import (
	"testing"
	"time"
)

func testManager(t *testing.T, accessTTL, refreshTTL time.Duration) *Manager {
	t.Helper()

	m, err := NewManager(Config{
		AccessTTL:     accessTTL,
		RefreshTTL:    refreshTTL,
		AccessSecret:  []byte("access-secret-0123456789abcdefghij"),
		RefreshSecret: []byte("refresh-secret-0123456789abcdefghi"),
		Issuer:        "test",
		Leeway:        time.Second,
	})
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}
	return m
}

func TestCreateAndParseRoundTrip(t *testing.T) {
	m := testManager(t, 15*time.Minute, time.Hour)
	identity := Identity{ID: "u1", Email: "a@x.com", Username: "alice", Role: "USER"}

	access, err := m.CreateAccess(identity)
	if err != nil {
		t.Fatalf("CreateAccess failed: %v", err)
	}
	refresh, err := m.CreateRefresh(identity)
	if err != nil {
		t.Fatalf("CreateRefresh failed: %v", err)
	}
	if access == refresh {
		t.Fatal("access and refresh tokens must differ")
	}

	claims, err := m.ParseAccess(access)
	if err != nil {
		t.Fatalf("ParseAccess failed: %v", err)
	}
	if claims.UID != "u1" || claims.Email != "a@x.com" || claims.Username != "alice" || claims.Role != "USER" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
	if claims.Kind != KindAccess {
		t.Fatalf("expected access kind, got %q", claims.Kind)
	}

	rclaims, err := m.ParseRefresh(refresh)
	if err != nil {
		t.Fatalf("ParseRefresh failed: %v", err)
	}
	if rclaims.Kind != KindRefresh {
		t.Fatalf("expected refresh kind, got %q", rclaims.Kind)
	}
}

func TestTokensAreNotInterchangeable(t *testing.T) {
	m := testManager(t, 15*time.Minute, time.Hour)
	identity := Identity{ID: "u1"}

	access, err := m.CreateAccess(identity)
	if err != nil {
		t.Fatalf("CreateAccess failed: %v", err)
	}
	refresh, err := m.CreateRefresh(identity)
	if err != nil {
		t.Fatalf("CreateRefresh failed: %v", err)
	}

	if _, err := m.ParseRefresh(access); err == nil {
		t.Fatal("access token must not verify as refresh")
	}
	if _, err := m.ParseAccess(refresh); err == nil {
		t.Fatal("refresh token must not verify as access")
	}
}

func TestParseRejectsForeignSecret(t *testing.T) {
	m := testManager(t, 15*time.Minute, time.Hour)

	other, err := NewManager(Config{
		AccessTTL:     15 * time.Minute,
		RefreshTTL:    time.Hour,
		AccessSecret:  []byte("zzzzz-other-access-secret-zzzzzzzz"),
		RefreshSecret: []byte("zzzzz-other-refresh-secret-zzzzzzz"),
		Issuer:        "test",
	})
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}

	token, err := other.CreateAccess(Identity{ID: "u1"})
	if err != nil {
		t.Fatalf("CreateAccess failed: %v", err)
	}
	if _, err := m.ParseAccess(token); err == nil {
		t.Fatal("token signed with a foreign secret must not verify")
	}
}

func TestParseRejectsExpiredToken(t *testing.T) {
	m, err := NewManager(Config{
		AccessTTL:     time.Millisecond,
		RefreshTTL:    time.Hour,
		AccessSecret:  []byte("access-secret-0123456789abcdefghij"),
		RefreshSecret: []byte("refresh-secret-0123456789abcdefghi"),
		Issuer:        "test",
	})
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}

	token, err := m.CreateAccess(Identity{ID: "u1"})
	if err != nil {
		t.Fatalf("CreateAccess failed: %v", err)
	}

	time.Sleep(50 * time.Millisecond)
	if _, err := m.ParseAccess(token); err == nil {
		t.Fatal("expired token must not verify")
	}
}

func TestKindMismatchError(t *testing.T) {
	// Same secret on both sides makes the kind claim the only guard; the
	// constructor refuses that configuration outright.
	_, err := NewManager(Config{
		AccessTTL:     time.Minute,
		RefreshTTL:    time.Hour,
		AccessSecret:  []byte("same-secret-0123456789abcdefghijkl"),
		RefreshSecret: []byte("same-secret-0123456789abcdefghijkl"),
	})
	if err == nil {
		t.Fatal("identical secrets must be rejected")
	}
}

func TestNewManagerValidation(t *testing.T) {
	base := Config{
		AccessTTL:     time.Minute,
		RefreshTTL:    time.Hour,
		AccessSecret:  []byte("access-secret-0123456789abcdefghij"),
		RefreshSecret: []byte("refresh-secret-0123456789abcdefghi"),
	}

	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero access ttl", func(c *Config) { c.AccessTTL = 0 }},
		{"zero refresh ttl", func(c *Config) { c.RefreshTTL = 0 }},
		{"missing access secret", func(c *Config) { c.AccessSecret = nil }},
		{"missing refresh secret", func(c *Config) { c.RefreshSecret = nil }},
		{"excessive leeway", func(c *Config) { c.Leeway = time.Hour }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := base
			tc.mutate(&cfg)
			if _, err := NewManager(cfg); err == nil {
				t.Fatal("expected a configuration error")
			}
		})
	}
}

func TestParseGarbage(t *testing.T) {
	m := testManager(t, 15*time.Minute, time.Hour)

	for _, input := range []string{"", "not.a.jwt", "a.b.c"} {
		if _, err := m.ParseAccess(input); err == nil {
			t.Fatalf("input %q must not parse", input)
		}
	}
}
