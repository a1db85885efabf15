package pinauth

import (
	"context"
	"errors"
	"testing"
	"time"

	authjwt "github.com/MrEthical07/pinauth/jwt"
	gjwt "github.com/golang-jwt/jwt/v5"
)

func TestLogoutIsIdempotent(t *testing.T) {
	h := newTestHarness(t, testConfig())
	ctx := context.Background()

	login, err := h.engine.Login(ctx, "alice", "alice-pass")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	for i := 0; i < 2; i++ {
		if err := h.engine.Logout(ctx, 1); err != nil {
			t.Fatalf("logout %d: %v", i+1, err)
		}
	}

	if h.mr.Exists("pin:operator:1") {
		t.Fatal("pin record must be gone after logout")
	}
	if _, err := h.engine.VerifyToken(ctx, login.Token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected revoked token rejected, got %v", err)
	}
	active, err := h.engine.CheckSession(ctx, 1)
	if err != nil || active {
		t.Fatalf("expected inactive, got %v err=%v", active, err)
	}

	snap := h.engine.MetricsSnapshot()
	if snap.Counters[MetricLogout] != 2 || snap.Counters[MetricSessionRevoked] != 1 {
		t.Fatalf("unexpected logout counters: %+v", snap.Counters)
	}
}

func TestLogoutWithoutLoginSucceeds(t *testing.T) {
	h := newTestHarness(t, testConfig())

	if err := h.engine.Logout(context.Background(), 2); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
}

func TestLogoutRevokesEverySession(t *testing.T) {
	h := newTestHarness(t, testConfig())
	ctx := context.Background()

	first, err := h.engine.Login(ctx, "alice", "alice-pass")
	if err != nil {
		t.Fatalf("first login: %v", err)
	}
	second, err := h.engine.Login(ctx, "alice", "alice-pass")
	if err != nil {
		t.Fatalf("second login: %v", err)
	}
	other, err := h.engine.Login(ctx, "bob", "bob-pass")
	if err != nil {
		t.Fatalf("bob login: %v", err)
	}

	if err := h.engine.Logout(ctx, 1); err != nil {
		t.Fatalf("logout: %v", err)
	}

	for _, token := range []string{first.Token, second.Token} {
		if _, err := h.engine.VerifyToken(ctx, token); !errors.Is(err, ErrInvalidToken) {
			t.Fatalf("expected alice token revoked, got %v", err)
		}
	}
	if _, err := h.engine.VerifyToken(ctx, other.Token); err != nil {
		t.Fatalf("bob's session must survive alice's logout: %v", err)
	}
}

func TestVerifyTokenWithoutSessionEnforcement(t *testing.T) {
	cfg := testConfig()
	cfg.Session.RequireActiveSession = false
	h := newTestHarness(t, cfg)
	ctx := context.Background()

	login, err := h.engine.Login(ctx, "alice", "alice-pass")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if err := h.engine.Logout(ctx, 1); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if _, err := h.engine.VerifyToken(ctx, login.Token); err != nil {
		t.Fatalf("signature-only verification must accept until expiry, got %v", err)
	}
}

func TestVerifyTokenRejectsExpired(t *testing.T) {
	h := newTestHarness(t, testConfig())
	now := time.Now()

	claims := authjwt.OperatorClaims{
		Username: "alice",
		Role:     string(RoleOperator),
		RegisteredClaims: gjwt.RegisteredClaims{
			Subject:   "1",
			ID:        "expired-jti",
			IssuedAt:  gjwt.NewNumericDate(now.Add(-9 * time.Hour)),
			ExpiresAt: gjwt.NewNumericDate(now.Add(-time.Hour)),
		},
	}
	signed, err := gjwt.NewWithClaims(gjwt.SigningMethodHS256, claims).SignedString(testSigningKey)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	if _, err := h.engine.VerifyToken(context.Background(), signed); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
	if h.engine.MetricsSnapshot().Counters[MetricTokenRejected] != 1 {
		t.Fatal("expected rejected token counted")
	}
}

func TestVerifyTokenRejectsMalformedAndForeign(t *testing.T) {
	h := newTestHarness(t, testConfig())
	ctx := context.Background()

	login, err := h.engine.Login(ctx, "alice", "alice-pass")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	foreign, err := gjwt.NewWithClaims(gjwt.SigningMethodHS256, authjwt.OperatorClaims{
		RegisteredClaims: gjwt.RegisteredClaims{
			Subject:   "1",
			ID:        "foreign",
			ExpiresAt: gjwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString([]byte("another-32-byte-secret-key-00000"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	for name, token := range map[string]string{
		"empty":     "",
		"garbage":   "not.a.token",
		"truncated": login.Token[:len(login.Token)-4],
		"foreign":   foreign,
	} {
		if _, err := h.engine.VerifyToken(ctx, token); !errors.Is(err, ErrInvalidToken) {
			t.Fatalf("%s: expected ErrInvalidToken, got %v", name, err)
		}
	}
}

func TestVerifyTokenRejectsSessionOfAnotherOperator(t *testing.T) {
	h := newTestHarness(t, testConfig())
	ctx := context.Background()

	login, err := h.engine.Login(ctx, "alice", "alice-pass")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	claims, err := h.engine.VerifyToken(ctx, login.Token)
	if err != nil {
		t.Fatalf("VerifyToken failed: %v", err)
	}

	forged, err := gjwt.NewWithClaims(gjwt.SigningMethodHS256, authjwt.OperatorClaims{
		RegisteredClaims: gjwt.RegisteredClaims{
			Subject:   "2",
			ID:        claims.JTI,
			ExpiresAt: gjwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString(testSigningKey)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := h.engine.VerifyToken(ctx, forged); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected jti bound to its operator, got %v", err)
	}
}

func TestCheckSessionInactiveOrUnknownOperator(t *testing.T) {
	h := newTestHarness(t, testConfig())
	ctx := context.Background()

	if _, err := h.engine.Login(ctx, "alice", "alice-pass"); err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	h.operators.setActive(1, false)

	active, err := h.engine.CheckSession(ctx, 1)
	if err != nil || active {
		t.Fatalf("deactivated operator must not have a session, got %v err=%v", active, err)
	}

	active, err = h.engine.CheckSession(ctx, 404)
	if err != nil || active {
		t.Fatalf("unknown operator must report false, got %v err=%v", active, err)
	}
}

func TestCheckSessionLookupFailure(t *testing.T) {
	h := newTestHarness(t, testConfig())
	h.operators.lookupErr = errors.New("connection reset by peer")

	if _, err := h.engine.CheckSession(context.Background(), 1); err == nil {
		t.Fatal("expected lookup failure surfaced")
	}
}

func TestPurgeExpiredSessionsPrunesIndex(t *testing.T) {
	cfg := testConfig()
	cfg.Token.TTL = time.Hour
	h := newTestHarness(t, cfg)
	ctx := context.Background()

	if _, err := h.engine.Login(ctx, "alice", "alice-pass"); err != nil {
		t.Fatalf("first login: %v", err)
	}
	h.mr.FastForward(30 * time.Minute)
	if _, err := h.engine.Login(ctx, "alice", "alice-pass"); err != nil {
		t.Fatalf("second login: %v", err)
	}
	h.mr.FastForward(31 * time.Minute)

	n, err := h.engine.PurgeExpiredSessions(ctx, time.Now())
	if err != nil {
		t.Fatalf("purge: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected one pruned session, got %d", n)
	}
}

func TestNilEngineNotReady(t *testing.T) {
	var e *Engine
	ctx := context.Background()

	if _, err := e.Login(ctx, "alice", "alice-pass"); !errors.Is(err, ErrEngineNotReady) {
		t.Fatalf("Login: expected ErrEngineNotReady, got %v", err)
	}
	if _, err := e.ValidatePin(ctx, 1, "123456"); !errors.Is(err, ErrEngineNotReady) {
		t.Fatalf("ValidatePin: expected ErrEngineNotReady, got %v", err)
	}
	if err := e.Logout(ctx, 1); !errors.Is(err, ErrEngineNotReady) {
		t.Fatalf("Logout: expected ErrEngineNotReady, got %v", err)
	}
	if _, err := e.CheckSession(ctx, 1); !errors.Is(err, ErrEngineNotReady) {
		t.Fatalf("CheckSession: expected ErrEngineNotReady, got %v", err)
	}
	if _, err := e.VerifyToken(ctx, "x"); !errors.Is(err, ErrEngineNotReady) {
		t.Fatalf("VerifyToken: expected ErrEngineNotReady, got %v", err)
	}
	e.Close()
}
