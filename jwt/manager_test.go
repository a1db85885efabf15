package jwt

import (
	"crypto/ed25519"
	"crypto/rand"
	"errors"
	"strings"
	"testing"
	"time"

	gjwt "github.com/golang-jwt/jwt/v5"
)

var testSecret = []byte("0123456789abcdef0123456789abcdef")

func newHSManager(t *testing.T) *Manager {
	t.Helper()
	m, err := NewManager(Config{TTL: 8 * time.Hour, PrivateKey: testSecret, Issuer: "pinauth"})
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	return m
}

func aliceSubject() Subject {
	return Subject{OperatorID: "42", Username: "alice", Role: "OPERATOR", Email: "alice@store.test"}
}

func TestMintVerifyRoundTrip(t *testing.T) {
	m := newHSManager(t)

	issued, err := m.Mint(aliceSubject())
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
	if issued.JTI == "" || issued.Token == "" {
		t.Fatalf("unexpected issued value %+v", issued)
	}
	if got := issued.ExpiresAt.Sub(issued.IssuedAt); got != 8*time.Hour {
		t.Fatalf("expected 8h lifetime, got %v", got)
	}

	claims, err := m.Verify(issued.Token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if claims.Subject != "42" || claims.ID != issued.JTI {
		t.Fatalf("round trip mismatch: sub=%q jti=%q", claims.Subject, claims.ID)
	}
	if claims.Username != "alice" || claims.Role != "OPERATOR" || claims.Email != "alice@store.test" {
		t.Fatalf("unexpected custom claims %+v", claims)
	}

	id, err := m.ExtractOperatorID(issued.Token)
	if err != nil || id != "42" {
		t.Fatalf("ExtractOperatorID = %q, %v", id, err)
	}
	jti, err := m.ExtractJTI(issued.Token)
	if err != nil || jti != issued.JTI {
		t.Fatalf("ExtractJTI = %q, %v", jti, err)
	}
}

func TestMintUsesFreshJTI(t *testing.T) {
	m := newHSManager(t)
	a, _ := m.Mint(aliceSubject())
	b, _ := m.Mint(aliceSubject())
	if a.JTI == b.JTI {
		t.Fatal("expected distinct jti values")
	}
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	m := newHSManager(t)
	issued, err := m.Mint(aliceSubject())
	if err != nil {
		t.Fatalf("mint: %v", err)
	}

	m.now = func() time.Time { return time.Now().Add(8*time.Hour + time.Minute) }
	if _, err := m.Verify(issued.Token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for expired token, got %v", err)
	}
	if _, err := m.ExtractJTI(issued.Token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken from ExtractJTI, got %v", err)
	}
}

func TestVerifyRejectsTamperedAndForeignTokens(t *testing.T) {
	m := newHSManager(t)
	issued, _ := m.Mint(aliceSubject())

	parts := strings.Split(issued.Token, ".")
	tampered := parts[0] + "." + parts[1] + "." + strings.Repeat("A", len(parts[2]))
	if _, err := m.Verify(tampered); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected tampered signature to fail, got %v", err)
	}

	other, err := NewManager(Config{TTL: time.Hour, PrivateKey: []byte("ffffffffffffffffffffffffffffffff"), Issuer: "pinauth"})
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	foreign, _ := other.Mint(aliceSubject())
	if _, err := m.Verify(foreign.Token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected foreign key to fail, got %v", err)
	}

	if _, err := m.Verify("not.a.token"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected malformed token to fail, got %v", err)
	}
}

func TestVerifyRejectsWrongAlgorithm(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	m, err := NewManager(Config{TTL: time.Minute, SigningMethod: MethodEd25519, PrivateKey: priv, PublicKey: pub})
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}

	claims := OperatorClaims{RegisteredClaims: gjwt.RegisteredClaims{
		Subject:   "42",
		ID:        "j1",
		ExpiresAt: gjwt.NewNumericDate(time.Now().Add(time.Minute)),
	}}
	token, err := gjwt.NewWithClaims(gjwt.SigningMethodHS256, claims).SignedString(testSecret)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	if _, err := m.Verify(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected wrong algorithm to be rejected, got %v", err)
	}

	issued, err := m.Mint(aliceSubject())
	if err != nil {
		t.Fatalf("ed25519 mint: %v", err)
	}
	if _, err := m.Verify(issued.Token); err != nil {
		t.Fatalf("ed25519 verify: %v", err)
	}
}

func TestVerifyRequiresSubjectAndJTI(t *testing.T) {
	m := newHSManager(t)
	claims := OperatorClaims{RegisteredClaims: gjwt.RegisteredClaims{
		Issuer:    "pinauth",
		ExpiresAt: gjwt.NewNumericDate(time.Now().Add(time.Minute)),
	}}
	token, _ := gjwt.NewWithClaims(gjwt.SigningMethodHS256, claims).SignedString(testSecret)
	if _, err := m.Verify(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected missing sub/jti to fail, got %v", err)
	}
}

func TestNewManagerValidation(t *testing.T) {
	cases := []Config{
		{TTL: 0, PrivateKey: testSecret},
		{TTL: time.Hour},
		{TTL: time.Hour, PrivateKey: testSecret, Leeway: time.Hour},
		{TTL: time.Hour, SigningMethod: MethodEd25519},
		{TTL: time.Hour, SigningMethod: "rs512", PrivateKey: testSecret},
	}
	for i, cfg := range cases {
		if _, err := NewManager(cfg); err == nil {
			t.Fatalf("case %d: expected error", i)
		}
	}
	if !WeakHMACKey([]byte("short")) || WeakHMACKey(testSecret) {
		t.Fatal("unexpected WeakHMACKey result")
	}
}

func FuzzVerify(f *testing.F) {
	m, err := NewManager(Config{TTL: time.Minute, PrivateKey: testSecret})
	if err != nil {
		f.Fatal(err)
	}
	issued, err := m.Mint(aliceSubject())
	if err != nil {
		f.Fatal(err)
	}
	f.Add(issued.Token)
	f.Add("")
	f.Add("a.b.c")
	f.Fuzz(func(t *testing.T, token string) {
		claims, err := m.Verify(token)
		if err == nil && claims.Subject == "" {
			t.Fatal("verified token without subject")
		}
	})
}
