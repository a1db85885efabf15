package pinhash

import (
	"errors"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestBcryptHashAndVerify(t *testing.T) {
	hasher, err := NewBcrypt(bcrypt.MinCost)
	if err != nil {
		t.Fatalf("NewBcrypt error: %v", err)
	}

	hash, err := hasher.Hash("472915")
	if err != nil {
		t.Fatalf("Hash error: %v", err)
	}
	ok, err := hasher.Verify("472915", hash)
	if err != nil || !ok {
		t.Fatalf("expected match, ok=%v err=%v", ok, err)
	}
	ok, err = hasher.Verify("000000", hash)
	if err != nil || ok {
		t.Fatalf("expected mismatch, ok=%v err=%v", ok, err)
	}
}

func TestBcryptVerifyMalformedHash(t *testing.T) {
	hasher, err := NewBcrypt(bcrypt.MinCost)
	if err != nil {
		t.Fatalf("NewBcrypt error: %v", err)
	}
	ok, err := hasher.Verify("472915", "garbage")
	if err == nil || ok {
		t.Fatalf("expected error for malformed hash, ok=%v err=%v", ok, err)
	}
}

func TestBcryptCostRange(t *testing.T) {
	if _, err := NewBcrypt(bcrypt.MaxCost + 1); err == nil {
		t.Fatal("expected out-of-range cost to fail")
	}
	h, err := NewBcrypt(0)
	if err != nil {
		t.Fatalf("NewBcrypt(0): %v", err)
	}
	if h.cost != bcrypt.DefaultCost {
		t.Fatalf("expected default cost, got %d", h.cost)
	}
}

func TestNewSelectsAlgorithm(t *testing.T) {
	h, err := New("", Options{BcryptCost: bcrypt.MinCost})
	if err != nil || h.Algorithm() != AlgorithmBcrypt {
		t.Fatalf("expected bcrypt default, got %v err=%v", h, err)
	}
	h, err = New(AlgorithmArgon2ID, Options{Argon2: fastArgon2Config()})
	if err != nil || h.Algorithm() != AlgorithmArgon2ID {
		t.Fatalf("expected argon2id, got %v err=%v", h, err)
	}
	if _, err := New("md5", Options{}); !errors.Is(err, ErrUnsupportedAlgorithm) {
		t.Fatalf("expected ErrUnsupportedAlgorithm, got %v", err)
	}
}
