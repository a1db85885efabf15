package pinhash

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// Bcrypt hashes PINs with golang.org/x/crypto/bcrypt.
type Bcrypt struct {
	cost int
}

// NewBcrypt falls back to bcrypt.DefaultCost when cost is zero.
func NewBcrypt(cost int) (*Bcrypt, error) {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return nil, errors.New("bcrypt cost out of range")
	}
	return &Bcrypt{cost: cost}, nil
}

func (b *Bcrypt) Algorithm() string { return AlgorithmBcrypt }

func (b *Bcrypt) Hash(pin string) (string, error) {
	if err := checkSecret(pin); err != nil {
		return "", err
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(pin), b.cost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

func (b *Bcrypt) Verify(pin, encoded string) (bool, error) {
	if err := checkSecret(pin); err != nil {
		return false, nil
	}
	err := bcrypt.CompareHashAndPassword([]byte(encoded), []byte(pin))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return false, nil
	}
	return false, err
}
