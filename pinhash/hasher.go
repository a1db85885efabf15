package pinhash

import (
	"errors"
	"fmt"
)

const (
	AlgorithmBcrypt   = "bcrypt"
	AlgorithmArgon2ID = "argon2id"

	// bcrypt ignores input past 72 bytes.
	maxSecretBytes = 72
)

// ErrUnsupportedAlgorithm is returned by New for unknown algorithm names.
var ErrUnsupportedAlgorithm = errors.New("unsupported pin hash algorithm")

// Hasher produces salted one-way hashes and compares candidates in constant time.
type Hasher interface {
	Algorithm() string
	Hash(pin string) (string, error)
	Verify(pin, encoded string) (bool, error)
}

// Options selects algorithm parameters for New.
type Options struct {
	BcryptCost int
	Argon2     Argon2Config
}

// New builds a Hasher by algorithm name. An empty name selects bcrypt.
func New(algorithm string, opts Options) (Hasher, error) {
	switch algorithm {
	case "", AlgorithmBcrypt:
		return NewBcrypt(opts.BcryptCost)
	case AlgorithmArgon2ID:
		cfg := opts.Argon2
		if cfg == (Argon2Config{}) {
			cfg = DefaultArgon2Config()
		}
		return NewArgon2(cfg)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedAlgorithm, algorithm)
	}
}

func checkSecret(pin string) error {
	if pin == "" {
		return errors.New("pin must not be empty")
	}
	if len(pin) > maxSecretBytes {
		return errors.New("pin exceeds 72 bytes")
	}
	return nil
}
