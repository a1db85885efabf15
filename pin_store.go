package pinauth

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/MrEthical07/pinauth/internal"
	"github.com/MrEthical07/pinauth/internal/stores"
	"github.com/MrEthical07/pinauth/pinhash"
	"github.com/redis/go-redis/v9"
)

// pinStore pairs the Redis record store with the configured hasher. The
// plaintext PIN exists only in Issue's return value.
type pinStore struct {
	records        *stores.PinStore
	hasher         pinhash.Hasher
	ttl            time.Duration
	maxAttempts    int
	consumeOnValid bool
	now            func() time.Time
}

func newPinStore(redisClient redis.UniversalClient, cfg PinConfig) (*pinStore, error) {
	hasher, err := pinhash.New(cfg.HashAlgorithm, pinhash.Options{
		BcryptCost: cfg.BcryptCost,
		Argon2:     cfg.Argon2,
	})
	if err != nil {
		return nil, err
	}
	return &pinStore{
		records:        stores.NewPinStore(redisClient, cfg.KeyPrefix),
		hasher:         hasher,
		ttl:            cfg.TTL,
		maxAttempts:    cfg.MaxAttempts,
		consumeOnValid: cfg.ConsumeOnValid,
		now:            time.Now,
	}, nil
}

// Issue generates a PIN and stores its hash, replacing any prior record for
// the operator.
func (p *pinStore) Issue(ctx context.Context, operatorID int64) (string, time.Time, error) {
	pin, err := internal.NewPIN()
	if err != nil {
		return "", time.Time{}, err
	}
	expiresAt, err := p.Store(ctx, operatorID, pin)
	if err != nil {
		return "", time.Time{}, err
	}
	return pin, expiresAt, nil
}

// Store writes a fresh record with attempts=0 and expiry now+TTL.
func (p *pinStore) Store(ctx context.Context, operatorID int64, pin string) (time.Time, error) {
	hash, err := p.hasher.Hash(pin)
	if err != nil {
		return time.Time{}, err
	}

	now := p.now()
	expiresAt := now.Add(p.ttl)
	record := &stores.PinRecord{
		Hash:      hash,
		CreatedAt: now.UnixMilli(),
		ExpiresAt: expiresAt.UnixMilli(),
	}
	if err := p.records.Save(ctx, pinKey(operatorID), record, p.ttl); err != nil {
		return time.Time{}, mapPinStoreError(err)
	}
	return expiresAt, nil
}

// Check validates candidate and applies the attempt mutation atomically.
// Candidates that cannot be hashed count as a mismatch.
func (p *pinStore) Check(ctx context.Context, operatorID int64, candidate string) (stores.PinCheck, error) {
	match := func(hash string) bool {
		ok, err := p.hasher.Verify(candidate, hash)
		return err == nil && ok
	}
	check, err := p.records.Check(ctx, pinKey(operatorID), p.maxAttempts, p.consumeOnValid, match)
	if err != nil {
		return stores.PinCheck{}, mapPinStoreError(err)
	}
	return check, nil
}

func (p *pinStore) Delete(ctx context.Context, operatorID int64) error {
	if _, err := p.records.Delete(ctx, pinKey(operatorID)); err != nil {
		return mapPinStoreError(err)
	}
	return nil
}

// Active reports whether the operator holds a PIN record that can still be
// validated: present, unexpired and below the attempt ceiling.
func (p *pinStore) Active(ctx context.Context, operatorID int64) (bool, error) {
	ok, err := p.records.Usable(ctx, pinKey(operatorID), p.maxAttempts)
	if err != nil {
		return false, mapPinStoreError(err)
	}
	return ok, nil
}

func pinKey(operatorID int64) string {
	return strconv.FormatInt(operatorID, 10)
}

func mapPinStoreError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, stores.ErrPinBackend) || errors.Is(err, stores.ErrPinContention) {
		return fmt.Errorf("%w: %v", ErrPinStoreUnavailable, err)
	}
	return err
}

func pinOutcomeFromStore(o stores.PinOutcome) PinOutcome {
	switch o {
	case stores.PinOutcomeValid:
		return PinValid
	case stores.PinOutcomeInvalid:
		return PinInvalid
	case stores.PinOutcomeExceeded:
		return PinAttemptsExceeded
	default:
		return PinExpired
	}
}
