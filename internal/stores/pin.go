package stores

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	pinRecordVersion1 = 1

	defaultPinPrefix = "pin:operator"
	pinMaxRetries    = 4
)

var (
	ErrPinNotFound   = errors.New("pin record not found")
	ErrPinBackend    = errors.New("pin store backend unavailable")
	ErrPinContention = errors.New("pin record contention")
)

// PinOutcome classifies a single validation attempt against a stored record.
type PinOutcome uint8

const (
	PinOutcomeExpired PinOutcome = iota
	PinOutcomeValid
	PinOutcomeInvalid
	PinOutcomeExceeded
)

// PinRecord is the persisted secondary-factor state for one operator.
type PinRecord struct {
	Hash      string
	Attempts  uint16
	CreatedAt int64 // unix millis
	ExpiresAt int64 // unix millis
}

// Expired reports whether the record's embedded deadline has passed.
func (r *PinRecord) Expired(now time.Time) bool {
	return now.UnixMilli() >= r.ExpiresAt
}

// PinCheck is the result of PinStore.Check.
type PinCheck struct {
	Outcome  PinOutcome
	Attempts int
}

// PinStore keeps one hashed PIN record per operator with a TTL.
type PinStore struct {
	redis  redis.UniversalClient
	prefix string
	now    func() time.Time
}

func NewPinStore(redisClient redis.UniversalClient, prefix string) *PinStore {
	if prefix == "" {
		prefix = defaultPinPrefix
	}
	return &PinStore{
		redis:  redisClient,
		prefix: prefix,
		now:    time.Now,
	}
}

func (s *PinStore) key(operatorID string) string {
	return s.prefix + ":" + operatorID
}

// Save replaces any prior record for operatorID.
func (s *PinStore) Save(ctx context.Context, operatorID string, record *PinRecord, ttl time.Duration) error {
	if ttl <= 0 {
		return errors.New("pin ttl must be > 0")
	}
	encoded, err := encodePinRecord(record)
	if err != nil {
		return err
	}
	if err := s.redis.Set(ctx, s.key(operatorID), encoded, ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrPinBackend, err)
	}
	return nil
}

func (s *PinStore) Get(ctx context.Context, operatorID string) (*PinRecord, error) {
	data, err := s.redis.Get(ctx, s.key(operatorID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrPinNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrPinBackend, err)
	}

	record, err := decodePinRecord(data)
	if err != nil {
		return nil, err
	}
	if record.Expired(s.now()) {
		_, _ = s.redis.Del(ctx, s.key(operatorID)).Result()
		return nil, ErrPinNotFound
	}
	return record, nil
}

// Delete is idempotent and reports whether a record was removed.
func (s *PinStore) Delete(ctx context.Context, operatorID string) (bool, error) {
	n, err := s.redis.Del(ctx, s.key(operatorID)).Result()
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrPinBackend, err)
	}
	return n > 0, nil
}

// Usable reports whether a live record exists with attempts left. A record
// at or above maxAttempts no longer authorizes anything even before its TTL.
func (s *PinStore) Usable(ctx context.Context, operatorID string, maxAttempts int) (bool, error) {
	record, err := s.Get(ctx, operatorID)
	if err != nil {
		if errors.Is(err, ErrPinNotFound) {
			return false, nil
		}
		return false, err
	}
	return int(record.Attempts) < maxAttempts, nil
}

// Check evaluates candidate against the stored record and applies the
// attempt mutation in the same WATCH/MULTI transaction. match is called with
// the stored hash and must compare in constant time.
//
// A mismatch increments the counter; the mismatch that reaches maxAttempts
// is reported as exceeded and the record is kept at the limit. A record
// already at the limit is deleted and reported as exceeded regardless of the
// candidate. A match resets the counter (or deletes the record when
// consumeOnValid is set). The remaining TTL is preserved on every in-place
// write.
func (s *PinStore) Check(
	ctx context.Context,
	operatorID string,
	maxAttempts int,
	consumeOnValid bool,
	match func(hash string) bool,
) (PinCheck, error) {
	key := s.key(operatorID)

	for i := 0; i < pinMaxRetries; i++ {
		var result PinCheck
		err := s.redis.Watch(ctx, func(tx *redis.Tx) error {
			data, err := tx.Get(ctx, key).Bytes()
			if err != nil {
				return err
			}

			record, err := decodePinRecord(data)
			if err != nil {
				return err
			}

			now := s.now()
			if record.Expired(now) {
				result = PinCheck{Outcome: PinOutcomeExpired}
				return deleteInTx(ctx, tx, key)
			}

			if int(record.Attempts) >= maxAttempts {
				result = PinCheck{Outcome: PinOutcomeExceeded, Attempts: int(record.Attempts)}
				return deleteInTx(ctx, tx, key)
			}

			if match(record.Hash) {
				result = PinCheck{Outcome: PinOutcomeValid}
				if consumeOnValid {
					return deleteInTx(ctx, tx, key)
				}
				record.Attempts = 0
			} else {
				record.Attempts++
				result = PinCheck{Outcome: PinOutcomeInvalid, Attempts: int(record.Attempts)}
				if int(record.Attempts) >= maxAttempts {
					result.Outcome = PinOutcomeExceeded
				}
			}

			ttl, err := tx.PTTL(ctx, key).Result()
			if err != nil {
				return err
			}
			if ttl <= 0 {
				ttl = time.UnixMilli(record.ExpiresAt).Sub(now)
			}
			if ttl <= 0 {
				result = PinCheck{Outcome: PinOutcomeExpired}
				return deleteInTx(ctx, tx, key)
			}

			updated, err := encodePinRecord(record)
			if err != nil {
				return err
			}
			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.Set(ctx, key, updated, ttl)
				return nil
			})
			return err
		}, key)

		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil {
			if errors.Is(err, redis.Nil) {
				return PinCheck{Outcome: PinOutcomeExpired}, nil
			}
			return PinCheck{}, fmt.Errorf("%w: %v", ErrPinBackend, err)
		}
		return result, nil
	}

	return PinCheck{}, ErrPinContention
}

func deleteInTx(ctx context.Context, tx *redis.Tx, key string) error {
	_, err := tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		return nil
	})
	return err
}

func encodePinRecord(record *PinRecord) ([]byte, error) {
	if record == nil {
		return nil, errors.New("nil pin record")
	}
	if len(record.Hash) == 0 || len(record.Hash) > 65535 {
		return nil, errors.New("invalid pin hash length")
	}

	var buf bytes.Buffer
	buf.WriteByte(pinRecordVersion1)

	if err := binary.Write(&buf, binary.BigEndian, record.Attempts); err != nil {
		return nil, err
	}
	if err := binary.Write(&buf, binary.BigEndian, record.CreatedAt); err != nil {
		return nil, err
	}
	if err := binary.Write(&buf, binary.BigEndian, record.ExpiresAt); err != nil {
		return nil, err
	}
	if err := binary.Write(&buf, binary.BigEndian, uint16(len(record.Hash))); err != nil {
		return nil, err
	}
	buf.WriteString(record.Hash)

	return buf.Bytes(), nil
}

func decodePinRecord(data []byte) (*PinRecord, error) {
	reader := bytes.NewReader(data)

	version, err := reader.ReadByte()
	if err != nil {
		return nil, err
	}
	if version != pinRecordVersion1 {
		return nil, errors.New("invalid pin record version")
	}

	record := &PinRecord{}
	if err := binary.Read(reader, binary.BigEndian, &record.Attempts); err != nil {
		return nil, err
	}
	if err := binary.Read(reader, binary.BigEndian, &record.CreatedAt); err != nil {
		return nil, err
	}
	if err := binary.Read(reader, binary.BigEndian, &record.ExpiresAt); err != nil {
		return nil, err
	}

	var hashLen uint16
	if err := binary.Read(reader, binary.BigEndian, &hashLen); err != nil {
		return nil, err
	}
	hash := make([]byte, hashLen)
	if _, err := io.ReadFull(reader, hash); err != nil {
		return nil, err
	}
	record.Hash = string(hash)

	return record, nil
}
