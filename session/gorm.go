package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// GormRegistry stores sessions in the operator_sessions table.
type GormRegistry struct {
	db  *gorm.DB
	now func() time.Time
}

func NewGormRegistry(db *gorm.DB) *GormRegistry {
	return &GormRegistry{db: db, now: time.Now}
}

func (r *GormRegistry) Create(ctx context.Context, operatorID int64, jti string, origin Origin, lifetime time.Duration) (*Record, error) {
	record, err := newRecord(operatorID, jti, origin, r.now(), lifetime)
	if err != nil {
		return nil, err
	}
	if err := r.db.WithContext(ctx).Create(record).Error; err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return record, nil
}

func (r *GormRegistry) FindActiveByJTI(ctx context.Context, jti string) (*Record, error) {
	var record Record
	err := r.db.WithContext(ctx).
		Where("token_jti = ? AND revoked = ?", jti, false).
		Take(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if !record.Active(r.now()) {
		return nil, ErrNotFound
	}
	return &record, nil
}

func (r *GormRegistry) RevokeAll(ctx context.Context, operatorID int64) (int, error) {
	res := r.revokeAllQuery(r.db.WithContext(ctx), operatorID, r.now().UTC())
	if res.Error != nil {
		return 0, fmt.Errorf("%w: %v", ErrUnavailable, res.Error)
	}
	return int(res.RowsAffected), nil
}

func (r *GormRegistry) revokeAllQuery(db *gorm.DB, operatorID int64, now time.Time) *gorm.DB {
	return db.Model(&Record{}).
		Where("operator_id = ? AND revoked = ?", operatorID, false).
		Updates(map[string]interface{}{
			"revoked":    true,
			"revoked_at": now,
		})
}

func (r *GormRegistry) DeleteExpired(ctx context.Context, cutoff time.Time) (int, error) {
	res := r.db.WithContext(ctx).
		Where("expires_at < ?", cutoff.UTC()).
		Delete(&Record{})
	if res.Error != nil {
		return 0, fmt.Errorf("%w: %v", ErrUnavailable, res.Error)
	}
	return int(res.RowsAffected), nil
}
