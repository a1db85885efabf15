package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/MrEthical07/pinauth"
	"gorm.io/gorm"
)

// OperatorRepository reads operators from the operators table. It implements
// pinauth.OperatorProvider.
type OperatorRepository struct {
	db *gorm.DB
}

func NewOperatorRepository(db *gorm.DB) *OperatorRepository {
	return &OperatorRepository{db: db}
}

func (r *OperatorRepository) GetOperatorByUsername(ctx context.Context, username string) (pinauth.Operator, error) {
	var rec operatorModel
	err := r.byUsernameQuery(r.db.WithContext(ctx), username).Take(&rec).Error
	if err != nil {
		return pinauth.Operator{}, mapLookupError(err)
	}
	return toOperator(rec), nil
}

func (r *OperatorRepository) GetOperatorByID(ctx context.Context, operatorID int64) (pinauth.Operator, error) {
	var rec operatorModel
	err := r.db.WithContext(ctx).Where("operator_id = ?", operatorID).Take(&rec).Error
	if err != nil {
		return pinauth.Operator{}, mapLookupError(err)
	}
	return toOperator(rec), nil
}

func (r *OperatorRepository) UpdateLastLogin(ctx context.Context, operatorID int64, at time.Time) error {
	res := r.lastLoginQuery(r.db.WithContext(ctx), operatorID, at.UTC())
	if res.Error != nil {
		return fmt.Errorf("%w: %v", pinauth.ErrTransportFailure, res.Error)
	}
	if res.RowsAffected == 0 {
		return pinauth.ErrOperatorNotFound
	}
	return nil
}

func (r *OperatorRepository) byUsernameQuery(db *gorm.DB, username string) *gorm.DB {
	return db.Where("username = ?", strings.TrimSpace(username))
}

func (r *OperatorRepository) lastLoginQuery(db *gorm.DB, operatorID int64, at time.Time) *gorm.DB {
	return db.Model(&operatorModel{}).
		Where("operator_id = ?", operatorID).
		Updates(map[string]interface{}{
			"last_login_at": at,
			"updated_at":    at,
		})
}

func mapLookupError(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pinauth.ErrOperatorNotFound
	}
	return fmt.Errorf("%w: %v", pinauth.ErrTransportFailure, err)
}
