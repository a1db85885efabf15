package postgres

import (
	"time"

	"github.com/MrEthical07/pinauth"
)

type operatorModel struct {
	OperatorID   int64      `gorm:"column:operator_id;primaryKey"`
	Username     string     `gorm:"column:username"`
	PasswordHash string     `gorm:"column:password_hash"`
	FullName     string     `gorm:"column:full_name"`
	Email        string     `gorm:"column:email"`
	Phone        string     `gorm:"column:phone"`
	Role         string     `gorm:"column:role"`
	Active       bool       `gorm:"column:active"`
	CreatedAt    time.Time  `gorm:"column:created_at"`
	UpdatedAt    time.Time  `gorm:"column:updated_at"`
	LastLoginAt  *time.Time `gorm:"column:last_login_at"`
}

func (operatorModel) TableName() string { return "operators" }

func toOperator(m operatorModel) pinauth.Operator {
	role, ok := pinauth.ParseRole(m.Role)
	if !ok {
		role = pinauth.RoleOperator
	}
	return pinauth.Operator{
		ID:          m.OperatorID,
		Username:    m.Username,
		FullName:    m.FullName,
		Email:       m.Email,
		Phone:       m.Phone,
		Role:        role,
		Active:      m.Active,
		LastLoginAt: m.LastLoginAt,
	}
}

type auditLogModel struct {
	ID         int64     `gorm:"column:id;primaryKey"`
	OccurredAt time.Time `gorm:"column:occurred_at"`
	Action     string    `gorm:"column:action"`
	OperatorID *int64    `gorm:"column:operator_id"`
	Username   string    `gorm:"column:username"`
	EntityType string    `gorm:"column:entity_type"`
	EntityID   string    `gorm:"column:entity_id"`
	IPAddress  string    `gorm:"column:ip_address"`
	UserAgent  string    `gorm:"column:user_agent"`
	Success    bool      `gorm:"column:success"`
	ErrorCode  string    `gorm:"column:error_code"`
	Metadata   *string   `gorm:"column:metadata;type:jsonb"`
}

func (auditLogModel) TableName() string { return "audit_log" }
