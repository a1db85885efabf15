package session

import "time"

// Record is one issued session token. TokenJTI is unique across records.
type Record struct {
	ID         string     `gorm:"column:session_id;primaryKey;type:uuid"`
	OperatorID int64      `gorm:"column:operator_id;not null;index"`
	TokenJTI   string     `gorm:"column:token_jti;not null;uniqueIndex"`
	IPAddress  string     `gorm:"column:ip_address"`
	UserAgent  string     `gorm:"column:user_agent"`
	CreatedAt  time.Time  `gorm:"column:created_at;not null"`
	ExpiresAt  time.Time  `gorm:"column:expires_at;not null"`
	Revoked    bool       `gorm:"column:revoked;not null;default:false"`
	RevokedAt  *time.Time `gorm:"column:revoked_at"`
}

func (Record) TableName() string {
	return "operator_sessions"
}

// Active reports whether the record is neither revoked nor expired at now.
func (r *Record) Active(now time.Time) bool {
	return !r.Revoked && now.Before(r.ExpiresAt)
}

// Origin is the caller metadata captured at login.
type Origin struct {
	IPAddress string
	UserAgent string
}
