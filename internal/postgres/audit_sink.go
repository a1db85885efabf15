package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/MrEthical07/pinauth"
	"gorm.io/gorm"
)

// AuditSink appends audit events to the audit_log table.
type AuditSink struct {
	db *gorm.DB
}

func NewAuditSink(db *gorm.DB) *AuditSink {
	return &AuditSink{db: db}
}

func (s *AuditSink) Write(ctx context.Context, event pinauth.AuditEvent) error {
	rec, err := toAuditRow(event)
	if err != nil {
		return err
	}
	if err := s.db.WithContext(ctx).Create(&rec).Error; err != nil {
		return fmt.Errorf("insert audit row: %w", err)
	}
	return nil
}

func toAuditRow(event pinauth.AuditEvent) (auditLogModel, error) {
	rec := auditLogModel{
		OccurredAt: event.Timestamp.UTC(),
		Action:     string(event.Action),
		Username:   event.Username,
		EntityType: event.EntityType,
		EntityID:   event.EntityID,
		IPAddress:  event.IP,
		UserAgent:  event.UserAgent,
		Success:    event.Success,
		ErrorCode:  event.Error,
	}
	if event.OperatorID > 0 {
		id := event.OperatorID
		rec.OperatorID = &id
	}
	if len(event.Metadata) > 0 {
		raw, err := json.Marshal(event.Metadata)
		if err != nil {
			return auditLogModel{}, fmt.Errorf("encode audit metadata: %w", err)
		}
		meta := string(raw)
		rec.Metadata = &meta
	}
	return rec, nil
}
