package flows

import (
	"context"
	"time"
)

// Deps groups flow dependency sets. The root engine builds this once and
// delegates request methods to the matching flow implementation.
type Deps struct {
	Login   LoginDeps
	Pin     PinDeps
	Logout  LogoutDeps
	Session SessionCheckDeps
	Token   TokenDeps
}

// OperatorRecord is the flow-local operator model.
type OperatorRecord struct {
	ID       int64
	Username string
	FullName string
	Email    string
	Phone    string
	Role     string
	Active   bool
}

// AuditEntry is what a flow hands to EmitAudit. The engine stamps the
// timestamp and origin before dispatch.
type AuditEntry struct {
	Action     string
	Success    bool
	OperatorID int64
	Username   string
	EntityType string
	EntityID   string
	Err        error
	Metadata   map[string]string
}

// Common carries the hooks every flow uses.
type Common struct {
	Now       func() time.Time
	MetricInc func(int)
	MetricAdd func(int, uint64)
	EmitAudit func(context.Context, AuditEntry)
	Warn      func(context.Context, string, ...any)
}

func (c *Common) fill() {
	if c.Now == nil {
		c.Now = time.Now
	}
	if c.MetricInc == nil {
		c.MetricInc = func(int) {}
	}
	if c.MetricAdd == nil {
		c.MetricAdd = func(int, uint64) {}
	}
	if c.EmitAudit == nil {
		c.EmitAudit = func(context.Context, AuditEntry) {}
	}
	if c.Warn == nil {
		c.Warn = func(context.Context, string, ...any) {}
	}
}
