// Package postgres holds the relational adapters: the operator repository,
// the audit_log sink and the embedded schema migrations. Sessions live in
// session.GormRegistry and share the same pool.
package postgres
