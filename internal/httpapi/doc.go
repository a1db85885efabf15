// Package httpapi exposes the engine over HTTP with a chi router:
// POST /auth/login, POST /auth/validate-pin, POST /auth/logout and
// GET /auth/session, plus health, readiness and metrics endpoints.
//
// Bearer routes go through middleware.Guard. PIN outcomes are always 200
// with the discriminated result body; only token and backend failures map
// to error statuses.
package httpapi
