// Package credential delegates primary username/password verification to an
// external identity system.
//
// [HTTPValidator] speaks the validator's JSON contract:
//
//	POST {base}/operators/validate  {"username": "...", "password": "..."}
//	200 {"valid": true|false}
//
// with an optional X-API-Key header. [Gate] wraps a [Validator] with the
// enabled flag and the explicit fail-open/fail-closed policy.
//
// Passwords are never logged.
package credential
