// Package jwt mints and verifies operator session tokens.
//
// A token carries sub (operator id), jti (session correlation id), username,
// role, email, iat and exp. Verification pins the configured algorithm,
// requires exp, and wraps every failure in [ErrInvalidToken].
package jwt
