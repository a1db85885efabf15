// Package pinhash implements salted one-way hashing for issued PINs.
//
// Two algorithms are available behind the [Hasher] interface:
//
//   - bcrypt (default), via golang.org/x/crypto/bcrypt
//   - argon2id, encoded as a PHC string
//
// Verification compares in constant time and never reports a malformed hash
// as a match.
//
// # What this package must NOT do
//
//   - Store PINs or hashes.
//   - Import any other pinauth package.
//   - Log plaintext PINs.
package pinhash
