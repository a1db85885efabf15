// Package rate provides the Redis-backed fixed-window login limiter.
//
// # Window semantics
//
// INCR + EXPIRE on the first hit. Key prefixes:
//   - rl:login:user:{username} counts failed logins per username
//   - rl:login:ip:{ip} counts failed logins per client IP
//
// # What this package must NOT do
//
//   - Be imported outside the pinauth module.
package rate
