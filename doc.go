// Package authgate provides the credential lifecycle engine behind the user
// service: account registration with email verification, JWT access tokens,
// single-active rotating refresh tokens with reuse detection, an OTP-driven
// password reset flow, and a request-rate abuse guard with temporary IP blocks.
//
// The package is designed for concurrent server workloads: Engine methods are
// safe to call from multiple goroutines after initialization through
// [Builder.Build].
//
// # Architecture boundaries
//
// authgate is the public surface. It exposes [Engine], [Builder], [Config],
// the [AccountStore], [Mailer], and [FileStore] collaborator contracts, and
// value types (Account, PublicAccount, TokenPair). Rate limiting, audit
// dispatch, and token generation live under internal/ and are never exported.
//
// # What this package must NOT do
//
//   - Expose Redis clients, store handles, or hashing details in its public API.
//   - Persist any single-use token in plaintext: only sha-256 digests are
//     handed to the [AccountStore].
//   - Block a flow on outbound mail: delivery failures are logged and swallowed.
//
// # Concurrency contract
//
// Refresh rotation is a compare-and-swap against the stored refresh token; two
// concurrent refreshes presenting the same token resolve to exactly one winner.
// The abuse guard's per-IP counter increments atomically in Redis.
package authgate
