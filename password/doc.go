// Package password hashes and verifies account passwords with argon2id,
// emitting and consuming PHC-formatted strings so parameters travel with
// the hash.
package password
