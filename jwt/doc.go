// Package jwt manages access- and refresh-token issuance and verification
// using two independent HMAC secrets and strict validation semantics
// suitable for low-latency authentication paths.
package jwt
