// Package middleware carries the HTTP cross-cutting gates: session
// authentication from the access token and the per-IP abuse gate. Both run
// before route handlers and short-circuit with the standard JSON envelope.
package middleware
