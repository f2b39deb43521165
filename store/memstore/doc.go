// Package memstore is an in-memory AccountStore for tests and examples.
// It honors the same conditional-write semantics as the durable stores,
// including the compare-and-swap refresh-token rotation.
package memstore
