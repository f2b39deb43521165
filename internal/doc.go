// Package internal holds crypto/rand credential generation shared by the
// root engine: opaque temporary tokens, their sha-256 at-rest digests, and
// numeric one-time codes.
package internal
