// Package httpapi exposes the engine under /api/v1/user. Every response
// uses one JSON envelope shape; engine errors map onto a fixed status
// taxonomy, and validation failures carry a per-field message map.
package httpapi
