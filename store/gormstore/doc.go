// Package gormstore is the MySQL-backed AccountStore. Challenge updates
// write hash and expiry in a single statement, and refresh-token rotation is
// a conditional UPDATE so concurrent rotations cannot both win.
package gormstore
