// Package rate implements the Redis-backed state behind the abuse guard:
// per-IP sliding-window request counters and blocked-IP records.
//
// # Architecture boundaries
//
// This package owns key layout and Redis operations only. Threshold policy
// (when to block, for how long) belongs to the root AbuseGuard.
//
// # What this package must NOT do
//
//   - Import the root authgate package (no upward imports).
//   - Delete block records: a past blockedUntil value means "not blocked";
//     records are superseded on the next block, never evicted.
package rate
