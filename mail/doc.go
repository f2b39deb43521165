// Package mail renders and delivers the engine's outbound messages over
// SMTP. A log-only implementation is included for development setups
// without a mail relay.
package mail
