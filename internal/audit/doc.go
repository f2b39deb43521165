// Package audit provides the asynchronous security-event pipeline: a
// bounded dispatcher goroutine and pluggable sinks. Emission never blocks a
// flow when DropIfFull is set; dropped events are counted, not logged.
package audit
