// Package logger is a thin wrapper around Uber's Zap configured for this
// library: JSON encoding, ISO8601 timestamps, stderr output, and service/pid
// initial fields.
//
// The adapter packages do not import this package directly; they declare a
// small local Logger interface that *logger.Logger satisfies, keeping them
// decoupled from the concrete logging stack.
package logger
