// Package logging provides concrete implementations of the transitload.Logger interface.
//
// Available implementations:
//   - ConsoleLogger: Writes prefixed, line-oriented messages to stderr
//   - ZapLogger: Emits JSON records through zap, tagged with the run id
//   - NullLogger: Discards all messages (useful for testing)
//
// All logger implementations are safe for concurrent use by multiple goroutines.
package logging
