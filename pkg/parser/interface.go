package parser

import "context"

// LineSource provides an iterator over log lines.
// Implementations are for sequential access only.
type LineSource interface {
	// Next returns the next log line.
	// Returns io.EOF when no more lines are available.
	Next(ctx context.Context) (*LogLine, error)

	// Close releases any resources held by the source.
	Close() error
}
