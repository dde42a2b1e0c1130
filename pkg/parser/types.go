// Package parser streams raw log lines from files or standard input.
package parser

// LogLine is one raw line of an access log.
type LogLine struct {
	// Content is the raw line text without the trailing newline.
	Content string

	// Source is the file path this line came from ("-" for standard input).
	Source string

	// LineNum is the 1-based line number in the source.
	LineNum int

	// Truncated is set when the line was longer than MaxLineSize and only
	// its first MaxLineSize bytes are in Content.
	Truncated bool
}

// StdinName is the source name used for standard input.
const StdinName = "-"
