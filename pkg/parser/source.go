package parser

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
)

// MaxLineSize bounds the part of a log line that is kept. Structured access
// logs can carry large JSON payloads, so this is well above bufio's default.
// Longer lines are truncated rather than treated as read errors.
const MaxLineSize = 8 * 1024 * 1024

// lineReader numbers the lines of a single stream.
type lineReader struct {
	reader  *bufio.Reader
	source  string
	lineNum int
}

func newLineReader(r io.Reader, source string) *lineReader {
	return &lineReader{reader: bufio.NewReaderSize(r, 64*1024), source: source}
}

func (lr *lineReader) next() (*LogLine, error) {
	var buf []byte
	truncated := false
	started := false

	for {
		chunk, isPrefix, err := lr.reader.ReadLine()
		if err != nil {
			if errors.Is(err, io.EOF) && started {
				break
			}
			if errors.Is(err, io.EOF) {
				return nil, io.EOF
			}
			return nil, fmt.Errorf("reading %s: %w", lr.source, err)
		}
		started = true

		room := MaxLineSize - len(buf)
		if len(chunk) > room {
			chunk = chunk[:room]
			truncated = true
		}
		buf = append(buf, chunk...)

		if !isPrefix {
			break
		}
	}

	lr.lineNum++
	return &LogLine{
		Content:   string(buf),
		Source:    lr.source,
		LineNum:   lr.lineNum,
		Truncated: truncated,
	}, nil
}

// FileSource implements LineSource over one or more log files read in order.
type FileSource struct {
	files []string

	currentFile   *os.File
	currentReader *lineReader
	fileIndex     int
}

// NewFileSource creates a LineSource that reads the given files one after another.
func NewFileSource(files []string) *FileSource {
	return &FileSource{
		files:     files,
		fileIndex: -1,
	}
}

// Next returns the next line across all files.
// Returns io.EOF when all files have been exhausted.
func (s *FileSource) Next(ctx context.Context) (*LogLine, error) {
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		if s.currentReader == nil {
			if err := s.openNextFile(); err != nil {
				return nil, err
			}
		}

		line, err := s.currentReader.next()
		if err == nil {
			return line, nil
		}
		if err != io.EOF {
			return nil, err
		}

		// Current file exhausted, try next
		if err := s.closeCurrentFile(); err != nil {
			return nil, err
		}
	}
}

// Close releases resources.
func (s *FileSource) Close() error {
	return s.closeCurrentFile()
}

func (s *FileSource) openNextFile() error {
	s.fileIndex++
	if s.fileIndex >= len(s.files) {
		return io.EOF
	}

	path := s.files[s.fileIndex]
	f, err := os.Open(path) // #nosec G304 -- user-provided paths are expected
	if err != nil {
		return fmt.Errorf("opening log file %s: %w", path, err)
	}

	s.currentFile = f
	s.currentReader = newLineReader(f, path)
	return nil
}

func (s *FileSource) closeCurrentFile() error {
	s.currentReader = nil
	if s.currentFile != nil {
		err := s.currentFile.Close()
		s.currentFile = nil
		return err
	}
	return nil
}

// ReaderSource implements LineSource over an already open stream such as
// standard input. Close does not close the underlying reader.
type ReaderSource struct {
	reader *lineReader
}

// NewReaderSource creates a LineSource reading lines from r.
func NewReaderSource(r io.Reader, name string) *ReaderSource {
	return &ReaderSource{reader: newLineReader(r, name)}
}

// Next returns the next line of the stream, or io.EOF at its end.
func (s *ReaderSource) Next(ctx context.Context) (*LogLine, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}
	return s.reader.next()
}

// Close is a no-op.
func (s *ReaderSource) Close() error {
	return nil
}

// Open returns a LineSource for the given files, or for stdin when files is empty.
func Open(files []string, stdin io.Reader) LineSource {
	if len(files) == 0 {
		return NewReaderSource(stdin, StdinName)
	}
	return NewFileSource(files)
}
