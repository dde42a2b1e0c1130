package idstore

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// DefaultQuery selects identifiers and payment methods from SQL sources.
const DefaultQuery = "SELECT id, payment_method FROM payments"

// Minimum number of fields in a CSV row, and the indexes of the fields used.
const (
	csvMinFields   = 3
	csvMethodField = 1
	csvIDField     = 2
)

type options struct {
	format       Format
	query        string
	trackMethods bool
	logger       *slog.Logger
}

// Option configures how an identifier source is loaded.
type Option func(*options)

// WithFormat forces a source format instead of detecting it from the source.
func WithFormat(f Format) Option {
	return func(o *options) {
		if f != "" {
			o.format = f
		}
	}
}

// WithQuery sets the SQL query used for SQLite and Postgres sources.
func WithQuery(q string) Option {
	return func(o *options) {
		if q != "" {
			o.query = q
		}
	}
}

// WithPaymentMethods enables or disables payment-method tracking.
// When disabled, the store is identifier-only regardless of the source format.
func WithPaymentMethods(enabled bool) Option {
	return func(o *options) {
		o.trackMethods = enabled
	}
}

// WithLogger sets the logger used for per-row warnings.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

func newOptions(opts []Option) *options {
	o := &options{
		format:       FormatAuto,
		query:        DefaultQuery,
		trackMethods: true,
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Load reads the identifier source and returns a populated store.
// A source that cannot be opened is an error; invalid rows are skipped with a warning.
func Load(ctx context.Context, source string, opts ...Option) (*Store, error) {
	o := newOptions(opts)

	format := o.format
	if format == FormatAuto {
		format = DetectFormat(source)
	}

	switch format {
	case FormatSQLite:
		return loadSQLite(ctx, source, o)
	case FormatPostgres:
		return loadPostgres(ctx, source, o)
	case FormatPlain, FormatCSV:
		f, err := os.Open(source) // #nosec G304 -- user-provided paths are expected
		if err != nil {
			return nil, fmt.Errorf("opening identifier file: %w", err)
		}
		defer f.Close()

		store, err := loadReader(f, format, o)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", source, err)
		}
		return store, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

// LoadReader parses plain or CSV identifiers from r.
func LoadReader(r io.Reader, format Format, opts ...Option) (*Store, error) {
	return loadReader(r, format, newOptions(opts))
}

func loadReader(r io.Reader, format Format, o *options) (*Store, error) {
	switch format {
	case FormatPlain:
		return readPlain(r)
	case FormatCSV:
		return readCSV(r, o)
	default:
		return nil, fmt.Errorf("%w: %q cannot be read from a stream", ErrUnknownFormat, format)
	}
}

// eachLine calls fn with every line of r and its 1-based line number. Line
// endings are stripped; a final line without a newline is still delivered.
func eachLine(r io.Reader, fn func(num int, line string)) error {
	br := bufio.NewReader(r)
	for num := 1; ; num++ {
		line, err := br.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return err
		}
		if line == "" && err != nil {
			return nil
		}
		fn(num, strings.TrimRight(line, "\r\n"))
		if err != nil {
			return nil
		}
	}
}

func readPlain(r io.Reader) (*Store, error) {
	store := New(KindIdentifiersOnly)

	err := eachLine(r, func(_ int, line string) {
		if id := strings.TrimSpace(line); id != "" {
			store.Add(id, MethodUnknown)
		}
	})
	if err != nil {
		return nil, err
	}

	return store, nil
}

// readCSV treats every physical line as one comma-separated row. Quotes carry
// no meaning, so a stray quote can only affect its own row.
func readCSV(r io.Reader, o *options) (*Store, error) {
	store := New(storeKind(o))

	err := eachLine(r, func(row int, line string) {
		fields := strings.Split(line, ",")
		if len(fields) < csvMinFields {
			o.logger.Warn("ignoring invalid CSV row",
				"row", row,
				"fields", len(fields),
				"line", line)
			return
		}

		id := strings.TrimSpace(fields[csvIDField])
		if id == "" {
			o.logger.Warn("ignoring CSV row without identifier", "row", row)
			return
		}
		store.Add(id, PaymentMethod(strings.TrimSpace(fields[csvMethodField])))
	})
	if err != nil {
		return nil, err
	}

	return store, nil
}

func storeKind(o *options) Kind {
	if o.trackMethods {
		return KindWithMethods
	}
	return KindIdentifiersOnly
}
