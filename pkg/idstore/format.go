package idstore

import (
	"errors"
	"fmt"
	"strings"
)

// Format selects how an identifier source is parsed.
type Format string

const (
	FormatAuto     Format = "auto"
	FormatPlain    Format = "plain"
	FormatCSV      Format = "csv"
	FormatSQLite   Format = "sqlite"
	FormatPostgres Format = "postgres"
)

// ErrUnknownFormat is returned for an unsupported identifier source format.
var ErrUnknownFormat = errors.New("unknown identifier source format")

// ParseFormat converts a user-supplied format name. An empty name means FormatAuto.
func ParseFormat(name string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(name))); f {
	case "":
		return FormatAuto, nil
	case FormatAuto, FormatPlain, FormatCSV, FormatSQLite, FormatPostgres:
		return f, nil
	default:
		return "", fmt.Errorf("%w: %q (use auto, plain, csv, sqlite, or postgres)", ErrUnknownFormat, name)
	}
}

// DetectFormat picks a format from the shape of the source string:
// postgres DSNs, SQLite database files, .csv files, and plain text otherwise.
// URL schemes match in any case; file extensions match exactly, so
// "IDS.CSV" is read as plain text.
func DetectFormat(source string) Format {
	lower := strings.ToLower(source)
	switch {
	case strings.HasPrefix(lower, "postgres://"), strings.HasPrefix(lower, "postgresql://"):
		return FormatPostgres
	case strings.HasPrefix(lower, sqliteScheme),
		strings.HasSuffix(source, ".db"),
		strings.HasSuffix(source, ".sqlite"),
		strings.HasSuffix(source, ".sqlite3"):
		return FormatSQLite
	case strings.HasSuffix(source, ".csv"):
		return FormatCSV
	default:
		return FormatPlain
	}
}
