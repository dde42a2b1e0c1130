// Package logging builds the diagnostic logger used by the paidlog commands.
package logging

import (
	"io"
	"log/slog"
	"net/url"
	"strings"
)

// MaskValue replaces sensitive attribute values.
const MaskValue = "***REDACTED***"

// sensitiveKeys are attribute keys whose values are never written.
var sensitiveKeys = map[string]bool{
	"token":         true,
	"authorization": true,
	"password":      true,
	"secret":        true,
	"dsn":           true,
}

// New returns a text logger writing to w. Diagnostics are reported at WARN and
// above, or at INFO and above when verbose is set.
func New(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level:       level,
		ReplaceAttr: redact,
	}))
}

// Init installs a logger from New as the process default and returns it.
func Init(w io.Writer, verbose bool) *slog.Logger {
	logger := New(w, verbose)
	slog.SetDefault(logger)
	return logger
}

// redact masks sensitive keys and strips passwords from URL-shaped values.
func redact(_ []string, a slog.Attr) slog.Attr {
	if sensitiveKeys[strings.ToLower(a.Key)] {
		return slog.String(a.Key, MaskValue)
	}
	if a.Value.Kind() == slog.KindString {
		if s, ok := RedactURL(a.Value.String()); ok {
			return slog.String(a.Key, s)
		}
	}
	return a
}

// RedactURL masks the password of a URL with userinfo, such as a database
// connection string. The second result reports whether anything was masked.
func RedactURL(s string) (string, bool) {
	if !strings.Contains(s, "://") || !strings.Contains(s, "@") {
		return s, false
	}
	u, err := url.Parse(s)
	if err != nil || u.User == nil {
		return s, false
	}
	if _, set := u.User.Password(); !set {
		return s, false
	}
	return u.Redacted(), true
}
