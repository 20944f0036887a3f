// Package logging configures structured logging with secret redaction.
package logging

import (
	"os"
	"regexp"
	"strings"

	"github.com/rs/zerolog"
)

// secretNameRE matches environment variable names that hold secrets.
var secretNameRE = regexp.MustCompile(`.*_(?:KEY|TOKEN)$`)

/*
REDACTION DESIGN

Any log line whose substring equals the current value of an env var whose
name matches secretNameRE has that substring replaced with [REDACTED].
This mirrors a raw string replace rather than field-based scrubbing:
secrets can leak into free-form messages (error text from an upstream
provider, for instance), not just structured fields, so the filter has
to operate on the rendered line rather than on individual fields. A
zerolog.Hook cannot rewrite the message body in place, so redaction is
applied in the writer below instead.
*/

// redact replaces every occurrence of a secret-named env var's value with
// [REDACTED] in line.
func redact(line string) string {
	for _, kv := range os.Environ() {
		name, value, ok := strings.Cut(kv, "=")
		if !ok || value == "" {
			continue
		}
		if secretNameRE.MatchString(name) {
			line = strings.ReplaceAll(line, value, "[REDACTED]")
		}
	}
	return line
}

// New builds a zerolog.Logger that writes JSON to stdout with secret
// redaction applied to every rendered line.
func New(debug bool) zerolog.Logger {
	level := zerolog.InfoLevel
	if debug {
		level = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(level)

	return zerolog.New(redactWriter{os.Stdout}).
		With().
		Timestamp().
		Logger()
}

// redactWriter wraps an io.Writer and redacts secrets from every write.
type redactWriter struct {
	w *os.File
}

func (r redactWriter) Write(p []byte) (int, error) {
	cleaned := redact(string(p))
	if _, err := r.w.WriteString(cleaned); err != nil {
		return 0, err
	}
	return len(p), nil
}
