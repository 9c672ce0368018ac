// package shared defines helpers used across the module
package shared

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
)

// NewLogger creates a new [log.Logger] writing to the specified [io.Writer],
// with timestamps and caller reporting enabled.
//
// The writer defaults to [os.Stderr]
func NewLogger(w io.Writer) *log.Logger {
	if w == nil {
		w = os.Stderr
	}
	opts := log.Options{ReportTimestamp: true, ReportCaller: true}
	return log.NewWithOptions(w, opts)
}

// GenerateID generates a new v4 [uuid.UUID] as a string
func GenerateID() string {
	return uuid.New().String()
}

// GenerateState returns a random url-safe token for OAuth2 state parameters
func GenerateState() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// MarshalJSON serializes v as JSON, indented with two spaces when indent is true
func MarshalJSON(v any, indent bool) ([]byte, error) {
	if indent {
		return json.MarshalIndent(v, "", "  ")
	}
	return json.Marshal(v)
}

// unsafe in at least one of the filesystems export files land on
const unsafeFilenameRunes = `/\:*?"<>|`

// SanitizeFilename makes a playlist display name safe to use as a file name.
//
// Control characters and path separators become underscores, leading and
// trailing dots and spaces are trimmed, and the result is capped at 150
// runes. An empty or fully-stripped name becomes "untitled".
func SanitizeFilename(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return "untitled"
	}

	var b strings.Builder
	for _, r := range name {
		if r < 0x20 || strings.ContainsRune(unsafeFilenameRunes, r) {
			b.WriteRune('_')
			continue
		}
		b.WriteRune(r)
	}

	out := strings.Trim(b.String(), " .")
	if out == "" {
		return "untitled"
	}

	if runes := []rune(out); len(runes) > 150 {
		out = string(runes[:150])
	}
	return out
}
