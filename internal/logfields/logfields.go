// Package logfields centralizes canonical slog field names so log keys do
// not drift across packages.
package logfields

import "log/slog"

// Canonical log field name constants.
const (
	KeyBuildID    = "build_id"
	KeyTemplate   = "template"
	KeyBinary     = "binary"
	KeySubcommand = "subcommand"
	KeyExitCode   = "exit_code"
	KeyStatus     = "status"
	KeyPath       = "path"
	KeyDurationMS = "duration_ms"
	KeyError      = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func BuildID(id string) slog.Attr      { return slog.String(KeyBuildID, id) }
func Template(path string) slog.Attr   { return slog.String(KeyTemplate, path) }
func Binary(bin string) slog.Attr      { return slog.String(KeyBinary, bin) }
func Subcommand(name string) slog.Attr { return slog.String(KeySubcommand, name) }
func ExitCode(code int) slog.Attr      { return slog.Int(KeyExitCode, code) }
func Status(s string) slog.Attr        { return slog.String(KeyStatus, s) }
func Path(p string) slog.Attr          { return slog.String(KeyPath, p) }
func DurationMS(ms float64) slog.Attr  { return slog.Float64(KeyDurationMS, ms) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
