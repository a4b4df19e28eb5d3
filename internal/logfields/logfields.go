package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyPath       = "path"
	KeyDest       = "dest"
	KeyDocID      = "doc_id"
	KeyTarget     = "target"
	KeyHeading    = "heading"
	KeyLine       = "line"
	KeyColumn     = "column"
	KeyKey        = "key"
	KeyCount      = "count"
	KeyStage      = "stage"
	KeyStrategy   = "strategy"
	KeyRunID      = "run_id"
	KeyRevision   = "revision"
	KeyDurationMS = "duration_ms"
	KeyError      = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func Path(p string) slog.Attr         { return slog.String(KeyPath, p) }
func Dest(p string) slog.Attr         { return slog.String(KeyDest, p) }
func DocID(id string) slog.Attr       { return slog.String(KeyDocID, id) }
func Target(t string) slog.Attr       { return slog.String(KeyTarget, t) }
func Heading(h string) slog.Attr      { return slog.String(KeyHeading, h) }
func Line(n int) slog.Attr            { return slog.Int(KeyLine, n) }
func Column(n int) slog.Attr          { return slog.Int(KeyColumn, n) }
func Key(k string) slog.Attr          { return slog.String(KeyKey, k) }
func Count(n int) slog.Attr           { return slog.Int(KeyCount, n) }
func Stage(name string) slog.Attr     { return slog.String(KeyStage, name) }
func Strategy(s string) slog.Attr     { return slog.String(KeyStrategy, s) }
func RunID(id string) slog.Attr       { return slog.String(KeyRunID, id) }
func Revision(r string) slog.Attr     { return slog.String(KeyRevision, r) }
func DurationMS(ms float64) slog.Attr { return slog.Float64(KeyDurationMS, ms) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
