// Package diagnostics provides the logger handed to every migration
// component and the append-only side-channel files (warnings, errors,
// unresolved links) written next to the output.
//
// Writes to side-channel files never fail the caller: a broken sink is
// reported once through slog and then ignored.
package diagnostics
