// Package xlog is a thin structured-logging layer over log/slog.
//
// # Core features
//
//   - Builder-style configuration (output, level, format, AddSource)
//   - Runtime level changes (hot level updates via Leveler)
//   - Global Logger convenience functions for small tools
//   - Attribute replacement hooks for field renaming/redaction
//
// # Creating a Logger
//
// [New] returns a [Builder]. A Set method that rejects its input records
// a configuration error, which [Builder.Build] then returns; other Set
// calls still apply, and a later rejected input replaces an earlier
// error. A Builder is single-use; call [New] again for a fresh one.
//
// # Global Logger
//
// Intended for scaffolding and small tools; servers should prefer
// dependency injection over the package-level functions.
//
//   - [Default]: lazily-initialized global Logger (stderr, Info, text)
//   - [SetDefault] / [ResetDefault]: replace or reset it (tests mostly)
//   - [Debug], [Info], [Warn], [Error], [Stack]: global convenience calls
//
// # Levels
//
// LevelDebug(-4), LevelInfo(0), LevelWarn(4), LevelError(8), matching
// slog's numbering. [ParseLevel] parses from a string; Level implements
// encoding.TextMarshaler/TextUnmarshaler so it can be read straight out
// of a config file.
//
// # Attributes
//
// [Err], [Duration], [Component], [Operation], [Count] produce the
// slog.Attr values used consistently across this module's packages.
//
// # Derived loggers
//
// [Logger.With] and [Logger.WithGroup] return [Logger], not
// [LoggerWithLevel]; the concrete implementation also satisfies
// LoggerWithLevel, reachable via a type assertion when level control on
// a derived logger is actually needed. Derived loggers share the
// parent's LevelVar, so level changes apply to all of them at once.
package xlog
