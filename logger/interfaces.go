// Package logger provides the small logging capability the download
// engine depends on. Components take a Logger rather than reaching for
// the log package directly, so tests can swap in a silent stub.
package logger

// Logger is the capability every engine component logs through.
type Logger interface {
	// Named returns a logger that prefixes every line with name,
	// nesting under any component name it already carries.
	Named(name string) Logger

	Log(format string)
	Logf(format string, v ...any)

	Warn(format string)
	Warnf(format string, v ...any)

	Debug(format string)
	Debugf(format string, v ...any)

	Error(format string)
	Errorf(format string, v ...any)

	Fatal(format string)
	Fatalf(format string, v ...any)
}
