package logger

import (
	"fmt"
	"log"
	"os"
	"regexp"
)

// DefaultLogger writes through the standard library's log package,
// tagging every line with a level and an optional component name
// (set via Named) so a job's lines can be told apart in a shared
// process log.
type DefaultLogger struct {
	component string
}

// Default is the package-wide logger with no component tag.
var Default = &DefaultLogger{}

// Named returns a logger that prefixes every line with name, e.g.
// logger.Default.Named("planner").
func (d *DefaultLogger) Named(name string) Logger {
	if d.component == "" {
		return &DefaultLogger{component: name}
	}
	return &DefaultLogger{component: d.component + "." + name}
}

var urlRegex = regexp.MustCompile(`[a-zA-Z][a-zA-Z0-9+.-]*:\/\/[a-zA-Z0-9+%/.\-:_?&=#@+]+`)

func cleanString(text string) string {
	return urlRegex.ReplaceAllString(text, "[redacted url]")
}

func (d *DefaultLogger) tag(level, format string) string {
	if d.component != "" {
		return fmt.Sprintf("[%s] (%s) %s", level, d.component, format)
	}
	return fmt.Sprintf("[%s] %s", level, format)
}

func safeString(s string) string {
	if os.Getenv("SAFE_LOGS") == "true" {
		return cleanString(s)
	}
	return s
}

func (d *DefaultLogger) Log(format string) {
	log.Println(safeString(d.tag("INFO", format)))
}

func (d *DefaultLogger) Logf(format string, v ...any) {
	log.Println(safeString(d.tag("INFO", fmt.Sprintf(format, v...))))
}

func (d *DefaultLogger) Debug(format string) {
	if os.Getenv("DEBUG") == "true" {
		log.Println(safeString(d.tag("DEBUG", format)))
	}
}

func (d *DefaultLogger) Debugf(format string, v ...any) {
	if os.Getenv("DEBUG") == "true" {
		log.Println(safeString(d.tag("DEBUG", fmt.Sprintf(format, v...))))
	}
}

func (d *DefaultLogger) Error(format string) {
	log.Println(safeString(d.tag("ERROR", format)))
}

func (d *DefaultLogger) Errorf(format string, v ...any) {
	log.Println(safeString(d.tag("ERROR", fmt.Sprintf(format, v...))))
}

func (d *DefaultLogger) Warn(format string) {
	log.Println(safeString(d.tag("WARN", format)))
}

func (d *DefaultLogger) Warnf(format string, v ...any) {
	log.Println(safeString(d.tag("WARN", fmt.Sprintf(format, v...))))
}

func (d *DefaultLogger) Fatal(format string) {
	log.Fatal(safeString(d.tag("FATAL", format)))
}

func (d *DefaultLogger) Fatalf(format string, v ...any) {
	log.Fatal(safeString(d.tag("FATAL", fmt.Sprintf(format, v...))))
}
