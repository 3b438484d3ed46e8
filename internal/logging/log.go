// Package logging provides the small component-prefix wrapper around the
// standard log package the rest of this service uses, matching the
// teacher's habit of calling log.Printf/log.Fatalf directly rather than
// reaching for a structured-logging library.
package logging

import "log"

// Logger prefixes every line with a component tag, e.g. "[poller]".
type Logger struct {
	prefix string
}

// New returns a Logger tagging its output with component.
func New(component string) *Logger {
	return &Logger{prefix: "[" + component + "] "}
}

func (l *Logger) Printf(format string, args ...interface{}) {
	log.Printf(l.prefix+format, args...)
}

func (l *Logger) Println(args ...interface{}) {
	log.Println(append([]interface{}{l.prefix}, args...)...)
}
