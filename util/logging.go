package util

import (
	"io"
	"log"
	"os"
)

// Tracing is off by default. The language server owns stdout for its
// protocol stream, so trace output goes to stderr and nowhere else.
var tracer = log.New(io.Discard, "", log.Ltime|log.Lmicroseconds)

func EnableTracing() {
	tracer.SetOutput(os.Stderr)
}

func TraceF(format string, args ...interface{}) {
	tracer.Printf(format, args...)
}
