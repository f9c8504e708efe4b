package common

import (
	"fmt"
	"os"
	"runtime"

	"github.com/ternarybob/arbor"
)

// Recover logs a panic with its stack trace and lets the caller keep running.
// It must be deferred directly:
//
//	defer common.Recover(logger, "scheduled run")
func Recover(logger arbor.ILogger, name string) {
	r := recover()
	if r == nil {
		return
	}

	buf := make([]byte, 4096)
	n := runtime.Stack(buf, false)
	stack := string(buf[:n])

	if logger == nil {
		fmt.Fprintf(os.Stderr, "PANIC in %s: %v\n%s\n", name, r, stack)
		return
	}
	logger.Error().
		Str("source", name).
		Str("panic", fmt.Sprintf("%v", r)).
		Str("stack", stack).
		Msg("Recovered from panic")
}
