package cli

import (
	"time"

	"golang.org/x/term"
)

const runDurationPrecision = 100 * time.Millisecond

// isTerminal checks if the given file descriptor is a terminal.
// Per-sample progress is only printed when a user is watching; in CI or
// when output is redirected the generate command stays quiet until the
// final summary line.
func isTerminal(fd uintptr) bool {
	return term.IsTerminal(int(fd))
}
