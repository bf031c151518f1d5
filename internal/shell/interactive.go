package shell

import (
	"os"

	"golang.org/x/term"
)

// IsInteractive reports whether f is attached to a terminal, the way the
// driver decides between launching the readline REPL loop and reading a
// script line-by-line from a pipe or redirected file.
func IsInteractive(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
