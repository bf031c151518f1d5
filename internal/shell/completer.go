package shell

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/chzyer/readline"

	"github.com/mikaelmansson/opsh/internal/shellctx"
)

// Completer provides tab completion for the shell: command-name completion
// against the alias table and PATH executables for the first word, local
// filesystem completion for everything after.
type Completer struct {
	Ctx *shellctx.Context
}

// Do implements readline.AutoCompleter.
func (c *Completer) Do(line []rune, pos int) (newLine [][]rune, length int) {
	lineStr := string(line[:pos])
	words := strings.Fields(lineStr)

	if len(words) == 0 || (len(words) == 1 && !strings.HasSuffix(lineStr, " ")) {
		prefix := ""
		if len(words) == 1 {
			prefix = words[0]
		}
		return c.completeCommand(prefix)
	}

	lastSpace := strings.LastIndex(lineStr, " ")
	partial := ""
	if lastSpace < len(lineStr)-1 {
		partial = lineStr[lastSpace+1:]
	}

	return c.completePath(partial)
}

// completeCommand returns matching alias names and PATH executable names.
func (c *Completer) completeCommand(prefix string) ([][]rune, int) {
	seen := make(map[string]bool)
	var matches []string

	for _, name := range c.Ctx.Aliases.Names() {
		if strings.HasPrefix(name, prefix) && !seen[name] {
			matches = append(matches, name)
			seen[name] = true
		}
	}

	for _, dir := range c.Ctx.Env.Path() {
		entries, err := os.ReadDir(dir)
		if err != nil {
			continue
		}
		for _, e := range entries {
			name := e.Name()
			if !strings.HasPrefix(name, prefix) || seen[name] {
				continue
			}
			info, err := e.Info()
			if err != nil || info.Mode()&0111 == 0 {
				continue
			}
			matches = append(matches, name)
			seen[name] = true
		}
	}

	sort.Strings(matches)

	result := make([][]rune, len(matches))
	for i, m := range matches {
		result[i] = []rune(m[len(prefix):] + " ")
	}
	return result, len(prefix)
}

// completePath returns matching file/directory names under the shell's
// current working directory.
func (c *Completer) completePath(partial string) ([][]rune, int) {
	var searchDir, searchPrefix string

	switch {
	case partial == "":
		searchDir = c.Ctx.CWD()
	case strings.HasSuffix(partial, "/"):
		searchDir = c.resolvePath(partial)
	default:
		searchDir = c.resolvePath(filepath.Dir(partial))
		searchPrefix = filepath.Base(partial)
	}

	entries, err := os.ReadDir(searchDir)
	if err != nil {
		return nil, 0
	}

	var matches []string
	for _, e := range entries {
		name := e.Name()
		if !strings.HasPrefix(strings.ToLower(name), strings.ToLower(searchPrefix)) {
			continue
		}
		if e.IsDir() {
			matches = append(matches, name+"/")
		} else {
			matches = append(matches, name)
		}
	}
	sort.Strings(matches)

	result := make([][]rune, len(matches))
	for i, m := range matches {
		suffix := m[len(searchPrefix):]
		if !strings.HasSuffix(suffix, "/") {
			suffix += " "
		}
		result[i] = []rune(suffix)
	}
	return result, len(searchPrefix)
}

// resolvePath resolves p (possibly relative, possibly with a trailing
// slash) against the shell's current working directory.
func (c *Completer) resolvePath(p string) string {
	p = strings.TrimSuffix(p, "/")
	if p == "" {
		return c.Ctx.CWD()
	}
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	return filepath.Clean(filepath.Join(c.Ctx.CWD(), p))
}

// NewCompleter creates a readline.AutoCompleter bound to ctx.
func NewCompleter(ctx *shellctx.Context) readline.AutoCompleter {
	return &Completer{Ctx: ctx}
}
