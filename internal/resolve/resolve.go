// Package resolve implements the Command Resolver (spec §4.2): it turns a
// bare head token plus arguments into an executable Plan — an alias
// callable, or a fully-qualified argv ready for the OS.
//
// Grounded on xonsh's proc.py (_get_runnable_name, _is_binary, _un_shebang,
// get_script_subproc_command, the alias-lookup branch of get_proc).
package resolve

import (
	"bufio"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"github.com/mikaelmansson/opsh/internal/alias"
	"github.com/mikaelmansson/opsh/internal/shellenv"
	"github.com/mikaelmansson/opsh/internal/shellerr"
)

// Plan is the Command Resolver's result (spec §3 "Stage runtime object" is
// built from this): either a callable to run in-process, or a ready argv.
type Plan struct {
	Callable alias.Callable
	Argv     []string
}

// ShebangInterpreter is the module invocation used when a resolved script's
// shebang names this shell itself (xonsh's "python -m xonsh.main" rewrite).
// Exported so the CLI entrypoint can override it; defaults to this module's
// own binary invoked with no special flag.
var ShebangInterpreter = []string{"opsh"}

var shebangRe = regexp.MustCompile(`^#![ \t]*(.+)$`)

// Resolve implements the 6-step algorithm of spec §4.2.
func Resolve(tokens []string, table *alias.Table, env *shellenv.Env) (Plan, error) {
	if len(tokens) == 0 {
		return Plan{}, shellerr.New(shellerr.KindCommandNotFound, "empty command")
	}

	head, tail := tokens[0], tokens[1:]

	// Step 1: alias lookup, cycle-safe recursive expansion (delegated to
	// the alias table, which already implements the "seen" tracking).
	if res, ok, err := table.Lookup(head); ok {
		if err != nil {
			return Plan{}, err
		}
		if res.Callable != nil {
			return Plan{Callable: res.Callable, Argv: tail}, nil
		}
		tokens = append(res.Tokens, tail...)
		head, tail = tokens[0], tokens[1:]
	}

	// Step 2: an explicit path (contains a separator) is used directly.
	if head != filepath.Base(head) {
		return Plan{Argv: tokens}, nil
	}

	// Step 3: PATH search, with PATHEXT fallback on Windows.
	found := locate(head, env)
	if found == "" {
		// Step 4: no match — hand back the bare tokens so the OS spawn
		// reports command-not-found.
		return Plan{Argv: tokens}, nil
	}

	// Step 5/6: binary heuristic, PATHEXT direct-exec, shebang resolution.
	argv, err := scriptCommand(found, tail)
	if err != nil {
		return Plan{}, err
	}
	return Plan{Argv: argv}, nil
}

// PathExecutables lists every directory-entry name found on env.Path(), for
// the "did you mean" suggestion list (spec §4.12/§7) built when a command
// name resolves to neither an alias nor a PATH entry.
func PathExecutables(env *shellenv.Env) []string {
	seen := make(map[string]bool)
	var names []string
	for _, dir := range env.Path() {
		entries, err := os.ReadDir(dir)
		if err != nil {
			continue
		}
		for _, de := range entries {
			name := de.Name()
			if seen[name] {
				continue
			}
			seen[name] = true
			names = append(names, name)
		}
	}
	return names
}

func locate(name string, env *shellenv.Env) string {
	pathext := env.PathExt()
	for _, dir := range env.Path() {
		entries, err := os.ReadDir(dir)
		if err != nil {
			continue
		}
		for _, de := range entries {
			if de.Name() == name {
				return filepath.Join(dir, de.Name())
			}
			if runtime.GOOS == "windows" && len(pathext) > 0 {
				ext := filepath.Ext(de.Name())
				root := strings.TrimSuffix(de.Name(), ext)
				if root == name && hasExtCI(pathext, ext) {
					return filepath.Join(dir, de.Name())
				}
			}
		}
	}
	return ""
}

func hasExtCI(exts []string, ext string) bool {
	for _, e := range exts {
		if strings.EqualFold(e, ext) {
			return true
		}
	}
	return false
}

// isBinary reports whether the first 80 bytes of fname contain a NUL before
// a newline or EOF (spec §4.2 step 5, xonsh's _is_binary).
func isBinary(fname string) (bool, error) {
	f, err := os.Open(fname)
	if err != nil {
		return false, err
	}
	defer f.Close()

	buf := make([]byte, 80)
	n, _ := f.Read(buf)
	for i := 0; i < n; i++ {
		switch buf[i] {
		case 0:
			return true, nil
		case '\n':
			return false, nil
		}
	}
	return false, nil
}

func scriptCommand(fname string, args []string) ([]string, error) {
	info, err := os.Stat(fname)
	if err != nil {
		return nil, shellerr.New(shellerr.KindCommandNotFound, "%s: no such file or directory", fname)
	}
	if info.Mode()&0111 == 0 {
		return nil, shellerr.New(shellerr.KindPermissionDenied, "permission denied: %s", fname)
	}

	if bin, err := isBinary(fname); err == nil && bin {
		return append([]string{fname}, args...), nil
	}

	if runtime.GOOS == "windows" {
		ext := filepath.Ext(fname)
		// PATHEXT comparison happens in locate; here we only need to know
		// the extension is non-empty to treat it as directly executable.
		if ext != "" {
			return append([]string{fname}, args...), nil
		}
	}

	raw := readShebang(fname)

	var interp []string
	for _, tok := range raw {
		interp = append(interp, unShebang(tok)...)
	}
	if len(interp) == 0 {
		interp = append([]string(nil), ShebangInterpreter...)
	}

	out := append(append([]string(nil), interp...), fname)
	out = append(out, args...)
	return out, nil
}

func readShebang(fname string) []string {
	f, err := os.Open(fname)
	if err != nil {
		return ShebangInterpreter
	}
	defer f.Close()

	line, _ := bufio.NewReader(f).ReadString('\n')
	line = strings.TrimRight(line, "\r\n")

	m := shebangRe.FindStringSubmatch(line)
	if m == nil {
		return ShebangInterpreter
	}
	fields := strings.Fields(strings.TrimSpace(m[1]))
	if len(fields) == 0 {
		return ShebangInterpreter
	}
	return fields
}

// unShebang applies the interpreter-normalisation rules of spec §4.2 step 5.
func unShebang(x string) []string {
	switch {
	case x == "/usr/bin/env":
		return nil
	case strings.HasPrefix(x, "/usr/bin"), strings.HasPrefix(x, "/usr/local/bin"), strings.HasPrefix(x, "/bin"):
		x = filepath.Base(x)
	case strings.HasSuffix(x, "python"), strings.HasSuffix(x, "python.exe"):
		x = "python"
	}
	if x == "opsh" {
		return append([]string(nil), ShebangInterpreter...)
	}
	return []string{x}
}
