// Package alias implements the Alias Table (spec §4.5): a mapping from
// command name to either a token list or a Callable, with recursive,
// cycle-safe expansion and partial application.
//
// Grounded on xonsh's built_ins.py Aliases class (get/eval_alias).
package alias

import (
	"io"
	"strings"
	"sync"

	"github.com/mikaelmansson/opsh/internal/procproxy"
	"github.com/mikaelmansson/opsh/internal/shellerr"
)

// Callable is whichever of the two proc-proxy shapes (spec §4.3) an alias
// value holds: a procproxy.FourArg or a procproxy.Simple function value. The
// Command Resolver/Pipeline Builder dispatch on which concrete type it finds,
// the same way xonsh's get_proc counts the callable's parameter arity.
type Callable any

// Entry is the one-of held per alias key: either a token list (subject to
// further recursive expansion) or a callable.
type Entry struct {
	Tokens   []string
	Callable Callable
}

func isCallable(e Entry) bool { return e.Callable != nil }

// Table is the alias table (spec §4.5), safe for concurrent use: proc-proxy
// callables may register or rebind aliases mid-pipeline (spec §5).
type Table struct {
	mu  sync.RWMutex
	raw map[string]Entry
}

func NewTable() *Table {
	return &Table{raw: make(map[string]Entry)}
}

// SetTokens registers a word-split entry, as if the user wrote `name=value`
// with value a plain string (spec: "inserting a string value implies
// word-splitting by shell rules").
func (t *Table) SetTokens(name string, tokens ...string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.raw[name] = Entry{Tokens: append([]string(nil), tokens...)}
}

// SetCallable registers a callable alias.
func (t *Table) SetCallable(name string, fn Callable) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.raw[name] = Entry{Callable: fn}
}

// Delete removes an alias.
func (t *Table) Delete(name string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.raw, name)
}

// Has reports whether name is a registered alias (not recursively resolved).
func (t *Table) Has(name string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	_, ok := t.raw[name]
	return ok
}

// Names returns the registered alias names, for completion and `jobs`-style
// introspection callers.
func (t *Table) Names() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]string, 0, len(t.raw))
	for k := range t.raw {
		out = append(out, k)
	}
	return out
}

// Result is what Lookup returns: either a fully expanded token list, or a
// callable bound with its accumulated partial-application prefix.
type Result struct {
	Tokens   []string
	Callable Callable
}

// Lookup resolves name per spec §4.5: recursively expands token-list
// entries, tracking seen names to stop on a cycle or on a token that isn't a
// key, and collapses into a partially applied callable once expansion
// reaches one. Returns (Result{}, false) if name is not registered at all.
func (t *Table) Lookup(name string) (Result, bool, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	entry, ok := t.raw[name]
	if !ok {
		return Result{}, false, nil
	}
	res, err := t.eval(entry, map[string]bool{name: true}, nil)
	return res, true, err
}

func (t *Table) eval(entry Entry, seen map[string]bool, accArgs []string) (Result, error) {
	if isCallable(entry) {
		if len(accArgs) == 0 {
			return Result{Callable: entry.Callable}, nil
		}
		prefix := append([]string(nil), accArgs...)
		partial, err := partiallyApply(entry.Callable, prefix)
		if err != nil {
			return Result{}, err
		}
		return Result{Callable: partial}, nil
	}

	if len(entry.Tokens) == 0 {
		return Result{}, shellerr.New(shellerr.KindInvalidAlias, "alias has an inappropriate type")
	}

	head, rest := entry.Tokens[0], entry.Tokens[1:]
	next, ok := t.raw[head]
	if seen[head] || !ok {
		return Result{Tokens: append(append([]string(nil), entry.Tokens...), accArgs...)}, nil
	}
	nextSeen := make(map[string]bool, len(seen)+1)
	for k := range seen {
		nextSeen[k] = true
	}
	nextSeen[head] = true
	return t.eval(next, nextSeen, append(append([]string(nil), rest...), accArgs...))
}

// partiallyApply binds prefix as leading args in front of whatever args a
// later call supplies (spec §4.5 "partial application"), preserving the
// callable's original arity shape.
func partiallyApply(fn Callable, prefix []string) (Callable, error) {
	switch v := fn.(type) {
	case procproxy.FourArg:
		return procproxy.FourArg(func(args []string, stdin io.Reader, stdout, stderr io.Writer) any {
			full := append(append([]string(nil), prefix...), args...)
			return v(full, stdin, stdout, stderr)
		}), nil
	case procproxy.Simple:
		return procproxy.Simple(func(args []string, input string) any {
			full := append(append([]string(nil), prefix...), args...)
			return v(full, input)
		}), nil
	default:
		return nil, shellerr.New(shellerr.KindInvalidAlias, "alias has an inappropriate type")
	}
}

// SplitWords does the shell-rules word-splitting the spec mentions for
// string-valued inserts; the Pipeline Builder's own tokenizer owns the full
// quoting grammar, so this is the conservative whitespace-splitting subset
// used when an alias value arrives pre-tokenized as a bare string.
func SplitWords(s string) []string {
	return strings.Fields(s)
}
