// Package shellctx bundles the shell's shared state into one explicit
// object (spec §4.9 "Design Notes: global shell state"), passed by pointer
// to built-ins and the REPL driver instead of reached for through package
// globals — the teacher's *session.Session parameter-passing convention,
// generalized to an OS-process-execution core.
package shellctx

import (
	"sync"

	"github.com/mikaelmansson/opsh/internal/alias"
	"github.com/mikaelmansson/opsh/internal/jobctl"
	"github.com/mikaelmansson/opsh/internal/shellenv"
)

// EvaluatorHandle is the consumed interface (spec §4.10/§6) a host
// application implements to let callables and "eval"-style builtins run a
// scripting language this module doesn't itself define.
type EvaluatorHandle interface {
	Eval(src string) (any, error)
	Exec(src string) error
	Compile(src string) (any, error)
}

// NopEvaluator is the default EvaluatorHandle: every call reports that no
// scripting language has been configured.
type NopEvaluator struct{}

func (NopEvaluator) Eval(src string) (any, error) {
	return nil, errNoEvaluator
}

func (NopEvaluator) Exec(src string) error {
	return errNoEvaluator
}

func (NopEvaluator) Compile(src string) (any, error) {
	return nil, errNoEvaluator
}

var errNoEvaluator = nopEvaluatorError("no scripting language configured")

type nopEvaluatorError string

func (e nopEvaluatorError) Error() string { return string(e) }

// Context bundles everything a built-in or pipeline run needs (spec §4.9).
type Context struct {
	Env       *shellenv.Env
	Aliases   *alias.Table
	Jobs      *jobctl.Registry
	Evaluator EvaluatorHandle

	mu      sync.RWMutex
	cwd     string
	history []string
}

// New creates a Context seeded with cwd and a NopEvaluator.
func New(env *shellenv.Env, aliases *alias.Table, jobs *jobctl.Registry, cwd string) *Context {
	return &Context{
		Env:       env,
		Aliases:   aliases,
		Jobs:      jobs,
		Evaluator: NopEvaluator{},
		cwd:       cwd,
	}
}

// CWD returns the shell's current working directory.
func (c *Context) CWD() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.cwd
}

// SetCWD updates the current working directory (the `cd` builtin's effect).
func (c *Context) SetCWD(dir string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cwd = dir
}

// AppendHistory records a line the REPL just ran.
func (c *Context) AppendHistory(line string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.history = append(c.history, line)
}

// History returns a snapshot of the session's command history, oldest first.
func (c *Context) History() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, len(c.history))
	copy(out, c.history)
	return out
}
