package pipeline

import (
	"bytes"
	"errors"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/mikaelmansson/opsh/internal/alias"
	"github.com/mikaelmansson/opsh/internal/jobctl"
	"github.com/mikaelmansson/opsh/internal/procproxy"
	"github.com/mikaelmansson/opsh/internal/redirect"
	"github.com/mikaelmansson/opsh/internal/resolve"
	"github.com/mikaelmansson/opsh/internal/shellenv"
	"github.com/mikaelmansson/opsh/internal/shellerr"
)

// Deps bundles the shared state the executor reads and mutates while
// running a command list: the alias table, environment, and job registry
// (spec §5 "shared resources").
type Deps struct {
	Aliases *alias.Table
	Env     *shellenv.Env
	Jobs    *jobctl.Registry
}

// Stage is the common runtime surface of every constructed stage (spec §9
// "callable-or-OS-child polymorphism": OsChild | Proxy | Composite behind
// one interface).
type Stage interface {
	// Wait blocks until the stage completes and returns its raw exit
	// status: a non-negative int for an OS child, a bool for a proxy or
	// composite (spec §3 "Stage runtime object").
	Wait() (any, error)
}

// Result is what Run returns: either a captured stdout string, or a bare
// exit-success boolean (spec §4.4 contract).
type Result struct {
	Captured string
	Success  bool
	HasStdout bool
}

// Run executes cl to completion (or launches it into the background) per
// spec §4.4. captured requests that the terminal stage's stdout be
// collected and returned as a string rather than passed through.
func Run(deps Deps, cl *CommandList, captured bool) (Result, error) {
	stages, background := splitEntries(cl)

	if len(stages) == 0 {
		// Spec §8 boundary behaviour: a zero-stage pipeline (after
		// stripping "&") is a no-op success.
		return Result{Success: true}, nil
	}

	runtimeStages, pids, terminal, terminalStdout, err := build(deps, stages, captured)
	if err != nil {
		return Result{}, err
	}

	cmdLabel := renderLabel(stages)

	var job *jobctl.Job
	if !isProxyOnly(runtimeStages) {
		job = deps.Jobs.AddJob(cmdLabel, pids, terminal, background)
	}

	if background {
		if job == nil {
			// Proxy-only terminal in the background: register it too (with
			// no pids) so it appears in the job table alongside OS-child
			// jobs.
			deps.Jobs.AddJob(cmdLabel, nil, terminal, true)
		}
		return Result{Success: true}, nil
	}

	if job == nil {
		// Proxy-only terminal in the foreground: register it too (with no
		// pids, since the terminal stage has none) so the foreground wait
		// below goes through the registry like any other job.
		job = deps.Jobs.AddJob(cmdLabel, nil, terminal, false)
	}

	status, waitErr := deps.Jobs.WaitForActiveJob()
	if waitErr != nil {
		return Result{}, waitErr
	}

	success, normErr := Normalize(status)
	if normErr != nil {
		return Result{}, normErr
	}

	if captured {
		var out string
		if terminalStdout != nil {
			out, _ = procproxy.ReadAllString(terminalStdout)
			terminalStdout.Close()
		}
		return Result{Captured: out, Success: success, HasStdout: true}, nil
	}

	return Result{Success: success}, nil
}

// Normalize implements the Exit-Status Normaliser (spec §4.7).
func Normalize(status any) (bool, error) {
	switch v := status.(type) {
	case bool:
		return v, nil
	case int:
		return v == 0, nil
	default:
		return false, shellerr.New(shellerr.KindRedirect, "bug: unexpected exit status type %T", v)
	}
}

func splitEntries(cl *CommandList) ([]*StageSpec, bool) {
	background := cl.Background
	entries := cl.Entries
	if len(entries) > 0 && entries[len(entries)-1].Connector == "&" {
		background = true
		entries = entries[:len(entries)-1]
	}
	var stages []*StageSpec
	for _, e := range entries {
		if e.Stage != nil {
			stages = append(stages, e.Stage)
		}
	}
	return stages, background
}

func renderLabel(stages []*StageSpec) string {
	var buf bytes.Buffer
	for i, s := range stages {
		if i > 0 {
			buf.WriteString(" | ")
		}
		switch s.Kind {
		case KindCmd:
			for j, tok := range s.Tokens {
				if j > 0 {
					buf.WriteByte(' ')
				}
				buf.WriteString(tok)
			}
		case KindAnd:
			buf.WriteString("<and>")
		case KindOr:
			buf.WriteString("<or>")
		}
	}
	return buf.String()
}

func isProxyOnly(stages []Stage) bool {
	if len(stages) == 0 {
		return true
	}
	_, isOS := stages[len(stages)-1].(*osChildStage)
	return !isOS
}

// build wires and starts every stage left to right, returning the runtime
// stage list, the OS pids collected along the way, the terminal stage's
// Stage handle, and (if captured) the terminal stage's readable stdout.
func build(deps Deps, stages []*StageSpec, captured bool) ([]Stage, []int, Stage, *os.File, error) {
	var (
		runtimeStages []Stage
		pids          []int
		prevStdout    *os.File // read end feeding the next stage's stdin
	)

	for i, spec := range stages {
		isLast := i == len(stages)-1

		if spec.Kind == KindAnd || spec.Kind == KindOr {
			stage, err := buildComposite(deps, spec)
			if err != nil {
				return nil, nil, nil, nil, err
			}
			runtimeStages = append(runtimeStages, stage)
			prevStdout = nil
			if isLast {
				return runtimeStages, pids, stage, nil, nil
			}
			continue
		}

		cmdTokens, bindings, err := extractRedirections(spec.Tokens)
		if err != nil {
			return nil, nil, nil, nil, err
		}

		if err := wireStdin(bindings, prevStdout); err != nil {
			return nil, nil, nil, nil, err
		}
		if err := wireStdout(bindings, isLast, captured); err != nil {
			return nil, nil, nil, nil, err
		}

		plan, err := resolve.Resolve(cmdTokens, deps.Aliases, deps.Env)
		if err != nil {
			return nil, nil, nil, nil, err
		}

		stage, stdoutRead, pid, err := startStage(plan, cmdTokens, bindings)
		if err != nil {
			if plan.Callable == nil && len(cmdTokens) > 0 {
				err = wrapCommandNotFound(err, cmdTokens[0], deps)
			}
			return nil, nil, nil, nil, err
		}

		runtimeStages = append(runtimeStages, stage)
		if pid != 0 {
			pids = append(pids, pid)
		}
		prevStdout = stdoutRead

		if isLast {
			return runtimeStages, pids, stage, stdoutRead, nil
		}
	}

	return runtimeStages, pids, runtimeStages[len(runtimeStages)-1], prevStdout, nil
}

func wireStdin(bindings *redirect.Bindings, prevStdout *os.File) error {
	_, explicit := bindings.Get(redirect.Stdin)
	if explicit && prevStdout != nil {
		return shellerr.New(shellerr.KindMultipleStdin, "multiple inputs for stdin")
	}
	if explicit {
		return nil
	}
	if prevStdout != nil {
		bindings.Set(redirect.Stdin, redirect.Binding{Kind: redirect.File, File: prevStdout})
	}
	return nil
}

// wireStdout sets the terminal stage's stdout binding, rejecting the
// combination of an explicit stdout redirect with captured mode (spec §9
// Open Questions: that combination is ambiguous and must be an error rather
// than silently preferring the explicit redirect).
func wireStdout(bindings *redirect.Bindings, isLast, captured bool) error {
	if _, explicit := bindings.Get(redirect.Stdout); explicit {
		if isLast && captured {
			return shellerr.New(shellerr.KindRedirect, "explicit stdout redirection conflicts with captured output")
		}
		return nil
	}
	if !isLast {
		bindings.Set(redirect.Stdout, redirect.Binding{Kind: redirect.Pipe})
		return nil
	}
	if captured {
		bindings.Set(redirect.Stdout, redirect.Binding{Kind: redirect.Pipe})
		return nil
	}
	bindings.Set(redirect.Stdout, redirect.Binding{Kind: redirect.Inherit})
	return nil
}

func startStage(plan resolve.Plan, cmdTokens []string, bindings *redirect.Bindings) (Stage, *os.File, int, error) {
	if plan.Callable != nil {
		return startProxyStage(plan.Callable, plan.Argv, bindings)
	}
	return startOSStage(plan.Argv, bindings)
}

func startProxyStage(callable alias.Callable, args []string, bindings *redirect.Bindings) (Stage, *os.File, int, error) {
	switch fn := callable.(type) {
	case procproxy.FourArg:
		p, err := procproxy.Start(fn, args, bindings, true)
		if err != nil {
			return nil, nil, 0, err
		}
		return &procProxyStage{proxy: p}, p.Stdout, 0, nil
	case procproxy.Simple:
		input := ""
		if b, ok := bindings.Get(redirect.Stdin); ok && b.Kind == redirect.File && b.File != nil {
			input, _ = procproxy.ReadAllString(b.File)
		}
		p, err := procproxy.StartSimple(fn, args, bindings, input)
		if err != nil {
			return nil, nil, 0, err
		}
		return &procProxyStage{proxy: p}, p.Stdout, 0, nil
	default:
		return nil, nil, 0, shellerr.New(shellerr.KindInvalidAlias, "expected a two or four argument callable")
	}
}

// wrapCommandNotFound turns a raw exec.Start failure into the spec §7
// command-not-found diagnostic, appending a "did you mean" suggestion list
// (spec §4.12) ranked over the alias table and PATH when the failure is
// specifically an unresolved executable rather than e.g. a permission error.
func wrapCommandNotFound(err error, name string, deps Deps) error {
	var execErr *exec.Error
	if !errors.As(err, &execErr) || !errors.Is(execErr.Err, exec.ErrNotFound) {
		return err
	}

	candidates := append(append([]string(nil), deps.Aliases.Names()...), resolve.PathExecutables(deps.Env)...)
	suggestions := resolve.Suggest(name, candidates)

	msg := name + ": command not found"
	if len(suggestions) > 0 {
		msg += ". Did you mean: " + strings.Join(suggestions, ", ") + "?"
	}
	return shellerr.New(shellerr.KindCommandNotFound, "%s", msg)
}

func startOSStage(argv []string, bindings *redirect.Bindings) (Stage, *os.File, int, error) {
	if len(argv) == 0 {
		return nil, nil, 0, shellerr.New(shellerr.KindCommandNotFound, "empty command")
	}

	cmd := exec.Command(argv[0], argv[1:]...)
	cmd.SysProcAttr = posixSysProcAttr()

	var owned []*os.File
	var stdoutReadEnd *os.File

	if in, f, err := attachReader(bindings, redirect.Stdin, os.Stdin); err != nil {
		return nil, nil, 0, err
	} else {
		cmd.Stdin = in
		if f != nil {
			owned = append(owned, f)
		}
	}

	stdoutBind, hasStdout := bindings.Get(redirect.Stdout)
	if hasStdout && stdoutBind.Kind == redirect.Pipe {
		r, w, err := os.Pipe()
		if err != nil {
			return nil, nil, 0, err
		}
		cmd.Stdout = w
		owned = append(owned, w)
		stdoutReadEnd = r
	} else if out, f, err := attachWriter(bindings, redirect.Stdout, os.Stdout); err != nil {
		return nil, nil, 0, err
	} else {
		cmd.Stdout = out
		if f != nil {
			owned = append(owned, f)
		}
	}

	if errBind, ok := bindings.Get(redirect.Stderr); ok && errBind.Kind == redirect.MergeToStdout {
		cmd.Stderr = cmd.Stdout
	} else if errw, f, err := attachWriter(bindings, redirect.Stderr, os.Stderr); err != nil {
		return nil, nil, 0, err
	} else {
		cmd.Stderr = errw
		if f != nil {
			owned = append(owned, f)
		}
	}

	if err := cmd.Start(); err != nil {
		for _, f := range owned {
			f.Close()
		}
		if stdoutReadEnd != nil {
			stdoutReadEnd.Close()
		}
		return nil, nil, 0, err
	}

	// The write end of any pipe we created for this stage's stdout is now
	// owned by the child; close the parent's copy so EOF propagates once
	// the child exits (spec §4.4 step 3).
	if stdoutReadEnd != nil {
		cmd.Stdout.(*os.File).Close()
		owned = removeFile(owned, cmd.Stdout.(*os.File))
	}

	stage := &osChildStage{cmd: cmd, ownedFiles: owned}
	return stage, stdoutReadEnd, cmd.Process.Pid, nil
}

func removeFile(files []*os.File, target *os.File) []*os.File {
	out := files[:0]
	for _, f := range files {
		if f != target {
			out = append(out, f)
		}
	}
	return out
}

func attachReader(bindings *redirect.Bindings, stream redirect.Stream, fallback *os.File) (io.Reader, *os.File, error) {
	bind, ok := bindings.Get(stream)
	if !ok {
		return fallback, nil, nil
	}
	switch bind.Kind {
	case redirect.Devnull:
		f, err := os.Open(os.DevNull)
		return f, f, err
	case redirect.File:
		// Explicit file, or the previous stage's pipe read end: the parent
		// keeps its copy as an owned file, closed when this stage's Wait
		// returns.
		return bind.File, bind.File, nil
	case redirect.FD:
		f := os.NewFile(uintptr(bind.FD), "fd")
		return f, nil, nil
	case redirect.Inherit:
		return fallback, nil, nil
	default:
		return fallback, nil, nil
	}
}

func attachWriter(bindings *redirect.Bindings, stream redirect.Stream, fallback *os.File) (io.Writer, *os.File, error) {
	bind, ok := bindings.Get(stream)
	if !ok {
		return fallback, nil, nil
	}
	switch bind.Kind {
	case redirect.Devnull:
		f, err := os.OpenFile(os.DevNull, os.O_WRONLY, 0)
		return f, f, err
	case redirect.File:
		return bind.File, bind.File, nil
	case redirect.FD:
		f := os.NewFile(uintptr(bind.FD), "fd")
		return f, nil, nil
	case redirect.Inherit:
		return fallback, nil, nil
	default:
		return fallback, nil, nil
	}
}

// extractRedirections scans a stage's raw tokens for redirection operators
// anywhere in the list (spec §4.1/§4.4), consuming a following file-path
// token where the grammar calls for one, and returns the remaining command
// argv plus the accumulated stream bindings.
func extractRedirections(tokens []string) ([]string, *redirect.Bindings, error) {
	bindings := redirect.NewBindings()
	var cmd []string

	for i := 0; i < len(tokens); i++ {
		tok := tokens[i]
		if !redirect.IsRedirectToken(tok) {
			cmd = append(cmd, tok)
			continue
		}
		fileArg := ""
		if redirect.NeedsFileArg(tok) {
			if i+1 >= len(tokens) {
				return nil, nil, shellerr.New(shellerr.KindRedirect, "missing file argument for redirection: %s", tok)
			}
			fileArg = tokens[i+1]
			i++
		}
		if err := redirect.Parse(bindings, tok, fileArg); err != nil {
			return nil, nil, err
		}
	}
	return cmd, bindings, nil
}
