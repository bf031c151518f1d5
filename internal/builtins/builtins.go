// Package builtins implements the shell's produced interfaces (spec §4.11,
// §6): subprocess entry points, the help inspectors, path-globbing helpers,
// and the job-control surface, each as an ordinary Go function taking a
// *shellctx.Context instead of reaching into module globals.
//
// Grounded on xonsh's built_ins.py (run_subproc/subproc_captured/
// subproc_uncaptured/helper/superhelper/reglob/regexpath/globpath/
// ensure_list_of_strs) and jobs_not_implemented.py (Jobs/Fg/Bg stubs).
package builtins

import (
	"fmt"
	"io"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/mikaelmansson/opsh/internal/jobctl"
	"github.com/mikaelmansson/opsh/internal/pipeline"
	"github.com/mikaelmansson/opsh/internal/shellctx"
)

// SubprocCaptured runs cl and returns its terminal stage's captured stdout,
// matching built_ins.py's subproc_captured.
func SubprocCaptured(ctx *shellctx.Context, cl *pipeline.CommandList) (string, error) {
	deps := pipeline.Deps{Aliases: ctx.Aliases, Env: ctx.Env, Jobs: ctx.Jobs}
	res, err := pipeline.Run(deps, cl, true)
	if err != nil {
		return "", err
	}
	return res.Captured, nil
}

// SubprocUncaptured runs cl with its terminal stage's stdout passed through
// to the shell's own stdout, returning the normalized exit-success flag,
// matching built_ins.py's subproc_uncaptured.
func SubprocUncaptured(ctx *shellctx.Context, cl *pipeline.CommandList) (bool, error) {
	deps := pipeline.Deps{Aliases: ctx.Aliases, Env: ctx.Env, Jobs: ctx.Jobs}
	res, err := pipeline.Run(deps, cl, false)
	if err != nil {
		return false, err
	}
	return res.Success, nil
}

// Help prints a shallow inspection of x to w and returns x unchanged,
// mirroring helper's "print info, return the value" contract (detail
// level 0) without requiring a Python-style object inspector.
func Help(w io.Writer, x any) any {
	fmt.Fprintf(w, "%T: %+v\n", x, x)
	return x
}

// Superhelp prints a deeper inspection of x to w and returns x unchanged
// (detail level 1), mirroring superhelper.
func Superhelp(w io.Writer, x any) any {
	fmt.Fprintf(w, "%T: %#v\n", x, x)
	return x
}

// Glob expands pattern against the filesystem, matching globpath's "expand,
// or return [pattern] if nothing matched" contract.
func Glob(pattern string) ([]string, error) {
	matches, err := doublestar.FilepathGlob(pattern)
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return []string{pattern}, nil
	}
	return matches, nil
}

// Jobs lists the registered jobs, most recently added first. It returns the
// bare job records; the CPU/RSS columns (spec §4.13) are added by
// RenderJobsTable.
func Jobs(ctx *shellctx.Context) []*jobctl.Job {
	return ctx.Jobs.Jobs()
}

// Fg and Bg delegate to jobctl's stubs (spec §4.6: "Job control not
// implemented on this platform.").
func Fg(args []string) (string, string) { return jobctl.Fg(args) }
func Bg(args []string) (string, string) { return jobctl.Bg(args) }
