package main

import (
	"bufio"
	"fmt"
	"os"

	"github.com/mikaelmansson/opsh/internal/alias"
	"github.com/mikaelmansson/opsh/internal/builtins"
	"github.com/mikaelmansson/opsh/internal/config"
	"github.com/mikaelmansson/opsh/internal/jobctl"
	"github.com/mikaelmansson/opsh/internal/pipeline"
	"github.com/mikaelmansson/opsh/internal/shell"
	"github.com/mikaelmansson/opsh/internal/shellctx"
	"github.com/mikaelmansson/opsh/internal/shellenv"
	"github.com/mikaelmansson/opsh/internal/ui"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "opsh: error loading config: %v\n", err)
		os.Exit(1)
	}

	switch cfg.Theme {
	case "dark":
		ui.SetDarkTheme()
	case "light":
		ui.SetLightTheme()
	default:
		if ui.DetectTheme() == ui.ThemeDark {
			ui.SetDarkTheme()
		} else {
			ui.SetLightTheme()
		}
	}

	env := shellenv.New()
	if len(cfg.PathExtra) > 0 {
		env.PrependPath(cfg.PathExtra...)
	}

	aliases := alias.NewTable()
	for name, value := range cfg.Aliases {
		aliases.SetTokens(name, alias.SplitWords(value)...)
	}

	jobs := jobctl.NewRegistry()

	cwd, err := os.Getwd()
	if err != nil {
		cwd = "/"
	}

	ctx := shellctx.New(env, aliases, jobs, cwd)

	if !shell.IsInteractive(os.Stdin) {
		runScript(ctx, os.Stdin)
		return
	}

	sh, err := shell.New(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "opsh: failed to start shell: %v\n", err)
		os.Exit(1)
	}

	sh.Run()
	jobs.KillAllJobs(func(pid int) error {
		proc, err := os.FindProcess(pid)
		if err != nil {
			return err
		}
		return proc.Kill()
	})
}

// runScript reads command lines from r non-interactively (e.g. a piped
// script) and runs each one uncaptured, the way a shell invoked with stdin
// redirected from a file would.
func runScript(ctx *shellctx.Context, r *os.File) {
	scanner := bufio.NewScanner(r)
	status := 0
	for scanner.Scan() {
		line := scanner.Text()
		groups, err := shell.BuildCommandLists(line)
		if err != nil {
			fmt.Fprintf(os.Stderr, "opsh: %v\n", err)
			status = 1
			continue
		}
		for _, cl := range groups {
			if err := runGroup(ctx, cl); err != nil {
				fmt.Fprintf(os.Stderr, "opsh: %v\n", err)
				status = 1
			}
		}
	}
	os.Exit(status)
}

func runGroup(ctx *shellctx.Context, cl *pipeline.CommandList) error {
	_, err := builtins.SubprocUncaptured(ctx, cl)
	return err
}
