package shell

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/chzyer/readline"

	"github.com/mikaelmansson/opsh/internal/builtins"
	"github.com/mikaelmansson/opsh/internal/config"
	"github.com/mikaelmansson/opsh/internal/shellctx"
	"github.com/mikaelmansson/opsh/internal/shellerr"
	"github.com/mikaelmansson/opsh/internal/ui"
)

// reportError prints err the way spec §7 describes: a shellerr.Error renders
// as "opsh: subprocess mode: <msg>"; anything else just gets the "opsh: "
// prefix.
func reportError(err error) {
	if se, ok := err.(*shellerr.Error); ok {
		fmt.Println(ui.ErrorStyle.Render(se.Diagnostic("opsh")))
		return
	}
	fmt.Printf("opsh: %v\n", err)
}

// Shell is the REPL driver: a thin front end over the pipeline engine,
// owning line editing, history expansion, and prompt rendering, none of
// which the core engine in internal/pipeline concerns itself with.
type Shell struct {
	Ctx            *shellctx.Context
	RL             *readline.Instance
	sessionHistory []string // commands from current session (for !!, !-n)
}

// New creates a Shell bound to ctx.
func New(ctx *shellctx.Context) (*Shell, error) {
	completer := NewCompleter(ctx)

	historyPath, _ := config.HistoryPath()

	rl, err := readline.NewEx(&readline.Config{
		Prompt:            "opsh> ",
		HistoryFile:       historyPath,
		HistorySearchFold: true,
		AutoComplete:      completer,
		InterruptPrompt:   "^C",
		EOFPrompt:         "exit",
	})
	if err != nil {
		return nil, err
	}

	return &Shell{Ctx: ctx, RL: rl}, nil
}

// buildPrompt renders the prompt, substituting "~" for the home directory
// prefix the way a conventional shell abbreviates cwd.
func (sh *Shell) buildPrompt() string {
	displayPath := sh.Ctx.CWD()
	if home, err := os.UserHomeDir(); err == nil {
		if displayPath == home {
			displayPath = "~"
		} else if strings.HasPrefix(displayPath, home+"/") {
			displayPath = "~" + displayPath[len(home):]
		}
	}

	user := "opsh"
	if u := os.Getenv("USER"); u != "" {
		user = u
	}

	running := 0
	for _, j := range sh.Ctx.Jobs.Jobs() {
		if j.Background && !j.Done() {
			running++
		}
	}

	return ui.RenderPrompt(user, displayPath, running)
}

// Run starts the REPL loop.
func (sh *Shell) Run() {
	defer sh.RL.Close()

	for {
		sh.RL.SetPrompt(sh.buildPrompt())

		line, err := sh.RL.Readline()
		if err != nil { // io.EOF or Ctrl+D
			break
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, "!") && len(line) > 1 {
			expanded, err := sh.expandHistory(line)
			if err != nil {
				reportError(err)
				continue
			}
			line = expanded
			fmt.Println(line)
		}

		sh.sessionHistory = append(sh.sessionHistory, line)
		sh.Ctx.AppendHistory(line)

		if sh.runDriverBuiltin(line) {
			continue
		}

		groups, err := BuildCommandLists(line)
		if err != nil {
			reportError(err)
			continue
		}

		for _, cl := range groups {
			if _, err := builtins.SubprocUncaptured(sh.Ctx, cl); err != nil {
				reportError(err)
				break
			}
		}
	}
}

// runDriverBuiltin handles the handful of built-ins that mutate driver-only
// state (cwd, job-table rendering) rather than spawning a pipeline, and
// reports whether it consumed the line.
func (sh *Shell) runDriverBuiltin(line string) bool {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false
	}

	switch fields[0] {
	case "cd":
		sh.builtinCd(fields[1:])
		return true
	case "jobs":
		if err := builtins.RenderJobsTable(os.Stdout, sh.Ctx, fields[1:]); err != nil {
			fmt.Printf("opsh: jobs: %v\n", err)
		}
		return true
	case "fg":
		_, msg := builtins.Fg(fields[1:])
		fmt.Println(msg)
		return true
	case "bg":
		_, msg := builtins.Bg(fields[1:])
		fmt.Println(msg)
		return true
	}
	return false
}

func (sh *Shell) builtinCd(args []string) {
	target := ""
	if len(args) > 0 {
		target = args[0]
	}
	if target == "" || target == "~" {
		if home, err := os.UserHomeDir(); err == nil {
			target = home
		}
	}
	if !strings.HasPrefix(target, "/") {
		target = sh.Ctx.CWD() + "/" + target
	}

	if err := os.Chdir(target); err != nil {
		fmt.Printf("opsh: cd: %v\n", err)
		return
	}
	resolved, err := os.Getwd()
	if err != nil {
		resolved = target
	}
	sh.Ctx.SetCWD(resolved)
}

// expandHistory handles !n and !! syntax for history expansion, reading
// current-session history for !!/!-n and the full on-disk history for
// !n/!prefix (readline keeps the history file current).
func (sh *Shell) expandHistory(line string) (string, error) {
	if line == "!!" {
		if len(sh.sessionHistory) == 0 {
			return "", fmt.Errorf("!!: event not found")
		}
		return sh.sessionHistory[len(sh.sessionHistory)-1], nil
	}

	if strings.HasPrefix(line, "!-") {
		nStr := line[2:]
		n, err := strconv.Atoi(nStr)
		if err != nil || n < 1 {
			return "", fmt.Errorf("!%s: event not found", nStr)
		}
		idx := len(sh.sessionHistory) - n
		if idx < 0 {
			return "", fmt.Errorf("!%s: event not found", nStr)
		}
		return sh.sessionHistory[idx], nil
	}

	history := sh.GetHistory()
	if len(history) == 0 {
		return "", fmt.Errorf("no history available")
	}

	if strings.HasPrefix(line, "!") {
		nStr := line[1:]
		n, err := strconv.Atoi(nStr)
		if err != nil {
			prefix := nStr
			for i := len(history) - 1; i >= 0; i-- {
				if strings.HasPrefix(history[i], prefix) {
					return history[i], nil
				}
			}
			return "", fmt.Errorf("!%s: event not found", prefix)
		}
		if n < 1 || n > len(history) {
			return "", fmt.Errorf("!%d: event not found", n)
		}
		return history[n-1], nil
	}

	return line, nil
}

// GetHistory returns the full history from the history file (readline keeps
// it up to date), falling back to in-session history if it can't be read.
func (sh *Shell) GetHistory() []string {
	historyPath, err := config.HistoryPath()
	if err != nil {
		return sh.sessionHistory
	}

	data, err := os.ReadFile(historyPath)
	if err != nil {
		return sh.sessionHistory
	}

	lines := strings.Split(string(data), "\n")
	var history []string
	for _, l := range lines {
		l = strings.TrimSpace(l)
		if l != "" {
			history = append(history, l)
		}
	}
	return history
}
