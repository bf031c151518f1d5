package builtins

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/pflag"
	"golang.org/x/term"

	"github.com/mikaelmansson/opsh/internal/jobctl"
	"github.com/mikaelmansson/opsh/internal/shellctx"
	"github.com/mikaelmansson/opsh/internal/ui"
	"github.com/mikaelmansson/opsh/internal/util"
)

// RenderJobsTable prints the registered jobs to w as a table, in the manner
// of the teacher's command output tables. With -l it adds a PID/CPU%/RSS
// column per still-running job, sampled through gopsutil (spec §4.13); a pid
// that has already exited is simply omitted from those columns rather than
// failing the whole render.
func RenderJobsTable(w io.Writer, ctx *shellctx.Context, args []string) error {
	fs := pflag.NewFlagSet("jobs", pflag.ContinueOnError)
	long := fs.BoolP("long", "l", false, "show pid, cpu%% and memory for running jobs")
	fs.SetOutput(io.Discard)
	if err := fs.Parse(args); err != nil {
		return err
	}

	jobs := ctx.Jobs.Jobs()

	t := ui.NewTable(w)
	if f, ok := w.(*os.File); ok {
		if width, _, err := term.GetSize(int(f.Fd())); err == nil {
			t.SetMaxWidth(width)
		}
	}
	if *long {
		t.SetHeaders("ID", "STATUS", "COMMAND", "PID", "CPU%", "RSS")
	} else {
		t.SetHeaders("ID", "STATUS", "COMMAND")
	}

	for _, j := range jobs {
		status := "running"
		if j.Done() {
			status = "done"
		}

		if !*long {
			t.AddRow(jobctl.FormatID(j), status, j.Command)
			continue
		}

		pid, cpu, rss := "-", "-", "-"
		if len(j.Pids) > 0 && !j.Done() {
			if stat, err := util.ReadProcStat(j.Pids[0]); err == nil {
				pid = fmt.Sprint(stat.PID)
				cpu = formatPercent(stat.CPUPercent)
				rss = ui.FormatSize(int64(stat.RSSBytes))
			}
		}
		t.AddRow(jobctl.FormatID(j), status, j.Command, pid, cpu, rss)
	}

	t.Render()
	return nil
}

func formatPercent(p float64) string {
	return fmt.Sprintf("%.1f", p)
}
