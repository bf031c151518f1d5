// Package jobctl implements the Job Registry (spec §4.6): it tracks the
// pipelines the shell has launched, the single foreground "active" job, and
// exposes the jobs/fg/bg/kill_all_jobs surface built-ins delegate to.
//
// Grounded on xonsh's jobs_not_implemented.py (this platform's baseline: no
// terminal-level stop/resume, so fg/bg answer with the same stub message)
// plus the add_job/wait_for_active_job contract from built_ins.py.
package jobctl

import (
	"fmt"
	"sync"
)

// NotImplementedMessage is returned by Fg/Bg on every platform this shell
// targets: neither terminal process-group hand-off nor SIGCONT-based resume
// is wired up, mirroring jobs_not_implemented.py's stub.
const NotImplementedMessage = "Job control not implemented on this platform."

// TerminalStage is the minimal surface the registry needs from a pipeline's
// last stage: enough to join it and read back its raw exit status.
type TerminalStage interface {
	Wait() (any, error)
}

// Job is a registry record (spec §3 "Job record").
type Job struct {
	ID         int
	Command    string
	Pids       []int
	Terminal   TerminalStage
	Background bool

	mu     sync.Mutex
	done   bool
	result any
	err    error
}

// Done reports whether the job's terminal stage has completed.
func (j *Job) Done() bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.done
}

// Result returns the terminal stage's raw status once Done, else (nil, false, nil).
func (j *Job) Result() (any, bool, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.result, j.done, j.err
}

func (j *Job) finish(status any, err error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.done = true
	j.result = status
	j.err = err
}

// Registry is the shell's job table, safe for concurrent use: it is mutated
// by the main thread on spawn and by whichever goroutine observes completion
// (spec §5 "the job registry ... access must be serialised").
type Registry struct {
	mu     sync.Mutex
	nextID int
	jobs   []*Job
	active *Job
}

func NewRegistry() *Registry {
	return &Registry{nextID: 1}
}

// AddJob registers a pipeline, marking it active if it runs in the
// foreground (spec §4.6 "add_job").
func (r *Registry) AddJob(command string, pids []int, terminal TerminalStage, background bool) *Job {
	r.mu.Lock()
	defer r.mu.Unlock()

	j := &Job{ID: r.nextID, Command: command, Pids: pids, Terminal: terminal, Background: background}
	r.nextID++
	r.jobs = append(r.jobs, j)
	if !background {
		r.active = j
	}
	return j
}

// WaitForActiveJob blocks until the active job's terminal stage completes
// and clears activity (spec §4.6 "wait_for_active_job").
func (r *Registry) WaitForActiveJob() (any, error) {
	r.mu.Lock()
	active := r.active
	r.mu.Unlock()

	if active == nil {
		return true, nil
	}

	status, err := active.Terminal.Wait()
	active.finish(status, err)

	r.mu.Lock()
	if r.active == active {
		r.active = nil
	}
	r.mu.Unlock()

	return status, err
}

// Jobs lists all registered jobs, most recently added first.
func (r *Registry) Jobs() []*Job {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*Job, len(r.jobs))
	for i, j := range r.jobs {
		out[len(r.jobs)-1-i] = j
	}
	return out
}

// Reap drops completed background jobs from the table, returning how many
// were removed. Foreground jobs are never dropped here; they are cleared by
// WaitForActiveJob.
func (r *Registry) Reap() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	kept := r.jobs[:0]
	removed := 0
	for _, j := range r.jobs {
		if j.Background && j.Done() {
			removed++
			continue
		}
		kept = append(kept, j)
	}
	r.jobs = kept
	return removed
}

// KillAllJobs terminates remaining children at shutdown (spec §4.6
// "kill_all_jobs"). Only OS-child jobs have pids to signal; proc-proxy-only
// jobs are left for their goroutines to unwind on their own.
func (r *Registry) KillAllJobs(kill func(pid int) error) {
	r.mu.Lock()
	jobs := append([]*Job(nil), r.jobs...)
	r.mu.Unlock()

	for _, j := range jobs {
		if j.Done() {
			continue
		}
		for _, pid := range j.Pids {
			_ = kill(pid)
		}
	}
}

// Jobs/Fg/Bg built-in stubs (spec §4.6: "on platforms without full job
// control they return the constant message"). args is accepted to match the
// built-in calling convention but unused by the stub.
func JobsBuiltin(args []string) (string, string) { return "", NotImplementedMessage }
func Fg(args []string) (string, string)          { return "", NotImplementedMessage }
func Bg(args []string) (string, string)          { return "", NotImplementedMessage }

// FormatID renders a job's table row identifier, e.g. "[3]".
func FormatID(j *Job) string {
	return fmt.Sprintf("[%d]", j.ID)
}
