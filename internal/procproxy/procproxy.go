// Package procproxy implements the Proc-Proxy Runtime (spec §4.3): it runs
// a user-supplied callable on a dedicated goroutine while presenting the
// same three-stream/wait/returncode surface as an OS child process.
//
// Grounded on xonsh's proc.py ProcProxy/SimpleProcProxy, with the worker
// thread reimplemented as a goroutine plus explicit pipe ownership per spec
// §9 ("in-process pseudo-subprocess" design note).
package procproxy

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/mikaelmansson/opsh/internal/redirect"
)

// FourArg is the four-arg callable shape: (args, stdin, stdout, stderr) → result.
// result may be nil (success), a bool, or an int exit code; anything else is
// a runtime-error sentinel (spec §4.3 "exit semantics").
type FourArg func(args []string, stdin io.Reader, stdout, stderr io.Writer) any

// Simple is the two-arg callable shape: (args, input) → result. result may be
// a string (written to stdout), a [2]string{out, err} pair (each written to
// its stream, empty entries skipped), any other non-nil value (stringified
// to stdout), or nil.
type Simple func(args []string, input string) any

// Proxy is a running (or finished) proc-proxy stage.
type Proxy struct {
	Stdin  *os.File // writable, parent side; nil if stdin wasn't a pipe
	Stdout *os.File // readable, parent side; nil if stdout wasn't a pipe
	Stderr *os.File // readable, parent side; nil if stderr wasn't a pipe

	done       chan struct{}
	returncode *int
	callErr    error
	owned      []*os.File // file handles this proxy must close on Wait
}

// Start launches a four-arg callable proxy per the construction rules of
// spec §4.3: pipes are allocated for every PIPE-bound stream; INHERIT,
// DEVNULL, FD, and File bindings map to the corresponding read/write end.
func Start(fn FourArg, args []string, bindings *redirect.Bindings, textMode bool) (*Proxy, error) {
	childIn, parentIn, ownedIn, err := makeReadSide(bindings, redirect.Stdin, os.Stdin)
	if err != nil {
		return nil, err
	}
	childOut, parentOut, ownedOut, err := makeWriteSide(bindings, redirect.Stdout, os.Stdout)
	if err != nil {
		closeAll(ownedIn)
		return nil, err
	}
	childErr, parentErr, ownedErr, err := makeWriteSide(bindings, redirect.Stderr, os.Stderr)
	if err != nil {
		closeAll(ownedIn, ownedOut)
		return nil, err
	}

	p := &Proxy{
		Stdin:  parentIn,
		Stdout: parentOut,
		Stderr: parentErr,
		done:   make(chan struct{}),
		owned:  append(append(ownedIn, ownedOut...), ownedErr...),
	}

	go func() {
		defer close(p.done)
		defer closeReaderIfFile(childIn)
		defer closeWriterIfFile(childOut)
		defer closeWriterIfFile(childErr)

		result := func() (res any) {
			defer func() {
				if r := recover(); r != nil {
					res = fmt.Errorf("proc-proxy callable panicked: %v", r)
				}
			}()
			return fn(args, childIn, childOut, childErr)
		}()

		code, callErr := normalizeFourArgResult(result)
		p.returncode = &code
		p.callErr = callErr
	}()

	return p, nil
}

// StartSimple launches a two-arg ("simple") callable proxy. Its stdin is
// fully read into a string before the call; its stdout/stderr are built from
// the return value rather than written to incrementally.
func StartSimple(fn Simple, args []string, bindings *redirect.Bindings, input string) (*Proxy, error) {
	childOut, parentOut, ownedOut, err := makeWriteSide(bindings, redirect.Stdout, os.Stdout)
	if err != nil {
		return nil, err
	}
	childErr, parentErr, ownedErr, err := makeWriteSide(bindings, redirect.Stderr, os.Stderr)
	if err != nil {
		closeAll(ownedOut)
		return nil, err
	}

	p := &Proxy{
		Stdout: parentOut,
		Stderr: parentErr,
		done:   make(chan struct{}),
		owned:  append(ownedOut, ownedErr...),
	}

	go func() {
		defer close(p.done)
		defer closeWriterIfFile(childOut)
		defer closeWriterIfFile(childErr)

		ok := true
		result := func() (res any) {
			defer func() {
				if r := recover(); r != nil {
					ok = false
				}
			}()
			return fn(args, input)
		}()

		if ok {
			writeSimpleResult(childOut, childErr, result)
		}

		code := 0
		if !ok {
			code = 1
		}
		p.returncode = &code
	}()

	return p, nil
}

func writeSimpleResult(out, errw io.Writer, result any) {
	switch v := result.(type) {
	case nil:
		return
	case string:
		if out != nil {
			io.WriteString(out, v)
		}
	case [2]string:
		if v[0] != "" && out != nil {
			io.WriteString(out, v[0])
		}
		if v[1] != "" && errw != nil {
			io.WriteString(errw, v[1])
		}
	default:
		if out != nil {
			fmt.Fprint(out, v)
		}
	}
}

// normalizeFourArgResult applies spec §4.3: non-nil return is the exit
// status; nil means success (true).
func normalizeFourArgResult(result any) (int, error) {
	switch v := result.(type) {
	case nil:
		return 0, nil
	case bool:
		if v {
			return 0, nil
		}
		return 1, nil
	case int:
		return v, nil
	case error:
		return 1, v
	default:
		return 1, fmt.Errorf("proc-proxy callable returned unexpected type %T", v)
	}
}

// Wait blocks on the callable's goroutine and releases any owned file
// handles, mirroring thread-join semantics (spec §4.3 "wait() blocks on
// thread join").
func (p *Proxy) Wait() (int, error) {
	<-p.done
	closeAll(p.owned)
	if p.returncode == nil {
		return 1, p.callErr
	}
	return *p.returncode, p.callErr
}

// Poll returns the current returncode without blocking, or (0, false) while
// still running.
func (p *Proxy) Poll() (int, bool) {
	select {
	case <-p.done:
		if p.returncode == nil {
			return 1, true
		}
		return *p.returncode, true
	default:
		return 0, false
	}
}

// closeWriterIfFile closes w if it is backed by an *os.File, so that a piped
// parent-side reader observes EOF as soon as the callable finishes.
func closeWriterIfFile(w io.Writer) {
	if f, ok := w.(*os.File); ok && f != nil {
		f.Close()
	}
}

// closeReaderIfFile is the read-side analogue of closeWriterIfFile.
func closeReaderIfFile(r io.Reader) {
	if f, ok := r.(*os.File); ok && f != nil {
		f.Close()
	}
}

func closeAll(groups ...[]*os.File) {
	for _, g := range groups {
		for _, f := range g {
			if f != nil {
				f.Close()
			}
		}
	}
}

// makeReadSide resolves the child-facing reader for a PIPE/INHERIT/DEVNULL/
// FILE/FD binding, returning the child side, the parent-visible writable end
// (only set for PIPE), and the handles this call allocated.
func makeReadSide(bindings *redirect.Bindings, stream redirect.Stream, fallback *os.File) (io.Reader, *os.File, []*os.File, error) {
	bind, ok := bindings.Get(stream)
	if !ok {
		return fallback, nil, nil, nil
	}
	switch bind.Kind {
	case redirect.Pipe:
		r, w, err := os.Pipe()
		if err != nil {
			return nil, nil, nil, err
		}
		return r, w, []*os.File{r}, nil
	case redirect.Devnull:
		f, err := os.Open(os.DevNull)
		if err != nil {
			return nil, nil, nil, err
		}
		return f, nil, []*os.File{f}, nil
	case redirect.File, redirect.FD:
		if bind.File != nil {
			return bind.File, nil, []*os.File{bind.File}, nil
		}
		return os.NewFile(uintptr(bind.FD), "fd"), nil, nil, nil
	default:
		return fallback, nil, nil, nil
	}
}

// makeWriteSide is the write-side analogue of makeReadSide.
func makeWriteSide(bindings *redirect.Bindings, stream redirect.Stream, fallback *os.File) (io.Writer, *os.File, []*os.File, error) {
	bind, ok := bindings.Get(stream)
	if !ok {
		return fallback, nil, nil, nil
	}
	switch bind.Kind {
	case redirect.Pipe:
		r, w, err := os.Pipe()
		if err != nil {
			return nil, nil, nil, err
		}
		return w, r, []*os.File{w}, nil
	case redirect.Devnull:
		f, err := os.OpenFile(os.DevNull, os.O_WRONLY, 0)
		if err != nil {
			return nil, nil, nil, err
		}
		return f, nil, []*os.File{f}, nil
	case redirect.MergeToStdout:
		return nil, nil, nil, nil // resolved by the pipeline builder, not here
	case redirect.File, redirect.FD:
		if bind.File != nil {
			return bind.File, nil, []*os.File{bind.File}, nil
		}
		return os.NewFile(uintptr(bind.FD), "fd"), nil, nil, nil
	default:
		return fallback, nil, nil, nil
	}
}

// ReadAllString drains r to EOF and returns it as a string; used by callers
// constructing the "input" argument for a Simple callable from an upstream
// pipe (spec §4.3 construction inputs).
func ReadAllString(r io.Reader) (string, error) {
	var buf bytes.Buffer
	_, err := io.Copy(&buf, r)
	return buf.String(), err
}
