// Package redirect implements the Redirection Parser (spec §4.1): it
// recognises redirection tokens of the form "[orig]OP[dest]" and mutates a
// per-stage stream-binding map, or fails with one of the named error kinds.
//
// This is a direct structural port of xonsh's proc.py `_redirect_io`/
// `_is_redirect`, with the regex-based matching rewritten as an explicit
// scanner (idiomatic Go avoids reaching for regexp on a grammar this small).
package redirect

import (
	"os"
	"strconv"
	"strings"

	"github.com/mikaelmansson/opsh/internal/shellerr"
)

// Stream names a standard stream slot on a stage.
type Stream int

const (
	Stdin Stream = iota
	Stdout
	Stderr
)

func (s Stream) String() string {
	switch s {
	case Stdin:
		return "stdin"
	case Stdout:
		return "stdout"
	case Stderr:
		return "stderr"
	default:
		return "unknown"
	}
}

// TargetKind tags what a Binding points at.
type TargetKind int

const (
	Inherit TargetKind = iota
	Pipe
	Devnull
	MergeToStdout // stderr only
	File
	FD
)

// Binding is the resolved target for one stream.
type Binding struct {
	Kind TargetKind
	File *os.File // set when Kind == File
	FD   int      // set when Kind == FD
}

// Bindings is the per-stage stream-binding map (spec §3 "Stream bindings").
// A Stream is present in the map iff it has been explicitly bound; absence
// means the pipeline builder chooses INHERIT/PIPE per its own rules (§4.4).
type Bindings struct {
	m map[Stream]Binding
}

func NewBindings() *Bindings {
	return &Bindings{m: make(map[Stream]Binding)}
}

func (b *Bindings) has(s Stream) bool {
	_, ok := b.m[s]
	return ok
}

// Get returns the binding for a stream and whether it was set.
func (b *Bindings) Get(s Stream) (Binding, bool) {
	v, ok := b.m[s]
	return v, ok
}

func (b *Bindings) set(s Stream, bind Binding) {
	b.m[s] = bind
}

// Set installs a binding directly, bypassing token parsing. Used by the
// Pipeline Builder to wire PIPE/INHERIT targets between adjacent stages,
// which never arise from a redirection token.
func (b *Bindings) Set(s Stream, bind Binding) {
	b.set(s, bind)
}

// mode is the resolved file-open mode for a redirection operator.
type mode int

const (
	modeRead mode = iota
	modeWriteTruncate
	modeWriteAppend
)

var (
	redirOut = map[string]bool{"": true, "1": true, "o": true, "out": true}
	redirErr = map[string]bool{"2": true, "e": true, "err": true}
	redirAll = map[string]bool{"&": true, "a": true, "all": true}
)

// isErrToOutShortcut recognises tokens like "2>1", "e>o", "err>out",
// optionally "&"-prefixed, that mean "merge stderr into stdout" (spec §3,
// §4.1 "err-marker > out-marker").
func isErrToOutShortcut(tok string) (bool, string) {
	t := strings.ReplaceAll(tok, "&", "")
	idx := strings.Index(t, ">")
	if idx < 0 || strings.Contains(t, ">>") {
		return false, t
	}
	orig, dest := t[:idx], t[idx+1:]
	if redirErr[orig] && redirOut[dest] && dest != "" {
		return true, t
	}
	return false, t
}

// split breaks a raw redirection token into (orig, op, dest). Returns ok=false
// if tok isn't shaped like a redirection operator at all.
func split(tok string) (orig string, op mode, dest string, ok bool) {
	for _, cand := range []struct {
		s string
		m mode
	}{
		{">>", modeWriteAppend},
		{">", modeWriteTruncate},
		{"<", modeRead},
	} {
		if idx := strings.Index(tok, cand.s); idx >= 0 {
			// Prefer the longest operator match: skip ">" if ">>" is present
			// at the same position (index search above already tries ">>" first).
			return tok[:idx], cand.m, tok[idx+len(cand.s):], true
		}
	}
	return "", 0, "", false
}

// Parse mutates bindings per a single redirection token. fileArg is the
// file-path argument that followed the token, if the token's grammar calls
// for one (empty dest and not an fd-dup). Files are opened with os.OpenFile
// using the conventional flags for the operator's mode.
func Parse(bindings *Bindings, tok string, fileArg string) error {
	if merge, _ := isErrToOutShortcut(tok); merge {
		if bindings.has(Stderr) {
			return shellerr.New(shellerr.KindRedirect, "multiple redirects for stderr")
		}
		bindings.set(Stderr, Binding{Kind: MergeToStdout})
		return nil
	}

	orig, m, dest, ok := split(tok)
	if !ok {
		return shellerr.New(shellerr.KindRedirect, "unrecognised redirection command: %s", tok)
	}

	loc := fileArg
	if strings.HasPrefix(dest, "&") {
		n, err := strconv.Atoi(dest[1:])
		if err != nil {
			return shellerr.New(shellerr.KindRedirect, "unrecognised redirection command: %s", tok)
		}
		if loc != "" {
			return shellerr.New(shellerr.KindRedirect, "unrecognised redirection command: %s", tok)
		}
		return bindFD(bindings, orig, m, n, tok)
	}

	switch m {
	case modeRead:
		if orig != "" || dest != "" {
			return shellerr.New(shellerr.KindRedirect, "unrecognised redirection command: %s", tok)
		}
		if bindings.has(Stdin) {
			return shellerr.New(shellerr.KindMultipleStdin, "multiple inputs for stdin")
		}
		f, err := openFile(loc, m)
		if err != nil {
			return err
		}
		bindings.set(Stdin, Binding{Kind: File, File: f})
		return nil
	case modeWriteTruncate, modeWriteAppend:
		targets, err := writeTargets(orig, dest, tok)
		if err != nil {
			return err
		}
		for _, t := range targets {
			if bindings.has(t) {
				return shellerr.New(shellerr.KindRedirect, "multiple redirects for %s", t)
			}
		}
		f, err := openFile(loc, m)
		if err != nil {
			return err
		}
		for _, t := range targets {
			bindings.set(t, Binding{Kind: File, File: f})
		}
		return nil
	default:
		return shellerr.New(shellerr.KindRedirect, "unrecognised redirection command: %s", tok)
	}
}

func writeTargets(orig, dest, tok string) ([]Stream, error) {
	switch {
	case redirAll[orig]:
		if dest != "" {
			return nil, shellerr.New(shellerr.KindRedirect, "unrecognised redirection command: %s", tok)
		}
		return []Stream{Stdout, Stderr}, nil
	case redirErr[orig]:
		if dest != "" {
			return nil, shellerr.New(shellerr.KindRedirect, "unrecognised redirection command: %s", tok)
		}
		return []Stream{Stderr}, nil
	case redirOut[orig]:
		if dest != "" {
			return nil, shellerr.New(shellerr.KindRedirect, "unrecognised redirection command: %s", tok)
		}
		return []Stream{Stdout}, nil
	default:
		return nil, shellerr.New(shellerr.KindRedirect, "unrecognised redirection command: %s", tok)
	}
}

func bindFD(bindings *Bindings, orig string, m mode, fd int, tok string) error {
	var targets []Stream
	switch m {
	case modeWriteTruncate, modeWriteAppend:
		t, err := writeTargets(orig, "", tok)
		if err != nil {
			return err
		}
		targets = t
	case modeRead:
		if orig != "" {
			return shellerr.New(shellerr.KindRedirect, "unrecognised redirection command: %s", tok)
		}
		targets = []Stream{Stdin}
	}
	for _, t := range targets {
		if bindings.has(t) {
			if t == Stdin {
				return shellerr.New(shellerr.KindMultipleStdin, "multiple inputs for stdin")
			}
			return shellerr.New(shellerr.KindRedirect, "multiple redirects for %s", t)
		}
	}
	for _, t := range targets {
		bindings.set(t, Binding{Kind: FD, FD: fd})
	}
	return nil
}

func openFile(path string, m mode) (*os.File, error) {
	var flag int
	switch m {
	case modeRead:
		flag = os.O_RDONLY
	case modeWriteTruncate:
		flag = os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	case modeWriteAppend:
		flag = os.O_WRONLY | os.O_CREATE | os.O_APPEND
	}
	f, err := os.OpenFile(path, flag, 0644)
	if err != nil {
		return nil, &shellerr.Error{Kind: shellerr.KindFileOpenFailed, Message: path + ": no such file or directory", Path: path}
	}
	return f, nil
}

// IsRedirectToken reports whether tok is shaped like a redirection operator
// (used by the Pipeline Builder to pull redirection tokens out of a stage's
// argv, wherever they appear, §4.4).
func IsRedirectToken(tok string) bool {
	if merge, _ := isErrToOutShortcut(tok); merge {
		return true
	}
	_, _, _, ok := split(tok)
	return ok
}

// NeedsFileArg reports whether tok (already confirmed a redirect token via
// IsRedirectToken) expects a following filename token rather than being
// self-contained (an fd-dup or the err-to-out shortcut).
func NeedsFileArg(tok string) bool {
	if merge, _ := isErrToOutShortcut(tok); merge {
		return false
	}
	_, _, dest, ok := split(tok)
	if !ok {
		return false
	}
	return !strings.HasPrefix(dest, "&")
}
