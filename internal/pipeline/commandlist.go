// Package pipeline implements the Pipeline Builder/Executor (spec §4.4) and
// the Exit-Status Normaliser (spec §4.7).
//
// Grounded on xonsh's built_ins.py (run_subproc/subproc_captured/
// subproc_uncaptured) and proc.py (get_proc/AndProc/OrProc/get_return_code);
// the Stage tagged-union replaces the source's class hierarchy per spec §9.
package pipeline

// StageKind tags the kind of a StageSpec (spec §3 "stage ... tagged with an
// execution kind").
type StageKind int

const (
	KindCmd StageKind = iota
	KindAnd
	KindOr
)

// StageSpec is one stage of a command list: either a plain command (Tokens
// holds its argv, including any trailing redirection tokens the builder will
// strip) or a logical connective wrapping two sub-command-lists.
type StageSpec struct {
	Kind StageKind

	Tokens []string // KindCmd only

	Left, Right *CommandList // KindAnd/KindOr only
}

// Entry is one element of a CommandList: a Stage, or a connector string
// between two stages (spec §3 "each entry is either a stage ... or a
// connector string drawn from {"|","&"}").
type Entry struct {
	Stage     *StageSpec
	Connector string // "|", "&", or "" when Stage is set
}

// CommandList is the ordered sequence the Pipeline Builder consumes (spec §3
// "Command list"). Background is derived by stripping a trailing "&"
// connector during parsing.
type CommandList struct {
	Entries    []Entry
	Background bool
}

// Cmd builds a single plain-command stage spec.
func Cmd(tokens ...string) *StageSpec {
	return &StageSpec{Kind: KindCmd, Tokens: tokens}
}

// And builds an "and" composite stage spec.
func And(left, right *CommandList) *StageSpec {
	return &StageSpec{Kind: KindAnd, Left: left, Right: right}
}

// Or builds an "or" composite stage spec.
func Or(left, right *CommandList) *StageSpec {
	return &StageSpec{Kind: KindOr, Left: left, Right: right}
}

// NewPipeline joins stages left to right with "|" connectors, optionally
// marking the result background.
func NewPipeline(background bool, stages ...*StageSpec) *CommandList {
	cl := &CommandList{Background: background}
	for i, s := range stages {
		if i > 0 {
			cl.Entries = append(cl.Entries, Entry{Connector: "|"})
		}
		cl.Entries = append(cl.Entries, Entry{Stage: s})
	}
	return cl
}

// Stages returns the stage specs of cl in order, skipping connectors.
func (cl *CommandList) Stages() []*StageSpec {
	var out []*StageSpec
	for _, e := range cl.Entries {
		if e.Stage != nil {
			out = append(out, e.Stage)
		}
	}
	return out
}
