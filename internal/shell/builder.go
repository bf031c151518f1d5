package shell

import (
	"fmt"

	"github.com/mikaelmansson/opsh/internal/pipeline"
)

// BuildCommandLists converts one REPL input line into the sequence of
// independent command lists it represents: consecutive chains connected by
// "&&"/"||" fold into one CommandList via nested pipeline.And/Or composite
// stages, while a ";" starts a new, unconditionally-run group (the
// Pipeline Builder's And/Or composites are the only connectives the core
// engine models; ";" is a REPL-level concern). A trailing "&" marks the
// final group as background.
func BuildCommandLists(line string) ([]*pipeline.CommandList, error) {
	tokens, err := Tokenize(line)
	if err != nil {
		return nil, err
	}
	chains, background := SplitByChain(tokens)
	if len(chains) == 0 {
		return nil, nil
	}

	var groups []*pipeline.CommandList
	var folded *pipeline.CommandList
	pendingOp := ChainNone

	flush := func() {
		if folded != nil {
			groups = append(groups, folded)
		}
		folded = nil
	}

	for _, chain := range chains {
		cl, err := buildPipeline(chain.Tokens)
		if err != nil {
			return nil, err
		}

		switch pendingOp {
		case ChainAnd:
			folded = pipeline.NewPipeline(false, pipeline.And(folded, cl))
		case ChainOr:
			folded = pipeline.NewPipeline(false, pipeline.Or(folded, cl))
		default:
			flush()
			folded = cl
		}

		pendingOp = chain.Operator
		if chain.Operator == ChainSeq {
			flush()
			pendingOp = ChainNone
		}
	}
	flush()

	if background && len(groups) > 0 {
		groups[len(groups)-1].Background = true
	}

	return groups, nil
}

func buildPipeline(tokens []Token) (*pipeline.CommandList, error) {
	segments := SplitByPipe(tokens)
	stages := make([]*pipeline.StageSpec, 0, len(segments))
	for _, seg := range segments {
		argv := make([]string, 0, len(seg))
		for _, tok := range seg {
			argv = append(argv, tok.Value)
		}
		if len(argv) == 0 {
			return nil, fmt.Errorf("syntax error: empty command")
		}
		stages = append(stages, pipeline.Cmd(argv...))
	}
	return pipeline.NewPipeline(false, stages...), nil
}
