package pipeline

import (
	"os"
	"os/exec"

	"github.com/mikaelmansson/opsh/internal/procproxy"
	"github.com/mikaelmansson/opsh/internal/shellerr"
)

// osChildStage wraps a real OS child process (spec §9 Stage variant OsChild).
type osChildStage struct {
	cmd        *exec.Cmd
	ownedFiles []*os.File
}

func (s *osChildStage) Wait() (any, error) {
	waitErr := s.cmd.Wait()
	for _, f := range s.ownedFiles {
		f.Close()
	}
	if waitErr != nil {
		if exitErr, ok := waitErr.(*exec.ExitError); ok {
			return exitErr.ExitCode(), nil
		}
		return 1, waitErr
	}
	return s.cmd.ProcessState.ExitCode(), nil
}

// procProxyStage wraps a proc-proxy (spec §9 Stage variant Proxy).
type procProxyStage struct {
	proxy *procproxy.Proxy
}

func (s *procProxyStage) Wait() (any, error) {
	code, err := s.proxy.Wait()
	return code == 0, err
}

// compositeStage wraps a resolved and/or result (spec §9 Stage variant
// Composite); its internal sub-pipelines have already run to completion by
// the time it is constructed, so Wait only replays the cached outcome.
type compositeStage struct {
	result bool
	err    error
}

func (s *compositeStage) Wait() (any, error) {
	return s.result, s.err
}

// buildComposite runs an and/or stage's two sub-command-lists, short
// circuiting strictly left to right (spec §4.4 "Logical connective stages").
func buildComposite(deps Deps, spec *StageSpec) (Stage, error) {
	leftResult, err := Run(deps, spec.Left, false)
	if err != nil {
		return nil, err
	}

	switch spec.Kind {
	case KindAnd:
		if !leftResult.Success {
			return &compositeStage{result: false}, nil
		}
		rightResult, err := Run(deps, spec.Right, false)
		if err != nil {
			return nil, err
		}
		return &compositeStage{result: rightResult.Success}, nil
	case KindOr:
		if leftResult.Success {
			return &compositeStage{result: true}, nil
		}
		rightResult, err := Run(deps, spec.Right, false)
		if err != nil {
			return nil, err
		}
		return &compositeStage{result: rightResult.Success}, nil
	default:
		return nil, shellerr.New(shellerr.KindRedirect, "bug: unknown composite stage kind")
	}
}
