package procproxy_test

import (
	"bufio"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mikaelmansson/opsh/internal/procproxy"
	"github.com/mikaelmansson/opsh/internal/redirect"
)

func TestStart_FourArgWritesToPipedStdout(t *testing.T) {
	bindings := redirect.NewBindings()
	bindings.Set(redirect.Stdout, redirect.Binding{Kind: redirect.Pipe})

	p, err := procproxy.Start(func(args []string, stdin io.Reader, stdout, stderr io.Writer) any {
		io.WriteString(stdout, "hello\n")
		return nil
	}, nil, bindings, true)
	require.NoError(t, err)

	reader := bufio.NewReader(p.Stdout)
	line, _ := reader.ReadString('\n')
	assert.Equal(t, "hello\n", line)

	code, callErr := p.Wait()
	require.NoError(t, callErr)
	assert.Equal(t, 0, code)
}

func TestStart_FourArgNonZeroExit(t *testing.T) {
	bindings := redirect.NewBindings()
	p, err := procproxy.Start(func(args []string, stdin io.Reader, stdout, stderr io.Writer) any {
		return 3
	}, nil, bindings, true)
	require.NoError(t, err)

	code, _ := p.Wait()
	assert.Equal(t, 3, code)
}

func TestStartSimple_StringResultWritesStdout(t *testing.T) {
	bindings := redirect.NewBindings()
	bindings.Set(redirect.Stdout, redirect.Binding{Kind: redirect.Pipe})

	p, err := procproxy.StartSimple(func(args []string, input string) any {
		return "ok\n"
	}, nil, bindings, "")
	require.NoError(t, err)

	reader := bufio.NewReader(p.Stdout)
	line, _ := reader.ReadString('\n')
	assert.Equal(t, "ok\n", line)

	code, callErr := p.Wait()
	require.NoError(t, callErr)
	assert.Equal(t, 0, code)
}

func TestStartSimple_PanicBecomesFailure(t *testing.T) {
	bindings := redirect.NewBindings()
	p, err := procproxy.StartSimple(func(args []string, input string) any {
		panic("boom")
	}, nil, bindings, "")
	require.NoError(t, err)

	code, _ := p.Wait()
	assert.Equal(t, 1, code)
}
