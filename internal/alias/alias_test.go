package alias_test

import (
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mikaelmansson/opsh/internal/alias"
	"github.com/mikaelmansson/opsh/internal/procproxy"
)

func TestLookup_PlainTokens(t *testing.T) {
	tbl := alias.NewTable()
	tbl.SetTokens("ls", "ls", "--color=auto")

	res, ok, err := tbl.Lookup("ls")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []string{"ls", "--color=auto"}, res.Tokens)
}

func TestLookup_RecursiveExpansion(t *testing.T) {
	tbl := alias.NewTable()
	tbl.SetTokens("ls", "ls", "--color=auto")
	tbl.SetTokens("l", "ls", "-CF")

	res, ok, err := tbl.Lookup("l")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []string{"ls", "--color=auto", "-CF"}, res.Tokens)
}

func TestLookup_CycleStopsExpansion(t *testing.T) {
	tbl := alias.NewTable()
	tbl.SetTokens("egrep", "egrep", "--color=auto")

	res, ok, err := tbl.Lookup("egrep")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []string{"egrep", "--color=auto"}, res.Tokens)
}

func TestLookup_MutualCycleStopsAtSeenToken(t *testing.T) {
	tbl := alias.NewTable()
	tbl.SetTokens("a", "b", "x")
	tbl.SetTokens("b", "a", "y")

	res, ok, err := tbl.Lookup("a")
	require.NoError(t, err)
	require.True(t, ok)
	// a -> [b x] -> b not seen -> eval(b, seen={a,b}, acc=[x]) -> [a y x]
	// -> a in seen -> stop, returning tokens+acc
	assert.Equal(t, []string{"a", "y", "x"}, res.Tokens)
}

func TestLookup_CallablePartialApplication(t *testing.T) {
	tbl := alias.NewTable()
	var captured []string
	tbl.SetCallable("target", procproxy.FourArg(func(args []string, stdin io.Reader, stdout, stderr io.Writer) any {
		captured = args
		return nil
	}))
	tbl.SetTokens("wrapped", "target", "-al")

	res, ok, err := tbl.Lookup("wrapped")
	require.NoError(t, err)
	require.True(t, ok)
	require.NotNil(t, res.Callable)

	fn, ok := res.Callable.(procproxy.FourArg)
	require.True(t, ok)
	assert.Nil(t, fn([]string{"file.txt"}, nil, nil, nil))
	assert.Equal(t, []string{"-al", "file.txt"}, captured)
}

func TestLookup_MissingKeyReturnsNotFound(t *testing.T) {
	tbl := alias.NewTable()
	_, ok, err := tbl.Lookup("nope")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestLookup_InvalidAliasType(t *testing.T) {
	tbl := alias.NewTable()
	tbl.SetTokens("broken")

	_, _, err := tbl.Lookup("broken")
	require.Error(t, err)
}

func TestNamesAndHas(t *testing.T) {
	tbl := alias.NewTable()
	tbl.SetTokens("ls", "ls")
	assert.True(t, tbl.Has("ls"))
	assert.False(t, tbl.Has("ll"))
	assert.Contains(t, tbl.Names(), "ls")
}

func TestSplitWords(t *testing.T) {
	assert.Equal(t, []string{"ls", "-al"}, alias.SplitWords("ls   -al"))
}
