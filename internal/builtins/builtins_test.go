package builtins_test

import (
	"bytes"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mikaelmansson/opsh/internal/alias"
	"github.com/mikaelmansson/opsh/internal/builtins"
	"github.com/mikaelmansson/opsh/internal/jobctl"
	"github.com/mikaelmansson/opsh/internal/pipeline"
	"github.com/mikaelmansson/opsh/internal/shellctx"
	"github.com/mikaelmansson/opsh/internal/shellenv"
)

func newContext() *shellctx.Context {
	return shellctx.New(shellenv.New(), alias.NewTable(), jobctl.NewRegistry(), "/")
}

func TestSubprocCaptured_ReturnsStdout(t *testing.T) {
	ctx := newContext()
	cl := pipeline.NewPipeline(false, pipeline.Cmd("echo", "hello"))

	out, err := builtins.SubprocCaptured(ctx, cl)
	require.NoError(t, err)
	assert.Equal(t, "hello\n", out)
}

func TestSubprocUncaptured_ReportsSuccess(t *testing.T) {
	ctx := newContext()
	cl := pipeline.NewPipeline(false, pipeline.Cmd("true"))

	ok, err := builtins.SubprocUncaptured(ctx, cl)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestHelp_PrintsAndReturnsValue(t *testing.T) {
	var buf bytes.Buffer
	got := builtins.Help(&buf, 42)
	assert.Equal(t, 42, got)
	assert.Contains(t, buf.String(), "42")
}

func TestSuperhelp_PrintsAndReturnsValue(t *testing.T) {
	var buf bytes.Buffer
	got := builtins.Superhelp(&buf, "x")
	assert.Equal(t, "x", got)
	assert.NotEmpty(t, buf.String())
}

func TestGlob_ReturnsPatternWhenNoMatch(t *testing.T) {
	matches, err := builtins.Glob(filepath.Join(t.TempDir(), "nope-*.txt"))
	require.NoError(t, err)
	require.Len(t, matches, 1)
}

func TestGlob_ExpandsExistingFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("x"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.txt"), []byte("x"), 0644))

	matches, err := builtins.Glob(filepath.Join(dir, "*.txt"))
	require.NoError(t, err)
	assert.Len(t, matches, 2)
}

func TestRegexPath_MatchesComponentRegex(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(dir, "alpha"), 0755))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "beta"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "alpha", "f.txt"), []byte("x"), 0644))

	matches, err := builtins.RegexPath(filepath.Join(dir, "al.*"))
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, filepath.Join(dir, "alpha"), matches[0])
}

func TestEnsureListOfStrs(t *testing.T) {
	assert.Equal(t, []string{"a"}, builtins.EnsureListOfStrs("a"))
	assert.Equal(t, []string{"a", "b"}, builtins.EnsureListOfStrs([]string{"a", "b"}))
	assert.Equal(t, []string{"1", "2"}, builtins.EnsureListOfStrs([]any{1, 2}))
	assert.Equal(t, []string{"7"}, builtins.EnsureListOfStrs(7))
}

func TestJobs_ListsRegisteredJobs(t *testing.T) {
	ctx := newContext()
	cl := pipeline.NewPipeline(false, pipeline.Cmd("true"))
	_, err := builtins.SubprocUncaptured(ctx, cl)
	require.NoError(t, err)

	jobs := builtins.Jobs(ctx)
	require.NotEmpty(t, jobs)
}

func TestFgBg_ReturnNotImplementedStub(t *testing.T) {
	_, msg := builtins.Fg(nil)
	assert.Contains(t, msg, "not implemented")
	_, msg = builtins.Bg(nil)
	assert.Contains(t, msg, "not implemented")
}

func TestRegexPath_SortedOrder(t *testing.T) {
	dir := t.TempDir()
	names := []string{"c", "a", "b"}
	for _, n := range names {
		require.NoError(t, os.WriteFile(filepath.Join(dir, n), []byte("x"), 0644))
	}
	matches, err := builtins.RegexPath(filepath.Join(dir, "[abc]"))
	require.NoError(t, err)
	sorted := append([]string(nil), matches...)
	sort.Strings(sorted)
	assert.Equal(t, sorted, matches)
}
