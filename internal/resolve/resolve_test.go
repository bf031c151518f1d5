package resolve_test

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mikaelmansson/opsh/internal/alias"
	"github.com/mikaelmansson/opsh/internal/procproxy"
	"github.com/mikaelmansson/opsh/internal/resolve"
	"github.com/mikaelmansson/opsh/internal/shellenv"
)

func writeExecutable(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0755))
	return path
}

func newEnvWithPath(dirs ...string) *shellenv.Env {
	env := shellenv.New()
	env.Set("PATH", joinPath(dirs))
	return env
}

func joinPath(dirs []string) string {
	s := ""
	for i, d := range dirs {
		if i > 0 {
			s += string(os.PathListSeparator)
		}
		s += d
	}
	return s
}

func TestResolve_AliasCallable(t *testing.T) {
	table := alias.NewTable()
	var gotArgs []string
	table.SetCallable("greet", procproxy.FourArg(func(args []string, stdin io.Reader, stdout, stderr io.Writer) any {
		gotArgs = args
		return nil
	}))
	env := shellenv.New()

	plan, err := resolve.Resolve([]string{"greet", "world"}, table, env)
	require.NoError(t, err)
	require.NotNil(t, plan.Callable)
	fn, ok := plan.Callable.(procproxy.FourArg)
	require.True(t, ok)
	assert.Nil(t, fn([]string{"world"}, nil, nil, nil))
	assert.Equal(t, []string{"world"}, gotArgs)
}

func TestResolve_ExplicitPathUsedDirectly(t *testing.T) {
	dir := t.TempDir()
	script := writeExecutable(t, dir, "tool.sh", "#!/bin/sh\necho hi\n")
	env := shellenv.New()
	table := alias.NewTable()

	plan, err := resolve.Resolve([]string{script}, table, env)
	require.NoError(t, err)
	assert.Equal(t, []string{script}, plan.Argv)
}

func TestResolve_PathSearchFindsBinary(t *testing.T) {
	dir := t.TempDir()
	bin := writeExecutable(t, dir, "mytool", "\x7fELF\x00garbage")
	env := newEnvWithPath(dir)
	table := alias.NewTable()

	plan, err := resolve.Resolve([]string{"mytool", "arg"}, table, env)
	require.NoError(t, err)
	assert.Equal(t, []string{bin, "arg"}, plan.Argv)
}

func TestResolve_NotFoundReturnsBareTokens(t *testing.T) {
	env := newEnvWithPath(t.TempDir())
	table := alias.NewTable()

	plan, err := resolve.Resolve([]string{"nope-does-not-exist"}, table, env)
	require.NoError(t, err)
	assert.Equal(t, []string{"nope-does-not-exist"}, plan.Argv)
}

func TestResolve_ShebangScriptRewritesInterpreter(t *testing.T) {
	dir := t.TempDir()
	script := writeExecutable(t, dir, "runme", "#!/usr/bin/env python3\nprint('hi')\n")
	env := newEnvWithPath(dir)
	table := alias.NewTable()

	plan, err := resolve.Resolve([]string{"runme"}, table, env)
	require.NoError(t, err)
	assert.Equal(t, []string{"python3", script}, plan.Argv)
}

func TestResolve_NonExecutableScriptFails(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "noexec")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"), 0644))
	env := newEnvWithPath(dir)
	table := alias.NewTable()

	_, err := resolve.Resolve([]string{"noexec"}, table, env)
	require.Error(t, err)
}

func TestResolve_AliasExpandsIntoPathLookup(t *testing.T) {
	dir := t.TempDir()
	bin := writeExecutable(t, dir, "ls", "\x00binary")
	env := newEnvWithPath(dir)
	table := alias.NewTable()
	table.SetTokens("ll", "ls", "-al")

	plan, err := resolve.Resolve([]string{"ll", "x"}, table, env)
	require.NoError(t, err)
	assert.Equal(t, []string{bin, "-al", "x"}, plan.Argv)
}

func TestSuggest_RanksCloseMatches(t *testing.T) {
	candidates := []string{"status", "stash", "commit", "checkout"}
	got := resolve.Suggest("stat", candidates)
	require.NotEmpty(t, got)
	assert.Contains(t, got, "status")
}
