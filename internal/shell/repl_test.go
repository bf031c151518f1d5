package shell

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mikaelmansson/opsh/internal/alias"
	"github.com/mikaelmansson/opsh/internal/jobctl"
	"github.com/mikaelmansson/opsh/internal/shellctx"
	"github.com/mikaelmansson/opsh/internal/shellenv"
)

func newTestShell(t *testing.T) *Shell {
	t.Helper()
	dir := t.TempDir()
	ctx := shellctx.New(shellenv.New(), alias.NewTable(), jobctl.NewRegistry(), dir)
	return &Shell{Ctx: ctx}
}

func TestExpandHistory_BangBang(t *testing.T) {
	sh := newTestShell(t)
	sh.sessionHistory = []string{"ls -la", "echo hi"}

	got, err := sh.expandHistory("!!")
	require.NoError(t, err)
	assert.Equal(t, "echo hi", got)
}

func TestExpandHistory_BangBangEmptyFails(t *testing.T) {
	sh := newTestShell(t)
	_, err := sh.expandHistory("!!")
	assert.Error(t, err)
}

func TestExpandHistory_BangMinusN(t *testing.T) {
	sh := newTestShell(t)
	sh.sessionHistory = []string{"one", "two", "three"}

	got, err := sh.expandHistory("!-2")
	require.NoError(t, err)
	assert.Equal(t, "two", got)
}

func TestExpandHistory_BangMinusNOutOfRangeFails(t *testing.T) {
	sh := newTestShell(t)
	sh.sessionHistory = []string{"one"}

	_, err := sh.expandHistory("!-5")
	assert.Error(t, err)
}

func TestBuiltinCd_ChangesContextCWD(t *testing.T) {
	sh := newTestShell(t)
	start := sh.Ctx.CWD()

	sub := filepath.Join(start, "child")
	require.NoError(t, os.Mkdir(sub, 0755))

	sh.builtinCd([]string{"child"})
	assert.Equal(t, filepath.Base(sub), filepath.Base(sh.Ctx.CWD()))

	t.Cleanup(func() { _ = os.Chdir(start) })
}

func TestBuiltinCd_UnknownDirLeavesCWDUnchanged(t *testing.T) {
	sh := newTestShell(t)
	start := sh.Ctx.CWD()

	sh.builtinCd([]string{"does-not-exist"})
	assert.Equal(t, start, sh.Ctx.CWD())
}

func TestRunDriverBuiltin_RecognizesCdAndJobs(t *testing.T) {
	sh := newTestShell(t)
	assert.True(t, sh.runDriverBuiltin("cd /tmp"))
	assert.True(t, sh.runDriverBuiltin("jobs"))
	assert.False(t, sh.runDriverBuiltin("echo hi"))
}
