package redirect_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mikaelmansson/opsh/internal/redirect"
)

func TestParse_OutputTruncate(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.txt")

	b := redirect.NewBindings()
	require.NoError(t, redirect.Parse(b, ">", path))

	bind, ok := b.Get(redirect.Stdout)
	require.True(t, ok)
	assert.Equal(t, redirect.File, bind.Kind)
	bind.File.Close()
}

func TestParse_ErrToOutShortcuts(t *testing.T) {
	for _, tok := range []string{"2>1", "e>o", "err>out", "2>&1", "&2>&1"} {
		t.Run(tok, func(t *testing.T) {
			b := redirect.NewBindings()
			require.NoError(t, redirect.Parse(b, tok, ""))
			bind, ok := b.Get(redirect.Stderr)
			require.True(t, ok)
			assert.Equal(t, redirect.MergeToStdout, bind.Kind)
		})
	}
}

func TestParse_AllTargetsSharedHandle(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "both.txt")
	b := redirect.NewBindings()
	require.NoError(t, redirect.Parse(b, "&>", path))

	out, ok := b.Get(redirect.Stdout)
	require.True(t, ok)
	errb, ok := b.Get(redirect.Stderr)
	require.True(t, ok)
	assert.Same(t, out.File, errb.File)
	out.File.Close()
}

func TestParse_MultipleStdoutFails(t *testing.T) {
	dir := t.TempDir()
	b := redirect.NewBindings()
	require.NoError(t, redirect.Parse(b, ">", filepath.Join(dir, "a.txt")))
	err := redirect.Parse(b, ">", filepath.Join(dir, "b.txt"))
	require.Error(t, err)
}

func TestParse_MultipleStdinFails(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "in.txt")
	require.NoError(t, os.WriteFile(p, []byte("x"), 0644))

	b := redirect.NewBindings()
	require.NoError(t, redirect.Parse(b, "<", p))
	err := redirect.Parse(b, "<", p)
	require.Error(t, err)
}

func TestParse_FDDup(t *testing.T) {
	b := redirect.NewBindings()
	require.NoError(t, redirect.Parse(b, ">&2", ""))
	bind, ok := b.Get(redirect.Stdout)
	require.True(t, ok)
	assert.Equal(t, redirect.FD, bind.Kind)
	assert.Equal(t, 2, bind.FD)
}

func TestParse_UnrecognisedToken(t *testing.T) {
	b := redirect.NewBindings()
	err := redirect.Parse(b, "~bogus~", "")
	require.Error(t, err)
}

func TestParse_FileOpenFailed(t *testing.T) {
	b := redirect.NewBindings()
	err := redirect.Parse(b, "<", "/no/such/dir/file.txt")
	require.Error(t, err)
}

func TestParse_OrderIndependentForDistinctStreams(t *testing.T) {
	dir := t.TempDir()
	outPath := filepath.Join(dir, "out.txt")
	errPath := filepath.Join(dir, "err.txt")

	b1 := redirect.NewBindings()
	require.NoError(t, redirect.Parse(b1, ">", outPath))
	require.NoError(t, redirect.Parse(b1, "2>", errPath))

	b2 := redirect.NewBindings()
	require.NoError(t, redirect.Parse(b2, "2>", errPath))
	require.NoError(t, redirect.Parse(b2, ">", outPath))

	o1, _ := b1.Get(redirect.Stdout)
	o2, _ := b2.Get(redirect.Stdout)
	assert.Equal(t, o1.Kind, o2.Kind)
	e1, _ := b1.Get(redirect.Stderr)
	e2, _ := b2.Get(redirect.Stderr)
	assert.Equal(t, e1.Kind, e2.Kind)
}

func TestIsRedirectToken(t *testing.T) {
	for _, tok := range []string{">", ">>", "<", "2>", "2>>", "2>&1", "&>", ">&3"} {
		assert.True(t, redirect.IsRedirectToken(tok), tok)
	}
	assert.False(t, redirect.IsRedirectToken("echo"))
}
