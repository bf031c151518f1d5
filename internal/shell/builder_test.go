package shell_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mikaelmansson/opsh/internal/shell"
)

func TestBuildCommandLists_SinglePipeline(t *testing.T) {
	groups, err := shell.BuildCommandLists("echo hi | cat")
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.False(t, groups[0].Background)
}

func TestBuildCommandLists_SemicolonProducesIndependentGroups(t *testing.T) {
	groups, err := shell.BuildCommandLists("echo a ; echo b ; echo c")
	require.NoError(t, err)
	require.Len(t, groups, 3)
}

func TestBuildCommandLists_AndOrFoldIntoSingleGroup(t *testing.T) {
	groups, err := shell.BuildCommandLists("echo a && echo b || echo c")
	require.NoError(t, err)
	require.Len(t, groups, 1)
}

func TestBuildCommandLists_TrailingBackgroundMarksLastGroup(t *testing.T) {
	groups, err := shell.BuildCommandLists("echo a ; sleep 5 &")
	require.NoError(t, err)
	require.Len(t, groups, 2)
	assert.False(t, groups[0].Background)
	assert.True(t, groups[1].Background)
}

func TestBuildCommandLists_EmptyLineProducesNoGroups(t *testing.T) {
	groups, err := shell.BuildCommandLists("   ")
	require.NoError(t, err)
	assert.Empty(t, groups)
}

func TestBuildCommandLists_EmptyCommandIsSyntaxError(t *testing.T) {
	_, err := shell.BuildCommandLists("echo a | | echo b")
	assert.Error(t, err)
}

func TestBuildCommandLists_MixedAndSemicolon(t *testing.T) {
	groups, err := shell.BuildCommandLists("echo a && echo b ; echo c && echo d")
	require.NoError(t, err)
	require.Len(t, groups, 2)
}
