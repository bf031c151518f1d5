package config_test

import (
	"os"
	"testing"

	"github.com/mikaelmansson/opsh/internal/config"
	"github.com/stretchr/testify/assert"
)

func TestLoad_PathExtraFromEnv(t *testing.T) {
	os.Setenv("OPSH_PATH_EXTRA", "/opt/tools"+string(os.PathListSeparator)+"/opt/more")
	defer os.Unsetenv("OPSH_PATH_EXTRA")

	cfg, err := config.Load()
	assert.NoError(t, err)
	assert.Contains(t, cfg.PathExtra, "/opt/tools")
	assert.Contains(t, cfg.PathExtra, "/opt/more")
}

func TestConfigPath(t *testing.T) {
	path, err := config.ConfigPath()
	assert.NoError(t, err)
	assert.Contains(t, path, ".opsh/config.yaml")
}

func TestDefault_SeedsEmptyAliasMap(t *testing.T) {
	cfg := config.Default()
	assert.NotNil(t, cfg.Aliases)
	assert.Equal(t, 1000, cfg.HistorySize)
}
