package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flowShop/internal/hho"
)

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "hho.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := load("", map[string]string{})
	require.NoError(t, err)
	assert.Equal(t, hho.DefaultConfig(), cfg)
}

func TestLoadFileThenEnv(t *testing.T) {
	path := writeFile(t, "populationSize: 12\nmutationRate: 0.2\nadaptiveParameters: false\n")

	cfg, err := load(path, map[string]string{})
	require.NoError(t, err)
	assert.Equal(t, 12, cfg.PopulationSize)
	assert.Equal(t, 0.2, cfg.MutationRate)
	assert.False(t, cfg.AdaptiveParameters)
	assert.Equal(t, hho.DefaultConfig().MaxIterations, cfg.MaxIterations)

	cfg, err = load(path, map[string]string{
		"HHO_POPULATION_SIZE": "40",
		"HHO_MAX_ITERATIONS":  "250",
	})
	require.NoError(t, err)
	assert.Equal(t, 40, cfg.PopulationSize)
	assert.Equal(t, 250, cfg.MaxIterations)
	assert.Equal(t, 0.2, cfg.MutationRate)
}

func TestLoadErrors(t *testing.T) {
	_, err := load(filepath.Join(t.TempDir(), "missing.yaml"), map[string]string{})
	assert.ErrorIs(t, err, os.ErrNotExist)

	_, err = load(writeFile(t, "unknownField: 1\n"), map[string]string{})
	assert.Error(t, err)

	_, err = load("", map[string]string{"HHO_POPULATION_SIZE": "many"})
	assert.Error(t, err)

	_, err = load(writeFile(t, "crossoverRate: 4\n"), map[string]string{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "вероятность кроссовера")
}

func TestSaveRoundTrip(t *testing.T) {
	cfg := hho.DefaultConfig()
	cfg.EliteCount = 5
	path := filepath.Join(t.TempDir(), "out.yaml")
	require.NoError(t, Save(path, cfg))

	back, err := load(path, map[string]string{})
	require.NoError(t, err)
	assert.Equal(t, cfg, back)
}
