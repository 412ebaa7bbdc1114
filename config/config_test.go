package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	require.NoError(t, Default().Validate())
}

func TestWeightedExcludesPositiveWeight(t *testing.T) {
	for _, w := range []float64{0, 0.5, 1, 7} {
		var f = DefaultFit()
		f.Weighted = true
		f.PositiveWeight = Float(w)
		assert.ErrorIs(t, f.Validate(), ErrConfig, "positive_weight %v", w)
	}
}

func TestValidateRejects(t *testing.T) {
	var m = DefaultModel()
	m.Loss = "mse"
	assert.ErrorIs(t, m.Validate(), ErrNotImplemented)

	m = DefaultModel()
	m.ReturnSequences = false
	assert.ErrorIs(t, m.Validate(), ErrNotImplemented)

	m = DefaultModel()
	m.BatchSize = 0
	assert.ErrorIs(t, m.Validate(), ErrConfig)

	var f = DefaultFit()
	f.ValidationSize = 1
	assert.ErrorIs(t, f.Validate(), ErrConfig)

	f = DefaultFit()
	f.EarlyStopping = &EarlyStopping{Monitor: "val_loss", Mode: "sideways"}
	assert.ErrorIs(t, f.Validate(), ErrConfig)

	f = DefaultFit()
	f.ValidationFill = "spiral"
	assert.ErrorIs(t, f.Validate(), ErrConfig)

	f = DefaultFit()
	f.StackedSizes = []int{16, 0}
	assert.ErrorIs(t, f.Validate(), ErrConfig)
}

func TestSaveLoad(t *testing.T) {
	var path = filepath.Join(t.TempDir(), "nested", "config.yaml")
	var cfg = Default()
	cfg.Fit.StackedSizes = []int{32}
	cfg.Fit.LearningRate = Float(0.01)
	cfg.Fit.EarlyStopping = &EarlyStopping{Monitor: "val_loss", MinDelta: 0.001, Patience: 3, Mode: "min"}
	require.NoError(t, Save(path, cfg))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg.Model, loaded.Model)
	assert.Equal(t, []int{32}, loaded.Fit.StackedSizes)
	require.NotNil(t, loaded.Fit.LearningRate)
	assert.Equal(t, 0.01, *loaded.Fit.LearningRate)
	assert.Equal(t, cfg.Fit.EarlyStopping, loaded.Fit.EarlyStopping)
	assert.Nil(t, loaded.Fit.PositiveWeight)
}

func TestLoadKeepsDefaults(t *testing.T) {
	var path = filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("fit:\n  num_epochs: 3\n"), 0o644))
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Fit.NumEpochs)
	assert.Equal(t, 128, cfg.Fit.Timesteps)
	assert.Equal(t, 128, cfg.Model.HiddenSize)
}

func TestResolveEnv(t *testing.T) {
	t.Setenv("SEQCLASSIFIER_DB", "/tmp/x.db")
	t.Setenv("METRICS_ADDR", ":9100")
	var cfg Config
	cfg.ResolveEnv()
	assert.Equal(t, "/tmp/x.db", cfg.Storage.DBPath)
	assert.Equal(t, ":9100", cfg.Metrics.Addr)
}

func TestResolveEnvOverDefaults(t *testing.T) {
	t.Setenv("SEQCLASSIFIER_DB", "/tmp/from_env.db")
	var cfg = Default()
	cfg.ResolveEnv()
	assert.Equal(t, "/tmp/from_env.db", cfg.Storage.DBPath)

	var path = filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("fit:\n  num_epochs: 3\n"), 0o644))
	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/from_env.db", loaded.Storage.DBPath)

	// a path in the file wins
	require.NoError(t, os.WriteFile(path, []byte("storage:\n  db_path: file.db\n"), 0o644))
	loaded, err = Load(path)
	require.NoError(t, err)
	assert.Equal(t, "file.db", loaded.Storage.DBPath)
}

func TestDefaultHasNoDatabase(t *testing.T) {
	t.Setenv("SEQCLASSIFIER_DB", "")
	var cfg = Default()
	cfg.ResolveEnv()
	assert.Empty(t, cfg.Storage.DBPath)
}
