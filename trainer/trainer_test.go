package trainer

import "context"
import "math/rand"
import "os"
import "path/filepath"
import "testing"

import "github.com/sirupsen/logrus"
import "github.com/sirupsen/logrus/hooks/test"
import "github.com/stretchr/testify/assert"
import "github.com/stretchr/testify/require"

import "github.com/neurlang/seqclassifier/config"
import "github.com/neurlang/seqclassifier/datasets"
import "github.com/neurlang/seqclassifier/datasets/synthetic"
import "github.com/neurlang/seqclassifier/net/recurrent"

func smallOptions() Options {
	var m = config.DefaultModel()
	m.BatchSize = 2
	m.HiddenSize = 4
	var f = config.DefaultFit()
	f.Timesteps = 4
	f.NumEpochs = 2
	f.ValidationSize = 0.25
	f.Seed = 3
	logger, _ := test.NewNullLogger()
	return Options{Model: m, Fit: f, Logger: logger}
}

func small() []datasets.Sample {
	return synthetic.Small(rand.New(rand.NewSource(1)))
}

type batchCounter struct {
	batches int
	epochs  int
}

func (c *batchCounter) OnBatchEnd(int, map[string]float64) { c.batches++ }
func (c *batchCounter) OnEpochEnd(int, map[string]float64) bool {
	c.epochs++
	return false
}

func TestFit(t *testing.T) {
	var opts = smallOptions()
	var counter = new(batchCounter)
	opts.Callbacks = []Callback{counter}
	opts.Fit.DebugProgressPath = t.TempDir()

	history, net, err := Fit(context.Background(), small(), opts)
	require.NoError(t, err)
	require.NotNil(t, net)
	assert.Equal(t, 1, net.Architecture().Chunks)
	assert.NotEmpty(t, history.RunID)
	require.Len(t, history.Epochs, 2)
	for _, name := range []string{"loss", "acc", "precision", "recall", "auc_roc", "val_loss", "val_acc"} {
		assert.Contains(t, history.Epochs[0], name)
	}
	assert.Equal(t, 2, counter.epochs)
	assert.Greater(t, counter.batches, 0)
	assert.False(t, history.Stopped)

	_, err = os.Stat(filepath.Join(opts.Fit.DebugProgressPath, HistoryPlot))
	assert.NoError(t, err)
}

func TestFitWeightedWithPositiveWeight(t *testing.T) {
	for _, w := range []float64{0, 1, 2.5} {
		var opts = smallOptions()
		opts.Fit.Weighted = true
		opts.Fit.PositiveWeight = config.Float(w)
		_, _, err := Fit(context.Background(), small(), opts)
		assert.ErrorIs(t, err, config.ErrConfig)
	}
}

func TestFitWeightedDegenerate(t *testing.T) {
	var samples = small()
	for i := range samples {
		for j := range samples[i].Y {
			samples[i].Y[j] = 0
		}
	}
	var opts = smallOptions()
	opts.Fit.Weighted = true
	_, _, err := Fit(context.Background(), samples, opts)
	assert.ErrorIs(t, err, config.ErrConfig)
	assert.ErrorIs(t, err, datasets.ErrDegenerate)
}

func TestFitOptimizerNotImplemented(t *testing.T) {
	var opts = smallOptions()
	opts.Fit.Optimizer = "rmsprop"
	opts.Fit.LearningRate = config.Float(0.1)
	_, _, err := Fit(context.Background(), small(), opts)
	assert.ErrorIs(t, err, config.ErrNotImplemented)
}

func TestFitEmptyTakesNoStep(t *testing.T) {
	var opts = smallOptions()
	history, net, err := Fit(context.Background(), nil, opts)
	require.NoError(t, err)
	assert.Nil(t, net)
	assert.Empty(t, history.Epochs)

	// with an external validation set the network is built but never trained
	var counter = new(batchCounter)
	opts.Callbacks = []Callback{counter}
	opts.Validation = small()[:3]
	history, net, err = Fit(context.Background(), nil, opts)
	require.NoError(t, err)
	require.NotNil(t, net)
	assert.Equal(t, 0, counter.batches)
	require.Len(t, history.Epochs, 2)
	assert.NotContains(t, history.Epochs[0], "loss")
	assert.Contains(t, history.Epochs[0], "val_loss")

	var arch = Architecture(opts.Model, opts.Fit, synthetic.SmallWidth).WithChunks(1)
	assert.Equal(t, recurrent.MustNew(arch).Fingerprint(), net.Fingerprint())
}

func TestFitExternalValidationWarns(t *testing.T) {
	var opts = smallOptions()
	logger, hook := test.NewNullLogger()
	opts.Logger = logger
	opts.Fit.NumEpochs = 1
	opts.Fit.PositiveWeight = config.Float(2)
	opts.Validation = small()[:2]

	history, _, err := Fit(context.Background(), small(), opts)
	require.NoError(t, err)
	assert.Contains(t, history.Epochs[0], "val_loss")

	var warnings int
	for _, e := range hook.AllEntries() {
		if e.Level == logrus.WarnLevel {
			warnings++
		}
	}
	assert.Equal(t, 2, warnings)
}

func TestFitRotateNeedsLanes(t *testing.T) {
	var opts = smallOptions()
	opts.Fit.ValidationFill = config.FillRotate
	opts.Validation = small()[:3]
	_, _, err := Fit(context.Background(), small(), opts)
	assert.ErrorIs(t, err, datasets.ErrShape)

	opts.Validation = small()[:2]
	_, _, err = Fit(context.Background(), small(), opts)
	assert.NoError(t, err)
}

func TestFitCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _, err := Fit(ctx, small(), smallOptions())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFitStopsEarly(t *testing.T) {
	var opts = smallOptions()
	opts.Fit.NumEpochs = 10
	opts.Callbacks = []Callback{CallbackFunc(func(epoch int, logs map[string]float64) bool {
		return epoch == 2
	})}
	history, net, err := Fit(context.Background(), small(), opts)
	require.NoError(t, err)
	assert.NotNil(t, net)
	assert.True(t, history.Stopped)
	assert.Equal(t, 2, history.StoppedEpoch)
	assert.Len(t, history.Epochs, 3)
}

func TestResume(t *testing.T) {
	var opts = smallOptions()
	opts.Fit.NumEpochs = 0
	var arch = Architecture(opts.Model, opts.Fit, synthetic.SmallWidth)
	arch.Seed = 99
	var saved = recurrent.MustNew(arch)
	var path = filepath.Join(t.TempDir(), "model.bin")
	require.NoError(t, recurrent.WriteModelFile(path, recurrent.Header{RunID: "x"}, saved))

	opts.Fit.ResumeFrom = path
	_, net, err := Fit(context.Background(), small(), opts)
	require.NoError(t, err)
	assert.Equal(t, saved.Fingerprint(), net.Fingerprint())

	opts.Model.HiddenSize = 5
	_, _, err = Fit(context.Background(), small(), opts)
	assert.Error(t, err)
}

func TestEarlyStoppingMin(t *testing.T) {
	logger, _ := test.NewNullLogger()
	var es = NewEarlyStopping(config.EarlyStopping{Monitor: "val_loss", MinDelta: 0.1, Patience: 2, Mode: "min"}, logger)
	var stops []bool
	for epoch, v := range []float64{1.0, 0.8, 0.75, 0.72, 0.5} {
		stops = append(stops, es.OnEpochEnd(epoch, map[string]float64{"val_loss": v}))
	}
	// 0.75 and 0.72 do not improve on 0.8 by 0.1
	assert.Equal(t, []bool{false, false, false, true, false}, stops)
	assert.Equal(t, 3, es.StoppedEpoch)
}

func TestEarlyStoppingAuto(t *testing.T) {
	logger, hook := test.NewNullLogger()
	var es = NewEarlyStopping(config.EarlyStopping{Monitor: "val_acc", Patience: 1, Mode: "auto"}, logger)
	assert.False(t, es.OnEpochEnd(0, map[string]float64{"val_acc": 0.5}))
	assert.False(t, es.OnEpochEnd(1, map[string]float64{"val_acc": 0.6}))
	assert.True(t, es.OnEpochEnd(2, map[string]float64{"val_acc": 0.6}))

	// a missing metric only warns
	es.Reset()
	assert.False(t, es.OnEpochEnd(0, map[string]float64{"loss": 1}))
	assert.Equal(t, logrus.WarnLevel, hook.LastEntry().Level)
}

func TestHistoryMetric(t *testing.T) {
	var h = History{Epochs: []map[string]float64{{"loss": 1}, {"loss": 0.5, "val_loss": 0.7}}}
	assert.Equal(t, []string{"loss", "val_loss"}, h.Names())
	var v = h.Metric("val_loss")
	assert.True(t, v[0] != v[0])
	assert.Equal(t, 0.7, v[1])
}
