package main

import "context"
import "errors"
import "math/rand"
import "os"
import "os/signal"

import "github.com/alexflint/go-arg"
import "github.com/dustin/go-humanize"
import "github.com/sirupsen/logrus"

import "github.com/neurlang/seqclassifier/classifier"
import "github.com/neurlang/seqclassifier/config"
import "github.com/neurlang/seqclassifier/datasets"
import "github.com/neurlang/seqclassifier/datasets/store"
import "github.com/neurlang/seqclassifier/datasets/synthetic"
import "github.com/neurlang/seqclassifier/metrics"

type args struct {
	Config    string `arg:"-c,--config" help:"YAML configuration file"`
	Out       string `arg:"-o,--out" default:"bgc.model" help:"where to save the trained model"`
	DB        string `arg:"--db" help:"SQLite database of labeled sequences, overrides storage.db_path"`
	Synthetic int    `arg:"--synthetic" help:"train on this many generated sequences instead of the database"`
	Epochs    int    `arg:"--epochs" help:"overrides fit.num_epochs"`
	Verbose   bool   `arg:"-v,--verbose"`
	Pgo       bool   `arg:"--pgo" help:"write a CPU profile to default.pgo"`
}

func load(ctx context.Context, a args, cfg config.Config) ([]datasets.Sample, error) {
	var rng = rand.New(rand.NewSource(cfg.Fit.Seed))
	if a.Synthetic > 0 {
		return synthetic.Generate(rng, synthetic.Shape{Samples: a.Synthetic, Width: synthetic.MediumWidth,
			MinLen: 5, MaxLen: 60, Positive: 0.3, Signal: 1}), nil
	}
	if cfg.Storage.DBPath == "" {
		return synthetic.Medium(rng), nil
	}
	db, err := store.Open(cfg.Storage.DBPath)
	if err != nil {
		return nil, err
	}
	defer db.Close()
	_, samples, err := db.LoadSamples(ctx)
	return samples, err
}

func main() {
	var a args
	arg.MustParse(&a)

	logger := logrus.New()
	if a.Verbose {
		logger.SetLevel(logrus.DebugLevel)
	}

	var cfg = config.Default()
	if a.Config != "" {
		var err error
		if cfg, err = config.Load(a.Config); err != nil {
			logger.WithError(err).Fatal("Cannot load configuration")
		}
	}
	cfg.ResolveEnv()
	if a.DB != "" {
		cfg.Storage.DBPath = a.DB
	}
	if a.Epochs > 0 {
		cfg.Fit.NumEpochs = a.Epochs
	}
	metrics.StartServer(cfg.Metrics.Addr)
	if a.Pgo {
		defer profile(logger)()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	samples, err := load(ctx, a, cfg)
	if err != nil {
		logger.WithError(err).Fatal("Cannot load training set")
	}
	if len(samples) == 0 {
		logger.WithField("db", cfg.Storage.DBPath).Fatal("No training sequences")
	}
	logger.WithFields(logrus.Fields{
		"sequences": len(samples),
		"positions": humanize.Comma(int64(datasets.TotalLen(samples))),
	}).Info("Loaded training set")

	var x = make([]datasets.Sequence, len(samples))
	var y = make([]datasets.Labels, len(samples))
	for i, s := range samples {
		x[i], y[i] = s.X, s.Y
	}

	c, err := classifier.New(cfg, logger)
	if err != nil {
		logger.WithError(err).Fatal("Invalid configuration")
	}
	history, err := c.Fit(ctx, x, y, classifier.WithCallbacks(metrics.Callback{}))
	if errors.Is(err, context.Canceled) {
		logger.Warn("Training interrupted, model not saved")
		return
	}
	if err != nil {
		logger.WithError(err).Fatal("Training failed")
	}
	if err := c.SaveFile(a.Out); err != nil {
		logger.WithError(err).Fatal("Cannot save model")
	}
	var fields = logrus.Fields{"run": history.RunID, "epochs": len(history.Epochs), "path": a.Out}
	if n := len(history.Epochs); n > 0 {
		for k, v := range history.Epochs[n-1] {
			fields[k] = v
		}
	}
	logger.WithFields(fields).Info("Saved model")
}
