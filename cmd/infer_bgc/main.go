package main

import "context"
import "fmt"
import "math/rand"
import "time"

import "github.com/alexflint/go-arg"
import "github.com/dustin/go-humanize"
import "github.com/sirupsen/logrus"

import "github.com/neurlang/seqclassifier/classifier"
import "github.com/neurlang/seqclassifier/datasets/store"
import "github.com/neurlang/seqclassifier/datasets/synthetic"
import "github.com/neurlang/seqclassifier/metrics"

type args struct {
	Model   string   `arg:"-m,--model" default:"bgc.model" help:"trained model file"`
	DB      string   `arg:"--db" env:"SEQCLASSIFIER_DB" help:"SQLite database of sequences to score"`
	Names   []string `arg:"positional" help:"sequences to score, all when empty"`
	Metrics string   `arg:"--metrics" env:"METRICS_ADDR" help:"address to serve Prometheus metrics on"`
	Pgo     bool     `arg:"--pgo" help:"write a CPU profile to default.pgo"`
}

func demo(c *classifier.Classifier) error {
	var rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	var smp = synthetic.Mixed(rng, 40, c.Inputs(), 15, 25, 1)
	scores, err := c.Predict(smp.X)
	if err != nil {
		return err
	}
	for t, v := range scores.Values {
		fmt.Printf("%3d\t%.0f\t%.4f\n", t, smp.Y[t], v)
	}
	return nil
}

func main() {
	var a args
	arg.MustParse(&a)
	logger := logrus.New()
	metrics.StartServer(a.Metrics)
	if a.Pgo {
		defer profile(logger)()
	}

	c, err := classifier.LoadFile(a.Model, logger)
	if err != nil {
		logger.WithError(err).Fatal("Cannot load model")
	}
	if !c.Trained() {
		logger.WithField("path", a.Model).Fatal("Model is not trained")
	}
	if a.DB == "" {
		if err := demo(c); err != nil {
			logger.WithError(err).Fatal("Cannot score demo sequence")
		}
		return
	}

	ctx := context.Background()
	db, err := store.Open(a.DB)
	if err != nil {
		logger.WithError(err).Fatal("Cannot open database")
	}
	defer db.Close()
	var names = a.Names
	if len(names) == 0 {
		if names, err = db.Names(ctx); err != nil {
			logger.WithError(err).Fatal("Cannot list sequences")
		}
	}
	var positions int
	for _, name := range names {
		seq, _, err := db.LoadSequence(ctx, name)
		if err != nil {
			logger.WithError(err).WithField("sequence", name).Error("Cannot load sequence")
			continue
		}
		scores, err := c.Predict(seq)
		if err != nil {
			logger.WithError(err).WithField("sequence", name).Error("Cannot score sequence")
			continue
		}
		if err := db.PutScores(ctx, name, c.RunID(), scores); err != nil {
			logger.WithError(err).WithField("sequence", name).Error("Cannot store scores")
			continue
		}
		positions += len(scores.Values)
	}
	logger.WithFields(logrus.Fields{
		"run":       c.RunID(),
		"sequences": len(names),
		"positions": humanize.Comma(int64(positions)),
	}).Info("Scored sequences")
}
