// Package classifier is the model lifecycle API: fit a stateful recurrent
// sequence classifier, score new sequences position by position, and store
// the model together with its hyperparameters.
package classifier

import "context"
import "io"
import "os"
import "time"

import "github.com/pkg/errors"
import "github.com/sirupsen/logrus"

import "github.com/neurlang/seqclassifier/config"
import "github.com/neurlang/seqclassifier/datasets"
import "github.com/neurlang/seqclassifier/inference"
import "github.com/neurlang/seqclassifier/metrics"
import "github.com/neurlang/seqclassifier/net/recurrent"
import "github.com/neurlang/seqclassifier/trainer"

// Classifier scores every position of a sequence with the probability of
// belonging to the positive class.
type Classifier struct {
	Model   config.Model
	Options config.Fit // training options of Fit

	logger *logrus.Logger
	runID  string
	net    *recurrent.Network // nil until trained
}

// New returns an untrained classifier. A nil logger logs to stderr.
func New(cfg config.Config, logger *logrus.Logger) (*Classifier, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = logrus.New()
	}
	return &Classifier{Model: cfg.Model, Options: cfg.Fit, logger: logger}, nil
}

// Option customizes one Fit call.
type Option func(*trainer.Options) error

// WithValidation evaluates every epoch on an external validation set instead
// of a held out part of the training set. x and y take the same containers
// as Fit.
func WithValidation(x, y interface{}) Option {
	return func(o *trainer.Options) error {
		samples, err := samplesOf(x, y)
		if err != nil {
			return errors.Wrap(err, "validation set")
		}
		o.Validation = samples
		return nil
	}
}

// WithCallbacks observes the training epochs.
func WithCallbacks(callbacks ...trainer.Callback) Option {
	return func(o *trainer.Options) error {
		o.Callbacks = append(o.Callbacks, callbacks...)
		return nil
	}
}

func samplesOf(x, y interface{}) ([]datasets.Sample, error) {
	seqs, err := datasets.ToSequences(x)
	if err != nil {
		return nil, err
	}
	labels, err := datasets.ToLabels(y)
	if err != nil {
		return nil, err
	}
	return datasets.NewSamples(seqs, labels)
}

// Fit trains the classifier on the sequences x labeled by y, replacing any
// previously trained model. x is a list of feature matrices and y a list of
// label sequences of matching lengths; other containers are ErrInputType.
func (c *Classifier) Fit(ctx context.Context, x, y interface{}, opts ...Option) (*trainer.History, error) {
	samples, err := samplesOf(x, y)
	if err != nil {
		return nil, err
	}
	var o = trainer.Options{Model: c.Model, Fit: c.Options, Logger: c.logger}
	for _, opt := range opts {
		if err := opt(&o); err != nil {
			return nil, err
		}
	}
	history, net, err := trainer.Fit(ctx, samples, o)
	if err != nil {
		return history, err
	}
	c.runID = history.RunID
	c.net = net
	return history, nil
}

// Trained reports whether the classifier holds a model.
func (c *Classifier) Trained() bool {
	return c.net != nil
}

// Inputs is the feature width the model was trained on, 0 when untrained.
func (c *Classifier) Inputs() int {
	if c.net == nil {
		return 0
	}
	return c.net.Architecture().Inputs
}

// RunID identifies the training run of the model, empty when untrained.
func (c *Classifier) RunID() string {
	return c.runID
}

// Predict scores every position of a single feature matrix. The result does
// not depend on earlier calls.
//
// Predict is not reentrant: it mutates the recurrent state of the model, so
// calls on one Classifier must be serialized by the caller.
func (c *Classifier) Predict(v interface{}) (datasets.Scores, error) {
	seq, err := datasets.ToSequence(v)
	if err != nil {
		return datasets.Scores{}, err
	}
	if c.net == nil {
		return datasets.Scores{}, inference.ErrNotTrained
	}
	defer metrics.ObservePredict(time.Now())
	return inference.Predict(c.net, seq)
}

// Save writes the classifier, trained or not, to w.
func (c *Classifier) Save(w io.Writer) error {
	var h = recurrent.Header{
		RunID:  c.runID,
		Config: recurrent.Hyperparameters{Model: c.Model, Fit: c.Options},
	}
	return recurrent.WriteModel(w, h, c.net)
}

// SaveFile writes the classifier to the named file.
func (c *Classifier) SaveFile(name string) error {
	file, err := os.Create(name)
	if err != nil {
		return err
	}
	err = c.Save(file)
	if cerr := file.Close(); err == nil {
		err = cerr
	}
	if err == nil {
		c.logger.WithField("path", name).Debug("Saved model")
	}
	return err
}

// Load reads a classifier written by Save.
func Load(r io.Reader, logger *logrus.Logger) (*Classifier, error) {
	h, net, err := recurrent.ReadModel(r)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = logrus.New()
	}
	return &Classifier{
		Model:   h.Config.Model,
		Options: h.Config.Fit,
		logger:  logger,
		runID:   h.RunID,
		net:     net,
	}, nil
}

// LoadFile reads a classifier from the named file.
func LoadFile(name string, logger *logrus.Logger) (*Classifier, error) {
	file, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	c, err := Load(file, logger)
	if err != nil {
		return nil, errors.Wrapf(err, "loading %s", name)
	}
	return c, nil
}
