package trainer

import "context"
import "fmt"
import "math/rand"

import "github.com/dustin/go-humanize"
import "github.com/google/uuid"
import "github.com/pkg/errors"
import "github.com/sirupsen/logrus"

import "github.com/neurlang/seqclassifier/batch"
import "github.com/neurlang/seqclassifier/config"
import "github.com/neurlang/seqclassifier/datasets"
import "github.com/neurlang/seqclassifier/learning"
import "github.com/neurlang/seqclassifier/net/recurrent"

// Options of one Fit call.
type Options struct {
	Model config.Model
	Fit   config.Fit

	// Validation is an external validation set. When present it replaces
	// the internal split.
	Validation []datasets.Sample

	Callbacks []Callback
	Logger    *logrus.Logger
}

// Validation is what a training run evaluates after every epoch: either
// Steps batches pulled from Producer, or the single Static batch.
type Validation struct {
	Producer batch.Producer
	Steps    int
	Static   *batch.Batch
}

// Empty reports whether there is nothing to validate on.
func (v Validation) Empty() bool {
	return v.Static == nil && (v.Producer == nil || v.Steps == 0)
}

// PositiveWeight resolves the positive class weight of a run: the explicit
// positive_weight, or with weighted the ratio of per-sequence negative to
// positive fractions of labels. Zero means unweighted.
func PositiveWeight(fit config.Fit, labels []datasets.Labels, logger *logrus.Logger) (float64, error) {
	if fit.Weighted {
		if fit.PositiveWeight != nil {
			return 0, errors.Wrap(config.ErrConfig, "positive_weight cannot be specified together with weighted=true")
		}
		weight, neg, pos, err := datasets.PositiveWeight(labels)
		if err != nil {
			// matches both config.ErrConfig and datasets.ErrDegenerate
			return 0, fmt.Errorf("%w: %w", config.ErrConfig, err)
		}
		logger.WithFields(logrus.Fields{"negative": neg, "positive": pos}).Info("Counted samples")
		logger.WithField("weight", weight).Info("Weighing positives based on ratio")
		return weight, nil
	}
	if fit.PositiveWeight != nil {
		return *fit.PositiveWeight, nil
	}
	return 0, nil
}

// Architecture derives the training network architecture of a run.
func Architecture(m config.Model, fit config.Fit, inputs int) recurrent.Architecture {
	return recurrent.Architecture{
		Inputs:              inputs,
		Chunks:              m.BatchSize,
		Hidden:              m.HiddenSize,
		Dropout:             m.Dropout,
		RecurrentDropout:    m.RecurrentDropout,
		StackedSizes:        append([]int(nil), fit.StackedSizes...),
		FullyConnectedSizes: append([]int(nil), fit.FullyConnectedSizes...),
		Seed:                fit.Seed,
	}
}

// Fit trains a network on samples and returns the history together with the
// single lane network holding the trained parameters. The training network
// is discarded. Without any sample to take the feature width from, no
// network is built and the returned network is nil.
func Fit(ctx context.Context, samples []datasets.Sample, opts Options) (*History, *recurrent.Network, error) {
	var log = opts.Logger
	if log == nil {
		log = logrus.New()
	}
	if err := opts.Model.Validate(); err != nil {
		return nil, nil, err
	}
	if err := opts.Fit.Validate(); err != nil {
		return nil, nil, err
	}
	positiveWeight, err := PositiveWeight(opts.Fit, datasets.LabelsOf(samples), log)
	if err != nil {
		return nil, nil, err
	}

	var history = &History{RunID: uuid.NewString()}
	var width = datasets.Width(samples)
	if width == 0 {
		width = datasets.Width(opts.Validation)
	}
	if width == 0 {
		log.WithField("run", history.RunID).Warn("No samples to train on, no network built")
		return history, nil, nil
	}

	var arch = Architecture(opts.Model, opts.Fit, width)
	train, err := recurrent.New(arch)
	if err != nil {
		return nil, nil, errors.Wrap(err, "building training network")
	}
	infer, err := recurrent.New(arch.WithChunks(1))
	if err != nil {
		return nil, nil, errors.Wrap(err, "building inference network")
	}
	opt, err := learning.New(opts.Fit.Optimizer, opts.Fit.LearningRate, opts.Fit.Decay)
	if err != nil {
		return nil, nil, err
	}
	log.WithFields(logrus.Fields{
		"optimizer":     opt.Name,
		"learning_rate": opt.LearningRate,
		"decay":         opt.Decay,
	}).Debug("Using optimizer")

	if opts.Fit.ResumeFrom != "" {
		if err := Resume(train, opts.Fit.ResumeFrom); err != nil {
			return nil, nil, err
		}
		log.WithField("path", opts.Fit.ResumeFrom).Info("Resuming from saved model")
	}

	var rng = rand.New(rand.NewSource(opts.Fit.Seed))
	var validationRng = rand.New(rand.NewSource(opts.Fit.Seed + 1))
	samples, validation, err := NewValidation(samples, opts, positiveWeight, validationRng, log)
	if err != nil {
		return nil, nil, err
	}

	producer, numBatches, err := batch.NewGenerator(samples, opts.Model.BatchSize, opts.Fit.Timesteps,
		opts.Fit.Shuffle, positiveWeight, rng)
	if err != nil {
		return nil, nil, err
	}
	log.WithFields(logrus.Fields{
		"batches":         numBatches,
		"sequence_length": humanize.Comma(int64(datasets.TotalLen(samples))),
	}).Info("Initialized generator")

	var callbacks = opts.Callbacks
	if es := opts.Fit.EarlyStopping; es != nil {
		log.WithFields(logrus.Fields{
			"monitor":   es.Monitor,
			"min_delta": es.MinDelta,
			"patience":  es.Patience,
			"mode":      es.Mode,
		}).Info("Using early stopping")
		callbacks = append(callbacks, NewEarlyStopping(*es, log))
	}

	var loop = NewLoopFunc(train, opt, producer, numBatches, validation, opts.Model.Stateful, opts.Fit.Verbose, log)
	for epoch := 0; epoch < opts.Fit.NumEpochs; epoch++ {
		logs, err := loop(ctx, epoch, callbacks)
		if err != nil {
			return history, nil, err
		}
		history.Epochs = append(history.Epochs, logs)
		var stop bool
		for _, c := range callbacks {
			if c.OnEpochEnd(epoch, logs) {
				stop = true
			}
		}
		if stop {
			history.Stopped = true
			history.StoppedEpoch = epoch
			break
		}
	}

	if err := recurrent.Synchronize(train, infer); err != nil {
		return history, nil, err
	}
	if opts.Fit.DebugProgressPath != "" {
		if err := PlotHistory(history, opts.Fit.DebugProgressPath); err != nil {
			log.WithError(err).Warn("Cannot plot training progress")
		}
	}
	return history, infer, nil
}

// NewValidation prepares validation for a run and returns the samples left
// for training. An external set becomes one static batch, otherwise a
// validation_size fraction of samples is held out and batched like the
// training set.
func NewValidation(samples []datasets.Sample, opts Options, positiveWeight float64, rng *rand.Rand,
	log *logrus.Logger) ([]datasets.Sample, Validation, error) {
	var chunks = opts.Model.BatchSize
	if len(opts.Validation) > 0 {
		if positiveWeight > 0 {
			log.WithField("positive_weight", positiveWeight).Warn("Not using positive_weight on external validation set")
		}
		if opts.Fit.ValidationSize > 0 {
			log.WithField("validation_size", opts.Fit.ValidationSize).
				Warn("Validation size specified but ignored, because external validation set is also present")
		}
		log.WithField("samples", len(opts.Validation)).Info("Validating on external validation set")
		var fill = batch.Repeat
		if opts.Fit.ValidationFill == config.FillRotate {
			fill = batch.Rotate
		}
		static, err := fill(opts.Validation, chunks)
		if err != nil {
			return nil, Validation{}, errors.Wrap(err, "filling validation batch")
		}
		log.WithFields(logrus.Fields{
			"shape":  fmt.Sprintf("(%d, %d, %d)", static.X.Chunks, static.X.Steps, static.X.Width),
			"values": humanize.SIWithDigits(float64(len(static.X.Data)), 1, ""),
		}).Info("Filled validation batch")
		return samples, Validation{Static: static}, nil
	}
	if opts.Fit.ValidationSize > 0 && len(samples) > 0 {
		log.Infof("Validating on %.1f%% of input set", opts.Fit.ValidationSize*100)
		train, held, err := datasets.SplitDataset(samples, opts.Fit.ValidationSize, rng)
		if err != nil {
			return nil, Validation{}, err
		}
		producer, steps, err := batch.NewGenerator(held, chunks, opts.Fit.Timesteps, opts.Fit.Shuffle, positiveWeight, rng)
		if err != nil {
			return nil, Validation{}, err
		}
		return train, Validation{Producer: producer, Steps: steps}, nil
	}
	return samples, Validation{}, nil
}
