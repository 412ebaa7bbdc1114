package learning

import "github.com/pkg/errors"

import "github.com/neurlang/seqclassifier/config"

// HyperParameters configure a gradient descent optimizer.
type HyperParameters struct {
	Name         string
	LearningRate float64
	Decay        float64 // time based: lr / (1 + Decay·iterations)

	Beta1   float64 // adam
	Beta2   float64 // adam
	Rho     float64 // rmsprop
	Epsilon float64
}

// Defaults returns the default hyperparameters of the named optimizer.
func Defaults(name string) (HyperParameters, error) {
	var h = HyperParameters{Name: name, Epsilon: 1e-7}
	switch name {
	case "", Adam:
		h.Name = Adam
		h.LearningRate = 0.001
		h.Beta1 = 0.9
		h.Beta2 = 0.999
	case SGD:
		h.LearningRate = 0.01
	case RMSprop:
		h.LearningRate = 0.001
		h.Rho = 0.9
	case Adagrad:
		h.LearningRate = 0.01
	default:
		return h, errors.Wrapf(config.ErrConfig, "unknown optimizer %q", name)
	}
	return h, nil
}

// New builds the named optimizer. The learning rate and decay may only be
// customized for adam; other optimizers run with their defaults.
func New(name string, learningRate, decay *float64) (*Optimizer, error) {
	h, err := Defaults(name)
	if err != nil {
		return nil, err
	}
	if learningRate != nil || decay != nil {
		if h.Name != Adam {
			return nil, errors.Wrapf(config.ErrNotImplemented, "optimizer %s with custom learning rate or decay", h.Name)
		}
		if learningRate != nil {
			if *learningRate <= 0 {
				return nil, errors.Wrapf(config.ErrConfig, "learning rate %v", *learningRate)
			}
			h.LearningRate = *learningRate
		}
		if decay != nil {
			if *decay < 0 {
				return nil, errors.Wrapf(config.ErrConfig, "decay %v", *decay)
			}
			h.Decay = *decay
		}
	}
	return NewOptimizer(h), nil
}
