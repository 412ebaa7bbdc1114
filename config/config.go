// Package config holds the classifier hyperparameters and their YAML file form
package config

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// ErrConfig reports invalid or contradictory options.
var ErrConfig = errors.New("invalid configuration")

// ErrNotImplemented reports a valid option combination that is not supported.
var ErrNotImplemented = errors.New("not implemented")

// Config is the file form of a training or inference run.
type Config struct {
	Model   Model         `yaml:"model"`
	Fit     Fit           `yaml:"fit"`
	Storage StorageConfig `yaml:"storage"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// Model describes the network shared by training and inference.
type Model struct {
	// Number of chunk lanes trained in parallel.
	BatchSize  int    `yaml:"batch_size" json:"batch_size"`
	HiddenSize int    `yaml:"hidden_size" json:"hidden_size"`
	Loss       string `yaml:"loss" json:"loss"`
	Stateful   bool   `yaml:"stateful" json:"stateful"`
	Activation string `yaml:"activation" json:"activation"`

	ReturnSequences  bool    `yaml:"return_sequences" json:"return_sequences"`
	Dropout          float64 `yaml:"dropout" json:"dropout"`
	RecurrentDropout float64 `yaml:"recurrent_dropout" json:"recurrent_dropout"`
}

// EarlyStopping stops training once Monitor has not improved by MinDelta for
// Patience epochs. Mode is min, max or auto.
type EarlyStopping struct {
	Monitor  string  `yaml:"monitor" json:"monitor"`
	MinDelta float64 `yaml:"min_delta" json:"min_delta"`
	Patience int     `yaml:"patience" json:"patience"`
	Mode     string  `yaml:"mode" json:"mode"`
}

// Fit holds the options of one training run.
type Fit struct {
	Timesteps      int     `yaml:"timesteps" json:"timesteps"`
	ValidationSize float64 `yaml:"validation_size" json:"validation_size"` // 0 disables internal validation
	NumEpochs      int     `yaml:"num_epochs" json:"num_epochs"`
	Shuffle        bool    `yaml:"shuffle" json:"shuffle"`

	StackedSizes        []int `yaml:"stacked_sizes,omitempty" json:"stacked_sizes,omitempty"`
	FullyConnectedSizes []int `yaml:"fully_connected_sizes,omitempty" json:"fully_connected_sizes,omitempty"`

	EarlyStopping *EarlyStopping `yaml:"early_stopping,omitempty" json:"early_stopping,omitempty"`

	PositiveWeight *float64 `yaml:"positive_weight,omitempty" json:"positive_weight,omitempty"`
	Weighted       bool     `yaml:"weighted" json:"weighted"`

	Optimizer    string   `yaml:"optimizer,omitempty" json:"optimizer,omitempty"`
	LearningRate *float64 `yaml:"learning_rate,omitempty" json:"learning_rate,omitempty"`
	Decay        *float64 `yaml:"decay,omitempty" json:"decay,omitempty"`

	Seed              int64  `yaml:"seed" json:"seed"`
	Verbose           int    `yaml:"verbose" json:"verbose"`
	DebugProgressPath string `yaml:"debug_progress_path,omitempty" json:"debug_progress_path,omitempty"`
	ResumeFrom        string `yaml:"resume_from,omitempty" json:"resume_from,omitempty"`

	// ValidationFill lays out an external validation set: repeat or rotate.
	ValidationFill string `yaml:"validation_fill,omitempty" json:"validation_fill,omitempty"`
}

// StorageConfig locates the sequence database. An empty DBPath trains on
// generated data.
type StorageConfig struct {
	DBPath string `yaml:"db_path"`
}

type MetricsConfig struct {
	Addr string `yaml:"addr"`
}

const (
	FillRepeat = "repeat"
	FillRotate = "rotate"
)

// DefaultModel mirrors the classic single layer bidirectional BGC detector.
func DefaultModel() Model {
	return Model{
		BatchSize:        64,
		HiddenSize:       128,
		Loss:             "binary_crossentropy",
		Stateful:         true,
		Activation:       "sigmoid",
		ReturnSequences:  true,
		Dropout:          0.2,
		RecurrentDropout: 0.2,
	}
}

// DefaultFit returns the default training options.
func DefaultFit() Fit {
	return Fit{
		Timesteps:      128,
		ValidationSize: 0.33,
		NumEpochs:      10,
		Shuffle:        true,
		Verbose:        1,
	}
}

// Default returns a sensible default configuration. Storage and metrics are
// left empty for ResolveEnv to fill in.
func Default() Config {
	return Config{
		Model: DefaultModel(),
		Fit:   DefaultFit(),
	}
}

// Float returns a pointer to v, for the optional options.
func Float(v float64) *float64 {
	return &v
}

// Validate checks the model options.
func (m Model) Validate() error {
	if m.BatchSize < 1 {
		return errors.Wrapf(ErrConfig, "batch_size %d below 1", m.BatchSize)
	}
	if m.HiddenSize < 1 {
		return errors.Wrapf(ErrConfig, "hidden_size %d below 1", m.HiddenSize)
	}
	if m.Loss != "binary_crossentropy" {
		return errors.Wrapf(ErrNotImplemented, "loss %q", m.Loss)
	}
	if m.Activation != "sigmoid" {
		return errors.Wrapf(ErrNotImplemented, "output activation %q", m.Activation)
	}
	if !m.ReturnSequences {
		return errors.Wrap(ErrNotImplemented, "return_sequences=false")
	}
	if m.Dropout < 0 || m.Dropout >= 1 || m.RecurrentDropout < 0 || m.RecurrentDropout >= 1 {
		return errors.Wrapf(ErrConfig, "dropout %v, recurrent_dropout %v outside [0, 1)", m.Dropout, m.RecurrentDropout)
	}
	return nil
}

// Validate checks the training options, including the mutually exclusive
// weighted and positive_weight.
func (f Fit) Validate() error {
	if f.Weighted && f.PositiveWeight != nil {
		return errors.Wrap(ErrConfig, "positive_weight cannot be specified together with weighted=true")
	}
	if f.PositiveWeight != nil && *f.PositiveWeight < 0 {
		return errors.Wrapf(ErrConfig, "negative positive_weight %v", *f.PositiveWeight)
	}
	if f.Timesteps < 1 {
		return errors.Wrapf(ErrConfig, "timesteps %d below 1", f.Timesteps)
	}
	if f.ValidationSize < 0 || f.ValidationSize >= 1 {
		return errors.Wrapf(ErrConfig, "validation_size %v outside [0, 1)", f.ValidationSize)
	}
	if f.NumEpochs < 0 {
		return errors.Wrapf(ErrConfig, "num_epochs %d below 0", f.NumEpochs)
	}
	for _, sizes := range [][]int{f.StackedSizes, f.FullyConnectedSizes} {
		for _, s := range sizes {
			if s < 1 {
				return errors.Wrapf(ErrConfig, "layer size %d below 1", s)
			}
		}
	}
	if es := f.EarlyStopping; es != nil {
		switch es.Mode {
		case "", "auto", "min", "max":
		default:
			return errors.Wrapf(ErrConfig, "early stopping mode %q", es.Mode)
		}
		if es.Patience < 0 {
			return errors.Wrapf(ErrConfig, "early stopping patience %d below 0", es.Patience)
		}
	}
	switch f.ValidationFill {
	case "", FillRepeat, FillRotate:
	default:
		return errors.Wrapf(ErrConfig, "validation_fill %q", f.ValidationFill)
	}
	return nil
}

// Validate checks the whole configuration.
func (c Config) Validate() error {
	if err := c.Model.Validate(); err != nil {
		return err
	}
	return c.Fit.Validate()
}

// ResolveEnv fills in config fields from environment variables if not set.
func (c *Config) ResolveEnv() {
	if c.Storage.DBPath == "" {
		c.Storage.DBPath = os.Getenv("SEQCLASSIFIER_DB")
	}
	if c.Metrics.Addr == "" {
		c.Metrics.Addr = os.Getenv("METRICS_ADDR")
	}
}

// Load reads YAML config from path. Options missing from the file keep
// their defaults.
func Load(path string) (Config, error) {
	var cfg = Default()
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, errors.Wrapf(err, "reading config %s", path)
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, errors.Wrapf(err, "parsing config %s", path)
	}
	cfg.ResolveEnv()
	return cfg, nil
}

// Save writes YAML config to path, creating directories as needed.
func Save(path string, cfg Config) error {
	if path == "" {
		return errors.New("empty path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	b, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o644)
}
