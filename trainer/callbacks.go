package trainer

import "math"
import "sort"
import "strings"

import "github.com/sirupsen/logrus"

import "github.com/neurlang/seqclassifier/config"

// Callback observes the end of every epoch. Returning true stops training
// after the current epoch.
type Callback interface {
	OnEpochEnd(epoch int, logs map[string]float64) (stop bool)
}

// BatchCallback is optionally implemented by a Callback to observe every
// training batch.
type BatchCallback interface {
	OnBatchEnd(batch int, logs map[string]float64)
}

// CallbackFunc adapts a function to Callback.
type CallbackFunc func(epoch int, logs map[string]float64) bool

// OnEpochEnd calls c.
func (c CallbackFunc) OnEpochEnd(epoch int, logs map[string]float64) bool {
	return c(epoch, logs)
}

// History is the per-epoch metric log of one training run.
type History struct {
	RunID        string
	Epochs       []map[string]float64
	Stopped      bool // by a callback
	StoppedEpoch int
}

// Metric returns the values of one metric across epochs, NaN where an epoch
// did not report it.
func (h *History) Metric(name string) []float64 {
	var out = make([]float64, len(h.Epochs))
	for i, logs := range h.Epochs {
		if v, ok := logs[name]; ok {
			out[i] = v
		} else {
			out[i] = math.NaN()
		}
	}
	return out
}

// Names lists the metrics reported in any epoch, sorted.
func (h *History) Names() (o []string) {
	var seen = make(map[string]struct{})
	for _, logs := range h.Epochs {
		for name := range logs {
			if _, ok := seen[name]; !ok {
				seen[name] = struct{}{}
				o = append(o, name)
			}
		}
	}
	sort.Strings(o)
	return
}

// EarlyStopping stops training when the monitored metric has not improved
// by at least MinDelta for Patience epochs in a row.
type EarlyStopping struct {
	monitor  string
	minDelta float64
	patience int
	max      bool
	logger   *logrus.Logger

	wait         int
	best         float64
	StoppedEpoch int
}

// NewEarlyStopping builds the callback. Mode auto maximizes metrics whose
// name contains acc or auc and minimizes the rest.
func NewEarlyStopping(es config.EarlyStopping, logger *logrus.Logger) *EarlyStopping {
	if logger == nil {
		logger = logrus.New()
	}
	var monitor = es.Monitor
	if monitor == "" {
		monitor = "val_loss"
	}
	var max bool
	switch es.Mode {
	case "max":
		max = true
	case "min":
	default:
		max = strings.Contains(monitor, "acc") || strings.Contains(monitor, "auc")
	}
	e := &EarlyStopping{
		monitor:  monitor,
		minDelta: math.Abs(es.MinDelta),
		patience: es.Patience,
		max:      max,
		logger:   logger,
	}
	e.Reset()
	return e
}

// Reset forgets the best value seen.
func (e *EarlyStopping) Reset() {
	e.wait = 0
	e.StoppedEpoch = 0
	if e.max {
		e.best = math.Inf(-1)
	} else {
		e.best = math.Inf(1)
	}
}

func (e *EarlyStopping) improved(current float64) bool {
	if e.max {
		return current-e.minDelta > e.best
	}
	return current+e.minDelta < e.best
}

// OnEpochEnd implements Callback.
func (e *EarlyStopping) OnEpochEnd(epoch int, logs map[string]float64) bool {
	current, ok := logs[e.monitor]
	if !ok {
		e.logger.WithField("monitor", e.monitor).Warn("Early stopping conditioned on metric which is not available")
		return false
	}
	if e.improved(current) {
		e.best = current
		e.wait = 0
		return false
	}
	e.wait++
	if e.wait >= e.patience {
		e.StoppedEpoch = epoch
		e.logger.WithFields(logrus.Fields{
			"epoch":   epoch + 1,
			"monitor": e.monitor,
			"best":    e.best,
		}).Info("Early stopping triggered")
		return true
	}
	return false
}
