package trainer

import "context"
import "time"

import "github.com/montanaflynn/stats"
import "github.com/sirupsen/logrus"
import "golang.org/x/time/rate"

import "github.com/neurlang/seqclassifier/batch"
import "github.com/neurlang/seqclassifier/learning"
import "github.com/neurlang/seqclassifier/net/recurrent"

// LoopFunc trains one epoch and returns its metrics, validation metrics
// prefixed with val_.
type LoopFunc func(ctx context.Context, epoch int, callbacks []Callback) (map[string]float64, error)

// NewLoopFunc returns the epoch function of a training run. Every epoch
// starts and ends with a state reset and pulls exactly numBatches batches
// from producer. A network that is not stateful is also reset before every
// batch. Progress lines are logged at most once a second when verbose.
func NewLoopFunc(net *recurrent.Network, opt *learning.Optimizer, producer batch.Producer, numBatches int,
	validation Validation, stateful bool, verbose int, log *logrus.Logger) LoopFunc {

	var progress = rate.NewLimiter(rate.Every(time.Second), 1)
	var evaluate = NewEvaluateFunc(net, validation)

	return func(ctx context.Context, epoch int, callbacks []Callback) (map[string]float64, error) {
		var start = time.Now()
		var acc = newAccumulator()
		net.ResetState()
		for i := 0; i < numBatches; i++ {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			b, ok := producer.Next()
			if !ok {
				break
			}
			if !stateful {
				net.ResetState()
			}
			m, err := net.TrainOnBatch(b, opt, &acc.auc)
			if err != nil {
				return nil, err
			}
			acc.add(m)
			for _, c := range callbacks {
				if bc, ok := c.(BatchCallback); ok {
					bc.OnBatchEnd(i, m.Map())
				}
			}
			if verbose > 0 && progress.Allow() {
				log.WithFields(logrus.Fields{
					"epoch": epoch + 1,
					"batch": i + 1,
					"of":    numBatches,
					"loss":  m.Loss,
				}).Info("Training")
			}
		}
		net.ResetState()

		var logs = acc.logs("")
		if !validation.Empty() {
			vlogs, err := evaluate(ctx, stateful)
			if err != nil {
				return nil, err
			}
			for k, v := range vlogs {
				logs[k] = v
			}
		}
		net.ResetState()

		var fields = logrus.Fields{"epoch": epoch + 1, "duration": time.Since(start).Round(time.Millisecond)}
		for k, v := range logs {
			fields[k] = v
		}
		log.WithFields(fields).Info("Training epoch completed")
		return logs, nil
	}
}

// accumulator averages batch metrics over an epoch.
type accumulator struct {
	loss, acc, precision, recall stats.Float64Data
	auc                          recurrent.AUC
}

func newAccumulator() *accumulator {
	return new(accumulator)
}

func (a *accumulator) add(m recurrent.Metrics) {
	a.loss = append(a.loss, m.Loss)
	a.acc = append(a.acc, m.Acc)
	a.precision = append(a.precision, m.Precision)
	a.recall = append(a.recall, m.Recall)
}

// logs returns the epoch means, nothing when no batch was added.
func (a *accumulator) logs(prefix string) map[string]float64 {
	var out = make(map[string]float64)
	if len(a.loss) == 0 {
		return out
	}
	for name, data := range map[string]stats.Float64Data{
		recurrent.MetricLoss:      a.loss,
		recurrent.MetricAcc:       a.acc,
		recurrent.MetricPrecision: a.precision,
		recurrent.MetricRecall:    a.recall,
	} {
		if mean, err := stats.Mean(data); err == nil {
			out[prefix+name] = mean
		}
	}
	out[prefix+recurrent.MetricAUC] = a.auc.Value()
	return out
}
