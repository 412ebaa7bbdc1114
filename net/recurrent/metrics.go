package recurrent

import "math"

import "gonum.org/v1/gonum/mat"

import "github.com/neurlang/seqclassifier/batch"

// Epsilon clips probabilities in the loss and guards metric ratios.
const Epsilon = 1e-7

// Metric names as reported in training history.
const (
	MetricLoss      = "loss"
	MetricAcc       = "acc"
	MetricPrecision = "precision"
	MetricRecall    = "recall"
	MetricAUC       = "auc_roc"
)

// Metrics of one batch. Precision and recall are batch-wise.
type Metrics struct {
	Loss      float64
	Acc       float64
	Precision float64
	Recall    float64
}

// Map names the metrics.
func (m Metrics) Map() map[string]float64 {
	return map[string]float64{
		MetricLoss:      m.Loss,
		MetricAcc:       m.Acc,
		MetricPrecision: m.Precision,
		MetricRecall:    m.Recall,
	}
}

func clip(p float64) float64 {
	return math.Max(Epsilon, math.Min(1-Epsilon, p))
}

// CrossEntropy is the binary cross-entropy of probability p for label y.
func CrossEntropy(p, y float64) float64 {
	p = clip(p)
	return -(y*math.Log(p) + (1-y)*math.Log(1-p))
}

// evaluate scores probabilities against the batch labels. With grads it also
// returns the gradient of the weighted mean loss by probability.
func evaluate(probs []*mat.Dense, b *batch.Batch, auc *AUC, grads bool) (m Metrics, dp []*mat.Dense) {
	var chunks, steps = b.Y.Chunks, b.Y.Steps
	var n = float64(chunks * steps)
	if grads {
		dp = make([]*mat.Dense, steps)
	}
	var correct, truePos, predPos, actualPos float64
	for t := 0; t < steps; t++ {
		if grads {
			dp[t] = mat.NewDense(chunks, 1, nil)
		}
		for c := 0; c < chunks; c++ {
			var p, y, w = probs[t].At(c, 0), b.Y.At(c, t, 0), b.Weight(c, t)
			m.Loss += w * CrossEntropy(p, y)
			if grads && p > Epsilon && p < 1-Epsilon {
				dp[t].Set(c, 0, w*(p-y)/(p*(1-p))/n)
			}
			var predicted float64
			if p > 0.5 {
				predicted = 1
			}
			if predicted == y {
				correct++
			}
			truePos += math.Round(math.Max(0, math.Min(1, y*p)))
			predPos += predicted
			actualPos += math.Round(math.Max(0, math.Min(1, y)))
			if auc != nil {
				auc.Add(p, y)
			}
		}
	}
	m.Loss /= n
	m.Acc = correct / n
	m.Precision = truePos / (predPos + Epsilon)
	m.Recall = truePos / (actualPos + Epsilon)
	return
}

// Thresholds of the AUC approximation.
const Thresholds = 200

// AUC approximates the area under the ROC curve of all scores added since
// the last Reset, by the trapezoidal rule over fixed thresholds.
type AUC struct {
	tp, fp, tn, fn [Thresholds]float64
}

func threshold(k int) float64 {
	switch k {
	case 0:
		return -Epsilon
	case Thresholds - 1:
		return 1 + Epsilon
	}
	return float64(k) / float64(Thresholds-1)
}

// Add counts one score p of a position labeled y.
func (a *AUC) Add(p, y float64) {
	for k := 0; k < Thresholds; k++ {
		var predicted = p > threshold(k)
		switch {
		case y > 0.5 && predicted:
			a.tp[k]++
		case y > 0.5:
			a.fn[k]++
		case predicted:
			a.fp[k]++
		default:
			a.tn[k]++
		}
	}
}

// Value returns the area.
func (a *AUC) Value() (area float64) {
	var tpr, fpr [Thresholds]float64
	for k := range tpr {
		tpr[k] = (a.tp[k] + Epsilon) / (a.tp[k] + a.fn[k] + Epsilon)
		fpr[k] = a.fp[k] / (a.fp[k] + a.tn[k] + Epsilon)
	}
	for k := 0; k+1 < Thresholds; k++ {
		area += (fpr[k] - fpr[k+1]) * (tpr[k] + tpr[k+1]) / 2
	}
	return
}

// Reset forgets all scores.
func (a *AUC) Reset() {
	*a = AUC{}
}
