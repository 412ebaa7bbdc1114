package recurrent

import "github.com/neurlang/seqclassifier/batch"
import "github.com/neurlang/seqclassifier/layer"
import "github.com/neurlang/seqclassifier/learning"

// TrainOnBatch runs one optimizer step on b: a training forward pass with
// dropout, backpropagation through the window and a parameter update. The
// recurrent state advances as in Predict. Scores are added to auc when it is
// not nil.
func (f *Network) TrainOnBatch(b *batch.Batch, opt *learning.Optimizer, auc *AUC) (Metrics, error) {
	var params = f.Params()
	layer.ZeroGrads(params)
	probs, err := f.forward(b.X, true)
	if err != nil {
		return Metrics{}, err
	}
	m, grad := evaluate(probs, b, auc, true)
	for i := len(f.layers) - 1; i >= 0; i-- {
		grad = f.layers[i].Backward(grad)
	}
	opt.Step(params)
	return m, nil
}

// TestOnBatch scores b without training. The recurrent state advances.
func (f *Network) TestOnBatch(b *batch.Batch, auc *AUC) (Metrics, error) {
	probs, err := f.forward(b.X, false)
	if err != nil {
		return Metrics{}, err
	}
	m, _ := evaluate(probs, b, auc, false)
	return m, nil
}
