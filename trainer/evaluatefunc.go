package trainer

import "context"

import "github.com/neurlang/seqclassifier/net/recurrent"

// ValidationPrefix marks validation metrics in epoch logs.
const ValidationPrefix = "val_"

// NewEvaluateFunc returns the validation function of a training run. It
// scores the static batch once, or pulls Steps batches from the validation
// producer, without training. The state of net is not reset in between, so
// a producer's lanes are evaluated as continuous sequences.
func NewEvaluateFunc(net *recurrent.Network, validation Validation) func(ctx context.Context, stateful bool) (map[string]float64, error) {
	return func(ctx context.Context, stateful bool) (map[string]float64, error) {
		var acc = newAccumulator()
		if validation.Static != nil {
			m, err := net.TestOnBatch(validation.Static, &acc.auc)
			if err != nil {
				return nil, err
			}
			acc.add(m)
			return acc.logs(ValidationPrefix), nil
		}
		for i := 0; i < validation.Steps; i++ {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			b, ok := validation.Producer.Next()
			if !ok {
				break
			}
			if !stateful {
				net.ResetState()
			}
			m, err := net.TestOnBatch(b, &acc.auc)
			if err != nil {
				return nil, err
			}
			acc.add(m)
		}
		return acc.logs(ValidationPrefix), nil
	}
}
