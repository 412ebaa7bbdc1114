// Package learning implements the gradient descent optimizers of the classifier
package learning

import "math"

import "gonum.org/v1/gonum/mat"

import "github.com/neurlang/seqclassifier/layer"

const (
	Adam    = "adam"
	SGD     = "sgd"
	RMSprop = "rmsprop"
	Adagrad = "adagrad"
)

// Optimizer applies accumulated gradients to parameters. It keeps per
// parameter slots, so one optimizer serves one network.
type Optimizer struct {
	HyperParameters

	iterations int
	slots      map[*layer.Param][2]*mat.Dense
}

// NewOptimizer creates an optimizer from explicit hyperparameters.
func NewOptimizer(h HyperParameters) *Optimizer {
	return &Optimizer{
		HyperParameters: h,
		slots:           make(map[*layer.Param][2]*mat.Dense),
	}
}

// Iterations returns the number of steps taken.
func (o *Optimizer) Iterations() int {
	return o.iterations
}

// Rate is the decayed learning rate of the next step.
func (o *Optimizer) Rate() float64 {
	return o.LearningRate / (1 + o.Decay*float64(o.iterations))
}

func (o *Optimizer) slot(p *layer.Param) [2]*mat.Dense {
	s, ok := o.slots[p]
	if !ok {
		r, c := p.Dims()
		s = [2]*mat.Dense{mat.NewDense(r, c, nil), mat.NewDense(r, c, nil)}
		o.slots[p] = s
	}
	return s
}

// Step updates every parameter from its gradient. Gradients are left as is.
func (o *Optimizer) Step(params []*layer.Param) {
	var lr = o.Rate()
	o.iterations++
	var t = float64(o.iterations)
	if o.Name == Adam {
		lr *= math.Sqrt(1-math.Pow(o.Beta2, t)) / (1 - math.Pow(o.Beta1, t))
	}
	for _, p := range params {
		var s = o.slot(p)
		r, _ := p.Dims()
		for i := 0; i < r; i++ {
			var value, grad = p.Value.RawRowView(i), p.Grad.RawRowView(i)
			var m, v = s[0].RawRowView(i), s[1].RawRowView(i)
			for j, g := range grad {
				switch o.Name {
				case Adam:
					m[j] = o.Beta1*m[j] + (1-o.Beta1)*g
					v[j] = o.Beta2*v[j] + (1-o.Beta2)*g*g
					value[j] -= lr * m[j] / (math.Sqrt(v[j]) + o.Epsilon)
				case RMSprop:
					v[j] = o.Rho*v[j] + (1-o.Rho)*g*g
					value[j] -= lr * g / (math.Sqrt(v[j]) + o.Epsilon)
				case Adagrad:
					v[j] += g * g
					value[j] -= lr * g / (math.Sqrt(v[j]) + o.Epsilon)
				default:
					value[j] -= lr * g
				}
			}
		}
	}
}
