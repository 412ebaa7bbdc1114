// Package trainer drives stateful training of the recurrent sequence classifier.
// It lays the samples out into chunk lanes, feeds the batches of every epoch to
// a training network, evaluates held out or external validation data, stops
// early when asked to and finally copies the trained parameters into a single
// lane network for sequential prediction.
package trainer
