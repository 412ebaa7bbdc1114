// Package synthetic provides generated protein-domain-like sequences for training
// demos and tests. Positive samples carry a shifted signal on a subset of the
// feature columns, so a recurrent classifier can separate them from negatives.
package synthetic
