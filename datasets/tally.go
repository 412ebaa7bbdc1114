package datasets

import "github.com/montanaflynn/stats"
import "github.com/pkg/errors"

// Tally accumulates, per class, the fraction of positions carrying that class
// in each label sequence. Every sequence contributes its fraction, not its raw
// count, so short and long sequences weigh the same.
type Tally struct {
	fractions [2]stats.Float64Data
}

// Add tallies one label sequence. Empty sequences are skipped.
func (t *Tally) Add(y Labels) {
	if len(y) == 0 {
		return
	}
	var neg, pos float64
	for _, v := range y {
		switch v {
		case 0:
			neg++
		case 1:
			pos++
		}
	}
	t.fractions[0] = append(t.fractions[0], neg/float64(len(y)))
	t.fractions[1] = append(t.fractions[1], pos/float64(len(y)))
}

// Count returns the summed per-sequence fraction of class (0 or 1).
func (t *Tally) Count(class int) float64 {
	if class < 0 || class > 1 || len(t.fractions[class]) == 0 {
		return 0
	}
	sum, err := stats.Sum(t.fractions[class])
	if err != nil {
		return 0
	}
	return sum
}

// Len returns the number of tallied sequences.
func (t *Tally) Len() int {
	return len(t.fractions[0])
}

// CountSamples sums, over all label sequences, the mean of label == class.
func CountSamples(y []Labels, class int) float64 {
	var t Tally
	for _, labels := range y {
		t.Add(labels)
	}
	return t.Count(class)
}

// PositiveWeight derives the positive class weight as the ratio of negative to
// positive per-sequence fractions. A label set without positives or without
// negatives is reported as ErrDegenerate instead of yielding Inf or NaN.
func PositiveWeight(y []Labels) (weight, neg, pos float64, err error) {
	var t Tally
	for _, labels := range y {
		t.Add(labels)
	}
	neg, pos = t.Count(0), t.Count(1)
	if pos == 0 {
		return 0, neg, pos, errors.Wrap(ErrDegenerate, "no positive labels to weigh against")
	}
	if neg == 0 {
		return 0, neg, pos, errors.Wrap(ErrDegenerate, "no negative labels to weigh against")
	}
	return neg / pos, neg, pos, nil
}
