package store

import "context"
import "testing"

import "github.com/stretchr/testify/assert"
import "github.com/stretchr/testify/require"
import "gonum.org/v1/gonum/mat"

import "github.com/neurlang/seqclassifier/datasets"

func open(t *testing.T) *DB {
	db, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestSequences(t *testing.T) {
	db := open(t)
	ctx := context.Background()
	var a = datasets.Sequence{Index: []string{"PF1", "PF2", "PF3"}, X: mat.NewDense(3, 2, []float64{0.5, 1, -1.25, 2, 0, 4})}
	var b = datasets.Sequence{X: mat.NewDense(2, 2, []float64{1, 1, 0, 0})}
	require.NoError(t, db.PutSequence(ctx, "a", a, datasets.Labels{0, 1, 1}))
	require.NoError(t, db.PutSequence(ctx, "b", b, datasets.Labels{1, 0}))

	names, samples, err := db.LoadSamples(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, names)
	require.Len(t, samples, 2)
	assert.Equal(t, a.Index, samples[0].X.Index)
	assert.True(t, mat.Equal(a.X, samples[0].X.X))
	assert.Equal(t, datasets.Labels{0, 1, 1}, samples[0].Y)
	assert.Nil(t, samples[1].X.Index)

	// replacing keeps one sequence per name
	require.NoError(t, db.PutSequence(ctx, "a", b, datasets.Labels{0, 0}))
	names, samples, err = db.LoadSamples(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "a"}, names)
	assert.Equal(t, 2, samples[1].Len())
}

func TestUnlabeled(t *testing.T) {
	db := open(t)
	ctx := context.Background()
	require.NoError(t, db.PutSequence(ctx, "u", datasets.Sequence{X: mat.NewDense(1, 3, []float64{1, 2, 3})}, nil))

	seq, y, err := db.LoadSequence(ctx, "u")
	require.NoError(t, err)
	assert.Nil(t, y)
	assert.Equal(t, 3, seq.Width())

	_, _, err = db.LoadSamples(ctx)
	assert.ErrorIs(t, err, datasets.ErrShape)

	_, _, err = db.LoadSequence(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPutSequenceShape(t *testing.T) {
	db := open(t)
	err := db.PutSequence(context.Background(), "x", datasets.Sequence{X: mat.NewDense(2, 1, nil)}, datasets.Labels{1})
	assert.ErrorIs(t, err, datasets.ErrShape)
}

func TestScores(t *testing.T) {
	db := open(t)
	ctx := context.Background()
	var a = datasets.Sequence{Index: []string{"x", "y"}, X: mat.NewDense(2, 1, []float64{1, 2})}
	require.NoError(t, db.PutSequence(ctx, "a", a, nil))

	require.NoError(t, db.PutScores(ctx, "a", "run1", datasets.Scores{Values: []float64{0.25, 0.75}}))
	require.NoError(t, db.PutScores(ctx, "a", "run2", datasets.Scores{Values: []float64{0.5, 0.5}}))
	got, err := db.LoadScores(ctx, "a", "run1")
	require.NoError(t, err)
	assert.Equal(t, []string{"x", "y"}, got.Index)
	assert.Equal(t, []float64{0.25, 0.75}, got.Values)

	_, err = db.LoadScores(ctx, "a", "run3")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, db.PutScores(ctx, "b", "run1", datasets.Scores{}), ErrNotFound)
}
