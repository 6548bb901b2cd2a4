package classifier

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ---------------------------------------------------------------------------
// Test Helpers
// ---------------------------------------------------------------------------

// separable returns rows where feature 0 marks a delay; delayed rows are the minority
func separable(delayed, onTime int) ([][]float64, []int) {
	var x [][]float64
	var y []int
	for i := 0; i < delayed; i++ {
		x = append(x, []float64{1, 0, float64(i % 2)})
		y = append(y, 1)
	}
	for i := 0; i < onTime; i++ {
		x = append(x, []float64{0, 1, float64(i % 2)})
		y = append(y, 0)
	}
	return x, y
}

// ---------------------------------------------------------------------------
// Unfit
// ---------------------------------------------------------------------------

func TestUnfitPredictsZeros(t *testing.T) {
	m := New(DefaultOptions())
	assert.False(t, m.IsFitted())

	x := [][]float64{{1, 0}, {0, 1}, {1, 1}}
	got, err := m.Predict(x)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 0, 0}, got)

	proba, err := m.PredictProba(x)
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 0, 0}, proba)

	got, err = m.Predict(nil)
	require.NoError(t, err)
	assert.Empty(t, got)

	_, _, ok := m.Coefficients()
	assert.False(t, ok)
}

// ---------------------------------------------------------------------------
// Fit / Predict
// ---------------------------------------------------------------------------

func TestFitPredict(t *testing.T) {
	x, y := separable(5, 45)

	m := New(DefaultOptions())
	report, err := m.Fit(x, y)
	require.NoError(t, err)
	require.True(t, m.IsFitted())

	assert.InDelta(t, 5.0, report.ClassWeights[1], 1e-9)
	assert.InDelta(t, 50.0/90.0, report.ClassWeights[0], 1e-9)
	assert.Greater(t, report.Iterations, 0)

	got, err := m.Predict([][]float64{{1, 0, 0}, {0, 1, 1}, {1, 0, 1}, {0, 1, 0}})
	require.NoError(t, err)
	assert.Equal(t, []int{1, 0, 1, 0}, got)

	proba, err := m.PredictProba([][]float64{{1, 0, 0}, {0, 1, 0}})
	require.NoError(t, err)
	assert.Greater(t, proba[0], 0.5)
	assert.Less(t, proba[1], 0.5)

	coef, _, ok := m.Coefficients()
	require.True(t, ok)
	assert.Greater(t, coef[0], coef[1])
}

func TestFitReplacesState(t *testing.T) {
	x, y := separable(10, 10)
	m := New(DefaultOptions())
	_, err := m.Fit(x, y)
	require.NoError(t, err)

	flipped := make([]int, len(y))
	for i, label := range y {
		flipped[i] = 1 - label
	}
	_, err = m.Fit(x, flipped)
	require.NoError(t, err)

	got, err := m.Predict([][]float64{{1, 0, 0}})
	require.NoError(t, err)
	assert.Equal(t, []int{0}, got)
}

func TestFitErrors(t *testing.T) {
	m := New(DefaultOptions())

	_, err := m.Fit(nil, nil)
	assert.ErrorIs(t, err, ErrShapeMismatch)

	_, err = m.Fit([][]float64{{1, 0}, {0}}, []int{1, 0})
	assert.ErrorIs(t, err, ErrShapeMismatch)

	_, err = m.Fit([][]float64{{1, 0}, {0, 1}}, []int{1})
	assert.ErrorIs(t, err, ErrShapeMismatch)

	_, err = m.Fit([][]float64{{1, 0}, {0, 1}}, []int{1, 1})
	assert.ErrorIs(t, err, ErrSingleClass)

	_, err = m.Fit([][]float64{{1, 0}, {0, 1}}, []int{1, 2})
	assert.ErrorIs(t, err, ErrInvalidLabel)

	assert.False(t, m.IsFitted())
}

func TestPredictWidthMismatch(t *testing.T) {
	x, y := separable(3, 3)
	m := New(DefaultOptions())
	_, err := m.Fit(x, y)
	require.NoError(t, err)

	_, err = m.Predict([][]float64{{1, 0}})
	assert.ErrorIs(t, err, ErrShapeMismatch)
}

func TestClassWeightsUnbalanced(t *testing.T) {
	weights, err := classWeights([]int{0, 0, 0, 1}, false)
	require.NoError(t, err)
	assert.Equal(t, [2]float64{1, 1}, weights)

	weights, err = classWeights([]int{0, 0, 0, 1}, true)
	require.NoError(t, err)
	assert.InDelta(t, 4.0/6.0, weights[0], 1e-12)
	assert.InDelta(t, 2.0, weights[1], 1e-12)
}

func TestObjectiveGradient(t *testing.T) {
	x, y := separable(2, 4)
	obj := &objective{x: x, y: y, w: []float64{3, 3, 0.75, 0.75, 0.75, 0.75}, c: 1, width: 3}

	params := []float64{0.3, -0.2, 0.1, 0.05}
	grad := make([]float64, len(params))
	obj.grad(grad, params)

	const h = 1e-6
	for j := range params {
		plus := append([]float64(nil), params...)
		minus := append([]float64(nil), params...)
		plus[j] += h
		minus[j] -= h
		numeric := (obj.loss(plus) - obj.loss(minus)) / (2 * h)
		assert.InDelta(t, numeric, grad[j], 1e-5, "param %d", j)
	}
}

func TestNewAppliesDefaults(t *testing.T) {
	m := New(Options{})
	assert.Equal(t, 1000, m.opts.MaxIter)
	assert.Equal(t, 1.0, m.opts.C)
	assert.Equal(t, 1e-4, m.opts.Tolerance)
}
