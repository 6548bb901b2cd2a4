package classifier

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/optimize"
)

var (
	// ErrShapeMismatch is returned for empty inputs, ragged rows or mismatched row counts
	ErrShapeMismatch = errors.New("classifier: input shape mismatch")
	// ErrSingleClass is returned when the labels contain only one class
	ErrSingleClass = errors.New("classifier: labels must contain both classes")
	// ErrInvalidLabel is returned for labels other than 0 and 1
	ErrInvalidLabel = errors.New("classifier: labels must be 0 or 1")
)

// Options configures training
type Options struct {
	MaxIter   int     // optimizer iteration budget
	C         float64 // inverse L2 regularization strength
	Tolerance float64 // gradient norm at which training stops
	Balanced  bool    // weight classes inversely to their frequency
}

// DefaultOptions returns balanced logistic regression with a 1000 iteration budget
func DefaultOptions() Options {
	return Options{
		MaxIter:   1000,
		C:         1.0,
		Tolerance: 1e-4,
		Balanced:  true,
	}
}

// state is either unfit or *fitted
type state interface {
	isState()
}

type unfit struct{}

type fitted struct {
	coef      []float64
	intercept float64
}

func (unfit) isState()   {}
func (*fitted) isState() {}

// FitReport describes how training ended
type FitReport struct {
	Iterations   int
	Status       string
	Loss         float64
	ClassWeights [2]float64
}

// Model is a binary logistic regression classifier. A new Model is unfit and
// predicts 0 for every row. Model is not safe for concurrent Fit and Predict.
type Model struct {
	opts  Options
	state state
}

// New creates an unfit model
func New(opts Options) *Model {
	if opts.MaxIter <= 0 {
		opts.MaxIter = DefaultOptions().MaxIter
	}
	if opts.C <= 0 {
		opts.C = DefaultOptions().C
	}
	if opts.Tolerance <= 0 {
		opts.Tolerance = DefaultOptions().Tolerance
	}
	return &Model{opts: opts, state: unfit{}}
}

// IsFitted reports whether Fit has completed successfully
func (m *Model) IsFitted() bool {
	_, ok := m.state.(*fitted)
	return ok
}

// Coefficients returns a copy of the weights and the intercept.
// ok is false for an unfit model.
func (m *Model) Coefficients() (coef []float64, intercept float64, ok bool) {
	f, isFitted := m.state.(*fitted)
	if !isFitted {
		return nil, 0, false
	}
	coef = make([]float64, len(f.coef))
	copy(coef, f.coef)
	return coef, f.intercept, true
}

// Fit trains the model on x (rows of features) and binary labels y,
// replacing any previous state
func (m *Model) Fit(x [][]float64, y []int) (*FitReport, error) {
	width, err := checkShape(x)
	if err != nil {
		return nil, err
	}
	if len(y) != len(x) {
		return nil, fmt.Errorf("%w: %d rows, %d labels", ErrShapeMismatch, len(x), len(y))
	}

	weights, err := classWeights(y, m.opts.Balanced)
	if err != nil {
		return nil, err
	}

	sampleWeights := make([]float64, len(y))
	for i, label := range y {
		sampleWeights[i] = weights[label]
	}

	obj := &objective{x: x, y: y, w: sampleWeights, c: m.opts.C, width: width}
	problem := optimize.Problem{
		Func: obj.loss,
		Grad: obj.grad,
	}
	settings := &optimize.Settings{
		GradientThreshold: m.opts.Tolerance,
		MajorIterations:   m.opts.MaxIter,
	}

	result, err := optimize.Minimize(problem, make([]float64, width+1), settings, &optimize.LBFGS{})
	if result == nil {
		return nil, fmt.Errorf("failed to optimize: %w", err)
	}
	// A line search failure close to the optimum still leaves a usable point.
	if err != nil && !allFinite(result.X) {
		return nil, fmt.Errorf("failed to optimize: %w", err)
	}

	params := result.X
	m.state = &fitted{
		coef:      append([]float64(nil), params[:width]...),
		intercept: params[width],
	}

	return &FitReport{
		Iterations:   result.Stats.MajorIterations,
		Status:       result.Status.String(),
		Loss:         result.F,
		ClassWeights: weights,
	}, nil
}

// Predict returns one label per row. An unfit model predicts 0 for all rows.
func (m *Model) Predict(x [][]float64) ([]int, error) {
	scores, err := m.decision(x)
	if err != nil {
		return nil, err
	}

	labels := make([]int, len(x))
	for i, z := range scores {
		if z > 0 {
			labels[i] = 1
		}
	}
	return labels, nil
}

// PredictProba returns the probability of a delay for every row.
// An unfit model returns 0 for all rows.
func (m *Model) PredictProba(x [][]float64) ([]float64, error) {
	if !m.IsFitted() {
		return make([]float64, len(x)), nil
	}

	scores, err := m.decision(x)
	if err != nil {
		return nil, err
	}
	for i, z := range scores {
		scores[i] = sigmoid(z)
	}
	return scores, nil
}

// decision returns w·x + b per row, or zeros when unfit
func (m *Model) decision(x [][]float64) ([]float64, error) {
	switch s := m.state.(type) {
	case *fitted:
		for i, row := range x {
			if len(row) != len(s.coef) {
				return nil, fmt.Errorf("%w: row %d has %d features, want %d", ErrShapeMismatch, i, len(row), len(s.coef))
			}
		}
		scores := make([]float64, len(x))
		for i, row := range x {
			scores[i] = floats.Dot(s.coef, row) + s.intercept
		}
		return scores, nil
	default:
		return make([]float64, len(x)), nil
	}
}

func checkShape(x [][]float64) (int, error) {
	if len(x) == 0 {
		return 0, fmt.Errorf("%w: no rows", ErrShapeMismatch)
	}
	width := len(x[0])
	if width == 0 {
		return 0, fmt.Errorf("%w: no features", ErrShapeMismatch)
	}
	for i, row := range x {
		if len(row) != width {
			return 0, fmt.Errorf("%w: row %d has %d features, want %d", ErrShapeMismatch, i, len(row), width)
		}
	}
	return width, nil
}

// classWeights returns per-class weights indexed by label. Balanced weights
// are n_samples / (n_classes * count).
func classWeights(y []int, balanced bool) ([2]float64, error) {
	var counts [2]int
	for _, label := range y {
		if label != 0 && label != 1 {
			return [2]float64{}, fmt.Errorf("%w: got %d", ErrInvalidLabel, label)
		}
		counts[label]++
	}
	if counts[0] == 0 || counts[1] == 0 {
		return [2]float64{}, ErrSingleClass
	}

	if !balanced {
		return [2]float64{1, 1}, nil
	}
	n := float64(len(y))
	return [2]float64{
		n / (2 * float64(counts[0])),
		n / (2 * float64(counts[1])),
	}, nil
}

func allFinite(values []float64) bool {
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
