package classifier

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// objective is the weighted log-loss scaled by C plus an L2 penalty on the
// coefficients. The intercept, stored last in the parameter vector, is not
// penalized.
type objective struct {
	x     [][]float64
	y     []int
	w     []float64
	c     float64
	width int
}

func (o *objective) loss(params []float64) float64 {
	coef, intercept := params[:o.width], params[o.width]

	var total float64
	for i, row := range o.x {
		z := floats.Dot(coef, row) + intercept
		total += o.w[i] * (log1pExp(z) - float64(o.y[i])*z)
	}
	return o.c*total + 0.5*floats.Dot(coef, coef)
}

func (o *objective) grad(grad, params []float64) {
	coef, intercept := params[:o.width], params[o.width]

	for j := range grad {
		grad[j] = 0
	}
	for i, row := range o.x {
		z := floats.Dot(coef, row) + intercept
		residual := o.c * o.w[i] * (sigmoid(z) - float64(o.y[i]))
		floats.AddScaled(grad[:o.width], residual, row)
		grad[o.width] += residual
	}
	floats.Add(grad[:o.width], coef)
}

// log1pExp computes log(1 + e^z) without overflow
func log1pExp(z float64) float64 {
	if z > 0 {
		return z + math.Log1p(math.Exp(-z))
	}
	return math.Log1p(math.Exp(z))
}

func sigmoid(z float64) float64 {
	if z >= 0 {
		return 1 / (1 + math.Exp(-z))
	}
	e := math.Exp(z)
	return e / (1 + e)
}
