package model_selection

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/YuminosukeSato/seedtune/pkg/errors"
)

// gaussianProcess is a zero-mean GP regression on standardised targets with
// a squared-exponential kernel over the unit cube.
type gaussianProcess struct {
	x           [][]float64
	alpha       *mat.VecDense
	chol        mat.Cholesky
	lengthScale float64
	noise       float64
	mean, scale float64
}

const (
	defaultLengthScale = 0.3
	defaultNoise       = 1e-4
)

func rbf(a, b []float64, lengthScale float64) float64 {
	d := floats.Distance(a, b, 2)
	return math.Exp(-d * d / (2 * lengthScale * lengthScale))
}

// fitGP conditions the process on observations (x, y).
func fitGP(x [][]float64, y []float64, lengthScale, noise float64) (*gaussianProcess, error) {
	n := len(x)
	if n == 0 || n != len(y) {
		return nil, errors.NewDimensionError("fitGP", n, len(y), 0)
	}

	mean, sd := stat.PopMeanStdDev(y, nil)
	if sd < 1e-12 {
		sd = 1
	}
	z := mat.NewVecDense(n, nil)
	for i, v := range y {
		z.SetVec(i, (v-mean)/sd)
	}

	K := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			v := rbf(x[i], x[j], lengthScale)
			if i == j {
				v += noise
			}
			K.SetSym(i, j, v)
		}
	}

	gp := &gaussianProcess{x: x, lengthScale: lengthScale, noise: noise, mean: mean, scale: sd}
	if ok := gp.chol.Factorize(K); !ok {
		return nil, errors.Wrap(errors.ErrSingularMatrix, "gaussian process kernel")
	}
	gp.alpha = mat.NewVecDense(n, nil)
	if err := gp.chol.SolveVecTo(gp.alpha, z); err != nil {
		return nil, errors.Wrap(err, "gaussian process solve")
	}
	return gp, nil
}

// predict returns the posterior mean and standard deviation at u, on the
// original target scale.
func (gp *gaussianProcess) predict(u []float64) (mu, sigma float64) {
	n := len(gp.x)
	ks := mat.NewVecDense(n, nil)
	for i, xi := range gp.x {
		ks.SetVec(i, rbf(u, xi, gp.lengthScale))
	}
	mu = mat.Dot(ks, gp.alpha)

	v := mat.NewVecDense(n, nil)
	variance := 1.0
	if err := gp.chol.SolveVecTo(v, ks); err == nil {
		variance -= mat.Dot(ks, v)
	}
	variance = math.Max(variance, 1e-12)
	return gp.mean + mu*gp.scale, math.Sqrt(variance) * gp.scale
}

// expectedImprovement for maximisation over the incumbent best, with
// exploration margin xi.
func expectedImprovement(mu, sigma, best, xi float64) float64 {
	if sigma <= 0 {
		return 0
	}
	imp := mu - best - xi
	z := imp / sigma
	return imp*distuv.UnitNormal.CDF(z) + sigma*distuv.UnitNormal.Prob(z)
}
