package neighbors

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat/distuv"
)

// Kernel names accepted by the weight_func hyperparameter.
const (
	KernelRectangular  = "rectangular"
	KernelTriangular   = "triangular"
	KernelEpanechnikov = "epanechnikov"
	KernelBiweight     = "biweight"
	KernelTriweight    = "triweight"
	KernelCos          = "cos"
	KernelInv          = "inv"
	KernelGaussian     = "gaussian"
)

// KernelFunc maps a normalised distance in (0, 1) to a vote weight.
type KernelFunc func(d float64) float64

var unitNormal = distuv.Normal{Mu: 0, Sigma: 1}

var kernels = map[string]KernelFunc{
	KernelRectangular:  func(float64) float64 { return 0.5 },
	KernelTriangular:   func(d float64) float64 { return 1 - d },
	KernelEpanechnikov: func(d float64) float64 { return 0.75 * (1 - d*d) },
	KernelBiweight:     func(d float64) float64 { return 15.0 / 16.0 * math.Pow(1-d*d, 2) },
	KernelTriweight:    func(d float64) float64 { return 35.0 / 32.0 * math.Pow(1-d*d, 3) },
	KernelCos:          func(d float64) float64 { return math.Pi / 4 * math.Cos(math.Pi/2*d) },
	KernelInv:          func(d float64) float64 { return 1 / d },
	KernelGaussian:     unitNormal.Prob,
}

// Kernel returns the kernel registered under name.
func Kernel(name string) (KernelFunc, bool) {
	k, ok := kernels[name]
	return k, ok
}

// KernelNames returns the accepted kernel names in sorted order.
func KernelNames() []string {
	names := make([]string, 0, len(kernels))
	for name := range kernels {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
