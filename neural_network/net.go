package neural_network

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/seedtune/pkg/errors"
)

// net evaluates the loss and gradient of the network for a flat weight vector.
// The first nHidden*(nIn+1) weights form the hidden matrix, the rest the output
// matrix; column 0 of each holds the biases.
type net struct {
	xb      *mat.Dense // samples × (nIn+1)
	targets []int
	nIn     int
	nHidden int
	nOut    int
	penalty float64
}

func (n *net) split(w []float64) (w1, w2 *mat.Dense) {
	off := n.nHidden * (n.nIn + 1)
	w1 = mat.NewDense(n.nHidden, n.nIn+1, w[:off])
	w2 = mat.NewDense(n.nOut, n.nHidden+1, w[off:])
	return w1, w2
}

// hidden returns the biased hidden activations, samples × (nHidden+1).
func (n *net) hidden(w1 *mat.Dense) *mat.Dense {
	rows, _ := n.xb.Dims()
	var a mat.Dense
	a.Mul(n.xb, w1.T())

	hb := mat.NewDense(rows, n.nHidden+1, nil)
	for i := 0; i < rows; i++ {
		hb.Set(i, 0, 1)
		for j := 0; j < n.nHidden; j++ {
			hb.Set(i, j+1, sigmoid(a.At(i, j)))
		}
	}
	return hb
}

// softmax turns output activations into probabilities in place and returns
// the log-probabilities.
func softmax(z *mat.Dense) *mat.Dense {
	rows, cols := z.Dims()
	logp := mat.NewDense(rows, cols, nil)
	row := make([]float64, cols)
	for i := 0; i < rows; i++ {
		mat.Row(row, i, z)
		lse := errors.LogSumExp(row)
		for j := range row {
			logp.Set(i, j, row[j]-lse)
			z.Set(i, j, math.Exp(row[j]-lse))
		}
	}
	return logp
}

func (n *net) forward(w []float64) *mat.Dense {
	w1, w2 := n.split(w)
	hb := n.hidden(w1)
	var z mat.Dense
	z.Mul(hb, w2.T())
	softmax(&z)
	return &z
}

func (n *net) loss(w []float64) float64 {
	w1, w2 := n.split(w)
	hb := n.hidden(w1)
	var z mat.Dense
	z.Mul(hb, w2.T())
	logp := softmax(&z)

	total := 0.0
	for i, t := range n.targets {
		total -= logp.At(i, t)
	}
	return total + n.penalty*n.decay(w1, w2)
}

func (n *net) grad(grad, w []float64) {
	w1, w2 := n.split(w)
	hb := n.hidden(w1)
	var p mat.Dense
	p.Mul(hb, w2.T())
	softmax(&p)

	// dZ = P - Y
	for i, t := range n.targets {
		p.Set(i, t, p.At(i, t)-1)
	}

	g1, g2 := n.split(grad)
	g2.Mul(p.T(), hb)

	// back through the output weights, skipping the bias column
	var dh mat.Dense
	dh.Mul(&p, w2.Slice(0, n.nOut, 1, n.nHidden+1))
	rows, _ := dh.Dims()
	for i := 0; i < rows; i++ {
		for j := 0; j < n.nHidden; j++ {
			h := hb.At(i, j+1)
			dh.Set(i, j, dh.At(i, j)*h*(1-h))
		}
	}
	g1.Mul(dh.T(), n.xb)

	if n.penalty > 0 {
		addDecayGrad(g1, w1, n.penalty)
		addDecayGrad(g2, w2, n.penalty)
	}
}

// decay is the sum of squared non-bias weights.
func (n *net) decay(w1, w2 *mat.Dense) float64 {
	sum := 0.0
	for _, w := range []*mat.Dense{w1, w2} {
		r, c := w.Dims()
		for i := 0; i < r; i++ {
			for j := 1; j < c; j++ {
				v := w.At(i, j)
				sum += v * v
			}
		}
	}
	return sum
}

func addDecayGrad(g, w *mat.Dense, penalty float64) {
	r, c := w.Dims()
	for i := 0; i < r; i++ {
		for j := 1; j < c; j++ {
			g.Set(i, j, g.At(i, j)+2*penalty*w.At(i, j))
		}
	}
}

func sigmoid(x float64) float64 {
	if x >= 0 {
		return 1 / (1 + math.Exp(-x))
	}
	e := math.Exp(x)
	return e / (1 + e)
}
