package signal

import (
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"
)

// Sampler draws one real-valued noise sample per call.
type Sampler interface {
	Sample() float64
}

// Gaussian is a seeded normal sampler with zero mean.
type Gaussian struct {
	dist distuv.Normal
}

func NewGaussian(std float64, seed uint64) *Gaussian {
	return &Gaussian{
		dist: distuv.Normal{
			Mu:    0,
			Sigma: std,
			Src:   rand.NewPCG(seed, seed^0x9e3779b97f4a7c15),
		},
	}
}

func (g *Gaussian) Sample() float64 {
	if g.dist.Sigma == 0 {
		return 0
	}
	return g.dist.Rand()
}
