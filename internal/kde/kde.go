// Package kde smooths a finite passenger population into a density curve over the platform.
package kde

import (
	"errors"
	"math"

	"platformflow.org/internal/models"
)

// DefaultMultiplier widens Scott's bandwidth enough to give readable platform curves.
const DefaultMultiplier = 12.0

var ErrEmptyPopulation = errors.New("cannot estimate density of an empty population")

var invSqrt2Pi = 1 / math.Sqrt(2*math.Pi)

// ScottBandwidth returns n^(-1/5), Scott's rule for a unit-variance Gaussian kernel.
func ScottBandwidth(n int) float64 {
	return math.Pow(float64(n), -1.0/5.0)
}

// Density evaluates the Gaussian kernel density estimate of xs at x with bandwidth h.
func Density(xs []float64, h, x float64) float64 {
	var sum float64
	for _, xi := range xs {
		u := (x - xi) / h
		sum += math.Exp(-0.5*u*u) * invSqrt2Pi
	}
	return sum / (float64(len(xs)) * h)
}

// Estimate returns the density of population at every integer position of the platform, using
// Scott's bandwidth scaled by multiplier.
func Estimate(population []float64, multiplier float64) (models.DensityCurve, error) {
	if len(population) == 0 {
		return nil, ErrEmptyPopulation
	}
	if multiplier <= 0 {
		multiplier = DefaultMultiplier
	}

	h := ScottBandwidth(len(population)) * multiplier
	start, end := int(models.PlatformStart), int(models.PlatformEnd)

	curve := make(models.DensityCurve, 0, end-start+1)
	for i := start; i <= end; i++ {
		x := float64(i)
		curve = append(curve, models.Point{X: x, Density: Density(population, h, x)})
	}
	return curve, nil
}
