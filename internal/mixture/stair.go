package mixture

import (
	"fmt"
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"

	"platformflow.org/internal/models"
)

// Mixture weights and spreads shared by every stair.
const (
	FarWeight     = 0.6
	CloseWeight   = 0.3
	UniformWeight = 0.1

	FarConcentration   = 7.0
	CloseConcentration = 20.0

	// Epsilon keeps clamped stair positions strictly inside the platform.
	Epsilon = 1e-3
)

const platformLength = models.PlatformEnd - models.PlatformStart

// StairMixture is the boarding distribution produced by a single stair: a wide and a narrow
// Beta cluster centred on the stair plus a uniform baseline over the whole platform.
type StairMixture struct {
	Position float64

	far     distuv.Beta
	near    distuv.Beta
	uniform distuv.Uniform
}

// ClampStair moves a stair position into the open platform interval.
func ClampStair(position float64) float64 {
	switch {
	case position <= models.PlatformStart:
		return models.PlatformStart + Epsilon
	case position >= models.PlatformEnd:
		return models.PlatformEnd - Epsilon
	default:
		return position
	}
}

// NewStair builds the mixture for a stair. src is used for sampling and may be nil when only
// densities are needed.
func NewStair(position float64, src rand.Source) (StairMixture, error) {
	mode := (ClampStair(position) - models.PlatformStart) / platformLength

	far, err := ModeBeta(mode, FarConcentration, src)
	if err != nil {
		return StairMixture{}, fmt.Errorf("stair at %v: %w", position, err)
	}
	near, err := ModeBeta(mode, CloseConcentration, src)
	if err != nil {
		return StairMixture{}, fmt.Errorf("stair at %v: %w", position, err)
	}

	return StairMixture{
		Position: position,
		far:      far,
		near:     near,
		uniform: distuv.Uniform{
			Min: models.PlatformStart,
			Max: models.PlatformEnd,
			Src: src,
		},
	}, nil
}

// Components returns the weighted far, near and uniform densities at x.
// The Beta densities are rescaled from [0,1] to the platform frame so each component integrates
// to its weight over the platform.
func (s StairMixture) Components(x float64) (far, near, uniform float64) {
	u := (x - models.PlatformStart) / platformLength
	far = FarWeight * s.far.Prob(u) / platformLength
	near = CloseWeight * s.near.Prob(u) / platformLength
	uniform = UniformWeight * s.uniform.Prob(x)
	return far, near, uniform
}

// Density returns the boarding density of the stair at x.
func (s StairMixture) Density(x float64) float64 {
	far, near, uniform := s.Components(x)
	return far + near + uniform
}

// SampleCounts splits n draws between the far, near and uniform components.
// The uniform component takes whatever rounding leaves so the counts always add up to n.
func SampleCounts(n int) (far, near, uniform int) {
	if n <= 0 {
		return 0, 0, 0
	}
	far = int(math.Round(float64(n) * FarWeight))
	near = int(math.Round(float64(n) * CloseWeight))
	uniform = max(n-far-near, 0)
	return far, near, uniform
}

// Sample draws n positions from the mixture, clamped to the platform.
func (s StairMixture) Sample(n int) []float64 {
	nFar, nClose, nUniform := SampleCounts(n)
	xs := make([]float64, 0, nFar+nClose+nUniform)

	for range nFar {
		xs = append(xs, clampPlatform(models.PlatformStart+s.far.Rand()*platformLength))
	}
	for range nClose {
		xs = append(xs, clampPlatform(models.PlatformStart+s.near.Rand()*platformLength))
	}
	for range nUniform {
		xs = append(xs, clampPlatform(s.uniform.Rand()))
	}

	return xs
}

func clampPlatform(x float64) float64 {
	return math.Min(math.Max(x, models.PlatformStart), models.PlatformEnd)
}
