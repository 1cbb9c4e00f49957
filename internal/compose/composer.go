// Package compose evaluates the analytic net occupancy density of a line.
//
// The net density after station i follows
//
//	net(0, x) = b_0(x)
//	net(i, x) = net(i-1, x)*(1-p_i) + b_i(x)*p_i
//
// where b_i is the boarding density of station i and p_i its boarding proportion. The composer
// unrolls the recurrence once into per-station blend weights, so net(i, x) is a weighted sum of
// boarding densities and never recurses.
package compose

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/integrate"

	"platformflow.org/internal/flow"
	"platformflow.org/internal/mixture"
	"platformflow.org/internal/models"
)

var ErrProportionRange = errors.New("boarding proportion outside [0, 1]")

// Proportions supplies one boarding proportion per station.
type Proportions interface {
	Len() int
	Proportion(i int) float64
}

// Composer holds the boarding densities of a line together with the blend weights of every
// station, indexed by station order.
type Composer struct {
	stations    []*mixture.StationMixture
	proportions []float64
	weights     [][]float64
}

// New builds a composer for the stations of a line.
func New(stations []*mixture.StationMixture, proportions Proportions) (*Composer, error) {
	if proportions.Len() != len(stations) {
		return nil, fmt.Errorf("%w: %d proportions for %d stations",
			flow.ErrLengthMismatch, proportions.Len(), len(stations))
	}

	c := &Composer{
		stations:    stations,
		proportions: make([]float64, len(stations)),
		weights:     make([][]float64, len(stations)),
	}

	for i := range stations {
		p := proportions.Proportion(i)
		if !(p >= 0 && p <= 1) {
			return nil, fmt.Errorf("%w: station %d (%s): %v", ErrProportionRange, i, stations[i].Name, p)
		}
		c.proportions[i] = p

		if i == 0 {
			c.weights[0] = []float64{1}
			continue
		}
		w := make([]float64, i+1)
		for j, prev := range c.weights[i-1] {
			w[j] = prev * (1 - p)
		}
		w[i] = p
		c.weights[i] = w
	}

	return c, nil
}

// Len returns the number of stations.
func (c *Composer) Len() int {
	return len(c.stations)
}

// Weights returns how much each station's boarding density contributes to net(i, ·).
func (c *Composer) Weights(i int) []float64 {
	w := make([]float64, len(c.weights[i]))
	copy(w, c.weights[i])
	return w
}

// BoardingDensity returns b_i(x).
func (c *Composer) BoardingDensity(i int, x float64) float64 {
	return c.stations[i].Density(x)
}

// NetDensity returns net(i, x).
func (c *Composer) NetDensity(i int, x float64) float64 {
	var sum float64
	for j, w := range c.weights[i] {
		if w == 0 {
			continue
		}
		sum += w * c.stations[j].Density(x)
	}
	return sum
}

// Curve samples net(i, ·) at xs.
func (c *Composer) Curve(i int, xs []float64) models.DensityCurve {
	curve := make(models.DensityCurve, len(xs))
	for k, x := range xs {
		curve[k] = models.Point{X: x, Density: c.NetDensity(i, x)}
	}
	return curve
}

// Curves samples the net density of every station at xs by folding the recurrence along the
// line, so each boarding density is evaluated once per point.
func (c *Composer) Curves(xs []float64) []models.DensityCurve {
	curves := make([]models.DensityCurve, len(c.stations))
	var prev models.DensityCurve

	for i, station := range c.stations {
		p := c.proportions[i]
		curve := make(models.DensityCurve, len(xs))
		for k, x := range xs {
			b := station.Density(x)
			if i == 0 {
				curve[k] = models.Point{X: x, Density: b}
				continue
			}
			curve[k] = models.Point{X: x, Density: prev[k].Density*(1-p) + b*p}
		}
		curves[i] = curve
		prev = curve
	}

	return curves
}

// Mass integrates net(i, ·) over the platform. It is 1 up to quadrature error.
func (c *Composer) Mass(i int) float64 {
	xs := Grid(0.1)
	return integrate.Trapezoidal(xs, c.Curve(i, xs).Densities())
}

// Grid returns evenly spaced x values covering the platform with the given step.
func Grid(step float64) []float64 {
	if step <= 0 {
		step = 1
	}
	n := int((models.PlatformEnd-models.PlatformStart)/step+0.5) + 1
	if n < 2 {
		n = 2
	}
	return floats.Span(make([]float64, n), models.PlatformStart, models.PlatformEnd)
}
