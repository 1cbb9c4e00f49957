package models

// Point is a single sample of a density curve.
type Point struct {
	X       float64 `json:"x"`
	Density float64 `json:"density"`
}

// DensityCurve is a density sampled at a fixed x resolution, ordered by x.
type DensityCurve []Point

// Xs returns the sample locations of the curve.
func (c DensityCurve) Xs() []float64 {
	xs := make([]float64, len(c))
	for i, p := range c {
		xs[i] = p.X
	}
	return xs
}

// Densities returns the density values of the curve.
func (c DensityCurve) Densities() []float64 {
	ys := make([]float64, len(c))
	for i, p := range c {
		ys[i] = p.Density
	}
	return ys
}

// Peak returns the point with the largest density. The zero Point is returned for an empty curve.
func (c DensityCurve) Peak() Point {
	var peak Point
	for i, p := range c {
		if i == 0 || p.Density > peak.Density {
			peak = p
		}
	}
	return peak
}
