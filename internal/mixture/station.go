package mixture

import (
	"errors"
	"fmt"
	"math/rand/v2"

	"platformflow.org/internal/models"
)

var ErrNoStairs = errors.New("station has no stairs")

// StationMixture is the boarding distribution of a station: the average of its stair mixtures.
type StationMixture struct {
	Name   string
	Stairs []StairMixture
}

// NewStation builds the boarding mixture of a station from its stair positions.
func NewStation(stairs models.StationStairs, src rand.Source) (*StationMixture, error) {
	if len(stairs.StairPositions) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoStairs, stairs.Name)
	}

	station := &StationMixture{
		Name:   stairs.Name,
		Stairs: make([]StairMixture, 0, len(stairs.StairPositions)),
	}
	for _, position := range stairs.StairPositions {
		stair, err := NewStair(position, src)
		if err != nil {
			return nil, fmt.Errorf("station %s: %w", stairs.Name, err)
		}
		station.Stairs = append(station.Stairs, stair)
	}

	return station, nil
}

// NewStations builds one mixture per station, keeping station order.
func NewStations(stations []models.StationStairs, src rand.Source) ([]*StationMixture, error) {
	mixtures := make([]*StationMixture, 0, len(stations))
	for _, stairs := range stations {
		m, err := NewStation(stairs, src)
		if err != nil {
			return nil, err
		}
		mixtures = append(mixtures, m)
	}
	return mixtures, nil
}

// Density returns the station's boarding density at x. Each stair contributes 1/len(Stairs).
func (m *StationMixture) Density(x float64) float64 {
	var sum float64
	for _, stair := range m.Stairs {
		sum += stair.Density(x)
	}
	return sum / float64(len(m.Stairs))
}

// Sample draws n boarding positions, splitting n as evenly as possible across the stairs.
func (m *StationMixture) Sample(n int) []float64 {
	xs := make([]float64, 0, max(n, 0))
	for i, size := range StairBatchSizes(n, len(m.Stairs)) {
		xs = append(xs, m.Stairs[i].Sample(size)...)
	}
	return xs
}

// StairBatchSizes splits n draws into k batches whose sizes differ by at most one.
func StairBatchSizes(n, k int) []int {
	if k <= 0 {
		return nil
	}
	sizes := make([]int, k)
	if n <= 0 {
		return sizes
	}
	base, rem := n/k, n%k
	for i := range sizes {
		sizes[i] = base
		if i < rem {
			sizes[i]++
		}
	}
	return sizes
}
