package models

// StationStairs lists the stair positions of one station, normalized to the platform frame.
type StationStairs struct {
	Name           string    `json:"name"`
	StairPositions []float64 `json:"stairPositions"`
}

func NewStationStairs(name string, positions []float64) StationStairs {
	stairs := make([]float64, len(positions))
	copy(stairs, positions)
	return StationStairs{
		Name:           name,
		StairPositions: stairs,
	}
}
