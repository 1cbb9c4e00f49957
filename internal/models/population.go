package models

// StationPopulation is the simulated set of passenger positions on board after a station.
// Positions is unordered for every downstream use.
type StationPopulation struct {
	Station    string    `json:"station"`
	Positions  []float64 `json:"positions"`
	Continuing int       `json:"continuing"`
	Boarded    int       `json:"boarded"`
	Alighted   int       `json:"alighted"`
}

// Len returns the number of passengers in the population.
func (p StationPopulation) Len() int {
	return len(p.Positions)
}
