package app

import (
	"gonum.org/v1/gonum/stat"

	"platformflow.org/internal/models"
)

// LineReport collects the results of one line, stations in travel order.
type LineReport struct {
	Line     string          `json:"line"`
	Stations []StationReport `json:"stations"`
}

// StationReport is the model output for the train as it leaves a station.
type StationReport struct {
	Name       string              `json:"name"`
	Stairs     []float64           `json:"stairs"`
	Proportion float64             `json:"proportion"`
	Boarding   int64               `json:"boarding"`
	Alighting  int64               `json:"alighting"`
	Onboard    int64               `json:"onboard"`
	Weights    []float64           `json:"weights"`
	Analytic   models.DensityCurve `json:"analytic"`
	Empirical  models.DensityCurve `json:"empirical,omitempty"`
	Population PopulationSummary   `json:"population"`
}

// PopulationSummary describes the simulated passengers on board.
type PopulationSummary struct {
	Size       int     `json:"size"`
	Continuing int     `json:"continuing"`
	Boarded    int     `json:"boarded"`
	Alighted   int     `json:"alighted"`
	Mean       float64 `json:"mean"`
	StdDev     float64 `json:"stdDev"`
}

func summarize(population models.StationPopulation) PopulationSummary {
	summary := PopulationSummary{
		Size:       population.Len(),
		Continuing: population.Continuing,
		Boarded:    population.Boarded,
		Alighted:   population.Alighted,
	}

	switch n := population.Len(); {
	case n == 1:
		summary.Mean = population.Positions[0]
	case n > 1:
		summary.Mean, summary.StdDev = stat.MeanStdDev(population.Positions, nil)
	}

	return summary
}
