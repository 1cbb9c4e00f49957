// Package population runs the Monte-Carlo counterpart of the density composer: a finite set of
// passenger positions carried from station to station.
package population

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand/v2"

	"platformflow.org/internal/flow"
	"platformflow.org/internal/logging"
	"platformflow.org/internal/mixture"
	"platformflow.org/internal/models"
)

// DefaultBudget is the number of passengers sampled at the first station when none is configured.
const DefaultBudget = 200

var ErrOverAlighting = errors.New("more passengers alighting than on board")

// Counts supplies absolute boarding and alighting counts per station.
type Counts interface {
	Len() int
	Boarding(i int) int64
	Alighting(i int) int64
}

// Config controls population sizes.
type Config struct {
	// InitialBudget is the number of passengers sampled at the first station. Zero means
	// round(Boarding(0)*Scale) when StationBudget is also zero, and DefaultBudget otherwise.
	InitialBudget int
	// StationBudget is the number of boarders sampled at every later station.
	// Zero means the flow's boarding count is used instead.
	StationBudget int
	// Scale converts flow counts into simulated passengers. Zero means 1.
	Scale float64
}

// Propagator carries a population along a line. All randomness comes from rng, which should be
// the same source the station mixtures sample from.
type Propagator struct {
	config Config
	rng    *rand.Rand
	logger *slog.Logger
}

func NewPropagator(config Config, rng *rand.Rand, logger *slog.Logger) *Propagator {
	if config.Scale <= 0 {
		config.Scale = 1
	}
	return &Propagator{
		config: config,
		rng:    rng,
		logger: logger,
	}
}

// Propagate produces one population per station, in line order.
func (p *Propagator) Propagate(stations []*mixture.StationMixture, counts Counts) ([]models.StationPopulation, error) {
	if counts.Len() != len(stations) {
		return nil, fmt.Errorf("%w: %d flow entries for %d stations",
			flow.ErrLengthMismatch, counts.Len(), len(stations))
	}
	if len(stations) == 0 {
		return nil, nil
	}

	populations := make([]models.StationPopulation, 0, len(stations))
	populations = append(populations, p.first(stations[0], p.initialBudget(counts)))

	for i := 1; i < len(stations); i++ {
		nBoarding := p.config.StationBudget
		if nBoarding <= 0 {
			nBoarding = p.scaled(counts.Boarding(i))
		}
		nAlighting := p.scaled(counts.Alighting(i))

		next, err := p.Next(populations[i-1], stations[i], nAlighting, nBoarding)
		if err != nil {
			logging.LogError(p.logger, "population propagation failed", err,
				slog.Int("station_index", i),
				slog.String("station", stations[i].Name))
			return nil, err
		}
		populations = append(populations, next)
	}

	return populations, nil
}

// First samples the population at the first station of a line without flow counts, using
// InitialBudget or DefaultBudget.
func (p *Propagator) First(station *mixture.StationMixture) models.StationPopulation {
	n := p.config.InitialBudget
	if n <= 0 {
		n = DefaultBudget
	}
	return p.first(station, n)
}

// initialBudget sizes the first station's population. In flow-count mode it follows the flow's
// boarding count so the simulated and analytic shares agree.
func (p *Propagator) initialBudget(counts Counts) int {
	switch {
	case p.config.InitialBudget > 0:
		return p.config.InitialBudget
	case p.config.StationBudget > 0:
		return DefaultBudget
	default:
		return p.scaled(counts.Boarding(0))
	}
}

func (p *Propagator) first(station *mixture.StationMixture, n int) models.StationPopulation {
	boarded := station.Sample(n)
	return models.StationPopulation{
		Station:   station.Name,
		Positions: boarded,
		Boarded:   len(boarded),
	}
}

// Next applies one station: nAlighting passengers chosen uniformly at random leave, then
// nBoarding passengers sampled from the station's mixture join. prev is not modified.
func (p *Propagator) Next(prev models.StationPopulation, station *mixture.StationMixture, nAlighting, nBoarding int) (models.StationPopulation, error) {
	nRemaining := prev.Len() - nAlighting
	if nRemaining < 0 {
		return models.StationPopulation{}, fmt.Errorf("%w: station %s: %d on board, %d alighting",
			ErrOverAlighting, station.Name, prev.Len(), nAlighting)
	}

	continuing := Choose(p.rng, prev.Positions, nRemaining)
	boarded := station.Sample(nBoarding)

	positions := make([]float64, 0, len(continuing)+len(boarded))
	positions = append(positions, continuing...)
	positions = append(positions, boarded...)

	if p.logger != nil {
		p.logger.Debug("station propagated",
			slog.String("station", station.Name),
			slog.Int("continuing", len(continuing)),
			slog.Int("alighted", nAlighting),
			slog.Int("boarded", len(boarded)))
	}

	return models.StationPopulation{
		Station:    station.Name,
		Positions:  positions,
		Continuing: len(continuing),
		Boarded:    len(boarded),
		Alighted:   nAlighting,
	}, nil
}

func (p *Propagator) scaled(count int64) int {
	return int(math.Round(float64(count) * p.config.Scale))
}

// Choose draws k elements of xs uniformly without replacement using a partial Fisher-Yates
// shuffle of a copy. xs is left untouched.
func Choose(rng *rand.Rand, xs []float64, k int) []float64 {
	k = min(max(k, 0), len(xs))
	pool := make([]float64, len(xs))
	copy(pool, xs)

	for i := 0; i < k; i++ {
		j := i + rng.IntN(len(pool)-i)
		pool[i], pool[j] = pool[j], pool[i]
	}

	return pool[:k:k]
}
