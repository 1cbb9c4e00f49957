package population

import (
	"bytes"
	"log/slog"
	"math"
	"math/rand/v2"
	"slices"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/integrate"
	"gonum.org/v1/gonum/stat"

	"platformflow.org/internal/compose"
	"platformflow.org/internal/flow"
	"platformflow.org/internal/logging"
	"platformflow.org/internal/mixture"
	"platformflow.org/internal/models"
)

func scenario(t *testing.T, rng *rand.Rand, scale int64) ([]*mixture.StationMixture, *flow.Table) {
	t.Helper()

	stations, err := mixture.NewStations([]models.StationStairs{
		models.NewStationStairs("A", []float64{30, 70}),
		models.NewStationStairs("B", []float64{50}),
		models.NewStationStairs("C", []float64{10}),
	}, rng)
	require.NoError(t, err)

	table, err := flow.FromOD([]string{"A", "B", "C"}, []flow.ODRow{
		{From: "A", To: "B", Count: 10 * scale},
		{From: "A", To: "C", Count: 10 * scale},
		{From: "B", To: "C", Count: 10 * scale},
	})
	require.NoError(t, err)

	return stations, table
}

func TestPropagateScenario(t *testing.T) {
	rng := rand.New(rand.NewPCG(42, 42))
	stations, table := scenario(t, rng, 1)

	p := NewPropagator(Config{InitialBudget: 50}, rng, nil)
	populations, err := p.Propagate(stations, table)
	require.NoError(t, err)
	require.Len(t, populations, 3)

	assert.Equal(t, 50, populations[0].Len())
	assert.Equal(t, 50, populations[0].Boarded)

	assert.Equal(t, 10, populations[1].Alighted)
	assert.Equal(t, 40, populations[1].Continuing)
	assert.Equal(t, 10, populations[1].Boarded)
	assert.Equal(t, 50, populations[1].Len())

	assert.Equal(t, 20, populations[2].Alighted)
	assert.Equal(t, 0, populations[2].Boarded)
	assert.Equal(t, populations[1].Len()-20+0, populations[2].Len())

	for i, pop := range populations {
		assert.Equal(t, pop.Continuing+pop.Boarded, pop.Len(), "station %d", i)
		assert.Equal(t, stations[i].Name, pop.Station)
		for _, x := range pop.Positions {
			assert.True(t, x >= 0 && x <= 100, "station %d position %v", i, x)
		}
	}
}

func TestPropagateBudgets(t *testing.T) {
	t.Run("fixed station budget", func(t *testing.T) {
		rng := rand.New(rand.NewPCG(1, 1))
		stations, table := scenario(t, rng, 1)

		populations, err := NewPropagator(Config{InitialBudget: 50, StationBudget: 40}, rng, nil).
			Propagate(stations, table)
		require.NoError(t, err)

		assert.Equal(t, 80, populations[1].Len())
		assert.Equal(t, 100, populations[2].Len())
	})

	t.Run("scaled flow counts", func(t *testing.T) {
		rng := rand.New(rand.NewPCG(2, 2))
		stations, table := scenario(t, rng, 1)

		populations, err := NewPropagator(Config{InitialBudget: 60, Scale: 2.5}, rng, nil).
			Propagate(stations, table)
		require.NoError(t, err)

		assert.Equal(t, 25, populations[1].Alighted)
		assert.Equal(t, 25, populations[1].Boarded)
		assert.Equal(t, 60, populations[1].Len())
		assert.Equal(t, 10, populations[2].Len())
	})

	t.Run("initial budget follows flow boarding", func(t *testing.T) {
		rng := rand.New(rand.NewPCG(10, 10))
		stations, table := scenario(t, rng, 1)

		populations, err := NewPropagator(Config{}, rng, nil).Propagate(stations, table)
		require.NoError(t, err)
		assert.Equal(t, []int{20, 20, 0},
			[]int{populations[0].Len(), populations[1].Len(), populations[2].Len()})

		// The boarded share after B matches the analytic proportion.
		assert.InDelta(t, table.Proportion(1),
			float64(populations[1].Boarded)/float64(populations[1].Len()), 1e-12)

		populations, err = NewPropagator(Config{Scale: 2}, rng, nil).Propagate(stations, table)
		require.NoError(t, err)
		assert.Equal(t, 40, populations[0].Len())
		assert.Equal(t, 40, populations[1].Len())
	})

	t.Run("fixed station budget keeps the default initial budget", func(t *testing.T) {
		rng := rand.New(rand.NewPCG(11, 11))
		stations, table := scenario(t, rng, 1)

		populations, err := NewPropagator(Config{StationBudget: 40}, rng, nil).Propagate(stations, table)
		require.NoError(t, err)
		assert.Equal(t, DefaultBudget, populations[0].Len())
	})

	t.Run("default initial budget", func(t *testing.T) {
		rng := rand.New(rand.NewPCG(3, 3))
		stations, _ := scenario(t, rng, 1)

		first := NewPropagator(Config{}, rng, nil).First(stations[0])
		assert.Equal(t, DefaultBudget, first.Len())
	})
}

func TestOverAlighting(t *testing.T) {
	rng := rand.New(rand.NewPCG(9, 9))
	stations, table := scenario(t, rng, 1)

	t.Run("single step", func(t *testing.T) {
		p := NewPropagator(Config{}, rng, nil)
		prev := models.StationPopulation{Station: "A", Positions: []float64{1, 2, 3, 4, 5}}

		_, err := p.Next(prev, stations[1], 6, 0)
		require.ErrorIs(t, err, ErrOverAlighting)
		assert.Contains(t, err.Error(), "5 on board, 6 alighting")

		next, err := p.Next(prev, stations[1], 5, 2)
		require.NoError(t, err)
		assert.Equal(t, 0, next.Continuing)
		assert.Equal(t, 2, next.Len())
	})

	t.Run("whole line is reported and logged", func(t *testing.T) {
		var buf bytes.Buffer
		logger := logging.NewStructuredLogger(&buf, slog.LevelInfo)

		_, err := NewPropagator(Config{InitialBudget: 5}, rng, logger).Propagate(stations, table)
		require.ErrorIs(t, err, ErrOverAlighting)
		assert.Contains(t, buf.String(), `"msg":"population propagation failed"`)
		assert.Contains(t, buf.String(), `"station":"B"`)
	})
}

func TestNextLeavesPreviousPopulationIntact(t *testing.T) {
	rng := rand.New(rand.NewPCG(4, 4))
	stations, _ := scenario(t, rng, 1)
	p := NewPropagator(Config{}, rng, nil)

	prev := p.First(stations[0])
	snapshot := slices.Clone(prev.Positions)

	next, err := p.Next(prev, stations[1], 100, 30)
	require.NoError(t, err)

	assert.Equal(t, snapshot, prev.Positions)
	assert.Equal(t, 130, next.Len())
}

func TestPropagateLengthMismatch(t *testing.T) {
	rng := rand.New(rand.NewPCG(5, 5))
	stations, table := scenario(t, rng, 1)

	_, err := NewPropagator(Config{}, rng, nil).Propagate(stations[:2], table)
	assert.ErrorIs(t, err, flow.ErrLengthMismatch)
}

func TestChoose(t *testing.T) {
	rng := rand.New(rand.NewPCG(6, 6))
	xs := []float64{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}
	original := slices.Clone(xs)

	t.Run("draws a subset without replacement", func(t *testing.T) {
		chosen := Choose(rng, xs, 4)
		require.Len(t, chosen, 4)

		seen := map[float64]bool{}
		for _, x := range chosen {
			assert.Contains(t, xs, x)
			assert.False(t, seen[x], "duplicate %v", x)
			seen[x] = true
		}
		assert.Equal(t, original, xs)
	})

	t.Run("clamps k", func(t *testing.T) {
		assert.Empty(t, Choose(rng, xs, 0))
		assert.Empty(t, Choose(rng, xs, -2))
		assert.ElementsMatch(t, xs, Choose(rng, xs, 25))
		assert.Empty(t, Choose(rng, nil, 3))
	})

	t.Run("every element is equally likely", func(t *testing.T) {
		const trials = 30000
		counts := make(map[float64]int)
		for range trials {
			for _, x := range Choose(rng, xs, 3) {
				counts[x]++
			}
		}
		for _, x := range xs {
			assert.InDelta(t, trials*3/10, counts[x], 450, "element %v", x)
		}
	})
}

// The simulated population after a station should follow the analytic net density.
func TestPopulationMatchesAnalyticDensity(t *testing.T) {
	rng := rand.New(rand.NewPCG(2024, 10))
	stations, table := scenario(t, rng, 300)

	populations, err := NewPropagator(Config{}, rng, nil).Propagate(stations, table)
	require.NoError(t, err)
	require.Equal(t, 6000, populations[1].Len())

	c, err := compose.New(stations, table)
	require.NoError(t, err)

	xs := compose.Grid(0.1)
	densities := c.Curve(1, xs).Densities()

	moment := make([]float64, len(xs))
	for k, x := range xs {
		moment[k] = x * densities[k]
	}
	analyticMean := integrate.Trapezoidal(xs, moment)
	assert.InDelta(t, analyticMean, stat.Mean(populations[1].Positions, nil), 1.5)

	sorted := slices.Clone(populations[1].Positions)
	sort.Float64s(sorted)

	var cdf, maxGap float64
	for k := 1; k < len(xs); k++ {
		cdf += (densities[k-1] + densities[k]) / 2 * (xs[k] - xs[k-1])
		if k%10 != 0 {
			continue
		}
		empirical := float64(sort.SearchFloat64s(sorted, xs[k])) / float64(len(sorted))
		maxGap = math.Max(maxGap, math.Abs(empirical-cdf))
	}
	assert.Less(t, maxGap, 0.04)
}
