package mixture

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/integrate"
	"gonum.org/v1/gonum/stat"

	"platformflow.org/internal/models"
)

func integrateDensity(f func(float64) float64) float64 {
	xs := floats.Span(make([]float64, 1001), models.PlatformStart, models.PlatformEnd)
	ys := make([]float64, len(xs))
	for i, x := range xs {
		ys[i] = f(x)
	}
	return integrate.Trapezoidal(xs, ys)
}

func TestModeBeta(t *testing.T) {
	t.Run("derives shape parameters from mode and concentration", func(t *testing.T) {
		b, err := ModeBeta(0.5, 7, nil)
		require.NoError(t, err)
		assert.InDelta(t, 3.5, b.Alpha, 1e-12)
		assert.InDelta(t, 3.5, b.Beta, 1e-12)

		b, err = ModeBeta(0.3, 20, nil)
		require.NoError(t, err)
		assert.InDelta(t, 6.4, b.Alpha, 1e-12)
		assert.InDelta(t, 13.6, b.Beta, 1e-12)
	})

	t.Run("peaks at the mode", func(t *testing.T) {
		b, err := ModeBeta(0.3, 20, nil)
		require.NoError(t, err)
		assert.Greater(t, b.Prob(0.3), b.Prob(0.25))
		assert.Greater(t, b.Prob(0.3), b.Prob(0.35))
	})

	tests := []struct {
		name          string
		mode          float64
		concentration float64
		expected      error
	}{
		{"zero mode", 0, 7, ErrInvalidMode},
		{"unit mode", 1, 7, ErrInvalidMode},
		{"negative mode", -0.2, 7, ErrInvalidMode},
		{"NaN mode", math.NaN(), 7, ErrInvalidMode},
		{"low concentration", 0.5, 1.9, ErrInvalidConcentration},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ModeBeta(tt.mode, tt.concentration, nil)
			assert.ErrorIs(t, err, tt.expected)
		})
	}
}

func TestClampStair(t *testing.T) {
	assert.Equal(t, Epsilon, ClampStair(0))
	assert.Equal(t, Epsilon, ClampStair(-4))
	assert.Equal(t, 100-Epsilon, ClampStair(100))
	assert.Equal(t, 100-Epsilon, ClampStair(130))
	assert.Equal(t, 42.0, ClampStair(42))
}

func TestStairAtPlatformEnds(t *testing.T) {
	for _, position := range []float64{0, 100} {
		stair, err := NewStair(position, nil)
		require.NoError(t, err, "position %v", position)

		for _, x := range []float64{0, 0.5, 50, 99.5, 100} {
			d := stair.Density(x)
			assert.False(t, math.IsNaN(d) || math.IsInf(d, 0), "density at %v for stair %v", x, position)
		}
		assert.InDelta(t, 1.0, integrateDensity(stair.Density), 1e-2)
	}
}

func TestStairDensity(t *testing.T) {
	stair, err := NewStair(30, nil)
	require.NoError(t, err)

	t.Run("integrates to one over the platform", func(t *testing.T) {
		assert.InDelta(t, 1.0, integrateDensity(stair.Density), 1e-3)
	})

	t.Run("components integrate to their weights", func(t *testing.T) {
		component := func(pick int) func(float64) float64 {
			return func(x float64) float64 {
				far, near, uniform := stair.Components(x)
				return []float64{far, near, uniform}[pick]
			}
		}
		assert.InDelta(t, FarWeight, integrateDensity(component(0)), 1e-3)
		assert.InDelta(t, CloseWeight, integrateDensity(component(1)), 1e-3)
		assert.InDelta(t, UniformWeight, integrateDensity(component(2)), 1e-3)
	})

	t.Run("is highest at the stair", func(t *testing.T) {
		assert.Greater(t, stair.Density(30), stair.Density(20))
		assert.Greater(t, stair.Density(30), stair.Density(40))
	})

	t.Run("is zero off the platform", func(t *testing.T) {
		assert.Zero(t, stair.Density(-1))
		assert.Zero(t, stair.Density(101))
	})
}

func TestSampleCounts(t *testing.T) {
	far, near, uniform := SampleCounts(50)
	assert.Equal(t, []int{30, 15, 5}, []int{far, near, uniform})

	far, near, uniform = SampleCounts(200)
	assert.Equal(t, []int{120, 60, 20}, []int{far, near, uniform})

	for n := 0; n <= 100; n++ {
		far, near, uniform := SampleCounts(n)
		assert.Equal(t, n, far+near+uniform, "n=%d", n)
		assert.GreaterOrEqual(t, uniform, 0, "n=%d", n)
	}

	far, near, uniform = SampleCounts(-3)
	assert.Equal(t, []int{0, 0, 0}, []int{far, near, uniform})
}

func TestStairSample(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 11))

	t.Run("stays on the platform", func(t *testing.T) {
		stair, err := NewStair(0, rng)
		require.NoError(t, err)

		xs := stair.Sample(5000)
		require.Len(t, xs, 5000)
		for _, x := range xs {
			assert.True(t, x >= 0 && x <= 100, "sample %v off platform", x)
		}
	})

	t.Run("centres on a symmetric stair", func(t *testing.T) {
		stair, err := NewStair(50, rng)
		require.NoError(t, err)

		xs := stair.Sample(20000)
		assert.InDelta(t, 50, stat.Mean(xs, nil), 1.0)
	})
}

func TestStationMixture(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))

	t.Run("averages stair densities", func(t *testing.T) {
		station, err := NewStation(models.NewStationStairs("Tokyo", []float64{30, 70}), rng)
		require.NoError(t, err)

		a, err := NewStair(30, nil)
		require.NoError(t, err)
		b, err := NewStair(70, nil)
		require.NoError(t, err)

		for _, x := range []float64{0, 15, 30, 50, 70, 100} {
			assert.InDelta(t, (a.Density(x)+b.Density(x))/2, station.Density(x), 1e-12)
		}
		assert.InDelta(t, 1.0, integrateDensity(station.Density), 1e-3)
	})

	t.Run("splits the sample budget across stairs", func(t *testing.T) {
		station, err := NewStation(models.NewStationStairs("Kanda", []float64{10, 50, 90}), rng)
		require.NoError(t, err)

		assert.Len(t, station.Sample(200), 200)
		assert.Len(t, station.Sample(1), 1)
		assert.Empty(t, station.Sample(0))
	})

	t.Run("rejects a station without stairs", func(t *testing.T) {
		_, err := NewStation(models.NewStationStairs("Nowhere", nil), rng)
		assert.ErrorIs(t, err, ErrNoStairs)
	})

	t.Run("rejects a NaN stair", func(t *testing.T) {
		_, err := NewStation(models.NewStationStairs("Broken", []float64{math.NaN()}), rng)
		assert.ErrorIs(t, err, ErrInvalidMode)
	})
}

// A two-stair station sampling 50 passengers splits them 25/25 across stairs, and each stair
// splits its 25 as 15 far, 8 near and 2 uniform: 30/16/4 for the station rather than 30/15/5.
func TestStationSampleSplit(t *testing.T) {
	assert.Equal(t, []int{25, 25}, StairBatchSizes(50, 2))

	far, near, uniform := SampleCounts(25)
	assert.Equal(t, []int{15, 8, 2}, []int{far, near, uniform})

	station, err := NewStation(models.NewStationStairs("A", []float64{30, 70}), rand.New(rand.NewPCG(5, 5)))
	require.NoError(t, err)
	assert.Len(t, station.Sample(50), 30+16+4)
}

func TestStairBatchSizes(t *testing.T) {
	assert.Equal(t, []int{17, 17, 16}, StairBatchSizes(50, 3))
	assert.Equal(t, []int{25, 25}, StairBatchSizes(50, 2))
	assert.Equal(t, []int{1, 0, 0}, StairBatchSizes(1, 3))
	assert.Equal(t, []int{0, 0}, StairBatchSizes(0, 2))
	assert.Nil(t, StairBatchSizes(5, 0))
}
