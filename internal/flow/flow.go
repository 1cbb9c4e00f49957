// Package flow turns passenger counts into per-station boarding proportions and absolute
// boarding/alighting counts. Both data sources produce the same Table, which is the single
// source of truth for the density composer and the population propagator.
package flow

import (
	"errors"
	"fmt"
)

var (
	ErrLengthMismatch   = errors.New("flow table does not match station count")
	ErrDuplicatePair    = errors.New("duplicate origin-destination pair")
	ErrDuplicateStation = errors.New("station listed twice on the line")
	ErrNegativeCount    = errors.New("negative passenger count")
	ErrInconsistentLoad = errors.New("more passengers alighting than on board")
)

// Table holds the flow of a line, one entry per station in line order.
type Table struct {
	stations    []string
	boarding    []int64
	alighting   []int64
	onboard     []int64
	proportions []float64
}

func newTable(stations []string) *Table {
	n := len(stations)
	names := make([]string, n)
	copy(names, stations)
	return &Table{
		stations:    names,
		boarding:    make([]int64, n),
		alighting:   make([]int64, n),
		onboard:     make([]int64, n),
		proportions: make([]float64, n),
	}
}

// Len returns the number of stations in the table.
func (t *Table) Len() int {
	return len(t.stations)
}

// Stations returns the station names in line order.
func (t *Table) Stations() []string {
	names := make([]string, len(t.stations))
	copy(names, t.stations)
	return names
}

// Proportion returns the fraction of passengers on board after station i who boarded at i.
func (t *Table) Proportion(i int) float64 {
	return t.proportions[i]
}

// Proportions returns every station's boarding proportion.
func (t *Table) Proportions() []float64 {
	ps := make([]float64, len(t.proportions))
	copy(ps, t.proportions)
	return ps
}

// Boarding returns the number of passengers boarding at station i.
func (t *Table) Boarding(i int) int64 {
	return t.boarding[i]
}

// Alighting returns the number of passengers leaving the train at station i.
func (t *Table) Alighting(i int) int64 {
	return t.alighting[i]
}

// NetChange returns boarding minus alighting at station i.
func (t *Table) NetChange(i int) int64 {
	return t.boarding[i] - t.alighting[i]
}

// Onboard returns the cumulative number of passengers on the train after station i.
func (t *Table) Onboard(i int) int64 {
	return t.onboard[i]
}

// CheckLen reports ErrLengthMismatch unless the table covers exactly n stations.
func (t *Table) CheckLen(n int) error {
	if t.Len() != n {
		return fmt.Errorf("%w: %d flow entries for %d stations", ErrLengthMismatch, t.Len(), n)
	}
	return nil
}

// finish derives occupancy and proportions once boarding and alighting are filled in.
func (t *Table) finish() error {
	var before int64
	for i := range t.stations {
		continuing := before - t.alighting[i]
		if continuing < 0 {
			return fmt.Errorf("%w: station %d (%s): %d on board, %d alighting",
				ErrInconsistentLoad, i, t.stations[i], before, t.alighting[i])
		}
		after := continuing + t.boarding[i]
		t.onboard[i] = after

		switch {
		case i == 0:
			t.proportions[i] = 1
		case after == 0:
			t.proportions[i] = 0
		default:
			t.proportions[i] = float64(t.boarding[i]) / float64(after)
		}
		before = after
	}
	return nil
}
