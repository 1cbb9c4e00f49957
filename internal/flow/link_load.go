package flow

import "fmt"

// LinkLoad is the number of passengers boarding and alighting at one station.
type LinkLoad struct {
	Station   string
	Boarding  int64
	Alighting int64
}

// FromLinkLoad builds a flow table from per-station boarding and alighting totals, in line order.
// The train starts empty, so proportions follow the running sum of boarding minus alighting.
// A station after which nobody remains on board gets proportion 0.
func FromLinkLoad(loads []LinkLoad) (*Table, error) {
	stations := make([]string, len(loads))
	seen := make(map[string]bool, len(loads))
	for i, load := range loads {
		if seen[load.Station] {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateStation, load.Station)
		}
		seen[load.Station] = true
		stations[i] = load.Station
	}

	table := newTable(stations)
	for i, load := range loads {
		if load.Boarding < 0 || load.Alighting < 0 {
			return nil, fmt.Errorf("%w: station %s: boarding %d, alighting %d",
				ErrNegativeCount, load.Station, load.Boarding, load.Alighting)
		}
		table.boarding[i] = load.Boarding
		table.alighting[i] = load.Alighting
	}

	if err := table.finish(); err != nil {
		return nil, err
	}
	return table, nil
}
