package flow

import "fmt"

// ODRow is the number of passengers travelling from one station to another.
type ODRow struct {
	From  string
	To    string
	Count int64
}

// FromOD builds a flow table from origin-destination counts.
// Pairs that are absent count as zero. Rows naming a station off the line, or travelling against
// the line order, are ignored.
func FromOD(stations []string, rows []ODRow) (*Table, error) {
	index := make(map[string]int, len(stations))
	for i, name := range stations {
		if _, ok := index[name]; ok {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateStation, name)
		}
		index[name] = i
	}

	table := newTable(stations)
	seen := make(map[[2]int]bool, len(rows))

	for _, row := range rows {
		from, okFrom := index[row.From]
		to, okTo := index[row.To]
		if !okFrom || !okTo || from >= to {
			continue
		}

		pair := [2]int{from, to}
		if seen[pair] {
			return nil, fmt.Errorf("%w: %s -> %s", ErrDuplicatePair, row.From, row.To)
		}
		seen[pair] = true

		if row.Count < 0 {
			return nil, fmt.Errorf("%w: %s -> %s: %d", ErrNegativeCount, row.From, row.To, row.Count)
		}

		table.boarding[from] += row.Count
		table.alighting[to] += row.Count
	}

	if err := table.finish(); err != nil {
		return nil, err
	}
	return table, nil
}
