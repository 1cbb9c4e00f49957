// Package flowdata reads passenger flow tables from CSV files.
package flowdata

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"platformflow.org/internal/flow"
	"platformflow.org/internal/logging"
)

var (
	ErrMalformedNumber = errors.New("malformed number")
	ErrMissingColumn   = errors.New("missing column")
)

// Column names of the supported tables.
const (
	ColumnFrom      = "from_station_code"
	ColumnTo        = "to_station_code"
	ColumnCount     = "count"
	ColumnStation   = "station"
	ColumnBoarding  = "boarding"
	ColumnAlighting = "alighting"
)

// table is a CSV reader that resolves columns by header name.
type table struct {
	reader  *csv.Reader
	columns map[string]int
}

func newTable(r io.Reader, required ...string) (*table, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}

	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, name := range required {
		if _, ok := columns[name]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingColumn, name)
		}
	}

	return &table{reader: reader, columns: columns}, nil
}

// each calls fn for every data record until the input ends.
func (t *table) each(fn func(record []string) error) error {
	for {
		record, err := t.reader.Read()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		if err := fn(record); err != nil {
			return err
		}
	}
}

func (t *table) text(record []string, column string) string {
	return strings.TrimSpace(record[t.columns[column]])
}

func (t *table) count(record []string, column string) (int64, error) {
	field := t.columns[column]
	value := strings.TrimSpace(record[field])
	n, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		line, _ := t.reader.FieldPos(field)
		return 0, fmt.Errorf("%w: line %d, column %s: %q", ErrMalformedNumber, line, column, value)
	}
	return n, nil
}

// ReadOD reads origin-destination rows with from_station_code, to_station_code and count columns.
// Other columns are ignored.
func ReadOD(r io.Reader) ([]flow.ODRow, error) {
	t, err := newTable(r, ColumnFrom, ColumnTo, ColumnCount)
	if err != nil {
		return nil, err
	}

	var rows []flow.ODRow
	err = t.each(func(record []string) error {
		count, err := t.count(record, ColumnCount)
		if err != nil {
			return err
		}
		rows = append(rows, flow.ODRow{
			From:  t.text(record, ColumnFrom),
			To:    t.text(record, ColumnTo),
			Count: count,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// ReadLinkLoads reads per-station boarding and alighting totals, in line order.
func ReadLinkLoads(r io.Reader) ([]flow.LinkLoad, error) {
	t, err := newTable(r, ColumnStation, ColumnBoarding, ColumnAlighting)
	if err != nil {
		return nil, err
	}

	var loads []flow.LinkLoad
	err = t.each(func(record []string) error {
		boarding, err := t.count(record, ColumnBoarding)
		if err != nil {
			return err
		}
		alighting, err := t.count(record, ColumnAlighting)
		if err != nil {
			return err
		}
		loads = append(loads, flow.LinkLoad{
			Station:   t.text(record, ColumnStation),
			Boarding:  boarding,
			Alighting: alighting,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return loads, nil
}

// ReadODFile reads an origin-destination CSV file.
func ReadODFile(path string, logger *slog.Logger) ([]flow.ODRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("error opening OD table: %w", err)
	}
	defer logging.SafeCloseWithLogging(f, logger, "read_od_table")

	rows, err := ReadOD(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return rows, nil
}

// ReadLinkLoadFile reads a link-load CSV file.
func ReadLinkLoadFile(path string, logger *slog.Logger) ([]flow.LinkLoad, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("error opening link-load table: %w", err)
	}
	defer logging.SafeCloseWithLogging(f, logger, "read_link_load_table")

	loads, err := ReadLinkLoads(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return loads, nil
}
