package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sort"
	"time"

	"platformflow.org/internal/compose"
	"platformflow.org/internal/config"
	"platformflow.org/internal/flow"
	"platformflow.org/internal/flowdata"
	"platformflow.org/internal/gtfs"
	"platformflow.org/internal/kde"
	"platformflow.org/internal/logging"
	"platformflow.org/internal/mixture"
	"platformflow.org/internal/models"
	"platformflow.org/internal/population"
	"platformflow.org/internal/stairs"
)

// Run evaluates every configured line. All lines draw from one random source seeded by the
// config, so a run is reproducible. Application.Logger, when set, replaces the context logger.
func (app *Application) Run(ctx context.Context) ([]LineReport, error) {
	if app.Logger != nil {
		ctx = logging.WithLogger(ctx, app.Logger)
	}
	logger := logging.FromContext(ctx)

	cfg := app.Config
	rng := rand.New(rand.NewPCG(cfg.Seed, cfg.Seed))
	loader := stairs.NewLoader(stairs.DefaultCacheSize, logger)

	reports := make([]LineReport, 0, len(cfg.Lines))
	for _, line := range cfg.Lines {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		report, err := app.runLine(ctx, line, loader, rng)
		if err != nil {
			logging.LogError(logger, "line failed", err, slog.String("line", line.Name))
			return nil, fmt.Errorf("line %s: %w", line.Name, err)
		}
		reports = append(reports, report)
	}

	return reports, nil
}

func (app *Application) runLine(ctx context.Context, line config.LineConfig, loader *stairs.Loader, rng *rand.Rand) (LineReport, error) {
	logger := logging.FromContext(ctx).With(slog.String("line", line.Name))

	stations, err := orderStations(line, logger)
	if err != nil {
		return LineReport{}, err
	}

	start := time.Now()
	stationStairs := make([]models.StationStairs, len(stations))
	for i, station := range stations {
		stationStairs[i], err = loader.Station(station.Name, station.Stairs, station.Guides)
		if err != nil {
			return LineReport{}, err
		}
	}
	mixtures, err := mixture.NewStations(stationStairs, rng)
	if err != nil {
		return LineReport{}, err
	}
	logging.LogOperation(logger, "stairs_loaded",
		slog.Int("stations", len(mixtures)),
		slog.Duration("duration", time.Since(start)))

	start = time.Now()
	table, err := loadFlow(line.Flow, stations, logger)
	if err != nil {
		return LineReport{}, err
	}
	if err := table.CheckLen(len(mixtures)); err != nil {
		return LineReport{}, err
	}
	logging.LogOperation(logger, "flow_loaded",
		slog.Int("stations", table.Len()),
		slog.Duration("duration", time.Since(start)))

	start = time.Now()
	composer, err := compose.New(mixtures, table)
	if err != nil {
		return LineReport{}, err
	}
	curves := composer.Curves(compose.Grid(app.Config.Resolution))
	logging.LogOperation(logger, "densities_composed",
		slog.Int("points", len(curves[0])),
		slog.Duration("duration", time.Since(start)))

	start = time.Now()
	propagator := population.NewPropagator(population.Config{
		InitialBudget: line.Population.InitialBudget,
		StationBudget: line.Population.StationBudget,
		Scale:         line.Flow.Scale,
	}, rng, logger)
	populations, err := propagator.Propagate(mixtures, table)
	if err != nil {
		return LineReport{}, err
	}
	logging.LogOperation(logger, "population_propagated",
		slog.Int("final_size", populations[len(populations)-1].Len()),
		slog.Duration("duration", time.Since(start)))

	start = time.Now()
	report := LineReport{Line: line.Name, Stations: make([]StationReport, len(mixtures))}
	for i := range mixtures {
		empirical, err := kde.Estimate(populations[i].Positions, app.Config.KDEMultiplier)
		if errors.Is(err, kde.ErrEmptyPopulation) {
			logger.Warn("no passengers on board, skipping empirical density",
				slog.String("station", mixtures[i].Name))
		} else if err != nil {
			return LineReport{}, err
		}

		report.Stations[i] = StationReport{
			Name:       mixtures[i].Name,
			Stairs:     stationStairs[i].StairPositions,
			Proportion: table.Proportion(i),
			Boarding:   table.Boarding(i),
			Alighting:  table.Alighting(i),
			Onboard:    table.Onboard(i),
			Weights:    composer.Weights(i),
			Analytic:   curves[i],
			Empirical:  empirical,
			Population: summarize(populations[i]),
		}
	}
	logging.LogOperation(logger, "densities_estimated",
		slog.Int("stations", len(report.Stations)),
		slog.Duration("duration", time.Since(start)))

	return report, nil
}

// orderStations returns the configured stations in travel order. Without a GTFS route the
// config order is kept.
func orderStations(line config.LineConfig, logger *slog.Logger) ([]config.StationConfig, error) {
	gtfsLine, err := gtfs.Line(gtfs.Config{Path: line.GTFS.Path, RouteID: line.GTFS.RouteID}, logger)
	if err != nil {
		return nil, err
	}
	if gtfsLine == nil {
		return line.Stations, nil
	}
	return reorder(gtfsLine, line.Stations)
}

func reorder(gtfsLine []gtfs.Station, stations []config.StationConfig) ([]config.StationConfig, error) {
	order, err := gtfs.Order(gtfsLine, stationKeys(stations))
	if err != nil {
		return nil, err
	}

	ordered := make([]config.StationConfig, len(order))
	for i, k := range order {
		ordered[i] = stations[k]
	}
	return ordered, nil
}

func stationKeys(stations []config.StationConfig) []string {
	keys := make([]string, len(stations))
	for i, station := range stations {
		keys[i] = station.Key()
	}
	return keys
}

// loadFlow reads the line's flow table and aligns it with the station order. The table is
// keyed by station names in the order of stations.
func loadFlow(cfg config.FlowConfig, stations []config.StationConfig, logger *slog.Logger) (*flow.Table, error) {
	if cfg.ODCSV != "" {
		rows, err := flowdata.ReadODFile(cfg.ODCSV, logger)
		if err != nil {
			return nil, err
		}
		return flow.FromOD(stationKeys(stations), canonicalRows(stations, rows, logger))
	}

	loads, err := flowdata.ReadLinkLoadFile(cfg.LinkLoadCSV, logger)
	if err != nil {
		return nil, err
	}
	return flow.FromLinkLoad(alignLoads(stations, loads))
}

// canonicalRows rewrites the station names of OD rows to station keys, so a table may name
// stations by code or by name. Rows naming a station off the line are logged and left for
// flow.FromOD to ignore.
func canonicalRows(stations []config.StationConfig, rows []flow.ODRow, logger *slog.Logger) []flow.ODRow {
	keys := make(map[string]string, 2*len(stations))
	for _, station := range stations {
		keys[station.Name] = station.Key()
	}
	for _, station := range stations {
		keys[station.Key()] = station.Key()
	}

	canonical := make([]flow.ODRow, len(rows))
	unknown := make(map[string]bool)
	ignored := 0
	for i, row := range rows {
		from, okFrom := keys[row.From]
		to, okTo := keys[row.To]
		if !okFrom {
			unknown[row.From] = true
			from = row.From
		}
		if !okTo {
			unknown[row.To] = true
			to = row.To
		}
		if !okFrom || !okTo {
			ignored++
		}
		canonical[i] = flow.ODRow{From: from, To: to, Count: row.Count}
	}

	if ignored > 0 && logger != nil {
		names := make([]string, 0, len(unknown))
		for name := range unknown {
			names = append(names, name)
		}
		sort.Strings(names)
		logger.Warn("ignoring OD rows for stations off the line",
			slog.Int("rows", ignored),
			slog.Any("stations", names))
	}

	return canonical
}

// alignLoads orders link loads by station. Stations missing from the table load nobody; rows
// for stations off the line are dropped.
func alignLoads(stations []config.StationConfig, loads []flow.LinkLoad) []flow.LinkLoad {
	aligned := make([]flow.LinkLoad, len(stations))
	for i, station := range stations {
		aligned[i] = flow.LinkLoad{Station: station.Key()}
		for _, load := range loads {
			if load.Station == station.Key() || load.Station == station.Name {
				aligned[i].Boarding = load.Boarding
				aligned[i].Alighting = load.Alighting
				break
			}
		}
	}
	return aligned
}
