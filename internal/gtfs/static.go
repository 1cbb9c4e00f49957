package gtfs

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/jamespfennell/gtfs"

	"platformflow.org/internal/logging"
)

func rawGtfsData(path string) ([]byte, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading local GTFS file: %w", err)
	}
	return b, nil
}

// LoadStatic reads and parses a static GTFS zip archive from disk.
func LoadStatic(path string, logger *slog.Logger) (*gtfs.Static, error) {
	start := time.Now()

	b, err := rawGtfsData(path)
	if err != nil {
		return nil, err
	}

	staticData, err := gtfs.ParseStatic(b, gtfs.ParseStaticOptions{})
	if err != nil {
		return nil, fmt.Errorf("error parsing GTFS data: %w", err)
	}

	logging.LogOperation(logger, "gtfs_static_loaded",
		slog.String("path", path),
		slog.Int("routes", len(staticData.Routes)),
		slog.Int("trips", len(staticData.Trips)),
		slog.Duration("duration", time.Since(start)))

	return staticData, nil
}

// Line loads the feed named by config and returns the stations of its route in travel order.
// A disabled config yields no stations.
func Line(config Config, logger *slog.Logger) ([]Station, error) {
	if !config.enabled() {
		return nil, nil
	}

	staticData, err := LoadStatic(config.Path, logger)
	if err != nil {
		return nil, err
	}
	return LineStations(staticData, config.RouteID)
}
