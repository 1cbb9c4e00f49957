package stairs

import (
	"fmt"
	"log/slog"
	"os"
	"slices"

	"github.com/bluele/gcache"

	"platformflow.org/internal/logging"
	"platformflow.org/internal/models"
)

// DefaultCacheSize bounds how many parsed drawings a Loader keeps.
const DefaultCacheSize = 256

// Loader resolves station stairs. Parsed drawings are cached by path, so a station drawn once and
// served by several lines is only read once.
type Loader struct {
	cache  gcache.Cache
	logger *slog.Logger
}

func NewLoader(size int, logger *slog.Logger) *Loader {
	if size <= 0 {
		size = DefaultCacheSize
	}
	l := &Loader{logger: logger}
	l.cache = gcache.New(size).
		LRU().
		LoaderFunc(func(key interface{}) (interface{}, error) {
			return l.readFile(key.(string))
		}).
		Build()
	return l
}

// Guides returns the normalized stair positions drawn in the SVG at path.
func (l *Loader) Guides(path string) ([]float64, error) {
	v, err := l.cache.Get(path)
	if err != nil {
		return nil, err
	}
	return slices.Clone(v.([]float64)), nil
}

// Station builds a station's stairs from an inline list, or from a guides drawing when the list is
// empty.
func (l *Loader) Station(name string, inline []float64, guidesPath string) (models.StationStairs, error) {
	if len(inline) > 0 {
		return models.NewStationStairs(name, inline), nil
	}
	if guidesPath == "" {
		return models.StationStairs{}, fmt.Errorf("%w: %s", ErrNoStairSource, name)
	}

	positions, err := l.Guides(guidesPath)
	if err != nil {
		return models.StationStairs{}, fmt.Errorf("station %s: %w", name, err)
	}
	return models.NewStationStairs(name, positions), nil
}

func (l *Loader) readFile(path string) ([]float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("error opening guides file: %w", err)
	}
	defer logging.SafeCloseWithLogging(f, l.logger, "read_guides")

	positions, err := ReadGuides(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	logging.LogOperation(l.logger, "guides_loaded",
		slog.String("path", path),
		slog.Int("stairs", len(positions)))

	return positions, nil
}
