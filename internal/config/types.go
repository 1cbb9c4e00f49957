package config

// FlowConfig names exactly one flow table for a line.
type FlowConfig struct {
	ODCSV       string  `yaml:"od_csv" validate:"required_without=LinkLoadCSV,excluded_with=LinkLoadCSV"`
	LinkLoadCSV string  `yaml:"link_load_csv" validate:"required_without=ODCSV"`
	Scale       float64 `yaml:"scale" validate:"gte=0"`
}

// GTFSConfig selects a route of a static GTFS feed.
type GTFSConfig struct {
	Path    string `yaml:"path" validate:"required_with=RouteID"`
	RouteID string `yaml:"route_id" validate:"required_with=Path"`
}

// PopulationConfig sizes the simulated boarding batches. A zero initial budget lets the first
// station follow the flow's boarding count, or 200 when a station budget is set.
type PopulationConfig struct {
	InitialBudget int `yaml:"initial_budget" validate:"gte=0"`
	StationBudget int `yaml:"station_budget" validate:"gte=0"`
}

// StationConfig gives a station's stairs inline or through an SVG guide file.
type StationConfig struct {
	Name   string    `yaml:"name" validate:"required"`
	Code   string    `yaml:"code"`
	Stairs []float64 `yaml:"stairs" validate:"required_without=Guides,excluded_with=Guides,dive,gte=0,lte=100"`
	Guides string    `yaml:"guides" validate:"required_without=Stairs"`
}

// Key is the identifier used to match the station against flow tables and GTFS feeds.
func (s StationConfig) Key() string {
	if s.Code != "" {
		return s.Code
	}
	return s.Name
}

// LineConfig describes one line.
type LineConfig struct {
	Name       string           `yaml:"name" validate:"required"`
	Flow       FlowConfig       `yaml:"flow"`
	GTFS       GTFSConfig       `yaml:"gtfs"`
	Population PopulationConfig `yaml:"population"`
	Stations   []StationConfig  `yaml:"stations" validate:"required,min=1,dive"`
}

// Config is the root of a run description.
type Config struct {
	Seed          uint64       `yaml:"seed"`
	KDEMultiplier float64      `yaml:"kde_multiplier" validate:"gte=0"`
	Resolution    float64      `yaml:"resolution" validate:"gte=0,lte=100"`
	Lines         []LineConfig `yaml:"lines" validate:"required,min=1,dive"`
}
