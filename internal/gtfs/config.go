package gtfs

// Config selects the route of a static GTFS feed that defines a line.
type Config struct {
	Path    string
	RouteID string
}

func (config Config) enabled() bool {
	return config.Path != "" && config.RouteID != ""
}
