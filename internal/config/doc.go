// Package config loads a run description from YAML and validates it with struct tags.
//
// A run lists one or more lines. Each line names its flow table, optionally a GTFS route that
// fixes the station order, the population budgets and the stairs of every station.
// Relative file paths are resolved against the directory of the config file.
package config
