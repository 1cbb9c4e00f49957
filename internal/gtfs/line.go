package gtfs

import (
	"errors"
	"fmt"
	"sort"

	"github.com/jamespfennell/gtfs"
)

var (
	ErrRouteNotFound    = errors.New("route has no trips with stop times")
	ErrStationNotOnLine = errors.New("station not served by route")
)

// Station is a stop of a line, collapsed to its parent station when it has one.
type Station struct {
	ID   string
	Code string
	Name string
}

// matches reports whether key names this station by id, code or name.
func (s Station) matches(key string) bool {
	return key != "" && (key == s.ID || key == s.Code || key == s.Name)
}

func stationOf(stop *gtfs.Stop) Station {
	for stop.Parent != nil {
		stop = stop.Parent
	}
	return Station{ID: stop.Id, Code: stop.Code, Name: stop.Name}
}

// LineStations returns the stations visited by the longest trip of a route, in stop sequence
// order. Platforms are collapsed to their parent station and consecutive repeats are dropped.
func LineStations(staticData *gtfs.Static, routeID string) ([]Station, error) {
	var longest *gtfs.ScheduledTrip
	for i := range staticData.Trips {
		trip := &staticData.Trips[i]
		if trip.Route == nil || trip.Route.Id != routeID {
			continue
		}
		if longest == nil || len(trip.StopTimes) > len(longest.StopTimes) ||
			(len(trip.StopTimes) == len(longest.StopTimes) && trip.ID < longest.ID) {
			longest = trip
		}
	}
	if longest == nil || len(longest.StopTimes) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrRouteNotFound, routeID)
	}

	stopTimes := make([]gtfs.ScheduledStopTime, len(longest.StopTimes))
	copy(stopTimes, longest.StopTimes)
	sort.SliceStable(stopTimes, func(i, j int) bool {
		return stopTimes[i].StopSequence < stopTimes[j].StopSequence
	})

	stations := make([]Station, 0, len(stopTimes))
	for _, stopTime := range stopTimes {
		if stopTime.Stop == nil {
			continue
		}
		station := stationOf(stopTime.Stop)
		if n := len(stations); n > 0 && stations[n-1].ID == station.ID {
			continue
		}
		stations = append(stations, station)
	}

	return stations, nil
}

// Order returns the indices of keys in the order the line visits them. Every key must name
// a station of the line; line stations without a key are skipped.
func Order(line []Station, keys []string) ([]int, error) {
	position := make(map[int]int, len(keys))
	for k, key := range keys {
		found := false
		for i, station := range line {
			if station.matches(key) {
				position[k] = i
				found = true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("%w: %s", ErrStationNotOnLine, key)
		}
	}

	order := make([]int, len(keys))
	for k := range order {
		order[k] = k
	}
	sort.SliceStable(order, func(a, b int) bool {
		return position[order[a]] < position[order[b]]
	})
	return order, nil
}
