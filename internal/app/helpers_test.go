package app

import (
	"os"

	"platformflow.org/internal/flow"
)

type flowLoad struct {
	station   string
	boarding  int64
	alighting int64
}

func toLinkLoads(loads []flowLoad) []flow.LinkLoad {
	out := make([]flow.LinkLoad, len(loads))
	for i, l := range loads {
		out[i] = flow.LinkLoad{Station: l.station, Boarding: l.boarding, Alighting: l.alighting}
	}
	return out
}

func writeFile(path, content string) error {
	return os.WriteFile(path, []byte(content), 0o644)
}
