// Package stairs reads stair positions for stations, either listed inline or annotated as guide
// lines in Inkscape SVG drawings of the platform.
package stairs

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
	"strings"

	"platformflow.org/internal/models"
)

const sodipodiNamespace = "http://sodipodi.sourceforge.net/DTD/sodipodi-0.dtd"

var (
	ErrMissingFrame  = errors.New("drawing needs guides labelled start and end")
	ErrEmptyFrame    = errors.New("start and end guides coincide")
	ErrBadPosition   = errors.New("guide position is not a number")
	ErrNoStairSource = errors.New("station has neither inline stairs nor a guides file")
)

// ReadGuides extracts stair positions from an Inkscape SVG. Guides labelled "start" and "end" mark
// the platform ends; every other guide is a stair. Positions are normalized to the platform frame
// and returned in ascending order.
func ReadGuides(r io.Reader) ([]float64, error) {
	dec := xml.NewDecoder(r)

	var (
		raw        []float64
		start, end float64
		hasStart   bool
		hasEnd     bool
	)

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parsing svg: %w", err)
		}

		el, ok := tok.(xml.StartElement)
		if !ok || !isGuide(el.Name) {
			continue
		}

		x, err := guideX(attrValue(el, "position"))
		if err != nil {
			return nil, err
		}

		switch attrValue(el, "label") {
		case "start":
			start, hasStart = x, true
		case "end":
			end, hasEnd = x, true
		default:
			if !math.IsNaN(x) {
				raw = append(raw, x)
			}
		}
	}

	if !hasStart || !hasEnd {
		return nil, ErrMissingFrame
	}

	// whichever of start and end is larger is the far end of the platform
	lo, hi := math.Min(start, end), math.Max(start, end)
	if hi == lo {
		return nil, fmt.Errorf("%w: both at %v", ErrEmptyFrame, lo)
	}

	positions := make([]float64, len(raw))
	for i, x := range raw {
		positions[i] = Normalize(x, lo, hi)
	}
	sort.Float64s(positions)

	return positions, nil
}

// Normalize maps x from [lo, hi] onto the platform frame, clamping positions beyond the ends.
func Normalize(x, lo, hi float64) float64 {
	scaled := (x - lo) / (hi - lo) * (models.PlatformEnd - models.PlatformStart)
	return math.Min(math.Max(models.PlatformStart+scaled, models.PlatformStart), models.PlatformEnd)
}

func isGuide(name xml.Name) bool {
	return name.Local == "guide" && (name.Space == sodipodiNamespace || name.Space == "sodipodi")
}

func attrValue(el xml.StartElement, local string) string {
	for _, a := range el.Attr {
		if a.Name.Local == local {
			return a.Value
		}
	}
	return ""
}

// guideX parses the x component of a guide's "x,y" position attribute.
func guideX(position string) (float64, error) {
	first, _, _ := strings.Cut(position, ",")
	x, err := strconv.ParseFloat(strings.TrimSpace(first), 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrBadPosition, position)
	}
	return x, nil
}
