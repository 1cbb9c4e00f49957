package mixture

import (
	"errors"
	"fmt"
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"
)

var (
	ErrInvalidMode          = errors.New("beta mode must lie strictly between 0 and 1")
	ErrInvalidConcentration = errors.New("beta concentration must be at least 2")
)

// ModeBeta builds a Beta distribution from its mode and concentration instead of its shape
// parameters: alpha = mode*(concentration-2)+1 and beta = concentration-alpha.
func ModeBeta(mode, concentration float64, src rand.Source) (distuv.Beta, error) {
	if !(mode > 0 && mode < 1) {
		return distuv.Beta{}, fmt.Errorf("%w: got %v", ErrInvalidMode, mode)
	}
	if !(concentration >= 2) {
		return distuv.Beta{}, fmt.Errorf("%w: got %v", ErrInvalidConcentration, concentration)
	}

	alpha := mode*(concentration-2) + 1
	return distuv.Beta{
		Alpha: alpha,
		Beta:  concentration - alpha,
		Src:   src,
	}, nil
}
