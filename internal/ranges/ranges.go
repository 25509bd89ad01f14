// Package ranges resolves the optimal [min, max] band for a water-quality
// parameter, falling back to built-in defaults.
package ranges

import (
	"strconv"

	"github.com/ntentasd/kolam-api/pkg/types"
)

type bounds struct {
	min, max float64
}

var defaultBounds = map[types.Parameter]bounds{
	types.ParameterPH:          {6.5, 8.5},
	types.ParameterTemperature: {26, 30},
	types.ParameterSalinity:    {0, 5},
	types.ParameterAmmonia:     {0, 1},
	types.ParameterEC:          {300, 1500},
}

var units = map[types.Parameter]string{
	types.ParameterPH:          "",
	types.ParameterTemperature: "°C",
	types.ParameterSalinity:    "ppt",
	types.ParameterAmmonia:     "mg/L",
	types.ParameterEC:          "µS/cm",
}

var fallbackBounds = bounds{0, 10}

// GlobalPondID is the reserved pond id holding the editable default ranges.
const GlobalPondID = "0"

// Unit returns the display unit of p, empty for unknown parameters.
func Unit(p types.Parameter) string {
	return units[p]
}

// Default returns the built-in range for p; unknown parameters get 0-10.
func Default(p types.Parameter) types.OptimalRange {
	b, ok := defaultBounds[p]
	if !ok {
		b = fallbackBounds
	}
	return newRange(p, b.min, b.max, types.SourceBuiltin)
}

// Resolve picks the fetched entry for parameter, skipping entries that belong
// to another pond or whose bounds do not parse. With no usable entry the
// default range is returned.
func Resolve(parameter types.Parameter, pondID string, fetched []types.OptimalParameter) types.OptimalRange {
	return ResolveWithGlobal(parameter, pondID, fetched, nil)
}

// ResolveWithGlobal resolves parameter from the pond's entries, then from the
// global defaults stored under GlobalPondID, then from the built-in table.
func ResolveWithGlobal(parameter types.Parameter, pondID string, fetched, global []types.OptimalParameter) types.OptimalRange {
	source := types.SourcePond
	if pondID == GlobalPondID {
		source = types.SourceGlobal
	}
	if rng, ok := lookup(parameter, pondID, fetched, source); ok {
		return rng
	}
	if rng, ok := lookup(parameter, GlobalPondID, global, types.SourceGlobal); ok {
		return rng
	}
	return Default(parameter)
}

// ResolveAll resolves every known parameter.
func ResolveAll(pondID string, fetched []types.OptimalParameter) map[types.Parameter]types.OptimalRange {
	return ResolveAllWithGlobal(pondID, fetched, nil)
}

func ResolveAllWithGlobal(pondID string, fetched, global []types.OptimalParameter) map[types.Parameter]types.OptimalRange {
	out := make(map[types.Parameter]types.OptimalRange, len(types.KnownParameters))
	for _, p := range types.KnownParameters {
		out[p] = ResolveWithGlobal(p, pondID, fetched, global)
	}
	return out
}

func lookup(parameter types.Parameter, pondID string, fetched []types.OptimalParameter, source types.RangeSource) (types.OptimalRange, bool) {
	for _, op := range fetched {
		if !matches(op.Parameter, parameter) {
			continue
		}
		if op.PondID != "" && pondID != "" && string(op.PondID) != pondID {
			continue
		}

		lo, hi := op.MinValue.Float(), op.MaxValue.Float()
		if !types.IsValid(lo) || !types.IsValid(hi) {
			return types.OptimalRange{}, false
		}
		return newRange(parameter, lo, hi, source), true
	}
	return types.OptimalRange{}, false
}

func matches(name string, p types.Parameter) bool {
	if types.Parameter(name) == p {
		return true
	}
	alias, err := types.ToParameter(name)
	return err == nil && alias == p
}

// newRange builds a range. Default is set for every source but the pond's own.
func newRange(p types.Parameter, lo, hi float64, source types.RangeSource) types.OptimalRange {
	return types.OptimalRange{
		Min:     lo,
		Max:     hi,
		Unit:    Unit(p),
		TextMin: FormatNumber(lo),
		TextMax: FormatNumber(hi),
		Default: source != types.SourcePond,
		Source:  source,
	}
}

// FormatNumber prints integers without decimals and everything else with two.
func FormatNumber(v float64) string {
	if v == float64(int64(v)) {
		return strconv.FormatInt(int64(v), 10)
	}
	return strconv.FormatFloat(v, 'f', 2, 64)
}
