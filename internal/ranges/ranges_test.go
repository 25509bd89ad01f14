package ranges_test

import (
	"testing"

	"github.com/ntentasd/kolam-api/internal/ranges"
	"github.com/ntentasd/kolam-api/pkg/types"
	"github.com/stretchr/testify/assert"
)

func TestResolve_DefaultsWhenNothingFetched(t *testing.T) {
	rng := ranges.Resolve(types.ParameterSalinity, "1", nil)

	assert.Equal(t, 0.0, rng.Min)
	assert.Equal(t, 5.0, rng.Max)
	assert.Equal(t, "ppt", rng.Unit)
	assert.True(t, rng.Default)
}

func TestResolve_UnknownParameter(t *testing.T) {
	rng := ranges.Resolve(types.Parameter("turbidity"), "1", nil)

	assert.Equal(t, 0.0, rng.Min)
	assert.Equal(t, 10.0, rng.Max)
	assert.Equal(t, "", rng.Unit)
}

func TestResolve_FetchedEntry(t *testing.T) {
	fetched := []types.OptimalParameter{
		{PondID: "1", Parameter: "ph", MinValue: types.NumberFromString("7"), MaxValue: types.NumberOf(8.25)},
		{PondID: "1", Parameter: "suhu", MinValue: types.NumberOf(27), MaxValue: types.NumberOf(31)},
	}

	ph := ranges.Resolve(types.ParameterPH, "1", fetched)
	assert.Equal(t, types.OptimalRange{Min: 7, Max: 8.25, TextMin: "7", TextMax: "8.25", Source: types.SourcePond}, ph)

	temp := ranges.Resolve(types.ParameterTemperature, "1", fetched)
	assert.Equal(t, 27.0, temp.Min)
	assert.Equal(t, 31.0, temp.Max)
	assert.Equal(t, "°C", temp.Unit)
	assert.False(t, temp.Default)
}

func TestResolve_SkipsOtherPonds(t *testing.T) {
	fetched := []types.OptimalParameter{
		{PondID: "2", Parameter: "ammonia", MinValue: types.NumberOf(0), MaxValue: types.NumberOf(3)},
		{PondID: "1", Parameter: "ammonia", MinValue: types.NumberOf(0), MaxValue: types.NumberOf(0.5)},
	}

	rng := ranges.Resolve(types.ParameterAmmonia, "1", fetched)
	assert.Equal(t, 0.5, rng.Max)

	assert.True(t, ranges.Resolve(types.ParameterAmmonia, "3", fetched[:1]).Default)
}

func TestResolve_UnparseableFallsBack(t *testing.T) {
	fetched := []types.OptimalParameter{
		{PondID: "1", Parameter: "pH", MinValue: types.NumberFromString("low"), MaxValue: types.NumberOf(9)},
	}

	assert.Equal(t, ranges.Default(types.ParameterPH), ranges.Resolve(types.ParameterPH, "1", fetched))
}

func TestResolveWithGlobal_Layers(t *testing.T) {
	pond := []types.OptimalParameter{
		{PondID: "1", Parameter: "ph", MinValue: types.NumberOf(7), MaxValue: types.NumberOf(8)},
		{PondID: "1", Parameter: "salinity", MinValue: types.NumberFromString("?"), MaxValue: types.NumberOf(3)},
	}
	global := []types.OptimalParameter{
		{PondID: ranges.GlobalPondID, Parameter: "ph", MinValue: types.NumberOf(6), MaxValue: types.NumberOf(9)},
		{PondID: ranges.GlobalPondID, Parameter: "salinity", MinValue: types.NumberOf(1), MaxValue: types.NumberOf(4)},
	}

	ph := ranges.ResolveWithGlobal(types.ParameterPH, "1", pond, global)
	assert.Equal(t, 7.0, ph.Min)
	assert.Equal(t, types.SourcePond, ph.Source)

	sal := ranges.ResolveWithGlobal(types.ParameterSalinity, "1", pond, global)
	assert.Equal(t, 1.0, sal.Min)
	assert.Equal(t, 4.0, sal.Max)
	assert.Equal(t, "ppt", sal.Unit)
	assert.Equal(t, types.SourceGlobal, sal.Source)
	assert.True(t, sal.Default)

	temp := ranges.ResolveWithGlobal(types.ParameterTemperature, "1", pond, global)
	assert.Equal(t, types.SourceBuiltin, temp.Source)
	assert.Equal(t, 26.0, temp.Min)
}

func TestResolve_GlobalPondEntriesAreGlobal(t *testing.T) {
	global := []types.OptimalParameter{
		{PondID: ranges.GlobalPondID, Parameter: "ammonia", MinValue: types.NumberOf(0), MaxValue: types.NumberOf(2)},
	}

	all := ranges.ResolveAllWithGlobal(ranges.GlobalPondID, global, nil)
	assert.Equal(t, types.SourceGlobal, all[types.ParameterAmmonia].Source)
	assert.Equal(t, 2.0, all[types.ParameterAmmonia].Max)
	assert.Equal(t, types.SourceBuiltin, all[types.ParameterPH].Source)
}

func TestResolveAll(t *testing.T) {
	all := ranges.ResolveAll("1", nil)

	assert.Len(t, all, len(types.KnownParameters))
	assert.Equal(t, 300.0, all[types.ParameterEC].Min)
	assert.Equal(t, 1500.0, all[types.ParameterEC].Max)
}

func TestFormatNumber(t *testing.T) {
	for in, want := range map[float64]string{
		7:     "7",
		-3:    "-3",
		6.5:   "6.50",
		0.126: "0.13",
		1500:  "1500",
	} {
		assert.Equal(t, want, ranges.FormatNumber(in))
	}
}
