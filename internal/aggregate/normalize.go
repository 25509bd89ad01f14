package aggregate

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/ntentasd/kolam-api/pkg/types"
)

// InputError reports a payload that is not a list of readings at all.
type InputError struct {
	Reason string
}

func (e *InputError) Error() string {
	return fmt.Sprintf("invalid readings payload: %s", e.Reason)
}

func (e *InputError) Is(target error) bool {
	_, ok := target.(*InputError)
	return ok
}

// IDSource assigns ids to records that arrive without one.
type IDSource interface {
	NextID(r types.RawReading, index int) string
}

// Counter hands out "auto-1", "auto-2", ... It is safe for concurrent use.
type Counter struct {
	n atomic.Int64
}

func (c *Counter) NextID(types.RawReading, int) string {
	return "auto-" + strconv.FormatInt(c.n.Add(1), 10)
}

// readingNamespace roots the name-based ids produced by HashIDs.
var readingNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("kolam-api/readings"))

// HashIDs derives a stable uuid from the pond, timestamp and position of the
// record, so the same payload always yields the same ids.
type HashIDs struct{}

func (HashIDs) NextID(r types.RawReading, index int) string {
	name := fmt.Sprintf("%s|%s|%d", r.PondID, r.Waktu, index)
	return uuid.NewSHA1(readingNamespace, []byte(name)).String()
}

// Normalize maps raw sensor records onto SensorReading: suhu becomes
// temperature, ammonia falls back to tds and ec_value becomes ec. A nil ids
// uses HashIDs.
func Normalize(raw []types.RawReading, ids IDSource) []types.SensorReading {
	if ids == nil {
		ids = HashIDs{}
	}

	out := make([]types.SensorReading, 0, len(raw))
	for i, r := range raw {
		out = append(out, NormalizeOne(r, ids, i))
	}
	return out
}

func NormalizeOne(r types.RawReading, ids IDSource, index int) types.SensorReading {
	id := string(r.ID)
	if id == "" {
		if ids == nil {
			ids = HashIDs{}
		}
		id = ids.NextID(r, index)
	}

	ammonia := r.Ammonia
	if ammonia == nil {
		ammonia = r.TDS
	}

	return types.SensorReading{
		ID:          id,
		PondID:      string(r.PondID),
		Timestamp:   string(r.Waktu),
		Time:        ParseTime(string(r.Waktu)),
		PH:          types.Value(types.FloatOf(r.PH)),
		Temperature: types.Value(types.FloatOf(r.Suhu)),
		Salinity:    types.Value(types.FloatOf(r.Salinity)),
		Ammonia:     types.Value(types.FloatOf(ammonia)),
		EC:          types.Value(types.FloatOf(r.ECValue)),
	}
}

// DecodeReadings parses a JSON array of raw readings. Anything other than an
// array yields an *InputError; malformed values inside records, including a
// waktu that is not a string, do not.
func DecodeReadings(b []byte) ([]types.RawReading, error) {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || b[0] != '[' {
		return nil, &InputError{Reason: "expected a JSON array"}
	}

	var raw []types.RawReading
	if err := json.Unmarshal(b, &raw); err != nil {
		return nil, &InputError{Reason: err.Error()}
	}
	return raw, nil
}
