// Package types
package types

import (
	"fmt"
	"time"
)

type Parameter string

const (
	ParameterPH          Parameter = "pH"
	ParameterTemperature Parameter = "temperature"
	ParameterSalinity    Parameter = "salinity"
	ParameterAmmonia     Parameter = "ammonia"
	ParameterEC          Parameter = "ec"
)

// TrackedParameters are the parameters bucketed for the dashboard charts.
var TrackedParameters = []Parameter{
	ParameterPH,
	ParameterTemperature,
	ParameterSalinity,
	ParameterAmmonia,
}

// KnownParameters are all parameters with a built-in optimal range.
var KnownParameters = []Parameter{
	ParameterPH,
	ParameterTemperature,
	ParameterSalinity,
	ParameterAmmonia,
	ParameterEC,
}

var ErrInvalidParameter = fmt.Errorf("invalid parameter")

func ToParameter(s string) (Parameter, error) {
	switch s {
	case "pH", "ph":
		return ParameterPH, nil
	case "temperature", "suhu":
		return ParameterTemperature, nil
	case "salinity":
		return ParameterSalinity, nil
	case "ammonia", "tds":
		return ParameterAmmonia, nil
	case "ec", "ec_value":
		return ParameterEC, nil
	default:
		return "", ErrInvalidParameter
	}
}

// RawReading is a sensor record as delivered by the sensor API or Kafka.
type RawReading struct {
	ID       RawString  `json:"id,omitempty"`
	PondID   RawString  `json:"pond_id,omitempty"`
	Waktu    RawString  `json:"waktu"`
	PH       *RawNumber `json:"ph,omitempty"`
	Suhu     *RawNumber `json:"suhu,omitempty"`
	Salinity *RawNumber `json:"salinity,omitempty"`
	TDS      *RawNumber `json:"tds,omitempty"`
	Ammonia  *RawNumber `json:"ammonia,omitempty"`
	ECValue  *RawNumber `json:"ec_value,omitempty"`
}

// SensorReading is one normalized measurement. Missing or malformed values
// are NaN.
type SensorReading struct {
	ID          string    `json:"id"`
	PondID      string    `json:"pond_id"`
	Timestamp   string    `json:"timestamp"`
	Time        time.Time `json:"time,omitzero"`
	PH          Value     `json:"ph"`
	Temperature Value     `json:"temperature"`
	Salinity    Value     `json:"salinity"`
	Ammonia     Value     `json:"ammonia"`
	EC          Value     `json:"ec"`
}

// Value returns the reading's value for p, NaN for unknown parameters.
func (r SensorReading) Value(p Parameter) float64 {
	switch p {
	case ParameterPH:
		return float64(r.PH)
	case ParameterTemperature:
		return float64(r.Temperature)
	case ParameterSalinity:
		return float64(r.Salinity)
	case ParameterAmmonia:
		return float64(r.Ammonia)
	case ParameterEC:
		return float64(r.EC)
	default:
		return nan
	}
}

type HourlyBucketSet struct {
	Labels []string             `json:"labels"`
	Values map[Parameter]Series `json:"values"`
}

type DailyBucketSet struct {
	Dates  []string             `json:"dates"`
	Values map[Parameter]Series `json:"values"`
}

// OptimalParameter is one row of the optimal-parameter fetch.
type OptimalParameter struct {
	PondID    RawString `json:"pond_id,omitempty"`
	Parameter string    `json:"parameter"`
	MinValue  RawNumber `json:"min_value"`
	MaxValue  RawNumber `json:"max_value"`
}

// RangeSource tells where a resolved range came from.
type RangeSource string

const (
	SourcePond    RangeSource = "pond"
	SourceGlobal  RangeSource = "global"
	SourceBuiltin RangeSource = "builtin"
)

type OptimalRange struct {
	Min     float64     `json:"min"`
	Max     float64     `json:"max"`
	Unit    string      `json:"unit"`
	TextMin string      `json:"textmin"`
	TextMax string      `json:"textmax"`
	Default bool        `json:"default"`
	Source  RangeSource `json:"source"`
}

type Direction string

const (
	DirectionHigh Direction = "high"
	DirectionLow  Direction = "low"
)

// Alert is a reading outside its optimal range. Stored alerts carry an id and
// stay active until resolved.
type Alert struct {
	ID         string    `json:"id,omitempty"`
	PondID     string    `json:"pond_id"`
	ReadingID  string    `json:"reading_id"`
	Parameter  Parameter `json:"parameter"`
	Measured   float64   `json:"measured_value"`
	OptimalMin float64   `json:"optimal_min"`
	OptimalMax float64   `json:"optimal_max"`
	Direction  Direction `json:"direction"`
	Waktu      string    `json:"waktu"`
	CreatedAt  time.Time `json:"created_at,omitzero"`
	Resolved   bool      `json:"resolved"`
	ResolvedAt time.Time `json:"resolved_at,omitzero"`
}

// AlertFilter selects stored alerts. Empty PondID means every pond, nil
// Resolved means both states.
type AlertFilter struct {
	PondID   string
	Resolved *bool
	Limit    int
}

type Aggregate struct {
	Avg       float64   `json:"avg"`
	Min       float64   `json:"min"`
	Max       float64   `json:"max"`
	Count     int       `json:"count"`
	Timestamp time.Time `json:"timestamp"`
}

type Pond struct {
	PondID   string `json:"pond_id"`
	PondName string `json:"pond_name"`
}
