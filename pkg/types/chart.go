package types

import "time"

type PointStatus string

const (
	PointOK     PointStatus = "ok"
	PointBelow  PointStatus = "below"
	PointAbove  PointStatus = "above"
	PointNoData PointStatus = "no_data"
)

// ChartDataset is one parameter's chart in one view. Values is clamped into
// the optimal band for drawing; Original keeps the true readings.
type ChartDataset struct {
	Parameter  Parameter     `json:"parameter"`
	Label      string        `json:"label"`
	Labels     []string      `json:"labels"`
	Values     Series        `json:"values"`
	Original   Series        `json:"original"`
	OutOfRange []bool        `json:"outOfRange"`
	Status     []PointStatus `json:"status"`
	Tooltips   []string      `json:"tooltips"`
	Range      OptimalRange  `json:"range"`
	YMin       Value         `json:"yMin"`
	YMax       Value         `json:"yMax"`
	Ticks      []float64     `json:"ticks"`
	Degenerate bool          `json:"degenerate"`
}

type ParameterCharts struct {
	Hourly ChartDataset `json:"hourly"`
	Daily  ChartDataset `json:"daily"`
}

type PondCharts struct {
	PondID      string                        `json:"pond_id"`
	Hourly      HourlyBucketSet               `json:"hourly"`
	Daily       DailyBucketSet                `json:"daily"`
	Ranges      map[Parameter]OptimalRange    `json:"ranges"`
	Charts      map[Parameter]ParameterCharts `json:"charts"`
	GeneratedAt time.Time                     `json:"generated_at"`
}
