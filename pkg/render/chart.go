// Package render draws the dashboard's path plot, battery chart and
// sensor dump from a history snapshot. It is purely presentational.
package render

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/teslashibe/go-rover/pkg/history"
	"github.com/teslashibe/go-rover/pkg/rover"
)

// ErrNoData is returned when there is nothing to plot yet.
var ErrNoData = errors.New("render: no data")

// Fixed display window of the path plot, on both axes.
const (
	PlotMin = -250.0
	PlotMax = 250.0
)

// Chart sizes in pixels.
const (
	PathSize      = 640
	BatteryWidth  = 640
	BatteryHeight = 280
)

var (
	colorPath     = drawing.ColorFromHex("1f77b4")
	colorCurrent  = drawing.ColorFromHex("d62728")
	colorObstacle = drawing.ColorFromHex("000000")
	colorTag      = drawing.ColorFromHex("17becf")
	colorBattery  = drawing.ColorFromHex("2ca02c")
	colorGrid     = drawing.ColorFromHex("dddddd")
)

// markerStyle renders points only, no connecting line.
func markerStyle(col drawing.Color, width float64) chart.Style {
	return chart.Style{
		StrokeWidth: chart.Disabled,
		DotWidth:    width,
		DotColor:    col,
	}
}

func gridStyle() chart.Style {
	return chart.Style{
		StrokeColor: colorGrid,
		StrokeWidth: 1,
	}
}

func windowTicks() []chart.Tick {
	var ticks []chart.Tick
	for v := PlotMin; v <= PlotMax; v += 50 {
		ticks = append(ticks, chart.Tick{Value: v, Label: fmt.Sprintf("%.0f", v)})
	}
	return ticks
}

// PathChart builds the path plot: the full path, the current (last)
// position highlighted, obstacle and tag markers, axes fixed to the
// display window.
func PathChart(snap history.Snapshot) (*chart.Chart, error) {
	current, _, ok := snap.Last()
	if !ok {
		return nil, ErrNoData
	}

	series := []chart.Series{
		chart.ContinuousSeries{
			Name:    "Rover Path",
			XValues: snap.X,
			YValues: snap.Y,
			Style: chart.Style{
				StrokeColor: colorPath,
				StrokeWidth: 2,
				DotColor:    colorPath,
				DotWidth:    3,
			},
		},
		chart.ContinuousSeries{
			Name:    "Current Position",
			XValues: []float64{current.X},
			YValues: []float64{current.Y},
			Style:   markerStyle(colorCurrent, 8),
		},
	}
	if len(snap.Obstacles) > 0 {
		xs, ys := split(snap.Obstacles)
		series = append(series, chart.ContinuousSeries{
			Name:    "Obstacles",
			XValues: xs,
			YValues: ys,
			Style:   markerStyle(colorObstacle, 5),
		})
	}
	if len(snap.Tags) > 0 {
		xs, ys := split(snap.Tags)
		series = append(series, chart.ContinuousSeries{
			Name:    "RFID Tags",
			XValues: xs,
			YValues: ys,
			Style:   markerStyle(colorTag, 5),
		})
	}

	window := &chart.ContinuousRange{Min: PlotMin, Max: PlotMax}
	c := &chart.Chart{
		Title:      "Rover Real-Time Map",
		Width:      PathSize,
		Height:     PathSize,
		Background: chart.Style{Padding: chart.Box{Top: 48, Left: 16, Right: 16, Bottom: 16}},
		XAxis: chart.XAxis{
			Name:           "X Coordinate",
			Range:          window,
			Ticks:          windowTicks(),
			GridMajorStyle: gridStyle(),
		},
		YAxis: chart.YAxis{
			Name:           "Y Coordinate",
			Range:          &chart.ContinuousRange{Min: PlotMin, Max: PlotMax},
			Ticks:          windowTicks(),
			GridMajorStyle: gridStyle(),
		},
		Series: series,
	}
	c.Elements = []chart.Renderable{chart.Legend(c)}
	return c, nil
}

// BatteryChart builds the battery-over-time line chart, one point per refresh.
func BatteryChart(snap history.Snapshot) (*chart.Chart, error) {
	n := len(snap.Battery)
	if n == 0 {
		return nil, ErrNoData
	}

	xs := make([]float64, n)
	low, high := 0.0, 100.0
	for i, b := range snap.Battery {
		xs[i] = float64(i)
		if b > high {
			high = b
		}
		if b < low {
			low = b
		}
	}
	// A single refresh still needs a non-empty x range.
	xMax := float64(n - 1)
	if xMax < 1 {
		xMax = 1
	}

	c := &chart.Chart{
		Title:      "Battery Level Over Time",
		Width:      BatteryWidth,
		Height:     BatteryHeight,
		Background: chart.Style{Padding: chart.Box{Top: 40, Left: 16, Right: 16, Bottom: 16}},
		XAxis: chart.XAxis{
			Name:  "Refresh",
			Range: &chart.ContinuousRange{Min: 0, Max: xMax},
			ValueFormatter: func(v interface{}) string {
				if f, ok := v.(float64); ok {
					return fmt.Sprintf("%.0f", f)
				}
				return ""
			},
		},
		YAxis: chart.YAxis{
			Name:           "Battery %",
			Range:          &chart.ContinuousRange{Min: low, Max: high},
			GridMajorStyle: gridStyle(),
		},
		Series: []chart.Series{
			chart.ContinuousSeries{
				Name:    "Battery %",
				XValues: xs,
				YValues: snap.Battery,
				Style: chart.Style{
					StrokeColor: colorBattery,
					StrokeWidth: 2,
				},
			},
		},
	}
	return c, nil
}

// PathPNG renders the path plot as PNG into w.
func PathPNG(w io.Writer, snap history.Snapshot) error {
	c, err := PathChart(snap)
	if err != nil {
		return err
	}
	if err := c.Render(chart.PNG, w); err != nil {
		return fmt.Errorf("render path plot: %w", err)
	}
	return nil
}

// BatteryPNG renders the battery chart as PNG into w.
func BatteryPNG(w io.Writer, snap history.Snapshot) error {
	c, err := BatteryChart(snap)
	if err != nil {
		return err
	}
	if err := c.Render(chart.PNG, w); err != nil {
		return fmt.Errorf("render battery chart: %w", err)
	}
	return nil
}

// SensorJSON returns the raw sensor reading as indented JSON.
func SensorJSON(reading rover.SensorReading) ([]byte, error) {
	if reading == nil {
		reading = rover.SensorReading{}
	}
	return json.MarshalIndent(reading, "", "  ")
}

func split(points []rover.Position) ([]float64, []float64) {
	xs := make([]float64, len(points))
	ys := make([]float64, len(points))
	for i, p := range points {
		xs[i], ys[i] = p.X, p.Y
	}
	return xs, ys
}
