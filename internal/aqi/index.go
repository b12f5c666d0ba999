// Package aqi implements the CPCB sub-index and category calculations.
package aqi

import (
	"fmt"
	"math"
)

// Pollutant identifies one of the six tracked pollutants.
type Pollutant string

const (
	PM25 Pollutant = "pm2_5"
	PM10 Pollutant = "pm10"
	NO2  Pollutant = "no2"
	SO2  Pollutant = "so2"
	O3   Pollutant = "o3"
	CO   Pollutant = "co"
)

// Pollutants lists all tracked pollutants in their canonical order.
var Pollutants = []Pollutant{PM25, PM10, NO2, SO2, O3, CO}

// breakpoint is one band of the piecewise-linear AQI function:
// concentrations in [lowC, highC] map linearly onto [lowI, highI].
type breakpoint struct {
	lowC, highC float64
	lowI, highI float64
}

var inf = math.Inf(1)

// CPCB breakpoint tables. The top band extends to infinity, which makes
// its slope zero: anything above the band floor yields the band's low index.
var breakpoints = map[Pollutant][]breakpoint{
	PM25: {{0, 30, 0, 50}, {31, 60, 51, 100}, {61, 90, 101, 200}, {91, 120, 201, 300}, {121, 250, 301, 400}, {251, inf, 401, 500}},
	PM10: {{0, 50, 0, 50}, {51, 100, 51, 100}, {101, 250, 101, 200}, {251, 350, 201, 300}, {351, 430, 301, 400}, {431, inf, 401, 500}},
	NO2:  {{0, 40, 0, 50}, {41, 80, 51, 100}, {81, 180, 101, 200}, {181, 280, 201, 300}, {281, 400, 301, 400}, {401, inf, 401, 500}},
	O3:   {{0, 50, 0, 50}, {51, 100, 51, 100}, {101, 168, 101, 200}, {169, 208, 201, 300}, {209, 748, 301, 400}, {749, inf, 401, 500}},
	CO:   {{0, 1000, 0, 50}, {1001, 2000, 51, 100}, {2001, 10000, 101, 200}, {10001, 17000, 201, 300}, {17001, 34000, 301, 400}, {34001, inf, 401, 500}},
	SO2:  {{0, 40, 0, 50}, {41, 80, 51, 100}, {81, 380, 101, 200}, {381, 800, 201, 300}, {801, 1600, 301, 400}, {1601, inf, 401, 500}},
}

// SubIndex computes the pollutant sub-index for a concentration by linear
// interpolation within the first matching breakpoint band, rounded to the
// nearest integer and capped at 500. The second return value is false when
// the concentration is NaN or falls outside every band.
func SubIndex(c float64, p Pollutant) (int, bool) {
	if math.IsNaN(c) {
		return 0, false
	}
	for _, b := range breakpoints[p] {
		if c >= b.lowC && c <= b.highC {
			idx := (b.highI-b.lowI)/(b.highC-b.lowC)*(c-b.lowC) + b.lowI
			rounded := int(math.Round(idx))
			if rounded > 500 {
				rounded = 500
			}
			return rounded, true
		}
	}
	return 0, false
}

type band struct {
	low, high int
	category  string
	color     string
}

var bands = []band{
	{0, 50, "Good", "green"},
	{51, 100, "Satisfactory", "yellow"},
	{101, 200, "Moderately Polluted", "orange"},
	{201, 300, "Poor", "red"},
	{301, 400, "Very Poor", "purple"},
	{401, 500, "Severe", "maroon"},
}

// Classify maps an AQI value to its category, warning text and display
// color. Values outside [0, 500] report "Out of Range" in gray.
func Classify(aqi int) (category, warning, color string) {
	for _, b := range bands {
		if aqi >= b.low && aqi <= b.high {
			return b.category, fmt.Sprintf("%s air quality.", b.category), b.color
		}
	}
	return "Out of Range", "AQI beyond measurable limits.", "gray"
}
