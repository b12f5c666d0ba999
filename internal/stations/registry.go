// Package stations reconciles live telemetry from the monitoring
// station network into per-pollutant city means.
package stations

import "strings"

// cityStations maps a city to its registered monitoring station ids.
var cityStations = map[string][]int{
	"Anuppur":     {18},
	"Betul":       {22},
	"Bhopal":      {27, 34, 10},
	"CTSDF":       {44},
	"Damoh":       {7},
	"Dewas":       {23, 3},
	"Gwalior":     {16, 29, 30, 15},
	"Indore":      {31, 36, 35, 37, 40, 38, 33, 13},
	"Jabalpur":    {41, 12, 42, 43},
	"Katni":       {11, 19},
	"Khandwa":     {32},
	"Khargone":    {25},
	"Maihar":      {8},
	"Mandideep":   {5},
	"Narsinghpur": {26},
	"Neemuch":     {17},
	"Panna":       {39},
	"Pithampur":   {1},
	"Ratlam":      {9},
	"Rewa":        {20, 21},
	"Sagar":       {28, 14},
	"Satna":       {6},
	"Singrauli":   {4, 24},
	"Ujjain":      {2},
}

// StationsFor returns the station ids registered for a city. Matching is
// case-insensitive.
func StationsFor(city string) ([]int, bool) {
	for name, ids := range cityStations {
		if strings.EqualFold(name, city) {
			return ids, true
		}
	}
	return nil, false
}
