package forecast

import "github.com/airsentry/aqi-forecast/internal/aqi"

// AdjustComposition corrects the structural pm10 bias: the pm10 model
// predicts only the coarse fraction, so total PM10 mass is the modeled
// pm10 plus pm2_5. Days whose pm10 entry came from live telemetry are
// skipped — stations already report total mass, and adding pm2_5 again
// would double-count it. The skip is keyed on the entry's provenance,
// not on its day index.
func AdjustComposition(preds map[aqi.Pollutant][]Day) {
	pm10Days := preds[aqi.PM10]
	pm25Days := preds[aqi.PM25]

	n := min(len(pm10Days), len(pm25Days))
	for i := 0; i < n; i++ {
		if pm10Days[i].Source == SourceLive {
			continue
		}
		pm10Days[i].Value = round2(pm10Days[i].Value + pm25Days[i].Value)
		pm10Days[i].Reclassify(aqi.PM10)
	}
}
