package forecast

import (
	"github.com/airsentry/aqi-forecast/internal/aqi"
	"github.com/airsentry/aqi-forecast/internal/stations"
)

// correctedPollutants are the pollutants live telemetry seeds and
// bias-corrects; corrections never touch anything else.
var correctedPollutants = []aqi.Pollutant{aqi.PM25, aqi.PM10}

// ComputeBiasErrors derives the live-vs-model deltas for the current day.
// live is the reconciled telemetry (may be nil); modelToday holds the
// model's own day-0 predictions for the corrected pollutants.
func ComputeBiasErrors(live map[aqi.Pollutant]stations.Mean, modelToday map[aqi.Pollutant]Day) BiasErrors {
	var errs BiasErrors

	for _, p := range correctedPollutants {
		lv, ok := live[p]
		if !ok {
			continue
		}
		mt, ok := modelToday[p]
		if !ok {
			continue
		}
		conc := round2(lv.Value - mt.Value)
		aqiErr := round2(float64(lv.AQI - mt.AQI))
		switch p {
		case aqi.PM25:
			errs.PM25Concentration = &conc
			errs.PM25AQI = &aqiErr
		case aqi.PM10:
			errs.PM10Concentration = &conc
			errs.PM10AQI = &aqiErr
		}
	}

	// Overall error: worst live sub-index vs worst model sub-index, each
	// over the pollutants with data, ozone excluded from both sides.
	var liveMax, modelMax int
	var haveLive, haveModel bool
	for _, p := range aqi.Pollutants {
		if p == aqi.O3 {
			continue
		}
		if lv, ok := live[p]; ok {
			if !haveLive || lv.AQI > liveMax {
				liveMax = lv.AQI
				haveLive = true
			}
		}
		if mt, ok := modelToday[p]; ok {
			if !haveModel || mt.AQI > modelMax {
				modelMax = mt.AQI
				haveModel = true
			}
		}
	}
	if haveLive && haveModel {
		overall := round2(float64(liveMax - modelMax))
		errs.OverallAQI = &overall
	}

	return errs
}

// ApplyBiasCorrections propagates the concentration errors to forecast
// days 1 onward (day 0 already carries the live value when available) and
// reclassifies every corrected day from its new value.
func ApplyBiasCorrections(preds map[aqi.Pollutant][]Day, errs BiasErrors) {
	apply := func(p aqi.Pollutant, delta *float64) {
		if delta == nil {
			return
		}
		days := preds[p]
		for i := 1; i < len(days); i++ {
			days[i].Value = round2(days[i].Value + *delta)
			days[i].Reclassify(p)
		}
	}
	apply(aqi.PM25, errs.PM25Concentration)
	apply(aqi.PM10, errs.PM10Concentration)
}
