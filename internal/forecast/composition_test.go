package forecast

import (
	"testing"

	"github.com/airsentry/aqi-forecast/internal/aqi"
)

func TestAdjustCompositionAddsPM25ToModeledPM10(t *testing.T) {
	mk := func(v float64, src Source, p aqi.Pollutant) Day {
		d := Day{Value: v, Source: src}
		d.Reclassify(p)
		return d
	}

	preds := map[aqi.Pollutant][]Day{
		aqi.PM10: {
			mk(90, SourceLive, aqi.PM10), // stations report total mass already
			mk(45, SourceModel, aqi.PM10),
			mk(30, SourceModel, aqi.PM10),
		},
		aqi.PM25: {
			mk(50, SourceLive, aqi.PM25),
			mk(55, SourceModel, aqi.PM25),
			mk(70, SourceModel, aqi.PM25),
		},
	}

	AdjustComposition(preds)

	if preds[aqi.PM10][0].Value != 90 {
		t.Fatalf("live pm10 day must not be composited, got %v", preds[aqi.PM10][0].Value)
	}
	if preds[aqi.PM10][1].Value != 100 {
		t.Fatalf("day 1 pm10 = %v, want 100", preds[aqi.PM10][1].Value)
	}
	if preds[aqi.PM10][2].Value != 100 {
		t.Fatalf("day 2 pm10 = %v, want 100", preds[aqi.PM10][2].Value)
	}
	wantAQI, _ := aqi.SubIndex(100, aqi.PM10)
	if preds[aqi.PM10][2].AQI != wantAQI {
		t.Fatalf("day 2 pm10 aqi = %d, want %d after reclassification", preds[aqi.PM10][2].AQI, wantAQI)
	}

	// pm2_5 itself is untouched.
	if preds[aqi.PM25][2].Value != 70 {
		t.Fatalf("pm2_5 day 2 = %v, want 70", preds[aqi.PM25][2].Value)
	}
}

func TestAdjustCompositionSkipIsProvenanceKeyed(t *testing.T) {
	mk := func(v float64, src Source) Day {
		d := Day{Value: v, Source: src}
		d.Reclassify(aqi.PM10)
		return d
	}
	// A live pm10 entry beyond day 0 is still skipped.
	preds := map[aqi.Pollutant][]Day{
		aqi.PM10: {mk(40, SourceModel), mk(80, SourceLive)},
		aqi.PM25: {{Value: 20, Source: SourceModel}, {Value: 20, Source: SourceModel}},
	}
	AdjustComposition(preds)

	if preds[aqi.PM10][0].Value != 60 {
		t.Fatalf("modeled day 0 pm10 = %v, want 60", preds[aqi.PM10][0].Value)
	}
	if preds[aqi.PM10][1].Value != 80 {
		t.Fatalf("live day 1 pm10 = %v, want 80 (untouched)", preds[aqi.PM10][1].Value)
	}
}

func TestAdjustCompositionRequiresBothSeries(t *testing.T) {
	preds := map[aqi.Pollutant][]Day{
		aqi.PM10: {{Value: 30, Source: SourceModel}},
	}
	AdjustComposition(preds)
	if preds[aqi.PM10][0].Value != 30 {
		t.Fatalf("pm10 without a pm2_5 series must stay unchanged, got %v", preds[aqi.PM10][0].Value)
	}
}
