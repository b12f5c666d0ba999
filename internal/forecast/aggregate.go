package forecast

import (
	"sort"

	"github.com/airsentry/aqi-forecast/internal/aqi"
)

// DailyHeadlines folds the per-pollutant series into one headline per
// forecast day: the pollutant with the worst AQI wins, except that ozone
// is never reported dominant while an alternative exists at that slot.
// Slots with no contributing pollutant are omitted.
func DailyHeadlines(preds map[aqi.Pollutant][]Day) []Headline {
	var headlines []Headline

	for i := 0; i < horizonDays; i++ {
		type candidate struct {
			pollutant aqi.Pollutant
			day       Day
		}
		var cands []candidate
		for _, p := range aqi.Pollutants {
			if days := preds[p]; len(days) > i {
				cands = append(cands, candidate{pollutant: p, day: days[i]})
			}
		}
		if len(cands) == 0 {
			continue
		}

		// Stable sort keeps the canonical pollutant order on AQI ties.
		sort.SliceStable(cands, func(a, b int) bool {
			return cands[a].day.AQI > cands[b].day.AQI
		})

		top := cands[0]
		if top.pollutant == aqi.O3 && len(cands) > 1 {
			top = cands[1]
		}

		headlines = append(headlines, Headline{
			Day:       top.day.Day,
			Date:      top.day.Date,
			Pollutant: top.pollutant,
			Value:     top.day.Value,
			AQI:       top.day.AQI,
			Category:  top.day.Category,
			Warning:   top.day.Warning,
			Color:     top.day.Color,
		})
	}
	return headlines
}
