package stats

import (
	"math"

	"github.com/starford/maeum/internal/models"
)

// Tally counts how many entries selected each pole of one scale.
type Tally struct {
	Left  int `json:"left"`
	Right int `json:"right"`
	Total int `json:"total"`
}

// Percents returns the display split of the tally. An empty tally is 50/50
// so the balance bar is never blank.
func (t Tally) Percents() (left, right int) {
	if t.Total == 0 {
		return 50, 50
	}
	left = int(math.Round(100 * float64(t.Left) / float64(t.Total)))
	return left, 100 - left
}

// Balances maps every scale to its tally.
type Balances map[models.Scale]Tally

// ScaleBalance is one display row of the nuance balance.
type ScaleBalance struct {
	Scale        models.ScaleInfo `json:"scale"`
	Tally        Tally            `json:"tally"`
	LeftPercent  int              `json:"left_percent"`
	RightPercent int              `json:"right_percent"`
}

// Balance tallies recorded nuance values per scale. Entries that did not
// select a scale contribute nothing to it.
func Balance(entries []models.MoodEntry) Balances {
	out := make(Balances, len(models.Scales()))
	for _, s := range models.Scales() {
		out[s] = Tally{}
	}
	for _, e := range entries {
		for s, v := range e.Nuances {
			t, known := out[s]
			if !known {
				continue
			}
			switch s.PoleOf(v) {
			case models.PoleNegative:
				t.Left++
			case models.PolePositive:
				t.Right++
			default:
				continue
			}
			t.Total++
			out[s] = t
		}
	}
	return out
}

// Ordered returns the balances in scale registry order with display percents.
func (b Balances) Ordered() []ScaleBalance {
	infos := models.ScaleInfos()
	out := make([]ScaleBalance, 0, len(infos))
	for _, info := range infos {
		t := b[info.Key]
		left, right := t.Percents()
		out = append(out, ScaleBalance{Scale: info, Tally: t, LeftPercent: left, RightPercent: right})
	}
	return out
}
