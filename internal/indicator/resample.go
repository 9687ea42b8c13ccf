package indicator

import (
	"fmt"
	"time"

	"StockSentinel/internal/model"
)

// ResampleWeekly aggregates daily bars into one bar per ISO week. Bars must
// be sorted ascending by date.
func ResampleWeekly(bars []model.Bar) []model.Bar {
	return resample(bars, func(t time.Time) string {
		year, week := t.ISOWeek()
		return fmt.Sprintf("%04d-%02d", year, week)
	})
}

// ResampleMonthly aggregates daily bars into one bar per calendar month.
func ResampleMonthly(bars []model.Bar) []model.Bar {
	return resample(bars, func(t time.Time) string {
		return t.Format("2006-01")
	})
}

// resample folds consecutive bars sharing a bucket key into a single bar:
// first open, max high, min low, last close, summed volume, last date.
func resample(bars []model.Bar, key func(time.Time) string) []model.Bar {
	var out []model.Bar
	lastKey := ""
	for _, b := range bars {
		k := key(b.Date)
		if k != lastKey {
			out = append(out, b)
			lastKey = k
			continue
		}
		cur := &out[len(out)-1]
		if b.High > cur.High {
			cur.High = b.High
		}
		if b.Low < cur.Low {
			cur.Low = b.Low
		}
		cur.Close = b.Close
		cur.Volume += b.Volume
		cur.Date = b.Date
	}
	return out
}
