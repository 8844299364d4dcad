// Package timeline compacts discrete scheduled days into contiguous blocks for
// display.
package timeline

import (
	"sort"
	"time"
)

const dateLayout = "2006-01-02"

type Day struct {
	Date      string `json:"date"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

// Block is a maximal run of consecutive calendar days.
type Block struct {
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	Days      []Day  `json:"days"`
}

// GroupDaysIntoBlocks sorts days by date and splits them wherever two
// neighbours are not exactly one calendar day apart. Weekends are not special:
// a Friday and the following Monday land in different blocks. Days whose date
// does not parse are dropped. The input slice is not modified.
func GroupDaysIntoBlocks(days []Day) []Block {
	if len(days) == 0 {
		return []Block{}
	}

	type parsed struct {
		day Day
		at  time.Time
	}
	sorted := make([]parsed, 0, len(days))
	for _, d := range days {
		at, err := time.Parse(dateLayout, d.Date)
		if err != nil {
			continue
		}
		sorted = append(sorted, parsed{day: d, at: at})
	}
	if len(sorted) == 0 {
		return []Block{}
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].at.Before(sorted[j].at)
	})

	blocks := make([]Block, 0, 1)
	current := Block{StartDate: sorted[0].day.Date, EndDate: sorted[0].day.Date, Days: []Day{sorted[0].day}}
	for i := 1; i < len(sorted); i++ {
		gap := daysBetween(sorted[i-1].at, sorted[i].at)
		if gap == 1 {
			current.EndDate = sorted[i].day.Date
			current.Days = append(current.Days, sorted[i].day)
			continue
		}
		blocks = append(blocks, current)
		current = Block{StartDate: sorted[i].day.Date, EndDate: sorted[i].day.Date, Days: []Day{sorted[i].day}}
	}
	return append(blocks, current)
}

// WorkingDays lists every date in [start, end] inclusive, skipping Saturdays
// and Sundays unless includeWeekends is set. Reversed or unparsable bounds
// yield nil.
func WorkingDays(start, end string, includeWeekends bool) []string {
	from, err := time.Parse(dateLayout, start)
	if err != nil {
		return nil
	}
	to, err := time.Parse(dateLayout, end)
	if err != nil || to.Before(from) {
		return nil
	}

	var dates []string
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		if !includeWeekends && (d.Weekday() == time.Saturday || d.Weekday() == time.Sunday) {
			continue
		}
		dates = append(dates, d.Format(dateLayout))
	}
	return dates
}

// SpanDays is the number of calendar days covered by [start, end] inclusive,
// or 0 when the bounds are invalid.
func SpanDays(start, end string) int {
	from, err := time.Parse(dateLayout, start)
	if err != nil {
		return 0
	}
	to, err := time.Parse(dateLayout, end)
	if err != nil || to.Before(from) {
		return 0
	}
	return daysBetween(from, to) + 1
}

func daysBetween(a, b time.Time) int {
	return int(b.Sub(a).Hours() / 24)
}
