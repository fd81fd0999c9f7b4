package charts

import "time"

// Tick is one labelled position on the time axis.
type Tick struct {
	Date  time.Time
	Label string
}

// TickPolicy places date ticks for a window. Short windows get day ticks
// spaced to roughly six labels, with the year appended once on the first
// early-January tick so year boundaries stay readable. Medium windows get
// weekly ticks, long windows get one tick per month.
func TickPolicy(window Window) []Tick {
	switch {
	case window.ActualDays <= 30:
		return dayTicks(window)
	case window.ActualDays <= 90:
		return weekTicks(window)
	default:
		return monthTicks(window)
	}
}

func dayTicks(window Window) []Tick {
	interval := window.ActualDays / 6
	if interval < 1 {
		interval = 1
	}
	var ticks []Tick
	yearShown := false
	for d := window.Start; !d.After(window.End); d = d.AddDate(0, 0, interval) {
		label := d.Format("01/02")
		if !yearShown && d.Month() == time.January && d.Day() <= 15 {
			label = d.Format("01/02/06")
			yearShown = true
		}
		ticks = append(ticks, Tick{Date: d, Label: label})
	}
	return ticks
}

func weekTicks(window Window) []Tick {
	var ticks []Tick
	for d := window.Start; !d.After(window.End); d = d.AddDate(0, 0, 7) {
		ticks = append(ticks, Tick{Date: d, Label: d.Format("01/02")})
	}
	return ticks
}

func monthTicks(window Window) []Tick {
	var ticks []Tick
	d := time.Date(window.Start.Year(), window.Start.Month(), 1, 0, 0, 0, 0, window.Start.Location())
	if d.Before(window.Start) {
		d = d.AddDate(0, 1, 0)
	}
	for ; !d.After(window.End); d = d.AddDate(0, 1, 0) {
		ticks = append(ticks, Tick{Date: d, Label: d.Format("Jan 2006")})
	}
	return ticks
}
