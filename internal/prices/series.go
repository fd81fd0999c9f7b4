package prices

import "time"

// Point is one daily adjusted close observation.
type Point struct {
	Date  time.Time `json:"date"`
	Close float64   `json:"close"`
}

// Series is a daily adjusted close series sorted ascending by date.
type Series []Point

// Last returns the final point, or false when the series is empty.
func (s Series) Last() (Point, bool) {
	if len(s) == 0 {
		return Point{}, false
	}
	return s[len(s)-1], true
}

// First returns the initial point, or false when the series is empty.
func (s Series) First() (Point, bool) {
	if len(s) == 0 {
		return Point{}, false
	}
	return s[0], true
}

// PriceOnOrAfter returns the first point dated on or after the given day,
// or false when no such point exists.
func (s Series) PriceOnOrAfter(day time.Time) (Point, bool) {
	for _, p := range s {
		if !p.Date.Before(day) {
			return p, true
		}
	}
	return Point{}, false
}

// PriceOnOrBefore returns the last point dated on or before the given day,
// or false when no such point exists.
func (s Series) PriceOnOrBefore(day time.Time) (Point, bool) {
	for i := len(s) - 1; i >= 0; i-- {
		if !s[i].Date.After(day) {
			return s[i], true
		}
	}
	return Point{}, false
}

// Slice returns the points dated within [from, to] inclusive. The receiver's
// ordering is preserved; the result shares the backing array.
func (s Series) Slice(from, to time.Time) Series {
	start := len(s)
	for i, p := range s {
		if !p.Date.Before(from) {
			start = i
			break
		}
	}
	end := start
	for i := start; i < len(s); i++ {
		if s[i].Date.After(to) {
			break
		}
		end = i + 1
	}
	return s[start:end]
}
