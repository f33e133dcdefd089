// Package week implements ISO-8601 week keys ("2026-W07") and the calendar
// arithmetic the digest pipeline slices entries with.
package week

import (
	"errors"
	"fmt"
	"strconv"
	"time"
)

// ErrMalformedKey is returned for strings that are not a valid YYYY-Www key.
var ErrMalformedKey = errors.New("malformed week key")

// Key is an ISO week identifier of the form YYYY-Www.
type Key string

// Range is a Monday-anchored week. End is exclusive (the following Monday).
type Range struct {
	Start time.Time
	End   time.Time
}

// StartOfDay truncates t to midnight in t's location.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// MondayOfWeek returns midnight of the Monday starting t's week.
func MondayOfWeek(t time.Time) time.Time {
	day := StartOfDay(t)
	offset := (int(day.Weekday()) + 6) % 7 // Mon=0
	return day.AddDate(0, 0, -offset)
}

// KeyOf returns the ISO week key containing t. The Thursday of the week
// decides both the ISO year and the week number.
func KeyOf(t time.Time) Key {
	thursday := MondayOfWeek(t).AddDate(0, 0, 3)
	wk := (thursday.YearDay()-1)/7 + 1
	return makeKey(thursday.Year(), wk)
}

// Current returns the key of the week containing now.
func Current(now time.Time) Key {
	return KeyOf(now)
}

// ParseKey validates s and returns it as a Key.
func ParseKey(s string) (Key, error) {
	_, _, err := split(s)
	if err != nil {
		return "", err
	}
	k := Key(s)
	// Week 53 only exists in long years; the round trip rejects the rest.
	r, err := rangeIn(k, time.UTC)
	if err != nil {
		return "", err
	}
	if KeyOf(r.Start) != k {
		return "", fmt.Errorf("%w: %q has no such week", ErrMalformedKey, s)
	}
	return k, nil
}

// RangeFromKey converts k to its week range in the local time zone.
func RangeFromKey(k Key) (Range, error) {
	return RangeIn(k, time.Local)
}

// RangeIn converts k to its week range in loc.
func RangeIn(k Key, loc *time.Location) (Range, error) {
	if _, err := ParseKey(string(k)); err != nil {
		return Range{}, err
	}
	return rangeIn(k, loc)
}

// MustRange is RangeFromKey for keys already known to be valid.
func MustRange(k Key) Range {
	r, err := RangeFromKey(k)
	if err != nil {
		panic(err)
	}
	return r
}

// Prev returns the week before k: one calendar day before its start,
// re-derived through KeyOf.
func Prev(k Key) (Key, error) {
	r, err := RangeFromKey(k)
	if err != nil {
		return "", err
	}
	return KeyOf(r.Start.AddDate(0, 0, -1)), nil
}

// Next returns the week after k.
func Next(k Key) (Key, error) {
	r, err := RangeFromKey(k)
	if err != nil {
		return "", err
	}
	return KeyOf(r.End), nil
}

// Year returns the ISO year of k, or 0 when k is malformed.
func (k Key) Year() int {
	y, _, _ := split(string(k))
	return y
}

// Week returns the ISO week number of k, or 0 when k is malformed.
func (k Key) Week() int {
	_, w, _ := split(string(k))
	return w
}

// Compare orders keys by (year, week).
func Compare(a, b Key) int {
	switch {
	case a.Year() != b.Year():
		return cmpInt(a.Year(), b.Year())
	default:
		return cmpInt(a.Week(), b.Week())
	}
}

// Contains reports whether t falls in [Start, End).
func (r Range) Contains(t time.Time) bool {
	return !t.Before(r.Start) && t.Before(r.End)
}

// String formats the range the way the digest header shows it:
// "Mon Feb 02 2026 → Mon Feb 09 2026".
func (r Range) String() string {
	return r.Start.Format("Mon Jan 02 2006") + " → " + r.End.Format("Mon Jan 02 2006")
}

// Label formats the inclusive days of the range: "Feb 02 - Feb 08, 2026".
func (r Range) Label() string {
	last := r.End.AddDate(0, 0, -1)
	return fmt.Sprintf("%s - %s", r.Start.Format("Jan 02"), last.Format("Jan 02, 2006"))
}

func rangeIn(k Key, loc *time.Location) (Range, error) {
	year, wk, err := split(string(k))
	if err != nil {
		return Range{}, err
	}
	jan4 := time.Date(year, time.January, 4, 0, 0, 0, 0, loc) // always in week 1
	start := MondayOfWeek(jan4).AddDate(0, 0, (wk-1)*7)
	return Range{Start: start, End: start.AddDate(0, 0, 7)}, nil
}

func split(s string) (year, wk int, err error) {
	if len(s) != 8 || s[4:6] != "-W" {
		return 0, 0, fmt.Errorf("%w: %q", ErrMalformedKey, s)
	}
	year, err = strconv.Atoi(s[:4])
	if err != nil || year < 1 {
		return 0, 0, fmt.Errorf("%w: %q", ErrMalformedKey, s)
	}
	wk, err = strconv.Atoi(s[6:])
	if err != nil || wk < 1 || wk > 53 {
		return 0, 0, fmt.Errorf("%w: %q", ErrMalformedKey, s)
	}
	return year, wk, nil
}

func makeKey(year, wk int) Key {
	return Key(fmt.Sprintf("%04d-W%02d", year, wk))
}

func cmpInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func (k Key) String() string { return string(k) }
