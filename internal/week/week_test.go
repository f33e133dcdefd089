package week

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d, h int) time.Time {
	return time.Date(y, m, d, h, 30, 0, 0, time.Local)
}

func TestKeyOfKnownDates(t *testing.T) {
	cases := []struct {
		name string
		at   time.Time
		want Key
	}{
		{"thursday new year", date(2026, time.January, 1, 9), "2026-W01"},
		{"friday new year belongs to previous year", date(2021, time.January, 1, 9), "2020-W53"},
		{"late december monday starts next year", date(2024, time.December, 30, 9), "2025-W01"},
		{"sunday closes the week", date(2026, time.February, 8, 23), "2026-W06"},
		{"monday opens the week", date(2026, time.February, 9, 0), "2026-W07"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, KeyOf(tc.at))
		})
	}
}

func TestMondayOfWeek(t *testing.T) {
	got := MondayOfWeek(date(2026, time.October, 17, 15)) // Saturday
	assert.Equal(t, time.Date(2026, time.October, 12, 0, 0, 0, 0, time.Local), got)
	assert.Equal(t, time.Monday, got.Weekday())
}

func TestRoundTripAndAdjacency(t *testing.T) {
	for year := 1998; year <= 2032; year++ {
		for wk := 1; wk <= 53; wk++ {
			k, err := ParseKey(makeKey(year, wk).String())
			if wk == 53 && err != nil {
				continue // short year
			}
			require.NoError(t, err)

			r, err := RangeFromKey(k)
			require.NoError(t, err)
			assert.Equal(t, k, KeyOf(r.Start), "round trip %s", k)
			assert.Equal(t, time.Monday, r.Start.Weekday())

			prev, err := Prev(k)
			require.NoError(t, err)
			pr, err := RangeFromKey(prev)
			require.NoError(t, err)
			assert.True(t, pr.End.Equal(r.Start), "prev(%s)=%s does not abut", k, prev)

			next, err := Next(k)
			require.NoError(t, err)
			back, err := Prev(next)
			require.NoError(t, err)
			assert.Equal(t, k, back)
		}
	}
}

func TestParseKeyRejectsMalformed(t *testing.T) {
	for _, s := range []string{"", "2026W07", "2026-W7", "2026-W00", "2026-W54", "20x6-W07", "2021-W53"} {
		_, err := ParseKey(s)
		assert.ErrorIs(t, err, ErrMalformedKey, s)
	}
	_, err := ParseKey("2020-W53")
	assert.NoError(t, err)
}

func TestRangeFromKeyMalformedIsError(t *testing.T) {
	_, err := RangeFromKey("nope")
	require.ErrorIs(t, err, ErrMalformedKey)
	assert.Panics(t, func() { MustRange("nope") })
}

func TestCompare(t *testing.T) {
	assert.Equal(t, -1, Compare("2025-W52", "2026-W01"))
	assert.Equal(t, 1, Compare("2026-W10", "2026-W09"))
	assert.Equal(t, 0, Compare("2026-W10", "2026-W10"))
}

func TestRangeFormatting(t *testing.T) {
	r := MustRange("2026-W06")
	assert.Equal(t, "Feb 02 - Feb 08, 2026", r.Label())
	assert.Equal(t, "Mon Feb 02 2026 → Mon Feb 09 2026", r.String())
	assert.True(t, r.Contains(date(2026, time.February, 8, 23)))
	assert.False(t, r.Contains(r.End))
}
