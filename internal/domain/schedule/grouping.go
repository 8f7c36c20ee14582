package schedule

import (
	"math"
	"sort"
	"time"
)

// dayKeyLayout is the bucket key format. It is the only join between an
// entry's date and a day bucket, so both sides must go through DayKey.
const dayKeyLayout = "2006-01-02"

// Grouping is the day-bucketed view of a conference schedule.
type Grouping struct {
	Days    []string           // every day from start to end, ascending
	ByDay   map[string][]Entry // sorted by start time; every day present
	Dropped []Entry            // unparseable date or outside the span
}

// DayKey returns the UTC calendar date of raw as YYYY-MM-DD.
// PRE: none
// POST: ok is false when raw cannot be parsed
func DayKey(raw string) (string, bool) {
	t, ok := ParseDate(raw)
	if !ok {
		return "", false
	}
	return t.UTC().Format(dayKeyLayout), true
}

// DaySpan lists every day key from start to end inclusive.
// PRE: none
// POST: Returns nil when either bound is unparseable or end < start
func DaySpan(start, end string) []string {
	startKey, ok := DayKey(start)
	if !ok {
		return nil
	}
	endKey, ok := DayKey(end)
	if !ok {
		return nil
	}
	day, _ := time.Parse(dayKeyLayout, startKey)
	last, _ := time.Parse(dayKeyLayout, endKey)
	if last.Before(day) {
		return nil
	}

	days := make([]string, 0, int(last.Sub(day).Hours()/24)+1)
	for !day.After(last) {
		days = append(days, day.Format(dayKeyLayout))
		day = day.AddDate(0, 0, 1)
	}
	return days
}

// GroupByDay partitions entries into the conference's day buckets.
// Entries whose date is unparseable, or lands outside the span, are returned
// in Dropped instead of any bucket.
// PRE: none
// POST: every key of Days is in ByDay; no entry appears in two buckets
func GroupByDay(start, end string, entries []Entry) Grouping {
	days := DaySpan(start, end)
	g := Grouping{
		Days:  days,
		ByDay: make(map[string][]Entry, len(days)),
	}
	for _, d := range days {
		g.ByDay[d] = []Entry{}
	}

	for _, e := range entries {
		key, ok := DayKey(e.Date)
		if !ok {
			g.Dropped = append(g.Dropped, e)
			continue
		}
		bucket, inSpan := g.ByDay[key]
		if !inSpan {
			g.Dropped = append(g.Dropped, e)
			continue
		}
		g.ByDay[key] = append(bucket, e)
	}

	for _, d := range days {
		SortByStartTime(g.ByDay[d])
	}
	return g
}

// SortByStartTime orders entries by HH:MM start time, keeping input order for ties.
// Entries without a start time sort as "00:00".
func SortByStartTime(entries []Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].SortKey() < entries[j].SortKey()
	})
}

// DayOrdinal returns the 1-based day number of dayKey within the conference.
// PRE: none
// POST: Returns at least 1, also for unparseable input
func DayOrdinal(dayKey, conferenceStart string) int {
	day, ok := ParseDate(dayKey)
	if !ok {
		return 1
	}
	start, ok := ParseDate(conferenceStart)
	if !ok {
		return 1
	}
	diff := day.UTC().Sub(start.UTC()).Hours() / 24
	n := int(math.Ceil(diff)) + 1
	if n < 1 {
		return 1
	}
	return n
}

// DisplayDate formats a day key as "Tuesday, June 10, 2025".
// Presentation only; never used for sorting or matching.
func DisplayDate(dayKey string) string {
	t, err := time.Parse(dayKeyLayout, dayKey)
	if err != nil {
		return dayKey
	}
	return t.Format("Monday, January 2, 2006")
}
