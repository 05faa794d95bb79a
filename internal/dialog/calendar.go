package dialog

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// CalendarSlot is one bookable slot as produced by the external availability
// source. StartISO is an RFC 3339 timestamp; Label is the human text the
// source already formatted, used verbatim when present.
type CalendarSlot struct {
	StartISO string `json:"startISO"`
	Label    string `json:"humanLabel,omitempty"`
}

var spanishWeekdays = [...]string{
	time.Sunday:    "Domingo",
	time.Monday:    "Lunes",
	time.Tuesday:   "Martes",
	time.Wednesday: "Miércoles",
	time.Thursday:  "Jueves",
	time.Friday:    "Viernes",
	time.Saturday:  "Sábado",
}

// businessLocation resolves the conversation timezone, falling back to UTC so
// grouping never fails on a bad tz string.
func businessLocation(tz string) *time.Location {
	if tz == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return time.UTC
	}
	return loc
}

func parseSlotStart(iso string, loc *time.Location) (time.Time, bool) {
	t, err := time.Parse(time.RFC3339, iso)
	if err != nil {
		return time.Time{}, false
	}
	return t.In(loc), true
}

// GroupSlotsByDay buckets a flat slot list into per-day options in the
// business timezone. Option ids are sequential letters with numeric aliases;
// day keys are ISO dates so re-grouping the same slots is stable and
// idempotent.
func GroupSlotsByDay(slots []CalendarSlot, tz string) []DayOption {
	loc := businessLocation(tz)

	byDay := make(map[string]time.Time)
	for _, s := range slots {
		t, ok := parseSlotStart(s.StartISO, loc)
		if !ok {
			continue
		}
		key := t.Format("2006-01-02")
		if _, seen := byDay[key]; !seen {
			byDay[key] = t
		}
	}

	keys := make([]string, 0, len(byDay))
	for k := range byDay {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	days := make([]DayOption, 0, len(keys))
	for i, key := range keys {
		t := byDay[key]
		days = append(days, DayOption{
			ID:      OptionLetter(i),
			DateISO: key,
			Label:   fmt.Sprintf("%s %02d/%02d", spanishWeekdays[t.Weekday()], t.Day(), int(t.Month())),
			Aliases: []string{strconv.Itoa(i + 1)},
		})
	}
	return days
}

// SlotOptionsForDay filters slots to one calendar day (ISO-date prefix in the
// business timezone) and letters them the same way as days.
func SlotOptionsForDay(slots []CalendarSlot, dayISO, tz string) []SlotOption {
	loc := businessLocation(tz)

	type timed struct {
		slot CalendarSlot
		at   time.Time
	}
	var onDay []timed
	for _, s := range slots {
		t, ok := parseSlotStart(s.StartISO, loc)
		if !ok || t.Format("2006-01-02") != dayISO {
			continue
		}
		onDay = append(onDay, timed{slot: s, at: t})
	}
	sort.Slice(onDay, func(i, j int) bool { return onDay[i].at.Before(onDay[j].at) })

	opts := make([]SlotOption, 0, len(onDay))
	for i, ts := range onDay {
		label := strings.TrimSpace(ts.slot.Label)
		if label == "" {
			label = fmt.Sprintf("%02d:%02d hs", ts.at.Hour(), ts.at.Minute())
		}
		opts = append(opts, SlotOption{
			ID:       OptionLetter(i),
			StartISO: ts.slot.StartISO,
			Label:    label,
			Aliases:  []string{strconv.Itoa(i + 1)},
		})
	}
	return opts
}

// HumanSlotLabel renders an RFC 3339 start time in the business timezone,
// e.g. "Lunes 02/03 a las 10:00 hs". Malformed input is returned verbatim.
func HumanSlotLabel(startISO, tz string) string {
	loc := businessLocation(tz)
	t, ok := parseSlotStart(startISO, loc)
	if !ok {
		return startISO
	}
	return fmt.Sprintf("%s %02d/%02d a las %02d:%02d hs",
		spanishWeekdays[t.Weekday()], t.Day(), int(t.Month()), t.Hour(), t.Minute())
}

// dayLabelFor returns the presented label for an ISO day, for re-use in slot
// menu titles.
func dayLabelFor(dayISO, tz string) string {
	loc := businessLocation(tz)
	t, err := time.ParseInLocation("2006-01-02", dayISO, loc)
	if err != nil {
		return dayISO
	}
	return fmt.Sprintf("%s %02d/%02d", spanishWeekdays[t.Weekday()], t.Day(), int(t.Month()))
}
