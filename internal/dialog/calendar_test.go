package dialog

import (
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const tzBuenosAires = "America/Argentina/Buenos_Aires"

// marchSlots: three slots over two distinct days in the business timezone.
var marchSlots = []CalendarSlot{
	{StartISO: "2026-03-02T10:00:00-03:00", Label: "10:00 hs"},
	{StartISO: "2026-03-02T11:30:00-03:00", Label: "11:30 hs"},
	{StartISO: "2026-03-03T10:15:00-03:00", Label: "10:15 hs"},
}

func TestGroupSlotsByDay(t *testing.T) {
	days := GroupSlotsByDay(marchSlots, tzBuenosAires)
	require.Len(t, days, 2)

	assert.Equal(t, "A", days[0].ID)
	assert.Equal(t, "2026-03-02", days[0].DateISO)
	assert.Equal(t, "Lunes 02/03", days[0].Label)
	assert.Equal(t, []string{"1"}, days[0].Aliases)

	assert.Equal(t, "B", days[1].ID)
	assert.Equal(t, "2026-03-03", days[1].DateISO)
	assert.Equal(t, "Martes 03/03", days[1].Label)
	assert.Equal(t, []string{"2"}, days[1].Aliases)
}

func TestGroupSlotsByDayBucketsInBusinessTimezone(t *testing.T) {
	// 01:00 UTC on March 3rd is still March 2nd in Buenos Aires
	days := GroupSlotsByDay([]CalendarSlot{{StartISO: "2026-03-03T01:00:00Z"}}, tzBuenosAires)
	require.Len(t, days, 1)
	assert.Equal(t, "2026-03-02", days[0].DateISO)
}

func TestGroupSlotsByDayUnknownTimezoneFallsBackToUTC(t *testing.T) {
	days := GroupSlotsByDay([]CalendarSlot{{StartISO: "2026-03-03T01:00:00Z"}}, "Mars/Olympus")
	require.Len(t, days, 1)
	assert.Equal(t, "2026-03-03", days[0].DateISO)
}

func TestGroupSlotsByDaySkipsMalformedTimestamps(t *testing.T) {
	days := GroupSlotsByDay([]CalendarSlot{
		{StartISO: "not a date"},
		{StartISO: "2026-03-02T10:00:00-03:00"},
		{StartISO: ""},
	}, tzBuenosAires)
	require.Len(t, days, 1)
	assert.Equal(t, "2026-03-02", days[0].DateISO)

	assert.Empty(t, GroupSlotsByDay(nil, tzBuenosAires))
}

func TestSlotOptionsForDay(t *testing.T) {
	shuffled := []CalendarSlot{marchSlots[1], marchSlots[2], marchSlots[0]}
	opts := SlotOptionsForDay(shuffled, "2026-03-02", tzBuenosAires)
	require.Len(t, opts, 2)

	// sorted by start time regardless of input order
	assert.Equal(t, "A", opts[0].ID)
	assert.Equal(t, "2026-03-02T10:00:00-03:00", opts[0].StartISO)
	assert.Equal(t, "10:00 hs", opts[0].Label)
	assert.Equal(t, []string{"1"}, opts[0].Aliases)
	assert.Equal(t, "B", opts[1].ID)
	assert.Equal(t, "11:30 hs", opts[1].Label)
}

func TestSlotOptionsForDayLabelFallback(t *testing.T) {
	opts := SlotOptionsForDay([]CalendarSlot{{StartISO: "2026-03-02T14:00:00-03:00"}}, "2026-03-02", tzBuenosAires)
	require.Len(t, opts, 1)
	assert.Equal(t, "14:00 hs", opts[0].Label)
}

// Every generated option must be selectable both by its letter and by its
// 1-indexed numeric alias, and both must resolve to the same option.
func TestLetterAndNumericAliasAgree(t *testing.T) {
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	slots := make([]CalendarSlot, 0, 30)
	for i := 0; i < 30; i++ {
		slots = append(slots, CalendarSlot{StartISO: base.AddDate(0, 0, i).Format(time.RFC3339)})
	}

	days := GroupSlotsByDay(slots, "")
	require.Len(t, days, 30)

	opts := dayMenuOptions(days)
	for i, d := range days {
		byLetter, ok := MatchOption(Normalize(OptionLetter(i)), opts)
		require.True(t, ok, "letter %s", OptionLetter(i))
		byNumber, ok := MatchOption(strconv.Itoa(i+1), opts)
		require.True(t, ok, "alias %d", i+1)
		assert.Equal(t, d.ID, byLetter.ID)
		assert.Equal(t, byLetter.ID, byNumber.ID)
	}
}

func TestOptionLetter(t *testing.T) {
	tests := []struct {
		index int
		want  string
	}{
		{0, "A"}, {1, "B"}, {25, "Z"},
		{26, "AA"}, {27, "AB"}, {51, "AZ"}, {52, "BA"},
		{701, "ZZ"}, {702, "AAA"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, OptionLetter(tt.index), "index %d", tt.index)
	}
}

func TestDayLabelFor(t *testing.T) {
	assert.Equal(t, "Lunes 02/03", dayLabelFor("2026-03-02", tzBuenosAires))
	assert.Equal(t, "garbage", dayLabelFor("garbage", tzBuenosAires))
}
