package parser

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/lanternworks/chatmerge/internal/textutil"
)

// timePattern accepts H:MM, H:MM:SS, 12- or 24-hour, with an optional
// case-insensitive meridiem marker.
var timePattern = regexp.MustCompile(`^(\d{1,2}):(\d{2})(?::(\d{2}))?\s*((?i:am|pm))?$`)

// ParseDateTime reconstructs an absolute instant from a raw date field, a
// raw time field and the inferred date order. Two-digit years are read as
// 2000+YY; pm adds 12 to hours 1-11, 12am becomes hour 0. Returns
// ok=false for anything that does not parse or is not a valid
// calendar/clock value; the caller keeps the record with a null
// timestamp.
func ParseDateTime(rawDate, rawTime string, order DateOrder) (time.Time, bool) {
	parts := strings.Split(rawDate, "/")
	if len(parts) != 3 {
		return time.Time{}, false
	}

	numbers := make([]int, 3)
	for i, part := range parts {
		n, err := strconv.Atoi(part)
		if err != nil {
			return time.Time{}, false
		}
		numbers[i] = n
	}

	var day, month, year int
	if order == MonthFirst {
		month, day, year = numbers[0], numbers[1], numbers[2]
	} else {
		day, month, year = numbers[0], numbers[1], numbers[2]
	}

	if year < 100 {
		year += 2000
	}

	cleanedTime := strings.ToLower(strings.TrimSpace(textutil.ReplaceNarrowSpaces(textutil.CleanInvisible(rawTime))))
	m := timePattern.FindStringSubmatch(cleanedTime)
	if m == nil {
		return time.Time{}, false
	}

	hour, _ := strconv.Atoi(m[1])
	minute, _ := strconv.Atoi(m[2])
	second := 0
	if m[3] != "" {
		second, _ = strconv.Atoi(m[3])
	}

	switch m[4] {
	case "pm":
		if hour != 12 {
			hour += 12
		}
	case "am":
		if hour == 12 {
			hour = 0
		}
	}

	if month < 1 || month > 12 || day < 1 || hour > 23 || minute > 59 || second > 59 {
		return time.Time{}, false
	}

	result := time.Date(year, time.Month(month), day, hour, minute, second, 0, time.Local)

	// time.Date normalizes out-of-range days (Feb 30 → Mar 2); a rolled
	// date means the calendar value was invalid.
	if result.Day() != day || result.Month() != time.Month(month) || result.Year() != year {
		return time.Time{}, false
	}
	return result, true
}
