package parser

import (
	"strconv"
	"strings"
)

// DateOrder is the inferred interpretation of the date field for one
// source. It is fixed per source and applied to every record uniformly.
type DateOrder int

const (
	DayFirst DateOrder = iota
	MonthFirst
)

func (o DateOrder) String() string {
	if o == MonthFirst {
		return "MDY"
	}
	return "DMY"
}

// dateOrderSampleSize caps how many records vote on the date order.
const dateOrderSampleSize = 300

// InferDateOrder examines a sample of raw dates and votes between
// day-first and month-first interpretation. A first field above 12 with
// a second field at most 12 is evidence of day-first, and vice versa.
// Month-first wins only on strictly more votes; day-first is the default
// for ties and sources with no evidence.
func InferDateOrder(records []RawMessageRecord) DateOrder {
	dayFirstVotes := 0
	monthFirstVotes := 0

	sample := records
	if len(sample) > dateOrderSampleSize {
		sample = sample[:dateOrderSampleSize]
	}

	for _, record := range sample {
		parts := strings.Split(record.RawDate, "/")
		if len(parts) != 3 {
			continue
		}
		first, err1 := strconv.Atoi(parts[0])
		second, err2 := strconv.Atoi(parts[1])
		if err1 != nil || err2 != nil {
			continue
		}

		if first > 12 && second <= 12 {
			dayFirstVotes++
		} else if second > 12 && first <= 12 {
			monthFirstVotes++
		}
	}

	if monthFirstVotes > dayFirstVotes {
		return MonthFirst
	}
	return DayFirst
}
