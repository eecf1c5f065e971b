package parser

import "testing"

func recordsWithDates(dates ...string) []RawMessageRecord {
	records := make([]RawMessageRecord, len(dates))
	for i, d := range dates {
		records[i] = RawMessageRecord{RawDate: d}
	}
	return records
}

func TestInferDateOrder_DayFirst(t *testing.T) {
	records := recordsWithDates("13/01/2024", "14/01/2024", "15/01/2024")
	if order := InferDateOrder(records); order != DayFirst {
		t.Errorf("expected day-first, got %v", order)
	}
}

func TestInferDateOrder_MonthFirst(t *testing.T) {
	records := recordsWithDates("01/13/2024", "01/14/2024")
	if order := InferDateOrder(records); order != MonthFirst {
		t.Errorf("expected month-first, got %v", order)
	}
}

func TestInferDateOrder_NoEvidenceDefaultsDayFirst(t *testing.T) {
	// Every field ambiguous (both <= 12).
	records := recordsWithDates("01/02/2024", "03/04/2024")
	if order := InferDateOrder(records); order != DayFirst {
		t.Errorf("expected day-first default, got %v", order)
	}
}

func TestInferDateOrder_TieDefaultsDayFirst(t *testing.T) {
	records := recordsWithDates("13/01/2024", "01/13/2024")
	if order := InferDateOrder(records); order != DayFirst {
		t.Errorf("expected day-first on tie, got %v", order)
	}
}

func TestInferDateOrder_MalformedDatesSkipped(t *testing.T) {
	records := recordsWithDates("not-a-date", "13/01", "", "01/13/2024")
	if order := InferDateOrder(records); order != MonthFirst {
		t.Errorf("expected month-first from the single valid vote, got %v", order)
	}
}

func TestInferDateOrder_SampleCap(t *testing.T) {
	// Month-first evidence only beyond the 300-record sample window must
	// not influence the vote.
	var dates []string
	for i := 0; i < dateOrderSampleSize; i++ {
		dates = append(dates, "13/01/2024")
	}
	for i := 0; i < 400; i++ {
		dates = append(dates, "01/13/2024")
	}
	if order := InferDateOrder(recordsWithDates(dates...)); order != DayFirst {
		t.Errorf("expected day-first from sampled window, got %v", order)
	}
}
