package util

import (
	"strconv"
	"testing"
	"time"
)

func TestParseTimeRFC3339(t *testing.T) {
	s := "2024-10-10T10:10:10Z"
	got, ok := ParseTime(s)
	if !ok {
		t.Fatalf("expected ok")
	}
	if got.UTC().Format(time.RFC3339) != s {
		t.Fatalf("unexpected time %v", got)
	}
}

func TestParseTimeUnix(t *testing.T) {
	ts := time.Date(2024, 10, 10, 10, 10, 10, 0, time.UTC).Unix()
	got, ok := ParseTime(strconv.FormatInt(ts, 10))
	if !ok {
		t.Fatalf("expected ok")
	}
	if got.Unix() != ts {
		t.Fatalf("unexpected unix %v", got.Unix())
	}
}

func TestDayTruncates(t *testing.T) {
	in := time.Date(2026, 3, 14, 15, 9, 26, 0, time.UTC)
	got := Day(in)
	want := time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("got %v want %v", got, want)
	}
}

func TestParseDayRoundTrip(t *testing.T) {
	d, err := ParseDay("2026-08-28")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if FormatDay(d) != "2026-08-28" {
		t.Fatalf("round trip mismatch: %s", FormatDay(d))
	}
}

func TestParseDayInvalid(t *testing.T) {
	if _, err := ParseDay("28/08/2026"); err == nil {
		t.Fatalf("expected error")
	}
}

func TestAddDays(t *testing.T) {
	d, _ := ParseDay("2026-02-28")
	if FormatDay(AddDays(d, 1)) != "2026-03-01" {
		t.Fatalf("unexpected next day %s", FormatDay(AddDays(d, 1)))
	}
	if FormatDay(AddDays(d, -7)) != "2026-02-21" {
		t.Fatalf("unexpected prev week %s", FormatDay(AddDays(d, -7)))
	}
}
