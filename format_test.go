package main

import (
	"testing"
	"time"
)

func utcFormatter() TimeFormatter {
	return TimeFormatter{Layout: DefaultTimeLayout, ClockLayout: DefaultClockLayout, Loc: time.UTC}
}

func TestFormatTimeValid(t *testing.T) {
	tf := utcFormatter()
	cases := []struct {
		in   string
		want string
	}{
		{"2024-03-05T14:07:09Z", "3/5/2024, 2:07:09 PM"},
		{"2024-03-05T14:07:09.123456Z", "3/5/2024, 2:07:09 PM"},
		{"2024-03-05T16:07:09+02:00", "3/5/2024, 2:07:09 PM"},
		{"2024-03-05T09:00:00", "3/5/2024, 9:00:00 AM"},
		{"2024-03-05 09:00", "3/5/2024, 9:00:00 AM"},
		{"2024-03-05", "3/5/2024, 12:00:00 AM"},
		{"  2024-03-05T14:07:09Z  ", "3/5/2024, 2:07:09 PM"},
	}
	for _, tc := range cases {
		if got := tf.FormatTime(tc.in); got != tc.want {
			t.Fatalf("FormatTime(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestFormatTimeIsIdempotent(t *testing.T) {
	tf := utcFormatter()
	in := "2025-11-30T23:59:59Z"
	first := tf.FormatTime(in)
	for i := 0; i < 5; i++ {
		if got := tf.FormatTime(in); got != first {
			t.Fatalf("call %d = %q, first call = %q", i, got, first)
		}
	}
}

func TestFormatTimeUnparseableReturnsSentinel(t *testing.T) {
	tf := utcFormatter()
	inputs := []string{
		"",
		"   ",
		"not a date",
		"2024-13-45",
		"2024-02-30T10:00:00Z",
		"12:00",
		"\x00\xff",
		"2024-03-05T14:07:09Zjunk",
	}
	for _, in := range inputs {
		if got := tf.FormatTime(in); got != NotAvailable {
			t.Fatalf("FormatTime(%q) = %q, want %q", in, got, NotAvailable)
		}
	}
}

func TestFormatTimeUsesLocation(t *testing.T) {
	loc := time.FixedZone("UTC+3", 3*3600)
	tf := TimeFormatter{Layout: "2006-01-02 15:04", Loc: loc}
	if got := tf.FormatTime("2024-03-05T10:00:00Z"); got != "2024-03-05 13:00" {
		t.Fatalf("expected zone conversion, got %q", got)
	}
}

func TestFormatClock(t *testing.T) {
	tf := utcFormatter()
	at := time.Date(2024, 1, 2, 18, 4, 5, 0, time.UTC)
	if got := tf.FormatClock(at); got != "6:04:05 PM" {
		t.Fatalf("FormatClock = %q", got)
	}
}
