package engine

import (
	"testing"
	"time"

	"github.com/theirongolddev/obligo/internal/model"
)

func TestDaysRemaining(t *testing.T) {
	today := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		target string
		want   int
	}{
		{"2024-03-10", 0},
		{"2024-03-11", 1},
		{"2024-03-09", -1},
		{"2024-04-10", 31},
		{"2024-02-28", -11},
		{"2025-03-10", 365},
	}
	for _, tt := range tests {
		got, ok := DaysRemaining(day(t, tt.target), today)
		if !ok {
			t.Fatalf("DaysRemaining(%s) ok = false", tt.target)
		}
		if got != tt.want {
			t.Errorf("DaysRemaining(%s) = %d, want %d", tt.target, got, tt.want)
		}
	}
}

func TestDaysRemaining_AbsentTarget(t *testing.T) {
	if _, ok := DaysRemaining(model.Date{}, time.Now()); ok {
		t.Fatal("DaysRemaining on zero date reported ok")
	}
}

func TestDaysRemaining_IgnoresTimeOfDay(t *testing.T) {
	target := day(t, "2024-03-11")
	zone := time.FixedZone("UTC+7", 7*60*60)

	for _, now := range []time.Time{
		time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 3, 10, 23, 59, 59, 0, time.UTC),
		time.Date(2024, 3, 10, 0, 30, 0, 0, zone),
		time.Date(2024, 3, 10, 23, 30, 0, 0, zone),
	} {
		got, _ := DaysRemaining(target, now)
		if got != 1 {
			t.Errorf("DaysRemaining at %s = %d, want 1", now, got)
		}
	}
}

func TestDaysRemaining_Monotonic(t *testing.T) {
	today := time.Date(2024, 2, 27, 15, 0, 0, 0, time.UTC)
	start := day(t, "2024-01-01")

	prev, _ := DaysRemaining(start, today)
	for i := 1; i < 400; i++ {
		got, _ := DaysRemaining(start.AddDays(i), today)
		if got != prev+1 {
			t.Fatalf("day %s: DaysRemaining = %d, want %d", start.AddDays(i), got, prev+1)
		}
		prev = got
	}
}
