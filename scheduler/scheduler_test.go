package scheduler

import (
	"testing"
)

func TestNewSchedulerInvalidTimezone(t *testing.T) {
	if _, err := NewScheduler("Mars/Olympus"); err == nil {
		t.Fatal("expected error for unknown timezone")
	}
}

func TestScheduleValidTimes(t *testing.T) {
	s, err := NewScheduler("UTC")
	if err != nil {
		t.Fatalf("NewScheduler failed: %v", err)
	}

	for _, timeStr := range []string{"00:00", "9:05", "21:30", "23:59"} {
		if err := s.Schedule(timeStr, func() {}); err != nil {
			t.Errorf("Schedule(%q) failed: %v", timeStr, err)
		}
	}
}

func TestScheduleInvalidTimes(t *testing.T) {
	s, err := NewScheduler("UTC")
	if err != nil {
		t.Fatalf("NewScheduler failed: %v", err)
	}

	for _, timeStr := range []string{"", "21", "24:00", "12:60", "ab:cd", "-1:30"} {
		if err := s.Schedule(timeStr, func() {}); err == nil {
			t.Errorf("Schedule(%q) should fail", timeStr)
		}
	}
}

func TestScheduleReplacesPreviousEntry(t *testing.T) {
	s, err := NewScheduler("UTC")
	if err != nil {
		t.Fatalf("NewScheduler failed: %v", err)
	}

	if err := s.Schedule("08:00", func() {}); err != nil {
		t.Fatalf("first Schedule failed: %v", err)
	}
	if err := s.Schedule("21:00", func() {}); err != nil {
		t.Fatalf("second Schedule failed: %v", err)
	}

	if entries := s.cron.Entries(); len(entries) != 1 {
		t.Errorf("got %d cron entries, want the old one replaced", len(entries))
	}
}

func TestStartStopIdempotent(t *testing.T) {
	s, err := NewScheduler("UTC")
	if err != nil {
		t.Fatalf("NewScheduler failed: %v", err)
	}

	s.Start()
	s.Start()
	s.Stop()
	s.Stop()
}
