package booking

import (
	"testing"
	"time"
)

func TestSeedSlotsSkipsWeekends(t *testing.T) {
	// Thursday
	now := time.Date(2026, 10, 15, 9, 30, 0, 0, time.UTC)
	experts := []Expert{{Name: "A"}, {Name: "B"}}

	slots := SeedSlots(now, experts, 4, []int{10, 14})

	// Fri, (Sat, Sun skipped), Mon -> 2 days * 2 hours * 2 experts
	if len(slots) != 8 {
		t.Fatalf("got %d slots, want 8", len(slots))
	}
	for _, s := range slots {
		if wd := s.StartsAt.Weekday(); wd == time.Saturday || wd == time.Sunday {
			t.Errorf("slot on weekend: %v", s.StartsAt)
		}
		if !s.StartsAt.After(now) {
			t.Errorf("slot not in the future: %v", s.StartsAt)
		}
		if s.DurationMin != DefaultDurationMin || !s.Available() {
			t.Errorf("unexpected slot %+v", s)
		}
	}

	first := slots[0]
	want := time.Date(2026, 10, 16, 10, 0, 0, 0, time.UTC)
	if !first.StartsAt.Equal(want) || first.ExpertName != "A" {
		t.Errorf("first slot = %s at %v, want A at %v", first.ExpertName, first.StartsAt, want)
	}
}

func TestSeedSlotsUniquePerExpertAndStart(t *testing.T) {
	slots := SeedSlots(time.Now(), DefaultExperts(), 14, DefaultHours)
	seen := map[string]bool{}
	for _, s := range slots {
		k := s.ExpertName + s.StartsAt.String()
		if seen[k] {
			t.Fatalf("duplicate slot %s", k)
		}
		seen[k] = true
	}
}
