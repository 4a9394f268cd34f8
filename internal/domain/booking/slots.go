package booking

import "time"

type Expert struct {
	Name  string
	Topic string
}

func DefaultExperts() []Expert {
	return []Expert{
		{Name: "Maya Lindqvist", Topic: "Offer and pricing review"},
		{Name: "Daniel Okafor", Topic: "Funnel and email audit"},
		{Name: "Priya Raman", Topic: "Content strategy"},
	}
}

// DefaultHours are the local start hours offered each weekday.
var DefaultHours = []int{10, 14, 16}

const DefaultDurationMin = 30

// SeedSlots builds the pre-seeded weekday slots for the next days, starting
// tomorrow. Weekends are skipped. Each expert gets one slot per hour.
func SeedSlots(now time.Time, experts []Expert, days int, hours []int) []ExpertSlot {
	var out []ExpertSlot
	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	for i := 1; i <= days; i++ {
		d := day.AddDate(0, 0, i)
		if d.Weekday() == time.Saturday || d.Weekday() == time.Sunday {
			continue
		}
		for _, h := range hours {
			start := d.Add(time.Duration(h) * time.Hour)
			for _, e := range experts {
				out = append(out, ExpertSlot{
					ExpertName:  e.Name,
					Topic:       e.Topic,
					StartsAt:    start,
					DurationMin: DefaultDurationMin,
				})
			}
		}
	}
	return out
}
