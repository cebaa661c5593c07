package model

import "fmt"

const (
	// MinDay..MaxDay cover a Monday-Friday teaching week.
	MinDay = 1
	MaxDay = 5

	MinPeriod = 1
	MaxPeriod = 6

	DayCount    = MaxDay - MinDay + 1
	PeriodCount = MaxPeriod - MinPeriod + 1
)

var dayNames = map[int]string{
	1: "Mon",
	2: "Tue",
	3: "Wed",
	4: "Thu",
	5: "Fri",
}

// TimeSlot is a (day, period) coordinate in the weekly grid. Immutable value.
type TimeSlot struct {
	Day    int
	Period int
}

func (t TimeSlot) Valid() bool {
	return t.Day >= MinDay && t.Day <= MaxDay && t.Period >= MinPeriod && t.Period <= MaxPeriod
}

func (t TimeSlot) String() string {
	return fmt.Sprintf("%v-%v", dayNames[t.Day], t.Period)
}

// AllTimeSlots returns every slot of the weekly grid in day-major order.
func AllTimeSlots() []TimeSlot {
	slots := make([]TimeSlot, 0, DayCount*PeriodCount)
	for day := MinDay; day <= MaxDay; day++ {
		for period := MinPeriod; period <= MaxPeriod; period++ {
			slots = append(slots, TimeSlot{Day: day, Period: period})
		}
	}
	return slots
}
