package domain

import (
	"fmt"
	"time"
)

// DateLayout is the wire and storage format of booking dates
const DateLayout = "2006-01-02"

// TimeSlot is one fixed daily booking window
type TimeSlot struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Start   string `json:"start"`
	End     string `json:"end"`
	Display string `json:"display"`
}

// Slots is the fixed slot catalog in display order
var Slots = []TimeSlot{
	{ID: "slot1", Name: "Morning", Start: "09:00", End: "13:00", Display: "9:00 AM - 1:00 PM"},
	{ID: "slot2", Name: "Afternoon", Start: "13:00", End: "17:00", Display: "1:00 PM - 5:00 PM"},
	{ID: "slot3", Name: "Evening", Start: "17:00", End: "21:00", Display: "5:00 PM - 9:00 PM"},
}

// LookupSlot returns the catalog entry for id
func LookupSlot(id string) (TimeSlot, bool) {
	for _, s := range Slots {
		if s.ID == id {
			return s, true
		}
	}
	return TimeSlot{}, false
}

// SlotDisplay returns the human label for id, or id itself when unknown
func SlotDisplay(id string) string {
	if s, ok := LookupSlot(id); ok {
		return s.Display
	}
	return id
}

// ParseDate validates a YYYY-MM-DD booking date
func ParseDate(value string) (time.Time, error) {
	d, err := time.Parse(DateLayout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: booking date must be YYYY-MM-DD", ErrValidation)
	}
	return d, nil
}

// Window returns the start and end instants of slot on date in loc
func (s TimeSlot) Window(date string, loc *time.Location) (time.Time, time.Time, error) {
	start, err := time.ParseInLocation(DateLayout+" 15:04", date+" "+s.Start, loc)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	end, err := time.ParseInLocation(DateLayout+" 15:04", date+" "+s.End, loc)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return start, end, nil
}

// SlotKey is the value guarded by the unique index on approved bookings
func SlotKey(date, slot string) string {
	return date + "|" + slot
}
