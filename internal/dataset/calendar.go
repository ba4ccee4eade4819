package dataset

import "time"

// Calendar is the calendar breakdown of one hourly timestamp. Preprocessing
// and training both derive it from here so the stored and re-derived values
// can never drift apart.
type Calendar struct {
	Hour      int // 0-23
	DayOfWeek int // Monday=0 .. Sunday=6
	Month     int // 1-12
	ISOWeek   int
}

func CalendarOf(t time.Time) Calendar {
	_, week := t.ISOWeek()
	return Calendar{
		Hour:      t.Hour(),
		DayOfWeek: (int(t.Weekday()) + 6) % 7,
		Month:     int(t.Month()),
		ISOWeek:   week,
	}
}

func (c Calendar) Weekend() bool {
	return c.DayOfWeek >= 5
}
