package utils

import "time"

// AddCalendarMonth bir takvim ayı ileri gider. Gün hedef ayda yoksa
// ayın son gününe çekilir (31 Ocak -> 28/29 Şubat).
func AddCalendarMonth(t time.Time) time.Time {
	year, month, day := t.Date()

	// Hedef ayın son günü: bir sonraki ayın 0. günü
	lastDay := time.Date(year, month+2, 0, 0, 0, 0, 0, t.Location()).Day()
	if day > lastDay {
		day = lastDay
	}

	return time.Date(year, month+1, day,
		t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}
