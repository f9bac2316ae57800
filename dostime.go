package zipkit

import "time"

// timeToDos packs t into MS-DOS date and time fields.
// The DOS epoch starts in 1980; earlier times clamp to it.
func timeToDos(t time.Time) (dosDate, dosTime uint16) {
	if t.Year() < 1980 {
		return 0x21, 0 // 1980-01-01 00:00:00
	}
	dosDate = uint16(t.Day()) | uint16(t.Month())<<5 | uint16(t.Year()-1980)<<9
	dosTime = uint16(t.Second()/2) | uint16(t.Minute())<<5 | uint16(t.Hour())<<11
	return dosDate, dosTime
}

// dosToTime unpacks MS-DOS date and time fields. ok is false when the
// stored fields are outside the valid calendar range, in which case
// the zero time is returned.
func dosToTime(dosDate, dosTime uint16) (t time.Time, ok bool) {
	year := int(dosDate>>9&0x7F) + 1980
	month := int(dosDate >> 5 & 0xF)
	day := int(dosDate & 0x1F)
	hour := int(dosTime >> 11 & 0x1F)
	minute := int(dosTime >> 5 & 0x3F)
	second := int(dosTime&0x1F) * 2

	if month < 1 || month > 12 || day < 1 || day > 31 || hour > 23 || minute > 59 || second > 59 {
		return time.Time{}, false
	}
	return time.Date(year, time.Month(month), day, hour, minute, second, 0, time.UTC), true
}
