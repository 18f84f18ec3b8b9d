package archive

import (
	"fmt"
	"time"
)

// FormatKoreanTimestamp renders t the way a ko-KR browser locale prints a
// date-time, e.g. "2024. 3. 9. 오후 2:05:07".
func FormatKoreanTimestamp(t time.Time) string {
	meridiem := "오전"
	if t.Hour() >= 12 {
		meridiem = "오후"
	}
	hour := t.Hour() % 12
	if hour == 0 {
		hour = 12
	}
	return fmt.Sprintf("%d. %d. %d. %s %d:%02d:%02d",
		t.Year(), int(t.Month()), t.Day(), meridiem, hour, t.Minute(), t.Second())
}
