package student

import (
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

// FormatDate renders backend and spreadsheet dates as 1/2/2006 without timezone shifts.
func FormatDate(value string) string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return ""
	}
	if t, ok := ParseDate(trimmed); ok {
		return t.Format("1/2/2006")
	}
	return trimmed
}

// ParseDate accepts ISO dates, common US layouts and Excel serial numbers.
func ParseDate(value string) (time.Time, bool) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return time.Time{}, false
	}
	if serial, err := strconv.ParseFloat(trimmed, 64); err == nil {
		if serial >= 20000 && serial <= 80000 {
			if parsed, err := excelize.ExcelDateToTime(serial, false); err == nil {
				return parsed, true
			}
		}
		return time.Time{}, false
	}
	layouts := []string{
		"2006-01-02",
		"1/2/2006",
		"01/02/2006",
		"1-2-2006",
		"2006/01/02",
		"Jan 2, 2006",
		"January 2, 2006",
		time.RFC3339,
		time.RFC3339Nano,
		"2006-01-02 15:04:05",
	}
	for _, layout := range layouts {
		if parsed, err := time.Parse(layout, trimmed); err == nil {
			return parsed, true
		}
	}
	return time.Time{}, false
}

func FormatDateTime(value string) string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return ""
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02 15:04:05"} {
		if parsed, err := time.Parse(layout, trimmed); err == nil {
			return parsed.Local().Format("Jan 2, 2006 3:04 PM")
		}
	}
	return FormatDate(trimmed)
}

func YesNo(v bool) string {
	if v {
		return "Yes"
	}
	return "No"
}
