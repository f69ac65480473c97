package studentform

import (
	"strconv"
	"strings"

	"github.com/KaiSwain/hammer-portfolio-django/internal/student"
)

type ReviewRow struct {
	Label string
	Value string
}

// Review renders the draft for the confirmation screen.
func (c *Controller) Review(details student.Details) []ReviewRow {
	rows := make([]ReviewRow, 0, len(fieldIndex))
	for _, f := range Fields() {
		rows = append(rows, ReviewRow{Label: f.Label, Value: c.display(f, details)})
	}
	return rows
}

func (c *Controller) display(f Field, details student.Details) string {
	if f.Kind == KindBool {
		return student.YesNo(c.flags[f.Name])
	}
	raw := strings.TrimSpace(c.text[f.Name])
	if raw == "" {
		return "-"
	}
	switch f.Kind {
	case KindRef:
		if id, err := strconv.ParseInt(raw, 10, 64); err == nil {
			if label := details.Label(f.Lookup, id); label != "" {
				return label
			}
		}
	case KindDate:
		return student.FormatDate(raw)
	}
	return raw
}
