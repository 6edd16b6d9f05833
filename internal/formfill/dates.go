package formfill

import (
	"strconv"
	"strings"
	"time"
)

const formDateLayout = "01/02/2006"

var dateInputLayouts = []string{"2006-01-02", time.RFC3339, formDateLayout, "1/2/2006"}

// FormatDate renders a date the way the paper form expects it, MM/DD/YYYY.
// Strings that are not recognisable dates are returned unchanged.
func FormatDate(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	for _, layout := range dateInputLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format(formDateLayout)
		}
	}
	return s
}

func formatPoint(x, y float64) string {
	return "(" + strconv.FormatFloat(x, 'f', -1, 64) + ", " + strconv.FormatFloat(y, 'f', -1, 64) + ")"
}
