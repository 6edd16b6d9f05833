package templates

import (
	"fmt"
	"html/template"
	"strings"
	"time"
)

var funcs = template.FuncMap{
	"seq":   func(i int) int { return i + 1 },
	"rows":  rows,
	"size":  humanSize,
	"date":  func(t time.Time) string { return t.Local().Format("01/02/2006 15:04") },
	"join":  strings.Join,
	"field": func(group string, i int, col string) string { return fmt.Sprintf("%s-%d-%s", group, i, col) },
}

// rows returns 0..n-1 for ranging over a fixed number of table rows.
func rows(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}

// humanSize renders a byte count as B, KB or MB.
func humanSize(n int64) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(n)/(1<<10))
	default:
		return fmt.Sprintf("%d B", n)
	}
}
