package formfill

import (
	"fmt"

	"github.com/mgulati3/ASU-BMF-FILLER/internal/domain"
)

// subField is one column of an attendee row with its literal name guesses.
type subField struct {
	column   string
	value    string
	patterns []string
}

// fillAttendees writes the ASU and other attendee tables row by row. Each
// column is resolved by literal pattern guesses only; the fragment matcher is
// not consulted because attendee field names vary too much between
// templates. Rows past the table limit are ignored.
func fillAttendees(w *fieldWriter, p *AttendeeTables, asu []domain.Attendee, other []domain.OtherAttendee) int {
	limit := p.Limit
	if limit <= 0 || limit > domain.MaxAttendees {
		limit = domain.MaxAttendees
	}

	filled := 0
	for i := 0; i < len(asu) && i < limit; i++ {
		a := asu[i]
		filled += fillRow(w, "asuAttendees", i, []subField{
			{"name", a.Name, p.ASU.Name},
			{"department", a.Department, p.ASU.Department},
			{"title", a.Title, p.ASU.Title},
		})
	}
	for i := 0; i < len(other) && i < limit; i++ {
		o := other[i]
		filled += fillRow(w, "otherAttendees", i, []subField{
			{"name", o.Name, p.Other.Name},
			{"affiliation", o.Affiliation, p.Other.Affiliation},
			{"title", o.Title, p.Other.Title},
		})
	}
	return filled
}

func fillRow(w *fieldWriter, group string, index int, cols []subField) int {
	filled := 0
	for _, c := range cols {
		if c.value == "" {
			continue
		}
		key := fmt.Sprintf("%s[%d].%s", group, index, c.column)
		candidates := expand(c.patterns, index+1)
		_, ok := firstSuccess(candidates, func(name string) bool {
			return w.text("attendees", key, name, c.value)
		})
		if ok {
			filled++
			continue
		}
		w.rec.add(Event{Step: "attendees", Key: key, Outcome: Missed, Detail: "no pattern matched"})
	}
	return filled
}
