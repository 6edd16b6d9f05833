package formfill

import (
	"fmt"
	"log/slog"
)

// Outcome classifies one resolution attempt.
type Outcome string

const (
	Written  Outcome = "written"
	Skipped  Outcome = "skipped"
	Missed   Outcome = "missed"
	Drawn    Outcome = "drawn"
	Anchored Outcome = "anchored"
	Failed   Outcome = "failed"
)

// Event is one diagnostics record. The full list is returned with every
// Result so an operator can see why a value landed where it did.
type Event struct {
	Step    string  `json:"step"`
	Key     string  `json:"key,omitempty"`
	Field   string  `json:"field,omitempty"`
	Outcome Outcome `json:"outcome"`
	Detail  string  `json:"detail,omitempty"`
}

func (e Event) String() string {
	s := fmt.Sprintf("%s %s", e.Step, e.Outcome)
	if e.Key != "" {
		s += " key=" + e.Key
	}
	if e.Field != "" {
		s += " field=" + e.Field
	}
	if e.Detail != "" {
		s += " (" + e.Detail + ")"
	}
	return s
}

// recorder collects events and mirrors them to a logger at debug level.
type recorder struct {
	events []Event
	log    *slog.Logger
}

func (r *recorder) add(e Event) {
	r.events = append(r.events, e)
	r.log.Debug("formfill", "step", e.Step, "key", e.Key, "field", e.Field, "outcome", string(e.Outcome), "detail", e.Detail)
}
