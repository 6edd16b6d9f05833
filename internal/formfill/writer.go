package formfill

import (
	"errors"
	"strings"
)

// fieldWriter applies values to physical fields. Failures never escape: a
// missing field, a field of the wrong kind and a library error all come back
// as false, and the caller moves on to its next candidate.
//
// The first logical key written to a physical field claims it; other keys
// skip claimed fields.
type fieldWriter struct {
	form    Form
	mapping Mapping
	claims  map[string]string
	rec     *recorder
}

func newFieldWriter(form Form, mapping Mapping, rec *recorder) *fieldWriter {
	return &fieldWriter{form: form, mapping: mapping, claims: make(map[string]string), rec: rec}
}

// text writes value into the text field named field on behalf of key.
func (w *fieldWriter) text(step, key, field, value string) bool {
	if owner, ok := w.claims[field]; ok && owner != key {
		w.rec.add(Event{Step: step, Key: key, Field: field, Outcome: Skipped, Detail: "already filled by " + owner})
		return false
	}
	if err := w.form.SetText(field, value); err != nil {
		w.rec.add(Event{Step: step, Key: key, Field: field, Outcome: Missed, Detail: reason(err)})
		return false
	}
	w.claims[field] = key
	w.rec.add(Event{Step: step, Key: key, Field: field, Outcome: Written})
	return true
}

// check sets the checkbox named field on behalf of key.
func (w *fieldWriter) check(step, key, field string, checked bool) bool {
	if owner, ok := w.claims[field]; ok && owner != key {
		w.rec.add(Event{Step: step, Key: key, Field: field, Outcome: Skipped, Detail: "already filled by " + owner})
		return false
	}
	if err := w.form.SetChecked(field, checked); err != nil {
		w.rec.add(Event{Step: step, Key: key, Field: field, Outcome: Missed, Detail: reason(err)})
		return false
	}
	w.claims[field] = key
	w.rec.add(Event{Step: step, Key: key, Field: field, Outcome: Written})
	return true
}

// setText writes value for a logical key: the mapped field first, then the
// key itself as a literal field name. Empty values are never written.
func (w *fieldWriter) setText(step, key, value string) bool {
	return w.setTextFor(step, key, key, value)
}

// setTextFor is setText where the mapping lookup key differs from the logical
// value that owns the write.
func (w *fieldWriter) setTextFor(step, owner, key, value string) bool {
	if value == "" {
		return false
	}
	mapped, ok := w.mapping.Field(key)
	if ok && w.text(step, owner, mapped, value) {
		return true
	}
	if ok && mapped == key {
		return false
	}
	return w.text(step, owner, key, value)
}

// setChecked is setText for checkboxes.
func (w *fieldWriter) setChecked(step, key string, checked bool) bool {
	mapped, ok := w.mapping.Field(key)
	if ok && w.check(step, key, mapped, checked) {
		return true
	}
	if ok && mapped == key {
		return false
	}
	return w.check(step, key, key, checked)
}

// claimed reports whether any key has written field.
func (w *fieldWriter) claimed(field string) bool {
	_, ok := w.claims[field]
	return ok
}

// firstSuccess tries candidates in order and stops at the first one try
// accepts.
func firstSuccess(candidates []string, try func(string) bool) (string, bool) {
	for _, c := range candidates {
		if try(c) {
			return c, true
		}
	}
	return "", false
}

func reason(err error) string {
	switch {
	case errors.Is(err, ErrFieldNotFound):
		return "no such field"
	case errors.Is(err, ErrWrongFieldKind):
		return "wrong field kind"
	default:
		return strings.TrimSpace(err.Error())
	}
}
