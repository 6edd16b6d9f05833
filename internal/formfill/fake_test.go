package formfill_test

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mgulati3/ASU-BMF-FILLER/internal/domain"
	"github.com/mgulati3/ASU-BMF-FILLER/internal/formfill"
)

// ---------------------------------------------------------------------------
// In-memory Form
// ---------------------------------------------------------------------------

type fakeField struct {
	checkbox bool
	value    string
	checked  bool
	rect     *formfill.Rect
}

type drawCall struct {
	Page  int
	Text  string
	Style formfill.TextStyle
}

// fakeForm records every write so tests can assert on what was touched.
type fakeForm struct {
	order  []string
	fields map[string]*fakeField
	draws  []drawCall
	writes []string

	drawErr error
	saveErr error
}

func newFakeForm(names ...string) *fakeForm {
	f := &fakeForm{fields: make(map[string]*fakeField)}
	for _, n := range names {
		f.addText(n)
	}
	return f
}

func (f *fakeForm) addText(name string) *fakeForm {
	f.order = append(f.order, name)
	f.fields[name] = &fakeField{}
	return f
}

func (f *fakeForm) addCheckbox(name string) *fakeForm {
	f.order = append(f.order, name)
	f.fields[name] = &fakeField{checkbox: true}
	return f
}

func (f *fakeForm) withRect(name string, r formfill.Rect) *fakeForm {
	f.fields[name].rect = &r
	return f
}

func (f *fakeForm) FieldNames() []string { return append([]string(nil), f.order...) }

func (f *fakeForm) SetText(name, value string) error {
	fld, ok := f.fields[name]
	if !ok {
		return fmt.Errorf("%q: %w", name, formfill.ErrFieldNotFound)
	}
	if fld.checkbox {
		return fmt.Errorf("%q: %w", name, formfill.ErrWrongFieldKind)
	}
	fld.value = value
	f.writes = append(f.writes, name)
	return nil
}

func (f *fakeForm) Text(name string) (string, error) {
	fld, ok := f.fields[name]
	if !ok {
		return "", formfill.ErrFieldNotFound
	}
	if fld.checkbox {
		return "", formfill.ErrWrongFieldKind
	}
	return fld.value, nil
}

func (f *fakeForm) SetChecked(name string, checked bool) error {
	fld, ok := f.fields[name]
	if !ok {
		return formfill.ErrFieldNotFound
	}
	if !fld.checkbox {
		return formfill.ErrWrongFieldKind
	}
	fld.checked = checked
	f.writes = append(f.writes, name)
	return nil
}

func (f *fakeForm) Rect(name string) (formfill.Rect, error) {
	fld, ok := f.fields[name]
	if !ok {
		return formfill.Rect{}, formfill.ErrFieldNotFound
	}
	if fld.rect == nil {
		return formfill.Rect{}, errors.New("no widget")
	}
	return *fld.rect, nil
}

func (f *fakeForm) DrawText(page int, text string, style formfill.TextStyle) error {
	if f.drawErr != nil {
		return f.drawErr
	}
	f.draws = append(f.draws, drawCall{Page: page, Text: text, Style: style})
	return nil
}

// Save serializes the field values as JSON, enough for round-trip checks.
func (f *fakeForm) Save() ([]byte, error) {
	if f.saveErr != nil {
		return nil, f.saveErr
	}
	vals := make(map[string]string, len(f.fields))
	for n, fld := range f.fields {
		if fld.checkbox {
			if fld.checked {
				vals[n] = "Yes"
			}
			continue
		}
		vals[n] = fld.value
	}
	return json.Marshal(vals)
}

func (f *fakeForm) value(name string) string { return f.fields[name].value }

// opener hands out form regardless of the template bytes.
func opener(form *fakeForm) formfill.Opener {
	return formfill.OpenerFunc(func([]byte) (formfill.Form, error) { return form, nil })
}

func failingOpener(err error) formfill.Opener {
	return formfill.OpenerFunc(func([]byte) (formfill.Form, error) { return nil, err })
}

func attendeesOnly(names ...string) *domain.ExpenseForm {
	data := &domain.ExpenseForm{}
	for _, n := range names {
		data.ASUAttendees = append(data.ASUAttendees, domain.Attendee{Name: n})
	}
	return data
}
