// Package formfill fills fillable PDF form templates whose field names are not
// known in advance. Logical values are resolved to physical AcroForm fields by
// exact name, then by normalized name fragments, then by literal pattern
// guesses. Values that still have no field (the certification date and the
// text signature) are drawn directly onto the first page next to an anchor
// field.
//
// The package works against the Form interface; the PDF library lives in an
// adapter (see internal/adapters/acroform).
package formfill

import "errors"

var (
	// ErrFieldNotFound is returned by a Form when no field has the given name.
	ErrFieldNotFound = errors.New("field not found")
	// ErrWrongFieldKind is returned by a Form when the named field exists but
	// is not of the kind the operation needs.
	ErrWrongFieldKind = errors.New("wrong field kind")

	// ErrTemplateInvalid means the template bytes could not be loaded as a PDF form.
	ErrTemplateInvalid = errors.New("The PDF template is not valid or is corrupted. Please try a different PDF template")
	// ErrNoFillableFields means the template parsed but has no form fields.
	ErrNoFillableFields = errors.New("No fillable form fields found in the PDF. Please ensure you're using a fillable PDF form template")
	// ErrNothingFilled means no logical value could be written anywhere.
	ErrNothingFilled = errors.New("Could not match any form fields with the PDF. Please check the field mapping")
)

// Rect is a widget bounding box in page coordinates.
type Rect struct {
	Left, Bottom, Right, Top float64
}

// Font names one of the standard 14 PDF fonts.
type Font string

const (
	Helvetica   Font = "Helvetica"
	TimesItalic Font = "Times-Italic"
)

// TextStyle places literal text on a page.
type TextStyle struct {
	Font Font
	Size float64
	X, Y float64
}

// Form is the slice of a PDF document library the filler needs. A Form is
// owned by a single fill operation and is not safe for concurrent use.
type Form interface {
	// FieldNames lists terminal field names in document order.
	FieldNames() []string
	// SetText sets the value of a text field.
	SetText(name, value string) error
	// Text returns the current value of a text field.
	Text(name string) (string, error)
	// SetChecked checks or unchecks a checkbox.
	SetChecked(name string, checked bool) error
	// Rect returns the bounding box of the field's first widget.
	Rect(name string) (Rect, error)
	// DrawText draws text on a 1-based page.
	DrawText(page int, text string, style TextStyle) error
	// Save serializes the document.
	Save() ([]byte, error)
}

// Opener loads template bytes into a Form.
type Opener interface {
	Open(template []byte) (Form, error)
}

// OpenerFunc adapts a function to Opener.
type OpenerFunc func(template []byte) (Form, error)

func (f OpenerFunc) Open(template []byte) (Form, error) { return f(template) }
