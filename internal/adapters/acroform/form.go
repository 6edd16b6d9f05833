// Package acroform implements formfill.Form over pdfcpu. Field values are
// written straight into the AcroForm dictionaries and NeedAppearances is set
// so viewers regenerate text appearances; positional text is added as a
// page stamp.
package acroform

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"
	"unicode/utf16"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"

	"github.com/mgulati3/ASU-BMF-FILLER/internal/formfill"
)

// Kind is the field type as far as filling is concerned.
type Kind string

const (
	KindText     Kind = "text"
	KindCheckbox Kind = "checkbox"
	KindOther    Kind = "other"
)

const (
	flagRadio      = 1 << 15
	flagPushbutton = 1 << 16

	maxFieldDepth = 32
)

// Field is a read-only view of one terminal field.
type Field struct {
	Name  string `json:"name"`
	Kind  Kind   `json:"kind"`
	Value string `json:"value,omitempty"`
}

type field struct {
	name    string
	kind    Kind
	dict    types.Dict
	widgets []types.Dict
}

// Form is a loaded PDF document with its field index.
type Form struct {
	conf     *model.Configuration
	ctx      *model.Context
	acroForm types.Dict
	order    []string
	fields   map[string]*field
	dirty    bool
}

var _ formfill.Form = (*Form)(nil)

// Opener loads templates with a relaxed pdfcpu configuration. Every loaded
// Form works on its own copy of it.
type Opener struct {
	conf *model.Configuration
}

func NewOpener() *Opener {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return &Opener{conf: conf}
}

// Open implements formfill.Opener.
func (o *Opener) Open(template []byte) (formfill.Form, error) {
	return o.Load(template)
}

// Load is Open returning the concrete type.
func (o *Opener) Load(template []byte) (*Form, error) {
	conf := *o.conf
	f := &Form{conf: &conf}
	if err := f.read(template); err != nil {
		return nil, err
	}
	return f, nil
}

// read replaces the document with a fresh context parsed from data.
func (f *Form) read(data []byte) error {
	return catch("read PDF", func() error {
		ctx, err := api.ReadContext(bytes.NewReader(data), f.conf)
		if err != nil {
			return fmt.Errorf("failed to read PDF context: %w", err)
		}
		if err := ctx.EnsurePageCount(); err != nil {
			return fmt.Errorf("failed to ensure page count: %w", err)
		}
		f.ctx = ctx
		return f.index()
	})
}

// catch runs fn and turns a pdfcpu panic into an error.
func catch(op string, fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%s: pdfcpu panic: %v", op, r)
		}
	}()
	return fn()
}

// index walks the AcroForm field tree and records every terminal field under
// its fully qualified name. The first field wins when names repeat.
func (f *Form) index() error {
	f.acroForm = nil
	f.order = nil
	f.fields = make(map[string]*field)

	root, err := f.ctx.Catalog()
	if err != nil {
		return fmt.Errorf("failed to get catalog: %w", err)
	}
	obj, found := root.Find("AcroForm")
	if !found {
		return nil
	}
	acroForm, err := f.ctx.DereferenceDict(obj)
	if err != nil {
		return fmt.Errorf("failed to dereference AcroForm: %w", err)
	}
	if acroForm == nil {
		return nil
	}
	f.acroForm = acroForm

	fieldsObj, found := acroForm.Find("Fields")
	if !found {
		return nil
	}
	fields, err := f.ctx.DereferenceArray(fieldsObj)
	if err != nil {
		return fmt.Errorf("failed to dereference Fields array: %w", err)
	}
	for _, o := range fields {
		f.walk(o, "", "", 0, 0)
	}
	return nil
}

// walk visits one node of the field tree. FT and Ff are inheritable.
func (f *Form) walk(obj types.Object, parent, ft string, flags, depth int) {
	if depth > maxFieldDepth {
		return
	}
	d, err := f.ctx.DereferenceDict(obj)
	if err != nil || d == nil {
		return
	}

	name := parent
	if t, ok := d.Find("T"); ok {
		if s, err := f.ctx.DereferenceStringOrHexLiteral(t, model.V10, nil); err == nil {
			name = s
			if parent != "" {
				name = parent + "." + s
			}
		}
	}
	if o, ok := d.Find("FT"); ok {
		if n, err := f.ctx.DereferenceName(o, model.V10, nil); err == nil {
			ft = string(n)
		}
	}
	if o, ok := d.Find("Ff"); ok {
		if i, err := f.ctx.DereferenceInteger(o); err == nil && i != nil {
			flags = int(*i)
		}
	}

	var kids []types.Object
	var widgets []types.Dict
	if o, ok := d.Find("Kids"); ok {
		arr, err := f.ctx.DereferenceArray(o)
		if err == nil {
			for _, k := range arr {
				kd, err := f.ctx.DereferenceDict(k)
				if err != nil || kd == nil {
					continue
				}
				if _, ok := kd.Find("T"); ok {
					kids = append(kids, k)
				} else {
					widgets = append(widgets, kd)
				}
			}
		}
	}
	if len(kids) > 0 {
		for _, k := range kids {
			f.walk(k, name, ft, flags, depth+1)
		}
		return
	}

	if _, ok := d.Find("Rect"); ok {
		widgets = append([]types.Dict{d}, widgets...)
	}
	if name == "" {
		return
	}
	if _, dup := f.fields[name]; dup {
		return
	}
	f.fields[name] = &field{name: name, kind: kindOf(ft, flags), dict: d, widgets: widgets}
	f.order = append(f.order, name)
}

func kindOf(ft string, flags int) Kind {
	switch ft {
	case "Tx":
		return KindText
	case "Btn":
		if flags&(flagRadio|flagPushbutton) != 0 {
			return KindOther
		}
		return KindCheckbox
	default:
		return KindOther
	}
}

func (f *Form) lookup(name string, want Kind) (*field, error) {
	fld, ok := f.fields[name]
	if !ok {
		return nil, fmt.Errorf("%q: %w", name, formfill.ErrFieldNotFound)
	}
	if want != "" && fld.kind != want {
		return nil, fmt.Errorf("%q is a %s field: %w", name, fld.kind, formfill.ErrWrongFieldKind)
	}
	return fld, nil
}

func (f *Form) FieldNames() []string {
	return append([]string(nil), f.order...)
}

// Fields lists every terminal field with its kind and current value.
func (f *Form) Fields() []Field {
	out := make([]Field, 0, len(f.order))
	for _, n := range f.order {
		fld := f.fields[n]
		v := Field{Name: n, Kind: fld.kind}
		switch fld.kind {
		case KindText:
			v.Value, _ = f.Text(n)
		case KindCheckbox:
			if checked, err := f.Checked(n); err == nil && checked {
				v.Value = onState(f.ctx, fld)
			}
		}
		out = append(out, v)
	}
	return out
}

// SetText stores value as the field's /V. Existing text appearances are
// dropped so the viewer rebuilds them from the new value.
func (f *Form) SetText(name, value string) error {
	fld, err := f.lookup(name, KindText)
	if err != nil {
		return err
	}
	fld.dict["V"] = encodeText(value)
	for _, w := range fld.widgets {
		delete(w, "AP")
	}
	f.dirty = true
	return nil
}

func (f *Form) Text(name string) (string, error) {
	fld, err := f.lookup(name, KindText)
	if err != nil {
		return "", err
	}
	o, ok := fld.dict.Find("V")
	if !ok || o == nil {
		return "", nil
	}
	s, err := f.ctx.DereferenceStringOrHexLiteral(o, model.V10, nil)
	if err != nil {
		return "", fmt.Errorf("%q: %w", name, err)
	}
	return s, nil
}

// SetChecked sets /V and every widget's /AS to the on state named in the
// widget's normal appearance, or to Off.
func (f *Form) SetChecked(name string, checked bool) error {
	fld, err := f.lookup(name, KindCheckbox)
	if err != nil {
		return err
	}
	state := types.Name("Off")
	if checked {
		state = types.Name(onState(f.ctx, fld))
	}
	fld.dict["V"] = state
	for _, w := range fld.widgets {
		w["AS"] = state
	}
	f.dirty = true
	return nil
}

// Checked reports whether a checkbox is in a state other than Off.
func (f *Form) Checked(name string) (bool, error) {
	fld, err := f.lookup(name, KindCheckbox)
	if err != nil {
		return false, err
	}
	o, ok := fld.dict.Find("V")
	if !ok {
		return false, nil
	}
	n, err := f.ctx.DereferenceName(o, model.V10, nil)
	if err != nil {
		return false, fmt.Errorf("%q: %w", name, err)
	}
	return n != "" && n != "Off", nil
}

// onState is the widget's current /AS when that is an on state of its
// normal appearance, otherwise the first non-Off key of /AP /N in name order.
func onState(ctx *model.Context, fld *field) string {
	for _, w := range fld.widgets {
		apObj, ok := w.Find("AP")
		if !ok {
			continue
		}
		ap, err := ctx.DereferenceDict(apObj)
		if err != nil || ap == nil {
			continue
		}
		nObj, ok := ap.Find("N")
		if !ok {
			continue
		}
		n, err := ctx.DereferenceDict(nObj)
		if err != nil || n == nil {
			continue
		}
		if o, ok := w.Find("AS"); ok {
			if as, err := ctx.DereferenceName(o, model.V10, nil); err == nil && as != "Off" {
				if _, ok := n[string(as)]; ok {
					return string(as)
				}
			}
		}
		for _, k := range slices.Sorted(maps.Keys(n)) {
			if k != "Off" {
				return k
			}
		}
	}
	return "Yes"
}

// Rect returns the normalized /Rect of the field's first widget.
func (f *Form) Rect(name string) (formfill.Rect, error) {
	fld, err := f.lookup(name, "")
	if err != nil {
		return formfill.Rect{}, err
	}
	if len(fld.widgets) == 0 {
		return formfill.Rect{}, fmt.Errorf("%q has no widget", name)
	}
	o, _ := fld.widgets[0].Find("Rect")
	arr, err := f.ctx.DereferenceArray(o)
	if err != nil || len(arr) != 4 {
		return formfill.Rect{}, fmt.Errorf("%q: malformed Rect", name)
	}
	var c [4]float64
	for i, v := range arr {
		n, err := f.ctx.DereferenceNumber(v)
		if err != nil {
			return formfill.Rect{}, fmt.Errorf("%q: Rect[%d]: %w", name, i, err)
		}
		c[i] = n
	}
	return formfill.Rect{
		Left:   min(c[0], c[2]),
		Bottom: min(c[1], c[3]),
		Right:  max(c[0], c[2]),
		Top:    max(c[1], c[3]),
	}, nil
}

// DrawText stamps text onto page with its baseline origin at the style's
// point. Stamping goes through a serialize and re-read cycle, so the field
// index is rebuilt afterwards; values set before the call are kept. On
// failure the document is left as it was before the call.
func (f *Form) DrawText(page int, text string, style formfill.TextStyle) error {
	if page < 1 || page > f.ctx.PageCount {
		return fmt.Errorf("page %d out of range (document has %d)", page, f.ctx.PageCount)
	}
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("nothing to draw")
	}

	desc := fmt.Sprintf("fontname:%s, points:%s, scalefactor:1 abs, position:bl, offset:0 0, rotation:0, opacity:1, fillcolor:#000000",
		style.Font, strconv.FormatFloat(style.Size, 'f', -1, 64))
	wm, err := pdfcpu.ParseTextWatermarkDetails(text, desc, true, types.POINTS)
	if err != nil {
		return fmt.Errorf("failed to parse text stamp: %w", err)
	}
	wm.Dx = style.X
	wm.Dy = style.Y

	in, err := f.Save()
	if err != nil {
		return err
	}
	// AddWatermarks rewrites the command mode of the configuration it gets.
	conf := *f.conf
	var out bytes.Buffer
	err = catch("stamp text", func() error {
		return api.AddWatermarks(bytes.NewReader(in), &out, []string{strconv.Itoa(page)}, wm, &conf)
	})
	if err != nil {
		return fmt.Errorf("failed to stamp text: %w", err)
	}
	if err := f.read(out.Bytes()); err != nil {
		if rerr := f.read(in); rerr != nil {
			return fmt.Errorf("failed to restore document: %w", rerr)
		}
		return fmt.Errorf("failed to reload stamped PDF: %w", err)
	}
	return nil
}

// Save serializes the document and continues on a context re-read from the
// written bytes; pdfcpu contexts are not reusable after a write.
// NeedAppearances is set once any value has been written.
func (f *Form) Save() ([]byte, error) {
	if f.dirty && f.acroForm != nil {
		f.acroForm["NeedAppearances"] = types.Boolean(true)
	}
	var buf bytes.Buffer
	err := catch("write PDF", func() error {
		return api.WriteContext(f.ctx, &buf)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to write PDF: %w", err)
	}
	out := buf.Bytes()
	if err := f.read(out); err != nil {
		return nil, fmt.Errorf("failed to reload written PDF: %w", err)
	}
	return out, nil
}

// encodeText produces a literal string for ASCII values and a UTF-16BE hex
// string with byte order mark otherwise.
func encodeText(s string) types.Object {
	ascii := true
	for _, r := range s {
		if r > 127 {
			ascii = false
			break
		}
	}
	if ascii {
		return types.StringLiteral(escapeLiteral(s))
	}
	units := utf16.Encode([]rune(s))
	b := make([]byte, 2, 2+2*len(units))
	b[0], b[1] = 0xFE, 0xFF
	for _, u := range units {
		b = append(b, byte(u>>8), byte(u))
	}
	return types.HexLiteral(strings.ToUpper(hex.EncodeToString(b)))
}

func escapeLiteral(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch r {
		case '\\':
			b.WriteString(`\\`)
		case '(':
			b.WriteString(`\(`)
		case ')':
			b.WriteString(`\)`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
