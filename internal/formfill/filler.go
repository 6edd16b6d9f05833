package formfill

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/mgulati3/ASU-BMF-FILLER/internal/domain"
)

// Result is the outcome of one fill. FilledCount alone decides Success.
type Result struct {
	Success     bool
	FilledCount int
	Output      []byte
	FieldNames  []string
	Err         error
	Events      []Event
}

// Filler sequences field resolution, writing and positional fallback over one
// ExpenseForm. A Filler holds no per-fill state and may be shared.
type Filler struct {
	opener   Opener
	patterns *Patterns
	log      *slog.Logger
}

// Option configures a Filler.
type Option func(*Filler)

// WithPatterns replaces the built-in pattern table.
func WithPatterns(p *Patterns) Option {
	return func(f *Filler) {
		if p != nil {
			f.patterns = p
		}
	}
}

// WithLogger mirrors diagnostics events to l at debug level.
func WithLogger(l *slog.Logger) Option {
	return func(f *Filler) {
		if l != nil {
			f.log = l
		}
	}
}

func New(opener Opener, opts ...Option) *Filler {
	f := &Filler{
		opener:   opener,
		patterns: DefaultPatterns(),
		log:      slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Patterns returns the table the filler matches with.
func (fl *Filler) Patterns() *Patterns { return fl.patterns }

// filling is the state of a single fill operation.
type filling struct {
	w        *fieldWriter
	catalog  *Catalog
	patterns *Patterns
	form     Form
	rec      *recorder
	filled   int
}

// Fill writes data into a copy of template.
func (fl *Filler) Fill(template []byte, data *domain.ExpenseForm) *Result {
	rec := &recorder{log: fl.log}

	form, err := fl.opener.Open(template)
	if err != nil {
		rec.add(Event{Step: "load", Outcome: Failed, Detail: err.Error()})
		return failed(rec, nil, fmt.Errorf("%w: %v", ErrTemplateInvalid, err))
	}

	catalog := NewCatalog(form.FieldNames())
	names := catalog.Names()
	if catalog.Len() == 0 {
		rec.add(Event{Step: "catalog", Outcome: Failed, Detail: "no fields"})
		return failed(rec, names, ErrNoFillableFields)
	}

	mapping := BuildMapping(catalog, fl.patterns)
	f := &filling{
		w:        newFieldWriter(form, mapping, rec),
		catalog:  catalog,
		patterns: fl.patterns,
		form:     form,
		rec:      rec,
	}

	f.texts(
		"expenseType", data.EffectiveExpenseType(),
		"location", data.Location,
		"eventDate", FormatDate(data.EventDate),
		"businessPurpose", data.BusinessPurpose,
		"costCenter", data.CostCenter,
		"poNumber", data.PONumber,
		"totalAmount", data.TotalAmount,
	)
	switch data.PaymentMethod {
	case domain.PaymentCard:
		f.count(f.w.setChecked("paymentMethod", "paymentMethodCard", true))
	case domain.PaymentInvoice:
		f.count(f.w.setChecked("paymentMethod", "paymentMethodInvoice", true))
	}
	f.texts("supplierName", data.SupplierName)

	f.filled += fillAttendees(f.w, &fl.patterns.Attendees, data.ASUAttendees, data.OtherAttendees)

	f.texts(
		"largeGroupInfo", data.LargeGroupInfo,
		"requesterName", data.RequesterName,
		"requesterPhone", data.RequesterPhone,
		"directInquiriesTo", data.DirectInquiriesTo,
		"directInquiriesDate", FormatDate(data.DirectInquiriesDate),
		"costCenterManager", data.CostCenterManager,
		"costCenterManagerDate", FormatDate(data.CostCenterManagerDate),
		"deanDirector", data.DeanDirector,
		"deanDirectorDate", FormatDate(data.DeanDirectorDate),
		"other", data.Other,
		"otherDate", FormatDate(data.OtherDate),
	)

	if v := FormatDate(data.RequesterDate); v != "" {
		f.count(fillRequesterDate(f, v))
	}
	if data.TextSignature != "" {
		f.count(fillSignature(f, data.TextSignature))
	}

	if f.filled == 0 {
		return failed(rec, names, ErrNothingFilled)
	}

	out, err := form.Save()
	if err != nil {
		rec.add(Event{Step: "save", Outcome: Failed, Detail: err.Error()})
		return failed(rec, names, fmt.Errorf("failed to save filled form: %w", err))
	}
	return &Result{
		Success:     true,
		FilledCount: f.filled,
		Output:      out,
		FieldNames:  names,
		Events:      rec.events,
	}
}

// texts writes key/value pairs through the mapped and direct paths.
func (f *filling) texts(kv ...string) {
	for i := 0; i+1 < len(kv); i += 2 {
		key, value := kv[i], kv[i+1]
		if value == "" {
			continue
		}
		if !f.w.setText(key, key, value) {
			f.rec.add(Event{Step: key, Key: key, Outcome: Missed, Detail: "no field accepted the value"})
			continue
		}
		f.filled++
	}
}

func (f *filling) count(ok bool) {
	if ok {
		f.filled++
	}
}

func failed(rec *recorder, names []string, err error) *Result {
	if names == nil {
		names = []string{}
	}
	return &Result{FieldNames: names, Err: err, Events: rec.events}
}

// Inspection is what a troubleshooting view needs to know about a template.
type Inspection struct {
	Catalog *Catalog
	Mapping Mapping
	// Unmapped lists pattern keys no field resolved to, in table order.
	Unmapped []string
}

// Keys returns the logical keys resolved to field, sorted.
func (in *Inspection) Keys(field string) []string {
	return in.Mapping.Reverse()[field]
}

// Inspect extracts the catalog of template and resolves the mapping without
// writing anything. An empty catalog is not an error here.
func (fl *Filler) Inspect(template []byte) (*Inspection, error) {
	form, err := fl.opener.Open(template)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTemplateInvalid, err)
	}
	catalog := NewCatalog(form.FieldNames())
	in := &Inspection{Catalog: catalog, Mapping: BuildMapping(catalog, fl.patterns)}
	for _, fp := range fl.patterns.Fields {
		if _, ok := in.Mapping[fp.Key]; !ok {
			in.Unmapped = append(in.Unmapped, fp.Key)
		}
	}
	return in, nil
}

// UserMessage returns the fixed sentence shown to end users for a fill error.
func UserMessage(err error) string {
	for _, sentinel := range []error{ErrTemplateInvalid, ErrNoFillableFields, ErrNothingFilled} {
		if errors.Is(err, sentinel) {
			return sentinel.Error() + "."
		}
	}
	if err == nil {
		return ""
	}
	return "failed to fill PDF form: " + err.Error()
}
