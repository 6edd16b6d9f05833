package formfill

import "strings"

const (
	keyRequesterDate = "requesterDate"
	keyTextSignature = "textSignature"
)

// fillRequesterDate places the certification date. The search runs in tiers
// and stops at the first write:
//
//  1. the literal date candidates, through the mapping then as direct names;
//  2. any field whose name contains the date keyword;
//  3. the first blank text field not named like a name, phone or signature
//     field, but only when the form has requester-like fields at all;
//  4. text drawn on page 1 beside a signature-like anchor field.
//
// Tier 3 is a best-effort guess and can pick an unrelated blank field.
func fillRequesterDate(f *filling, value string) bool {
	p := &f.patterns.Date
	step := keyRequesterDate

	if _, ok := firstSuccess(p.Candidates, func(c string) bool {
		return f.w.setTextFor(step, keyRequesterDate, c, value)
	}); ok {
		return true
	}

	if _, ok := firstSuccess(f.catalog.NamesWithAny(p.Keyword), func(name string) bool {
		return f.w.text(step, keyRequesterDate, name, value)
	}); ok {
		return true
	}

	if len(f.catalog.NamesWithAny(p.Nearby...)) > 0 {
		if _, ok := firstSuccess(f.catalog.Names(), func(name string) bool {
			if containsAny(strings.ToLower(name), p.Exclude) || f.w.claimed(name) {
				return false
			}
			cur, err := f.form.Text(name)
			if err != nil || strings.TrimSpace(cur) != "" {
				return false
			}
			return f.w.text(step, keyRequesterDate, name, value)
		}); ok {
			return true
		}
	}

	x, y := p.Placement.DefaultX, p.Placement.DefaultY
	if anchor, r, ok := f.anchor(p.Anchors); ok {
		x = r.Right + p.Placement.Offset
		y = r.Bottom + (r.Top-r.Bottom)/2
		f.rec.add(Event{Step: step, Key: keyRequesterDate, Field: anchor, Outcome: Anchored})
	}
	return f.draw(step, keyRequesterDate, value, p.Placement, x, y)
}

// fillSignature writes the text signature into the first signature-like text
// field, or draws it on page 1 below a date, name or requester anchor.
func fillSignature(f *filling, value string) bool {
	p := &f.patterns.Signature
	step := keyTextSignature

	if _, ok := firstSuccess(f.catalog.NamesWithAny(p.Keywords...), func(name string) bool {
		return f.w.text(step, keyTextSignature, name, value)
	}); ok {
		return true
	}

	x, y := p.Placement.DefaultX, p.Placement.DefaultY
	if anchor, r, ok := f.anchor(p.Anchors); ok {
		x = r.Left
		y = r.Bottom - p.Placement.Offset
		f.rec.add(Event{Step: step, Key: keyTextSignature, Field: anchor, Outcome: Anchored})
	}
	return f.draw(step, keyTextSignature, value, p.Placement, x, y)
}

// anchor returns the first field carrying one of the keywords whose bounding
// box can be read.
func (f *filling) anchor(keywords []string) (string, Rect, bool) {
	for _, name := range f.catalog.NamesWithAny(keywords...) {
		r, err := f.form.Rect(name)
		if err == nil {
			return name, r, true
		}
	}
	return "", Rect{}, false
}

// draw puts text on the first page. Placement is best effort: nothing checks
// whether the text overlaps existing content.
func (f *filling) draw(step, key, text string, pl Placement, x, y float64) bool {
	style := TextStyle{Font: pl.Font, Size: pl.Size, X: x, Y: y}
	if err := f.form.DrawText(1, text, style); err != nil {
		f.rec.add(Event{Step: step, Key: key, Outcome: Failed, Detail: "draw: " + err.Error()})
		return false
	}
	f.rec.add(Event{Step: step, Key: key, Outcome: Drawn, Detail: formatPoint(x, y)})
	return true
}
