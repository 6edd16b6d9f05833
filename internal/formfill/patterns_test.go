package formfill_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mgulati3/ASU-BMF-FILLER/internal/formfill"
)

func TestDefaultPatterns(t *testing.T) {
	p := formfill.DefaultPatterns()

	require.NoError(t, p.Validate())
	assert.Equal(t, 5, p.Attendees.Limit)
	assert.Equal(t, []string{"location", "eventlocation", "place", "venue"}, p.Fragments("location"))
	assert.Nil(t, p.Fragments("nope"))
	assert.Equal(t,
		[]string{"asuName{n}", "asu_name_{n}", "asuAttendee{n}Name", "asuAttendee{n}", "asu{n}Name", "asu{n}"},
		p.Attendees.ASU.Name)
	assert.Equal(t, formfill.Placement{Font: formfill.Helvetica, Size: 10, Offset: 20, DefaultX: 500, DefaultY: 100}, p.Date.Placement)
	assert.Equal(t, formfill.Placement{Font: formfill.TimesItalic, Size: 12, Offset: 20, DefaultX: 100, DefaultY: 100}, p.Signature.Placement)
}

const minimalPatterns = `
fields:
  - key: location
    fragments: [venue]
attendees:
  limit: 2
  asu:
    name: ["n{n}"]
    department: ["d{n}"]
    title: ["t{n}"]
  other:
    name: ["on{n}"]
    affiliation: ["oa{n}"]
    title: ["ot{n}"]
date:
  candidates: [date]
  keyword: date
  placement: {font: Helvetica, size: 9}
signature:
  keywords: [sign]
  placement: {font: Times-Italic, size: 11}
`

func TestParsePatterns(t *testing.T) {
	p, err := formfill.ParsePatterns([]byte(minimalPatterns))
	require.NoError(t, err)
	assert.Equal(t, "1", p.Version)
	assert.Equal(t, 2, p.Attendees.Limit)

	form := newFakeForm("venue", "n1", "n2", "n3")
	res := formfill.New(opener(form), formfill.WithPatterns(p)).Fill(nil, attendeesOnly("a", "b", "c"))
	require.True(t, res.Success)
	assert.Equal(t, []string{"n1", "n2"}, form.writes)
}

func TestParsePatterns_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(string) string
		wantErr string
	}{
		{"bad yaml", func(string) string { return "fields: [" }, "failed to parse patterns YAML"},
		{"missing key", func(s string) string { return strings.Replace(s, "key: location", "key: \"\"", 1) }, "missing key"},
		{"no fragments", func(s string) string { return strings.Replace(s, "fragments: [venue]", "fragments: []", 1) }, "no fragments"},
		{"limit too big", func(s string) string { return strings.Replace(s, "limit: 2", "limit: 6", 1) }, "between 1 and 5"},
		{"no placeholder", func(s string) string { return strings.Replace(s, `"d{n}"`, `"dept"`, 1) }, "no {n} placeholder"},
		{"no keyword", func(s string) string { return strings.Replace(s, "keyword: date", "keyword: \"\"", 1) }, "date.keyword"},
		{"zero size", func(s string) string { return strings.Replace(s, "size: 11", "size: 0", 1) }, "signature.placement.size"},
		{
			"duplicate key",
			func(s string) string {
				return strings.Replace(s, "fields:\n", "fields:\n  - key: location\n    fragments: [place]\n", 1)
			},
			"duplicate key",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := formfill.ParsePatterns([]byte(tt.mutate(minimalPatterns)))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadPatternsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "patterns.yaml")
	require.NoError(t, os.WriteFile(path, []byte(minimalPatterns), 0o644))

	p, err := formfill.LoadPatternsFile(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"venue"}, p.Fragments("location"))

	_, err = formfill.LoadPatternsFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "failed to read patterns file")
}
