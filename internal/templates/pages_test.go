package templates_test

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mgulati3/ASU-BMF-FILLER/internal/domain"
	"github.com/mgulati3/ASU-BMF-FILLER/internal/templates"
)

func TestIndex(t *testing.T) {
	var buf bytes.Buffer
	uploaded := []domain.TemplateRecord{{ID: "abc", OriginalName: "<Custom>.pdf", FieldCount: 12, Size: 2048, UploadedAt: time.Now()}}
	require.NoError(t, templates.Index(uploaded).Render(context.Background(), &buf))

	html := buf.String()
	assert.Contains(t, html, `<option value="abc">&lt;Custom&gt;.pdf · 12 fields · 2.0 KB</option>`)
	assert.Contains(t, html, `name="asu-4-title"`)
	assert.NotContains(t, html, `name="asu-5-title"`)
	assert.Contains(t, html, `name="other-0-affiliation"`)
	assert.Contains(t, html, domain.DefaultExpenseType)
}

func TestFieldList(t *testing.T) {
	var buf bytes.Buffer
	r := &domain.FieldReport{
		TemplateName: "form.pdf",
		Rows: []domain.FieldReportRow{
			{Name: "Location", Normalized: "location", Keys: []string{"location"}},
			{Name: "Notes", Normalized: "notes"},
		},
		Unmapped: []string{"poNumber"},
	}
	require.NoError(t, templates.FieldList(r).Render(context.Background(), &buf))

	html := buf.String()
	assert.Equal(t, 1, strings.Count(html, `class="mapped"`))
	assert.Contains(t, html, "form.pdf · 2 fields")
	assert.Contains(t, html, "Keys without a field: poNumber")
}

func TestFieldList_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, templates.FieldList(&domain.FieldReport{TemplateName: "scan.pdf"}).Render(context.Background(), &buf))
	assert.Contains(t, buf.String(), "No fillable form fields found")
}
