package report_test

import (
	"bytes"
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mgulati3/ASU-BMF-FILLER/internal/adapters/report"
	"github.com/mgulati3/ASU-BMF-FILLER/internal/domain"
)

func sampleReport(rows int) *domain.FieldReport {
	r := &domain.FieldReport{
		TemplateID:   domain.BuiltinTemplateID,
		TemplateName: "Business Meals Form.pdf",
		GeneratedAt:  time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC),
		Unmapped:     []string{"poNumber", "largeGroupInfo"},
	}
	for i := 0; i < rows; i++ {
		row := domain.FieldReportRow{Name: fmt.Sprintf("Field %d", i), Normalized: fmt.Sprintf("field%d", i)}
		if i%3 == 0 {
			row.Keys = []string{"location"}
		}
		r.Rows = append(r.Rows, row)
	}
	return r
}

func TestGenerate(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, report.New().Generate(context.Background(), sampleReport(5), &buf))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))
}

func TestGenerate_PaginatesLongCatalogs(t *testing.T) {
	var short, long bytes.Buffer
	require.NoError(t, report.New().Generate(context.Background(), sampleReport(5), &short))
	require.NoError(t, report.New().Generate(context.Background(), sampleReport(120), &long))

	assert.Equal(t, 1, bytes.Count(short.Bytes(), []byte("/Type /Page\n")))
	assert.Greater(t, bytes.Count(long.Bytes(), []byte("/Type /Page\n")), 1)
}

func TestGenerate_EmptyCatalog(t *testing.T) {
	var buf bytes.Buffer
	r := &domain.FieldReport{TemplateName: "scan.pdf", GeneratedAt: time.Now()}
	require.NoError(t, report.New().Generate(context.Background(), r, &buf))
	assert.NotZero(t, buf.Len())
}
