package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/mgulati3/ASU-BMF-FILLER/internal/domain"
)

var pdfMagic = []byte("%PDF-")

// UploadTemplate stores a user-supplied template and records its field count.
// A PDF the engine cannot parse is still accepted with a count of zero.
func (s *FillService) UploadTemplate(ctx context.Context, name, contentType string, data []byte) (*domain.TemplateRecord, error) {
	if len(data) == 0 {
		return nil, ErrNoFile
	}
	if !isPDF(name, contentType, data) {
		return nil, ErrNotPDF
	}

	id := s.newID()
	rec := &domain.TemplateRecord{
		ID:           id,
		OriginalName: filepath.Base(name),
		StoredName:   "template_" + id + ".pdf",
		Size:         int64(len(data)),
		UploadedAt:   s.now().UTC(),
	}
	if in, err := s.Filler.Inspect(data); err == nil {
		rec.FieldCount = in.Catalog.Len()
	} else {
		s.Logger.Warn("uploaded template is not parseable", "name", rec.OriginalName, "err", err)
	}

	if err := s.TemplateStore.Put(ctx, rec.StoredName, data); err != nil {
		return nil, fmt.Errorf("store template: %w", err)
	}
	if err := s.TemplateRepo.CreateTemplate(ctx, rec); err != nil {
		return nil, fmt.Errorf("record template: %w", err)
	}
	s.Logger.Info("template uploaded", "id", rec.ID, "name", rec.OriginalName, "fields", rec.FieldCount)
	return rec, nil
}

// isPDF trusts a declared content type. Without one, the name and the file
// header must both say PDF.
func isPDF(name, contentType string, data []byte) bool {
	if contentType != "" {
		return contentType == "application/pdf"
	}
	return strings.EqualFold(filepath.Ext(name), ".pdf") && bytes.HasPrefix(data, pdfMagic)
}

// Templates lists uploaded templates, newest first.
func (s *FillService) Templates(ctx context.Context) ([]domain.TemplateRecord, error) {
	return s.TemplateRepo.ListTemplates(ctx)
}

// Template returns the bytes and display name of a template by id.
func (s *FillService) Template(ctx context.Context, id string) ([]byte, string, error) {
	data, _, name, err := s.resolve(ctx, TemplateRef{ID: id})
	return data, name, err
}

// Fields inspects a template and returns its field names in catalog order.
func (s *FillService) Fields(ctx context.Context, ref TemplateRef) ([]string, error) {
	data, _, _, err := s.resolve(ctx, ref)
	if err != nil {
		return nil, err
	}
	in, err := s.Filler.Inspect(data)
	if err != nil {
		return nil, err
	}
	return in.Catalog.Names(), nil
}

// FieldReport builds the mapping view of a template.
func (s *FillService) FieldReport(ctx context.Context, ref TemplateRef) (*domain.FieldReport, error) {
	data, id, name, err := s.resolve(ctx, ref)
	if err != nil {
		return nil, err
	}
	in, err := s.Filler.Inspect(data)
	if err != nil {
		return nil, err
	}
	r := &domain.FieldReport{
		TemplateID:   id,
		TemplateName: name,
		GeneratedAt:  s.now(),
		Unmapped:     in.Unmapped,
	}
	for _, e := range in.Catalog.Entries() {
		r.Rows = append(r.Rows, domain.FieldReportRow{Name: e.Name, Normalized: e.Normalized, Keys: in.Keys(e.Name)})
	}
	return r, nil
}

// Report renders the mapping view of a template as a PDF.
func (s *FillService) Report(ctx context.Context, ref TemplateRef, w io.Writer) error {
	r, err := s.FieldReport(ctx, ref)
	if err != nil {
		return err
	}
	return s.Reporter.Generate(ctx, r, w)
}
