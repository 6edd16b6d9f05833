// Package service wires the fill engine to template selection, persistence of
// outputs and the troubleshooting views.
package service

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/afero"

	"github.com/mgulati3/ASU-BMF-FILLER/internal/domain"
	"github.com/mgulati3/ASU-BMF-FILLER/internal/formfill"
	"github.com/mgulati3/ASU-BMF-FILLER/internal/ports"
)

// PersistWarning is attached to a successful fill whose output copy could not be stored.
const PersistWarning = "Could not save the PDF file for download, but you can view it in the browser."

// OutputURLPrefix is where persisted outputs are served from.
const OutputURLPrefix = "/filled_pdfs/"

var (
	ErrNoFile           = errors.New("No file provided")
	ErrNotPDF           = errors.New("File must be a PDF")
	ErrBuiltinTemplate  = errors.New("Failed to load the built-in PDF template")
	ErrTemplateNotFound = errors.New("Template not found")
)

// TemplateRef selects the template for one operation. Bytes win over ID; an
// empty ID means the built-in template.
type TemplateRef struct {
	ID    string
	Name  string
	Bytes []byte
}

// Builtin locates the template shipped with the service.
type Builtin struct {
	Fs   afero.Fs
	Path string
}

type Deps struct {
	Filler        ports.FormFiller
	TemplateRepo  ports.TemplateRepository
	OutputRepo    ports.OutputRepository
	TemplateStore ports.BlobStore
	OutputStore   ports.BlobStore
	Reporter      ports.ReportGenerator
	Builtin       Builtin
	Logger        *slog.Logger
}

type FillService struct {
	Deps
	newID func() string
	now   func() time.Time
}

func New(d Deps) *FillService {
	if d.Logger == nil {
		d.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if d.Builtin.Fs == nil {
		d.Builtin.Fs = afero.NewOsFs()
	}
	return &FillService{Deps: d, newID: uuid.NewString, now: time.Now}
}

// BuiltinName is the file name the built-in template is served under.
func (s *FillService) BuiltinName() string { return path.Base(s.Builtin.Path) }

// BuiltinTemplate reads the shipped template.
func (s *FillService) BuiltinTemplate() ([]byte, error) {
	data, err := afero.ReadFile(s.Builtin.Fs, s.Builtin.Path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBuiltinTemplate, err)
	}
	return data, nil
}

// resolve loads template bytes and returns the id recorded with outputs.
func (s *FillService) resolve(ctx context.Context, ref TemplateRef) ([]byte, string, string, error) {
	if len(ref.Bytes) > 0 {
		return ref.Bytes, "upload", ref.Name, nil
	}
	if ref.ID == "" || ref.ID == domain.BuiltinTemplateID {
		data, err := s.BuiltinTemplate()
		return data, domain.BuiltinTemplateID, s.BuiltinName(), err
	}
	rec, err := s.TemplateRepo.GetTemplate(ctx, ref.ID)
	if errors.Is(err, ports.ErrNotFound) {
		return nil, "", "", ErrTemplateNotFound
	}
	if err != nil {
		return nil, "", "", fmt.Errorf("look up template %s: %w", ref.ID, err)
	}
	data, err := s.TemplateStore.Get(ctx, rec.StoredName)
	if errors.Is(err, ports.ErrNotFound) {
		return nil, "", "", ErrTemplateNotFound
	}
	if err != nil {
		return nil, "", "", fmt.Errorf("read template %s: %w", ref.ID, err)
	}
	return data, rec.ID, rec.OriginalName, nil
}

// Fill runs the engine and shapes the browser response. It never returns an
// error: every failure is a structured response.
func (s *FillService) Fill(ctx context.Context, ref TemplateRef, data *domain.ExpenseForm) *domain.FillResponse {
	tmpl, tmplID, _, err := s.resolve(ctx, ref)
	if err != nil {
		s.Logger.Error("template unavailable", "template", ref.ID, "err", err)
		return &domain.FillResponse{Error: publicMessage(err), FieldNames: []string{}}
	}

	res := s.Filler.Fill(tmpl, data)
	resp := &domain.FillResponse{
		Success:     res.Success,
		FieldNames:  append([]string{}, res.FieldNames...),
		FilledCount: res.FilledCount,
		Events:      eventStrings(res.Events),
	}
	if !res.Success {
		resp.Error = formfill.UserMessage(res.Err)
		s.Logger.Warn("fill failed", "template", tmplID, "fields", len(res.FieldNames), "err", res.Err)
		return resp
	}
	resp.Base64 = "data:application/pdf;base64," + base64.StdEncoding.EncodeToString(res.Output)
	resp.Filename = data.DownloadName()

	name, err := s.persist(ctx, tmplID, res)
	if err != nil {
		resp.Warning = PersistWarning
		s.Logger.Warn("could not persist filled form", "template", tmplID, "err", err)
	} else {
		resp.URL = OutputURLPrefix + name
	}
	s.Logger.Info("filled form", "template", tmplID, "filled", res.FilledCount, "fields", len(res.FieldNames), "url", resp.URL)
	return resp
}

func (s *FillService) persist(ctx context.Context, tmplID string, res *formfill.Result) (string, error) {
	id := s.newID()
	name := "filled_form_" + id + ".pdf"
	if err := s.OutputStore.Put(ctx, name, res.Output); err != nil {
		return "", err
	}
	rec := &domain.OutputRecord{
		ID:          id,
		Filename:    name,
		TemplateID:  tmplID,
		FilledCount: res.FilledCount,
		Size:        int64(len(res.Output)),
		CreatedAt:   s.now().UTC(),
	}
	if err := s.OutputRepo.CreateOutput(ctx, rec); err != nil {
		return "", fmt.Errorf("record output: %w", err)
	}
	return name, nil
}

// Output returns a persisted filled PDF by file name.
func (s *FillService) Output(ctx context.Context, filename string) (*domain.OutputRecord, []byte, error) {
	rec, err := s.OutputRepo.GetOutputByFilename(ctx, filename)
	if err != nil {
		return nil, nil, err
	}
	data, err := s.OutputStore.Get(ctx, rec.Filename)
	if err != nil {
		return nil, nil, err
	}
	return rec, data, nil
}

func eventStrings(events []formfill.Event) []string {
	out := make([]string, len(events))
	for i, e := range events {
		out[i] = e.String()
	}
	return out
}

// publicMessage keeps internal error detail out of responses.
func publicMessage(err error) string {
	for _, known := range []error{ErrNoFile, ErrNotPDF, ErrBuiltinTemplate, ErrTemplateNotFound} {
		if errors.Is(err, known) {
			return known.Error()
		}
	}
	return "Failed to fill PDF form"
}
