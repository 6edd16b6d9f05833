package service_test

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mgulati3/ASU-BMF-FILLER/internal/adapters/storage"
	"github.com/mgulati3/ASU-BMF-FILLER/internal/domain"
	"github.com/mgulati3/ASU-BMF-FILLER/internal/formfill"
	"github.com/mgulati3/ASU-BMF-FILLER/internal/ports"
	"github.com/mgulati3/ASU-BMF-FILLER/internal/service"
)

// ── Fakes ─────────────────────────────────────────────────────────────────────

type fakeFiller struct {
	result   *formfill.Result
	inspect  *formfill.Inspection
	err      error
	lastTmpl []byte
}

func (f *fakeFiller) Fill(template []byte, _ *domain.ExpenseForm) *formfill.Result {
	f.lastTmpl = template
	return f.result
}

func (f *fakeFiller) Inspect(template []byte) (*formfill.Inspection, error) {
	f.lastTmpl = template
	if f.err != nil {
		return nil, f.err
	}
	return f.inspect, nil
}

type memRepo struct {
	mu        sync.Mutex
	templates map[string]domain.TemplateRecord
	outputs   map[string]domain.OutputRecord
	failOut   error
}

func newMemRepo() *memRepo {
	return &memRepo{templates: map[string]domain.TemplateRecord{}, outputs: map[string]domain.OutputRecord{}}
}

func (m *memRepo) CreateTemplate(_ context.Context, t *domain.TemplateRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.templates[t.ID] = *t
	return nil
}

func (m *memRepo) GetTemplate(_ context.Context, id string) (*domain.TemplateRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.templates[id]
	if !ok {
		return nil, ports.ErrNotFound
	}
	return &t, nil
}

func (m *memRepo) ListTemplates(context.Context) ([]domain.TemplateRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.TemplateRecord, 0, len(m.templates))
	for _, t := range m.templates {
		out = append(out, t)
	}
	return out, nil
}

func (m *memRepo) CreateOutput(_ context.Context, o *domain.OutputRecord) error {
	if m.failOut != nil {
		return m.failOut
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.outputs[o.Filename] = *o
	return nil
}

func (m *memRepo) GetOutputByFilename(_ context.Context, name string) (*domain.OutputRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.outputs[name]
	if !ok {
		return nil, ports.ErrNotFound
	}
	return &o, nil
}

type fakeReporter struct{ got *domain.FieldReport }

func (r *fakeReporter) Generate(_ context.Context, rep *domain.FieldReport, w io.Writer) error {
	r.got = rep
	_, err := io.WriteString(w, "%PDF-report")
	return err
}

type env struct {
	svc      *service.FillService
	filler   *fakeFiller
	repo     *memRepo
	fs       afero.Fs
	reporter *fakeReporter
}

var builtinBytes = []byte("%PDF-builtin")

func newEnv(t *testing.T) *env {
	t.Helper()
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/assets/asu_business_meals_template.pdf", builtinBytes, 0o644))
	tmplStore, err := storage.New(fs, "/data/templates")
	require.NoError(t, err)
	outStore, err := storage.New(fs, "/data/filled_pdfs")
	require.NoError(t, err)

	e := &env{
		filler:   &fakeFiller{},
		repo:     newMemRepo(),
		fs:       fs,
		reporter: &fakeReporter{},
	}
	e.svc = service.New(service.Deps{
		Filler:        e.filler,
		TemplateRepo:  e.repo,
		OutputRepo:    e.repo,
		TemplateStore: tmplStore,
		OutputStore:   outStore,
		Reporter:      e.reporter,
		Builtin:       service.Builtin{Fs: fs, Path: "/assets/asu_business_meals_template.pdf"},
	})
	return e
}

func okResult() *formfill.Result {
	return &formfill.Result{
		Success:     true,
		FilledCount: 3,
		Output:      []byte("%PDF-filled"),
		FieldNames:  []string{"Location", "Date"},
		Events:      []formfill.Event{{Step: "location", Key: "location", Field: "Location", Outcome: formfill.Written}},
	}
}

// ── Fill ──────────────────────────────────────────────────────────────────────

func TestFill_BuiltinTemplate(t *testing.T) {
	e := newEnv(t)
	e.filler.result = okResult()

	resp := e.svc.Fill(context.Background(), service.TemplateRef{}, &domain.ExpenseForm{Location: "Tempe"})

	require.True(t, resp.Success)
	assert.Equal(t, builtinBytes, e.filler.lastTmpl)
	assert.Equal(t, 3, resp.FilledCount)
	assert.Equal(t, []string{"Location", "Date"}, resp.FieldNames)
	assert.Empty(t, resp.Warning)
	assert.Len(t, resp.Events, 1)
	assert.Equal(t, "tempe_.pdf", resp.Filename)

	require.True(t, strings.HasPrefix(resp.Base64, "data:application/pdf;base64,"))
	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(resp.Base64, "data:application/pdf;base64,"))
	require.NoError(t, err)
	assert.Equal(t, []byte("%PDF-filled"), raw)

	require.True(t, strings.HasPrefix(resp.URL, service.OutputURLPrefix+"filled_form_"))
	name := strings.TrimPrefix(resp.URL, service.OutputURLPrefix)
	rec, data, err := e.svc.Output(context.Background(), name)
	require.NoError(t, err)
	assert.Equal(t, []byte("%PDF-filled"), data)
	assert.Equal(t, domain.BuiltinTemplateID, rec.TemplateID)
	assert.Equal(t, 3, rec.FilledCount)
}

func TestFill_InlineTemplateBytes(t *testing.T) {
	e := newEnv(t)
	e.filler.result = okResult()

	resp := e.svc.Fill(context.Background(), service.TemplateRef{Bytes: []byte("%PDF-custom")}, &domain.ExpenseForm{})
	require.True(t, resp.Success)
	assert.Equal(t, []byte("%PDF-custom"), e.filler.lastTmpl)
}

func TestFill_EngineFailure(t *testing.T) {
	e := newEnv(t)
	e.filler.result = &formfill.Result{FieldNames: []string{}, Err: formfill.ErrNoFillableFields}

	resp := e.svc.Fill(context.Background(), service.TemplateRef{}, &domain.ExpenseForm{})

	assert.False(t, resp.Success)
	assert.Equal(t, formfill.ErrNoFillableFields.Error()+".", resp.Error)
	assert.Empty(t, resp.URL)
	assert.Empty(t, resp.Base64)
	assert.Empty(t, e.repo.outputs)
}

func TestFill_EmptyCatalogListsNoFields(t *testing.T) {
	e := newEnv(t)
	e.filler.result = &formfill.Result{Err: formfill.ErrNoFillableFields}

	resp := e.svc.Fill(context.Background(), service.TemplateRef{}, &domain.ExpenseForm{})
	raw, err := json.Marshal(resp)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"fieldNames":[]`)
	assert.Contains(t, string(raw), `"success":false`)

	resp = e.svc.Fill(context.Background(), service.TemplateRef{ID: "missing"}, &domain.ExpenseForm{})
	raw, err = json.Marshal(resp)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"fieldNames":[]`)
}

func TestFill_PersistFailureStillSucceeds(t *testing.T) {
	e := newEnv(t)
	e.filler.result = okResult()
	e.repo.failOut = errors.New("disk full")

	resp := e.svc.Fill(context.Background(), service.TemplateRef{}, &domain.ExpenseForm{})

	assert.True(t, resp.Success)
	assert.NotEmpty(t, resp.Base64)
	assert.Empty(t, resp.URL)
	assert.Equal(t, service.PersistWarning, resp.Warning)
}

func TestFill_UnknownTemplate(t *testing.T) {
	e := newEnv(t)

	resp := e.svc.Fill(context.Background(), service.TemplateRef{ID: "missing"}, &domain.ExpenseForm{})

	assert.False(t, resp.Success)
	assert.Equal(t, service.ErrTemplateNotFound.Error(), resp.Error)
}

func TestFill_MissingBuiltin(t *testing.T) {
	e := newEnv(t)
	require.NoError(t, e.fs.Remove("/assets/asu_business_meals_template.pdf"))

	resp := e.svc.Fill(context.Background(), service.TemplateRef{}, &domain.ExpenseForm{})

	assert.False(t, resp.Success)
	assert.Equal(t, service.ErrBuiltinTemplate.Error(), resp.Error)
}

func TestOutput_NotFound(t *testing.T) {
	e := newEnv(t)
	_, _, err := e.svc.Output(context.Background(), "filled_form_nope.pdf")
	assert.ErrorIs(t, err, ports.ErrNotFound)
}

// ── Templates ─────────────────────────────────────────────────────────────────

func inspection(names ...string) *formfill.Inspection {
	c := formfill.NewCatalog(names)
	return &formfill.Inspection{
		Catalog:  c,
		Mapping:  formfill.Mapping{"location": names[0]},
		Unmapped: []string{"poNumber"},
	}
}

func TestUploadTemplate(t *testing.T) {
	e := newEnv(t)
	e.filler.inspect = inspection("Location", "Date")
	ctx := context.Background()

	rec, err := e.svc.UploadTemplate(ctx, "../My Form.pdf", "application/pdf", []byte("%PDF-upload"))
	require.NoError(t, err)
	assert.Equal(t, "My Form.pdf", rec.OriginalName)
	assert.Equal(t, 2, rec.FieldCount)
	assert.Equal(t, "template_"+rec.ID+".pdf", rec.StoredName)

	data, name, err := e.svc.Template(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, []byte("%PDF-upload"), data)
	assert.Equal(t, "My Form.pdf", name)

	list, err := e.svc.Templates(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestUploadTemplate_Unparseable(t *testing.T) {
	e := newEnv(t)
	e.filler.err = formfill.ErrTemplateInvalid

	rec, err := e.svc.UploadTemplate(context.Background(), "scan.pdf", "", []byte("%PDF-broken"))
	require.NoError(t, err)
	assert.Zero(t, rec.FieldCount)
}

func TestUploadTemplate_Rejects(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	_, err := e.svc.UploadTemplate(ctx, "form.pdf", "application/pdf", nil)
	assert.ErrorIs(t, err, service.ErrNoFile)

	_, err = e.svc.UploadTemplate(ctx, "notes.txt", "text/plain", []byte("hello"))
	assert.ErrorIs(t, err, service.ErrNotPDF)
}

func TestTemplate_Builtin(t *testing.T) {
	e := newEnv(t)
	data, name, err := e.svc.Template(context.Background(), domain.BuiltinTemplateID)
	require.NoError(t, err)
	assert.Equal(t, builtinBytes, data)
	assert.Equal(t, "asu_business_meals_template.pdf", name)
}

func TestFields(t *testing.T) {
	e := newEnv(t)
	e.filler.inspect = inspection("Location", "Date")

	names, err := e.svc.Fields(context.Background(), service.TemplateRef{})
	require.NoError(t, err)
	assert.Equal(t, []string{"Location", "Date"}, names)
}

func TestReport(t *testing.T) {
	e := newEnv(t)
	e.filler.inspect = inspection("Location", "Date")

	var buf bytes.Buffer
	require.NoError(t, e.svc.Report(context.Background(), service.TemplateRef{}, &buf))
	assert.Equal(t, "%PDF-report", buf.String())

	got := e.reporter.got
	require.NotNil(t, got)
	assert.Equal(t, domain.BuiltinTemplateID, got.TemplateID)
	assert.Equal(t, "asu_business_meals_template.pdf", got.TemplateName)
	require.Len(t, got.Rows, 2)
	assert.Equal(t, []string{"location"}, got.Rows[0].Keys)
	assert.Empty(t, got.Rows[1].Keys)
	assert.Equal(t, []string{"poNumber"}, got.Unmapped)
}
