package mcp

import (
	"context"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mgulati3/ASU-BMF-FILLER/internal/domain"
	"github.com/mgulati3/ASU-BMF-FILLER/internal/formfill"
)

type stubFiller struct {
	result *formfill.Result
	got    *domain.ExpenseForm
	tmpl   []byte
}

func (f *stubFiller) Fill(tmpl []byte, data *domain.ExpenseForm) *formfill.Result {
	f.tmpl, f.got = tmpl, data
	return f.result
}

func (f *stubFiller) Inspect(tmpl []byte) (*formfill.Inspection, error) {
	if !strings.HasPrefix(string(tmpl), "%PDF-") {
		return nil, formfill.ErrTemplateInvalid
	}
	c := formfill.NewCatalog([]string{"Location", "Notes"})
	return &formfill.Inspection{Catalog: c, Mapping: formfill.Mapping{"location": "Location"}, Unmapped: []string{"poNumber"}}, nil
}

func newTestServer(t *testing.T, f *stubFiller) (*Server, afero.Fs) {
	t.Helper()
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/tmpl/builtin.pdf", []byte("%PDF-builtin"), 0o644))
	require.NoError(t, afero.WriteFile(fs, "/tmpl/broken.pdf", []byte("junk"), 0o644))
	s, err := NewServer(f, fs, "/tmpl/builtin.pdf")
	require.NoError(t, err)
	return s, fs
}

func call(args map[string]interface{}) mcp.CallToolRequest {
	return mcp.CallToolRequest{Params: mcp.CallToolParams{Arguments: args}}
}

func text(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, res.Content)
	switch c := res.Content[0].(type) {
	case mcp.TextContent:
		return c.Text
	case *mcp.TextContent:
		return c.Text
	}
	t.Fatalf("unexpected content %T", res.Content[0])
	return ""
}

func TestNewServer_RequiresFiller(t *testing.T) {
	_, err := NewServer(nil, nil, "")
	assert.Error(t, err)
}

func TestListFields(t *testing.T) {
	s, _ := newTestServer(t, &stubFiller{})

	res, err := s.handleListFields(context.Background(), call(map[string]interface{}{"path": "/tmpl/builtin.pdf"}))
	require.NoError(t, err)
	assert.False(t, res.IsError)
	out := text(t, res)
	assert.Contains(t, out, "Fields: 2")
	assert.Contains(t, out, "1. Location  <- location")
	assert.Contains(t, out, "Keys without a field: poNumber")
}

func TestListFields_Errors(t *testing.T) {
	s, _ := newTestServer(t, &stubFiller{})
	ctx := context.Background()

	res, err := s.handleListFields(ctx, call(map[string]interface{}{}))
	require.NoError(t, err)
	assert.True(t, res.IsError)

	res, err = s.handleListFields(ctx, call(map[string]interface{}{"path": "/missing.pdf"}))
	require.NoError(t, err)
	assert.True(t, res.IsError)

	res, err = s.handleListFields(ctx, call(map[string]interface{}{"path": "/tmpl/broken.pdf"}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Contains(t, text(t, res), "not valid or is corrupted")
}

func TestFill_WritesOutput(t *testing.T) {
	f := &stubFiller{result: &formfill.Result{Success: true, FilledCount: 5, FieldNames: make([]string, 9), Output: []byte("%PDF-out")}}
	s, fs := newTestServer(t, f)

	res, err := s.handleFill(context.Background(), call(map[string]interface{}{
		"data":        `{"location":"Tempe","eventDate":"2024-03-15"}`,
		"output_path": "/out/filled.pdf",
	}))
	require.NoError(t, err)
	require.False(t, res.IsError, text(t, res))
	assert.Contains(t, text(t, res), "Filled 5 of 9 fields.")
	assert.Equal(t, []byte("%PDF-builtin"), f.tmpl)
	assert.Equal(t, "Tempe", f.got.Location)

	data, err := afero.ReadFile(fs, "/out/filled.pdf")
	require.NoError(t, err)
	assert.Equal(t, []byte("%PDF-out"), data)
}

func TestFill_DefaultOutputName(t *testing.T) {
	f := &stubFiller{result: &formfill.Result{Success: true, FilledCount: 1, Output: []byte("%PDF-out")}}
	s, fs := newTestServer(t, f)

	res, err := s.handleFill(context.Background(), call(map[string]interface{}{
		"template_path": "/tmpl/builtin.pdf",
		"data":          `{"location":"West Campus","eventDate":"03/15/2024"}`,
	}))
	require.NoError(t, err)
	require.False(t, res.IsError)

	ok, err := afero.Exists(fs, "west_campus_2024-03-15.pdf")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestFill_Errors(t *testing.T) {
	f := &stubFiller{result: &formfill.Result{Err: formfill.ErrNothingFilled}}
	s, _ := newTestServer(t, f)
	ctx := context.Background()

	tests := []struct {
		name string
		args map[string]interface{}
		want string
	}{
		{"missing data", map[string]interface{}{}, ""},
		{"bad json", map[string]interface{}{"data": "{"}, "invalid form data"},
		{"bad payment", map[string]interface{}{"data": `{"paymentMethod":"9"}`}, "invalid form data"},
		{"missing template", map[string]interface{}{"data": "{}", "template_path": "/nope.pdf"}, "cannot read template"},
		{"nothing filled", map[string]interface{}{"data": "{}"}, "Could not match any form fields"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := s.handleFill(ctx, call(tt.args))
			require.NoError(t, err)
			assert.True(t, res.IsError)
			if tt.want != "" {
				assert.Contains(t, text(t, res), tt.want)
			}
		})
	}
}
