// Package mcp exposes template inspection and scripted fills as MCP tools.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/afero"

	"github.com/mgulati3/ASU-BMF-FILLER/internal/domain"
	"github.com/mgulati3/ASU-BMF-FILLER/internal/formfill"
	"github.com/mgulati3/ASU-BMF-FILLER/internal/ports"
)

const (
	ServerName = "asu-bmf-filler"
	Version    = "1.0.0"
)

// Server represents the MCP server instance
type Server struct {
	filler    ports.FormFiller
	fs        afero.Fs
	builtin   string
	mcpServer *server.MCPServer
}

// NewServer registers the tools. builtin is the template used when a fill
// names no template_path.
func NewServer(filler ports.FormFiller, fs afero.Fs, builtin string) (*Server, error) {
	if filler == nil {
		return nil, fmt.Errorf("filler cannot be nil")
	}
	if fs == nil {
		fs = afero.NewOsFs()
	}
	s := &Server{
		filler:    filler,
		fs:        fs,
		builtin:   builtin,
		mcpServer: server.NewMCPServer(ServerName, Version, server.WithToolCapabilities(false)),
	}
	s.registerTools()
	return s, nil
}

func (s *Server) registerTools() {
	listFields := mcp.NewTool(
		"list_form_fields",
		mcp.WithDescription("List the fillable fields of a PDF form template and the logical keys each one resolves to"),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Full path to the PDF template"),
		),
	)
	s.mcpServer.AddTool(listFields, s.handleListFields)

	fill := mcp.NewTool(
		"fill_expense_form",
		mcp.WithDescription("Fill the Business Meals and Related Expenses form from JSON data and write the result to disk"),
		mcp.WithString("template_path",
			mcp.Description("PDF template to fill (uses the built-in template if empty)"),
		),
		mcp.WithString("data",
			mcp.Required(),
			mcp.Description("Expense form as JSON, e.g. {\"location\":\"Tempe\",\"eventDate\":\"2024-03-15\",\"paymentMethod\":\"1\"}"),
		),
		mcp.WithString("output_path",
			mcp.Description("Where to write the filled PDF (defaults to <location>_<date>.pdf)"),
		),
	)
	s.mcpServer.AddTool(fill, s.handleFill)
}

func (s *Server) handleListFields(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	tmpl, err := afero.ReadFile(s.fs, path)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("cannot read %s: %v", path, err)), nil
	}
	in, err := s.filler.Inspect(tmpl)
	if err != nil {
		return mcp.NewToolResultError(formfill.UserMessage(err)), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Template: %s\nFields: %d\n\n", path, in.Catalog.Len())
	for i, e := range in.Catalog.Entries() {
		fmt.Fprintf(&b, "%3d. %s", i+1, e.Name)
		if keys := in.Keys(e.Name); len(keys) > 0 {
			fmt.Fprintf(&b, "  <- %s", strings.Join(keys, ", "))
		}
		b.WriteByte('\n')
	}
	if len(in.Unmapped) > 0 {
		fmt.Fprintf(&b, "\nKeys without a field: %s\n", strings.Join(in.Unmapped, ", "))
	}
	return mcp.NewToolResultText(b.String()), nil
}

func (s *Server) handleFill(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	raw, err := request.RequireString("data")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	var data domain.ExpenseForm
	if err := json.Unmarshal([]byte(raw), &data); err != nil {
		return mcp.NewToolResultError("invalid form data: " + err.Error()), nil
	}

	args := request.GetArguments()
	tmplPath, _ := args["template_path"].(string)
	if tmplPath == "" {
		tmplPath = s.builtin
	}
	tmpl, err := afero.ReadFile(s.fs, tmplPath)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("cannot read template %s: %v", tmplPath, err)), nil
	}

	res := s.filler.Fill(tmpl, &data)
	if !res.Success {
		return mcp.NewToolResultError(formfill.UserMessage(res.Err)), nil
	}

	out, _ := args["output_path"].(string)
	if out == "" {
		out = data.DownloadName()
	}
	if dir := filepath.Dir(out); dir != "." {
		if err := s.fs.MkdirAll(dir, 0o750); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("cannot create %s: %v", dir, err)), nil
		}
	}
	if err := afero.WriteFile(s.fs, out, res.Output, 0o644); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("cannot write %s: %v", out, err)), nil
	}

	text := fmt.Sprintf("Filled %d of %d fields.\nWrote %s (%d bytes)\n", res.FilledCount, len(res.FieldNames), out, len(res.Output))
	return mcp.NewToolResultText(text), nil
}

// ServeStdio serves the tools over standard input and output until EOF.
func (s *Server) ServeStdio() error {
	if err := server.ServeStdio(s.mcpServer); err != nil {
		return fmt.Errorf("failed to serve stdio: %w", err)
	}
	return nil
}
