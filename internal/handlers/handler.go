package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/a-h/templ"

	"github.com/mgulati3/ASU-BMF-FILLER/internal/adapters/storage"
	"github.com/mgulati3/ASU-BMF-FILLER/internal/domain"
	"github.com/mgulati3/ASU-BMF-FILLER/internal/formfill"
	"github.com/mgulati3/ASU-BMF-FILLER/internal/ports"
	"github.com/mgulati3/ASU-BMF-FILLER/internal/service"
	"github.com/mgulati3/ASU-BMF-FILLER/internal/templates"
)

// Service is what the HTTP surface needs from the fill service.
type Service interface {
	Fill(ctx context.Context, ref service.TemplateRef, data *domain.ExpenseForm) *domain.FillResponse
	UploadTemplate(ctx context.Context, name, contentType string, data []byte) (*domain.TemplateRecord, error)
	Templates(ctx context.Context) ([]domain.TemplateRecord, error)
	Template(ctx context.Context, id string) ([]byte, string, error)
	Fields(ctx context.Context, ref service.TemplateRef) ([]string, error)
	FieldReport(ctx context.Context, ref service.TemplateRef) (*domain.FieldReport, error)
	Report(ctx context.Context, ref service.TemplateRef, w io.Writer) error
	Output(ctx context.Context, filename string) (*domain.OutputRecord, []byte, error)
}

var _ Service = (*service.FillService)(nil)

type Handler struct {
	svc     Service
	maxBody int64
	log     *slog.Logger
}

func New(svc Service, maxBody int64, log *slog.Logger) *Handler {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Handler{svc: svc, maxBody: maxBody, log: log}
}

func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", h.index)
	mux.HandleFunc("POST /api/fill", h.fill)
	mux.HandleFunc("POST /api/upload-template", h.uploadTemplate)
	mux.HandleFunc("GET /api/template", h.builtinTemplate)
	mux.HandleFunc("GET /api/templates", h.listTemplates)
	mux.HandleFunc("GET /api/templates/{id}", h.getTemplate)
	mux.HandleFunc("GET /api/templates/{id}/fields", h.fields)
	mux.HandleFunc("GET /api/templates/{id}/fields.html", h.fieldsFragment)
	mux.HandleFunc("GET /api/templates/{id}/report.pdf", h.report)
	mux.HandleFunc("GET /filled_pdfs/{name}", h.output)
	return mux
}

func (h *Handler) index(w http.ResponseWriter, r *http.Request) {
	uploaded, err := h.svc.Templates(r.Context())
	if err != nil {
		h.log.Error("list templates", "err", err)
		uploaded = nil
	}
	render(w, r, templates.Index(uploaded))
}

// fill handles the multipart fill request. Template selection order:
// useBuiltInTemplate, then templateId, then an uploaded template file.
func (h *Handler) fill(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBody)
	if err := r.ParseMultipartForm(h.maxBody); err != nil {
		writeJSON(w, requestStatus(err), &domain.FillResponse{Error: requestError(err)})
		return
	}
	defer r.MultipartForm.RemoveAll()

	var data domain.ExpenseForm
	if err := json.Unmarshal([]byte(r.FormValue("formData")), &data); err != nil {
		writeJSON(w, http.StatusBadRequest, &domain.FillResponse{Error: "Invalid form data: " + err.Error()})
		return
	}

	var ref service.TemplateRef
	switch {
	case r.FormValue("useBuiltInTemplate") == "true":
		ref.ID = domain.BuiltinTemplateID
	case r.FormValue("templateId") != "":
		ref.ID = r.FormValue("templateId")
	default:
		file, hdr, err := r.FormFile("template")
		if err != nil {
			writeJSON(w, http.StatusBadRequest, &domain.FillResponse{Error: "No template provided"})
			return
		}
		ref.Bytes, err = readPart(file)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, &domain.FillResponse{Error: "No template provided"})
			return
		}
		ref.Name = hdr.Filename
	}

	resp := h.svc.Fill(r.Context(), ref, &data)
	status := http.StatusOK
	if !resp.Success && resp.Error == service.ErrTemplateNotFound.Error() {
		status = http.StatusNotFound
	}
	writeJSON(w, status, resp)
}

type uploadResponse struct {
	Success bool   `json:"success"`
	ID      string `json:"id,omitempty"`
	Path    string `json:"path,omitempty"`
	Error   string `json:"error,omitempty"`
}

func (h *Handler) uploadTemplate(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBody)
	if err := r.ParseMultipartForm(h.maxBody); err != nil {
		writeJSON(w, requestStatus(err), &uploadResponse{Error: requestError(err)})
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, hdr, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, &uploadResponse{Error: service.ErrNoFile.Error()})
		return
	}
	data, err := readPart(file)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, &uploadResponse{Error: service.ErrNoFile.Error()})
		return
	}

	rec, err := h.svc.UploadTemplate(r.Context(), hdr.Filename, hdr.Header.Get("Content-Type"), data)
	switch {
	case errors.Is(err, service.ErrNoFile), errors.Is(err, service.ErrNotPDF):
		writeJSON(w, http.StatusBadRequest, &uploadResponse{Error: err.Error()})
		return
	case err != nil:
		h.log.Error("upload template", "err", err)
		writeJSON(w, http.StatusInternalServerError, &uploadResponse{Error: "Failed to upload template"})
		return
	}
	writeJSON(w, http.StatusOK, &uploadResponse{Success: true, ID: rec.ID, Path: "/api/templates/" + rec.ID})
}

func (h *Handler) builtinTemplate(w http.ResponseWriter, r *http.Request) {
	h.serveTemplate(w, r, domain.BuiltinTemplateID)
}

func (h *Handler) getTemplate(w http.ResponseWriter, r *http.Request) {
	h.serveTemplate(w, r, r.PathValue("id"))
}

func (h *Handler) serveTemplate(w http.ResponseWriter, r *http.Request, id string) {
	data, name, err := h.svc.Template(r.Context(), id)
	if err != nil {
		h.failTemplate(w, id, err, "Failed to serve template")
		return
	}
	writePDF(w, data, name)
}

func (h *Handler) listTemplates(w http.ResponseWriter, r *http.Request) {
	list, err := h.svc.Templates(r.Context())
	if err != nil {
		h.log.Error("list templates", "err", err)
		http.Error(w, "Failed to list templates", http.StatusInternalServerError)
		return
	}
	if list == nil {
		list = []domain.TemplateRecord{}
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *Handler) fields(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	names, err := h.svc.Fields(r.Context(), service.TemplateRef{ID: id})
	if err != nil {
		h.failTemplate(w, id, err, "Failed to read template fields")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"templateId": id, "fieldNames": names})
}

func (h *Handler) fieldsFragment(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	rep, err := h.svc.FieldReport(r.Context(), service.TemplateRef{ID: id})
	if err != nil {
		h.failTemplate(w, id, err, "Failed to read template fields")
		return
	}
	render(w, r, templates.FieldList(rep))
}

func (h *Handler) report(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	var buf bytes.Buffer
	if err := h.svc.Report(r.Context(), service.TemplateRef{ID: id}, &buf); err != nil {
		h.failTemplate(w, id, err, "Failed to generate field report")
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="field_report_%s.pdf"`, id))
	w.Write(buf.Bytes())
}

// output serves a persisted filled form inline so browsers open it in place.
func (h *Handler) output(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	if !strings.HasSuffix(name, ".pdf") || !storage.ValidName(name) {
		http.NotFound(w, r)
		return
	}
	_, data, err := h.svc.Output(r.Context(), name)
	if errors.Is(err, ports.ErrNotFound) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		h.log.Error("read output", "name", name, "err", err)
		http.Error(w, "Failed to read filled PDF", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", "inline")
	w.Write(data)
}

func (h *Handler) failTemplate(w http.ResponseWriter, id string, err error, msg string) {
	if errors.Is(err, service.ErrTemplateNotFound) {
		http.Error(w, service.ErrTemplateNotFound.Error(), http.StatusNotFound)
		return
	}
	if errors.Is(err, formfill.ErrTemplateInvalid) {
		http.Error(w, formfill.UserMessage(err), http.StatusUnprocessableEntity)
		return
	}
	h.log.Error(strings.ToLower(msg), "template", id, "err", err)
	http.Error(w, msg, http.StatusInternalServerError)
}

// render writes a templ component to the response.
func render(w http.ResponseWriter, r *http.Request, c templ.Component) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := c.Render(r.Context(), w); err != nil {
		http.Error(w, err.Error(), 500)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writePDF(w http.ResponseWriter, data []byte, name string) {
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`inline; filename="%s"`, name))
	w.Write(data)
}

func readPart(f multipart.File) ([]byte, error) {
	defer f.Close()
	return io.ReadAll(f)
}

func requestStatus(err error) int {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return http.StatusRequestEntityTooLarge
	}
	return http.StatusBadRequest
}

func requestError(err error) string {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return fmt.Sprintf("Request is larger than %d bytes", tooLarge.Limit)
	}
	return "Invalid multipart request"
}
