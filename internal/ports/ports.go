package ports

import (
	"context"
	"errors"
	"io"

	"github.com/mgulati3/ASU-BMF-FILLER/internal/domain"
	"github.com/mgulati3/ASU-BMF-FILLER/internal/formfill"
)

// ErrNotFound is returned by repositories and stores for unknown keys.
var ErrNotFound = errors.New("not found")

// TemplateRepository records uploaded form templates.
type TemplateRepository interface {
	CreateTemplate(ctx context.Context, t *domain.TemplateRecord) error
	GetTemplate(ctx context.Context, id string) (*domain.TemplateRecord, error)
	ListTemplates(ctx context.Context) ([]domain.TemplateRecord, error)
}

// OutputRepository records filled PDFs offered for download.
type OutputRepository interface {
	CreateOutput(ctx context.Context, o *domain.OutputRecord) error
	GetOutputByFilename(ctx context.Context, filename string) (*domain.OutputRecord, error)
}

// BlobStore holds template and output bytes by file name.
type BlobStore interface {
	Put(ctx context.Context, name string, data []byte) error
	Get(ctx context.Context, name string) ([]byte, error)
}

// FormFiller is the fill engine port.
type FormFiller interface {
	Fill(template []byte, data *domain.ExpenseForm) *formfill.Result
	Inspect(template []byte) (*formfill.Inspection, error)
}

// ReportGenerator defines the troubleshooting report output port.
type ReportGenerator interface {
	// Generate writes a field-mapping report for one template.
	Generate(ctx context.Context, r *domain.FieldReport, w io.Writer) error
}
