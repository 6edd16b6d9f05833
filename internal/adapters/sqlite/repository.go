package sqlite

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/mgulati3/ASU-BMF-FILLER/internal/domain"
	"github.com/mgulati3/ASU-BMF-FILLER/internal/ports"
)

//go:embed schema.sql
var schema string

type Repository struct {
	db *sql.DB
}

var (
	_ ports.TemplateRepository = (*Repository)(nil)
	_ ports.OutputRepository   = (*Repository)(nil)
)

// New opens the SQLite database. Schema migrations are managed by dbmate
// (db/migrations); Migrate applies the same schema for local runs and tests.
func New(dsn string) (*Repository, error) {
	db, err := sql.Open("sqlite3", dsn+"?_foreign_keys=on")
	if err != nil {
		return nil, err
	}
	return &Repository{db: db}, nil
}

// Migrate creates any missing tables.
func (r *Repository) Migrate(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

func (r *Repository) Close() error { return r.db.Close() }

// ── Templates ────────────────────────────────────────────────────────────────

func (r *Repository) CreateTemplate(ctx context.Context, t *domain.TemplateRecord) error {
	if t.UploadedAt.IsZero() {
		t.UploadedAt = time.Now().UTC()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO templates (id, original_name, stored_name, size, field_count, uploaded_at)
		VALUES (?,?,?,?,?,?)`,
		t.ID, t.OriginalName, t.StoredName, t.Size, t.FieldCount, t.UploadedAt,
	)
	return err
}

func (r *Repository) GetTemplate(ctx context.Context, id string) (*domain.TemplateRecord, error) {
	t := &domain.TemplateRecord{}
	err := r.db.QueryRowContext(ctx, `
		SELECT id, original_name, stored_name, size, field_count, uploaded_at
		FROM templates WHERE id=?`, id).Scan(
		&t.ID, &t.OriginalName, &t.StoredName, &t.Size, &t.FieldCount, &t.UploadedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("template %s: %w", id, ports.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return t, nil
}

func (r *Repository) ListTemplates(ctx context.Context) ([]domain.TemplateRecord, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, original_name, stored_name, size, field_count, uploaded_at
		FROM templates ORDER BY uploaded_at DESC, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []domain.TemplateRecord
	for rows.Next() {
		var t domain.TemplateRecord
		if err := rows.Scan(&t.ID, &t.OriginalName, &t.StoredName, &t.Size, &t.FieldCount, &t.UploadedAt); err != nil {
			return nil, err
		}
		list = append(list, t)
	}
	return list, rows.Err()
}

// ── Outputs ──────────────────────────────────────────────────────────────────

func (r *Repository) CreateOutput(ctx context.Context, o *domain.OutputRecord) error {
	if o.CreatedAt.IsZero() {
		o.CreatedAt = time.Now().UTC()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO outputs (id, filename, template_id, filled_count, size, created_at)
		VALUES (?,?,?,?,?,?)`,
		o.ID, o.Filename, o.TemplateID, o.FilledCount, o.Size, o.CreatedAt,
	)
	return err
}

func (r *Repository) GetOutputByFilename(ctx context.Context, filename string) (*domain.OutputRecord, error) {
	o := &domain.OutputRecord{}
	err := r.db.QueryRowContext(ctx, `
		SELECT id, filename, template_id, filled_count, size, created_at
		FROM outputs WHERE filename=?`, filename).Scan(
		&o.ID, &o.Filename, &o.TemplateID, &o.FilledCount, &o.Size, &o.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("output %s: %w", filename, ports.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return o, nil
}
