package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/prajwalc1/employee-timeline/internal/core/domain"
	apperrors "github.com/prajwalc1/employee-timeline/internal/core/errors"
	"github.com/prajwalc1/employee-timeline/internal/core/ports"
)

// TemplateRepository stores custom template overrides. Every save and
// reset is recorded in template_audit within the same transaction.
type TemplateRepository struct {
	pool *pgxpool.Pool
	tx   *TransactionManager
}

var _ ports.TemplateRepository = (*TemplateRepository)(nil)

func NewTemplateRepository(pool *pgxpool.Pool) *TemplateRepository {
	return &TemplateRepository{
		pool: pool,
		tx:   NewTransactionManager(pool),
	}
}

func scanTemplate(row pgx.Row) (*domain.Template, error) {
	var t domain.Template
	if err := row.Scan(&t.Name, &t.Subject, &t.Body, &t.UpdatedAt); err != nil {
		return nil, err
	}
	t.IsCustom = true
	return &t, nil
}

func (r *TemplateRepository) GetCustom(ctx context.Context, name string) (*domain.Template, error) {
	t, err := scanTemplate(r.pool.QueryRow(ctx,
		`SELECT name, subject, body, updated_at FROM custom_templates WHERE name = $1`, name))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return t, nil
}

func (r *TemplateRepository) ListCustom(ctx context.Context) ([]*domain.Template, error) {
	rows, err := r.pool.Query(ctx, `SELECT name, subject, body, updated_at FROM custom_templates ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Template
	for rows.Next() {
		t, err := scanTemplate(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *TemplateRepository) UpsertCustom(ctx context.Context, tmpl *domain.Template) (*domain.Template, error) {
	var saved *domain.Template
	err := r.tx.WithTransaction(ctx, func(ctx context.Context, tx DBTX) error {
		var err error
		saved, err = scanTemplate(tx.QueryRow(ctx, `
			INSERT INTO custom_templates (name, subject, body, updated_at)
			VALUES ($1, $2, $3, NOW())
			ON CONFLICT (name) DO UPDATE
			SET subject = EXCLUDED.subject, body = EXCLUDED.body, updated_at = NOW()
			RETURNING name, subject, body, updated_at`,
			tmpl.Name, tmpl.Subject, tmpl.Body))
		if err != nil {
			return fmt.Errorf("upsert custom template: %w", err)
		}
		return audit(ctx, tx, tmpl.Name, "save")
	})
	if err != nil {
		return nil, err
	}
	return saved, nil
}

func (r *TemplateRepository) DeleteCustom(ctx context.Context, name string) (bool, error) {
	var removed bool
	err := r.tx.WithTransaction(ctx, func(ctx context.Context, tx DBTX) error {
		tag, err := tx.Exec(ctx, `DELETE FROM custom_templates WHERE name = $1`, name)
		if err != nil {
			return fmt.Errorf("delete custom template: %w", err)
		}
		removed = tag.RowsAffected() > 0
		if !removed {
			return nil
		}
		return audit(ctx, tx, name, "reset")
	})
	return removed, err
}

// AuditCount returns how many audit rows exist for name.
func (r *TemplateRepository) AuditCount(ctx context.Context, name string) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM template_audit WHERE template_name = $1`, name).Scan(&n)
	return n, err
}

func audit(ctx context.Context, tx DBTX, name, action string) error {
	if _, err := tx.Exec(ctx,
		`INSERT INTO template_audit (template_name, action) VALUES ($1, $2)`, name, action); err != nil {
		return fmt.Errorf("record template audit: %w", err)
	}
	return nil
}
