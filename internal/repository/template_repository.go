package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/binapora/binapora-api/internal/models"
)

// TemplateRepository handles the reusable branch-scoped definition templates.
type TemplateRepository struct {
	db *sqlx.DB
}

// NewTemplateRepository creates a new template repository.
func NewTemplateRepository(db *sqlx.DB) *TemplateRepository {
	return &TemplateRepository{db: db}
}

// FindByBranch returns the branch's template with its full aspect/item tree.
func (r *TemplateRepository) FindByBranch(ctx context.Context, branchID string) (*models.ExamTemplate, error) {
	const templateQuery = `SELECT id, branch_id, name, created_by, created_at, updated_at
        FROM exam_templates WHERE branch_id = $1`
	var template models.ExamTemplate
	if err := r.db.GetContext(ctx, &template, templateQuery, branchID); err != nil {
		return nil, err
	}

	const aspectQuery = `SELECT id, template_id, name, position, created_at
        FROM template_aspects WHERE template_id = $1 ORDER BY position ASC`
	if err := r.db.SelectContext(ctx, &template.Aspects, aspectQuery, template.ID); err != nil {
		return nil, fmt.Errorf("list template aspects: %w", err)
	}
	if len(template.Aspects) == 0 {
		return &template, nil
	}

	aspectIDs := make([]string, len(template.Aspects))
	for i, aspect := range template.Aspects {
		aspectIDs[i] = aspect.ID
	}
	itemQuery, args, err := sqlx.In(`SELECT id, aspect_id, name, unit, target_male, target_female, direction, position, created_at
        FROM template_items WHERE aspect_id IN (?) ORDER BY position ASC`, aspectIDs)
	if err != nil {
		return nil, fmt.Errorf("build template items query: %w", err)
	}
	itemQuery = r.db.Rebind(itemQuery)
	var items []models.TemplateItem
	if err := r.db.SelectContext(ctx, &items, itemQuery, args...); err != nil {
		return nil, fmt.Errorf("list template items: %w", err)
	}

	byAspect := make(map[string][]models.TemplateItem, len(template.Aspects))
	for _, item := range items {
		byAspect[item.AspectID] = append(byAspect[item.AspectID], item)
	}
	for i := range template.Aspects {
		template.Aspects[i].Items = byAspect[template.Aspects[i].ID]
	}
	return &template, nil
}

// Replace overwrites the branch's template with the provided definition tree.
// Used when saving an examination's definitions back as the reusable template.
func (r *TemplateRepository) Replace(ctx context.Context, branchID, name string, actorID *string, aspects []models.ExamAspect) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	now := time.Now().UTC()

	var templateID string
	const find = `SELECT id FROM exam_templates WHERE branch_id = $1`
	if err := tx.GetContext(ctx, &templateID, find, branchID); err == nil {
		statements := []string{
			`DELETE FROM template_items WHERE aspect_id IN (SELECT id FROM template_aspects WHERE template_id = $1)`,
			`DELETE FROM template_aspects WHERE template_id = $1`,
		}
		for _, stmt := range statements {
			if _, err := tx.ExecContext(ctx, stmt, templateID); err != nil {
				tx.Rollback() //nolint:errcheck
				return fmt.Errorf("clear template: %w", err)
			}
		}
		const update = `UPDATE exam_templates SET name = $1, updated_at = $2 WHERE id = $3`
		if _, err := tx.ExecContext(ctx, update, name, now, templateID); err != nil {
			tx.Rollback() //nolint:errcheck
			return fmt.Errorf("update template: %w", err)
		}
	} else {
		templateID = uuid.NewString()
		const insert = `INSERT INTO exam_templates (id, branch_id, name, created_by, created_at, updated_at)
            VALUES ($1, $2, $3, $4, $5, $5)`
		if _, err := tx.ExecContext(ctx, insert, templateID, branchID, name, actorID, now); err != nil {
			tx.Rollback() //nolint:errcheck
			return fmt.Errorf("insert template: %w", err)
		}
	}

	for _, aspect := range aspects {
		aspectID := uuid.NewString()
		const aspectInsert = `INSERT INTO template_aspects (id, template_id, name, position, created_at)
            VALUES ($1, $2, $3, $4, $5)`
		if _, err := tx.ExecContext(ctx, aspectInsert, aspectID, templateID, aspect.Name, aspect.Position, now); err != nil {
			tx.Rollback() //nolint:errcheck
			return fmt.Errorf("insert template aspect %s: %w", aspect.Name, err)
		}
		for _, item := range aspect.Items {
			const itemInsert = `INSERT INTO template_items (id, aspect_id, name, unit, target_male, target_female, direction, position, created_at)
                VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
			if _, err := tx.ExecContext(ctx, itemInsert, uuid.NewString(), aspectID, item.Name, item.Unit, item.TargetMale, item.TargetFemale, item.Direction, item.Position, now); err != nil {
				tx.Rollback() //nolint:errcheck
				return fmt.Errorf("insert template item %s: %w", item.Name, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit template replacement: %w", err)
	}
	return nil
}
