package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/binapora/binapora-api/internal/models"
)

// DefinitionRepository handles the aspect/item definitions owned by an examination.
type DefinitionRepository struct {
	db *sqlx.DB
}

// NewDefinitionRepository creates a new definition repository.
func NewDefinitionRepository(db *sqlx.DB) *DefinitionRepository {
	return &DefinitionRepository{db: db}
}

// ListByExamination returns the live aspects with their items, in position order.
func (r *DefinitionRepository) ListByExamination(ctx context.Context, examinationID string) ([]models.ExamAspect, error) {
	const aspectQuery = `SELECT id, examination_id, name, position, created_at, updated_at, deleted_at
        FROM exam_aspects WHERE examination_id = $1 AND deleted_at IS NULL ORDER BY position ASC`
	var aspects []models.ExamAspect
	if err := r.db.SelectContext(ctx, &aspects, aspectQuery, examinationID); err != nil {
		return nil, fmt.Errorf("list aspects: %w", err)
	}
	if len(aspects) == 0 {
		return aspects, nil
	}

	aspectIDs := make([]string, len(aspects))
	for i, aspect := range aspects {
		aspectIDs[i] = aspect.ID
	}
	itemQuery, args, err := sqlx.In(`SELECT id, aspect_id, name, unit, target_male, target_female, direction, position, created_at, updated_at, deleted_at
        FROM exam_items WHERE aspect_id IN (?) AND deleted_at IS NULL ORDER BY position ASC`, aspectIDs)
	if err != nil {
		return nil, fmt.Errorf("build items query: %w", err)
	}
	itemQuery = r.db.Rebind(itemQuery)
	var items []models.ExamItem
	if err := r.db.SelectContext(ctx, &items, itemQuery, args...); err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}

	byAspect := make(map[string][]models.ExamItem, len(aspects))
	for _, item := range items {
		byAspect[item.AspectID] = append(byAspect[item.AspectID], item)
	}
	for i := range aspects {
		aspects[i].Items = byAspect[aspects[i].ID]
	}
	return aspects, nil
}

// ReplaceAll soft-invalidates every live definition of the examination and
// inserts the provided set as a fresh copy. Used by template cloning.
func (r *DefinitionRepository) ReplaceAll(ctx context.Context, examinationID string, aspects []models.ExamAspect) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	now := time.Now().UTC()

	invalidate := []string{
		`UPDATE exam_items SET deleted_at = $1
            WHERE deleted_at IS NULL AND aspect_id IN (SELECT id FROM exam_aspects WHERE examination_id = $2 AND deleted_at IS NULL)`,
		`UPDATE exam_aspects SET deleted_at = $1 WHERE examination_id = $2 AND deleted_at IS NULL`,
	}
	for _, stmt := range invalidate {
		if _, err := tx.ExecContext(ctx, stmt, now, examinationID); err != nil {
			tx.Rollback() //nolint:errcheck
			return fmt.Errorf("invalidate definitions: %w", err)
		}
	}

	if err := insertDefinitions(ctx, tx, examinationID, aspects, now); err != nil {
		tx.Rollback() //nolint:errcheck
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit definition replacement: %w", err)
	}
	return nil
}

// Upsert reconciles the examination's definitions with the provided set.
// Aspects match on name and items on (name, unit) so that existing item
// results keep pointing at the same rows across edits; definitions absent
// from the new set are soft-invalidated.
func (r *DefinitionRepository) Upsert(ctx context.Context, examinationID string, aspects []models.ExamAspect) error {
	existing, err := r.ListByExamination(ctx, examinationID)
	if err != nil {
		return err
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	now := time.Now().UTC()

	existingAspects := make(map[string]models.ExamAspect, len(existing))
	for _, aspect := range existing {
		existingAspects[aspect.Name] = aspect
	}

	keptAspects := make(map[string]bool, len(aspects))
	for _, incoming := range aspects {
		keptAspects[incoming.Name] = true
		current, found := existingAspects[incoming.Name]
		aspectID := current.ID
		if found {
			const update = `UPDATE exam_aspects SET position = $1, updated_at = $2 WHERE id = $3`
			if _, err := tx.ExecContext(ctx, update, incoming.Position, now, aspectID); err != nil {
				tx.Rollback() //nolint:errcheck
				return fmt.Errorf("update aspect %s: %w", incoming.Name, err)
			}
		} else {
			aspectID = uuid.NewString()
			const insert = `INSERT INTO exam_aspects (id, examination_id, name, position, created_at, updated_at)
                VALUES ($1, $2, $3, $4, $5, $5)`
			if _, err := tx.ExecContext(ctx, insert, aspectID, examinationID, incoming.Name, incoming.Position, now); err != nil {
				tx.Rollback() //nolint:errcheck
				return fmt.Errorf("insert aspect %s: %w", incoming.Name, err)
			}
		}

		existingItems := make(map[string]models.ExamItem, len(current.Items))
		for _, item := range current.Items {
			existingItems[item.Name+"\x00"+item.Unit] = item
		}
		keptItems := make(map[string]bool, len(incoming.Items))
		for _, item := range incoming.Items {
			key := item.Name + "\x00" + item.Unit
			keptItems[key] = true
			if currentItem, ok := existingItems[key]; ok {
				const update = `UPDATE exam_items SET target_male = $1, target_female = $2, direction = $3, position = $4, updated_at = $5 WHERE id = $6`
				if _, err := tx.ExecContext(ctx, update, item.TargetMale, item.TargetFemale, item.Direction, item.Position, now, currentItem.ID); err != nil {
					tx.Rollback() //nolint:errcheck
					return fmt.Errorf("update item %s: %w", item.Name, err)
				}
				continue
			}
			const insert = `INSERT INTO exam_items (id, aspect_id, name, unit, target_male, target_female, direction, position, created_at, updated_at)
                VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $9)`
			if _, err := tx.ExecContext(ctx, insert, uuid.NewString(), aspectID, item.Name, item.Unit, item.TargetMale, item.TargetFemale, item.Direction, item.Position, now); err != nil {
				tx.Rollback() //nolint:errcheck
				return fmt.Errorf("insert item %s: %w", item.Name, err)
			}
		}
		for key, item := range existingItems {
			if keptItems[key] {
				continue
			}
			const invalidate = `UPDATE exam_items SET deleted_at = $1 WHERE id = $2`
			if _, err := tx.ExecContext(ctx, invalidate, now, item.ID); err != nil {
				tx.Rollback() //nolint:errcheck
				return fmt.Errorf("invalidate item %s: %w", item.Name, err)
			}
		}
	}

	for name, aspect := range existingAspects {
		if keptAspects[name] {
			continue
		}
		statements := []struct {
			query string
			arg   string
		}{
			{`UPDATE exam_items SET deleted_at = $1 WHERE aspect_id = $2 AND deleted_at IS NULL`, aspect.ID},
			{`UPDATE exam_aspects SET deleted_at = $1 WHERE id = $2`, aspect.ID},
		}
		for _, stmt := range statements {
			if _, err := tx.ExecContext(ctx, stmt.query, now, stmt.arg); err != nil {
				tx.Rollback() //nolint:errcheck
				return fmt.Errorf("invalidate aspect %s: %w", name, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit definition upsert: %w", err)
	}
	return nil
}

func insertDefinitions(ctx context.Context, tx *sqlx.Tx, examinationID string, aspects []models.ExamAspect, now time.Time) error {
	for _, aspect := range aspects {
		aspectID := uuid.NewString()
		const aspectInsert = `INSERT INTO exam_aspects (id, examination_id, name, position, created_at, updated_at)
            VALUES ($1, $2, $3, $4, $5, $5)`
		if _, err := tx.ExecContext(ctx, aspectInsert, aspectID, examinationID, aspect.Name, aspect.Position, now); err != nil {
			return fmt.Errorf("insert aspect %s: %w", aspect.Name, err)
		}
		for _, item := range aspect.Items {
			const itemInsert = `INSERT INTO exam_items (id, aspect_id, name, unit, target_male, target_female, direction, position, created_at, updated_at)
                VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $9)`
			if _, err := tx.ExecContext(ctx, itemInsert, uuid.NewString(), aspectID, item.Name, item.Unit, item.TargetMale, item.TargetFemale, item.Direction, item.Position, now); err != nil {
				return fmt.Errorf("insert item %s: %w", item.Name, err)
			}
		}
	}
	return nil
}
