package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/binapora/binapora-api/internal/models"
)

// ComparisonRepository exposes the read-optimised queries behind the
// comparison and ranking endpoints. It only ever touches persisted aspect and
// overall results, never raw measurements.
type ComparisonRepository struct {
	db *sqlx.DB
}

// NewComparisonRepository creates a new comparison repository.
func NewComparisonRepository(db *sqlx.DB) *ComparisonRepository {
	return &ComparisonRepository{db: db}
}

// OverallRows returns the overall results of the given examinations, ordered
// chronologically then by enrolment order within each examination.
func (r *ComparisonRepository) OverallRows(ctx context.Context, examinationIDs []string) ([]models.OverallRow, error) {
	if len(examinationIDs) == 0 {
		return nil, nil
	}
	query, args, err := sqlx.In(`SELECT o.examination_id, e.name AS examination_name, e.held_at,
            o.participant_id, p.full_name AS participant_name, o.bounded_pct, o.band
        FROM overall_results o
        JOIN examinations e ON e.id = o.examination_id
        JOIN participants p ON p.id = o.participant_id
        JOIN examination_members m ON m.examination_id = o.examination_id AND m.participant_id = o.participant_id
        WHERE o.examination_id IN (?) AND e.deleted_at IS NULL
        ORDER BY e.held_at ASC, m.created_at ASC`, examinationIDs)
	if err != nil {
		return nil, fmt.Errorf("build overall rows query: %w", err)
	}
	query = r.db.Rebind(query)
	var rows []models.OverallRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("fetch overall rows: %w", err)
	}
	return rows, nil
}

// AspectRows returns the aspect results of the given examinations keyed by
// aspect name so the same named aspect lines up across examinations.
func (r *ComparisonRepository) AspectRows(ctx context.Context, examinationIDs []string) ([]models.AspectRow, error) {
	if len(examinationIDs) == 0 {
		return nil, nil
	}
	query, args, err := sqlx.In(`SELECT ar.examination_id, e.name AS examination_name, e.held_at,
            ar.participant_id, p.full_name AS participant_name, a.name AS aspect_name, ar.bounded_pct
        FROM aspect_results ar
        JOIN exam_aspects a ON a.id = ar.aspect_id
        JOIN examinations e ON e.id = ar.examination_id
        JOIN participants p ON p.id = ar.participant_id
        JOIN examination_members m ON m.examination_id = ar.examination_id AND m.participant_id = ar.participant_id
        WHERE ar.examination_id IN (?) AND e.deleted_at IS NULL
        ORDER BY e.held_at ASC, a.position ASC, m.created_at ASC`, examinationIDs)
	if err != nil {
		return nil, fmt.Errorf("build aspect rows query: %w", err)
	}
	query = r.db.Rebind(query)
	var rows []models.AspectRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("fetch aspect rows: %w", err)
	}
	return rows, nil
}
