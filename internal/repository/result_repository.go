package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/binapora/binapora-api/internal/models"
)

// ResultRepository persists the three result levels written by a scoring run.
type ResultRepository struct {
	db *sqlx.DB
}

// NewResultRepository creates a new result repository.
func NewResultRepository(db *sqlx.DB) *ResultRepository {
	return &ResultRepository{db: db}
}

// SaveSheet upserts all item, aspect and overall rows of one participant's
// scoring run inside a single transaction. Either the whole sheet becomes
// visible or none of it does.
func (r *ResultRepository) SaveSheet(ctx context.Context, sheet *models.ResultSheet) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	now := time.Now().UTC()

	for i := range sheet.Items {
		item := &sheet.Items[i]
		if item.ID == "" {
			item.ID = uuid.NewString()
		}
		item.CreatedAt = now
		item.UpdatedAt = now
		const query = `INSERT INTO item_results (id, examination_id, participant_id, item_id, raw_value, measurement, bounded_pct, real_pct, band, created_by, updated_by, created_at, updated_at)
            VALUES (:id, :examination_id, :participant_id, :item_id, :raw_value, :measurement, :bounded_pct, :real_pct, :band, :created_by, :updated_by, :created_at, :updated_at)
            ON CONFLICT (participant_id, item_id)
            DO UPDATE SET raw_value = EXCLUDED.raw_value, measurement = EXCLUDED.measurement, bounded_pct = EXCLUDED.bounded_pct,
                real_pct = EXCLUDED.real_pct, band = EXCLUDED.band, updated_by = EXCLUDED.updated_by, updated_at = EXCLUDED.updated_at`
		if _, err := tx.NamedExecContext(ctx, query, item); err != nil {
			tx.Rollback() //nolint:errcheck
			return fmt.Errorf("upsert item result: %w", err)
		}
	}

	for i := range sheet.Aspects {
		aspect := &sheet.Aspects[i]
		if aspect.ID == "" {
			aspect.ID = uuid.NewString()
		}
		aspect.CreatedAt = now
		aspect.UpdatedAt = now
		const query = `INSERT INTO aspect_results (id, examination_id, participant_id, aspect_id, bounded_pct, band, created_by, updated_by, created_at, updated_at)
            VALUES (:id, :examination_id, :participant_id, :aspect_id, :bounded_pct, :band, :created_by, :updated_by, :created_at, :updated_at)
            ON CONFLICT (participant_id, aspect_id)
            DO UPDATE SET bounded_pct = EXCLUDED.bounded_pct, band = EXCLUDED.band, updated_by = EXCLUDED.updated_by, updated_at = EXCLUDED.updated_at`
		if _, err := tx.NamedExecContext(ctx, query, aspect); err != nil {
			tx.Rollback() //nolint:errcheck
			return fmt.Errorf("upsert aspect result: %w", err)
		}
	}

	overall := &sheet.Overall
	if overall.ID == "" {
		overall.ID = uuid.NewString()
	}
	overall.CreatedAt = now
	overall.UpdatedAt = now
	const overallQuery = `INSERT INTO overall_results (id, examination_id, participant_id, bounded_pct, band, created_by, updated_by, created_at, updated_at)
        VALUES (:id, :examination_id, :participant_id, :bounded_pct, :band, :created_by, :updated_by, :created_at, :updated_at)
        ON CONFLICT (examination_id, participant_id)
        DO UPDATE SET bounded_pct = EXCLUDED.bounded_pct, band = EXCLUDED.band, updated_by = EXCLUDED.updated_by, updated_at = EXCLUDED.updated_at`
	if _, err := tx.NamedExecContext(ctx, overallQuery, overall); err != nil {
		tx.Rollback() //nolint:errcheck
		return fmt.Errorf("upsert overall result: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit result sheet: %w", err)
	}
	return nil
}

// Sheet returns the stored results of one participant in one examination.
func (r *ResultRepository) Sheet(ctx context.Context, examinationID, participantID string) (*models.ResultSheet, error) {
	const itemQuery = `SELECT ir.id, ir.examination_id, ir.participant_id, ir.item_id, ir.raw_value, ir.measurement,
            ir.bounded_pct, ir.real_pct, ir.band, ir.created_at, ir.updated_at, i.name AS item_name, i.aspect_id
        FROM item_results ir
        JOIN exam_items i ON i.id = ir.item_id
        WHERE ir.examination_id = $1 AND ir.participant_id = $2
        ORDER BY i.position ASC`
	var items []models.ItemResult
	if err := r.db.SelectContext(ctx, &items, itemQuery, examinationID, participantID); err != nil {
		return nil, fmt.Errorf("fetch item results: %w", err)
	}

	const aspectQuery = `SELECT ar.id, ar.examination_id, ar.participant_id, ar.aspect_id, ar.bounded_pct, ar.band,
            ar.created_at, ar.updated_at, a.name AS aspect_name
        FROM aspect_results ar
        JOIN exam_aspects a ON a.id = ar.aspect_id
        WHERE ar.examination_id = $1 AND ar.participant_id = $2
        ORDER BY a.position ASC`
	var aspects []models.AspectResult
	if err := r.db.SelectContext(ctx, &aspects, aspectQuery, examinationID, participantID); err != nil {
		return nil, fmt.Errorf("fetch aspect results: %w", err)
	}

	const overallQuery = `SELECT id, examination_id, participant_id, bounded_pct, band, created_at, updated_at
        FROM overall_results WHERE examination_id = $1 AND participant_id = $2`
	var overall models.OverallResult
	if err := r.db.GetContext(ctx, &overall, overallQuery, examinationID, participantID); err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("fetch overall result: %w", err)
		}
	}

	return &models.ResultSheet{Items: items, Aspects: aspects, Overall: overall}, nil
}
