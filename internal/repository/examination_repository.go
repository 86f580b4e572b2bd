package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/binapora/binapora-api/internal/models"
)

// ExaminationRepository handles examination headers and membership.
type ExaminationRepository struct {
	db *sqlx.DB
}

// NewExaminationRepository creates a new examination repository.
func NewExaminationRepository(db *sqlx.DB) *ExaminationRepository {
	return &ExaminationRepository{db: db}
}

// Create inserts a new examination.
func (r *ExaminationRepository) Create(ctx context.Context, exam *models.Examination) error {
	if exam.ID == "" {
		exam.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	exam.CreatedAt = now
	exam.UpdatedAt = now
	const query = `INSERT INTO examinations (id, name, branch_id, category_id, held_at, notes, created_by, created_at, updated_at)
        VALUES (:id, :name, :branch_id, :category_id, :held_at, :notes, :created_by, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, exam); err != nil {
		return fmt.Errorf("create examination: %w", err)
	}
	return nil
}

// List returns examinations matching the filter ordered by date, newest first.
func (r *ExaminationRepository) List(ctx context.Context, filter models.ExaminationFilter) ([]models.Examination, int, error) {
	base := " FROM examinations e WHERE e.deleted_at IS NULL"
	var args []interface{}
	if filter.BranchID != "" {
		args = append(args, filter.BranchID)
		base += fmt.Sprintf(" AND e.branch_id = $%d", len(args))
	}
	if filter.CategoryID != "" {
		args = append(args, filter.CategoryID)
		base += fmt.Sprintf(" AND e.category_id = $%d", len(args))
	}
	if filter.DateFrom != nil {
		args = append(args, *filter.DateFrom)
		base += fmt.Sprintf(" AND e.held_at >= $%d", len(args))
	}
	if filter.DateTo != nil {
		args = append(args, *filter.DateTo)
		base += fmt.Sprintf(" AND e.held_at <= $%d", len(args))
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*)"+base, args...); err != nil {
		return nil, 0, fmt.Errorf("count examinations: %w", err)
	}

	perPage := filter.PerPage
	if perPage <= 0 {
		perPage = 20
	}
	page := filter.Page
	if page <= 0 {
		page = 1
	}
	query := `SELECT e.id, e.name, e.branch_id, e.category_id, e.held_at, e.notes, e.created_by, e.created_at, e.updated_at, e.deleted_at` +
		base + fmt.Sprintf(" ORDER BY e.held_at DESC LIMIT %d OFFSET %d", perPage, (page-1)*perPage)

	var exams []models.Examination
	if err := r.db.SelectContext(ctx, &exams, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list examinations: %w", err)
	}
	return exams, total, nil
}

// FindByID returns one examination header.
func (r *ExaminationRepository) FindByID(ctx context.Context, id string) (*models.Examination, error) {
	const query = `SELECT id, name, branch_id, category_id, held_at, notes, created_by, created_at, updated_at, deleted_at
        FROM examinations WHERE id = $1 AND deleted_at IS NULL`
	var exam models.Examination
	if err := r.db.GetContext(ctx, &exam, query, id); err != nil {
		return nil, err
	}
	return &exam, nil
}

// FindByIDs returns the requested examinations ordered chronologically.
func (r *ExaminationRepository) FindByIDs(ctx context.Context, ids []string) ([]models.Examination, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query, args, err := sqlx.In(`SELECT id, name, branch_id, category_id, held_at, notes, created_by, created_at, updated_at, deleted_at
        FROM examinations WHERE id IN (?) AND deleted_at IS NULL ORDER BY held_at ASC`, ids)
	if err != nil {
		return nil, fmt.Errorf("build examinations query: %w", err)
	}
	query = r.db.Rebind(query)
	var exams []models.Examination
	if err := r.db.SelectContext(ctx, &exams, query, args...); err != nil {
		return nil, fmt.Errorf("fetch examinations: %w", err)
	}
	return exams, nil
}

// Delete soft-deletes an examination, invalidating its definitions and results.
func (r *ExaminationRepository) Delete(ctx context.Context, id string) error {
	const query = `UPDATE examinations SET deleted_at = NOW(), updated_at = NOW() WHERE id = $1 AND deleted_at IS NULL`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete examination: %w", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return fmt.Errorf("examination %s not found", id)
	}
	return nil
}

// AddMember enrolls a participant into an examination.
func (r *ExaminationRepository) AddMember(ctx context.Context, examinationID, participantID string) error {
	const query = `INSERT INTO examination_members (id, examination_id, participant_id, created_at)
        VALUES ($1, $2, $3, $4)
        ON CONFLICT (examination_id, participant_id) DO NOTHING`
	if _, err := r.db.ExecContext(ctx, query, uuid.NewString(), examinationID, participantID, time.Now().UTC()); err != nil {
		return fmt.Errorf("add examination member: %w", err)
	}
	return nil
}

// RemoveMember removes a participant and their results from an examination.
func (r *ExaminationRepository) RemoveMember(ctx context.Context, examinationID, participantID string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	statements := []string{
		`DELETE FROM item_results WHERE examination_id = $1 AND participant_id = $2`,
		`DELETE FROM aspect_results WHERE examination_id = $1 AND participant_id = $2`,
		`DELETE FROM overall_results WHERE examination_id = $1 AND participant_id = $2`,
		`DELETE FROM examination_members WHERE examination_id = $1 AND participant_id = $2`,
	}
	for _, stmt := range statements {
		if _, err := tx.ExecContext(ctx, stmt, examinationID, participantID); err != nil {
			tx.Rollback() //nolint:errcheck
			return fmt.Errorf("remove examination member: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit member removal: %w", err)
	}
	return nil
}

// ListMembers returns the enrolled participants of an examination.
func (r *ExaminationRepository) ListMembers(ctx context.Context, examinationID string) ([]models.ExaminationMember, error) {
	const query = `SELECT m.id, m.examination_id, m.participant_id, m.created_at, p.kind, p.full_name, p.gender
        FROM examination_members m
        JOIN participants p ON p.id = m.participant_id
        WHERE m.examination_id = $1
        ORDER BY m.created_at ASC`
	var members []models.ExaminationMember
	if err := r.db.SelectContext(ctx, &members, query, examinationID); err != nil {
		return nil, fmt.Errorf("list examination members: %w", err)
	}
	return members, nil
}

// FindMember returns one enrolled participant of an examination.
func (r *ExaminationRepository) FindMember(ctx context.Context, examinationID, participantID string) (*models.ExaminationMember, error) {
	const query = `SELECT m.id, m.examination_id, m.participant_id, m.created_at, p.kind, p.full_name, p.gender
        FROM examination_members m
        JOIN participants p ON p.id = m.participant_id
        WHERE m.examination_id = $1 AND m.participant_id = $2`
	var member models.ExaminationMember
	if err := r.db.GetContext(ctx, &member, query, examinationID, participantID); err != nil {
		return nil, err
	}
	return &member, nil
}
