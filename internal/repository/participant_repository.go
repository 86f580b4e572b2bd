package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/binapora/binapora-api/internal/models"
)

// ParticipantRepository handles persistence of athletes, coaches and support staff.
type ParticipantRepository struct {
	db *sqlx.DB
}

// NewParticipantRepository creates a new participant repository.
func NewParticipantRepository(db *sqlx.DB) *ParticipantRepository {
	return &ParticipantRepository{db: db}
}

// List returns participants matching the filter plus the total row count.
func (r *ParticipantRepository) List(ctx context.Context, filter models.ParticipantFilter) ([]models.Participant, int, error) {
	base := " FROM participants p WHERE p.active = TRUE"
	var args []interface{}
	if filter.BranchID != "" {
		args = append(args, filter.BranchID)
		base += fmt.Sprintf(" AND p.branch_id = $%d", len(args))
	}
	if filter.Kind != "" {
		args = append(args, filter.Kind)
		base += fmt.Sprintf(" AND p.kind = $%d", len(args))
	}
	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		base += fmt.Sprintf(" AND p.full_name ILIKE $%d", len(args))
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*)"+base, args...); err != nil {
		return nil, 0, fmt.Errorf("count participants: %w", err)
	}

	perPage := filter.PerPage
	if perPage <= 0 {
		perPage = 20
	}
	page := filter.Page
	if page <= 0 {
		page = 1
	}
	query := `SELECT p.id, p.full_name, p.kind, p.gender, p.branch_id, p.birth_date, p.active, p.created_at, p.updated_at` +
		base + fmt.Sprintf(" ORDER BY p.full_name ASC LIMIT %d OFFSET %d", perPage, (page-1)*perPage)

	var participants []models.Participant
	if err := r.db.SelectContext(ctx, &participants, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list participants: %w", err)
	}
	return participants, total, nil
}

// FindByID returns one participant.
func (r *ParticipantRepository) FindByID(ctx context.Context, id string) (*models.Participant, error) {
	const query = `SELECT id, full_name, kind, gender, branch_id, birth_date, active, created_at, updated_at
        FROM participants WHERE id = $1`
	var participant models.Participant
	if err := r.db.GetContext(ctx, &participant, query, id); err != nil {
		return nil, err
	}
	return &participant, nil
}

// Create inserts a new participant.
func (r *ParticipantRepository) Create(ctx context.Context, participant *models.Participant) error {
	if participant.ID == "" {
		participant.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	participant.CreatedAt = now
	participant.UpdatedAt = now
	const query = `INSERT INTO participants (id, full_name, kind, gender, branch_id, birth_date, active, created_at, updated_at)
        VALUES (:id, :full_name, :kind, :gender, :branch_id, :birth_date, :active, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, participant); err != nil {
		return fmt.Errorf("create participant: %w", err)
	}
	return nil
}
