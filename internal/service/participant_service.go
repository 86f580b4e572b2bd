package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/binapora/binapora-api/internal/models"
	appErrors "github.com/binapora/binapora-api/pkg/errors"
)

type participantRepo interface {
	List(ctx context.Context, filter models.ParticipantFilter) ([]models.Participant, int, error)
	FindByID(ctx context.Context, id string) (*models.Participant, error)
	Create(ctx context.Context, participant *models.Participant) error
}

// CreateParticipantRequest registers a new federation member.
type CreateParticipantRequest struct {
	FullName  string                 `json:"full_name" validate:"required"`
	Gender    string                 `json:"gender" validate:"required,oneof=L P"`
	Kind      models.ParticipantKind `json:"kind" validate:"required,oneof=ATLET PELATIH PENDUKUNG"`
	BranchID  string                 `json:"branch_id" validate:"required"`
	BirthDate *time.Time             `json:"birth_date"`
}

// ParticipantService manages federation members.
type ParticipantService struct {
	participants participantRepo
	validator    *validator.Validate
	logger       *zap.Logger
}

// NewParticipantService constructs ParticipantService.
func NewParticipantService(participants participantRepo, validate *validator.Validate, logger *zap.Logger) *ParticipantService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ParticipantService{participants: participants, validator: validate, logger: logger}
}

// List returns participants matching the filter with pagination.
func (s *ParticipantService) List(ctx context.Context, filter models.ParticipantFilter) ([]models.Participant, *models.Pagination, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PerPage < 1 || filter.PerPage > 100 {
		filter.PerPage = 20
	}
	participants, total, err := s.participants.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list participants")
	}
	return participants, models.NewPagination(filter.Page, filter.PerPage, total), nil
}

// Get returns a participant by id.
func (s *ParticipantService) Get(ctx context.Context, id string) (*models.Participant, error) {
	participant, err := s.participants.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "participant not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load participant")
	}
	return participant, nil
}

// Create registers a new participant.
func (s *ParticipantService) Create(ctx context.Context, req CreateParticipantRequest, actorID string) (*models.Participant, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid participant payload")
	}

	participant := &models.Participant{
		FullName:  req.FullName,
		Gender:    req.Gender,
		Kind:      req.Kind,
		BranchID:  req.BranchID,
		BirthDate: req.BirthDate,
		Active:    true,
	}
	if err := s.participants.Create(ctx, participant); err != nil {
		s.logger.Error("failed to create participant", zap.String("branch_id", req.BranchID), zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create participant")
	}

	s.logger.Info("participant created",
		zap.String("participant_id", participant.ID),
		zap.String("kind", string(participant.Kind)),
		zap.String("actor_id", actorID))
	return participant, nil
}
