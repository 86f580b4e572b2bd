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

type examinationRepo interface {
	Create(ctx context.Context, exam *models.Examination) error
	List(ctx context.Context, filter models.ExaminationFilter) ([]models.Examination, int, error)
	FindByID(ctx context.Context, id string) (*models.Examination, error)
	Delete(ctx context.Context, id string) error
	AddMember(ctx context.Context, examinationID, participantID string) error
	RemoveMember(ctx context.Context, examinationID, participantID string) error
	ListMembers(ctx context.Context, examinationID string) ([]models.ExaminationMember, error)
	FindMember(ctx context.Context, examinationID, participantID string) (*models.ExaminationMember, error)
}

type participantReader interface {
	FindByID(ctx context.Context, id string) (*models.Participant, error)
}

// CreateExaminationRequest creates a new examination in a branch.
type CreateExaminationRequest struct {
	Name       string    `json:"name" validate:"required"`
	BranchID   string    `json:"branch_id" validate:"required"`
	CategoryID *string   `json:"category_id"`
	HeldAt     time.Time `json:"held_at" validate:"required"`
	Notes      *string   `json:"notes"`
}

// EnrollRequest adds a participant to an examination roster.
type EnrollRequest struct {
	ExaminationID string `json:"examination_id" validate:"required"`
	ParticipantID string `json:"participant_id" validate:"required"`
}

// ExaminationService manages examinations and their rosters.
type ExaminationService struct {
	examinations examinationRepo
	participants participantReader
	validator    *validator.Validate
	logger       *zap.Logger
}

// NewExaminationService constructs ExaminationService.
func NewExaminationService(examinations examinationRepo, participants participantReader, validate *validator.Validate, logger *zap.Logger) *ExaminationService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExaminationService{
		examinations: examinations,
		participants: participants,
		validator:    validate,
		logger:       logger,
	}
}

// Create registers a new examination.
func (s *ExaminationService) Create(ctx context.Context, req CreateExaminationRequest, actorID string) (*models.Examination, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid examination payload")
	}

	exam := &models.Examination{
		Name:       req.Name,
		BranchID:   req.BranchID,
		CategoryID: req.CategoryID,
		HeldAt:     req.HeldAt,
		Notes:      req.Notes,
		CreatedBy:  &actorID,
	}
	if err := s.examinations.Create(ctx, exam); err != nil {
		s.logger.Error("failed to create examination", zap.String("branch_id", req.BranchID), zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create examination")
	}

	s.logger.Info("examination created",
		zap.String("examination_id", exam.ID),
		zap.String("branch_id", exam.BranchID),
		zap.String("actor_id", actorID))
	return exam, nil
}

// List returns examinations matching the filter with pagination.
func (s *ExaminationService) List(ctx context.Context, filter models.ExaminationFilter) ([]models.Examination, *models.Pagination, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PerPage < 1 || filter.PerPage > 100 {
		filter.PerPage = 20
	}
	exams, total, err := s.examinations.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list examinations")
	}
	return exams, models.NewPagination(filter.Page, filter.PerPage, total), nil
}

// Get returns one examination by id.
func (s *ExaminationService) Get(ctx context.Context, id string) (*models.Examination, error) {
	exam, err := s.examinations.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "examination not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load examination")
	}
	return exam, nil
}

// Delete soft-deletes an examination.
func (s *ExaminationService) Delete(ctx context.Context, id, actorID string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.examinations.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete examination")
	}
	s.logger.Info("examination deleted", zap.String("examination_id", id), zap.String("actor_id", actorID))
	return nil
}

// Enroll adds a participant to the examination roster. Coaches and supporters
// may be enrolled for attendance but will be rejected at scoring time.
func (s *ExaminationService) Enroll(ctx context.Context, req EnrollRequest, actorID string) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid enrollment payload")
	}
	if _, err := s.Get(ctx, req.ExaminationID); err != nil {
		return err
	}
	participant, err := s.participants.FindByID(ctx, req.ParticipantID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "participant not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load participant")
	}
	if !participant.Kind.Valid() {
		return appErrors.Clone(appErrors.ErrValidation, "participant has an unknown kind")
	}

	if err := s.examinations.AddMember(ctx, req.ExaminationID, req.ParticipantID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to enroll participant")
	}
	s.logger.Info("participant enrolled",
		zap.String("examination_id", req.ExaminationID),
		zap.String("participant_id", req.ParticipantID),
		zap.String("actor_id", actorID))
	return nil
}

// RemoveMember removes a participant from the roster together with any
// recorded results.
func (s *ExaminationService) RemoveMember(ctx context.Context, examinationID, participantID, actorID string) error {
	if _, err := s.Get(ctx, examinationID); err != nil {
		return err
	}
	if _, err := s.examinations.FindMember(ctx, examinationID, participantID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "participant is not enrolled in this examination")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load membership")
	}
	if err := s.examinations.RemoveMember(ctx, examinationID, participantID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to remove participant")
	}
	s.logger.Info("participant removed from examination",
		zap.String("examination_id", examinationID),
		zap.String("participant_id", participantID),
		zap.String("actor_id", actorID))
	return nil
}

// Members lists the examination roster.
func (s *ExaminationService) Members(ctx context.Context, examinationID string) ([]models.ExaminationMember, error) {
	if _, err := s.Get(ctx, examinationID); err != nil {
		return nil, err
	}
	members, err := s.examinations.ListMembers(ctx, examinationID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list members")
	}
	return members, nil
}
