package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/binapora/binapora-api/internal/models"
	appErrors "github.com/binapora/binapora-api/pkg/errors"
)

type definitionRepo interface {
	ListByExamination(ctx context.Context, examinationID string) ([]models.ExamAspect, error)
	ReplaceAll(ctx context.Context, examinationID string, aspects []models.ExamAspect) error
	Upsert(ctx context.Context, examinationID string, aspects []models.ExamAspect) error
}

type templateRepo interface {
	FindByBranch(ctx context.Context, branchID string) (*models.ExamTemplate, error)
	Replace(ctx context.Context, branchID, name string, actorID *string, aspects []models.ExamAspect) error
}

// ItemDefinitionRequest is one test item inside a definition payload.
type ItemDefinitionRequest struct {
	Name         string           `json:"name" validate:"required"`
	Unit         string           `json:"unit"`
	TargetMale   *float64         `json:"target_male"`
	TargetFemale *float64         `json:"target_female"`
	Direction    models.Direction `json:"direction" validate:"required,oneof=max min"`
	Position     int              `json:"position"`
}

// AspectDefinitionRequest is one aspect inside a definition payload.
type AspectDefinitionRequest struct {
	Name     string                  `json:"name" validate:"required"`
	Position int                     `json:"position"`
	Items    []ItemDefinitionRequest `json:"items" validate:"required,min=1,dive"`
}

// SaveDefinitionsRequest replaces or reconciles an examination's definitions.
type SaveDefinitionsRequest struct {
	ExaminationID string                    `json:"examination_id" validate:"required"`
	Aspects       []AspectDefinitionRequest `json:"aspects" validate:"required,min=1,dive"`
}

// DefinitionService manages the aspect/item definitions of an examination and
// their exchange with the branch-scoped reusable template.
type DefinitionService struct {
	definitions  definitionRepo
	templates    templateRepo
	examinations examinationReader
	validator    *validator.Validate
	logger       *zap.Logger
}

// NewDefinitionService constructs DefinitionService.
func NewDefinitionService(definitions definitionRepo, templates templateRepo, examinations examinationReader, validate *validator.Validate, logger *zap.Logger) *DefinitionService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DefinitionService{
		definitions:  definitions,
		templates:    templates,
		examinations: examinations,
		validator:    validate,
		logger:       logger,
	}
}

// List returns the examination's live definitions.
func (s *DefinitionService) List(ctx context.Context, examinationID string) ([]models.ExamAspect, error) {
	if _, err := s.loadExamination(ctx, examinationID); err != nil {
		return nil, err
	}
	aspects, err := s.definitions.ListByExamination(ctx, examinationID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list definitions")
	}
	return aspects, nil
}

// Save reconciles the examination's definitions with the payload. Aspects
// match by name and items by (name, unit), so results recorded against an
// edited item stay linked; definitions absent from the payload are
// soft-invalidated.
func (s *DefinitionService) Save(ctx context.Context, req SaveDefinitionsRequest, actorID string) ([]models.ExamAspect, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid definitions payload")
	}
	if _, err := s.loadExamination(ctx, req.ExaminationID); err != nil {
		return nil, err
	}

	if err := s.definitions.Upsert(ctx, req.ExaminationID, toAspectModels(req.Aspects)); err != nil {
		s.logger.Error("failed to save definitions",
			zap.String("examination_id", req.ExaminationID),
			zap.String("actor_id", actorID),
			zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save definitions")
	}

	return s.List(ctx, req.ExaminationID)
}

// CloneTemplate copies the branch template's definitions into the
// examination, replacing whatever was there. The previous definitions are
// soft-invalidated; the clone is an independent copy and later edits on
// either side do not affect the other.
func (s *DefinitionService) CloneTemplate(ctx context.Context, examinationID, branchID, actorID string) ([]models.ExamAspect, error) {
	if examinationID == "" || branchID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "examination and branch required")
	}
	if _, err := s.loadExamination(ctx, examinationID); err != nil {
		return nil, err
	}

	template, err := s.templates.FindByBranch(ctx, branchID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("no examination template exists for branch %s", branchID))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load template")
	}

	aspects := make([]models.ExamAspect, 0, len(template.Aspects))
	for _, templateAspect := range template.Aspects {
		aspect := models.ExamAspect{Name: templateAspect.Name, Position: templateAspect.Position}
		for _, templateItem := range templateAspect.Items {
			aspect.Items = append(aspect.Items, models.ExamItem{
				Name:         templateItem.Name,
				Unit:         templateItem.Unit,
				TargetMale:   templateItem.TargetMale,
				TargetFemale: templateItem.TargetFemale,
				Direction:    templateItem.Direction,
				Position:     templateItem.Position,
			})
		}
		aspects = append(aspects, aspect)
	}

	if err := s.definitions.ReplaceAll(ctx, examinationID, aspects); err != nil {
		s.logger.Error("failed to clone template",
			zap.String("examination_id", examinationID),
			zap.String("branch_id", branchID),
			zap.String("actor_id", actorID),
			zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to clone template")
	}

	return s.List(ctx, examinationID)
}

// SaveAsTemplate stores the examination's current definitions as the branch's
// reusable template, overwriting the previous template content.
func (s *DefinitionService) SaveAsTemplate(ctx context.Context, examinationID, name, actorID string) error {
	exam, err := s.loadExamination(ctx, examinationID)
	if err != nil {
		return err
	}
	aspects, err := s.definitions.ListByExamination(ctx, examinationID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list definitions")
	}
	if len(aspects) == 0 {
		return appErrors.Clone(appErrors.ErrPreconditionFailed, "examination has no definitions to save")
	}
	if name == "" {
		name = exam.Name
	}

	var actor *string
	if actorID != "" {
		actor = &actorID
	}
	if err := s.templates.Replace(ctx, exam.BranchID, name, actor, aspects); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save template")
	}
	return nil
}

func (s *DefinitionService) loadExamination(ctx context.Context, examinationID string) (*models.Examination, error) {
	exam, err := s.examinations.FindByID(ctx, examinationID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "examination not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load examination")
	}
	return exam, nil
}

func toAspectModels(aspects []AspectDefinitionRequest) []models.ExamAspect {
	result := make([]models.ExamAspect, 0, len(aspects))
	for i, aspect := range aspects {
		position := aspect.Position
		if position == 0 {
			position = i + 1
		}
		converted := models.ExamAspect{Name: aspect.Name, Position: position}
		for j, item := range aspect.Items {
			itemPosition := item.Position
			if itemPosition == 0 {
				itemPosition = j + 1
			}
			converted.Items = append(converted.Items, models.ExamItem{
				Name:         item.Name,
				Unit:         item.Unit,
				TargetMale:   item.TargetMale,
				TargetFemale: item.TargetFemale,
				Direction:    item.Direction,
				Position:     itemPosition,
			})
		}
		result = append(result, converted)
	}
	return result
}
