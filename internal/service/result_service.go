package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/binapora/binapora-api/internal/models"
	"github.com/binapora/binapora-api/internal/scoring"
	appErrors "github.com/binapora/binapora-api/pkg/errors"
)

type resultRepo interface {
	SaveSheet(ctx context.Context, sheet *models.ResultSheet) error
	Sheet(ctx context.Context, examinationID, participantID string) (*models.ResultSheet, error)
}

type examinationReader interface {
	FindByID(ctx context.Context, id string) (*models.Examination, error)
	FindMember(ctx context.Context, examinationID, participantID string) (*models.ExaminationMember, error)
}

type definitionReader interface {
	ListByExamination(ctx context.Context, examinationID string) ([]models.ExamAspect, error)
}

// SaveResultsRequest carries one participant's raw measurements for one examination.
type SaveResultsRequest struct {
	ExaminationID string            `json:"examination_id" validate:"required"`
	ParticipantID string            `json:"participant_id" validate:"required"`
	Measurements  map[string]string `json:"measurements" validate:"required"`
}

// ResultService drives the scoring pipeline for one examination participant:
// normalise raw values, score them against gender-specific targets, roll item
// scores up into aspect and overall averages, and persist the whole sheet
// atomically.
type ResultService struct {
	results      resultRepo
	examinations examinationReader
	definitions  definitionReader
	cache        *CacheService
	metrics      *MetricsService
	validator    *validator.Validate
	logger       *zap.Logger
}

// NewResultService constructs ResultService.
func NewResultService(results resultRepo, examinations examinationReader, definitions definitionReader, cache *CacheService, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *ResultService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ResultService{
		results:      results,
		examinations: examinations,
		definitions:  definitions,
		cache:        cache,
		metrics:      metrics,
		validator:    validate,
		logger:       logger,
	}
}

// Save scores and persists one participant's measurements. The call is
// idempotent: identical inputs overwrite the same item/aspect/overall rows.
func (s *ResultService) Save(ctx context.Context, req SaveResultsRequest, actorID string) (*models.ResultSheet, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid results payload")
	}

	exam, err := s.examinations.FindByID(ctx, req.ExaminationID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "examination not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load examination")
	}

	member, err := s.examinations.FindMember(ctx, req.ExaminationID, req.ParticipantID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "participant is not enrolled in this examination")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load examination member")
	}
	if !member.Kind.Scoreable() {
		return nil, appErrors.Clone(appErrors.ErrNotScoreable, "only athletes receive examination scores")
	}
	if member.Gender != models.GenderMale && member.Gender != models.GenderFemale {
		// Unrecognised codes use the female target. Kept from the legacy
		// behaviour; logged so the fallback stays visible.
		s.logger.Warn("unrecognised gender code, using female target",
			zap.String("participant_id", member.ParticipantID),
			zap.String("gender", member.Gender))
	}

	aspects, err := s.definitions.ListByExamination(ctx, req.ExaminationID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load definitions")
	}

	existing, err := s.results.Sheet(ctx, req.ExaminationID, req.ParticipantID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load stored results")
	}
	boundedByItem := make(map[string]*float64, len(existing.Items))
	for _, item := range existing.Items {
		boundedByItem[item.ItemID] = item.Bounded
	}

	actor := &actorID
	sheet := &models.ResultSheet{}

	for _, aspect := range aspects {
		for _, item := range aspect.Items {
			raw, submitted := req.Measurements[item.ID]
			if !submitted {
				continue
			}
			measurement := scoring.ParseValue(raw)
			bounded, realPct := scoring.Performance(measurement, item.TargetFor(member.Gender), item.Direction)
			rawCopy := raw
			sheet.Items = append(sheet.Items, models.ItemResult{
				ExaminationID: req.ExaminationID,
				ParticipantID: req.ParticipantID,
				ItemID:        item.ID,
				RawValue:      &rawCopy,
				Measurement:   measurement,
				Bounded:       bounded,
				Real:          realPct,
				Band:          scoring.Classify(bounded),
				CreatedBy:     actor,
				UpdatedBy:     actor,
			})
			boundedByItem[item.ID] = bounded
		}
	}

	var aspectValues []*float64
	for _, aspect := range aspects {
		var itemValues []*float64
		for _, item := range aspect.Items {
			if bounded, ok := boundedByItem[item.ID]; ok {
				itemValues = append(itemValues, bounded)
			}
		}
		aspectAvg := scoring.Average(itemValues)
		sheet.Aspects = append(sheet.Aspects, models.AspectResult{
			ExaminationID: req.ExaminationID,
			ParticipantID: req.ParticipantID,
			AspectID:      aspect.ID,
			Bounded:       aspectAvg,
			Band:          scoring.Classify(aspectAvg),
			CreatedBy:     actor,
			UpdatedBy:     actor,
			AspectName:    aspect.Name,
		})
		aspectValues = append(aspectValues, aspectAvg)
	}

	overallAvg := scoring.Average(aspectValues)
	sheet.Overall = models.OverallResult{
		ExaminationID: req.ExaminationID,
		ParticipantID: req.ParticipantID,
		Bounded:       overallAvg,
		Band:          scoring.Classify(overallAvg),
		CreatedBy:     actor,
		UpdatedBy:     actor,
	}

	if err := s.results.SaveSheet(ctx, sheet); err != nil {
		s.logger.Error("failed to persist result sheet",
			zap.String("examination_id", req.ExaminationID),
			zap.String("participant_id", req.ParticipantID),
			zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save results")
	}

	if s.metrics != nil {
		s.metrics.RecordScoringRun()
	}
	if s.cache.Enabled() {
		_ = s.cache.Invalidate(ctx, "rankings:*")
		_ = s.cache.Invalidate(ctx, "comparison:*")
	}

	s.logger.Info("results saved",
		zap.String("examination_id", exam.ID),
		zap.String("participant_id", req.ParticipantID),
		zap.Int("items", len(sheet.Items)))
	return sheet, nil
}

// Sheet returns the stored results of one participant in one examination.
func (s *ResultService) Sheet(ctx context.Context, examinationID, participantID string) (*models.ResultSheet, error) {
	if examinationID == "" || participantID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "examination and participant required")
	}
	sheet, err := s.results.Sheet(ctx, examinationID, participantID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load results")
	}
	return sheet, nil
}
