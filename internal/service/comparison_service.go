package service

import (
	"context"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/binapora/binapora-api/internal/models"
	"github.com/binapora/binapora-api/internal/scoring"
	appErrors "github.com/binapora/binapora-api/pkg/errors"
)

type comparisonRepo interface {
	OverallRows(ctx context.Context, examinationIDs []string) ([]models.OverallRow, error)
	AspectRows(ctx context.Context, examinationIDs []string) ([]models.AspectRow, error)
}

type examinationBatchReader interface {
	FindByIDs(ctx context.Context, ids []string) ([]models.Examination, error)
}

// TrendRequest selects a trend series. An empty AspectName means the overall level.
type TrendRequest struct {
	ParticipantID  string   `json:"participant_id" validate:"required"`
	AspectName     string   `json:"aspect_name"`
	ExaminationIDs []string `json:"examination_ids" validate:"required,min=2"`
}

// ComparisonService answers the read-side queries over persisted results:
// per-participant trends, the cross-examination comparison matrix, and the
// two ranking shapes. It never touches raw measurements.
type ComparisonService struct {
	repo         comparisonRepo
	examinations examinationBatchReader
	cache        *CacheService
	logger       *zap.Logger
}

// NewComparisonService constructs ComparisonService.
func NewComparisonService(repo comparisonRepo, examinations examinationBatchReader, cache *CacheService, logger *zap.Logger) *ComparisonService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ComparisonService{repo: repo, examinations: examinations, cache: cache, logger: logger}
}

// Trend returns the chronological series and trend for one participant at the
// aspect or overall level across at least two examinations. Examinations
// without a result contribute a nil placeholder; only non-nil values decide
// the trend.
func (s *ComparisonService) Trend(ctx context.Context, req TrendRequest) (*models.TrendSeries, error) {
	if req.ParticipantID == "" || len(req.ExaminationIDs) < 2 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "participant and at least two examinations required")
	}

	exams, err := s.orderedExaminations(ctx, req.ExaminationIDs)
	if err != nil {
		return nil, err
	}

	values := make(map[string]*float64, len(exams))
	if req.AspectName == "" {
		rows, err := s.repo.OverallRows(ctx, req.ExaminationIDs)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load overall results")
		}
		for _, row := range rows {
			if row.ParticipantID == req.ParticipantID {
				values[row.ExaminationID] = row.Bounded
			}
		}
	} else {
		rows, err := s.repo.AspectRows(ctx, req.ExaminationIDs)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load aspect results")
		}
		for _, row := range rows {
			if row.ParticipantID == req.ParticipantID && row.AspectName == req.AspectName {
				values[row.ExaminationID] = row.Bounded
			}
		}
	}

	series := &models.TrendSeries{AspectName: req.AspectName}
	ordered := make([]*float64, 0, len(exams))
	for _, exam := range exams {
		value := values[exam.ID]
		series.Points = append(series.Points, models.SeriesPoint{
			ExaminationID:   exam.ID,
			ExaminationName: exam.Name,
			HeldAt:          exam.HeldAt,
			Value:           value,
		})
		ordered = append(ordered, value)
	}
	series.Trend = scoring.Trend(ordered)
	return series, nil
}

// Matrix builds the cross-examination comparison for one branch. Aspects are
// unioned by name across the examination set, so the same named aspect from
// different examinations lands on one comparison row.
func (s *ComparisonService) Matrix(ctx context.Context, branchID string, examinationIDs []string) (*models.ComparisonMatrix, error) {
	if branchID == "" || len(examinationIDs) < 2 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "branch and at least two examinations required")
	}

	cacheKey := "comparison:" + branchID + ":" + strings.Join(examinationIDs, ",")
	var cached models.ComparisonMatrix
	if hit, _ := s.cache.Get(ctx, cacheKey, &cached); hit {
		return &cached, nil
	}

	exams, err := s.orderedExaminations(ctx, examinationIDs)
	if err != nil {
		return nil, err
	}
	for _, exam := range exams {
		if exam.BranchID != branchID {
			return nil, appErrors.Clone(appErrors.ErrValidation, "examinations must belong to the requested branch")
		}
	}

	aspectRows, err := s.repo.AspectRows(ctx, examinationIDs)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load aspect results")
	}
	overallRows, err := s.repo.OverallRows(ctx, examinationIDs)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load overall results")
	}

	matrix := &models.ComparisonMatrix{BranchID: branchID}
	for _, exam := range exams {
		matrix.ExaminationIDs = append(matrix.ExaminationIDs, exam.ID)
	}

	type participant struct {
		id   string
		name string
	}
	var participants []participant
	seenParticipants := make(map[string]bool)
	noteParticipant := func(id, name string) {
		if !seenParticipants[id] {
			seenParticipants[id] = true
			participants = append(participants, participant{id: id, name: name})
		}
	}

	seenAspects := make(map[string]bool)
	aspectValues := make(map[string]map[string]*float64)
	for _, row := range aspectRows {
		noteParticipant(row.ParticipantID, row.ParticipantName)
		if !seenAspects[row.AspectName] {
			seenAspects[row.AspectName] = true
			matrix.AspectNames = append(matrix.AspectNames, row.AspectName)
		}
		key := row.ParticipantID + "\x00" + row.AspectName
		if aspectValues[key] == nil {
			aspectValues[key] = make(map[string]*float64, len(exams))
		}
		aspectValues[key][row.ExaminationID] = row.Bounded
	}

	overallValues := make(map[string]map[string]*float64)
	for _, row := range overallRows {
		noteParticipant(row.ParticipantID, row.ParticipantName)
		if overallValues[row.ParticipantID] == nil {
			overallValues[row.ParticipantID] = make(map[string]*float64, len(exams))
		}
		overallValues[row.ParticipantID][row.ExaminationID] = row.Bounded
	}

	buildRow := func(p participant, aspectName string, values map[string]*float64) models.ComparisonRow {
		row := models.ComparisonRow{
			ParticipantID:   p.id,
			ParticipantName: p.name,
			AspectName:      aspectName,
		}
		ordered := make([]*float64, 0, len(exams))
		for _, exam := range exams {
			var value *float64
			if values != nil {
				value = values[exam.ID]
			}
			row.Points = append(row.Points, models.SeriesPoint{
				ExaminationID:   exam.ID,
				ExaminationName: exam.Name,
				HeldAt:          exam.HeldAt,
				Value:           value,
			})
			ordered = append(ordered, value)
		}
		row.Trend = scoring.Trend(ordered)
		return row
	}

	for _, p := range participants {
		for _, aspectName := range matrix.AspectNames {
			matrix.Rows = append(matrix.Rows, buildRow(p, aspectName, aspectValues[p.id+"\x00"+aspectName]))
		}
		matrix.Overall = append(matrix.Overall, buildRow(p, "", overallValues[p.id]))
	}

	_ = s.cache.Set(ctx, cacheKey, matrix, 0)
	return matrix, nil
}

// RankAcross ranks participants by the mean of their overall results across
// the examination set, descending. Participants missing a result in some
// examinations are still ranked on the results they do have; ties keep their
// first-seen order.
func (s *ComparisonService) RankAcross(ctx context.Context, examinationIDs []string) ([]models.RankingEntry, error) {
	if len(examinationIDs) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "at least one examination required")
	}

	cacheKey := "rankings:set:" + strings.Join(examinationIDs, ",")
	var cached []models.RankingEntry
	if hit, _ := s.cache.Get(ctx, cacheKey, &cached); hit {
		return cached, nil
	}

	rows, err := s.repo.OverallRows(ctx, examinationIDs)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load overall results")
	}

	type accumulator struct {
		id    string
		name  string
		sum   float64
		count int
	}
	var order []string
	byParticipant := make(map[string]*accumulator)
	for _, row := range rows {
		if row.Bounded == nil {
			continue
		}
		acc, ok := byParticipant[row.ParticipantID]
		if !ok {
			acc = &accumulator{id: row.ParticipantID, name: row.ParticipantName}
			byParticipant[row.ParticipantID] = acc
			order = append(order, row.ParticipantID)
		}
		acc.sum += *row.Bounded
		acc.count++
	}

	entries := make([]models.RankingEntry, 0, len(order))
	for _, id := range order {
		acc := byParticipant[id]
		mean := scoring.Round2(acc.sum / float64(acc.count))
		entries = append(entries, models.RankingEntry{
			ParticipantID:   acc.id,
			ParticipantName: acc.name,
			Score:           mean,
			Band:            scoring.Classify(&mean),
			Examinations:    acc.count,
		})
	}
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].Score > entries[j].Score })
	for i := range entries {
		entries[i].Rank = i + 1
	}

	_ = s.cache.Set(ctx, cacheKey, entries, 0)
	return entries, nil
}

// RankWithin ranks participants inside a single examination by its overall
// result, descending. Participants without an overall result are excluded.
func (s *ComparisonService) RankWithin(ctx context.Context, examinationID string) ([]models.RankingEntry, error) {
	if examinationID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "examination required")
	}

	cacheKey := "rankings:exam:" + examinationID
	var cached []models.RankingEntry
	if hit, _ := s.cache.Get(ctx, cacheKey, &cached); hit {
		return cached, nil
	}

	rows, err := s.repo.OverallRows(ctx, []string{examinationID})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load overall results")
	}

	entries := make([]models.RankingEntry, 0, len(rows))
	for _, row := range rows {
		if row.Bounded == nil {
			continue
		}
		entries = append(entries, models.RankingEntry{
			ParticipantID:   row.ParticipantID,
			ParticipantName: row.ParticipantName,
			Score:           *row.Bounded,
			Band:            row.Band,
		})
	}
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].Score > entries[j].Score })
	for i := range entries {
		entries[i].Rank = i + 1
	}

	_ = s.cache.Set(ctx, cacheKey, entries, 0)
	return entries, nil
}

func (s *ComparisonService) orderedExaminations(ctx context.Context, ids []string) ([]models.Examination, error) {
	exams, err := s.examinations.FindByIDs(ctx, ids)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load examinations")
	}
	if len(exams) != len(ids) {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "one or more examinations not found")
	}
	return exams, nil
}
