package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/binapora/binapora-api/internal/models"
	appErrors "github.com/binapora/binapora-api/pkg/errors"
)

type mockComparisonRepo struct {
	overall []models.OverallRow
	aspects []models.AspectRow
}

func (m *mockComparisonRepo) OverallRows(ctx context.Context, examinationIDs []string) ([]models.OverallRow, error) {
	allowed := make(map[string]bool, len(examinationIDs))
	for _, id := range examinationIDs {
		allowed[id] = true
	}
	var rows []models.OverallRow
	for _, row := range m.overall {
		if allowed[row.ExaminationID] {
			rows = append(rows, row)
		}
	}
	return rows, nil
}

func (m *mockComparisonRepo) AspectRows(ctx context.Context, examinationIDs []string) ([]models.AspectRow, error) {
	allowed := make(map[string]bool, len(examinationIDs))
	for _, id := range examinationIDs {
		allowed[id] = true
	}
	var rows []models.AspectRow
	for _, row := range m.aspects {
		if allowed[row.ExaminationID] {
			rows = append(rows, row)
		}
	}
	return rows, nil
}

type mockExamBatchReader struct {
	exams []models.Examination
}

func (m *mockExamBatchReader) FindByIDs(ctx context.Context, ids []string) ([]models.Examination, error) {
	requested := make(map[string]bool, len(ids))
	for _, id := range ids {
		requested[id] = true
	}
	var found []models.Examination
	for _, exam := range m.exams {
		if requested[exam.ID] {
			found = append(found, exam)
		}
	}
	return found, nil
}

func comparisonFixture() (*ComparisonService, *mockComparisonRepo) {
	base := time.Date(2026, time.March, 1, 8, 0, 0, 0, time.UTC)
	exams := &mockExamBatchReader{exams: []models.Examination{
		{ID: "exam-1", Name: "Triwulan I", BranchID: "branch-1", HeldAt: base},
		{ID: "exam-2", Name: "Triwulan II", BranchID: "branch-1", HeldAt: base.AddDate(0, 3, 0)},
		{ID: "exam-3", Name: "Triwulan III", BranchID: "branch-1", HeldAt: base.AddDate(0, 6, 0)},
	}}
	repo := &mockComparisonRepo{
		overall: []models.OverallRow{
			{ExaminationID: "exam-1", ParticipantID: "andi", ParticipantName: "Andi", Bounded: ptrFloat(70)},
			{ExaminationID: "exam-1", ParticipantID: "budi", ParticipantName: "Budi", Bounded: ptrFloat(90)},
			{ExaminationID: "exam-2", ParticipantID: "budi", ParticipantName: "Budi", Bounded: ptrFloat(90)},
			{ExaminationID: "exam-3", ParticipantID: "andi", ParticipantName: "Andi", Bounded: ptrFloat(80)},
			{ExaminationID: "exam-3", ParticipantID: "budi", ParticipantName: "Budi", Bounded: ptrFloat(90)},
		},
		aspects: []models.AspectRow{
			{ExaminationID: "exam-1", ParticipantID: "andi", ParticipantName: "Andi", AspectName: "Fisik", Bounded: ptrFloat(65)},
			{ExaminationID: "exam-3", ParticipantID: "andi", ParticipantName: "Andi", AspectName: "Fisik", Bounded: ptrFloat(82)},
			{ExaminationID: "exam-1", ParticipantID: "budi", ParticipantName: "Budi", AspectName: "Teknik", Bounded: ptrFloat(88)},
		},
	}
	svc := NewComparisonService(repo, exams, nil, nil)
	return svc, repo
}

func TestComparisonServiceTrendOverall(t *testing.T) {
	svc, _ := comparisonFixture()

	series, err := svc.Trend(context.Background(), TrendRequest{
		ParticipantID:  "andi",
		ExaminationIDs: []string{"exam-1", "exam-2", "exam-3"},
	})
	require.NoError(t, err)

	require.Len(t, series.Points, 3)
	assert.Equal(t, "exam-1", series.Points[0].ExaminationID)
	require.NotNil(t, series.Points[0].Value)
	assert.Equal(t, 70.0, *series.Points[0].Value)
	assert.Nil(t, series.Points[1].Value)
	require.NotNil(t, series.Points[2].Value)
	assert.Equal(t, 80.0, *series.Points[2].Value)
	assert.Equal(t, models.TrendUp, series.Trend)
}

func TestComparisonServiceTrendAspectLevel(t *testing.T) {
	svc, _ := comparisonFixture()

	series, err := svc.Trend(context.Background(), TrendRequest{
		ParticipantID:  "andi",
		AspectName:     "Fisik",
		ExaminationIDs: []string{"exam-1", "exam-3"},
	})
	require.NoError(t, err)

	require.Len(t, series.Points, 2)
	assert.Equal(t, 65.0, *series.Points[0].Value)
	assert.Equal(t, 82.0, *series.Points[1].Value)
	assert.Equal(t, models.TrendUp, series.Trend)
}

func TestComparisonServiceTrendRequiresTwoExaminations(t *testing.T) {
	svc, _ := comparisonFixture()

	_, err := svc.Trend(context.Background(), TrendRequest{
		ParticipantID:  "andi",
		ExaminationIDs: []string{"exam-1"},
	})
	require.Error(t, err)

	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}

func TestComparisonServiceTrendUnknownExamination(t *testing.T) {
	svc, _ := comparisonFixture()

	_, err := svc.Trend(context.Background(), TrendRequest{
		ParticipantID:  "andi",
		ExaminationIDs: []string{"exam-1", "exam-missing"},
	})
	require.Error(t, err)

	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}

func TestComparisonServiceMatrix(t *testing.T) {
	svc, _ := comparisonFixture()

	matrix, err := svc.Matrix(context.Background(), "branch-1", []string{"exam-1", "exam-2", "exam-3"})
	require.NoError(t, err)

	assert.Equal(t, []string{"exam-1", "exam-2", "exam-3"}, matrix.ExaminationIDs)
	assert.ElementsMatch(t, []string{"Fisik", "Teknik"}, matrix.AspectNames)
	// Two participants times two aspect names.
	assert.Len(t, matrix.Rows, 4)
	assert.Len(t, matrix.Overall, 2)

	for _, row := range matrix.Rows {
		assert.Len(t, row.Points, 3)
		if row.ParticipantID == "andi" && row.AspectName == "Teknik" {
			for _, point := range row.Points {
				assert.Nil(t, point.Value)
			}
		}
	}
}

func TestComparisonServiceMatrixRejectsForeignBranch(t *testing.T) {
	svc, _ := comparisonFixture()

	_, err := svc.Matrix(context.Background(), "branch-2", []string{"exam-1", "exam-2"})
	require.Error(t, err)

	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}

func TestComparisonServiceRankAcross(t *testing.T) {
	svc, _ := comparisonFixture()

	entries, err := svc.RankAcross(context.Background(), []string{"exam-1", "exam-2", "exam-3"})
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Equal(t, 1, entries[0].Rank)
	assert.Equal(t, "budi", entries[0].ParticipantID)
	assert.Equal(t, 90.0, entries[0].Score)
	assert.Equal(t, 3, entries[0].Examinations)

	// Andi is ranked on the mean of the two recorded results only.
	assert.Equal(t, 2, entries[1].Rank)
	assert.Equal(t, "andi", entries[1].ParticipantID)
	assert.Equal(t, 75.0, entries[1].Score)
	assert.Equal(t, 2, entries[1].Examinations)
}

func TestComparisonServiceRankAcrossTiesKeepFirstSeenOrder(t *testing.T) {
	repo := &mockComparisonRepo{
		overall: []models.OverallRow{
			{ExaminationID: "exam-1", ParticipantID: "citra", ParticipantName: "Citra", Bounded: ptrFloat(85)},
			{ExaminationID: "exam-1", ParticipantID: "dewi", ParticipantName: "Dewi", Bounded: ptrFloat(85)},
		},
	}
	exams := &mockExamBatchReader{exams: []models.Examination{{ID: "exam-1", BranchID: "branch-1", HeldAt: time.Now()}}}
	svc := NewComparisonService(repo, exams, nil, nil)

	entries, err := svc.RankAcross(context.Background(), []string{"exam-1"})
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "citra", entries[0].ParticipantID)
	assert.Equal(t, 1, entries[0].Rank)
	assert.Equal(t, "dewi", entries[1].ParticipantID)
	assert.Equal(t, 2, entries[1].Rank)
}

func TestComparisonServiceRankWithinSkipsMissingResults(t *testing.T) {
	svc, _ := comparisonFixture()

	entries, err := svc.RankWithin(context.Background(), "exam-2")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "budi", entries[0].ParticipantID)
	assert.Equal(t, 1, entries[0].Rank)
}
