package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/binapora/binapora-api/internal/models"
	appErrors "github.com/binapora/binapora-api/pkg/errors"
)

type mockResultRepo struct {
	items    map[string]models.ItemResult
	aspects  map[string]models.AspectResult
	overall  *models.OverallResult
	saveErr  error
	sheetErr error
	saves    int
}

func (m *mockResultRepo) SaveSheet(ctx context.Context, sheet *models.ResultSheet) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	if m.items == nil {
		m.items = make(map[string]models.ItemResult)
	}
	if m.aspects == nil {
		m.aspects = make(map[string]models.AspectResult)
	}
	for _, item := range sheet.Items {
		m.items[item.ItemID] = item
	}
	for _, aspect := range sheet.Aspects {
		m.aspects[aspect.AspectID] = aspect
	}
	overall := sheet.Overall
	m.overall = &overall
	m.saves++
	return nil
}

func (m *mockResultRepo) Sheet(ctx context.Context, examinationID, participantID string) (*models.ResultSheet, error) {
	if m.sheetErr != nil {
		return nil, m.sheetErr
	}
	sheet := &models.ResultSheet{}
	for _, item := range m.items {
		sheet.Items = append(sheet.Items, item)
	}
	for _, aspect := range m.aspects {
		sheet.Aspects = append(sheet.Aspects, aspect)
	}
	if m.overall != nil {
		sheet.Overall = *m.overall
	}
	return sheet, nil
}

type mockExamReader struct {
	exam   *models.Examination
	member *models.ExaminationMember
}

func (m *mockExamReader) FindByID(ctx context.Context, id string) (*models.Examination, error) {
	if m.exam == nil || m.exam.ID != id {
		return nil, sql.ErrNoRows
	}
	return m.exam, nil
}

func (m *mockExamReader) FindMember(ctx context.Context, examinationID, participantID string) (*models.ExaminationMember, error) {
	if m.member == nil || m.member.ParticipantID != participantID {
		return nil, sql.ErrNoRows
	}
	return m.member, nil
}

type mockDefinitionReader struct {
	aspects []models.ExamAspect
}

func (m *mockDefinitionReader) ListByExamination(ctx context.Context, examinationID string) ([]models.ExamAspect, error) {
	return m.aspects, nil
}

func ptrFloat(v float64) *float64 { return &v }

func physicalAspect() []models.ExamAspect {
	return []models.ExamAspect{
		{
			ID:   "aspect-fisik",
			Name: "Fisik",
			Items: []models.ExamItem{
				{
					ID:           "item-lari",
					AspectID:     "aspect-fisik",
					Name:         "Lari 50m",
					Unit:         "detik",
					TargetMale:   ptrFloat(7.0),
					TargetFemale: ptrFloat(8.0),
					Direction:    models.DirectionMin,
				},
				{
					ID:           "item-lompat",
					AspectID:     "aspect-fisik",
					Name:         "Lompat Jauh",
					Unit:         "meter",
					TargetMale:   ptrFloat(5.0),
					TargetFemale: ptrFloat(4.5),
					Direction:    models.DirectionMax,
				},
			},
		},
	}
}

func newResultFixture(kind models.ParticipantKind, gender string) (*ResultService, *mockResultRepo) {
	results := &mockResultRepo{}
	exams := &mockExamReader{
		exam: &models.Examination{ID: "exam-1", Name: "Pemeriksaan Triwulan I", BranchID: "branch-1", HeldAt: time.Now()},
		member: &models.ExaminationMember{
			ExaminationID: "exam-1",
			ParticipantID: "participant-1",
			Kind:          kind,
			FullName:      "Andi Wijaya",
			Gender:        gender,
		},
	}
	definitions := &mockDefinitionReader{aspects: physicalAspect()}
	svc := NewResultService(results, exams, definitions, nil, nil, nil, nil)
	return svc, results
}

func TestResultServiceSaveScoresFullSheet(t *testing.T) {
	svc, repo := newResultFixture(models.KindAthlete, models.GenderMale)

	sheet, err := svc.Save(context.Background(), SaveResultsRequest{
		ExaminationID: "exam-1",
		ParticipantID: "participant-1",
		Measurements: map[string]string{
			"item-lari":   "00:07.50",
			"item-lompat": "5.50",
		},
	}, "user-1")
	require.NoError(t, err)
	require.Len(t, sheet.Items, 2)

	byItem := make(map[string]models.ItemResult)
	for _, item := range sheet.Items {
		byItem[item.ItemID] = item
	}

	lari := byItem["item-lari"]
	require.NotNil(t, lari.Measurement)
	assert.InDelta(t, 7.5, *lari.Measurement, 1e-9)
	require.NotNil(t, lari.Bounded)
	assert.Equal(t, 93.33, *lari.Bounded)
	require.NotNil(t, lari.Band)
	assert.Equal(t, models.BandNearTarget, *lari.Band)

	lompat := byItem["item-lompat"]
	require.NotNil(t, lompat.Bounded)
	assert.Equal(t, 100.0, *lompat.Bounded)
	require.NotNil(t, lompat.Real)
	assert.Equal(t, 110.0, *lompat.Real)
	require.NotNil(t, lompat.Band)
	assert.Equal(t, models.BandTarget, *lompat.Band)

	require.Len(t, sheet.Aspects, 1)
	require.NotNil(t, sheet.Aspects[0].Bounded)
	assert.Equal(t, 96.67, *sheet.Aspects[0].Bounded)
	require.NotNil(t, sheet.Aspects[0].Band)
	assert.Equal(t, models.BandNearTarget, *sheet.Aspects[0].Band)

	require.NotNil(t, sheet.Overall.Bounded)
	assert.Equal(t, 96.67, *sheet.Overall.Bounded)
	assert.Equal(t, 1, repo.saves)
}

func TestResultServiceSaveIsIdempotent(t *testing.T) {
	svc, repo := newResultFixture(models.KindAthlete, models.GenderMale)

	req := SaveResultsRequest{
		ExaminationID: "exam-1",
		ParticipantID: "participant-1",
		Measurements: map[string]string{
			"item-lari":   "00:07.50",
			"item-lompat": "5.50",
		},
	}
	first, err := svc.Save(context.Background(), req, "user-1")
	require.NoError(t, err)
	second, err := svc.Save(context.Background(), req, "user-1")
	require.NoError(t, err)

	assert.Equal(t, *first.Overall.Bounded, *second.Overall.Bounded)
	assert.Equal(t, 2, repo.saves)
	assert.Len(t, repo.items, 2)
}

func TestResultServiceSaveMergesStoredItems(t *testing.T) {
	svc, repo := newResultFixture(models.KindAthlete, models.GenderMale)

	_, err := svc.Save(context.Background(), SaveResultsRequest{
		ExaminationID: "exam-1",
		ParticipantID: "participant-1",
		Measurements: map[string]string{
			"item-lari":   "00:07.50",
			"item-lompat": "5.50",
		},
	}, "user-1")
	require.NoError(t, err)

	// Resubmit only the run; the jump score must still count in the averages.
	sheet, err := svc.Save(context.Background(), SaveResultsRequest{
		ExaminationID: "exam-1",
		ParticipantID: "participant-1",
		Measurements:  map[string]string{"item-lari": "00:07.00"},
	}, "user-1")
	require.NoError(t, err)

	require.Len(t, sheet.Items, 1)
	require.NotNil(t, sheet.Aspects[0].Bounded)
	assert.Equal(t, 100.0, *sheet.Aspects[0].Bounded)
	assert.Len(t, repo.items, 2)
}

func TestResultServiceSaveRejectsNonAthletes(t *testing.T) {
	for _, kind := range []models.ParticipantKind{models.KindCoach, models.KindSupport} {
		svc, repo := newResultFixture(kind, models.GenderMale)

		_, err := svc.Save(context.Background(), SaveResultsRequest{
			ExaminationID: "exam-1",
			ParticipantID: "participant-1",
			Measurements:  map[string]string{"item-lari": "00:07.50"},
		}, "user-1")
		require.Error(t, err)

		var appErr *appErrors.Error
		require.True(t, errors.As(err, &appErr))
		assert.Equal(t, appErrors.ErrNotScoreable.Code, appErr.Code)
		assert.Equal(t, 0, repo.saves)
	}
}

func TestResultServiceSaveExaminationNotFound(t *testing.T) {
	svc, _ := newResultFixture(models.KindAthlete, models.GenderMale)

	_, err := svc.Save(context.Background(), SaveResultsRequest{
		ExaminationID: "exam-unknown",
		ParticipantID: "participant-1",
		Measurements:  map[string]string{"item-lari": "00:07.50"},
	}, "user-1")
	require.Error(t, err)

	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}

func TestResultServiceSaveUnknownGenderUsesFemaleTarget(t *testing.T) {
	svc, _ := newResultFixture(models.KindAthlete, "X")

	sheet, err := svc.Save(context.Background(), SaveResultsRequest{
		ExaminationID: "exam-1",
		ParticipantID: "participant-1",
		Measurements:  map[string]string{"item-lari": "8.0"},
	}, "user-1")
	require.NoError(t, err)

	require.Len(t, sheet.Items, 1)
	require.NotNil(t, sheet.Items[0].Bounded)
	// Scored against the female target of 8.0, not the male 7.0.
	assert.Equal(t, 100.0, *sheet.Items[0].Bounded)
}

func TestResultServiceSaveMalformedValueDegradesToNull(t *testing.T) {
	svc, _ := newResultFixture(models.KindAthlete, models.GenderMale)

	sheet, err := svc.Save(context.Background(), SaveResultsRequest{
		ExaminationID: "exam-1",
		ParticipantID: "participant-1",
		Measurements: map[string]string{
			"item-lari":   "abc",
			"item-lompat": "5.50",
		},
	}, "user-1")
	require.NoError(t, err)

	byItem := make(map[string]models.ItemResult)
	for _, item := range sheet.Items {
		byItem[item.ItemID] = item
	}
	assert.Nil(t, byItem["item-lari"].Measurement)
	assert.Nil(t, byItem["item-lari"].Bounded)
	assert.Nil(t, byItem["item-lari"].Band)

	// The aspect average skips the null item instead of failing.
	require.NotNil(t, sheet.Aspects[0].Bounded)
	assert.Equal(t, 100.0, *sheet.Aspects[0].Bounded)
}

func TestResultServiceSaveNoMeasurableValuesYieldsNullSheet(t *testing.T) {
	svc, _ := newResultFixture(models.KindAthlete, models.GenderMale)

	sheet, err := svc.Save(context.Background(), SaveResultsRequest{
		ExaminationID: "exam-1",
		ParticipantID: "participant-1",
		Measurements:  map[string]string{"item-lari": ""},
	}, "user-1")
	require.NoError(t, err)

	assert.Nil(t, sheet.Aspects[0].Bounded)
	assert.Nil(t, sheet.Overall.Bounded)
	assert.Nil(t, sheet.Overall.Band)
}
