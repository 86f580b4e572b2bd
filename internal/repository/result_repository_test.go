package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/binapora/binapora-api/internal/models"
)

func newResultRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func floatPtr(v float64) *float64 { return &v }

func bandPtr(b models.Band) *models.Band { return &b }

func sampleSheet() *models.ResultSheet {
	raw := "00:07.50"
	return &models.ResultSheet{
		Items: []models.ItemResult{
			{
				ExaminationID: "exam-1",
				ParticipantID: "participant-1",
				ItemID:        "item-1",
				RawValue:      &raw,
				Measurement:   floatPtr(7.5),
				Bounded:       floatPtr(93.33),
				Real:          floatPtr(93.33),
				Band:          bandPtr(models.BandNearTarget),
			},
		},
		Aspects: []models.AspectResult{
			{
				ExaminationID: "exam-1",
				ParticipantID: "participant-1",
				AspectID:      "aspect-1",
				Bounded:       floatPtr(93.33),
				Band:          bandPtr(models.BandNearTarget),
			},
		},
		Overall: models.OverallResult{
			ExaminationID: "exam-1",
			ParticipantID: "participant-1",
			Bounded:       floatPtr(93.33),
			Band:          bandPtr(models.BandNearTarget),
		},
	}
}

func TestResultRepositorySaveSheetCommitsAllLevels(t *testing.T) {
	db, mock, cleanup := newResultRepoMock(t)
	defer cleanup()

	repo := NewResultRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO item_results")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO aspect_results")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO overall_results")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	sheet := sampleSheet()
	require.NoError(t, repo.SaveSheet(context.Background(), sheet))
	require.NotEmpty(t, sheet.Items[0].ID)
	require.NotEmpty(t, sheet.Overall.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestResultRepositorySaveSheetRollsBackOnFailure(t *testing.T) {
	db, mock, cleanup := newResultRepoMock(t)
	defer cleanup()

	repo := NewResultRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO item_results")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO aspect_results")).
		WillReturnError(errors.New("constraint violation"))
	mock.ExpectRollback()

	err := repo.SaveSheet(context.Background(), sampleSheet())
	require.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestResultRepositorySheetReadsAllLevels(t *testing.T) {
	db, mock, cleanup := newResultRepoMock(t)
	defer cleanup()

	repo := NewResultRepository(db)
	now := time.Now()

	itemRows := sqlmock.NewRows([]string{"id", "examination_id", "participant_id", "item_id", "raw_value", "measurement", "bounded_pct", "real_pct", "band", "created_at", "updated_at", "item_name", "aspect_id"}).
		AddRow("ir-1", "exam-1", "participant-1", "item-1", "00:07.50", 7.5, 93.33, 93.33, "MENDEKATI_TARGET", now, now, "Lari 50m", "aspect-1")
	mock.ExpectQuery(regexp.QuoteMeta("FROM item_results ir")).
		WithArgs("exam-1", "participant-1").
		WillReturnRows(itemRows)

	aspectRows := sqlmock.NewRows([]string{"id", "examination_id", "participant_id", "aspect_id", "bounded_pct", "band", "created_at", "updated_at", "aspect_name"}).
		AddRow("ar-1", "exam-1", "participant-1", "aspect-1", 93.33, "MENDEKATI_TARGET", now, now, "Fisik")
	mock.ExpectQuery(regexp.QuoteMeta("FROM aspect_results ar")).
		WithArgs("exam-1", "participant-1").
		WillReturnRows(aspectRows)

	overallRows := sqlmock.NewRows([]string{"id", "examination_id", "participant_id", "bounded_pct", "band", "created_at", "updated_at"}).
		AddRow("or-1", "exam-1", "participant-1", 93.33, "MENDEKATI_TARGET", now, now)
	mock.ExpectQuery(regexp.QuoteMeta("FROM overall_results")).
		WithArgs("exam-1", "participant-1").
		WillReturnRows(overallRows)

	sheet, err := repo.Sheet(context.Background(), "exam-1", "participant-1")
	require.NoError(t, err)
	require.Len(t, sheet.Items, 1)
	require.Equal(t, "Lari 50m", sheet.Items[0].ItemName)
	require.Len(t, sheet.Aspects, 1)
	require.Equal(t, "Fisik", sheet.Aspects[0].AspectName)
	require.NotNil(t, sheet.Overall.Bounded)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestResultRepositorySheetToleratesMissingOverall(t *testing.T) {
	db, mock, cleanup := newResultRepoMock(t)
	defer cleanup()

	repo := NewResultRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM item_results ir")).
		WithArgs("exam-1", "participant-1").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectQuery(regexp.QuoteMeta("FROM aspect_results ar")).
		WithArgs("exam-1", "participant-1").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectQuery(regexp.QuoteMeta("FROM overall_results")).
		WithArgs("exam-1", "participant-1").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	sheet, err := repo.Sheet(context.Background(), "exam-1", "participant-1")
	require.NoError(t, err)
	require.Empty(t, sheet.Items)
	require.Nil(t, sheet.Overall.Bounded)
	require.NoError(t, mock.ExpectationsWereMet())
}
