package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/binapora/binapora-api/internal/models"
	"github.com/binapora/binapora-api/internal/service"
)

type fakeComparisonRepo struct {
	overall []models.OverallRow
	aspects []models.AspectRow
}

func (f *fakeComparisonRepo) OverallRows(ctx context.Context, examinationIDs []string) ([]models.OverallRow, error) {
	return f.overall, nil
}

func (f *fakeComparisonRepo) AspectRows(ctx context.Context, examinationIDs []string) ([]models.AspectRow, error) {
	return f.aspects, nil
}

type fakeExamBatchReader struct {
	examinations []models.Examination
}

func (f *fakeExamBatchReader) FindByIDs(ctx context.Context, ids []string) ([]models.Examination, error) {
	return f.examinations, nil
}

func newTrendRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	first := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	second := first.AddDate(0, 3, 0)
	score1, score2 := 70.0, 80.0
	svc := service.NewComparisonService(
		&fakeComparisonRepo{
			overall: []models.OverallRow{
				{ExaminationID: "exam-1", ExaminationName: "Triwulan I", HeldAt: first, ParticipantID: "participant-1", ParticipantName: "Andi", Bounded: &score1},
				{ExaminationID: "exam-2", ExaminationName: "Triwulan II", HeldAt: second, ParticipantID: "participant-1", ParticipantName: "Andi", Bounded: &score2},
			},
		},
		&fakeExamBatchReader{
			examinations: []models.Examination{
				{ID: "exam-1", Name: "Triwulan I", BranchID: "branch-1", HeldAt: first},
				{ID: "exam-2", Name: "Triwulan II", BranchID: "branch-1", HeldAt: second},
			},
		},
		nil, nil,
	)
	handler := NewComparisonHandler(svc)

	r := gin.New()
	r.GET("/participants/:id/trend", handler.Trend)
	return r
}

func TestComparisonHandlerTrendResolvesPathParticipant(t *testing.T) {
	r := newTrendRouter()

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/participants/participant-1/trend?examinationIds=exam-1,exam-2", nil)
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var envelope struct {
		Data models.TrendSeries `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	require.Len(t, envelope.Data.Points, 2)
	require.NotNil(t, envelope.Data.Points[0].Value)
	assert.Equal(t, 70.0, *envelope.Data.Points[0].Value)
	assert.Equal(t, models.TrendUp, envelope.Data.Trend)
}

func TestComparisonHandlerTrendRequiresExaminationIDs(t *testing.T) {
	r := newTrendRouter()

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/participants/participant-1/trend", nil)
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
