package handler

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/binapora/binapora-api/internal/middleware"
	"github.com/binapora/binapora-api/internal/models"
	"github.com/binapora/binapora-api/internal/service"
)

type fakeResultRepo struct {
	items map[string]models.ItemResult
}

func (f *fakeResultRepo) SaveSheet(ctx context.Context, sheet *models.ResultSheet) error {
	if f.items == nil {
		f.items = make(map[string]models.ItemResult)
	}
	for _, item := range sheet.Items {
		f.items[item.ItemID] = item
	}
	return nil
}

func (f *fakeResultRepo) Sheet(ctx context.Context, examinationID, participantID string) (*models.ResultSheet, error) {
	sheet := &models.ResultSheet{}
	for _, item := range f.items {
		sheet.Items = append(sheet.Items, item)
	}
	return sheet, nil
}

type fakeExamReader struct {
	kind models.ParticipantKind
}

func (f *fakeExamReader) FindByID(ctx context.Context, id string) (*models.Examination, error) {
	if id != "exam-1" {
		return nil, sql.ErrNoRows
	}
	return &models.Examination{ID: "exam-1", BranchID: "branch-1", HeldAt: time.Now()}, nil
}

func (f *fakeExamReader) FindMember(ctx context.Context, examinationID, participantID string) (*models.ExaminationMember, error) {
	return &models.ExaminationMember{
		ExaminationID: examinationID,
		ParticipantID: participantID,
		Kind:          f.kind,
		Gender:        models.GenderMale,
	}, nil
}

type fakeDefinitionReader struct{}

func (f *fakeDefinitionReader) ListByExamination(ctx context.Context, examinationID string) ([]models.ExamAspect, error) {
	target := 7.0
	return []models.ExamAspect{
		{
			ID:   "aspect-1",
			Name: "Fisik",
			Items: []models.ExamItem{
				{ID: "item-1", AspectID: "aspect-1", Name: "Lari 50m", TargetMale: &target, TargetFemale: &target, Direction: models.DirectionMin},
			},
		},
	}, nil
}

func newResultHandlerFixture(kind models.ParticipantKind) *ResultHandler {
	svc := service.NewResultService(&fakeResultRepo{}, &fakeExamReader{kind: kind}, &fakeDefinitionReader{}, nil, nil, nil, nil)
	return NewResultHandler(svc)
}

func resultTestContext(t *testing.T, body string) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPut, "/examinations/exam-1/results/participant-1", strings.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")
	c.Params = gin.Params{
		{Key: "id", Value: "exam-1"},
		{Key: "participantId", Value: "participant-1"},
	}
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "user-1", Role: models.RoleAdmin})
	return c, rec
}

func TestResultHandlerSaveScoresMeasurements(t *testing.T) {
	handler := newResultHandlerFixture(models.KindAthlete)

	c, rec := resultTestContext(t, `{"measurements":{"item-1":"00:07.00"}}`)
	handler.Save(c)

	require.Equal(t, http.StatusOK, rec.Code)

	var envelope struct {
		Data models.ResultSheet `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	require.Len(t, envelope.Data.Items, 1)
	require.NotNil(t, envelope.Data.Items[0].Bounded)
	assert.Equal(t, 100.0, *envelope.Data.Items[0].Bounded)
	require.NotNil(t, envelope.Data.Overall.Band)
	assert.Equal(t, models.BandTarget, *envelope.Data.Overall.Band)
}

func TestResultHandlerSaveRejectsCoach(t *testing.T) {
	handler := newResultHandlerFixture(models.KindCoach)

	c, rec := resultTestContext(t, `{"measurements":{"item-1":"00:07.00"}}`)
	handler.Save(c)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestResultHandlerSaveRejectsMalformedBody(t *testing.T) {
	handler := newResultHandlerFixture(models.KindAthlete)

	c, rec := resultTestContext(t, `{"measurements":`)
	handler.Save(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
