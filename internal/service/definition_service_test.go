package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/binapora/binapora-api/internal/models"
	appErrors "github.com/binapora/binapora-api/pkg/errors"
)

type mockDefinitionRepo struct {
	aspects   []models.ExamAspect
	replaced  bool
	upserted  bool
	lastSaved []models.ExamAspect
}

func (m *mockDefinitionRepo) ListByExamination(ctx context.Context, examinationID string) ([]models.ExamAspect, error) {
	return m.aspects, nil
}

func (m *mockDefinitionRepo) ReplaceAll(ctx context.Context, examinationID string, aspects []models.ExamAspect) error {
	m.replaced = true
	m.lastSaved = aspects
	m.aspects = aspects
	return nil
}

func (m *mockDefinitionRepo) Upsert(ctx context.Context, examinationID string, aspects []models.ExamAspect) error {
	m.upserted = true
	m.lastSaved = aspects
	m.aspects = aspects
	return nil
}

type mockTemplateRepo struct {
	template *models.ExamTemplate
	saved    bool
}

func (m *mockTemplateRepo) FindByBranch(ctx context.Context, branchID string) (*models.ExamTemplate, error) {
	if m.template == nil || m.template.BranchID != branchID {
		return nil, sql.ErrNoRows
	}
	return m.template, nil
}

func (m *mockTemplateRepo) Replace(ctx context.Context, branchID, name string, actorID *string, aspects []models.ExamAspect) error {
	m.saved = true
	return nil
}

func definitionFixture(template *models.ExamTemplate) (*DefinitionService, *mockDefinitionRepo, *mockTemplateRepo) {
	definitions := &mockDefinitionRepo{}
	templates := &mockTemplateRepo{template: template}
	exams := &mockExamReader{
		exam: &models.Examination{ID: "exam-1", Name: "Pemeriksaan Triwulan I", BranchID: "branch-1"},
	}
	svc := NewDefinitionService(definitions, templates, exams, nil, nil)
	return svc, definitions, templates
}

func TestDefinitionServiceSaveUpserts(t *testing.T) {
	svc, definitions, _ := definitionFixture(nil)

	_, err := svc.Save(context.Background(), SaveDefinitionsRequest{
		ExaminationID: "exam-1",
		Aspects: []AspectDefinitionRequest{
			{
				Name: "Fisik",
				Items: []ItemDefinitionRequest{
					{Name: "Lari 50m", Unit: "detik", TargetMale: ptrFloat(7.0), TargetFemale: ptrFloat(8.0), Direction: models.DirectionMin},
				},
			},
		},
	}, "user-1")
	require.NoError(t, err)

	assert.True(t, definitions.upserted)
	require.Len(t, definitions.lastSaved, 1)
	assert.Equal(t, "Fisik", definitions.lastSaved[0].Name)
	assert.Equal(t, 1, definitions.lastSaved[0].Position)
	require.Len(t, definitions.lastSaved[0].Items, 1)
	assert.Equal(t, 1, definitions.lastSaved[0].Items[0].Position)
}

func TestDefinitionServiceSaveRejectsEmptyAspects(t *testing.T) {
	svc, _, _ := definitionFixture(nil)

	_, err := svc.Save(context.Background(), SaveDefinitionsRequest{ExaminationID: "exam-1"}, "user-1")
	require.Error(t, err)

	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}

func TestDefinitionServiceCloneTemplate(t *testing.T) {
	template := &models.ExamTemplate{
		ID:       "template-1",
		BranchID: "branch-1",
		Name:     "Standar Atletik",
		Aspects: []models.TemplateAspect{
			{
				Name:     "Fisik",
				Position: 1,
				Items: []models.TemplateItem{
					{Name: "Lari 50m", Unit: "detik", TargetMale: ptrFloat(7.0), TargetFemale: ptrFloat(8.0), Direction: models.DirectionMin, Position: 1},
					{Name: "Lompat Jauh", Unit: "meter", TargetMale: ptrFloat(5.0), TargetFemale: ptrFloat(4.5), Direction: models.DirectionMax, Position: 2},
				},
			},
		},
	}
	svc, definitions, _ := definitionFixture(template)

	_, err := svc.CloneTemplate(context.Background(), "exam-1", "branch-1", "user-1")
	require.NoError(t, err)

	assert.True(t, definitions.replaced)
	require.Len(t, definitions.lastSaved, 1)
	require.Len(t, definitions.lastSaved[0].Items, 2)
	assert.Equal(t, "Lompat Jauh", definitions.lastSaved[0].Items[1].Name)
	// The clone is a fresh copy without template identifiers.
	assert.Empty(t, definitions.lastSaved[0].ID)
}

func TestDefinitionServiceCloneTemplateMissing(t *testing.T) {
	svc, definitions, _ := definitionFixture(nil)

	_, err := svc.CloneTemplate(context.Background(), "exam-1", "branch-1", "user-1")
	require.Error(t, err)

	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
	assert.False(t, definitions.replaced)
}

func TestDefinitionServiceSaveAsTemplate(t *testing.T) {
	svc, definitions, templates := definitionFixture(nil)
	definitions.aspects = []models.ExamAspect{
		{ID: "aspect-1", Name: "Fisik", Items: []models.ExamItem{{ID: "item-1", Name: "Lari 50m", Direction: models.DirectionMin}}},
	}

	err := svc.SaveAsTemplate(context.Background(), "exam-1", "Standar Atletik", "user-1")
	require.NoError(t, err)
	assert.True(t, templates.saved)
}

func TestDefinitionServiceSaveAsTemplateRequiresDefinitions(t *testing.T) {
	svc, _, templates := definitionFixture(nil)

	err := svc.SaveAsTemplate(context.Background(), "exam-1", "Standar Atletik", "user-1")
	require.Error(t, err)

	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrPreconditionFailed.Code, appErr.Code)
	assert.False(t, templates.saved)
}
