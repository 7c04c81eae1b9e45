package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edupulse/retention-api/internal/models"
	appErrors "github.com/edupulse/retention-api/pkg/errors"
)

type stubGradeItemRepo struct {
	items      map[string]models.GradeItem
	sumWeights float64
	created    []models.GradeItem
	deleted    []string
}

func (s *stubGradeItemRepo) Create(_ context.Context, item *models.GradeItem) error {
	item.ID = "generated"
	s.created = append(s.created, *item)
	return nil
}

func (s *stubGradeItemRepo) FindByID(_ context.Context, id string) (*models.GradeItem, error) {
	item, ok := s.items[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &item, nil
}

func (s *stubGradeItemRepo) ListByCourse(_ context.Context, _ string) ([]models.GradeItem, error) {
	list := make([]models.GradeItem, 0, len(s.items))
	for _, item := range s.items {
		list = append(list, item)
	}
	return list, nil
}

func (s *stubGradeItemRepo) SumWeights(_ context.Context, _ string) (float64, error) {
	return s.sumWeights, nil
}

func (s *stubGradeItemRepo) Delete(_ context.Context, id string) error {
	s.deleted = append(s.deleted, id)
	return nil
}

func newTestGradeItemService(repo *stubGradeItemRepo) *GradeItemService {
	courses := &stubCourseReader{courses: map[string]models.Course{
		"course-1": {ID: "course-1"},
	}}
	return NewGradeItemService(repo, courses, nil, nil)
}

func TestGradeItemCreate_WithinWeightBudget(t *testing.T) {
	repo := &stubGradeItemRepo{sumWeights: 60}
	svc := newTestGradeItemService(repo)

	item, err := svc.Create(context.Background(), "course-1", CreateGradeItemRequest{
		Title:    "Final",
		Type:     models.GradeItemFinal,
		MaxScore: 100,
		Weight:   40,
	})
	require.NoError(t, err)
	assert.Equal(t, "generated", item.ID)
	assert.Len(t, repo.created, 1)
}

func TestGradeItemCreate_ExceedsWeightBudget(t *testing.T) {
	repo := &stubGradeItemRepo{sumWeights: 80}
	svc := newTestGradeItemService(repo)

	_, err := svc.Create(context.Background(), "course-1", CreateGradeItemRequest{
		Title:    "Extra Credit",
		Type:     models.GradeItemOther,
		MaxScore: 10,
		Weight:   30,
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidWeights.Code, appErrors.FromError(err).Code)
	assert.Empty(t, repo.created)
}

func TestGradeItemCreate_UnknownType(t *testing.T) {
	svc := newTestGradeItemService(&stubGradeItemRepo{})

	_, err := svc.Create(context.Background(), "course-1", CreateGradeItemRequest{
		Title:    "Mystery",
		Type:     models.GradeItemType("POP_QUIZ"),
		MaxScore: 10,
		Weight:   10,
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestGradeItemCreate_NonPositiveMaxScore(t *testing.T) {
	svc := newTestGradeItemService(&stubGradeItemRepo{})

	_, err := svc.Create(context.Background(), "course-1", CreateGradeItemRequest{
		Title:    "Broken",
		Type:     models.GradeItemQuiz,
		MaxScore: 0,
		Weight:   10,
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestGradeItemDelete_Unknown(t *testing.T) {
	svc := newTestGradeItemService(&stubGradeItemRepo{items: map[string]models.GradeItem{}})

	err := svc.Delete(context.Background(), "missing")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
