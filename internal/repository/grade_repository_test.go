package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edupulse/retention-api/internal/models"
)

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return sqlx.NewDb(db, "sqlmock"), mock
}

func TestGradeUpsert_InsertOrUpdateInOneStatement(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewGradeRepository(db)

	mock.ExpectExec(`INSERT INTO grades .*ON CONFLICT \(student_id, grade_item_id\).*DO UPDATE SET score = EXCLUDED\.score`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	grade := &models.Grade{StudentID: "stu-1", GradeItemID: "item-1", Score: 87.5}
	require.NoError(t, repo.Upsert(context.Background(), grade))

	assert.NotEmpty(t, grade.ID)
	assert.False(t, grade.SubmittedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGradeUpsert_PropagatesStorageError(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewGradeRepository(db)

	mock.ExpectExec(`INSERT INTO grades`).WillReturnError(errors.New("connection reset"))

	err := repo.Upsert(context.Background(), &models.Grade{StudentID: "stu-1", GradeItemID: "item-1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "upsert grade")
}

func TestGradeBulkUpsert_SingleTransaction(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewGradeRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO grades`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO grades`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	grades := []models.Grade{
		{StudentID: "stu-1", GradeItemID: "item-1", Score: 50},
		{StudentID: "stu-2", GradeItemID: "item-1", Score: 60},
	}
	require.NoError(t, repo.BulkUpsert(context.Background(), grades))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGradeBulkUpsert_RollsBackOnFailure(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewGradeRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO grades`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO grades`).WillReturnError(errors.New("constraint failure"))
	mock.ExpectRollback()

	grades := []models.Grade{
		{StudentID: "stu-1", GradeItemID: "item-1", Score: 50},
		{StudentID: "stu-2", GradeItemID: "item-1", Score: 60},
	}
	require.Error(t, repo.BulkUpsert(context.Background(), grades))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGradeBulkUpsert_EmptyBatchIsNoop(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewGradeRepository(db)

	require.NoError(t, repo.BulkUpsert(context.Background(), nil))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGradeFindByPair(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewGradeRepository(db)

	rows := sqlmock.NewRows([]string{"id", "student_id", "grade_item_id", "score"}).
		AddRow("g-1", "stu-1", "item-1", 92.0)
	mock.ExpectQuery(`SELECT .* FROM grades.*WHERE student_id = \$1 AND grade_item_id = \$2`).
		WithArgs("stu-1", "item-1").
		WillReturnRows(rows)

	grade, err := repo.FindByPair(context.Background(), "stu-1", "item-1")
	require.NoError(t, err)
	assert.Equal(t, 92.0, grade.Score)
}

func TestGradeFetchByStudents_KeysByStudent(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewGradeRepository(db)

	rows := sqlmock.NewRows([]string{"id", "student_id", "grade_item_id", "score"}).
		AddRow("g-1", "stu-1", "item-1", 80.0).
		AddRow("g-2", "stu-1", "item-2", 90.0).
		AddRow("g-3", "stu-2", "item-1", 70.0)
	mock.ExpectQuery(`SELECT .* FROM grades g.*WHERE g\.student_id IN`).
		WillReturnRows(rows)

	result, err := repo.FetchByStudents(context.Background(), []string{"stu-1", "stu-2"}, "course-1")
	require.NoError(t, err)
	assert.Len(t, result["stu-1"], 2)
	assert.Len(t, result["stu-2"], 1)
}

func TestGradeFetchByStudents_EmptyInput(t *testing.T) {
	db, _ := newMockDB(t)
	repo := NewGradeRepository(db)

	result, err := repo.FetchByStudents(context.Background(), nil, "course-1")
	require.NoError(t, err)
	assert.Empty(t, result)
}
