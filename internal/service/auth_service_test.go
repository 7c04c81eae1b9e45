package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/edupulse/retention-api/internal/models"
	appErrors "github.com/edupulse/retention-api/pkg/errors"
)

type stubUserRepo struct {
	byEmail map[string]models.User
	byID    map[string]models.User
	tokens  map[string]models.RefreshToken
	revoked []string
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{
		byEmail: make(map[string]models.User),
		byID:    make(map[string]models.User),
		tokens:  make(map[string]models.RefreshToken),
	}
}

func (s *stubUserRepo) add(user models.User) {
	s.byEmail[user.Email] = user
	s.byID[user.ID] = user
}

func (s *stubUserRepo) Create(_ context.Context, user *models.User) error {
	user.ID = "user-" + user.Email
	s.add(*user)
	return nil
}

func (s *stubUserRepo) FindByEmail(_ context.Context, email string) (*models.User, error) {
	user, ok := s.byEmail[email]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &user, nil
}

func (s *stubUserRepo) FindByID(_ context.Context, id string) (*models.User, error) {
	user, ok := s.byID[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &user, nil
}

func (s *stubUserRepo) UpdateLastLogin(_ context.Context, _ string, _ time.Time) error {
	return nil
}

func (s *stubUserRepo) CreateRefreshToken(_ context.Context, token *models.RefreshToken) error {
	token.ID = "rt-" + token.Token
	s.tokens[token.Token] = *token
	return nil
}

func (s *stubUserRepo) FindRefreshToken(_ context.Context, token string) (*models.RefreshToken, error) {
	stored, ok := s.tokens[token]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &stored, nil
}

func (s *stubUserRepo) RevokeRefreshToken(_ context.Context, id string, _ time.Time) error {
	for key, token := range s.tokens {
		if token.ID == id {
			token.Revoked = true
			s.tokens[key] = token
		}
	}
	s.revoked = append(s.revoked, id)
	return nil
}

func (s *stubUserRepo) RevokeUserRefreshTokens(_ context.Context, userID string) error {
	s.revoked = append(s.revoked, "all:"+userID)
	return nil
}

type stubStudentWriter struct {
	created []models.Student
}

func (s *stubStudentWriter) Create(_ context.Context, student *models.Student) error {
	student.ID = "stu-" + student.UserID
	s.created = append(s.created, *student)
	return nil
}

func hashOf(t *testing.T, password string) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return string(hash)
}

func newTestAuthService(users *stubUserRepo, students *stubStudentWriter) *AuthService {
	return NewAuthService(users, students, "test-secret", time.Hour, 24*time.Hour, nil, nil)
}

func TestLogin_IssuesValidToken(t *testing.T) {
	users := newStubUserRepo()
	users.add(models.User{
		ID:           "user-1",
		Email:        "prof@example.edu",
		PasswordHash: hashOf(t, "correct horse"),
		FullName:     "Prof Example",
		Role:         models.RoleProfessor,
		Active:       true,
	})
	svc := newTestAuthService(users, &stubStudentWriter{})

	result, err := svc.Login(context.Background(), models.LoginRequest{
		Email:    "prof@example.edu",
		Password: "correct horse",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, result.AccessToken)
	assert.NotEmpty(t, result.RefreshToken)
	assert.Equal(t, models.RoleProfessor, result.User.Role)

	claims, err := svc.ValidateToken(result.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, models.RoleProfessor, claims.Role)
}

func TestLogin_WrongPassword(t *testing.T) {
	users := newStubUserRepo()
	users.add(models.User{
		ID:           "user-1",
		Email:        "prof@example.edu",
		PasswordHash: hashOf(t, "correct horse"),
		Active:       true,
	})
	svc := newTestAuthService(users, &stubStudentWriter{})

	_, err := svc.Login(context.Background(), models.LoginRequest{
		Email:    "prof@example.edu",
		Password: "wrong",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErrors.FromError(err).Code)
}

func TestLogin_InactiveAccount(t *testing.T) {
	users := newStubUserRepo()
	users.add(models.User{
		ID:           "user-1",
		Email:        "prof@example.edu",
		PasswordHash: hashOf(t, "correct horse"),
		Active:       false,
	})
	svc := newTestAuthService(users, &stubStudentWriter{})

	_, err := svc.Login(context.Background(), models.LoginRequest{
		Email:    "prof@example.edu",
		Password: "correct horse",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInactiveAccount.Code, appErrors.FromError(err).Code)
}

func TestRegister_StudentGetsProfile(t *testing.T) {
	users := newStubUserRepo()
	students := &stubStudentWriter{}
	svc := newTestAuthService(users, students)

	user, err := svc.Register(context.Background(), models.RegisterRequest{
		Email:         "ada@example.edu",
		Password:      "long enough pw",
		FullName:      "Ada Lovelace",
		Role:          models.RoleStudent,
		StudentNumber: "S001",
	})
	require.NoError(t, err)
	require.Len(t, students.created, 1)
	assert.Equal(t, user.ID, students.created[0].UserID)
	assert.Equal(t, "S001", students.created[0].StudentNumber)
}

func TestRegister_DuplicateEmail(t *testing.T) {
	users := newStubUserRepo()
	users.add(models.User{ID: "user-1", Email: "taken@example.edu"})
	svc := newTestAuthService(users, &stubStudentWriter{})

	_, err := svc.Register(context.Background(), models.RegisterRequest{
		Email:    "taken@example.edu",
		Password: "long enough pw",
		FullName: "Somebody",
		Role:     models.RoleProfessor,
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestRefresh_RotatesToken(t *testing.T) {
	users := newStubUserRepo()
	users.add(models.User{ID: "user-1", Email: "prof@example.edu", Active: true})
	svc := newTestAuthService(users, &stubStudentWriter{})

	original := &models.RefreshToken{
		UserID:    "user-1",
		Token:     "opaque-1",
		ExpiresAt: time.Now().Add(time.Hour),
		CreatedAt: time.Now(),
	}
	require.NoError(t, users.CreateRefreshToken(context.Background(), original))

	result, err := svc.Refresh(context.Background(), "opaque-1")
	require.NoError(t, err)
	assert.NotEmpty(t, result.AccessToken)
	assert.NotEqual(t, "opaque-1", result.RefreshToken)
	assert.True(t, users.tokens["opaque-1"].Revoked)

	// A rotated token no longer works.
	_, err = svc.Refresh(context.Background(), "opaque-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}

func TestValidateToken_Garbage(t *testing.T) {
	svc := newTestAuthService(newStubUserRepo(), &stubStudentWriter{})
	_, err := svc.ValidateToken("not.a.jwt")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}
