// Seeds a development database with a professor, a course, a small
// roster and a few graded items so the dashboards have something to show.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/edupulse/retention-api/internal/models"
	"github.com/edupulse/retention-api/internal/repository"
	"github.com/edupulse/retention-api/pkg/config"
	"github.com/edupulse/retention-api/pkg/database"
	"github.com/edupulse/retention-api/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	log, err := logger.New(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		log.Fatal("connect postgres", zap.Error(err))
	}
	defer db.Close()

	ctx := context.Background()
	users := repository.NewUserRepository(db)
	students := repository.NewStudentRepository(db)
	courses := repository.NewCourseRepository(db)
	enrollments := repository.NewEnrollmentRepository(db)
	items := repository.NewGradeItemRepository(db)
	grades := repository.NewGradeRepository(db)

	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)
	if err != nil {
		log.Fatal("hash password", zap.Error(err))
	}

	professor := &models.User{
		Email:        "professor@example.edu",
		PasswordHash: string(hash),
		FullName:     "Grace Hopper",
		Role:         models.RoleProfessor,
		Active:       true,
	}
	if err := users.Create(ctx, professor); err != nil {
		log.Fatal("seed professor", zap.Error(err))
	}

	course := &models.Course{
		Code:         "CS101",
		Name:         "Introduction to Programming",
		Semester:     "FALL",
		AcademicYear: "2026",
		Credits:      6,
		ProfessorID:  professor.ID,
	}
	if err := courses.Create(ctx, course); err != nil {
		log.Fatal("seed course", zap.Error(err))
	}

	seedItems := []models.GradeItem{
		{CourseID: course.ID, Title: "Homework 1", Type: models.GradeItemAssignment, MaxScore: 50, Weight: 20},
		{CourseID: course.ID, Title: "Midterm", Type: models.GradeItemMidterm, MaxScore: 100, Weight: 30},
		{CourseID: course.ID, Title: "Final", Type: models.GradeItemFinal, MaxScore: 100, Weight: 50},
	}
	for i := range seedItems {
		if err := items.Create(ctx, &seedItems[i]); err != nil {
			log.Fatal("seed grade item", zap.Error(err))
		}
	}

	names := []struct {
		name   string
		number string
		scores []float64 // indexed like seedItems; -1 means ungraded
	}{
		{"Ada Lovelace", "S001", []float64{48, 92, -1}},
		{"Alan Turing", "S002", []float64{45, 88, -1}},
		{"Edsger Dijkstra", "S003", []float64{30, 41, -1}},
		{"Barbara Liskov", "S004", []float64{-1, -1, -1}},
	}

	var batch []models.Grade
	for idx, entry := range names {
		account := &models.User{
			Email:        fmt.Sprintf("student%d@example.edu", idx+1),
			PasswordHash: string(hash),
			FullName:     entry.name,
			Role:         models.RoleStudent,
			Active:       true,
		}
		if err := users.Create(ctx, account); err != nil {
			log.Fatal("seed student user", zap.Error(err))
		}
		student := &models.Student{UserID: account.ID, StudentNumber: entry.number}
		if err := students.Create(ctx, student); err != nil {
			log.Fatal("seed student", zap.Error(err))
		}
		if err := enrollments.Create(ctx, &models.Enrollment{StudentID: student.ID, CourseID: course.ID}); err != nil {
			log.Fatal("seed enrollment", zap.Error(err))
		}
		for i, score := range entry.scores {
			if score < 0 {
				continue
			}
			batch = append(batch, models.Grade{
				StudentID:   student.ID,
				GradeItemID: seedItems[i].ID,
				Score:       score,
			})
		}
	}
	if err := grades.BulkUpsert(ctx, batch); err != nil {
		log.Fatal("seed grades", zap.Error(err))
	}

	log.Info("seed complete",
		zap.String("course_id", course.ID),
		zap.Int("students", len(names)),
		zap.Int("grades", len(batch)),
		zap.Time("at", time.Now()))
}
