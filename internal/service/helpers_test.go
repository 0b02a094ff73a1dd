package service

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/noah-isme/academia-api/internal/auth"
	"github.com/noah-isme/academia-api/internal/database"
	"github.com/noah-isme/academia-api/internal/dto"
	"github.com/noah-isme/academia-api/internal/models"
	"github.com/noah-isme/academia-api/internal/repository"
	"github.com/noah-isme/academia-api/pkg/events"
)

var (
	adminActor   = Actor{ID: 1, Role: models.RoleAdmin, Email: "admin@example.com"}
	facultyActor = Actor{ID: 2, Role: models.RoleFaculty, Email: "faculty@example.com"}
)

type testEnv struct {
	db        *gorm.DB
	redis     *miniredis.Miniredis
	auth      AuthService
	activity  ActivityService
	students  StudentService
	courses   CourseService
	faculty   FacultyService
	dashboard DashboardService
	reports   ReportService
}

func testLogger() zerolog.Logger {
	return zerolog.New(io.Discard)
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	validate := validator.New(validator.WithRequiredStructEnabled())
	logger := testLogger()

	studentRepo := repository.NewStudentRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	facultyRepo := repository.NewFacultyRepository(db)

	dashboard := NewDashboardService(studentRepo, courseRepo, facultyRepo, client, time.Minute, validate, logger)
	activity := NewActivityService(repository.NewActivityLogRepository(db), events.NopPublisher{}, dashboard, validate, logger)
	tokens := auth.NewTokenManager("test-secret", "academia-test", time.Hour)

	return &testEnv{
		db:        db,
		redis:     mr,
		auth:      NewAuthService(repository.NewUserRepository(db), tokens, activity, validate, logger),
		activity:  activity,
		students:  NewStudentService(studentRepo, courseRepo, activity, validate, logger),
		courses:   NewCourseService(courseRepo, studentRepo, activity, validate, logger),
		faculty:   NewFacultyService(facultyRepo, courseRepo, activity, validate, logger),
		dashboard: dashboard,
		reports:   NewReportService(studentRepo, courseRepo, validate, logger),
	}
}

func (e *testEnv) setClock(t *testing.T, now time.Time) {
	t.Helper()
	clock := func() time.Time { return now }
	e.courses.(*courseService).now = clock
	e.students.(*studentService).now = clock
}

func (e *testEnv) addStudent(t *testing.T, name string, year int) dto.StudentResponse {
	t.Helper()
	student, err := e.students.Create(context.Background(), adminActor, dto.CreateStudentRequest{Name: name, Year: year})
	require.NoError(t, err)
	return student
}

func (e *testEnv) addCourse(t *testing.T, name string) dto.CourseResponse {
	t.Helper()
	course, err := e.courses.Create(context.Background(), adminActor, dto.CreateCourseRequest{Name: name})
	require.NoError(t, err)
	return course
}

func (e *testEnv) enroll(t *testing.T, studentID, courseID uint) dto.CourseResponse {
	t.Helper()
	course, err := e.courses.AssignStudent(context.Background(), adminActor, dto.EnrollmentRequest{StudentID: studentID, CourseID: courseID})
	require.NoError(t, err)
	return course
}

func (e *testEnv) grade(t *testing.T, studentID, courseID uint, value float64) dto.GradeResponse {
	t.Helper()
	grade, err := e.students.UpdateGrade(context.Background(), adminActor, dto.UpdateGradeRequest{
		StudentID: studentID,
		CourseID:  courseID,
		Grade:     &value,
	})
	require.NoError(t, err)
	return grade
}

func (e *testEnv) activityCount(t *testing.T) int64 {
	t.Helper()
	var count int64
	require.NoError(t, e.db.Model(&models.ActivityLog{}).Count(&count).Error)
	return count
}

func ptrUint(v uint) *uint {
	return &v
}

func ptrString(v string) *string {
	return &v
}
