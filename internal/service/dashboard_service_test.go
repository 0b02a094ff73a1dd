package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/academia-api/internal/dto"
	"github.com/noah-isme/academia-api/internal/models"
	"github.com/noah-isme/academia-api/internal/repository"
)

// studentsAfterRead runs afterRead once, right after ListWithGrades returns.
type studentsAfterRead struct {
	repository.StudentRepository
	afterRead func()
}

func (s *studentsAfterRead) ListWithGrades(ctx context.Context) ([]models.Student, error) {
	students, err := s.StudentRepository.ListWithGrades(ctx)
	if s.afterRead != nil {
		hook := s.afterRead
		s.afterRead = nil
		hook()
	}
	return students, err
}

func TestDashboardServiceRanksAndCaches(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	ada := env.addStudent(t, "Ada", 2)
	bob := env.addStudent(t, "Bob", 3)
	algorithms := env.addCourse(t, "Algorithms")
	logic := env.addCourse(t, "Logic")
	env.enroll(t, ada.ID, logic.ID)
	env.enroll(t, bob.ID, logic.ID)
	env.enroll(t, ada.ID, algorithms.ID)
	env.grade(t, ada.ID, algorithms.ID, 3.8)
	env.grade(t, bob.ID, logic.ID, 3.8)

	summary, err := env.dashboard.Summary(ctx, dto.DashboardRequest{Limit: 1})
	require.NoError(t, err)
	require.Equal(t, int64(2), summary.TotalStudents)
	require.Equal(t, int64(2), summary.TotalCourses)
	require.Zero(t, summary.TotalFaculty)
	require.Len(t, summary.TopStudents, 1)
	require.Equal(t, "Ada", summary.TopStudents[0].Name, "ties break by id")
	require.Len(t, summary.PopularCourses, 1)
	require.Equal(t, "Logic", summary.PopularCourses[0].Name)

	cached := env.redis.HGet(DashboardCacheKey, "1")
	require.NotEmpty(t, cached)

	require.NoError(t, env.db.Create(&models.Student{Name: "Zed", Year: 1}).Error)
	again, err := env.dashboard.Summary(ctx, dto.DashboardRequest{Limit: 1})
	require.NoError(t, err)
	require.Equal(t, int64(2), again.TotalStudents, "expected cached summary")

	env.addStudent(t, "Eve", 4)
	require.False(t, env.redis.Exists(DashboardCacheKey), "mutation should invalidate the cache")

	fresh, err := env.dashboard.Summary(ctx, dto.DashboardRequest{})
	require.NoError(t, err)
	require.Equal(t, int64(4), fresh.TotalStudents)
	require.Len(t, fresh.TopStudents, 4)
	require.Len(t, fresh.PopularCourses, 2)
	require.NotEmpty(t, env.redis.HGet(DashboardCacheKey, "5"))
}

func TestDashboardServiceWithoutCache(t *testing.T) {
	env := newTestEnv(t)
	svc := env.dashboard.(*dashboardService)
	svc.cache = nil

	env.addStudent(t, "Ada", 1)
	summary, err := svc.Summary(context.Background(), dto.DashboardRequest{})
	require.NoError(t, err)
	require.Equal(t, int64(1), summary.TotalStudents)
	require.NoError(t, svc.Invalidate(context.Background()))
}

func TestDashboardServiceSkipsCacheWriteAfterConcurrentInvalidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	ada := env.addStudent(t, "Ada", 2)
	bob := env.addStudent(t, "Bob", 3)
	logic := env.addCourse(t, "Logic")
	env.enroll(t, ada.ID, logic.ID)
	env.enroll(t, bob.ID, logic.ID)
	env.grade(t, ada.ID, logic.ID, 3.0)
	env.grade(t, bob.ID, logic.ID, 2.0)

	svc := env.dashboard.(*dashboardService)
	svc.students = &studentsAfterRead{
		StudentRepository: svc.students,
		afterRead:         func() { env.grade(t, bob.ID, logic.ID, 4.0) },
	}

	built, err := svc.Summary(ctx, dto.DashboardRequest{Limit: 1})
	require.NoError(t, err)
	require.Equal(t, "Ada", built.TopStudents[0].Name, "summary was read before the grade change")
	require.Empty(t, env.redis.HGet(DashboardCacheKey, "1"), "stale summary must not be cached")

	fresh, err := svc.Summary(ctx, dto.DashboardRequest{Limit: 1})
	require.NoError(t, err)
	require.Equal(t, "Bob", fresh.TopStudents[0].Name)
	require.InDelta(t, 4.0, fresh.TopStudents[0].GPA, 1e-9)
	require.NotEmpty(t, env.redis.HGet(DashboardCacheKey, "1"))
}

func TestDashboardServiceInvalidateBumpsGeneration(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	require.NoError(t, env.dashboard.Invalidate(ctx))
	require.NoError(t, env.dashboard.Invalidate(ctx))

	generation, err := env.redis.Get(DashboardGenerationKey)
	require.NoError(t, err)
	require.Equal(t, "2", generation)
}
