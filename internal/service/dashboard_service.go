package service

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/noah-isme/academia-api/internal/academics"
	"github.com/noah-isme/academia-api/internal/dto"
	"github.com/noah-isme/academia-api/internal/observability"
	"github.com/noah-isme/academia-api/internal/repository"
)

// DashboardCacheKey is the Redis hash holding one cached summary per limit.
// DashboardGenerationKey is bumped by every invalidation; a summary is only
// stored if the generation it was built under is still current.
const (
	DashboardCacheKey      = "dashboard:summary"
	DashboardGenerationKey = "dashboard:summary:gen"
)

// DashboardService produces the aggregated dashboard summary.
type DashboardService interface {
	CacheInvalidator
	Summary(ctx context.Context, req dto.DashboardRequest) (dto.DashboardSummary, error)
}

type dashboardService struct {
	students  repository.StudentRepository
	courses   repository.CourseRepository
	faculty   repository.FacultyRepository
	cache     *redis.Client
	cacheTTL  time.Duration
	validator *validator.Validate
	logger    zerolog.Logger
	tracer    trace.Tracer
}

// NewDashboardService builds the dashboard aggregator. cache may be nil.
func NewDashboardService(students repository.StudentRepository, courses repository.CourseRepository, faculty repository.FacultyRepository, cache *redis.Client, ttl time.Duration, validate *validator.Validate, logger zerolog.Logger) DashboardService {
	return &dashboardService{
		students:  students,
		courses:   courses,
		faculty:   faculty,
		cache:     cache,
		cacheTTL:  ttl,
		validator: validate,
		logger:    logger.With().Str("component", "dashboard_service").Logger(),
		tracer:    otel.Tracer("github.com/noah-isme/academia-api/internal/service/dashboard"),
	}
}

func (s *dashboardService) Summary(ctx context.Context, req dto.DashboardRequest) (dto.DashboardSummary, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.DashboardSummary{}, err
	}

	limit := req.Limit
	if limit <= 0 {
		limit = dto.DefaultRankingLimit
	}
	field := strconv.Itoa(limit)

	if cached, ok := s.readCache(ctx, field); ok {
		return cached, nil
	}
	generation, generationOK := s.generation(ctx)

	spanCtx, span := s.tracer.Start(ctx, "dashboard.summary", trace.WithAttributes(attribute.Int("dashboard.limit", limit)))
	defer span.End()

	summary, err := s.build(spanCtx, limit)
	if err != nil {
		span.RecordError(err)
		return dto.DashboardSummary{}, err
	}

	if generationOK {
		s.writeCache(ctx, field, generation, summary)
	}
	return summary, nil
}

// Invalidate drops every cached summary and starts a new generation, so a
// summary built before the call can no longer be stored.
func (s *dashboardService) Invalidate(ctx context.Context) error {
	if s.cache == nil {
		return nil
	}
	_, err := s.cache.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, DashboardGenerationKey)
		pipe.Del(ctx, DashboardCacheKey)
		return nil
	})
	return err
}

// generation reads the current cache generation; a missing counter is "0".
func (s *dashboardService) generation(ctx context.Context) (string, bool) {
	if s.cache == nil {
		return "", false
	}
	value, err := s.cache.Get(ctx, DashboardGenerationKey).Result()
	switch {
	case errors.Is(err, redis.Nil):
		return "0", true
	case err != nil:
		s.logger.Warn().Err(err).Msg("failed to read dashboard cache generation")
		return "", false
	}
	return value, true
}

func (s *dashboardService) build(ctx context.Context, limit int) (dto.DashboardSummary, error) {
	totalStudents, err := s.students.Count(ctx)
	if err != nil {
		return dto.DashboardSummary{}, err
	}
	totalCourses, err := s.courses.Count(ctx)
	if err != nil {
		return dto.DashboardSummary{}, err
	}
	totalFaculty, err := s.faculty.Count(ctx)
	if err != nil {
		return dto.DashboardSummary{}, err
	}

	students, err := s.students.ListWithGrades(ctx)
	if err != nil {
		return dto.DashboardSummary{}, err
	}
	courses, err := s.courses.ListAll(ctx)
	if err != nil {
		return dto.DashboardSummary{}, err
	}

	topStudents := make([]dto.StudentSummary, 0, limit)
	for _, score := range academics.RankByGPA(students, limit) {
		topStudents = append(topStudents, dto.StudentSummary{ID: score.StudentID, Name: score.Name, GPA: score.Score})
	}

	popular := make([]dto.CourseSummary, 0, limit)
	for _, score := range academics.RankByEnrollment(courses, limit) {
		popular = append(popular, dto.CourseSummary{ID: score.CourseID, Name: score.Name, EnrollmentCount: score.EnrollmentCount})
	}

	return dto.DashboardSummary{
		TotalStudents:  totalStudents,
		TotalCourses:   totalCourses,
		TotalFaculty:   totalFaculty,
		TopStudents:    topStudents,
		PopularCourses: popular,
	}, nil
}

func (s *dashboardService) readCache(ctx context.Context, field string) (dto.DashboardSummary, bool) {
	if s.cache == nil {
		return dto.DashboardSummary{}, false
	}

	cached, err := s.cache.HGet(ctx, DashboardCacheKey, field).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			s.logger.Warn().Err(err).Msg("failed to read dashboard cache")
		}
		observability.DashboardCache().WithLabelValues("miss").Inc()
		return dto.DashboardSummary{}, false
	}

	var summary dto.DashboardSummary
	if err := json.Unmarshal([]byte(cached), &summary); err != nil {
		s.logger.Warn().Err(err).Msg("discarding unreadable dashboard cache entry")
		observability.DashboardCache().WithLabelValues("miss").Inc()
		return dto.DashboardSummary{}, false
	}

	observability.DashboardCache().WithLabelValues("hit").Inc()
	s.logger.Debug().Str("limit", field).Msg("dashboard cache hit")
	return summary, true
}

func (s *dashboardService) writeCache(ctx context.Context, field, generation string, summary dto.DashboardSummary) {
	if s.cache == nil {
		return
	}

	payload, err := json.Marshal(summary)
	if err != nil {
		return
	}

	err = s.cache.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, DashboardGenerationKey).Result()
		if errors.Is(err, redis.Nil) {
			current = "0"
		} else if err != nil {
			return err
		}
		if current != generation {
			return errStaleSummary
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, DashboardCacheKey, field, payload)
			if s.cacheTTL > 0 {
				pipe.Expire(ctx, DashboardCacheKey, s.cacheTTL)
			}
			return nil
		})
		return err
	}, DashboardGenerationKey)

	switch {
	case err == nil:
	case errors.Is(err, errStaleSummary), errors.Is(err, redis.TxFailedErr):
		s.logger.Debug().Str("limit", field).Msg("skipping dashboard cache write after concurrent invalidation")
	default:
		s.logger.Warn().Err(err).Msg("failed to store dashboard cache")
	}
}

var errStaleSummary = errors.New("dashboard summary built under an old cache generation")
