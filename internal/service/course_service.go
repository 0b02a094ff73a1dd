package service

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/noah-isme/academia-api/internal/dto"
	"github.com/noah-isme/academia-api/internal/models"
	"github.com/noah-isme/academia-api/internal/observability"
	"github.com/noah-isme/academia-api/internal/repository"
)

// CourseService manages courses and student enrollment.
type CourseService interface {
	List(ctx context.Context, req dto.CourseListRequest) (dto.CourseListResponse, error)
	Get(ctx context.Context, id uint) (dto.CourseResponse, error)
	Create(ctx context.Context, actor Actor, req dto.CreateCourseRequest) (dto.CourseResponse, error)
	Update(ctx context.Context, actor Actor, req dto.UpdateCourseRequest) (dto.CourseResponse, error)
	Delete(ctx context.Context, actor Actor, id uint) error
	AssignStudent(ctx context.Context, actor Actor, req dto.EnrollmentRequest) (dto.CourseResponse, error)
}

type courseService struct {
	courses   repository.CourseRepository
	students  repository.StudentRepository
	activity  ActivityRecorder
	validator *validator.Validate
	sanitizer *bluemonday.Policy
	logger    zerolog.Logger
	tracer    trace.Tracer
	now       func() time.Time
}

// NewCourseService constructs the course service.
func NewCourseService(courses repository.CourseRepository, students repository.StudentRepository, activity ActivityRecorder, validate *validator.Validate, logger zerolog.Logger) CourseService {
	return &courseService{
		courses:   courses,
		students:  students,
		activity:  activity,
		validator: validate,
		sanitizer: bluemonday.StrictPolicy(),
		logger:    logger.With().Str("component", "course_service").Logger(),
		tracer:    otel.Tracer("github.com/noah-isme/academia-api/internal/service/courses"),
		now:       time.Now,
	}
}

func (s *courseService) List(ctx context.Context, req dto.CourseListRequest) (dto.CourseListResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.CourseListResponse{}, err
	}

	page := req.PageRequest.Normalize()
	courses, total, err := s.courses.List(ctx, repository.CourseFilter{
		Search:    req.Filter.Search,
		FacultyID: req.Filter.FacultyID,
		Page:      page.Page,
		PageSize:  page.PageSize,
	})
	if err != nil {
		return dto.CourseListResponse{}, err
	}

	items := make([]dto.CourseResponse, 0, len(courses))
	for _, course := range courses {
		items = append(items, dto.NewCourseResponse(course))
	}

	return dto.CourseListResponse{
		Courses:  items,
		Total:    total,
		Page:     page.Page,
		PageSize: page.PageSize,
	}, nil
}

// Get returns the course together with every grade recorded for it.
func (s *courseService) Get(ctx context.Context, id uint) (dto.CourseResponse, error) {
	course, err := s.courses.GetByID(ctx, id)
	if err != nil {
		return dto.CourseResponse{}, translateError(err, ErrCourseNotFound)
	}

	grades, err := s.students.ListGradesForCourse(ctx, id)
	if err != nil {
		return dto.CourseResponse{}, err
	}

	response := dto.NewCourseResponse(course)
	response.Grades = make([]dto.GradeResponse, 0, len(grades))
	for _, grade := range grades {
		entry := dto.NewGradeResponse(grade)
		if entry.CourseName == "" {
			entry.CourseName = course.Name
		}
		response.Grades = append(response.Grades, entry)
	}
	return response, nil
}

func (s *courseService) Create(ctx context.Context, actor Actor, req dto.CreateCourseRequest) (dto.CourseResponse, error) {
	if err := authorize(actor, staffRoles...); err != nil {
		return dto.CourseResponse{}, err
	}
	if err := s.validator.Struct(req); err != nil {
		return dto.CourseResponse{}, err
	}

	name, err := cleanName(s.sanitizer, req.Name)
	if err != nil {
		return dto.CourseResponse{}, err
	}

	course := models.Course{Name: name}
	if req.FacultyID != nil && *req.FacultyID > 0 {
		course.FacultyID = req.FacultyID
	}

	if err := s.courses.Create(ctx, &course, s.now()); err != nil {
		return dto.CourseResponse{}, translateError(err, ErrCourseNotFound)
	}

	_, _ = s.activity.Record(ctx, ActivityEntry{
		Actor:      actor,
		Action:     "course.created",
		EntityType: "course",
		EntityID:   &course.ID,
		Metadata:   map[string]interface{}{"name": course.Name},
	})

	created, err := s.courses.GetByID(ctx, course.ID)
	if err != nil {
		return dto.CourseResponse{}, translateError(err, ErrCourseNotFound)
	}
	return dto.NewCourseResponse(created), nil
}

func (s *courseService) Update(ctx context.Context, actor Actor, req dto.UpdateCourseRequest) (dto.CourseResponse, error) {
	if err := authorize(actor, staffRoles...); err != nil {
		return dto.CourseResponse{}, err
	}
	if err := s.validator.Struct(req); err != nil {
		return dto.CourseResponse{}, err
	}

	updates := map[string]interface{}{}
	metadata := map[string]interface{}{}
	if req.Name != nil {
		name, err := cleanName(s.sanitizer, *req.Name)
		if err != nil {
			return dto.CourseResponse{}, err
		}
		updates["name"] = name
		metadata["name"] = name
	}
	if req.FacultyID != nil {
		if *req.FacultyID == 0 {
			updates["faculty_id"] = gorm.Expr("NULL")
		} else {
			updates["faculty_id"] = *req.FacultyID
		}
		metadata["facultyId"] = *req.FacultyID
	}

	course, err := s.courses.Update(ctx, req.ID, updates)
	if err != nil {
		return dto.CourseResponse{}, translateError(err, ErrCourseNotFound)
	}

	_, _ = s.activity.Record(ctx, ActivityEntry{
		Actor:      actor,
		Action:     "course.updated",
		EntityType: "course",
		EntityID:   &course.ID,
		Metadata:   metadata,
	})

	return dto.NewCourseResponse(course), nil
}

func (s *courseService) Delete(ctx context.Context, actor Actor, id uint) error {
	if err := authorize(actor, staffRoles...); err != nil {
		return err
	}

	if err := s.courses.Delete(ctx, id); err != nil {
		return translateError(err, ErrCourseNotFound)
	}

	_, _ = s.activity.Record(ctx, ActivityEntry{
		Actor:      actor,
		Action:     "course.deleted",
		EntityType: "course",
		EntityID:   &id,
	})

	return nil
}

// AssignStudent enrolls the student. Repeating the call is a no-op.
func (s *courseService) AssignStudent(ctx context.Context, actor Actor, req dto.EnrollmentRequest) (dto.CourseResponse, error) {
	if err := authorize(actor, staffRoles...); err != nil {
		return dto.CourseResponse{}, err
	}
	if err := s.validator.Struct(req); err != nil {
		return dto.CourseResponse{}, err
	}

	spanCtx, span := s.tracer.Start(ctx, "courses.assign_student", trace.WithAttributes(
		attribute.Int("student.id", int(req.StudentID)),
		attribute.Int("course.id", int(req.CourseID)),
	))
	defer span.End()

	course, enrolled, err := s.courses.Enroll(spanCtx, req.StudentID, req.CourseID, s.now())
	if err != nil {
		span.RecordError(err)
		return dto.CourseResponse{}, translateError(err, ErrCourseNotFound)
	}
	span.SetAttributes(attribute.Bool("enrollment.created", enrolled))

	if enrolled {
		observability.Enrollments().Inc()
		_, _ = s.activity.Record(ctx, ActivityEntry{
			Actor:      actor,
			Action:     "course.student_assigned",
			EntityType: "course",
			EntityID:   &course.ID,
			Metadata: map[string]interface{}{
				"studentId":       req.StudentID,
				"enrollmentCount": course.EnrollmentCount,
			},
		})
	}

	return dto.NewCourseResponse(course), nil
}
