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

	"github.com/noah-isme/academia-api/internal/dto"
	"github.com/noah-isme/academia-api/internal/models"
	"github.com/noah-isme/academia-api/internal/repository"
)

// StudentService manages student records and their grades.
type StudentService interface {
	List(ctx context.Context, req dto.StudentListRequest) (dto.StudentListResponse, error)
	Get(ctx context.Context, id uint) (dto.StudentResponse, error)
	Create(ctx context.Context, actor Actor, req dto.CreateStudentRequest) (dto.StudentResponse, error)
	Update(ctx context.Context, actor Actor, req dto.UpdateStudentRequest) (dto.StudentResponse, error)
	Delete(ctx context.Context, actor Actor, id uint) error
	UpdateGrade(ctx context.Context, actor Actor, req dto.UpdateGradeRequest) (dto.GradeResponse, error)
}

type studentService struct {
	students  repository.StudentRepository
	courses   repository.CourseRepository
	activity  ActivityRecorder
	validator *validator.Validate
	sanitizer *bluemonday.Policy
	logger    zerolog.Logger
	tracer    trace.Tracer
	now       func() time.Time
}

// NewStudentService constructs the student service.
func NewStudentService(students repository.StudentRepository, courses repository.CourseRepository, activity ActivityRecorder, validate *validator.Validate, logger zerolog.Logger) StudentService {
	return &studentService{
		students:  students,
		courses:   courses,
		activity:  activity,
		validator: validate,
		sanitizer: bluemonday.StrictPolicy(),
		logger:    logger.With().Str("component", "student_service").Logger(),
		tracer:    otel.Tracer("github.com/noah-isme/academia-api/internal/service/students"),
		now:       time.Now,
	}
}

func (s *studentService) List(ctx context.Context, req dto.StudentListRequest) (dto.StudentListResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.StudentListResponse{}, err
	}

	page := req.PageRequest.Normalize()
	filter := repository.StudentFilter{
		Search:   req.Filter.Search,
		CourseID: req.Filter.CourseID,
		Page:     page.Page,
		PageSize: page.PageSize,
	}
	if req.Filter.Year != nil {
		filter.Year = *req.Filter.Year
	}

	students, total, err := s.students.List(ctx, filter)
	if err != nil {
		return dto.StudentListResponse{}, err
	}

	names := newCourseNames(s.courses)
	items := make([]dto.StudentResponse, 0, len(students))
	for _, student := range students {
		response := dto.NewStudentResponse(student)
		names.fillStudent(ctx, &response)
		items = append(items, response)
	}

	return dto.StudentListResponse{
		Students: items,
		Total:    total,
		Page:     page.Page,
		PageSize: page.PageSize,
	}, nil
}

func (s *studentService) Get(ctx context.Context, id uint) (dto.StudentResponse, error) {
	student, err := s.students.GetByID(ctx, id)
	if err != nil {
		return dto.StudentResponse{}, translateError(err, ErrStudentNotFound)
	}

	response := dto.NewStudentResponse(student)
	newCourseNames(s.courses).fillStudent(ctx, &response)
	return response, nil
}

func (s *studentService) Create(ctx context.Context, actor Actor, req dto.CreateStudentRequest) (dto.StudentResponse, error) {
	if err := authorize(actor, staffRoles...); err != nil {
		return dto.StudentResponse{}, err
	}
	if err := s.validator.Struct(req); err != nil {
		return dto.StudentResponse{}, err
	}

	name, err := cleanName(s.sanitizer, req.Name)
	if err != nil {
		return dto.StudentResponse{}, err
	}

	student := models.Student{Name: name, Year: req.Year}
	if err := s.students.Create(ctx, &student); err != nil {
		s.logger.Error().Err(err).Msg("failed to create student")
		return dto.StudentResponse{}, err
	}

	_, _ = s.activity.Record(ctx, ActivityEntry{
		Actor:      actor,
		Action:     "student.created",
		EntityType: "student",
		EntityID:   &student.ID,
		Metadata:   map[string]interface{}{"name": student.Name, "year": student.Year},
	})

	return dto.NewStudentResponse(student), nil
}

func (s *studentService) Update(ctx context.Context, actor Actor, req dto.UpdateStudentRequest) (dto.StudentResponse, error) {
	if err := authorize(actor, staffRoles...); err != nil {
		return dto.StudentResponse{}, err
	}
	if err := s.validator.Struct(req); err != nil {
		return dto.StudentResponse{}, err
	}

	updates := map[string]interface{}{}
	if req.Name != nil {
		name, err := cleanName(s.sanitizer, *req.Name)
		if err != nil {
			return dto.StudentResponse{}, err
		}
		updates["name"] = name
	}
	if req.Year != nil {
		updates["year"] = *req.Year
	}

	student, err := s.students.Update(ctx, req.ID, updates)
	if err != nil {
		return dto.StudentResponse{}, translateError(err, ErrStudentNotFound)
	}

	_, _ = s.activity.Record(ctx, ActivityEntry{
		Actor:      actor,
		Action:     "student.updated",
		EntityType: "student",
		EntityID:   &student.ID,
		Metadata:   updates,
	})

	response := dto.NewStudentResponse(student)
	newCourseNames(s.courses).fillStudent(ctx, &response)
	return response, nil
}

func (s *studentService) Delete(ctx context.Context, actor Actor, id uint) error {
	if err := authorize(actor, staffRoles...); err != nil {
		return err
	}

	if err := s.students.Delete(ctx, id, s.now()); err != nil {
		return translateError(err, ErrStudentNotFound)
	}

	_, _ = s.activity.Record(ctx, ActivityEntry{
		Actor:      actor,
		Action:     "student.deleted",
		EntityType: "student",
		EntityID:   &id,
	})

	return nil
}

func (s *studentService) UpdateGrade(ctx context.Context, actor Actor, req dto.UpdateGradeRequest) (dto.GradeResponse, error) {
	if err := authorize(actor, staffRoles...); err != nil {
		return dto.GradeResponse{}, err
	}
	if err := s.validator.Struct(req); err != nil {
		return dto.GradeResponse{}, err
	}

	spanCtx, span := s.tracer.Start(ctx, "students.update_grade", trace.WithAttributes(
		attribute.Int("student.id", int(req.StudentID)),
		attribute.Int("course.id", int(req.CourseID)),
	))
	defer span.End()

	courseName, err := s.courses.FindName(spanCtx, req.CourseID)
	if err != nil {
		span.RecordError(err)
		return dto.GradeResponse{}, translateError(err, ErrCourseNotFound)
	}

	course := models.Course{ID: req.CourseID, Name: courseName}
	grade, err := s.students.UpsertGrade(spanCtx, req.StudentID, course, *req.Grade)
	if err != nil {
		span.RecordError(err)
		return dto.GradeResponse{}, translateError(err, ErrStudentNotFound)
	}

	_, _ = s.activity.Record(ctx, ActivityEntry{
		Actor:      actor,
		Action:     "grade.updated",
		EntityType: "student",
		EntityID:   &grade.StudentID,
		Metadata:   map[string]interface{}{"courseId": grade.CourseID, "grade": grade.Grade},
	})

	return dto.NewGradeResponse(grade), nil
}
