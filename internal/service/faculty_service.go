package service

import (
	"context"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"

	"github.com/noah-isme/academia-api/internal/dto"
	"github.com/noah-isme/academia-api/internal/models"
	"github.com/noah-isme/academia-api/internal/repository"
)

// FacultyService manages faculty members and their course assignments.
// Every mutation is restricted to administrators.
type FacultyService interface {
	List(ctx context.Context, req dto.FacultyListRequest) (dto.FacultyListResponse, error)
	Get(ctx context.Context, id uint) (dto.FacultyResponse, error)
	Create(ctx context.Context, actor Actor, req dto.CreateFacultyRequest) (dto.FacultyResponse, error)
	Update(ctx context.Context, actor Actor, req dto.UpdateFacultyRequest) (dto.FacultyResponse, error)
	Delete(ctx context.Context, actor Actor, id uint) error
	AssignCourse(ctx context.Context, actor Actor, req dto.CourseAssignmentRequest) (dto.CourseResponse, error)
	UnassignCourse(ctx context.Context, actor Actor, courseID uint) (dto.CourseResponse, error)
}

type facultyService struct {
	faculty   repository.FacultyRepository
	courses   repository.CourseRepository
	activity  ActivityRecorder
	validator *validator.Validate
	sanitizer *bluemonday.Policy
	logger    zerolog.Logger
}

// NewFacultyService constructs the faculty service.
func NewFacultyService(faculty repository.FacultyRepository, courses repository.CourseRepository, activity ActivityRecorder, validate *validator.Validate, logger zerolog.Logger) FacultyService {
	return &facultyService{
		faculty:   faculty,
		courses:   courses,
		activity:  activity,
		validator: validate,
		sanitizer: bluemonday.StrictPolicy(),
		logger:    logger.With().Str("component", "faculty_service").Logger(),
	}
}

func (s *facultyService) List(ctx context.Context, req dto.FacultyListRequest) (dto.FacultyListResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.FacultyListResponse{}, err
	}

	page := req.PageRequest.Normalize()
	members, total, err := s.faculty.List(ctx, repository.FacultyFilter{
		Search:   req.Search,
		Page:     page.Page,
		PageSize: page.PageSize,
	})
	if err != nil {
		return dto.FacultyListResponse{}, err
	}

	items := make([]dto.FacultyResponse, 0, len(members))
	for _, member := range members {
		items = append(items, dto.NewFacultyResponse(member))
	}

	return dto.FacultyListResponse{
		FacultyMembers: items,
		Total:          total,
		Page:           page.Page,
		PageSize:       page.PageSize,
	}, nil
}

func (s *facultyService) Get(ctx context.Context, id uint) (dto.FacultyResponse, error) {
	member, err := s.faculty.GetByID(ctx, id)
	if err != nil {
		return dto.FacultyResponse{}, translateError(err, ErrFacultyNotFound)
	}
	return dto.NewFacultyResponse(member), nil
}

func (s *facultyService) Create(ctx context.Context, actor Actor, req dto.CreateFacultyRequest) (dto.FacultyResponse, error) {
	if err := authorize(actor, adminRoles...); err != nil {
		return dto.FacultyResponse{}, err
	}
	if err := s.validator.Struct(req); err != nil {
		return dto.FacultyResponse{}, err
	}

	name, err := cleanName(s.sanitizer, req.Name)
	if err != nil {
		return dto.FacultyResponse{}, err
	}

	member := models.Faculty{Name: name}
	if err := s.faculty.Create(ctx, &member); err != nil {
		s.logger.Error().Err(err).Msg("failed to create faculty member")
		return dto.FacultyResponse{}, err
	}

	_, _ = s.activity.Record(ctx, ActivityEntry{
		Actor:      actor,
		Action:     "faculty.created",
		EntityType: "faculty",
		EntityID:   &member.ID,
		Metadata:   map[string]interface{}{"name": member.Name},
	})

	return dto.NewFacultyResponse(member), nil
}

func (s *facultyService) Update(ctx context.Context, actor Actor, req dto.UpdateFacultyRequest) (dto.FacultyResponse, error) {
	if err := authorize(actor, adminRoles...); err != nil {
		return dto.FacultyResponse{}, err
	}
	if err := s.validator.Struct(req); err != nil {
		return dto.FacultyResponse{}, err
	}

	updates := map[string]interface{}{}
	if req.Name != nil {
		name, err := cleanName(s.sanitizer, *req.Name)
		if err != nil {
			return dto.FacultyResponse{}, err
		}
		updates["name"] = name
	}

	member, err := s.faculty.Update(ctx, req.ID, updates)
	if err != nil {
		return dto.FacultyResponse{}, translateError(err, ErrFacultyNotFound)
	}

	_, _ = s.activity.Record(ctx, ActivityEntry{
		Actor:      actor,
		Action:     "faculty.updated",
		EntityType: "faculty",
		EntityID:   &member.ID,
		Metadata:   updates,
	})

	return dto.NewFacultyResponse(member), nil
}

func (s *facultyService) Delete(ctx context.Context, actor Actor, id uint) error {
	if err := authorize(actor, adminRoles...); err != nil {
		return err
	}

	if err := s.faculty.Delete(ctx, id); err != nil {
		return translateError(err, ErrFacultyNotFound)
	}

	_, _ = s.activity.Record(ctx, ActivityEntry{
		Actor:      actor,
		Action:     "faculty.deleted",
		EntityType: "faculty",
		EntityID:   &id,
	})

	return nil
}

func (s *facultyService) AssignCourse(ctx context.Context, actor Actor, req dto.CourseAssignmentRequest) (dto.CourseResponse, error) {
	if err := authorize(actor, adminRoles...); err != nil {
		return dto.CourseResponse{}, err
	}
	if err := s.validator.Struct(req); err != nil {
		return dto.CourseResponse{}, err
	}

	course, err := s.courses.SetFaculty(ctx, req.CourseID, &req.FacultyID)
	if err != nil {
		return dto.CourseResponse{}, translateError(err, ErrCourseNotFound)
	}

	_, _ = s.activity.Record(ctx, ActivityEntry{
		Actor:      actor,
		Action:     "faculty.course_assigned",
		EntityType: "course",
		EntityID:   &course.ID,
		Metadata:   map[string]interface{}{"facultyId": req.FacultyID},
	})

	return dto.NewCourseResponse(course), nil
}

func (s *facultyService) UnassignCourse(ctx context.Context, actor Actor, courseID uint) (dto.CourseResponse, error) {
	if err := authorize(actor, adminRoles...); err != nil {
		return dto.CourseResponse{}, err
	}
	if courseID == 0 {
		return dto.CourseResponse{}, invalidInput("courseId is required")
	}

	course, err := s.courses.SetFaculty(ctx, courseID, nil)
	if err != nil {
		return dto.CourseResponse{}, translateError(err, ErrCourseNotFound)
	}

	_, _ = s.activity.Record(ctx, ActivityEntry{
		Actor:      actor,
		Action:     "faculty.course_unassigned",
		EntityType: "course",
		EntityID:   &course.ID,
	})

	return dto.NewCourseResponse(course), nil
}
