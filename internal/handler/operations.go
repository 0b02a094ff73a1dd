package handler

import (
	"context"
	"encoding/json"

	"github.com/noah-isme/academia-api/internal/dto"
	"github.com/noah-isme/academia-api/internal/service"
)

type idVariables struct {
	ID uint `json:"id"`
}

type courseIDVariables struct {
	CourseID uint `json:"courseId"`
}

type inputVariables[T any] struct {
	Input T `json:"input"`
}

type filterVariables[T any] struct {
	Filter T `json:"filter"`
}

// unary adapts a service call that takes decoded variables and no caller.
func unary[V any, R any](call func(ctx context.Context, vars V) (R, error)) operation {
	return func(ctx context.Context, _ service.Actor, raw json.RawMessage) (interface{}, error) {
		vars, err := decodeVariables[V](raw)
		if err != nil {
			return nil, err
		}
		return call(ctx, vars)
	}
}

// guarded adapts a service call that needs the caller's identity.
func guarded[V any, R any](call func(ctx context.Context, actor service.Actor, vars V) (R, error)) operation {
	return func(ctx context.Context, actor service.Actor, raw json.RawMessage) (interface{}, error) {
		vars, err := decodeVariables[V](raw)
		if err != nil {
			return nil, err
		}
		return call(ctx, actor, vars)
	}
}

// deletion adapts a delete-by-id call; the operation answers true on success.
func deletion(call func(ctx context.Context, actor service.Actor, id uint) error) operation {
	return guarded(func(ctx context.Context, actor service.Actor, vars idVariables) (bool, error) {
		if err := call(ctx, actor, vars.ID); err != nil {
			return false, err
		}
		return true, nil
	})
}

func buildOperations(s Services) map[string]operation {
	return map[string]operation{
		// Authentication
		"register": unary(s.Auth.Register),
		"login":    unary(s.Auth.Login),
		"me": func(ctx context.Context, actor service.Actor, _ json.RawMessage) (interface{}, error) {
			return s.Auth.Me(ctx, actor)
		},

		// Students
		"students": unary(s.Students.List),
		"student": unary(func(ctx context.Context, vars idVariables) (dto.StudentResponse, error) {
			return s.Students.Get(ctx, vars.ID)
		}),
		"addStudent": guarded(func(ctx context.Context, actor service.Actor, vars inputVariables[dto.CreateStudentRequest]) (dto.StudentResponse, error) {
			return s.Students.Create(ctx, actor, vars.Input)
		}),
		"updateStudent": guarded(func(ctx context.Context, actor service.Actor, vars inputVariables[dto.UpdateStudentRequest]) (dto.StudentResponse, error) {
			return s.Students.Update(ctx, actor, vars.Input)
		}),
		"deleteStudent": deletion(s.Students.Delete),
		"updateStudentGrade": guarded(func(ctx context.Context, actor service.Actor, vars inputVariables[dto.UpdateGradeRequest]) (dto.GradeResponse, error) {
			return s.Students.UpdateGrade(ctx, actor, vars.Input)
		}),

		// Courses
		"courses": unary(s.Courses.List),
		"course": unary(func(ctx context.Context, vars idVariables) (dto.CourseResponse, error) {
			return s.Courses.Get(ctx, vars.ID)
		}),
		"addCourse": guarded(func(ctx context.Context, actor service.Actor, vars inputVariables[dto.CreateCourseRequest]) (dto.CourseResponse, error) {
			return s.Courses.Create(ctx, actor, vars.Input)
		}),
		"updateCourse": guarded(func(ctx context.Context, actor service.Actor, vars inputVariables[dto.UpdateCourseRequest]) (dto.CourseResponse, error) {
			return s.Courses.Update(ctx, actor, vars.Input)
		}),
		"deleteCourse":          deletion(s.Courses.Delete),
		"assignStudentToCourse": guarded(s.Courses.AssignStudent),

		// Faculty
		"facultyMembers": unary(s.Faculty.List),
		"facultyMember": unary(func(ctx context.Context, vars idVariables) (dto.FacultyResponse, error) {
			return s.Faculty.Get(ctx, vars.ID)
		}),
		"addFaculty": guarded(func(ctx context.Context, actor service.Actor, vars inputVariables[dto.CreateFacultyRequest]) (dto.FacultyResponse, error) {
			return s.Faculty.Create(ctx, actor, vars.Input)
		}),
		"updateFaculty": guarded(func(ctx context.Context, actor service.Actor, vars inputVariables[dto.UpdateFacultyRequest]) (dto.FacultyResponse, error) {
			return s.Faculty.Update(ctx, actor, vars.Input)
		}),
		"deleteFaculty":         deletion(s.Faculty.Delete),
		"assignCourseToFaculty": guarded(s.Faculty.AssignCourse),
		"unassignCourseFromFaculty": guarded(func(ctx context.Context, actor service.Actor, vars courseIDVariables) (dto.CourseResponse, error) {
			return s.Faculty.UnassignCourse(ctx, actor, vars.CourseID)
		}),

		// Dashboard and reports
		"dashboardSummary": unary(s.Dashboard.Summary),
		"courseEnrollmentReport": unary(func(ctx context.Context, vars filterVariables[dto.EnrollmentReportFilter]) ([]dto.EnrollmentDataPoint, error) {
			return s.Reports.CourseEnrollment(ctx, vars.Filter)
		}),
		"topStudentsReport": unary(func(ctx context.Context, vars filterVariables[dto.TopStudentsFilter]) ([]dto.StudentSummary, error) {
			return s.Reports.TopStudents(ctx, vars.Filter)
		}),
		"exportReport": guarded(func(ctx context.Context, actor service.Actor, vars inputVariables[dto.ExportReportRequest]) (string, error) {
			return s.Reports.Export(ctx, actor, vars.Input)
		}),

		// Audit trail
		"activityLog": guarded(s.Activity.List),
	}
}
