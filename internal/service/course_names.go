package service

import (
	"context"

	"github.com/noah-isme/academia-api/internal/dto"
	"github.com/noah-isme/academia-api/internal/repository"
)

// UnknownCourseName labels grades whose course no longer exists.
const UnknownCourseName = "Unknown Course"

// courseNames memoizes course-name lookups for the duration of one operation.
type courseNames struct {
	courses repository.CourseRepository
	names   map[uint]string
}

func newCourseNames(courses repository.CourseRepository) *courseNames {
	return &courseNames{courses: courses, names: map[uint]string{}}
}

func (m *courseNames) lookup(ctx context.Context, courseID uint) string {
	if name, ok := m.names[courseID]; ok {
		return name
	}

	name, err := m.courses.FindName(ctx, courseID)
	if err != nil || name == "" {
		name = UnknownCourseName
	}
	m.names[courseID] = name
	return name
}

// fillStudent completes grade and enrollment entries that lack a course name.
func (m *courseNames) fillStudent(ctx context.Context, student *dto.StudentResponse) {
	for i := range student.Grades {
		if student.Grades[i].CourseName == "" {
			student.Grades[i].CourseName = m.lookup(ctx, student.Grades[i].CourseID)
		}
	}
	for i := range student.EnrolledCourses {
		if student.EnrolledCourses[i].Name == "" {
			student.EnrolledCourses[i].Name = m.lookup(ctx, student.EnrolledCourses[i].ID)
		}
	}
}
