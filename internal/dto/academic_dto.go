package dto

import (
	"time"

	"github.com/noah-isme/academia-api/internal/models"
)

// StudentFilter narrows the students listing.
type StudentFilter struct {
	Search   string `json:"search" validate:"max=255"`
	CourseID *uint  `json:"courseId"`
	Year     *int   `json:"year" validate:"omitempty,min=1,max=4"`
}

// StudentListRequest is the input of the students query.
type StudentListRequest struct {
	Filter StudentFilter `json:"filter"`
	PageRequest
}

// CreateStudentRequest is the input of addStudent.
type CreateStudentRequest struct {
	Name string `json:"name" validate:"required,max=255"`
	Year int    `json:"year" validate:"required,min=1,max=4"`
}

// UpdateStudentRequest is the input of updateStudent. Nil fields are left unchanged.
type UpdateStudentRequest struct {
	ID   uint    `json:"id" validate:"required"`
	Name *string `json:"name" validate:"omitempty,max=255"`
	Year *int    `json:"year" validate:"omitempty,min=1,max=4"`
}

// UpdateGradeRequest is the input of updateStudentGrade.
type UpdateGradeRequest struct {
	StudentID uint     `json:"studentId" validate:"required"`
	CourseID  uint     `json:"courseId" validate:"required"`
	Grade     *float64 `json:"grade" validate:"required,gte=0,lte=4"`
}

// CourseFilter narrows the courses listing.
type CourseFilter struct {
	Search    string `json:"search" validate:"max=255"`
	FacultyID *uint  `json:"facultyId"`
}

// CourseListRequest is the input of the courses query.
type CourseListRequest struct {
	Filter CourseFilter `json:"filter"`
	PageRequest
}

// CreateCourseRequest is the input of addCourse.
type CreateCourseRequest struct {
	Name      string `json:"name" validate:"required,max=255"`
	FacultyID *uint  `json:"facultyId"`
}

// UpdateCourseRequest is the input of updateCourse. A facultyId of 0 clears
// the assignment.
type UpdateCourseRequest struct {
	ID        uint    `json:"id" validate:"required"`
	Name      *string `json:"name" validate:"omitempty,max=255"`
	FacultyID *uint   `json:"facultyId"`
}

// EnrollmentRequest is the input of assignStudentToCourse.
type EnrollmentRequest struct {
	StudentID uint `json:"studentId" validate:"required"`
	CourseID  uint `json:"courseId" validate:"required"`
}

// FacultyListRequest is the input of the facultyMembers query.
type FacultyListRequest struct {
	Search string `json:"search" validate:"max=255"`
	PageRequest
}

// CreateFacultyRequest is the input of addFaculty.
type CreateFacultyRequest struct {
	Name string `json:"name" validate:"required,max=255"`
}

// UpdateFacultyRequest is the input of updateFaculty.
type UpdateFacultyRequest struct {
	ID   uint    `json:"id" validate:"required"`
	Name *string `json:"name" validate:"omitempty,max=255"`
}

// CourseAssignmentRequest is the input of assignCourseToFaculty.
type CourseAssignmentRequest struct {
	CourseID  uint `json:"courseId" validate:"required"`
	FacultyID uint `json:"facultyId" validate:"required"`
}

// CourseRef is a lightweight course reference.
type CourseRef struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
}

// StudentRef is a lightweight student reference.
type StudentRef struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
}

// FacultyRef is a lightweight faculty reference.
type FacultyRef struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
}

// GradeResponse is one transcript entry.
type GradeResponse struct {
	StudentID  uint      `json:"studentId"`
	CourseID   uint      `json:"courseId"`
	CourseName string    `json:"courseName"`
	Grade      float64   `json:"grade"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// StudentResponse is the full view of a student.
type StudentResponse struct {
	ID              uint            `json:"id"`
	Name            string          `json:"name"`
	Year            int             `json:"year"`
	GPA             float64         `json:"gpa"`
	EnrolledCourses []CourseRef     `json:"enrolledCourses"`
	Grades          []GradeResponse `json:"grades"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

// HistoryEntry is one point of a course's enrollment history.
type HistoryEntry struct {
	Timestamp time.Time `json:"timestamp"`
	Count     int       `json:"count"`
}

// CourseResponse is the full view of a course.
type CourseResponse struct {
	ID                uint            `json:"id"`
	Name              string          `json:"name"`
	FacultyID         *uint           `json:"facultyId"`
	Faculty           *FacultyRef     `json:"faculty,omitempty"`
	EnrolledStudents  []StudentRef    `json:"enrolledStudents"`
	EnrollmentCount   int             `json:"enrollmentCount"`
	EnrollmentHistory []HistoryEntry  `json:"enrollmentHistory"`
	Grades            []GradeResponse `json:"grades,omitempty"`
	CreatedAt         time.Time       `json:"createdAt"`
	UpdatedAt         time.Time       `json:"updatedAt"`
}

// FacultyResponse is the full view of a faculty member.
type FacultyResponse struct {
	ID              uint        `json:"id"`
	Name            string      `json:"name"`
	AssignedCourses []CourseRef `json:"assignedCourses"`
	CreatedAt       time.Time   `json:"createdAt"`
	UpdatedAt       time.Time   `json:"updatedAt"`
}

// StudentListResponse is a page of students.
type StudentListResponse struct {
	Students []StudentResponse `json:"students"`
	Total    int64             `json:"total"`
	Page     int               `json:"page"`
	PageSize int               `json:"pageSize"`
}

// CourseListResponse is a page of courses.
type CourseListResponse struct {
	Courses  []CourseResponse `json:"courses"`
	Total    int64            `json:"total"`
	Page     int              `json:"page"`
	PageSize int              `json:"pageSize"`
}

// FacultyListResponse is a page of faculty members.
type FacultyListResponse struct {
	FacultyMembers []FacultyResponse `json:"facultyMembers"`
	Total          int64             `json:"total"`
	Page           int               `json:"page"`
	PageSize       int               `json:"pageSize"`
}

// NewGradeResponse maps a stored grade.
func NewGradeResponse(grade models.Grade) GradeResponse {
	return GradeResponse{
		StudentID:  grade.StudentID,
		CourseID:   grade.CourseID,
		CourseName: grade.CourseName,
		Grade:      grade.Grade,
		UpdatedAt:  grade.UpdatedAt,
	}
}

// NewStudentResponse maps a student with its preloaded enrollments and grades.
func NewStudentResponse(student models.Student) StudentResponse {
	courses := make([]CourseRef, 0, len(student.Enrollments))
	for _, enrollment := range student.Enrollments {
		ref := CourseRef{ID: enrollment.CourseID}
		if enrollment.Course != nil {
			ref.Name = enrollment.Course.Name
		}
		courses = append(courses, ref)
	}

	grades := make([]GradeResponse, 0, len(student.Grades))
	for _, grade := range student.Grades {
		grades = append(grades, NewGradeResponse(grade))
	}

	return StudentResponse{
		ID:              student.ID,
		Name:            student.Name,
		Year:            student.Year,
		GPA:             student.GPA,
		EnrolledCourses: courses,
		Grades:          grades,
		CreatedAt:       student.CreatedAt,
		UpdatedAt:       student.UpdatedAt,
	}
}

// NewCourseResponse maps a course with its preloaded faculty, enrollments and history.
func NewCourseResponse(course models.Course) CourseResponse {
	students := make([]StudentRef, 0, len(course.Enrollments))
	for _, enrollment := range course.Enrollments {
		ref := StudentRef{ID: enrollment.StudentID}
		if enrollment.Student != nil {
			ref.Name = enrollment.Student.Name
		}
		students = append(students, ref)
	}

	history := make([]HistoryEntry, 0, len(course.History))
	for _, snapshot := range course.History {
		history = append(history, HistoryEntry{Timestamp: snapshot.RecordedAt, Count: snapshot.Count})
	}

	response := CourseResponse{
		ID:                course.ID,
		Name:              course.Name,
		FacultyID:         course.FacultyID,
		EnrolledStudents:  students,
		EnrollmentCount:   course.EnrollmentCount,
		EnrollmentHistory: history,
		CreatedAt:         course.CreatedAt,
		UpdatedAt:         course.UpdatedAt,
	}
	if course.Faculty != nil {
		response.Faculty = &FacultyRef{ID: course.Faculty.ID, Name: course.Faculty.Name}
	}
	return response
}

// NewFacultyResponse maps a faculty member with their preloaded courses.
func NewFacultyResponse(faculty models.Faculty) FacultyResponse {
	courses := make([]CourseRef, 0, len(faculty.Courses))
	for _, course := range faculty.Courses {
		courses = append(courses, CourseRef{ID: course.ID, Name: course.Name})
	}

	return FacultyResponse{
		ID:              faculty.ID,
		Name:            faculty.Name,
		AssignedCourses: courses,
		CreatedAt:       faculty.CreatedAt,
		UpdatedAt:       faculty.UpdatedAt,
	}
}
