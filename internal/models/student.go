package models

import "time"

// Student represents a learner whose enrollment and grades are tracked.
type Student struct {
	ID          uint         `gorm:"primaryKey" json:"id"`
	Name        string       `gorm:"size:255;not null;index" json:"name"`
	Year        int          `gorm:"not null;index" json:"year"`
	GPA         float64      `gorm:"column:gpa;not null;default:0" json:"gpa"`
	Grades      []Grade      `gorm:"foreignKey:StudentID" json:"grades,omitempty"`
	Enrollments []Enrollment `gorm:"foreignKey:StudentID" json:"enrollments,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

// Grade is a student's result for a single course on the 0.0-4.0 scale.
// CourseName is a snapshot taken when the grade was written.
type Grade struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	StudentID  uint      `gorm:"not null;uniqueIndex:idx_grades_student_course" json:"student_id"`
	CourseID   uint      `gorm:"not null;uniqueIndex:idx_grades_student_course;index" json:"course_id"`
	CourseName string    `gorm:"size:255" json:"course_name"`
	Grade      float64   `gorm:"not null" json:"grade"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// GradeFor returns the student's grade entry for the course, if any.
func (s Student) GradeFor(courseID uint) (Grade, bool) {
	for _, grade := range s.Grades {
		if grade.CourseID == courseID {
			return grade, true
		}
	}
	return Grade{}, false
}

// IsEnrolledIn reports whether the student holds an enrollment for the course.
func (s Student) IsEnrolledIn(courseID uint) bool {
	for _, enrollment := range s.Enrollments {
		if enrollment.CourseID == courseID {
			return true
		}
	}
	return false
}
