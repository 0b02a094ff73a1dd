package models

import "time"

// Course is a class students enroll in, optionally taught by a faculty member.
type Course struct {
	ID              uint                 `gorm:"primaryKey" json:"id"`
	Name            string               `gorm:"size:255;not null;index" json:"name"`
	FacultyID       *uint                `gorm:"index" json:"faculty_id"`
	Faculty         *Faculty             `gorm:"foreignKey:FacultyID" json:"faculty,omitempty"`
	EnrollmentCount int                  `gorm:"not null;default:0" json:"enrollment_count"`
	Enrollments     []Enrollment         `gorm:"foreignKey:CourseID" json:"enrollments,omitempty"`
	History         []EnrollmentSnapshot `gorm:"foreignKey:CourseID" json:"history,omitempty"`
	CreatedAt       time.Time            `json:"created_at"`
	UpdatedAt       time.Time            `json:"updated_at"`
}

// Enrollment links one student to one course. It is the only record of the
// relationship, so both Course.Enrollments and Student.Enrollments read from it.
type Enrollment struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	StudentID uint      `gorm:"not null;uniqueIndex:idx_enrollments_student_course" json:"student_id"`
	CourseID  uint      `gorm:"not null;uniqueIndex:idx_enrollments_student_course;index" json:"course_id"`
	Student   *Student  `gorm:"foreignKey:StudentID" json:"student,omitempty"`
	Course    *Course   `gorm:"foreignKey:CourseID" json:"course,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// EnrollmentSnapshot records a course's enrollment count at a point in time.
// Snapshots are append-only.
type EnrollmentSnapshot struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	CourseID   uint      `gorm:"not null;index" json:"course_id"`
	Count      int       `gorm:"not null" json:"count"`
	RecordedAt time.Time `gorm:"not null;index" json:"recorded_at"`
}
