package models

import "time"

// Faculty is a teaching staff member. Assigned courses are the courses whose
// FacultyID points at this record.
type Faculty struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:255;not null;index" json:"name"`
	Courses   []Course  `gorm:"foreignKey:FacultyID" json:"courses,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
