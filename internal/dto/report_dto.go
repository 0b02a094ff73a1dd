package dto

import "time"

// Export report types.
const (
	ReportCourseEnrollment = "courseEnrollment"
	ReportTopStudents      = "topStudents"
)

// DefaultRankingLimit is used by the dashboard and the top students report
// when no limit is given.
const DefaultRankingLimit = 5

// DashboardRequest is the input of dashboardSummary.
type DashboardRequest struct {
	Limit int `json:"limit" validate:"gte=0,lte=100"`
}

// StudentSummary is a ranked student. In a course-scoped ranking GPA holds the
// grade in that course.
type StudentSummary struct {
	ID         uint    `json:"id"`
	Name       string  `json:"name"`
	GPA        float64 `json:"gpa"`
	CourseID   *uint   `json:"courseId,omitempty"`
	CourseName string  `json:"courseName,omitempty"`
}

// CourseSummary is a ranked course.
type CourseSummary struct {
	ID              uint   `json:"id"`
	Name            string `json:"name"`
	EnrollmentCount int    `json:"enrollmentCount"`
}

// DashboardSummary aggregates record totals and rankings.
type DashboardSummary struct {
	TotalStudents  int64            `json:"totalStudents"`
	TotalCourses   int64            `json:"totalCourses"`
	TotalFaculty   int64            `json:"totalFaculty"`
	TopStudents    []StudentSummary `json:"topStudents"`
	PopularCourses []CourseSummary  `json:"popularCourses"`
}

// EnrollmentReportFilter is the input of courseEnrollmentReport. Dates accept
// RFC 3339 timestamps or YYYY-MM-DD; a date-only end covers the whole day.
type EnrollmentReportFilter struct {
	CourseID  *uint  `json:"courseId"`
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
}

// TopStudentsFilter is the input of topStudentsReport.
type TopStudentsFilter struct {
	CourseID *uint `json:"courseId"`
	Limit    int   `json:"limit" validate:"gte=0,lte=1000"`
}

// EnrollmentDataPoint is one entry of the enrollment trend report.
type EnrollmentDataPoint struct {
	CourseID        uint      `json:"courseId"`
	CourseName      string    `json:"courseName"`
	Date            time.Time `json:"date"`
	EnrollmentCount int       `json:"enrollmentCount"`
}

// ReportFilter is the union of the report filters accepted by exportReport.
type ReportFilter struct {
	CourseID  *uint  `json:"courseId"`
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
	Limit     int    `json:"limit" validate:"gte=0,lte=1000"`
}

// ExportReportRequest is the input of exportReport.
type ExportReportRequest struct {
	Type   string       `json:"type" validate:"required"`
	Filter ReportFilter `json:"filter"`
}
