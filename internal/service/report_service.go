package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/noah-isme/academia-api/internal/academics"
	"github.com/noah-isme/academia-api/internal/dto"
	"github.com/noah-isme/academia-api/internal/repository"
)

const csvDateLayout = "2006-01-02"

var (
	courseEnrollmentColumns = []string{"courseId", "courseName", "date", "enrollmentCount"}
	topStudentsColumns      = []string{"id", "name", "gpa", "courseId", "courseName"}
)

// ReportService builds enrollment trend and ranking reports.
type ReportService interface {
	CourseEnrollment(ctx context.Context, filter dto.EnrollmentReportFilter) ([]dto.EnrollmentDataPoint, error)
	TopStudents(ctx context.Context, filter dto.TopStudentsFilter) ([]dto.StudentSummary, error)
	Export(ctx context.Context, actor Actor, req dto.ExportReportRequest) (string, error)
}

type reportService struct {
	students  repository.StudentRepository
	courses   repository.CourseRepository
	validator *validator.Validate
	logger    zerolog.Logger
	tracer    trace.Tracer
}

// NewReportService constructs the report service.
func NewReportService(students repository.StudentRepository, courses repository.CourseRepository, validate *validator.Validate, logger zerolog.Logger) ReportService {
	return &reportService{
		students:  students,
		courses:   courses,
		validator: validate,
		logger:    logger.With().Str("component", "report_service").Logger(),
		tracer:    otel.Tracer("github.com/noah-isme/academia-api/internal/service/reports"),
	}
}

// CourseEnrollment flattens enrollment history into one list ordered by date.
func (s *reportService) CourseEnrollment(ctx context.Context, filter dto.EnrollmentReportFilter) ([]dto.EnrollmentDataPoint, error) {
	window, err := parseWindow(reportWindowFields, filter.StartDate, filter.EndDate)
	if err != nil {
		return nil, err
	}

	spanCtx, span := s.tracer.Start(ctx, "reports.course_enrollment")
	defer span.End()

	courses, err := s.courses.ListWithHistory(spanCtx, filter.CourseID)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	points := academics.EnrollmentTrend(courses, window)
	span.SetAttributes(attribute.Int("report.points", len(points)))

	result := make([]dto.EnrollmentDataPoint, 0, len(points))
	for _, point := range points {
		result = append(result, dto.EnrollmentDataPoint{
			CourseID:        point.CourseID,
			CourseName:      point.CourseName,
			Date:            point.RecordedAt,
			EnrollmentCount: point.Count,
		})
	}
	return result, nil
}

// TopStudents ranks students by their grade in one course when a course is
// given, otherwise by overall GPA.
func (s *reportService) TopStudents(ctx context.Context, filter dto.TopStudentsFilter) ([]dto.StudentSummary, error) {
	if err := s.validator.Struct(filter); err != nil {
		return nil, err
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = dto.DefaultRankingLimit
	}

	spanCtx, span := s.tracer.Start(ctx, "reports.top_students", trace.WithAttributes(attribute.Int("report.limit", limit)))
	defer span.End()

	var courseName string
	if filter.CourseID != nil {
		name, err := s.courses.FindName(spanCtx, *filter.CourseID)
		if err != nil {
			return nil, translateError(err, ErrCourseNotFound)
		}
		courseName = name
	}

	students, err := s.students.ListWithGrades(spanCtx)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	var scores []academics.StudentScore
	if filter.CourseID != nil {
		scores = academics.RankByCourseGrade(students, *filter.CourseID, courseName, limit)
	} else {
		scores = academics.RankByGPA(students, limit)
	}

	result := make([]dto.StudentSummary, 0, len(scores))
	for _, score := range scores {
		result = append(result, dto.StudentSummary{
			ID:         score.StudentID,
			Name:       score.Name,
			GPA:        score.Score,
			CourseID:   score.CourseID,
			CourseName: score.CourseName,
		})
	}
	return result, nil
}

// Export renders a report as CSV with a header row.
func (s *reportService) Export(ctx context.Context, actor Actor, req dto.ExportReportRequest) (string, error) {
	if err := authorize(actor, staffRoles...); err != nil {
		return "", err
	}
	if err := s.validator.Struct(req); err != nil {
		return "", err
	}

	var rows [][]string
	switch req.Type {
	case dto.ReportCourseEnrollment:
		points, err := s.CourseEnrollment(ctx, dto.EnrollmentReportFilter{
			CourseID:  req.Filter.CourseID,
			StartDate: req.Filter.StartDate,
			EndDate:   req.Filter.EndDate,
		})
		if err != nil {
			return "", err
		}
		rows = append(rows, courseEnrollmentColumns)
		for _, point := range points {
			rows = append(rows, []string{
				strconv.FormatUint(uint64(point.CourseID), 10),
				point.CourseName,
				point.Date.UTC().Format(csvDateLayout),
				strconv.Itoa(point.EnrollmentCount),
			})
		}
	case dto.ReportTopStudents:
		students, err := s.TopStudents(ctx, dto.TopStudentsFilter{CourseID: req.Filter.CourseID, Limit: req.Filter.Limit})
		if err != nil {
			return "", err
		}
		rows = append(rows, topStudentsColumns)
		for _, student := range students {
			courseID := ""
			if student.CourseID != nil {
				courseID = strconv.FormatUint(uint64(*student.CourseID), 10)
			}
			rows = append(rows, []string{
				strconv.FormatUint(uint64(student.ID), 10),
				student.Name,
				strconv.FormatFloat(student.GPA, 'f', -1, 64),
				courseID,
				student.CourseName,
			})
		}
	default:
		return "", invalidInput("unknown report type %q", req.Type)
	}

	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)
	if err := writer.WriteAll(rows); err != nil {
		return "", err
	}

	s.logger.Info().Str("report", req.Type).Int("rows", len(rows)-1).Uint("actor_id", actor.ID).Msg("report exported")
	return buf.String(), nil
}

// windowFields names the two bounds in error messages.
type windowFields struct {
	start string
	end   string
}

var reportWindowFields = windowFields{start: "startDate", end: "endDate"}

// parseWindow accepts RFC 3339 timestamps or YYYY-MM-DD dates. A date-only end
// bound covers the whole day.
func parseWindow(fields windowFields, start, end string) (academics.Window, error) {
	var window academics.Window

	if value := strings.TrimSpace(start); value != "" {
		parsed, _, err := parseReportDate(value)
		if err != nil {
			return window, invalidInput("%s must be a date (YYYY-MM-DD) or an RFC 3339 timestamp", fields.start)
		}
		window.Start = &parsed
	}

	if value := strings.TrimSpace(end); value != "" {
		parsed, dateOnly, err := parseReportDate(value)
		if err != nil {
			return window, invalidInput("%s must be a date (YYYY-MM-DD) or an RFC 3339 timestamp", fields.end)
		}
		if dateOnly {
			parsed = parsed.Add(24*time.Hour - time.Nanosecond)
		}
		window.End = &parsed
	}

	if window.Start != nil && window.End != nil && window.Start.After(*window.End) {
		return window, invalidInput("%s must not be after %s", fields.start, fields.end)
	}

	return window, nil
}

func parseReportDate(value string) (time.Time, bool, error) {
	if parsed, err := time.Parse(time.RFC3339, value); err == nil {
		return parsed, false, nil
	}
	parsed, err := time.Parse(csvDateLayout, value)
	if err != nil {
		return time.Time{}, false, err
	}
	return parsed.UTC(), true, nil
}
