package academics

import (
	"sort"
	"time"

	"github.com/noah-isme/academia-api/internal/models"
)

// Window is an optional inclusive time range. A nil bound is open.
type Window struct {
	Start *time.Time
	End   *time.Time
}

// Contains reports whether t falls inside the window, bounds included.
func (w Window) Contains(t time.Time) bool {
	if w.Start != nil && t.Before(*w.Start) {
		return false
	}
	if w.End != nil && t.After(*w.End) {
		return false
	}
	return true
}

// EnrollmentPoint is one flattened history entry of a course.
type EnrollmentPoint struct {
	CourseID   uint
	CourseName string
	RecordedAt time.Time
	Count      int
}

// EnrollmentTrend flattens the enrollment history of every course into one
// list clipped to window and ordered by time ascending. Entries recorded at
// the same instant keep course order, then history order.
func EnrollmentTrend(courses []models.Course, window Window) []EnrollmentPoint {
	points := make([]EnrollmentPoint, 0)
	for _, course := range courses {
		for _, snapshot := range course.History {
			if !window.Contains(snapshot.RecordedAt) {
				continue
			}
			points = append(points, EnrollmentPoint{
				CourseID:   course.ID,
				CourseName: course.Name,
				RecordedAt: snapshot.RecordedAt,
				Count:      snapshot.Count,
			})
		}
	}

	sort.SliceStable(points, func(i, j int) bool {
		return points[i].RecordedAt.Before(points[j].RecordedAt)
	})

	return points
}

// NextSnapshotTime returns the timestamp for a new history entry so the
// history never moves backwards, even when the clock does.
func NextSnapshotTime(now time.Time, history []models.EnrollmentSnapshot) time.Time {
	for _, snapshot := range history {
		if snapshot.RecordedAt.After(now) {
			now = snapshot.RecordedAt
		}
	}
	return now
}
