package academics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/academia-api/internal/models"
)

func TestEnrollmentTrendMergesAndSortsByTime(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	courses := []models.Course{
		{ID: 1, Name: "Algorithms", History: []models.EnrollmentSnapshot{
			{Count: 0, RecordedAt: base},
			{Count: 1, RecordedAt: base.Add(48 * time.Hour)},
		}},
		{ID: 2, Name: "Databases", History: []models.EnrollmentSnapshot{
			{Count: 0, RecordedAt: base.Add(24 * time.Hour)},
			{Count: 1, RecordedAt: base.Add(72 * time.Hour)},
		}},
	}

	points := EnrollmentTrend(courses, Window{})
	require.Len(t, points, 4)
	require.Equal(t, []uint{1, 2, 1, 2}, []uint{points[0].CourseID, points[1].CourseID, points[2].CourseID, points[3].CourseID})
	for i := 1; i < len(points); i++ {
		require.False(t, points[i].RecordedAt.Before(points[i-1].RecordedAt))
	}
	require.Equal(t, "Databases", points[1].CourseName)
}

func TestEnrollmentTrendWindowIsInclusive(t *testing.T) {
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	course := models.Course{ID: 7, Name: "Physics", History: []models.EnrollmentSnapshot{
		{Count: 0, RecordedAt: base.Add(-time.Hour)},
		{Count: 1, RecordedAt: base},
		{Count: 2, RecordedAt: base.Add(time.Hour)},
		{Count: 3, RecordedAt: base.Add(2 * time.Hour)},
	}}

	start := base
	end := base.Add(time.Hour)
	points := EnrollmentTrend([]models.Course{course}, Window{Start: &start, End: &end})
	require.Len(t, points, 2)
	require.Equal(t, 1, points[0].Count)
	require.Equal(t, 2, points[1].Count)

	onlyStart := EnrollmentTrend([]models.Course{course}, Window{Start: &end})
	require.Len(t, onlyStart, 2)

	all := EnrollmentTrend([]models.Course{course}, Window{})
	require.Len(t, all, 4)
}

func TestNextSnapshotTimeNeverGoesBackwards(t *testing.T) {
	now := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	later := now.Add(time.Minute)
	history := []models.EnrollmentSnapshot{{RecordedAt: now.Add(-time.Hour)}, {RecordedAt: later}}

	require.Equal(t, later, NextSnapshotTime(now, history))
	require.Equal(t, later.Add(time.Hour), NextSnapshotTime(later.Add(time.Hour), history))
}
