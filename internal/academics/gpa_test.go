package academics

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/academia-api/internal/models"
)

func grades(values ...float64) []models.Grade {
	result := make([]models.Grade, 0, len(values))
	for i, value := range values {
		result = append(result, models.Grade{CourseID: uint(i + 1), Grade: value})
	}
	return result
}

func TestGPAEmptyIsZero(t *testing.T) {
	require.Equal(t, 0.0, GPA(nil))
	require.Equal(t, 0.0, GPA([]models.Grade{}))
}

func TestGPAMeanRoundedToTwoDecimals(t *testing.T) {
	require.Equal(t, 3.8, GPA(grades(3.8)))
	require.Equal(t, 3.0, GPA(grades(2.0, 4.0)))
	require.Equal(t, 3.33, GPA(grades(3.0, 3.0, 4.0)))
	require.Equal(t, 2.67, GPA(grades(2.0, 2.0, 4.0)))
}

func TestGPADiscardsOutOfRangeGrades(t *testing.T) {
	require.Equal(t, 3.5, GPA(grades(3.0, 4.0, 85, -1)))
	require.Equal(t, 0.0, GPA(grades(72, 91)))
	require.Equal(t, 2.0, GPA(grades(2.0, math.NaN())))
}

func TestGPAIncludesBounds(t *testing.T) {
	require.Equal(t, 2.0, GPA(grades(0.0, 4.0)))
}

func TestIsValidGrade(t *testing.T) {
	require.True(t, IsValidGrade(0))
	require.True(t, IsValidGrade(4))
	require.False(t, IsValidGrade(4.01))
	require.False(t, IsValidGrade(-0.01))
}
