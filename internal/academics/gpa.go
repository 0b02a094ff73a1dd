// Package academics holds the pure computations shared by profile display,
// dashboard ranking and report export: GPA, enrollment trends and rankings.
package academics

import (
	"math"

	"github.com/noah-isme/academia-api/internal/models"
)

// Grade scale bounds, inclusive.
const (
	MinGrade = 0.0
	MaxGrade = 4.0
)

// IsValidGrade reports whether value lies on the 0.0-4.0 scale.
func IsValidGrade(value float64) bool {
	return !math.IsNaN(value) && value >= MinGrade && value <= MaxGrade
}

// GPA returns the mean of the in-range grades rounded to two decimals.
// Out-of-range entries are ignored; no valid entries yields 0.
func GPA(grades []models.Grade) float64 {
	var total float64
	var count int
	for _, grade := range grades {
		if !IsValidGrade(grade.Grade) {
			continue
		}
		total += grade.Grade
		count++
	}

	if count == 0 {
		return 0
	}

	return Round2(total / float64(count))
}

// Round2 rounds half away from zero to two decimal places.
func Round2(value float64) float64 {
	return math.Round(value*100) / 100
}
