package academics

import (
	"sort"

	"github.com/noah-isme/academia-api/internal/models"
)

// StudentScore is a ranked student. Score is the overall GPA, or the grade in a
// single course when the ranking is course-scoped.
type StudentScore struct {
	StudentID  uint
	Name       string
	Score      float64
	CourseID   *uint
	CourseName string
}

// CourseScore is a ranked course.
type CourseScore struct {
	CourseID        uint
	Name            string
	EnrollmentCount int
}

// RankByGPA orders students by GPA descending, ties by id ascending, and keeps
// at most limit entries. limit <= 0 keeps everything.
func RankByGPA(students []models.Student, limit int) []StudentScore {
	scores := make([]StudentScore, 0, len(students))
	for _, student := range students {
		scores = append(scores, StudentScore{
			StudentID: student.ID,
			Name:      student.Name,
			Score:     GPA(student.Grades),
		})
	}

	return topStudents(scores, limit)
}

// RankByCourseGrade orders the students enrolled in courseID by their grade in
// that course. Enrolled students without a valid grade score 0. Overall GPA
// plays no part in this ranking.
func RankByCourseGrade(students []models.Student, courseID uint, courseName string, limit int) []StudentScore {
	scores := make([]StudentScore, 0)
	for _, student := range students {
		if !student.IsEnrolledIn(courseID) {
			continue
		}

		score := 0.0
		name := courseName
		if grade, ok := student.GradeFor(courseID); ok {
			if IsValidGrade(grade.Grade) {
				score = grade.Grade
			}
			if grade.CourseName != "" {
				name = grade.CourseName
			}
		}

		id := courseID
		scores = append(scores, StudentScore{
			StudentID:  student.ID,
			Name:       student.Name,
			Score:      score,
			CourseID:   &id,
			CourseName: name,
		})
	}

	return topStudents(scores, limit)
}

// RankByEnrollment orders courses by enrollment count descending, ties by id
// ascending, and keeps at most limit entries.
func RankByEnrollment(courses []models.Course, limit int) []CourseScore {
	scores := make([]CourseScore, 0, len(courses))
	for _, course := range courses {
		scores = append(scores, CourseScore{
			CourseID:        course.ID,
			Name:            course.Name,
			EnrollmentCount: course.EnrollmentCount,
		})
	}

	sort.SliceStable(scores, func(i, j int) bool {
		if scores[i].EnrollmentCount != scores[j].EnrollmentCount {
			return scores[i].EnrollmentCount > scores[j].EnrollmentCount
		}
		return scores[i].CourseID < scores[j].CourseID
	})

	if limit > 0 && len(scores) > limit {
		scores = scores[:limit]
	}
	return scores
}

func topStudents(scores []StudentScore, limit int) []StudentScore {
	sort.SliceStable(scores, func(i, j int) bool {
		if scores[i].Score != scores[j].Score {
			return scores[i].Score > scores[j].Score
		}
		return scores[i].StudentID < scores[j].StudentID
	})

	if limit > 0 && len(scores) > limit {
		scores = scores[:limit]
	}
	return scores
}
