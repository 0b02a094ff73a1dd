package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/noah-isme/academia-api/internal/academics"
	"github.com/noah-isme/academia-api/internal/models"
)

// StudentFilter narrows student listings.
type StudentFilter struct {
	Search   string
	CourseID *uint
	Year     int
	Page     int
	PageSize int
}

// StudentRepository provides access to student records and their grades.
type StudentRepository interface {
	List(ctx context.Context, filter StudentFilter) ([]models.Student, int64, error)
	ListWithGrades(ctx context.Context) ([]models.Student, error)
	GetByID(ctx context.Context, id uint) (models.Student, error)
	Create(ctx context.Context, student *models.Student) error
	Update(ctx context.Context, id uint, updates map[string]interface{}) (models.Student, error)
	Delete(ctx context.Context, id uint, now time.Time) error
	UpsertGrade(ctx context.Context, studentID uint, course models.Course, value float64) (models.Grade, error)
	ListGradesForCourse(ctx context.Context, courseID uint) ([]models.Grade, error)
	Count(ctx context.Context) (int64, error)
}

type studentRepository struct {
	db *gorm.DB
}

// NewStudentRepository constructs a student repository.
func NewStudentRepository(db *gorm.DB) StudentRepository {
	return &studentRepository{db: db}
}

func withStudentRelations(query *gorm.DB) *gorm.DB {
	return query.
		Preload("Grades", func(db *gorm.DB) *gorm.DB { return db.Order("grades.id ASC") }).
		Preload("Enrollments", func(db *gorm.DB) *gorm.DB { return db.Order("enrollments.id ASC") }).
		Preload("Enrollments.Course")
}

func (r *studentRepository) List(ctx context.Context, filter StudentFilter) ([]models.Student, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Student{})

	if filter.Search != "" {
		query = query.Where("LOWER(students.name) LIKE ? ESCAPE '\\'", likePattern(filter.Search))
	}

	if filter.CourseID != nil {
		enrolled := r.db.WithContext(ctx).Model(&models.Enrollment{}).
			Select("student_id").
			Where("course_id = ?", *filter.CourseID)
		query = query.Where("students.id IN (?)", enrolled)
	}

	if filter.Year > 0 {
		query = query.Where("students.year = ?", filter.Year)
	}

	countQuery := query.Session(&gorm.Session{})
	var total int64
	if err := countQuery.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = paginate(query.Order("students.id DESC"), filter.Page, filter.PageSize)

	var students []models.Student
	if err := withStudentRelations(query).Find(&students).Error; err != nil {
		return nil, 0, err
	}

	return students, total, nil
}

func (r *studentRepository) ListWithGrades(ctx context.Context) ([]models.Student, error) {
	var students []models.Student
	err := withStudentRelations(r.db.WithContext(ctx)).
		Order("students.id ASC").
		Find(&students).Error
	return students, err
}

func (r *studentRepository) GetByID(ctx context.Context, id uint) (models.Student, error) {
	var student models.Student
	if err := withStudentRelations(r.db.WithContext(ctx)).First(&student, id).Error; err != nil {
		return models.Student{}, err
	}

	return student, nil
}

func (r *studentRepository) Create(ctx context.Context, student *models.Student) error {
	return r.db.WithContext(ctx).Create(student).Error
}

func (r *studentRepository) Update(ctx context.Context, id uint, updates map[string]interface{}) (models.Student, error) {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.Student
		if err := tx.Select("id").First(&existing, id).Error; err != nil {
			return err
		}
		if len(updates) == 0 {
			return nil
		}
		return tx.Model(&models.Student{}).Where("id = ?", id).Updates(updates).Error
	})
	if err != nil {
		return models.Student{}, err
	}

	return r.GetByID(ctx, id)
}

// Delete removes the student together with their enrollments and grades.
// Every course the student left gets its count decremented and a new history
// snapshot, all inside one transaction.
func (r *studentRepository) Delete(ctx context.Context, id uint, now time.Time) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var student models.Student
		if err := tx.Select("id").First(&student, id).Error; err != nil {
			return err
		}

		var enrollments []models.Enrollment
		if err := tx.Where("student_id = ?", id).Order("id ASC").Find(&enrollments).Error; err != nil {
			return err
		}

		for _, enrollment := range enrollments {
			if err := removeEnrollment(tx, enrollment, now); err != nil {
				return err
			}
		}

		if err := tx.Where("student_id = ?", id).Delete(&models.Grade{}).Error; err != nil {
			return err
		}

		return tx.Delete(&models.Student{}, id).Error
	})
}

// UpsertGrade writes the student's grade for the course and refreshes the
// cached GPA in the same transaction.
func (r *studentRepository) UpsertGrade(ctx context.Context, studentID uint, course models.Course, value float64) (models.Grade, error) {
	var result models.Grade
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var student models.Student
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Select("id").First(&student, studentID).Error; err != nil {
			return err
		}

		var grade models.Grade
		if err := tx.Where("student_id = ? AND course_id = ?", studentID, course.ID).Limit(1).Find(&grade).Error; err != nil {
			return err
		}

		if grade.ID == 0 {
			grade = models.Grade{
				StudentID:  studentID,
				CourseID:   course.ID,
				CourseName: course.Name,
				Grade:      value,
			}
			if err := tx.Create(&grade).Error; err != nil {
				return err
			}
		} else {
			grade.Grade = value
			grade.CourseName = course.Name
			if err := tx.Save(&grade).Error; err != nil {
				return err
			}
		}

		if err := refreshGPA(tx, studentID); err != nil {
			return err
		}

		result = grade
		return nil
	})
	if err != nil {
		return models.Grade{}, err
	}

	return result, nil
}

func (r *studentRepository) ListGradesForCourse(ctx context.Context, courseID uint) ([]models.Grade, error) {
	var grades []models.Grade
	err := r.db.WithContext(ctx).
		Where("course_id = ?", courseID).
		Order("id ASC").
		Find(&grades).Error
	return grades, err
}

func (r *studentRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Student{}).Count(&count).Error
	return count, err
}

// refreshGPA recomputes the cached GPA from the stored grades. Every write to
// the grades table must call it inside the same transaction.
func refreshGPA(tx *gorm.DB, studentID uint) error {
	var grades []models.Grade
	if err := tx.Where("student_id = ?", studentID).Find(&grades).Error; err != nil {
		return err
	}

	return tx.Model(&models.Student{}).
		Where("id = ?", studentID).
		Update("gpa", academics.GPA(grades)).Error
}
