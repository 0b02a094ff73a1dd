package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/noah-isme/academia-api/internal/academics"
	"github.com/noah-isme/academia-api/internal/models"
)

// CourseFilter narrows course listings.
type CourseFilter struct {
	Search    string
	FacultyID *uint
	Page      int
	PageSize  int
}

// CourseRepository provides access to courses, enrollments and enrollment history.
type CourseRepository interface {
	List(ctx context.Context, filter CourseFilter) ([]models.Course, int64, error)
	ListWithHistory(ctx context.Context, courseID *uint) ([]models.Course, error)
	ListAll(ctx context.Context) ([]models.Course, error)
	GetByID(ctx context.Context, id uint) (models.Course, error)
	FindName(ctx context.Context, id uint) (string, error)
	Create(ctx context.Context, course *models.Course, now time.Time) error
	Update(ctx context.Context, id uint, updates map[string]interface{}) (models.Course, error)
	Delete(ctx context.Context, id uint) error
	Enroll(ctx context.Context, studentID, courseID uint, now time.Time) (models.Course, bool, error)
	SetFaculty(ctx context.Context, courseID uint, facultyID *uint) (models.Course, error)
	Count(ctx context.Context) (int64, error)
}

type courseRepository struct {
	db *gorm.DB
}

// NewCourseRepository constructs a course repository.
func NewCourseRepository(db *gorm.DB) CourseRepository {
	return &courseRepository{db: db}
}

func withCourseRelations(query *gorm.DB) *gorm.DB {
	return query.
		Preload("Faculty").
		Preload("Enrollments", func(db *gorm.DB) *gorm.DB { return db.Order("enrollments.id ASC") }).
		Preload("Enrollments.Student").
		Preload("History", func(db *gorm.DB) *gorm.DB {
			return db.Order("enrollment_snapshots.recorded_at ASC").Order("enrollment_snapshots.id ASC")
		})
}

func (r *courseRepository) List(ctx context.Context, filter CourseFilter) ([]models.Course, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Course{})

	if filter.Search != "" {
		query = query.Where("LOWER(courses.name) LIKE ? ESCAPE '\\'", likePattern(filter.Search))
	}

	if filter.FacultyID != nil {
		query = query.Where("courses.faculty_id = ?", *filter.FacultyID)
	}

	countQuery := query.Session(&gorm.Session{})
	var total int64
	if err := countQuery.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = paginate(query.Order("courses.id DESC"), filter.Page, filter.PageSize)

	var courses []models.Course
	if err := withCourseRelations(query).Find(&courses).Error; err != nil {
		return nil, 0, err
	}

	return courses, total, nil
}

func (r *courseRepository) ListWithHistory(ctx context.Context, courseID *uint) ([]models.Course, error) {
	query := r.db.WithContext(ctx).
		Preload("History", func(db *gorm.DB) *gorm.DB {
			return db.Order("enrollment_snapshots.recorded_at ASC").Order("enrollment_snapshots.id ASC")
		}).
		Order("courses.id ASC")

	if courseID != nil {
		query = query.Where("courses.id = ?", *courseID)
	}

	var courses []models.Course
	err := query.Find(&courses).Error
	return courses, err
}

func (r *courseRepository) ListAll(ctx context.Context) ([]models.Course, error) {
	var courses []models.Course
	err := r.db.WithContext(ctx).Order("id ASC").Find(&courses).Error
	return courses, err
}

func (r *courseRepository) GetByID(ctx context.Context, id uint) (models.Course, error) {
	var course models.Course
	if err := withCourseRelations(r.db.WithContext(ctx)).First(&course, id).Error; err != nil {
		return models.Course{}, err
	}

	return course, nil
}

func (r *courseRepository) FindName(ctx context.Context, id uint) (string, error) {
	var course models.Course
	if err := r.db.WithContext(ctx).Select("id", "name").First(&course, id).Error; err != nil {
		return "", err
	}

	return course.Name, nil
}

// Create inserts the course and its first history snapshot at count zero.
func (r *courseRepository) Create(ctx context.Context, course *models.Course, now time.Time) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if course.FacultyID != nil {
			if err := ensureExists(tx, &models.Faculty{}, *course.FacultyID, ErrFacultyMissing); err != nil {
				return err
			}
		}

		course.EnrollmentCount = 0
		if err := tx.Omit(clause.Associations).Create(course).Error; err != nil {
			return err
		}

		snapshot := models.EnrollmentSnapshot{CourseID: course.ID, Count: 0, RecordedAt: now.UTC()}
		if err := tx.Create(&snapshot).Error; err != nil {
			return err
		}

		course.History = []models.EnrollmentSnapshot{snapshot}
		return nil
	})
}

func (r *courseRepository) Update(ctx context.Context, id uint, updates map[string]interface{}) (models.Course, error) {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ensureExists(tx, &models.Course{}, id, gorm.ErrRecordNotFound); err != nil {
			return err
		}

		if facultyID, ok := updates["faculty_id"].(uint); ok {
			if err := ensureExists(tx, &models.Faculty{}, facultyID, ErrFacultyMissing); err != nil {
				return err
			}
		}

		if len(updates) == 0 {
			return nil
		}
		return tx.Model(&models.Course{}).Where("id = ?", id).Updates(updates).Error
	})
	if err != nil {
		return models.Course{}, err
	}

	return r.GetByID(ctx, id)
}

// Delete removes the course, its enrollments and its history. Grades that
// reference the course are kept as transcript records.
func (r *courseRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ensureExists(tx, &models.Course{}, id, gorm.ErrRecordNotFound); err != nil {
			return err
		}

		if err := tx.Where("course_id = ?", id).Delete(&models.Enrollment{}).Error; err != nil {
			return err
		}

		if err := tx.Where("course_id = ?", id).Delete(&models.EnrollmentSnapshot{}).Error; err != nil {
			return err
		}

		return tx.Delete(&models.Course{}, id).Error
	})
}

// Enroll links the student to the course. The boolean result is false when
// the student was already enrolled, in which case nothing is written.
func (r *courseRepository) Enroll(ctx context.Context, studentID, courseID uint, now time.Time) (models.Course, bool, error) {
	enrolled := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var course models.Course
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Select("id").First(&course, courseID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrCourseMissing
			}
			return err
		}

		if err := ensureExists(tx, &models.Student{}, studentID, ErrStudentMissing); err != nil {
			return err
		}

		var existing int64
		if err := tx.Model(&models.Enrollment{}).
			Where("student_id = ? AND course_id = ?", studentID, courseID).
			Count(&existing).Error; err != nil {
			return err
		}
		if existing > 0 {
			return nil
		}

		enrollment := models.Enrollment{StudentID: studentID, CourseID: courseID, CreatedAt: now.UTC()}
		if err := tx.Create(&enrollment).Error; err != nil {
			return err
		}

		if err := tx.Model(&models.Course{}).
			Where("id = ?", courseID).
			UpdateColumn("enrollment_count", gorm.Expr("enrollment_count + ?", 1)).Error; err != nil {
			return err
		}

		if _, err := appendSnapshot(tx, courseID, now); err != nil {
			return err
		}

		enrolled = true
		return nil
	})
	if err != nil && !errors.Is(err, gorm.ErrDuplicatedKey) {
		return models.Course{}, false, err
	}

	course, err := r.GetByID(ctx, courseID)
	if err != nil {
		return models.Course{}, false, err
	}

	return course, enrolled, nil
}

// SetFaculty points the course at a faculty member, or clears the link when
// facultyID is nil.
func (r *courseRepository) SetFaculty(ctx context.Context, courseID uint, facultyID *uint) (models.Course, error) {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ensureExists(tx, &models.Course{}, courseID, ErrCourseMissing); err != nil {
			return err
		}

		var value interface{} = gorm.Expr("NULL")
		if facultyID != nil {
			if err := ensureExists(tx, &models.Faculty{}, *facultyID, ErrFacultyMissing); err != nil {
				return err
			}
			value = *facultyID
		}

		return tx.Model(&models.Course{}).Where("id = ?", courseID).Update("faculty_id", value).Error
	})
	if err != nil {
		return models.Course{}, err
	}

	return r.GetByID(ctx, courseID)
}

func (r *courseRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Course{}).Count(&count).Error
	return count, err
}

func ensureExists(tx *gorm.DB, model interface{}, id uint, missing error) error {
	var count int64
	if err := tx.Model(model).Where("id = ?", id).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return missing
	}
	return nil
}

// appendSnapshot records the course's current count. Timestamps never go
// backwards relative to the latest stored snapshot.
func appendSnapshot(tx *gorm.DB, courseID uint, now time.Time) (models.EnrollmentSnapshot, error) {
	var course models.Course
	if err := tx.Select("id", "enrollment_count").First(&course, courseID).Error; err != nil {
		return models.EnrollmentSnapshot{}, err
	}

	var latest []models.EnrollmentSnapshot
	if err := tx.Where("course_id = ?", courseID).
		Order("recorded_at DESC").
		Limit(1).
		Find(&latest).Error; err != nil {
		return models.EnrollmentSnapshot{}, err
	}

	snapshot := models.EnrollmentSnapshot{
		CourseID:   courseID,
		Count:      course.EnrollmentCount,
		RecordedAt: academics.NextSnapshotTime(now.UTC(), latest),
	}
	if err := tx.Create(&snapshot).Error; err != nil {
		return models.EnrollmentSnapshot{}, err
	}

	return snapshot, nil
}

// removeEnrollment deletes one enrollment row and records the decremented count.
func removeEnrollment(tx *gorm.DB, enrollment models.Enrollment, now time.Time) error {
	if err := tx.Delete(&models.Enrollment{}, enrollment.ID).Error; err != nil {
		return err
	}

	if err := tx.Model(&models.Course{}).
		Where("id = ? AND enrollment_count > 0", enrollment.CourseID).
		UpdateColumn("enrollment_count", gorm.Expr("enrollment_count - ?", 1)).Error; err != nil {
		return err
	}

	_, err := appendSnapshot(tx, enrollment.CourseID, now)
	return err
}
