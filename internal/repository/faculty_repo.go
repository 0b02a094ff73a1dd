package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/academia-api/internal/models"
)

// FacultyFilter narrows faculty listings.
type FacultyFilter struct {
	Search   string
	Page     int
	PageSize int
}

// FacultyRepository provides access to faculty members.
type FacultyRepository interface {
	List(ctx context.Context, filter FacultyFilter) ([]models.Faculty, int64, error)
	GetByID(ctx context.Context, id uint) (models.Faculty, error)
	Create(ctx context.Context, faculty *models.Faculty) error
	Update(ctx context.Context, id uint, updates map[string]interface{}) (models.Faculty, error)
	Delete(ctx context.Context, id uint) error
	Count(ctx context.Context) (int64, error)
}

type facultyRepository struct {
	db *gorm.DB
}

// NewFacultyRepository constructs a faculty repository.
func NewFacultyRepository(db *gorm.DB) FacultyRepository {
	return &facultyRepository{db: db}
}

func withFacultyCourses(query *gorm.DB) *gorm.DB {
	return query.Preload("Courses", func(db *gorm.DB) *gorm.DB { return db.Order("courses.id ASC") })
}

func (r *facultyRepository) List(ctx context.Context, filter FacultyFilter) ([]models.Faculty, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Faculty{})

	if filter.Search != "" {
		query = query.Where("LOWER(faculties.name) LIKE ? ESCAPE '\\'", likePattern(filter.Search))
	}

	countQuery := query.Session(&gorm.Session{})
	var total int64
	if err := countQuery.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = paginate(query.Order("faculties.id DESC"), filter.Page, filter.PageSize)

	var faculty []models.Faculty
	if err := withFacultyCourses(query).Find(&faculty).Error; err != nil {
		return nil, 0, err
	}

	return faculty, total, nil
}

func (r *facultyRepository) GetByID(ctx context.Context, id uint) (models.Faculty, error) {
	var faculty models.Faculty
	if err := withFacultyCourses(r.db.WithContext(ctx)).First(&faculty, id).Error; err != nil {
		return models.Faculty{}, err
	}

	return faculty, nil
}

func (r *facultyRepository) Create(ctx context.Context, faculty *models.Faculty) error {
	return r.db.WithContext(ctx).Create(faculty).Error
}

func (r *facultyRepository) Update(ctx context.Context, id uint, updates map[string]interface{}) (models.Faculty, error) {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ensureExists(tx, &models.Faculty{}, id, gorm.ErrRecordNotFound); err != nil {
			return err
		}
		if len(updates) == 0 {
			return nil
		}
		return tx.Model(&models.Faculty{}).Where("id = ?", id).Updates(updates).Error
	})
	if err != nil {
		return models.Faculty{}, err
	}

	return r.GetByID(ctx, id)
}

// Delete removes the faculty member and detaches every course they taught.
func (r *facultyRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ensureExists(tx, &models.Faculty{}, id, gorm.ErrRecordNotFound); err != nil {
			return err
		}

		if err := tx.Model(&models.Course{}).
			Where("faculty_id = ?", id).
			Update("faculty_id", gorm.Expr("NULL")).Error; err != nil {
			return err
		}

		return tx.Delete(&models.Faculty{}, id).Error
	})
}

func (r *facultyRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Faculty{}).Count(&count).Error
	return count, err
}
