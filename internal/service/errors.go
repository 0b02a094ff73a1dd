package service

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/noah-isme/academia-api/internal/repository"
)

var (
	// ErrInvalidInput marks a request that failed domain validation.
	ErrInvalidInput = errors.New("invalid input")
	// ErrInvalidCredentials is returned for an unknown email or a wrong password alike.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrAccessDenied is returned when the caller's role may not run an operation.
	ErrAccessDenied = errors.New("access denied")
	// ErrNotFound is wrapped by every missing-record error.
	ErrNotFound = errors.New("not found")
	// ErrEmailTaken is returned when registering an email that already has an account.
	ErrEmailTaken = errors.New("email already registered")

	ErrStudentNotFound = fmt.Errorf("student %w", ErrNotFound)
	ErrCourseNotFound  = fmt.Errorf("course %w", ErrNotFound)
	ErrFacultyNotFound = fmt.Errorf("faculty %w", ErrNotFound)
)

func invalidInput(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

// translateError maps persistence errors onto the service error taxonomy.
// notFound is used for a plain missing record.
func translateError(err error, notFound error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return notFound
	case errors.Is(err, repository.ErrStudentMissing):
		return ErrStudentNotFound
	case errors.Is(err, repository.ErrCourseMissing):
		return ErrCourseNotFound
	case errors.Is(err, repository.ErrFacultyMissing):
		return ErrFacultyNotFound
	default:
		return err
	}
}
