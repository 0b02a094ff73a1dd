package repository

import (
	"errors"
	"strings"

	"gorm.io/gorm"
)

// Reference errors report which side of a link was missing during a
// multi-record write.
var (
	ErrStudentMissing = errors.New("referenced student does not exist")
	ErrCourseMissing  = errors.New("referenced course does not exist")
	ErrFacultyMissing = errors.New("referenced faculty does not exist")
)

func paginate(query *gorm.DB, page, pageSize int) *gorm.DB {
	if pageSize <= 0 {
		return query
	}
	if page <= 0 {
		page = 1
	}
	return query.Offset((page - 1) * pageSize).Limit(pageSize)
}

// likeEscaper escapes LIKE wildcards so a search matches them literally.
// Clauses using likePattern must declare ESCAPE '\'.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// likePattern builds a case-insensitive substring pattern for search.
func likePattern(search string) string {
	return "%" + likeEscaper.Replace(strings.ToLower(strings.TrimSpace(search))) + "%"
}
