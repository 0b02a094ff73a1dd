package service

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"

	"github.com/noah-isme/academia-api/internal/models"
)

// Actor is the caller of an operation. The zero value is an anonymous caller.
type Actor struct {
	ID    uint
	Role  string
	Email string
}

// Anonymous reports whether no authenticated identity is attached.
func (a Actor) Anonymous() bool {
	return a.ID == 0 || a.Role == ""
}

var (
	staffRoles = []string{models.RoleAdmin, models.RoleFaculty}
	adminRoles = []string{models.RoleAdmin}
)

// authorize fails with ErrAccessDenied unless the actor holds one of roles.
func authorize(actor Actor, roles ...string) error {
	if actor.Anonymous() {
		return ErrAccessDenied
	}
	for _, role := range roles {
		if strings.EqualFold(actor.Role, role) {
			return nil
		}
	}
	return ErrAccessDenied
}

// cleanName strips markup from a display name and trims it.
func cleanName(policy *bluemonday.Policy, raw string) (string, error) {
	cleaned := strings.TrimSpace(html.UnescapeString(policy.Sanitize(raw)))
	if cleaned == "" {
		return "", invalidInput("name must not be empty")
	}
	return cleaned, nil
}
