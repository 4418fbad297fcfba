package domain

import (
	"fmt"
	"time"
)

// Project is a user-scoped grouping label for dashboard organisation.
// Projects carry no dedup or generation logic.
type Project struct {
	ID         string
	UserID     string
	Name       string
	GroupLabel string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// ValidateProject validates a Project instance.
func ValidateProject(p *Project) error {
	if p == nil {
		return fmt.Errorf("project cannot be nil")
	}
	if p.ID == "" {
		return fmt.Errorf("project ID is required")
	}
	if p.UserID == "" {
		return fmt.Errorf("project UserID is required")
	}
	if p.Name == "" {
		return fmt.Errorf("project Name is required")
	}
	return nil
}
