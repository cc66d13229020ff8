package domain

import "time"

// CategoryAssignment links an agent to a service category. At most one
// assignment per agent may be active at a time; activating a new one
// deactivates the agent's previous active assignment.
type CategoryAssignment struct {
	ID         string
	UserID     string
	CategoryID string
	Active     bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
