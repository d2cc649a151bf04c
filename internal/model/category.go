package model

import "time"

// Category represents a requirement category (e.g. Functional, Security).
type Category struct {
	CreatedAt   time.Time
	Name        string
	Description string
	ID          int
	IsActive    bool
}

// StakeholderArea represents an organizational area that owns requirements.
type StakeholderArea struct {
	CreatedAt time.Time
	Name      string
	ID        int
	IsActive  bool
}
