package domain

import "time"

// Organisation is a named group users can belong to. OrgID is the public
// identifier; Name is unique across all organisations.
type Organisation struct {
	ID          int64
	OrgID       string
	Name        string
	Description string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Membership links one user to one organisation. The pair is the
// composite primary key, so an edge can exist at most once.
type Membership struct {
	UserID int64
	OrgID  int64
}
