package domain

import "time"

// Token represents issued admin token metadata.
type Token struct {
	SubjectID string
	Role      AdminRole
	Process   string
	ExpiresAt time.Time
	IssuedAt  time.Time
}
