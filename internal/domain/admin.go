package domain

import "time"

// AdminRole enumerates operator roles.
type AdminRole string

const (
	// AdminRoleProcess manages the requests of a single process.
	AdminRoleProcess AdminRole = "ADMIN"
	// AdminRoleSupervisor sees every process.
	AdminRoleSupervisor AdminRole = "SUPERVISOR"
)

// Admin models a process administrator.
type Admin struct {
	ID           string
	Username     string
	Name         string
	Email        string
	PasswordHash string
	Role         AdminRole
	Process      string
	Active       bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// CanManage reports whether the admin may act on requests of the given process.
func (a *Admin) CanManage(process string) bool {
	if a == nil || !a.Active {
		return false
	}
	return a.Role == AdminRoleSupervisor || a.Process == process
}
