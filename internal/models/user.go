package models

import "time"

// User roles.
const (
	RoleCoordinator = "coordinator"
	RoleMonitor     = "monitor"
)

// User is an account that can log activities or manage lists.
type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Name         string    `gorm:"size:255;not null" json:"name"`
	Email        string    `gorm:"size:255;uniqueIndex;not null" json:"email"`
	CPF          *string   `gorm:"column:cpf;size:14;uniqueIndex" json:"cpf,omitempty"`
	PasswordHash string    `gorm:"size:255;not null" json:"-"`
	Role         string    `gorm:"size:32;not null" json:"role"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// IsCoordinator reports whether the user manages lists and students.
func (u User) IsCoordinator() bool {
	return u.Role == RoleCoordinator
}
