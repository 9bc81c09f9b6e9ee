package models

import (
	"time"

	"github.com/noah-isme/horas-api/internal/hours"
)

// ActivityList holds the hour rules a group of students is judged against.
type ActivityList struct {
	ID                  uint      `gorm:"primaryKey" json:"id"`
	Title               string    `gorm:"size:255;not null" json:"title"`
	TotalHoursRequired  float64   `gorm:"not null" json:"total_hours_required"`
	MaxHoursPerCategory float64   `gorm:"not null" json:"max_hours_per_category"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}

// HoursConfig exposes the list rules in the shape the aggregator consumes.
func (l ActivityList) HoursConfig() hours.Config {
	return hours.Config{
		TotalHoursRequired:  l.TotalHoursRequired,
		MaxHoursPerCategory: l.MaxHoursPerCategory,
	}
}
