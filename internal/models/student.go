package models

import (
	"time"

	"github.com/noah-isme/horas-api/internal/hours"
)

// Student is enrolled in exactly one activity list.
//
// TotalHours and Status are a denormalised cache of the aggregation result and are only
// written by the progress refresh; ActivitiesVersion increments on every activity write.
type Student struct {
	ID                uint          `gorm:"primaryKey" json:"id"`
	Name              string        `gorm:"size:255;not null" json:"name"`
	CPF               string        `gorm:"column:cpf;size:14;uniqueIndex;not null" json:"cpf"`
	Course            string        `gorm:"size:255" json:"course"`
	ClassName         string        `gorm:"size:64" json:"class_name"`
	ListID            uint          `gorm:"not null;index" json:"list_id"`
	TotalHours        float64       `gorm:"not null;default:0" json:"total_hours"`
	Status            hours.Status  `gorm:"size:32;not null;default:'in progress'" json:"status"`
	ActivitiesVersion uint          `gorm:"not null;default:0" json:"activities_version"`
	CreatedAt         time.Time     `json:"created_at"`
	UpdatedAt         time.Time     `json:"updated_at"`
	List              *ActivityList `gorm:"foreignKey:ListID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"list,omitempty"`
}
