package models

import (
	"time"

	"github.com/noah-isme/horas-api/internal/hours"
)

// DateLayout is the calendar-date format used for activity dates.
const DateLayout = "2006-01-02"

// Activity is a single logged complementary activity.
type Activity struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	StudentID   uint           `gorm:"not null;index" json:"student_id"`
	Category    hours.Category `gorm:"size:32;not null;index" json:"category"`
	Hours       float64        `gorm:"not null" json:"hours"`
	OccurredOn  time.Time      `gorm:"type:date;not null" json:"occurred_on"`
	RecordedBy  string         `gorm:"size:255;not null" json:"recorded_by"`
	DocumentRef string         `gorm:"size:512" json:"document_ref"`
	Notes       string         `gorm:"type:text" json:"notes"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	Student     *Student       `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
}

// HoursRecord projects the activity into the aggregator input.
func (a Activity) HoursRecord() hours.Record {
	return hours.Record{Category: a.Category, Hours: a.Hours}
}

// HoursRecords projects a slice of activities into aggregator input.
func HoursRecords(activities []Activity) []hours.Record {
	records := make([]hours.Record, 0, len(activities))
	for _, activity := range activities {
		records = append(records, activity.HoursRecord())
	}
	return records
}
