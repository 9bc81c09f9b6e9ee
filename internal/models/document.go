package models

import "time"

// Document is a stored supporting document referenced by activities.
type Document struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	UploadedBy *uint     `gorm:"index" json:"uploaded_by"`
	FileName   string    `gorm:"size:255;not null" json:"file_name"`
	URL        string    `gorm:"size:512;not null" json:"url"`
	MimeType   string    `gorm:"size:128;not null" json:"mime_type"`
	SizeBytes  int64     `gorm:"not null" json:"size_bytes"`
	Checksum   string    `gorm:"size:128;index" json:"checksum"`
	CreatedAt  time.Time `json:"created_at"`
}

// All returns every model managed by migrations.
func All() []interface{} {
	return []interface{}{
		&User{},
		&ActivityList{},
		&Student{},
		&Activity{},
		&ActivityLog{},
		&Document{},
	}
}
