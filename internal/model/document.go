package model

import "time"

// Document processing statuses. A document never leaves completed or failed
// except by deletion of the record.
const (
	DocumentStatusProcessing = "processing"
	DocumentStatusCompleted  = "completed"
	DocumentStatusFailed     = "failed"
)

// Document is the metadata record for one uploaded knowledge-base file.
// The row is created in processing status before any heavy work starts and
// kept around on failure so the tenant can see what went wrong.
type Document struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	CompanyID    uint      `gorm:"not null;index" json:"company_id"`
	SourcePath   string    `gorm:"size:512;not null" json:"source_path"`
	DisplayName  string    `gorm:"size:256;not null" json:"display_name"`
	Status       string    `gorm:"size:16;not null;index" json:"status"`
	TotalPages   int       `json:"total_pages"`
	TotalChunks  int       `json:"total_chunks"`
	ChunkSize    int       `json:"chunk_size"`
	ChunkOverlap int       `json:"chunk_overlap"`
	ErrorMessage string    `gorm:"type:text" json:"error_message,omitempty"`
	UploadedAt   time.Time `gorm:"autoCreateTime" json:"uploaded_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
