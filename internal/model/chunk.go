package model

import (
	"encoding/json"
	"time"
)

// Chunk is one bounded slice of a document's extracted text together with its
// embedding. The embedding is stored as a JSON array of float32 so the row is
// portable and the tenant's vector index can be rebuilt from the table alone.
type Chunk struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	CompanyID  uint      `gorm:"not null;index" json:"company_id"`
	DocumentID uint      `gorm:"not null;index" json:"document_id"`
	ChunkID    string    `gorm:"size:64;not null" json:"chunk_id"`
	ChunkIndex int       `gorm:"not null" json:"chunk_index"`
	PageNumber int       `json:"page_number"`
	Content    string    `gorm:"type:text;not null" json:"content"`
	Embedding  string    `gorm:"type:mediumtext" json:"-"` // JSON array of float32
	CreatedAt  time.Time `json:"created_at"`
}

// EmbeddingVector returns the parsed embedding slice; empty on parse error.
func (c *Chunk) EmbeddingVector() []float32 {
	if c.Embedding == "" {
		return nil
	}
	var v []float32
	_ = json.Unmarshal([]byte(c.Embedding), &v)
	return v
}

// SetEmbedding stores the embedding as JSON.
func (c *Chunk) SetEmbedding(vec []float32) {
	if len(vec) == 0 {
		c.Embedding = "[]"
		return
	}
	b, _ := json.Marshal(vec)
	c.Embedding = string(b)
}
