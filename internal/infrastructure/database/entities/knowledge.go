package entities

import (
	"time"

	"exception-server/services/assistant-api/internal/domain/knowledge"
)

// KnowledgeDocument represents the database schema for indexed source
// material. The embedding itself lives in the vector index; this table holds
// the canonical chunk text used to rebuild the index at startup.
type KnowledgeDocument struct {
	ID        uint      `gorm:"primaryKey"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`

	TenantID      string  `gorm:"type:varchar(64);uniqueIndex:idx_doc_identity,priority:1;not null"`
	SourceType    string  `gorm:"type:varchar(30);uniqueIndex:idx_doc_identity,priority:2;not null"`
	SourceID      string  `gorm:"type:varchar(100);uniqueIndex:idx_doc_identity,priority:3;not null"`
	SourceVersion string  `gorm:"type:varchar(50)"`
	Domain        string  `gorm:"type:varchar(100);index"`
	Title         string  `gorm:"type:varchar(512);not null"`
	Content       string  `gorm:"type:text;not null"`
	URL           string  `gorm:"type:varchar(512)"`
	Metadata      JSONMap `gorm:"type:jsonb"`
}

// TableName specifies the table name for KnowledgeDocument.
func (KnowledgeDocument) TableName() string {
	return "assistant_knowledge_documents"
}

// NewSchemaKnowledgeDocument converts a domain document to the database schema.
func NewSchemaKnowledgeDocument(d *knowledge.Document) *KnowledgeDocument {
	return &KnowledgeDocument{
		TenantID:      d.TenantID,
		SourceType:    string(d.SourceType),
		SourceID:      d.SourceID,
		SourceVersion: d.SourceVersion,
		Domain:        d.Domain,
		Title:         d.Title,
		Content:       d.Content,
		URL:           d.URL,
		Metadata:      JSONMap(d.Metadata),
	}
}

// EtoD converts the document entity to its domain representation.
func (e *KnowledgeDocument) EtoD() knowledge.Document {
	return knowledge.Document{
		TenantID:      e.TenantID,
		SourceType:    knowledge.SourceType(e.SourceType),
		SourceID:      e.SourceID,
		SourceVersion: e.SourceVersion,
		Domain:        e.Domain,
		Title:         e.Title,
		Content:       e.Content,
		URL:           e.URL,
		Metadata:      map[string]string(e.Metadata),
	}
}
