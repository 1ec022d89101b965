package entities

import (
	"time"

	"exception-server/services/assistant-api/internal/domain/similarcase"
)

// ExceptionCase represents the database schema for exception case records.
type ExceptionCase struct {
	ID        uint      `gorm:"primaryKey"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`

	PublicID     string   `gorm:"type:varchar(50);uniqueIndex:idx_case_tenant_public,priority:2;not null"`
	TenantID     string   `gorm:"type:varchar(64);uniqueIndex:idx_case_tenant_public,priority:1;not null"`
	Type         string   `gorm:"type:varchar(100);index;not null"`
	Domain       string   `gorm:"type:varchar(100);index"`
	SourceSystem string   `gorm:"type:varchar(100)"`
	Entity       string   `gorm:"type:varchar(256)"`
	Severity     string   `gorm:"type:varchar(20);index"`
	Amount       *float64 `gorm:"type:numeric"`
	Status       string   `gorm:"type:varchar(30);index"`
}

// TableName specifies the table name for ExceptionCase.
func (ExceptionCase) TableName() string {
	return "exception_cases"
}

// EtoD converts the case entity to its domain representation.
func (e *ExceptionCase) EtoD() *similarcase.ExceptionCase {
	return &similarcase.ExceptionCase{
		ID:           e.PublicID,
		TenantID:     e.TenantID,
		Type:         e.Type,
		Domain:       e.Domain,
		SourceSystem: e.SourceSystem,
		Entity:       e.Entity,
		Severity:     e.Severity,
		Amount:       e.Amount,
	}
}
