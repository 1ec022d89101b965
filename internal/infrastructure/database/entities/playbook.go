package entities

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"

	"exception-server/services/assistant-api/internal/domain/playbook"
)

// Playbook represents the database schema for remediation procedures.
type Playbook struct {
	ID        uint      `gorm:"primaryKey"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`

	PublicID   string         `gorm:"type:varchar(50);uniqueIndex:idx_playbook_tenant_public,priority:2;not null"`
	TenantID   string         `gorm:"type:varchar(64);uniqueIndex:idx_playbook_tenant_public,priority:1;not null"`
	Name       string         `gorm:"type:varchar(256);not null"`
	Version    string         `gorm:"type:varchar(50)"`
	Steps      datatypes.JSON `gorm:"type:jsonb;not null"`
	Conditions datatypes.JSON `gorm:"type:jsonb;not null"`
	Enabled    bool           `gorm:"not null;default:true"`
}

// TableName specifies the table name for Playbook.
func (Playbook) TableName() string {
	return "assistant_playbooks"
}

// NewSchemaPlaybook converts a domain procedure to the database schema.
func NewSchemaPlaybook(tenantID string, p *playbook.Procedure) (*Playbook, error) {
	steps, err := json.Marshal(p.Steps)
	if err != nil {
		return nil, err
	}
	conditions, err := json.Marshal(p.Conditions)
	if err != nil {
		return nil, err
	}
	return &Playbook{
		PublicID:   p.ID,
		TenantID:   tenantID,
		Name:       p.Name,
		Version:    p.Version,
		Steps:      steps,
		Conditions: conditions,
		Enabled:    true,
	}, nil
}

// EtoD converts the playbook entity to its domain representation.
func (e *Playbook) EtoD() (*playbook.Procedure, error) {
	proc := playbook.Procedure{
		ID:      e.PublicID,
		Name:    e.Name,
		Version: e.Version,
	}
	if len(e.Steps) > 0 {
		if err := json.Unmarshal(e.Steps, &proc.Steps); err != nil {
			return nil, err
		}
	}
	if len(e.Conditions) > 0 {
		if err := json.Unmarshal(e.Conditions, &proc.Conditions); err != nil {
			return nil, err
		}
	}
	return &proc, nil
}
