// Package playbook scores remediation procedures against exception context
// and recommends the best match.
package playbook

import "context"

// Step is one ordered remediation step within a procedure.
type Step struct {
	Order    int    `json:"order"`
	Label    string `json:"label"`
	Category string `json:"category,omitempty"`
	Detail   string `json:"detail,omitempty"`
}

// MatchConditions declare when a procedure applies.
type MatchConditions struct {
	ExceptionTypes []string `json:"exception_types,omitempty"`
	Severities     []string `json:"severities,omitempty"`
	Domains        []string `json:"domains,omitempty"`
	Tags           []string `json:"tags,omitempty"`
	SourceSystems  []string `json:"source_systems,omitempty"`
}

// Procedure is a named, ordered sequence of remediation steps with match
// conditions.
type Procedure struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Version    string          `json:"version,omitempty"`
	Steps      []Step          `json:"steps"`
	Conditions MatchConditions `json:"conditions"`
}

// Catalog lists the procedures available to a tenant. Implemented elsewhere.
type Catalog interface {
	ListProcedures(ctx context.Context, tenantID string) ([]Procedure, error)
}

// ExceptionContext describes the exception a recommendation is sought for.
type ExceptionContext struct {
	Type         string   `json:"type,omitempty"`
	Severity     string   `json:"severity,omitempty"`
	SourceSystem string   `json:"source_system,omitempty"`
	Description  string   `json:"description,omitempty"`
	Tags         []string `json:"tags,omitempty"`
}

// Empty reports whether no attribute of the context is set.
func (c ExceptionContext) Empty() bool {
	return c.Type == "" && c.Severity == "" && c.SourceSystem == "" &&
		c.Description == "" && len(c.Tags) == 0
}

// Recommendation is the transient result of a recommendation call.
type Recommendation struct {
	PlaybookID    string   `json:"playbook_id"`
	Name          string   `json:"name"`
	Confidence    float64  `json:"confidence"`
	Steps         []Step   `json:"steps"`
	Rationale     string   `json:"rationale"`
	MatchedFields []string `json:"matched_fields"`
	SourceVersion string   `json:"source_version,omitempty"`
}
