package sync

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/xeipuuv/gojsonschema"
)

// Severity splits validation outcomes. Advisory issues are logged and
// counted but never block a merge; fatal issues mean the document could not
// be checked at all.
type Severity string

const (
	SeverityAdvisory Severity = "advisory"
	SeverityFatal    Severity = "fatal"
)

// Issue is one validation finding.
type Issue struct {
	Schema   string   `json:"schema"`
	Severity Severity `json:"severity"`
	Detail   string   `json:"detail"`
}

// ValidationSummary accumulates findings across one sync run.
type ValidationSummary struct {
	Checked int     `json:"checked"`
	Passed  int     `json:"passed"`
	Issues  []Issue `json:"issues,omitempty"`
}

func (s *ValidationSummary) add(schema string, severity Severity, detail string) {
	s.Issues = append(s.Issues, Issue{Schema: schema, Severity: severity, Detail: detail})
}

// SchemaCache holds compiled schemas. It is constructed explicitly and
// passed into the validator rather than living as package state, so tests
// and concurrent orchestrators never share hidden schema state.
type SchemaCache struct {
	mu      sync.Mutex
	schemas map[string]*gojsonschema.Schema
}

func NewSchemaCache() *SchemaCache {
	return &SchemaCache{schemas: make(map[string]*gojsonschema.Schema)}
}

func (c *SchemaCache) get(name, source string) (*gojsonschema.Schema, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if s, ok := c.schemas[name]; ok {
		return s, nil
	}
	s, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(source))
	if err != nil {
		return nil, fmt.Errorf("failed to compile schema %s: %w", name, err)
	}
	c.schemas[name] = s
	return s, nil
}

// Clear drops every compiled schema.
func (c *SchemaCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.schemas = make(map[string]*gojsonschema.Schema)
}

// Validator checks canonical documents against their interchange schemas.
type Validator struct {
	cache *SchemaCache
}

func NewValidator(cache *SchemaCache) *Validator {
	return &Validator{cache: cache}
}

// Validate checks one canonical document, recording the outcome in the
// summary. Content violations are advisory; only a broken schema or an
// unmarshalable document is fatal.
func (v *Validator) Validate(name string, doc any, summary *ValidationSummary) {
	summary.Checked++
	source, ok := schemaSources[name]
	if !ok {
		summary.add(name, SeverityFatal, "no schema registered")
		return
	}
	schema, err := v.cache.get(name, source)
	if err != nil {
		summary.add(name, SeverityFatal, err.Error())
		return
	}
	payload, err := json.Marshal(doc)
	if err != nil {
		summary.add(name, SeverityFatal, fmt.Sprintf("failed to marshal document: %v", err))
		return
	}
	result, err := schema.Validate(gojsonschema.NewBytesLoader(payload))
	if err != nil {
		summary.add(name, SeverityFatal, err.Error())
		return
	}
	if !result.Valid() {
		for _, desc := range result.Errors() {
			summary.add(name, SeverityAdvisory, desc.String())
		}
		return
	}
	summary.Passed++
}

// Canonical interchange schemas. Kept deliberately permissive: they pin the
// shape and the required identity fields, not platform quirks.
var schemaSources = map[string]string{
	"league": `{
		"type": "object",
		"required": ["external_id", "name", "season"],
		"properties": {
			"external_id": {"type": "string", "minLength": 1},
			"name": {"type": "string"},
			"season": {"type": "integer", "minimum": 2000},
			"week": {"type": "integer", "minimum": 0},
			"total_teams": {"type": "integer", "minimum": 0}
		}
	}`,
	"team": `{
		"type": "object",
		"required": ["external_id", "name"],
		"properties": {
			"external_id": {"type": "string", "minLength": 1},
			"name": {"type": "string", "minLength": 1}
		}
	}`,
	"roster": `{
		"type": "object",
		"required": ["external_team_id"],
		"properties": {
			"external_team_id": {"type": "string", "minLength": 1},
			"starters": {"type": "array", "items": {"type": "string"}},
			"bench": {"type": "array", "items": {"type": "string"}},
			"reserve": {"type": "array", "items": {"type": "string"}},
			"taxi": {"type": "array", "items": {"type": "string"}}
		}
	}`,
	"player": `{
		"type": "object",
		"required": ["external_id", "full_name", "position"],
		"properties": {
			"external_id": {"type": "string", "minLength": 1},
			"full_name": {"type": "string", "minLength": 1},
			"position": {"type": "string", "enum": ["QB", "RB", "WR", "TE", "K", "DST", "DL", "LB", "DB"]}
		}
	}`,
	"transaction": `{
		"type": "object",
		"required": ["external_id", "external_team_id", "kind"],
		"properties": {
			"external_id": {"type": "string", "minLength": 1},
			"external_team_id": {"type": "string", "minLength": 1},
			"kind": {"type": "string"},
			"week": {"type": "integer", "minimum": 0}
		}
	}`,
}
