// Package catalog provides access to the target-schema catalog that
// uploaded schemas are ranked against.
package catalog

import "github.com/jfilter/timetiles-sub012/internal/models"

// Source lists the target schemas available as import destinations.
type Source interface {
	LoadTargetSchemas() ([]models.TargetSchema, error)
	Close() error
}

// Memory is an in-memory Source, used in tests and when no database is
// configured.
type Memory struct {
	schemas []models.TargetSchema
}

// NewMemory creates a Source over a fixed schema list.
func NewMemory(schemas []models.TargetSchema) *Memory {
	return &Memory{schemas: schemas}
}

func (m *Memory) LoadTargetSchemas() ([]models.TargetSchema, error) {
	out := make([]models.TargetSchema, len(m.schemas))
	copy(out, m.schemas)
	return out, nil
}

func (m *Memory) Close() error { return nil }
