package engine

import (
	"fmt"
)

// Medusa is a placeholder for the Medusa engine. The tag is accepted so
// the API distinguishes "unknown engine" from "known but unavailable".
type Medusa struct{}

// NewMedusa creates the Medusa engine stub
func NewMedusa() *Medusa {
	return &Medusa{}
}

func (m *Medusa) Name() string {
	return "medusa"
}

func (m *Medusa) ChartPath() string {
	return ""
}

func (m *Medusa) Values(storeID string) (map[string]string, error) {
	return nil, fmt.Errorf("medusa engine is not available")
}

func (m *Medusa) URLs(storeID string) (string, string) {
	return "", ""
}

// Validate reports the engine as unavailable; the API surfaces this as
// ENGINE_UNAVAILABLE
func (m *Medusa) Validate() error {
	return fmt.Errorf("Medusa engine is not yet available")
}
