package engine

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"sort"
)

// Engine describes how to parameterize the deployment chart for one
// e-commerce stack. Implementations are stateless; all per-store variance
// flows through the store id.
type Engine interface {
	// Name returns the engine tag used in store records and API requests
	Name() string

	// ChartPath returns the filesystem path of the chart to install
	ChartPath() string

	// Values builds the chart values for a store. Secret values (database
	// and admin passwords) are freshly generated on every call.
	Values(storeID string) (map[string]string, error)

	// URLs computes the public store and admin URLs for a store
	URLs(storeID string) (storeURL, adminURL string)

	// Validate reports whether the engine is available for provisioning
	Validate() error
}

// Registry resolves engine tags to implementations. It is built once at
// startup; adding an engine is one Register call plus one implementation.
type Registry struct {
	engines map[string]Engine
}

// NewRegistry creates an empty engine registry
func NewRegistry() *Registry {
	return &Registry{engines: make(map[string]Engine)}
}

// Register adds an engine under its name
func (r *Registry) Register(e Engine) {
	r.engines[e.Name()] = e
}

// Resolve returns the engine for a tag
func (r *Registry) Resolve(name string) (Engine, error) {
	e, ok := r.engines[name]
	if !ok {
		return nil, fmt.Errorf("unknown engine: %s", name)
	}
	return e, nil
}

// Names returns the registered engine tags, sorted
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.engines))
	for name := range r.engines {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// generatePassword draws length characters from a cryptographically secure
// source, base64url-encoded so the result is safe in YAML and URLs.
func generatePassword(length int) (string, error) {
	buf := make([]byte, length)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate password: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf)[:length], nil
}
