package llm

import (
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"

	apperrors "github.com/kbukum/samuelizer/errors"
)

// Dialect translates between CompletionRequest/CompletionResponse and one
// vendor's chat JSON. Dialects are stateless values.
type Dialect interface {
	Name() string
	// ChatPath is the completion endpoint relative to the base URL.
	ChatPath() string
	// HealthPath is probed by IsAvailable. Empty skips the probe.
	HealthPath() string
	BuildRequest(req CompletionRequest) (any, error)
	ParseResponse(body []byte) (*CompletionResponse, error)
}

type dialectTable struct {
	mu sync.RWMutex
	m  map[string]Dialect
}

var dialects = &dialectTable{m: map[string]Dialect{}}

// RegisterDialect makes d available to New under name. Dialect packages
// call it from init; a later registration wins.
func RegisterDialect(name string, d Dialect) {
	dialects.mu.Lock()
	dialects.m[name] = d
	dialects.mu.Unlock()
}

// GetDialect returns the dialect registered under name. An unknown name
// is an INVALID_INPUT error listing the known ones.
func GetDialect(name string) (Dialect, error) {
	dialects.mu.RLock()
	d, ok := dialects.m[name]
	dialects.mu.RUnlock()
	if ok {
		return d, nil
	}
	return nil, apperrors.InvalidInput("dialect",
		fmt.Sprintf("no chat dialect %q is registered (known: %s)", name, strings.Join(Dialects(), ", ")))
}

// Dialects lists the registered names in order.
func Dialects() []string {
	dialects.mu.RLock()
	defer dialects.mu.RUnlock()
	return slices.Sorted(maps.Keys(dialects.m))
}
