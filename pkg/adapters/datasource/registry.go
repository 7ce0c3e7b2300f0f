package datasource

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"
)

// CatalogReaderInfo describes a registered catalog reader.
type CatalogReaderInfo struct {
	Type        string `json:"type"`         // "postgres"
	DisplayName string `json:"display_name"` // "PostgreSQL"
}

// CatalogReaderRegistration contains info + the factory opening a reader.
type CatalogReaderRegistration struct {
	Info CatalogReaderInfo
	Open func(ctx context.Context, connStr string, logger *zap.Logger) (CatalogReader, error)
}

var (
	registryMu sync.RWMutex
	registry   = make(map[string]CatalogReaderRegistration)
)

// Register is called by each adapter's init() function.
// Thread-safe for concurrent init() calls.
func Register(reg CatalogReaderRegistration) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[reg.Info.Type] = reg
}

// RegisteredTypes returns the registered reader types in sorted order.
func RegisteredTypes() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	types := make([]string, 0, len(registry))
	for t := range registry {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// IsRegistered checks if a reader type is available.
func IsRegistered(dsType string) bool {
	registryMu.RLock()
	defer registryMu.RUnlock()
	_, ok := registry[dsType]
	return ok
}

// OpenCatalogReader opens a reader of the given type.
func OpenCatalogReader(ctx context.Context, dsType, connStr string, logger *zap.Logger) (CatalogReader, error) {
	registryMu.RLock()
	reg, ok := registry[dsType]
	registryMu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("unsupported datasource type %q (registered: %v)", dsType, RegisteredTypes())
	}
	return reg.Open(ctx, connStr, logger)
}
