package schema

import (
	"context"
	"fmt"

	"github.com/ekaya-inc/ekaya-nlsql/pkg/models"
)

// Export extracts the schema and commits it to the artifact store. The
// artifact is only replaced after a complete extraction.
func Export(ctx context.Context, extractor *Extractor, store *ArtifactStore) (*models.SchemaDescription, error) {
	desc, err := extractor.Extract(ctx)
	if err != nil {
		return nil, err
	}

	if err := store.Write(desc); err != nil {
		return nil, fmt.Errorf("write schema artifact %s: %w", store.Path(), err)
	}

	return desc, nil
}
