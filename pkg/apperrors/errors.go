package apperrors

import "errors"

var (
	ErrMissingConfig         = errors.New("missing configuration")
	ErrSchemaArtifactMissing = errors.New("schema artifact not found; run export-schema first")
	ErrEmptyQuestion         = errors.New("question is required")
	ErrUnsupportedFormat     = errors.New("unsupported output format")
)
