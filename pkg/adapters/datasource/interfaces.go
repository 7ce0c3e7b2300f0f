package datasource

import "context"

// CatalogReader reads one schema's catalog from a relational database.
// Each implementation owns its connection and must be closed when done.
type CatalogReader interface {
	// ReadColumns returns every column of every table in schemaName,
	// ordered by table name then ordinal position.
	ReadColumns(ctx context.Context, schemaName string) ([]ColumnMetadata, error)

	// ReadForeignKeys returns every foreign key constraint column declared in
	// schemaName, ordered by table name then column name.
	ReadForeignKeys(ctx context.Context, schemaName string) ([]ForeignKeyMetadata, error)

	// Close releases the database connection.
	Close() error
}
