package postgres

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-nlsql/pkg/adapters/datasource"
)

const columnsQuery = `
SELECT
	table_name,
	column_name,
	data_type
FROM information_schema.columns
WHERE table_schema = $1
ORDER BY table_name, ordinal_position`

const foreignKeysQuery = `
SELECT
	tc.table_name AS table_name,
	kcu.column_name AS column_name,
	ccu.table_name AS foreign_table_name,
	ccu.column_name AS foreign_column_name
FROM information_schema.table_constraints AS tc
JOIN information_schema.key_column_usage AS kcu
	ON tc.constraint_name = kcu.constraint_name
	AND tc.table_schema = kcu.table_schema
JOIN information_schema.constraint_column_usage AS ccu
	ON ccu.constraint_name = tc.constraint_name
	AND ccu.table_schema = tc.table_schema
WHERE tc.constraint_type = 'FOREIGN KEY'
  AND tc.table_schema = $1
ORDER BY table_name, column_name`

// ReadColumns returns all columns in schemaName ordered by table name then
// ordinal position, as returned by the catalog.
func (r *CatalogReader) ReadColumns(ctx context.Context, schemaName string) ([]datasource.ColumnMetadata, error) {
	rows, err := r.db.QueryContext(ctx, columnsQuery, schemaName)
	if err != nil {
		return nil, fmt.Errorf("query columns: %w", err)
	}
	defer rows.Close()

	var columns []datasource.ColumnMetadata
	for rows.Next() {
		var c datasource.ColumnMetadata
		if err := rows.Scan(&c.TableName, &c.ColumnName, &c.DataType); err != nil {
			return nil, fmt.Errorf("scan column: %w", err)
		}
		columns = append(columns, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate columns: %w", err)
	}

	r.logger.Debug("Read column catalog",
		zap.String("schema", schemaName),
		zap.Int("columns", len(columns)))

	return columns, nil
}

// ReadForeignKeys returns the foreign key columns declared in schemaName.
func (r *CatalogReader) ReadForeignKeys(ctx context.Context, schemaName string) ([]datasource.ForeignKeyMetadata, error) {
	rows, err := r.db.QueryContext(ctx, foreignKeysQuery, schemaName)
	if err != nil {
		return nil, fmt.Errorf("query foreign keys: %w", err)
	}
	defer rows.Close()

	var fks []datasource.ForeignKeyMetadata
	for rows.Next() {
		var fk datasource.ForeignKeyMetadata
		if err := rows.Scan(&fk.SourceTable, &fk.SourceColumn, &fk.TargetTable, &fk.TargetColumn); err != nil {
			return nil, fmt.Errorf("scan foreign key: %w", err)
		}
		fks = append(fks, fk)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate foreign keys: %w", err)
	}

	r.logger.Debug("Read foreign key catalog",
		zap.String("schema", schemaName),
		zap.Int("foreign_keys", len(fks)))

	return fks, nil
}
