// Package schema builds the schema context used to constrain SQL generation:
// it reads a database catalog, renders it as text and stores it as an artifact
// shared with the generation endpoint.
package schema

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-nlsql/pkg/adapters/datasource"
	"github.com/ekaya-inc/ekaya-nlsql/pkg/models"
)

// Extractor builds a SchemaDescription for one schema.
type Extractor struct {
	reader     datasource.CatalogReader
	schemaName string
	logger     *zap.Logger
}

// NewExtractor creates an Extractor for schemaName.
func NewExtractor(reader datasource.CatalogReader, schemaName string, logger *zap.Logger) *Extractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Extractor{
		reader:     reader,
		schemaName: schemaName,
		logger:     logger.Named("schema"),
	}
}

// Extract reads the column and foreign key catalogs and groups columns by
// table, keeping tables in first-seen order. Any catalog error aborts the
// extraction; no partial description is returned.
func (e *Extractor) Extract(ctx context.Context) (*models.SchemaDescription, error) {
	columns, err := e.reader.ReadColumns(ctx, e.schemaName)
	if err != nil {
		return nil, fmt.Errorf("read columns for schema %q: %w", e.schemaName, err)
	}

	fks, err := e.reader.ReadForeignKeys(ctx, e.schemaName)
	if err != nil {
		return nil, fmt.Errorf("read foreign keys for schema %q: %w", e.schemaName, err)
	}

	desc := &models.SchemaDescription{
		Tables:      groupColumns(columns),
		ForeignKeys: make([]models.SchemaForeignKey, 0, len(fks)),
	}
	for _, fk := range fks {
		desc.ForeignKeys = append(desc.ForeignKeys, models.SchemaForeignKey{
			Table:     fk.SourceTable,
			Column:    fk.SourceColumn,
			RefTable:  fk.TargetTable,
			RefColumn: fk.TargetColumn,
		})
	}

	e.logger.Info("Extracted schema",
		zap.String("schema", e.schemaName),
		zap.Int("tables", len(desc.Tables)),
		zap.Int("columns", desc.ColumnCount()),
		zap.Int("relations", len(desc.ForeignKeys)))

	return desc, nil
}

// groupColumns groups catalog rows by table name, preserving the order in
// which tables are first seen and the row order within each table.
func groupColumns(columns []datasource.ColumnMetadata) []models.SchemaTable {
	index := make(map[string]int)
	tables := make([]models.SchemaTable, 0)

	for _, c := range columns {
		i, ok := index[c.TableName]
		if !ok {
			i = len(tables)
			index[c.TableName] = i
			tables = append(tables, models.SchemaTable{Name: c.TableName})
		}
		tables[i].Columns = append(tables[i].Columns, models.SchemaColumn{
			Name:     c.ColumnName,
			DataType: c.DataType,
		})
	}

	return tables
}
