package models

import (
	"strings"
)

// SchemaColumn is one column of a table as reported by the catalog.
type SchemaColumn struct {
	Name     string `json:"name"`
	DataType string `json:"data_type"`
}

// SchemaTable is a table and its columns in catalog ordinal order.
type SchemaTable struct {
	Name    string         `json:"name"`
	Columns []SchemaColumn `json:"columns"`
}

// SchemaForeignKey is a single-column foreign key relationship.
type SchemaForeignKey struct {
	Table     string `json:"table"`
	Column    string `json:"column"`
	RefTable  string `json:"ref_table"`
	RefColumn string `json:"ref_column"`
}

// SchemaDescription is the schema context handed to the generative model.
// It reports whatever the catalog yields: foreign keys are not checked
// against the table list.
type SchemaDescription struct {
	Tables      []SchemaTable      `json:"tables"`
	ForeignKeys []SchemaForeignKey `json:"foreign_keys"`
}

// Render serializes the description to the flat text block consumed by the
// generation prompt:
//
//	Tables:
//	users(id (integer), created_at (timestamp))
//
//	Relations:
//	orders.user_id → users.id
func (d *SchemaDescription) Render() string {
	lines := make([]string, 0, len(d.Tables)+len(d.ForeignKeys)+2)

	lines = append(lines, "Tables:")
	for _, t := range d.Tables {
		cols := make([]string, len(t.Columns))
		for i, c := range t.Columns {
			cols[i] = c.Name + " (" + c.DataType + ")"
		}
		lines = append(lines, t.Name+"("+strings.Join(cols, ", ")+")")
	}

	lines = append(lines, "\nRelations:")
	for _, fk := range d.ForeignKeys {
		lines = append(lines, fk.Table+"."+fk.Column+" → "+fk.RefTable+"."+fk.RefColumn)
	}

	return strings.Join(lines, "\n")
}

// ColumnCount returns the number of columns across all tables.
func (d *SchemaDescription) ColumnCount() int {
	n := 0
	for _, t := range d.Tables {
		n += len(t.Columns)
	}
	return n
}
