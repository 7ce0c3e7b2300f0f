package datasource

// ColumnMetadata is one row of the column catalog query.
type ColumnMetadata struct {
	TableName  string
	ColumnName string
	DataType   string
}

// ForeignKeyMetadata is one row of the foreign key catalog query.
type ForeignKeyMetadata struct {
	SourceTable  string
	SourceColumn string
	TargetTable  string
	TargetColumn string
}
