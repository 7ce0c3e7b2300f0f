package postgres

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-nlsql/pkg/adapters/datasource"
)

func newSQLMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

func assertSQLMock(t *testing.T, mock sqlmock.Sqlmock) {
	t.Helper()
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet sql expectations: %v", err)
	}
}

func TestCatalogReader_ReadColumns(t *testing.T) {
	db, mock := newSQLMock(t)
	reader := NewCatalogReader(db, zap.NewNop())

	mock.ExpectQuery(regexp.QuoteMeta("FROM information_schema.columns")).
		WithArgs("emsp").
		WillReturnRows(sqlmock.NewRows([]string{"table_name", "column_name", "data_type"}).
			AddRow("sessions", "id", "uuid").
			AddRow("sessions", "user_id", "integer").
			AddRow("users", "id", "integer").
			AddRow("users", "created_at", "timestamp without time zone"))

	columns, err := reader.ReadColumns(context.Background(), "emsp")
	require.NoError(t, err)

	assert.Equal(t, []datasource.ColumnMetadata{
		{TableName: "sessions", ColumnName: "id", DataType: "uuid"},
		{TableName: "sessions", ColumnName: "user_id", DataType: "integer"},
		{TableName: "users", ColumnName: "id", DataType: "integer"},
		{TableName: "users", ColumnName: "created_at", DataType: "timestamp without time zone"},
	}, columns)
	assertSQLMock(t, mock)
}

func TestCatalogReader_ReadColumns_QueryError(t *testing.T) {
	db, mock := newSQLMock(t)
	reader := NewCatalogReader(db, nil)

	mock.ExpectQuery(regexp.QuoteMeta("FROM information_schema.columns")).
		WithArgs("emsp").
		WillReturnError(errors.New("permission denied for schema emsp"))

	_, err := reader.ReadColumns(context.Background(), "emsp")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "query columns")
	assert.Contains(t, err.Error(), "permission denied")
	assertSQLMock(t, mock)
}

func TestCatalogReader_ReadColumns_RowError(t *testing.T) {
	db, mock := newSQLMock(t)
	reader := NewCatalogReader(db, nil)

	mock.ExpectQuery(regexp.QuoteMeta("FROM information_schema.columns")).
		WithArgs("emsp").
		WillReturnRows(sqlmock.NewRows([]string{"table_name", "column_name", "data_type"}).
			AddRow("users", "id", "integer").
			RowError(0, errors.New("connection reset")))

	_, err := reader.ReadColumns(context.Background(), "emsp")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection reset")
	assertSQLMock(t, mock)
}

func TestCatalogReader_ReadForeignKeys(t *testing.T) {
	db, mock := newSQLMock(t)
	reader := NewCatalogReader(db, zap.NewNop())

	mock.ExpectQuery(`(?s)FROM information_schema.table_constraints.*constraint_type = 'FOREIGN KEY'.*tc.table_schema = \$1.*ORDER BY table_name, column_name`).
		WithArgs("emsp").
		WillReturnRows(sqlmock.NewRows([]string{"table_name", "column_name", "foreign_table_name", "foreign_column_name"}).
			AddRow("sessions", "user_id", "users", "id").
			AddRow("tariffs", "location_id", "locations", "id"))

	fks, err := reader.ReadForeignKeys(context.Background(), "emsp")
	require.NoError(t, err)

	assert.Equal(t, []datasource.ForeignKeyMetadata{
		{SourceTable: "sessions", SourceColumn: "user_id", TargetTable: "users", TargetColumn: "id"},
		{SourceTable: "tariffs", SourceColumn: "location_id", TargetTable: "locations", TargetColumn: "id"},
	}, fks)
	assertSQLMock(t, mock)
}

func TestCatalogReader_ReadForeignKeys_Empty(t *testing.T) {
	db, mock := newSQLMock(t)
	reader := NewCatalogReader(db, nil)

	mock.ExpectQuery(regexp.QuoteMeta("FROM information_schema.table_constraints")).
		WithArgs("emsp").
		WillReturnRows(sqlmock.NewRows([]string{"table_name", "column_name", "foreign_table_name", "foreign_column_name"}))

	fks, err := reader.ReadForeignKeys(context.Background(), "emsp")
	require.NoError(t, err)
	assert.Empty(t, fks)
	assertSQLMock(t, mock)
}

func TestCatalogReader_CloseDoesNotCloseBorrowedDB(t *testing.T) {
	db, _ := newSQLMock(t)
	reader := NewCatalogReader(db, nil)

	require.NoError(t, reader.Close())
	assert.NoError(t, db.Ping(), "borrowed db must stay open")
}
