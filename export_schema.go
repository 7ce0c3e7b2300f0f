package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-nlsql/pkg/adapters/datasource"
	"github.com/ekaya-inc/ekaya-nlsql/pkg/adapters/datasource/postgres"
	"github.com/ekaya-inc/ekaya-nlsql/pkg/logging"
	"github.com/ekaya-inc/ekaya-nlsql/pkg/schema"
)

func newExportSchemaCmd(configPath *string) *cobra.Command {
	var (
		schemaName string
		output     string
	)

	cmd := &cobra.Command{
		Use:   "export-schema",
		Short: "Write the schema context artifact from the source database catalog",
		Long: `export-schema reads the column and foreign key catalog of one PostgreSQL
schema and replaces the schema context artifact used by SQL generation.
The artifact is only replaced after a complete extraction.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			if schemaName != "" {
				cfg.Schema.Name = schemaName
			}
			if output != "" {
				cfg.Schema.ArtifactPath = output
			}
			if err := cfg.ValidateSourceDB(); err != nil {
				return err
			}

			connStr := cfg.SourceDB.ConnectionString()
			logger.Info("Exporting schema",
				zap.String("schema", cfg.Schema.Name),
				zap.String("source", logging.SanitizeConnectionString(connStr)),
				zap.String("artifact", cfg.Schema.ArtifactPath))

			reader, err := datasource.OpenCatalogReader(cmd.Context(), postgres.Type, connStr, logger)
			if err != nil {
				return fmt.Errorf("connect to source database: %s", logging.SanitizeError(err))
			}
			defer reader.Close()

			store := schema.NewArtifactStore(cfg.Schema.ArtifactPath)
			desc, err := schema.Export(cmd.Context(), schema.NewExtractor(reader, cfg.Schema.Name, logger), store)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Schema context written to %s (%d tables, %d columns, %d relations)\n",
				store.Path(), len(desc.Tables), desc.ColumnCount(), len(desc.ForeignKeys))
			return nil
		},
	}

	cmd.Flags().StringVar(&schemaName, "schema", "", "Schema to export (overrides SCHEMA_NAME)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Artifact path (overrides SCHEMA_ARTIFACT_PATH)")
	return cmd
}
