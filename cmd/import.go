package main

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/boundary-lookup/internal/dataset"
	"github.com/sells-group/boundary-lookup/internal/db"
)

var (
	importDatabaseURL string
	importTable       string
	importCreate      bool
	importReplace     bool
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Copy the configured file dataset into a PostGIS table",
	Long:  "Reads the dataset named by dataset.path and upserts every feature into a PostGIS table that the postgres driver can serve from. With --replace the table contents are swapped in one transaction.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		if cfg.Dataset.Driver == dataset.DriverPostgres {
			return eris.New("import: dataset.driver must name a file dataset, not postgres")
		}
		if err := cfg.Validate("index"); err != nil {
			return err
		}
		url := importDatabaseURL
		if url == "" {
			return eris.New("import: --database-url is required")
		}

		src, err := dataset.Open(cfg.Dataset)
		if err != nil {
			return eris.Wrap(err, "open dataset")
		}
		features, err := src.Load(ctx)
		if err != nil {
			return err
		}

		pool, err := db.Connect(ctx, url, dataset.PoolConfig(cfg.Dataset))
		if err != nil {
			return err
		}
		defer pool.Close()

		spec := dataset.TableSpec{
			Table:            importTable,
			IDColumn:         cfg.Dataset.IDColumn,
			GeomColumn:       cfg.Dataset.GeomColumn,
			PropertiesColumn: cfg.Dataset.PropertiesColumn,
		}
		if spec.Table == "" {
			spec.Table = cfg.Dataset.Table
		}
		if importCreate {
			if err := dataset.EnsureTable(ctx, pool, spec); err != nil {
				return err
			}
		}

		write := dataset.Publish
		if importReplace {
			write = dataset.Replace
		}
		n, err := write(ctx, pool, spec, features)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "imported %d features into %s\n", n, spec.Table)
		return nil
	},
}

func init() {
	importCmd.Flags().StringVar(&importDatabaseURL, "database-url", "", "PostgreSQL connection string of the target database")
	importCmd.Flags().StringVar(&importTable, "table", "", "target table (default dataset.table)")
	importCmd.Flags().BoolVar(&importCreate, "create", true, "create the table when it does not exist")
	importCmd.Flags().BoolVar(&importReplace, "replace", false, "replace the table contents instead of upserting by id")
	rootCmd.AddCommand(importCmd)
}
