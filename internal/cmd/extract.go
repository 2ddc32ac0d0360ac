package cmd

import (
	"context"
	"errors"
	"log/slog"

	"github.com/dustin/go-humanize"
	"github.com/leighmacdonald/rirblock/internal/database"
	"github.com/leighmacdonald/rirblock/internal/store"
	"github.com/leighmacdonald/rirblock/pkg/log"
	"github.com/leighmacdonald/rirblock/pkg/util"
	"github.com/leighmacdonald/rirblock/pkg/whois"
	"github.com/spf13/cobra"
)

var errInputMissing = errors.New("input dump file does not exist")

// extractCmd parses one registry dump into a CSV range store, optionally
// mirroring the rows into postgres.
func extractCmd() *cobra.Command {
	var (
		dumpPath    string
		storePath   string
		batchSize   int
		useDatabase bool
	)

	cmd := &cobra.Command{
		Use:   "extract",
		Short: "Parse a whois inetnum dump into a range store",
		Long: `Streams a whois database dump, extracts the inetnum and country fields of
each record and appends them to a CSV range store in batches. Malformed
records are skipped and counted, never fatal.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			conf, cleanup, errSetup := setup(cmd.Context())
			if errSetup != nil {
				return errSetup
			}

			defer cleanup()

			if batchSize <= 0 {
				batchSize = conf.Extract.BatchSize
			}

			if !util.Exists(dumpPath) {
				slog.Error("Input dump does not exist", slog.String("path", dumpPath))

				return errInputMissing
			}

			writer, errWriter := store.NewWriter(storePath)
			if errWriter != nil {
				slog.Error("Failed to open range store", slog.String("path", storePath), log.ErrAttr(errWriter))

				return errWriter
			}

			var db *database.Database

			if useDatabase {
				db = database.New(conf.Database.DSN, conf.Database.LogQueries)
				if errConnect := db.Connect(cmd.Context()); errConnect != nil {
					slog.Error("Cannot initialize database", log.ErrAttr(errConnect))

					return errConnect
				}

				defer log.Closer(db)

				if errSchema := db.CreateSchema(cmd.Context()); errSchema != nil {
					slog.Error("Failed to create schema", log.ErrAttr(errSchema))

					return errSchema
				}

				if errTruncate := db.TruncateRanges(cmd.Context()); errTruncate != nil {
					slog.Error("Failed to truncate previous rows", log.ErrAttr(errTruncate))

					return errTruncate
				}
			}

			stats, errRead := whois.ReadInetnumRecords(cmd.Context(), dumpPath, batchSize,
				func(ctx context.Context, batch []whois.InetnumRecord) error {
					if errBatch := writer.WriteBatch(batch); errBatch != nil {
						return errBatch
					}

					if db != nil {
						return db.InsertRanges(ctx, batch)
					}

					return nil
				})
			if errRead != nil {
				slog.Error("Extraction failed", log.ErrAttr(errRead))
				_ = writer.Close()

				return errRead
			}

			if errClose := writer.Close(); errClose != nil {
				slog.Error("Failed to finalize range store", log.ErrAttr(errClose))

				return errClose
			}

			if db != nil {
				count, errCount := db.RangeCount(cmd.Context(), "")
				if errCount != nil {
					slog.Warn("Failed to count database rows", log.ErrAttr(errCount))
				} else {
					slog.Info("Database mirror updated", slog.String("rows", humanize.Comma(count)))
				}
			}

			slog.Info("Wrote range store",
				slog.String("path", storePath),
				slog.String("valid", humanize.Comma(stats.Valid)),
				slog.String("skipped", humanize.Comma(stats.Skipped)))

			return nil
		},
	}

	cmd.Flags().StringVarP(&dumpPath, "input", "i", "", "Path to the whois inetnum dump")
	cmd.Flags().StringVarP(&storePath, "output", "o", "", "Path of the CSV range store to write")
	cmd.Flags().IntVarP(&batchSize, "batch-size", "b", 0, "Rows per write batch (default from config)")
	cmd.Flags().BoolVar(&useDatabase, "database", false, "Also mirror extracted rows into the configured postgres database")
	_ = cmd.MarkFlagRequired("input")
	_ = cmd.MarkFlagRequired("output")

	return cmd
}
