package cmd

import (
	"log/slog"
	"os"
	"sort"

	"github.com/dustin/go-humanize"
	"github.com/leighmacdonald/rirblock/internal/store"
	"github.com/leighmacdonald/rirblock/pkg/cidr"
	"github.com/leighmacdonald/rirblock/pkg/log"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

// statsCmd renders a per-country summary of one or more range stores so an
// operator can judge data quality before consolidating.
func statsCmd() *cobra.Command {
	var storePaths []string

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Summarize range stores per country",
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, cleanup, errSetup := setup(cmd.Context())
			if errSetup != nil {
				return errSetup
			}

			defer cleanup()

			type countryStats struct {
				records   int64
				addresses uint64
			}

			perCountry := map[string]*countryStats{}

			for _, path := range storePaths {
				records, errRead := store.ReadRecords(path)
				if errRead != nil {
					slog.Error("Failed to read range store", slog.String("path", path), log.ErrAttr(errRead))

					return errRead
				}

				for _, record := range records {
					stats, found := perCountry[record.CountryCode]
					if !found {
						stats = &countryStats{}
						perCountry[record.CountryCode] = stats
					}

					stats.records++
					stats.addresses += cidr.Range{Start: record.Start, End: record.End}.Hosts()
				}
			}

			codes := make([]string, 0, len(perCountry))
			for code := range perCountry {
				codes = append(codes, code)
			}

			sort.Strings(codes)

			table := tablewriter.NewTable(os.Stdout)
			table.Header("Country", "Records", "Addresses")

			for _, code := range codes {
				stats := perCountry[code]

				if errAppend := table.Append([]string{
					code,
					humanize.Comma(stats.records),
					humanize.Comma(int64(stats.addresses)), //nolint:gosec
				}); errAppend != nil {
					slog.Error("Failed to append stats row", log.ErrAttr(errAppend))

					return errAppend
				}
			}

			if errRender := table.Render(); errRender != nil {
				slog.Error("Failed to render stats table", log.ErrAttr(errRender))

				return errRender
			}

			return nil
		},
	}

	cmd.Flags().StringSliceVarP(&storePaths, "input", "i", nil, "Range store paths, comma separated")
	_ = cmd.MarkFlagRequired("input")

	return cmd
}
