package cmd

import (
	"log/slog"

	"github.com/dustin/go-humanize"
	"github.com/leighmacdonald/rirblock/internal/store"
	"github.com/leighmacdonald/rirblock/pkg/cidr"
	"github.com/leighmacdonald/rirblock/pkg/log"
	"github.com/spf13/cobra"
)

// consolidateCmd merges one or more range stores into a minimal CIDR list.
func consolidateCmd() *cobra.Command {
	var (
		storePaths   []string
		countryCodes []string
		outputPath   string
	)

	cmd := &cobra.Command{
		Use:   "consolidate",
		Short: "Merge range stores into a minimal CIDR block list",
		Long: `Reads one or more CSV range stores, keeps the rows whose country code is in
the requested set (all rows when no codes are given), merges overlapping and
adjacent ranges and writes the smallest covering set of CIDR blocks, one per
line, in ascending address order.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, cleanup, errSetup := setup(cmd.Context())
			if errSetup != nil {
				return errSetup
			}

			defer cleanup()

			filter := store.NewCountryFilter(countryCodes)

			ranges, errLoad := store.LoadRanges(cmd.Context(), storePaths, filter)
			if errLoad != nil {
				slog.Error("Failed to load range stores", log.ErrAttr(errLoad))

				return errLoad
			}

			blocks := cidr.Aggregate(ranges)

			if errWrite := cidr.WriteFile(outputPath, blocks); errWrite != nil {
				slog.Error("Failed to write block list", slog.String("path", outputPath), log.ErrAttr(errWrite))

				return errWrite
			}

			var addresses uint64
			for _, block := range blocks {
				addresses += block.Size()
			}

			slog.Info("Wrote consolidated block list",
				slog.String("path", outputPath),
				slog.String("ranges", humanize.Comma(int64(len(ranges)))),
				slog.String("blocks", humanize.Comma(int64(len(blocks)))),
				slog.String("addresses", humanize.Comma(int64(addresses)))) //nolint:gosec

			return nil
		},
	}

	cmd.Flags().StringSliceVarP(&storePaths, "input", "i", nil, "Range store paths, comma separated")
	cmd.Flags().StringSliceVarP(&countryCodes, "countries", "c", nil, "Country codes to keep, comma separated (empty keeps all)")
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Path of the block list to write")
	_ = cmd.MarkFlagRequired("input")
	_ = cmd.MarkFlagRequired("output")

	return cmd
}
