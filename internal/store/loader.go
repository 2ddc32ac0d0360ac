package store

import (
	"context"
	"log/slog"
	"strings"

	"github.com/leighmacdonald/rirblock/pkg/cidr"
	"golang.org/x/sync/errgroup"
)

// CountryFilter is a set-membership predicate over 2-letter country codes.
// An empty filter accepts every record.
type CountryFilter map[string]struct{}

func NewCountryFilter(codes []string) CountryFilter {
	filter := CountryFilter{}

	for _, code := range codes {
		code = strings.ToLower(strings.TrimSpace(code))
		if code == "" {
			continue
		}

		filter[code] = struct{}{}
	}

	return filter
}

func (f CountryFilter) Match(code string) bool {
	if len(f) == 0 {
		return true
	}

	_, found := f[strings.ToLower(code)]

	return found
}

// LoadRanges pools the ranges from every store whose country code passes the
// filter. Stores are registry-independent so they load concurrently.
// Duplicate ranges are not eliminated; the aggregator is multiplicity
// insensitive.
func LoadRanges(ctx context.Context, paths []string, filter CountryFilter) ([]cidr.Range, error) {
	group, _ := errgroup.WithContext(ctx)
	perStore := make([][]cidr.Range, len(paths))

	for idx, path := range paths {
		idx, path := idx, path

		group.Go(func() error {
			records, errRead := ReadRecords(path)
			if errRead != nil {
				return errRead
			}

			ranges := make([]cidr.Range, 0, len(records))

			for _, record := range records {
				if !filter.Match(record.CountryCode) {
					continue
				}

				ranges = append(ranges, cidr.Range{Start: record.Start, End: record.End})
			}

			slog.Debug("Loaded range store",
				slog.String("path", path),
				slog.Int("total", len(records)),
				slog.Int("matched", len(ranges)))

			perStore[idx] = ranges

			return nil
		})
	}

	if errWait := group.Wait(); errWait != nil {
		return nil, errWait //nolint:wrapcheck
	}

	var pooled []cidr.Range
	for _, ranges := range perStore {
		pooled = append(pooled, ranges...)
	}

	return pooled, nil
}
