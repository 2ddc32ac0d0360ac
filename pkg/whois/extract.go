package whois

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/leighmacdonald/rirblock/pkg/log"
	"github.com/leighmacdonald/rirblock/pkg/util"
)

const (
	fieldInetnum = "inetnum"
	fieldCountry = "country"
)

var (
	ErrOpenFile         = errors.New("failed to open dump file for reading")
	ErrReadFile         = errors.New("failed to read dump file")
	ErrMissingInetnum   = errors.New("record has no inetnum field")
	ErrMalformedInetnum = errors.New("failed to parse inetnum range")
	ErrRangeOrder       = errors.New("inetnum start address exceeds end address")
	ErrInvalidCountry   = errors.New("invalid or missing country code")
)

// InetnumRecord is a validated address allocation. Start and End are
// inclusive big-endian address values with Start <= End, CountryCode is
// always 2 lowercase letters.
type InetnumRecord struct {
	Start       uint32
	End         uint32
	CountryCode string
}

func isAlpha(value string) bool {
	for _, char := range value {
		if (char < 'a' || char > 'z') && (char < 'A' || char > 'Z') {
			return false
		}
	}

	return true
}

// ExtractInetnum projects the inetnum and country fields out of a raw
// record, normalizing the country code to lowercase.
func ExtractInetnum(record Record) (InetnumRecord, error) {
	rangeValue, found := record[fieldInetnum]
	if !found {
		return InetnumRecord{}, ErrMissingInetnum
	}

	bounds := strings.Split(rangeValue, "-")
	if len(bounds) != 2 {
		return InetnumRecord{}, ErrMalformedInetnum
	}

	start, errStart := util.ParseIP4(strings.TrimSpace(bounds[0]))
	if errStart != nil {
		return InetnumRecord{}, errors.Join(errStart, ErrMalformedInetnum)
	}

	end, errEnd := util.ParseIP4(strings.TrimSpace(bounds[1]))
	if errEnd != nil {
		return InetnumRecord{}, errors.Join(errEnd, ErrMalformedInetnum)
	}

	if start > end {
		return InetnumRecord{}, ErrRangeOrder
	}

	country := strings.TrimSpace(record[fieldCountry])
	if len(country) != 2 || !isAlpha(country) {
		return InetnumRecord{}, ErrInvalidCountry
	}

	return InetnumRecord{Start: start, End: end, CountryCode: strings.ToLower(country)}, nil
}

// Stats summarize a completed extraction run.
type Stats struct {
	Valid        int64
	Skipped      int64
	SkippedLines int64
}

// BatchFunc receives successive batches of validated records.
type BatchFunc func(ctx context.Context, batch []InetnumRecord) error

// ReadInetnumRecords streams the dump at path, extracting validated records
// and handing them off in batches of batchSize. Malformed records are
// skipped and counted; the failed batch callback or an unreadable input
// aborts the run.
func ReadInetnumRecords(ctx context.Context, path string, batchSize int, onBatch BatchFunc) (Stats, error) {
	dumpFile, errOpen := os.Open(path)
	if errOpen != nil {
		return Stats{}, errors.Join(errOpen, ErrOpenFile)
	}

	defer log.Closer(dumpFile)

	var (
		scanner = NewScanner(dumpFile)
		batch   = make([]InetnumRecord, 0, batchSize)
		stats   Stats
		started = time.Now()
	)

	for scanner.Scan() {
		record, errExtract := ExtractInetnum(scanner.Record())
		if errExtract != nil {
			stats.Skipped++

			slog.Debug("Skipped malformed record",
				slog.String("inetnum", scanner.Record()[fieldInetnum]), log.ErrAttr(errExtract))

			continue
		}

		stats.Valid++

		batch = append(batch, record)
		if len(batch) == batchSize {
			if err := onBatch(ctx, batch); err != nil {
				return stats, err
			}

			batch = make([]InetnumRecord, 0, batchSize)
		}
	}

	stats.SkippedLines = scanner.SkippedLines()

	if errScan := scanner.Err(); errScan != nil {
		return stats, errors.Join(errScan, ErrReadFile)
	}

	if len(batch) > 0 {
		if err := onBatch(ctx, batch); err != nil {
			return stats, err
		}
	}

	slog.Info("Inetnum extraction complete",
		slog.Int64("valid", stats.Valid),
		slog.Int64("skipped", stats.Skipped),
		slog.Int64("skipped_lines", stats.SkippedLines),
		slog.Duration("duration", time.Since(started)))

	return stats, nil
}
