// Package store persists extracted inetnum records as CSV range stores, one
// row per record: start_ip,end_ip,country_code in dotted-quad form.
package store

import (
	"encoding/csv"
	"errors"
	"io"
	"os"

	"github.com/leighmacdonald/rirblock/pkg/log"
	"github.com/leighmacdonald/rirblock/pkg/util"
	"github.com/leighmacdonald/rirblock/pkg/whois"
)

var (
	ErrOpenStore  = errors.New("failed to open range store")
	ErrWriteStore = errors.New("failed to write range store rows")
	ErrReadStore  = errors.New("failed to read range store rows")
)

// Writer appends records to a CSV range store. Rows reach the file one
// batch at a time, so an interrupted run loses at most the batch in
// flight, never the whole file.
type Writer struct {
	file   *os.File
	writer *csv.Writer
}

func NewWriter(path string) (*Writer, error) {
	outFile, errCreate := os.Create(path)
	if errCreate != nil {
		return nil, errors.Join(errCreate, ErrOpenStore)
	}

	return &Writer{file: outFile, writer: csv.NewWriter(outFile)}, nil
}

// WriteBatch appends one batch of records and flushes it to disk.
func (w *Writer) WriteBatch(records []whois.InetnumRecord) error {
	for _, record := range records {
		row := []string{
			util.Int2IP(record.Start).String(),
			util.Int2IP(record.End).String(),
			record.CountryCode,
		}

		if errWrite := w.writer.Write(row); errWrite != nil {
			return errors.Join(errWrite, ErrWriteStore)
		}
	}

	w.writer.Flush()

	if errFlush := w.writer.Error(); errFlush != nil {
		return errors.Join(errFlush, ErrWriteStore)
	}

	if errSync := w.file.Sync(); errSync != nil {
		return errors.Join(errSync, ErrWriteStore)
	}

	return nil
}

func (w *Writer) Close() error {
	w.writer.Flush()

	if errFlush := w.writer.Error(); errFlush != nil {
		_ = w.file.Close()

		return errors.Join(errFlush, ErrWriteStore)
	}

	return w.file.Close() //nolint:wrapcheck
}

// ReadRecords yields the store rows back in file order. The extractor's
// guarantees are trusted here; only row shape and address syntax are
// checked, and a violation means the store itself is corrupt.
func ReadRecords(path string) ([]whois.InetnumRecord, error) {
	storeFile, errOpen := os.Open(path)
	if errOpen != nil {
		return nil, errors.Join(errOpen, ErrOpenStore)
	}

	defer log.Closer(storeFile)

	reader := csv.NewReader(storeFile)
	reader.FieldsPerRecord = 3

	var records []whois.InetnumRecord

	for {
		row, errRead := reader.Read()
		if errors.Is(errRead, io.EOF) {
			return records, nil
		}

		if errRead != nil {
			return nil, errors.Join(errRead, ErrReadStore)
		}

		start, errStart := util.ParseIP4(row[0])
		if errStart != nil {
			return nil, errors.Join(errStart, ErrReadStore)
		}

		end, errEnd := util.ParseIP4(row[1])
		if errEnd != nil {
			return nil, errors.Join(errEnd, ErrReadStore)
		}

		records = append(records, whois.InetnumRecord{Start: start, End: end, CountryCode: row[2]})
	}
}
