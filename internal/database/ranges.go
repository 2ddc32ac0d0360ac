package database

import (
	"context"
	"errors"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/leighmacdonald/rirblock/pkg/whois"
)

const tableInetnumRange = "inetnum_range"

var ErrInsertRanges = errors.New("failed to insert range batch")

// One statement per entry, pgx runs extended protocol queries individually.
var schemaInetnumRange = []string{
	`CREATE TABLE IF NOT EXISTS inetnum_range (
		inetnum_range_id bigint GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
		start_ip bigint NOT NULL,
		end_ip bigint NOT NULL CHECK (end_ip >= start_ip),
		country_code varchar(2) NOT NULL,
		created_on timestamptz NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_inetnum_range_country ON inetnum_range (country_code)`,
}

// CreateSchema ensures the range table exists. The single-table schema is
// created in place rather than through versioned migrations.
func (db *Database) CreateSchema(ctx context.Context) error {
	for _, statement := range schemaInetnumRange {
		if errExec := db.Exec(ctx, statement); errExec != nil {
			return errExec
		}
	}

	return nil
}

// TruncateRanges clears any rows from a previous run of the same registry.
func (db *Database) TruncateRanges(ctx context.Context) error {
	query, _, errQuery := sq.Delete(tableInetnumRange).ToSql()
	if errQuery != nil {
		return errors.Join(errQuery, ErrCreateQuery)
	}

	return db.Exec(ctx, query)
}

// InsertRanges bulk-copies one extraction batch into the range table.
func (db *Database) InsertRanges(ctx context.Context, records []whois.InetnumRecord) error {
	rows := make([][]any, 0, len(records))

	for _, record := range records {
		rows = append(rows, []any{int64(record.Start), int64(record.End), record.CountryCode})
	}

	_, errCopy := db.conn.CopyFrom(ctx,
		pgx.Identifier{tableInetnumRange},
		[]string{"start_ip", "end_ip", "country_code"},
		pgx.CopyFromRows(rows))
	if errCopy != nil {
		return errors.Join(DBErr(errCopy), ErrInsertRanges)
	}

	return nil
}

// RangeCount returns the stored row count, optionally limited to one country.
func (db *Database) RangeCount(ctx context.Context, countryCode string) (int64, error) {
	builder := db.Builder().Select("count(inetnum_range_id)").From(tableInetnumRange)
	if countryCode != "" {
		builder = builder.Where(sq.Eq{"country_code": countryCode})
	}

	return db.GetCount(ctx, builder)
}
