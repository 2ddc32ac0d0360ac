package whois_test

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/leighmacdonald/rirblock/pkg/whois"
	"github.com/stretchr/testify/require"
)

const sampleDump = `% This is the RIPE Database query service.
% The objects are in RPSL format.

inetnum:        1.0.0.0 - 1.0.0.255
netname:        APNIC-LABS
descr:          APNIC and Cloudflare DNS Resolver project
                Routed globally by AS13335/Cloudflare
country:        AU
admin-c:        AIC3-AP
source:         APNIC

# comment inside the stream
inetnum:        1.0.16.0 - 1.0.31.255
netname:        ICSCNET
country:        JP
source:         APNIC

not a field line at all
inetnum:        1.0.32.0 - 1.0.63.255
country:        CN
source:         APNIC
`

func TestScanner(t *testing.T) {
	scanner := whois.NewScanner(strings.NewReader(sampleDump))

	require.True(t, scanner.Scan())
	first := scanner.Record()
	require.Equal(t, "1.0.0.0 - 1.0.0.255", first["inetnum"])
	require.Equal(t, "AU", first["country"])
	require.Equal(t, "APNIC and Cloudflare DNS Resolver project Routed globally by AS13335/Cloudflare",
		first["descr"])

	require.True(t, scanner.Scan())
	require.Equal(t, "JP", scanner.Record()["country"])

	require.True(t, scanner.Scan())
	require.Equal(t, "CN", scanner.Record()["country"])

	require.False(t, scanner.Scan())
	require.NoError(t, scanner.Err())
	require.Equal(t, int64(1), scanner.SkippedLines())
}

func TestScannerRepeatedField(t *testing.T) {
	scanner := whois.NewScanner(strings.NewReader("inetnum: 1.0.0.0 - 1.0.0.3\ncountry: NL\ncountry: EU\n"))

	require.True(t, scanner.Scan())
	require.Equal(t, "NL\nEU", scanner.Record()["country"])

	// Multi-valued country no longer parses as a 2-letter code.
	_, errExtract := whois.ExtractInetnum(scanner.Record())
	require.ErrorIs(t, errExtract, whois.ErrInvalidCountry)
}

func TestExtractInetnum(t *testing.T) {
	record, errExtract := whois.ExtractInetnum(whois.Record{
		"inetnum": "10.0.0.0 - 10.0.0.255",
		"country": "CN",
	})
	require.NoError(t, errExtract)
	require.Equal(t, whois.InetnumRecord{Start: 0x0a000000, End: 0x0a0000ff, CountryCode: "cn"}, record)
}

func TestExtractInetnumErrors(t *testing.T) {
	cases := []struct {
		name     string
		record   whois.Record
		expected error
	}{
		{"missing inetnum", whois.Record{"country": "CN"}, whois.ErrMissingInetnum},
		{"no separator", whois.Record{"inetnum": "10.0.0.0 10.0.0.255", "country": "CN"}, whois.ErrMalformedInetnum},
		{"bad start", whois.Record{"inetnum": "10.0.0 - 10.0.0.255", "country": "CN"}, whois.ErrMalformedInetnum},
		{"bad end", whois.Record{"inetnum": "10.0.0.0 - 10.0.0.999", "country": "CN"}, whois.ErrMalformedInetnum},
		{"inverted", whois.Record{"inetnum": "10.0.1.0 - 10.0.0.0", "country": "CN"}, whois.ErrRangeOrder},
		{"missing country", whois.Record{"inetnum": "10.0.0.0 - 10.0.0.255"}, whois.ErrInvalidCountry},
		{"long country", whois.Record{"inetnum": "10.0.0.0 - 10.0.0.255", "country": "CHN"}, whois.ErrInvalidCountry},
		{"numeric country", whois.Record{"inetnum": "10.0.0.0 - 10.0.0.255", "country": "C1"}, whois.ErrInvalidCountry},
	}

	for _, testCase := range cases {
		t.Run(testCase.name, func(t *testing.T) {
			_, errExtract := whois.ExtractInetnum(testCase.record)
			require.ErrorIs(t, errExtract, testCase.expected)
		})
	}
}

func TestReadInetnumRecordsSkipSafety(t *testing.T) {
	dump := `inetnum:  10.0.0.0 - 10.0.0.255
country:  CN

inetnum:  10.0.1.0 - broken
country:  CN
`

	path := filepath.Join(t.TempDir(), "test.db.inetnum")
	require.NoError(t, os.WriteFile(path, []byte(dump), 0o600))

	var collected []whois.InetnumRecord

	stats, errRead := whois.ReadInetnumRecords(context.Background(), path, 100,
		func(_ context.Context, batch []whois.InetnumRecord) error {
			collected = append(collected, batch...)

			return nil
		})

	require.NoError(t, errRead)
	require.Equal(t, int64(1), stats.Valid)
	require.Equal(t, int64(1), stats.Skipped)
	require.Len(t, collected, 1)
	require.Equal(t, "cn", collected[0].CountryCode)
}

func TestReadInetnumRecordsBatching(t *testing.T) {
	var builder strings.Builder
	for i := 0; i < 5; i++ {
		builder.WriteString(fmt.Sprintf("inetnum: 10.0.%d.0 - 10.0.%d.255\ncountry: RU\n\n", i, i))
	}

	path := filepath.Join(t.TempDir(), "test.db.inetnum")
	require.NoError(t, os.WriteFile(path, []byte(builder.String()), 0o600))

	var batchSizes []int

	stats, errRead := whois.ReadInetnumRecords(context.Background(), path, 2,
		func(_ context.Context, batch []whois.InetnumRecord) error {
			batchSizes = append(batchSizes, len(batch))

			return nil
		})

	require.NoError(t, errRead)
	require.Equal(t, int64(5), stats.Valid)
	require.Equal(t, []int{2, 2, 1}, batchSizes)
}

func TestReadInetnumRecordsMissingFile(t *testing.T) {
	_, errRead := whois.ReadInetnumRecords(context.Background(), filepath.Join(t.TempDir(), "nope"), 10,
		func(_ context.Context, _ []whois.InetnumRecord) error { return nil })
	require.ErrorIs(t, errRead, whois.ErrOpenFile)
}
