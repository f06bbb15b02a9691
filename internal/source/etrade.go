// Package source reads broker exports into raw journal records.
package source

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/gocarina/gocsv"

	"github.com/alanyoungcy/optjournal/internal/domain"
)

// ErrNoHeader is returned when an export has no TransactionDate header row.
var ErrNoHeader = errors.New("source: header row not found")

const headerPrefix = "TransactionDate"

// ParseETrade decodes an E*TRADE transaction export. Account preamble lines
// before the header are skipped, and the table ends at the first blank line
// so the disclaimer footer is never mistaken for data.
func ParseETrade(r io.Reader) ([]domain.RawRecord, error) {
	table, err := extractTable(r)
	if err != nil {
		return nil, err
	}

	reader := csv.NewReader(bytes.NewReader(table))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	var records []domain.RawRecord
	if err := gocsv.UnmarshalCSV(reader, &records); err != nil {
		return nil, fmt.Errorf("source: decode etrade csv: %w", err)
	}
	return records, nil
}

func extractTable(r io.Reader) ([]byte, error) {
	var (
		buf     bytes.Buffer
		inTable bool
	)
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	for sc.Scan() {
		line := strings.TrimPrefix(sc.Text(), "\ufeff")
		if !inTable {
			if strings.HasPrefix(strings.TrimSpace(line), headerPrefix) {
				inTable = true
				buf.WriteString(strings.TrimSpace(line))
				buf.WriteByte('\n')
			}
			continue
		}
		if strings.Trim(line, " ,\t\r") == "" {
			break
		}
		buf.WriteString(line)
		buf.WriteByte('\n')
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("source: read export: %w", err)
	}
	if !inTable {
		return nil, ErrNoHeader
	}
	return buf.Bytes(), nil
}
