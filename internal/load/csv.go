// Package load reads tabular files into header and rows ready for
// store.LoadRows.
package load

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// CSV reads CSV records from r. The first record is the header; header
// names are trimmed and NFC normalized so that visually identical names
// written with different Unicode forms select the same column. Records may
// have fewer fields than the header. Blank trailing lines are ignored.
func CSV(r io.Reader) ([]string, [][]any, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	record, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil, fmt.Errorf("read csv: no header")
	}
	if err != nil {
		return nil, nil, fmt.Errorf("read csv header: %w", err)
	}

	header := make([]string, len(record))
	for i, name := range record {
		header[i] = norm.NFC.String(strings.TrimSpace(name))
	}

	var rows [][]any
	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("read csv: %w", err)
		}
		if len(record) > len(header) {
			line, _ := cr.FieldPos(0)
			return nil, nil, fmt.Errorf("read csv: line %d has %d fields, header has %d", line, len(record), len(header))
		}
		row := make([]any, len(record))
		for i, field := range record {
			row[i] = field
		}
		rows = append(rows, row)
	}
	return header, rows, nil
}

// CSVFile reads the CSV file at path.
func CSVFile(path string) ([]string, [][]any, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	header, rows, err := CSV(f)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", path, err)
	}
	return header, rows, nil
}
