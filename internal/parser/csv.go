// Package parser reads tabular input files into row maps.
package parser

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/7610venki/vehicle-data-mapper/internal/model"
)

// ParseFile reads a CSV file and returns its header row plus one Row per
// non-empty data row.
func ParseFile(path string) ([]string, []model.Row, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	headers, rows, err := Parse(f)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return headers, rows, nil
}

// Parse reads CSV data from r. The first record is the header; fully empty
// data rows are dropped.
func Parse(r io.Reader) ([]string, []model.Row, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	headers, err := reader.Read()
	if err == io.EOF {
		return nil, nil, fmt.Errorf("file is empty")
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read header: %w", err)
	}

	// Excel exports often prefix the first header with a UTF-8 BOM.
	if len(headers) > 0 {
		headers[0] = strings.TrimPrefix(headers[0], "\ufeff")
	}
	for i := range headers {
		headers[i] = strings.TrimSpace(headers[i])
	}

	var rows []model.Row
	for line := 2; ; line++ {
		record, readErr := reader.Read()
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			return nil, nil, fmt.Errorf("line %d: %w", line, readErr)
		}

		row := make(model.Row, len(headers))
		empty := true
		for i, h := range headers {
			if h == "" || i >= len(record) {
				continue
			}
			value := strings.TrimSpace(record[i])
			row[h] = value
			if value != "" {
				empty = false
			}
		}
		if !empty {
			rows = append(rows, row)
		}
	}

	return headers, rows, nil
}

// RequireColumns verifies that every named column exists in headers.
func RequireColumns(headers []string, columns ...string) error {
	present := make(map[string]bool, len(headers))
	for _, h := range headers {
		present[h] = true
	}
	for _, c := range columns {
		if c == "" {
			continue
		}
		if !present[c] {
			return fmt.Errorf("column %q not found (available: %s)", c, strings.Join(headers, ", "))
		}
	}
	return nil
}
