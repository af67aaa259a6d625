// Package tabular decodes uploaded spreadsheets into header + row form.
package tabular

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// ErrUnsupportedFormat is returned for files that are neither CSV nor XLSX.
var ErrUnsupportedFormat = errors.New("unsupported spreadsheet format")

// Sheet is a decoded spreadsheet. Every row has exactly len(Headers) cells.
type Sheet struct {
	Headers []string
	Rows    [][]string
}

// Format returns the decoder name for filename, or "" when unsupported.
func Format(filename string) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv":
		return "csv"
	case ".xlsx", ".xlsm":
		return "xlsx"
	default:
		return ""
	}
}

// Parse decodes r according to the extension of filename. The first row is the header row.
func Parse(filename string, r io.Reader) (Sheet, error) {
	var (
		records [][]string
		err     error
	)
	switch Format(filename) {
	case "csv":
		records, err = readCSV(r)
	case "xlsx":
		records, err = readXLSX(r)
	default:
		return Sheet{}, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(filename))
	}
	if err != nil {
		return Sheet{}, err
	}
	return build(records), nil
}

func readCSV(r io.Reader) ([][]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	if len(records) > 0 && len(records[0]) > 0 {
		records[0][0] = strings.TrimPrefix(records[0][0], "\ufeff")
	}
	return records, nil
}

func readXLSX(r io.Reader) ([][]string, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read xlsx: %w", err)
	}
	book, err := excelize.OpenReader(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", err)
	}
	defer book.Close() //nolint:errcheck

	sheets := book.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil
	}
	rows, err := book.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read xlsx sheet %s: %w", sheets[0], err)
	}
	return rows, nil
}

func build(records [][]string) Sheet {
	sheet := Sheet{Headers: []string{}, Rows: [][]string{}}
	if len(records) == 0 {
		return sheet
	}
	for _, h := range records[0] {
		sheet.Headers = append(sheet.Headers, strings.TrimSpace(h))
	}
	width := len(sheet.Headers)
	for _, record := range records[1:] {
		if blank(record) {
			continue
		}
		row := make([]string, width)
		for i := 0; i < width && i < len(record); i++ {
			row[i] = strings.TrimSpace(record[i])
		}
		sheet.Rows = append(sheet.Rows, row)
	}
	return sheet
}

func blank(record []string) bool {
	for _, cell := range record {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
