package loader

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/krira-ai/ragcore"
	"github.com/krira-ai/ragcore/sanitize"
)

// loadCSV reads a CSV file and converts each data row into a
// structured text row of the form:
//
//	Row <i>: <header_1>: <v1>; <header_2>: <v2>; ...
//
// Empty cells are omitted; blank headers synthesize column_<n>.
func loadCSV(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, ragcore.Wrap(ragcore.KindInternal, "failed to open CSV file", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	var rawRows [][]string
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, ragcore.Wrap(ragcore.KindUnprocessable, "malformed CSV file", err)
		}
		row := make([]string, len(record))
		nonEmpty := false
		for i, cell := range record {
			row[i] = strings.TrimSpace(cell)
			if row[i] != "" {
				nonEmpty = true
			}
		}
		if nonEmpty {
			rawRows = append(rawRows, row)
		}
	}

	if len(rawRows) == 0 {
		return nil, ragcore.NewError(ragcore.KindUnprocessable, "CSV file is empty")
	}

	headersRaw := rawRows[0]
	headers := make([]string, len(headersRaw))
	for i, h := range headersRaw {
		h = strings.TrimSpace(h)
		if h == "" {
			h = fmt.Sprintf("column_%d", i+1)
		}
		headers[i] = h
	}

	var structured []string
	for idx, row := range rawRows[1:] {
		var fields []string
		for col, value := range row {
			header := fmt.Sprintf("column_%d", col+1)
			if col < len(headers) {
				header = headers[col]
			}
			value = strings.TrimSpace(value)
			if value == "" {
				continue
			}
			fields = append(fields, fmt.Sprintf("%s: %s", header, value))
		}
		if len(fields) == 0 {
			continue
		}
		rowText := fmt.Sprintf("Row %d: %s", idx+1, strings.Join(fields, "; "))
		structured = append(structured, sanitize.Text(rowText))
	}

	if len(structured) == 0 {
		return nil, ragcore.NewError(ragcore.KindUnprocessable, "CSV file does not contain meaningful rows")
	}
	return structured, nil
}
