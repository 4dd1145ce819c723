package eval

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode"

	"github.com/krira-ai/ragcore"
)

// Row is one labeled example from an evaluation CSV.
type Row struct {
	Number         string
	Question       string
	ExpectedAnswer string
}

var serialHeaders = []string{"srno", "srnumber", "serialnumber", "serial", "id", "number", "sr"}

var questionHeaders = []string{"input", "question", "prompt", "query"}

var answerHeaders = []string{"output", "expectedanswer", "answer", "groundtruth", "expected"}

// normalizeHeader lowercases and strips every non-alphanumeric rune,
// matching original_source's _normalize_header.
func normalizeHeader(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// firstMatch returns the original header text for the first candidate
// (in priority order) present among the CSV's normalized headers.
func firstMatch(headers map[string]string, candidates []string) (string, bool) {
	for _, c := range candidates {
		if original, ok := headers[c]; ok {
			return original, true
		}
	}
	return "", false
}

// LoadCSV parses a labeled evaluation CSV, fuzzy-matching the input
// and output columns case/punctuation-insensitively, and recognizing
// an optional serial-number column.
func LoadCSV(r io.Reader) ([]Row, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return nil, ragcore.NewError(ragcore.KindValidation, "evaluation CSV is empty")
	}
	if err != nil {
		return nil, ragcore.Wrap(ragcore.KindValidation, "failed to read evaluation CSV header", err)
	}

	normalized := make(map[string]string, len(header))
	for _, h := range header {
		normalized[normalizeHeader(h)] = h
	}
	index := make(map[string]int, len(header))
	for i, h := range header {
		index[h] = i
	}

	questionCol, ok := firstMatch(normalized, questionHeaders)
	if !ok {
		return nil, ragcore.NewError(ragcore.KindValidation, "evaluation CSV must include an input/question column")
	}
	answerCol, ok := firstMatch(normalized, answerHeaders)
	if !ok {
		return nil, ragcore.NewError(ragcore.KindValidation, "evaluation CSV must include an output/answer column")
	}
	serialCol, hasSerial := firstMatch(normalized, serialHeaders)

	var rows []Row
	rowNum := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, ragcore.Wrap(ragcore.KindValidation, "failed to read evaluation CSV row", err)
		}
		rowNum++

		question := strings.TrimSpace(field(record, index[questionCol]))
		answer := strings.TrimSpace(field(record, index[answerCol]))
		if question == "" && answer == "" {
			continue
		}
		if question == "" || answer == "" {
			return nil, ragcore.NewError(ragcore.KindValidation, fmt.Sprintf("row %d must include both input and output values", rowNum))
		}

		number := strconv.Itoa(rowNum)
		if hasSerial {
			if s := strings.TrimSpace(field(record, index[serialCol])); s != "" {
				number = s
			}
		}

		rows = append(rows, Row{Number: number, Question: question, ExpectedAnswer: answer})
	}

	if len(rows) == 0 {
		return nil, ragcore.NewError(ragcore.KindValidation, "evaluation CSV contains no usable rows")
	}
	return rows, nil
}

func field(record []string, i int) string {
	if i < 0 || i >= len(record) {
		return ""
	}
	return record[i]
}
