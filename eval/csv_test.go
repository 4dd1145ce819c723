package eval

import (
	"strings"
	"testing"
)

func TestLoadCSVFuzzyMatchesHeaders(t *testing.T) {
	csv := "Sr No, Question , Expected Answer\n1,What is Go?,A programming language\n2,What is Rust?,Another language\n"
	rows, err := LoadCSV(strings.NewReader(csv))
	if err != nil {
		t.Fatalf("LoadCSV() error = %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(rows))
	}
	if rows[0].Number != "1" || rows[0].Question != "What is Go?" || rows[0].ExpectedAnswer != "A programming language" {
		t.Errorf("row 0 = %+v", rows[0])
	}
}

func TestLoadCSVDefaultsNumberToRowIndexWithoutSerialColumn(t *testing.T) {
	csv := "input,output\nhello,world\n"
	rows, err := LoadCSV(strings.NewReader(csv))
	if err != nil {
		t.Fatalf("LoadCSV() error = %v", err)
	}
	if rows[0].Number != "1" {
		t.Errorf("Number = %q, want 1", rows[0].Number)
	}
}

func TestLoadCSVRejectsMissingColumns(t *testing.T) {
	csv := "foo,bar\n1,2\n"
	if _, err := LoadCSV(strings.NewReader(csv)); err == nil {
		t.Fatal("expected error for missing input/output columns")
	}
}

func TestLoadCSVSkipsBlankRows(t *testing.T) {
	csv := "input,output\nhello,world\n,\n"
	rows, err := LoadCSV(strings.NewReader(csv))
	if err != nil {
		t.Fatalf("LoadCSV() error = %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("got %d rows, want 1", len(rows))
	}
}

func TestLoadCSVRejectsPartialRow(t *testing.T) {
	csv := "input,output\nhello,\n"
	if _, err := LoadCSV(strings.NewReader(csv)); err == nil {
		t.Fatal("expected error for row missing one of input/output")
	}
}
