package dataset

import (
	"math"
	"strings"
	"testing"
)

const sampleCSV = `id,roll,pitch,kurtosis_roll,classe
1,1.5,0.2,NA,A
2,2.5,0.4,#DIV/0!,B
3,3.5,,NA,A
`

func TestReadFrame(t *testing.T) {
	frame, err := Read(strings.NewReader(sampleCSV), LoadOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if frame.NumRows() != 3 {
		t.Fatalf("expected 3 rows, got %d", frame.NumRows())
	}
	if len(frame.Columns) != 5 {
		t.Fatalf("expected 5 columns, got %d", len(frame.Columns))
	}

	roll, err := frame.Float("roll")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if roll[0] != 1.5 || roll[2] != 3.5 {
		t.Fatalf("unexpected roll values: %v", roll)
	}

	pitch, err := frame.Float("pitch")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !math.IsNaN(pitch[2]) {
		t.Fatalf("expected NaN for empty cell, got %v", pitch[2])
	}

	kurtosis, err := frame.Float("kurtosis_roll")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i, v := range kurtosis {
		if !math.IsNaN(v) {
			t.Fatalf("expected NaN at row %d, got %v", i, v)
		}
	}
}

func TestReadRejectsRaggedRows(t *testing.T) {
	_, err := Read(strings.NewReader("a,b\n1,2,3\n"), LoadOptions{})
	if err == nil {
		t.Fatal("expected error for ragged row")
	}
}

func TestFrameSelect(t *testing.T) {
	frame, err := Read(strings.NewReader(sampleCSV), LoadOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	subset, err := frame.Select([]int{2, 0})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if subset.NumRows() != 2 {
		t.Fatalf("expected 2 rows, got %d", subset.NumRows())
	}
	ids, err := subset.Column("id")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ids[0] != "3" || ids[1] != "1" {
		t.Fatalf("unexpected ids: %v", ids)
	}

	if _, err := frame.Select([]int{99}); err == nil {
		t.Fatal("expected error for out-of-range index")
	}
}

func TestIsMissing(t *testing.T) {
	tests := []struct {
		cell string
		want bool
	}{
		{"", true},
		{"NA", true},
		{"NaN", true},
		{"#DIV/0!", true},
		{"0", false},
		{"1.25", false},
		{"yes", false},
	}
	for _, tt := range tests {
		if got := IsMissing(tt.cell); got != tt.want {
			t.Errorf("IsMissing(%q) = %v, want %v", tt.cell, got, tt.want)
		}
	}
}

func TestUnsupportedEncoding(t *testing.T) {
	_, err := Read(strings.NewReader(sampleCSV), LoadOptions{Encoding: "utf-16"})
	if err == nil {
		t.Fatal("expected error for unsupported encoding")
	}
}
