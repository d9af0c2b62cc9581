package dataset

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/transform"
)

// Frame holds a tabular dataset as raw cells. Cells keep their CSV string
// form so that missing markers and categorical values survive loading;
// numeric views are derived on demand.
type Frame struct {
	Columns []string
	Rows    [][]string

	index map[string]int
}

// LoadOptions controls CSV parsing.
type LoadOptions struct {
	// Encoding selects a legacy source encoding ("gbk", "latin1").
	// Empty means UTF-8.
	Encoding string
}

func NewFrame(columns []string, rows [][]string) (*Frame, error) {
	if len(columns) == 0 {
		return nil, errors.New("no columns")
	}
	for i, row := range rows {
		if len(row) != len(columns) {
			return nil, fmt.Errorf("row %d has %d cells, expected %d", i, len(row), len(columns))
		}
	}
	return &Frame{Columns: columns, Rows: rows, index: buildIndex(columns)}, nil
}

func buildIndex(columns []string) map[string]int {
	index := make(map[string]int, len(columns))
	for i, name := range columns {
		index[name] = i
	}
	return index
}

// Load reads a CSV file with a header row.
func Load(path string, opts LoadOptions) (*Frame, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return Read(bufio.NewReader(file), opts)
}

// Read parses CSV from r.
func Read(r io.Reader, opts LoadOptions) (*Frame, error) {
	decoded, err := decodeReader(r, opts.Encoding)
	if err != nil {
		return nil, err
	}

	reader := csv.NewReader(decoded)
	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	var rows [][]string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row %d: %w", len(rows)+1, err)
		}
		row := make([]string, len(record))
		copy(row, record)
		rows = append(rows, row)
	}
	return NewFrame(header, rows)
}

func decodeReader(r io.Reader, encoding string) (io.Reader, error) {
	switch encoding {
	case "":
		return r, nil
	case "gbk":
		return transform.NewReader(r, simplifiedchinese.GBK.NewDecoder()), nil
	case "latin1":
		return transform.NewReader(r, charmap.ISO8859_1.NewDecoder()), nil
	default:
		return nil, fmt.Errorf("unsupported encoding %q", encoding)
	}
}

func (f *Frame) NumRows() int {
	return len(f.Rows)
}

// ColumnIndex returns the position of a named column.
func (f *Frame) ColumnIndex(name string) (int, bool) {
	idx, ok := f.index[name]
	return idx, ok
}

// Column returns the raw cells of a named column.
func (f *Frame) Column(name string) ([]string, error) {
	idx, ok := f.index[name]
	if !ok {
		return nil, fmt.Errorf("column %q not found", name)
	}
	values := make([]string, len(f.Rows))
	for i, row := range f.Rows {
		values[i] = row[idx]
	}
	return values, nil
}

// Float returns a column parsed as float64, with NaN for missing or
// non-numeric cells.
func (f *Frame) Float(name string) ([]float64, error) {
	idx, ok := f.index[name]
	if !ok {
		return nil, fmt.Errorf("column %q not found", name)
	}
	values := make([]float64, len(f.Rows))
	for i, row := range f.Rows {
		values[i] = ParseCell(row[idx])
	}
	return values, nil
}

// Select returns a new frame containing the given rows, in order.
func (f *Frame) Select(indices []int) (*Frame, error) {
	rows := make([][]string, len(indices))
	for i, idx := range indices {
		if idx < 0 || idx >= len(f.Rows) {
			return nil, fmt.Errorf("row index %d out of range", idx)
		}
		rows[i] = f.Rows[idx]
	}
	return &Frame{Columns: f.Columns, Rows: rows, index: f.index}, nil
}

// IsMissing reports whether a cell is a missing-value marker.
func IsMissing(cell string) bool {
	switch cell {
	case "", "NA", "NaN", "#DIV/0!":
		return true
	}
	return false
}

// ParseCell converts a cell to float64, NaN when missing or non-numeric.
func ParseCell(cell string) float64 {
	if IsMissing(cell) {
		return math.NaN()
	}
	value, err := strconv.ParseFloat(cell, 64)
	if err != nil {
		return math.NaN()
	}
	return value
}
