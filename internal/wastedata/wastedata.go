// Package wastedata reads waste acceptance records from CSV files.
package wastedata

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/rshade/landgem/internal/landgem"
)

const (
	// DefaultYearColumn is the header of the acceptance year column.
	DefaultYearColumn = "year"

	// DefaultMassColumn is the header of the accepted mass column (Mg).
	DefaultMassColumn = "waste_mg"
)

// ErrUnsupportedFormat is returned for files that are not CSV.
var ErrUnsupportedFormat = errors.New("unsupported file format")

// Columns names the CSV headers holding the year and mass of each record.
type Columns struct {
	Year string
	Mass string
}

// DefaultColumns returns the year/waste_mg column pair.
func DefaultColumns() Columns {
	return Columns{Year: DefaultYearColumn, Mass: DefaultMassColumn}
}

// ReadCSV reads a single-stream waste history. Lines starting with '#' are
// ignored, as are rows whose mass cell is empty.
func ReadCSV(r io.Reader, cols Columns) (landgem.WasteHistory, error) {
	if cols.Year == "" {
		cols.Year = DefaultYearColumn
	}
	if cols.Mass == "" {
		cols.Mass = DefaultMassColumn
	}

	t, err := readTable(r)
	if err != nil {
		return nil, err
	}
	yearIdx, err := t.column(cols.Year)
	if err != nil {
		return nil, err
	}
	massIdx, err := t.column(cols.Mass)
	if err != nil {
		return nil, err
	}

	var years []int
	var masses []float64
	for i, row := range t.rows {
		year, mass, ok, err := parseRow(row, yearIdx, massIdx)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", t.lines[i], err)
		}
		if !ok {
			continue
		}
		years = append(years, year)
		masses = append(masses, mass)
	}

	history, err := landgem.NewWasteHistory(years, masses)
	if err != nil {
		return nil, fmt.Errorf("waste data: %w", err)
	}
	return history, nil
}

// ReadMultiStreamCSV reads one history per stream from a table that has a
// shared year column and one mass column per stream. streamColumns maps
// stream name to column header.
func ReadMultiStreamCSV(r io.Reader, yearColumn string, streamColumns map[string]string) (map[string]landgem.WasteHistory, error) {
	if yearColumn == "" {
		yearColumn = DefaultYearColumn
	}
	if len(streamColumns) == 0 {
		return nil, errors.New("no stream columns configured")
	}

	t, err := readTable(r)
	if err != nil {
		return nil, err
	}
	yearIdx, err := t.column(yearColumn)
	if err != nil {
		return nil, err
	}

	data := make(map[string]landgem.WasteHistory, len(streamColumns))
	streams := make([]string, 0, len(streamColumns))
	for stream := range streamColumns {
		streams = append(streams, stream)
	}
	slices.Sort(streams)
	for _, stream := range streams {
		column := streamColumns[stream]
		massIdx, err := t.column(column)
		if err != nil {
			return nil, fmt.Errorf("stream %q: %w", stream, err)
		}

		var years []int
		var masses []float64
		for i, row := range t.rows {
			year, mass, ok, err := parseRow(row, yearIdx, massIdx)
			if err != nil {
				return nil, fmt.Errorf("stream %q line %d: %w", stream, t.lines[i], err)
			}
			if !ok {
				continue
			}
			years = append(years, year)
			masses = append(masses, mass)
		}

		history, err := landgem.NewWasteHistory(years, masses)
		if err != nil {
			return nil, fmt.Errorf("stream %q: %w", stream, err)
		}
		data[stream] = history
	}
	return data, nil
}

// LoadFile opens path and reads it with ReadCSV.
func LoadFile(path string, cols Columns) (landgem.WasteHistory, error) {
	f, err := openCSV(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	history, err := ReadCSV(f, cols)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return history, nil
}

// LoadMultiStreamFile opens path and reads it with ReadMultiStreamCSV.
func LoadMultiStreamFile(path, yearColumn string, streamColumns map[string]string) (map[string]landgem.WasteHistory, error) {
	f, err := openCSV(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	data, err := ReadMultiStreamCSV(f, yearColumn, streamColumns)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return data, nil
}

func openCSV(path string) (*os.File, error) {
	if ext := strings.ToLower(filepath.Ext(path)); ext != ".csv" {
		return nil, fmt.Errorf("%w: %q (only .csv is supported)", ErrUnsupportedFormat, ext)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open waste data: %w", err)
	}
	return f, nil
}

type table struct {
	header map[string]int
	rows   [][]string
	// lines holds the 1-based file line of each row.
	lines []int
}

func readTable(r io.Reader) (*table, error) {
	reader := csv.NewReader(r)
	reader.Comment = '#'
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	var t *table
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read waste data CSV: %w", err)
		}
		if t == nil {
			t = &table{header: make(map[string]int, len(record))}
			for i, name := range record {
				t.header[strings.ToLower(strings.TrimSpace(name))] = i
			}
			continue
		}
		line, _ := reader.FieldPos(0)
		t.rows = append(t.rows, record)
		t.lines = append(t.lines, line)
	}
	if t == nil {
		return nil, errors.New("waste data CSV has no header row")
	}
	return t, nil
}

func (t *table) column(name string) (int, error) {
	idx, ok := t.header[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return 0, fmt.Errorf("column %q not found", name)
	}
	return idx, nil
}

// parseRow returns ok=false for rows without a mass value.
func parseRow(row []string, yearIdx, massIdx int) (year int, mass float64, ok bool, err error) {
	if massIdx >= len(row) || strings.TrimSpace(row[massIdx]) == "" {
		return 0, 0, false, nil
	}
	if yearIdx >= len(row) {
		return 0, 0, false, errors.New("missing year")
	}

	year, err = parseYear(row[yearIdx])
	if err != nil {
		return 0, 0, false, err
	}
	mass, err = strconv.ParseFloat(strings.TrimSpace(row[massIdx]), 64)
	if err != nil {
		return 0, 0, false, fmt.Errorf("parse mass %q: %w", row[massIdx], err)
	}
	return year, mass, true, nil
}

// parseYear accepts "2020" as well as spreadsheet-style "2020.0".
func parseYear(s string) (int, error) {
	s = strings.TrimSpace(s)
	if year, err := strconv.Atoi(s); err == nil {
		return year, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f != math.Trunc(f) || math.Abs(f) > math.MaxInt32 {
		return 0, fmt.Errorf("parse year %q: not a whole number", s)
	}
	return int(f), nil
}
