// Package report writes projection tables as CSV or JSON.
package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/goccy/go-json"
	"github.com/rshade/landgem/internal/landgem"
)

// Column names shared by every exporter.
const (
	ColumnYear             = "year"
	ColumnCH4Rate          = "ch4 rate"
	ColumnTotalLFGRate     = "total lfg rate"
	ColumnCO2Rate          = "co2 rate"
	ColumnNMOCRate         = "nmoc rate"
	ColumnCollectedCH4Rate = "collected ch4 rate"
	ColumnCollectedLFGRate = "collected lfg rate"
	ColumnCumulativeCH4    = "cumulative ch4"
	ColumnCumulativeLFG    = "cumulative lfg"
)

// Metadata describes the run that produced a table. Empty fields are left out
// of the CSV preamble.
type Metadata struct {
	Title       string
	GeneratedAt time.Time
	RunID       string
	Parameters  string
}

// JSONMetadata is the metadata object of a JSON report. A zero GeneratedAt
// is left out.
type JSONMetadata struct {
	Title       string     `json:"title,omitempty"`
	GeneratedAt *time.Time `json:"generated_at,omitempty"`
	RunID       string     `json:"run_id,omitempty"`
	Parameters  string     `json:"parameters,omitempty"`
}

func (m Metadata) jsonMetadata() JSONMetadata {
	out := JSONMetadata{Title: m.Title, RunID: m.RunID, Parameters: m.Parameters}
	if !m.GeneratedAt.IsZero() {
		at := m.GeneratedAt.UTC()
		out.GeneratedAt = &at
	}
	return out
}

func (m Metadata) lines() []string {
	var out []string
	if m.Title != "" {
		out = append(out, "title: "+m.Title)
	}
	if !m.GeneratedAt.IsZero() {
		out = append(out, "generated_at: "+m.GeneratedAt.UTC().Format(time.RFC3339))
	}
	if m.RunID != "" {
		out = append(out, "run_id: "+m.RunID)
	}
	if m.Parameters != "" {
		out = append(out, "parameters: "+m.Parameters)
	}
	return out
}

// layout decides which optional columns a table carries.
type layout struct {
	nmoc       bool
	collection bool
	streams    []string
}

func (l layout) header() []string {
	h := []string{ColumnYear, ColumnCH4Rate, ColumnTotalLFGRate, ColumnCO2Rate}
	if l.nmoc {
		h = append(h, ColumnNMOCRate)
	}
	if l.collection {
		h = append(h, ColumnCollectedCH4Rate, ColumnCollectedLFGRate)
	}
	for _, s := range l.streams {
		h = append(h, StreamColumn(s))
	}
	return append(h, ColumnCumulativeCH4, ColumnCumulativeLFG)
}

func (l layout) record(year int, r landgem.EmissionResult, streams map[string]landgem.EmissionResult, cumCH4, cumLFG float64) []string {
	rec := []string{strconv.Itoa(year), formatRate(r.CH4Rate), formatRate(r.TotalLFGRate), formatRate(r.CO2Rate)}
	if l.nmoc {
		rec = append(rec, formatRate(r.NMOCRate))
	}
	if l.collection {
		rec = append(rec, formatRate(r.CollectedCH4Rate), formatRate(r.CollectedLFGRate))
	}
	for _, s := range l.streams {
		rec = append(rec, formatRate(streams[s].CH4Rate))
	}
	return append(rec, formatRate(cumCH4), formatRate(cumLFG))
}

// StreamColumn returns the per-stream methane column name.
func StreamColumn(stream string) string {
	return stream + " " + ColumnCH4Rate
}

// Columns returns the column names WriteCSV emits for table.
func Columns(table landgem.ProjectionTable) []string {
	return singleLayout(table).header()
}

// MultiStreamColumns returns the column names WriteMultiStreamCSV emits for table.
func MultiStreamColumns(table landgem.MultiStreamTable) []string {
	return multiLayout(table).header()
}

func singleLayout(table landgem.ProjectionTable) layout {
	return layout{nmoc: table.HasNMOC(), collection: table.HasCollection()}
}

func multiLayout(table landgem.MultiStreamTable) layout {
	l := layout{streams: table.StreamNames}
	if len(table.Rows) > 0 {
		l.nmoc = true
	}
	for _, row := range table.Rows {
		l.nmoc = l.nmoc && row.Total.HasNMOC
		l.collection = l.collection || row.Total.HasCollection
	}
	return l
}

// WriteCSV writes table with a '#'-prefixed metadata preamble.
func WriteCSV(w io.Writer, table landgem.ProjectionTable, meta Metadata) error {
	l := singleLayout(table)
	records := make([][]string, 0, len(table.Rows))
	for _, row := range table.Rows {
		records = append(records, l.record(row.Year, row.EmissionResult, nil, row.CumulativeCH4, row.CumulativeLFG))
	}
	return writeCSV(w, meta, l.header(), records)
}

// WriteMultiStreamCSV writes a multi-stream table with one methane column per stream.
func WriteMultiStreamCSV(w io.Writer, table landgem.MultiStreamTable, meta Metadata) error {
	l := multiLayout(table)
	records := make([][]string, 0, len(table.Rows))
	for _, row := range table.Rows {
		records = append(records, l.record(row.Year, row.Total, row.Streams, row.CumulativeCH4, row.CumulativeLFG))
	}
	return writeCSV(w, meta, l.header(), records)
}

func writeCSV(w io.Writer, meta Metadata, header []string, records [][]string) error {
	for _, line := range meta.lines() {
		if _, err := fmt.Fprintf(w, "# %s\n", line); err != nil {
			return fmt.Errorf("write metadata: %w", err)
		}
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	if err := cw.WriteAll(records); err != nil {
		return fmt.Errorf("write rows: %w", err)
	}
	return nil
}

// JSONRow is one year of a JSON report. Optional rates are nil when the
// table does not carry them.
type JSONRow struct {
	Year             int                `json:"year"`
	CH4Rate          float64            `json:"ch4_rate"`
	TotalLFGRate     float64            `json:"total_lfg_rate"`
	CO2Rate          float64            `json:"co2_rate"`
	NMOCRate         *float64           `json:"nmoc_rate,omitempty"`
	CollectedCH4Rate *float64           `json:"collected_ch4_rate,omitempty"`
	CollectedLFGRate *float64           `json:"collected_lfg_rate,omitempty"`
	StreamCH4Rates   map[string]float64 `json:"stream_ch4_rates,omitempty"`
	CumulativeCH4    float64            `json:"cumulative_ch4"`
	CumulativeLFG    float64            `json:"cumulative_lfg"`
}

// JSONReport is the document written by WriteJSON and WriteMultiStreamJSON.
type JSONReport struct {
	Metadata JSONMetadata `json:"metadata"`
	Columns  []string     `json:"columns"`
	Streams  []string     `json:"streams,omitempty"`
	Rows     []JSONRow    `json:"rows"`
}

func (l layout) jsonRow(year int, r landgem.EmissionResult, streams map[string]landgem.EmissionResult, cumCH4, cumLFG float64) JSONRow {
	row := JSONRow{
		Year:          year,
		CH4Rate:       r.CH4Rate,
		TotalLFGRate:  r.TotalLFGRate,
		CO2Rate:       r.CO2Rate,
		CumulativeCH4: cumCH4,
		CumulativeLFG: cumLFG,
	}
	if l.nmoc {
		v := r.NMOCRate
		row.NMOCRate = &v
	}
	if l.collection {
		ch4, lfg := r.CollectedCH4Rate, r.CollectedLFGRate
		row.CollectedCH4Rate = &ch4
		row.CollectedLFGRate = &lfg
	}
	if len(l.streams) > 0 {
		row.StreamCH4Rates = make(map[string]float64, len(l.streams))
		for _, s := range l.streams {
			row.StreamCH4Rates[s] = streams[s].CH4Rate
		}
	}
	return row
}

// WriteJSON writes table as an indented JSON document.
func WriteJSON(w io.Writer, table landgem.ProjectionTable, meta Metadata) error {
	l := singleLayout(table)
	doc := JSONReport{Metadata: meta.jsonMetadata(), Columns: l.header(), Rows: make([]JSONRow, 0, len(table.Rows))}
	for _, row := range table.Rows {
		doc.Rows = append(doc.Rows, l.jsonRow(row.Year, row.EmissionResult, nil, row.CumulativeCH4, row.CumulativeLFG))
	}
	return writeJSON(w, doc)
}

// WriteMultiStreamJSON writes a multi-stream table as an indented JSON document.
func WriteMultiStreamJSON(w io.Writer, table landgem.MultiStreamTable, meta Metadata) error {
	l := multiLayout(table)
	doc := JSONReport{
		Metadata: meta.jsonMetadata(),
		Columns:  l.header(),
		Streams:  table.StreamNames,
		Rows:     make([]JSONRow, 0, len(table.Rows)),
	}
	for _, row := range table.Rows {
		doc.Rows = append(doc.Rows, l.jsonRow(row.Year, row.Total, row.Streams, row.CumulativeCH4, row.CumulativeLFG))
	}
	return writeJSON(w, doc)
}

func writeJSON(w io.Writer, doc JSONReport) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	return nil
}

func formatRate(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
