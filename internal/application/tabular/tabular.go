// Package tabular reads auction catalog exports and writes the wide result
// format.  The input is a CSV with a LOT identifier column and a TYPESET
// description column; the output repeats every input column and appends the
// structured columns plus one H/L/D/P/Diameter column group per item slot.
package tabular

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/Hettieboo/AuctionDimensionProcessor/pkg/errors"
	"github.com/Hettieboo/AuctionDimensionProcessor/pkg/types/lot"
)

// Input column names.  Matching is exact (case-sensitive) on trimmed headers.
const (
	ColumnLot         = "LOT"
	ColumnDescription = "TYPESET"
)

// Output column names appended after the input columns.
const (
	ColumnItemCount      = "ITEM_COUNT"
	ColumnItemType       = "ITEM_TYPE"
	ColumnMaterial       = "MATERIAL"
	ColumnManualReview   = "MANUAL_REVIEW_REQUIRED"
	ColumnFlags          = "PROCESSING_FLAGS"
	ColumnConversionLog  = "CONVERSION_LOG"
	flagSeparator        = "; "
	conversionSeparator  = " | "
)

// Table keeps the input verbatim so the writer can reproduce every original
// column next to the generated ones.
type Table struct {
	Header []string
	Rows   [][]string

	lotIdx  int
	descIdx int
}

// Descriptions returns the per-row lot descriptions in row order.
func (t *Table) Descriptions() []lot.LotDescription {
	out := make([]lot.LotDescription, len(t.Rows))
	for i, row := range t.Rows {
		out[i] = lot.LotDescription{
			LotID: strings.TrimSpace(row[t.lotIdx]),
			Text:  row[t.descIdx],
		}
	}
	return out
}

// ReadLots parses a catalog CSV.  It fails fast on a missing LOT or TYPESET
// column and on an empty description cell; malformed rows abort the read
// rather than being silently skipped.
func ReadLots(r io.Reader) (*Table, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, errors.New(errors.CodeMissingColumn, "input is empty, no header row")
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeFileRead, "reading header row")
	}

	t := &Table{Header: header, lotIdx: -1, descIdx: -1}
	for i, name := range header {
		switch strings.TrimSpace(name) {
		case ColumnLot:
			if t.lotIdx < 0 {
				t.lotIdx = i
			}
		case ColumnDescription:
			if t.descIdx < 0 {
				t.descIdx = i
			}
		}
	}
	if t.lotIdx < 0 {
		return nil, errors.New(errors.CodeMissingColumn, "required column missing").
			WithDetail("column: " + ColumnLot)
	}
	if t.descIdx < 0 {
		return nil, errors.New(errors.CodeMissingColumn, "required column missing").
			WithDetail("column: " + ColumnDescription)
	}

	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			if _, ok := err.(*csv.ParseError); ok {
				return nil, errors.Wrap(err, errors.CodeRowMalformed,
					fmt.Sprintf("malformed row %d", len(t.Rows)+2))
			}
			return nil, errors.Wrap(err, errors.CodeFileRead, "reading rows")
		}
		if strings.TrimSpace(row[t.descIdx]) == "" {
			return nil, errors.New(errors.CodeEmptyDescription,
				fmt.Sprintf("row %d has an empty %s cell", len(t.Rows)+2, ColumnDescription))
		}
		t.Rows = append(t.Rows, row)
	}
	return t, nil
}

// ReadLotsFile opens and parses path.
func ReadLotsFile(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeFileRead, "opening input file").WithDetail("path: " + path)
	}
	defer f.Close()
	return ReadLots(f)
}

// RowResult pairs one input row with its processing outcome.  A nil Result
// (failed row) still produces an output row, marked for manual review with
// the failure recorded in the conversion log.
type RowResult struct {
	Result *lot.LotResult
	Err    error
}

// WriteResults writes the wide output CSV: every input column, the structured
// columns, then H_i/L_i/D_i/P_i/Diameter_i groups sized to the largest item
// count of the batch.  results must be aligned with t.Rows.
func WriteResults(w io.Writer, t *Table, results []RowResult) error {
	if len(results) != len(t.Rows) {
		return errors.New(errors.CodeInternal,
			fmt.Sprintf("results/rows mismatch: %d results for %d rows", len(results), len(t.Rows)))
	}

	maxItems := 1
	for _, rr := range results {
		if rr.Result != nil && len(rr.Result.Items) > maxItems {
			maxItems = len(rr.Result.Items)
		}
	}

	header := append([]string{}, t.Header...)
	header = append(header, ColumnItemCount, ColumnItemType, ColumnMaterial, ColumnManualReview)
	for i := 1; i <= maxItems; i++ {
		header = append(header,
			fmt.Sprintf("H_%d", i),
			fmt.Sprintf("L_%d", i),
			fmt.Sprintf("D_%d", i),
			fmt.Sprintf("P_%d", i),
			fmt.Sprintf("Diameter_%d", i))
	}
	header = append(header, ColumnFlags, ColumnConversionLog)

	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return errors.Wrap(err, errors.CodeFileWrite, "writing header row")
	}

	for i, row := range t.Rows {
		out := append([]string{}, row...)
		out = append(out, resultColumns(results[i], maxItems)...)
		if err := cw.Write(out); err != nil {
			return errors.Wrap(err, errors.CodeFileWrite, fmt.Sprintf("writing row %d", i+2))
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return errors.Wrap(err, errors.CodeFileWrite, "flushing output")
	}
	return nil
}

// WriteResultsFile writes the wide output CSV to path.
func WriteResultsFile(path string, t *Table, results []RowResult) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, errors.CodeFileWrite, "creating output file").WithDetail("path: " + path)
	}
	defer f.Close()
	return WriteResults(f, t, results)
}

func resultColumns(rr RowResult, maxItems int) []string {
	if rr.Result == nil {
		cols := []string{"0", "", "", "TRUE"}
		for i := 0; i < maxItems; i++ {
			cols = append(cols, "", "", "", "", "")
		}
		reason := "processing failed"
		if rr.Err != nil {
			reason = rr.Err.Error()
		}
		return append(cols, "", reason)
	}

	res := rr.Result
	cols := []string{
		fmt.Sprintf("%d", res.Count.Count),
		string(res.Classification),
		res.Material,
		boolColumn(res.ManualReviewRequired),
	}
	for i := 0; i < maxItems; i++ {
		if i < len(res.Items) {
			item := res.Items[i]
			cols = append(cols,
				dimColumn(item.H),
				dimColumn(item.L),
				dimColumn(item.D),
				dimColumn(item.P),
				dimColumn(item.Diameter))
		} else {
			cols = append(cols, "", "", "", "", "")
		}
	}
	return append(cols, res.Flags.Join(flagSeparator), res.Log.Join(conversionSeparator))
}

func dimColumn(v *float64) string {
	if v == nil {
		return ""
	}
	return lot.FormatDim(*v)
}

func boolColumn(b bool) string {
	if b {
		return "TRUE"
	}
	return "FALSE"
}
