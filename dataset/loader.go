package dataset

import (
	"bufio"
	"encoding/csv"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/YuminosukeSato/seedtune/pkg/errors"
	"github.com/YuminosukeSato/seedtune/pkg/log"
)

// LoadOptions controls how a delimited table is parsed.
type LoadOptions struct {
	// Delimiter separates fields. Zero means ','. The raw seeds file uses '\t'.
	Delimiter rune
	// LabelColumn names the label column. Empty means "target".
	LabelColumn string
	// NoHeader treats the first line as data, with the canonical seeds
	// columns (SeedFeatures followed by the label).
	NoHeader bool
	// Whitespace splits on runs of blanks and tabs instead of Delimiter.
	// The published seeds file is tab separated with occasional double tabs.
	Whitespace bool
	// CheckLabels rejects label codes outside [MinLabel, MaxLabel].
	CheckLabels bool
	// MinLabel and MaxLabel bound the accepted label codes; either may be
	// zero or negative.
	MinLabel, MaxLabel int
	// Source names the input in errors and logs.
	Source string
}

func (o LoadOptions) withDefaults() LoadOptions {
	if o.Delimiter == 0 {
		o.Delimiter = ','
	}
	if o.LabelColumn == "" {
		o.LabelColumn = DefaultLabelColumn
	}
	if o.Source == "" {
		o.Source = "input"
	}
	return o
}

// SeedsOptions returns options for the header-less, whitespace separated
// seeds file with labels 1..3.
func SeedsOptions() LoadOptions {
	return LoadOptions{NoHeader: true, Whitespace: true, CheckLabels: true, MinLabel: 1, MaxLabel: len(SeedCategories)}
}

// LoadFile opens path and calls Load.
func LoadFile(path string, opts LoadOptions) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", path)
	}
	defer f.Close()
	if opts.Source == "" {
		opts.Source = path
	}
	return Load(f, opts)
}

// Load parses a delimited table into a Dataset. Every feature cell must be a
// finite number and every label an integer; any violation is a DataError
// naming line and column.
func Load(r io.Reader, opts LoadOptions) (*Dataset, error) {
	opts = opts.withDefaults()
	if opts.CheckLabels && opts.MinLabel > opts.MaxLabel {
		return nil, errors.NewValidationError("label range",
			"minimum exceeds maximum", [2]int{opts.MinLabel, opts.MaxLabel})
	}
	rows, err := readRows(r, opts)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, errors.NewDataError(opts.Source, 0, "", "no rows")
	}

	header := rows[0].fields
	body := rows[1:]
	if opts.NoHeader {
		header = append(append([]string(nil), SeedFeatures...), opts.LabelColumn)
		body = rows
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	labelIdx := -1
	for i, name := range header {
		if name == opts.LabelColumn {
			labelIdx = i
			break
		}
	}
	if labelIdx < 0 {
		return nil, errors.NewDataError(opts.Source, rows[0].line, opts.LabelColumn, "label column not found")
	}
	if len(body) == 0 {
		return nil, errors.NewDataError(opts.Source, 0, "", "no data rows")
	}

	features := make([]string, 0, len(header)-1)
	for i, name := range header {
		if i != labelIdx {
			features = append(features, name)
		}
	}

	records := make([]Record, 0, len(body))
	for _, row := range body {
		if len(row.fields) != len(header) {
			return nil, errors.NewDataError(opts.Source, row.line, "",
				"expected "+strconv.Itoa(len(header))+" fields, got "+strconv.Itoa(len(row.fields)))
		}
		rec := Record{Values: make([]float64, 0, len(features))}
		for i, cell := range row.fields {
			cell = strings.TrimSpace(cell)
			if cell == "" {
				return nil, errors.NewDataError(opts.Source, row.line, header[i], "missing value")
			}
			if i == labelIdx {
				label, err := strconv.Atoi(cell)
				if err != nil {
					return nil, errors.NewDataError(opts.Source, row.line, header[i], "label is not an integer: "+cell)
				}
				if opts.CheckLabels && (label < opts.MinLabel || label > opts.MaxLabel) {
					return nil, errors.NewDataError(opts.Source, row.line, header[i],
						"label "+cell+" outside ["+strconv.Itoa(opts.MinLabel)+", "+strconv.Itoa(opts.MaxLabel)+"]")
				}
				rec.Label = label
				continue
			}
			v, err := strconv.ParseFloat(cell, 64)
			if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, errors.NewDataError(opts.Source, row.line, header[i], "not a finite number: "+cell)
			}
			rec.Values = append(rec.Values, v)
		}
		records = append(records, rec)
	}

	ds, err := New(features, records)
	if err != nil {
		return nil, err
	}
	log.GetLoggerWithName("dataset").Debug("dataset loaded",
		log.OperationKey, log.OperationLoad,
		log.SourceKey, opts.Source,
		log.SamplesKey, ds.Len(),
		log.FeaturesKey, ds.NumFeatures(),
		log.ClassesKey, len(ds.Classes()),
	)
	return ds, nil
}

type row struct {
	line   int
	fields []string
}

func readRows(r io.Reader, opts LoadOptions) ([]row, error) {
	if opts.Whitespace {
		return readWhitespaceRows(r, opts.Source)
	}
	cr := csv.NewReader(r)
	cr.Comma = opts.Delimiter
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	var rows []row
	for {
		fields, err := cr.Read()
		if err == io.EOF {
			return rows, nil
		}
		if err != nil {
			line := 0
			var perr *csv.ParseError
			if errors.As(err, &perr) {
				line = perr.Line
			}
			return nil, errors.NewDataError(opts.Source, line, "", err.Error())
		}
		line, _ := cr.FieldPos(0)
		if len(fields) == 1 && strings.TrimSpace(fields[0]) == "" {
			continue
		}
		rows = append(rows, row{line: line, fields: fields})
	}
}

func readWhitespaceRows(r io.Reader, source string) ([]row, error) {
	var rows []row
	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 {
			continue
		}
		rows = append(rows, row{line: line, fields: fields})
	}
	if err := sc.Err(); err != nil {
		return nil, errors.NewDataError(source, line, "", err.Error())
	}
	return rows, nil
}
