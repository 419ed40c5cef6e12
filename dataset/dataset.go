// Package dataset loads the seeds measurement table into an immutable Dataset
// and computes exploratory statistics over it.
package dataset

import (
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/seedtune/pkg/errors"
)

// Canonical seeds schema.
var (
	// SeedFeatures are the seven kernel measurements in file order.
	SeedFeatures = []string{
		"area", "perimeter", "compactness", "kernel_length",
		"kernel_width", "asymmetry", "groove_length",
	}

	// SeedCategories name the varieties for label codes 1, 2 and 3.
	SeedCategories = []string{"Kama", "Rosa", "Canadian"}
)

// DefaultLabelColumn is the name of the label column.
const DefaultLabelColumn = "target"

// Record is one observed kernel: its feature values and integer label code.
type Record struct {
	Values []float64
	Label  int
}

// Dataset is an ordered collection of records sharing one feature schema.
// It is never mutated after construction; accessors return copies.
type Dataset struct {
	features []string
	records  []Record
}

// New builds a Dataset, validating that every record matches the schema.
func New(features []string, records []Record) (*Dataset, error) {
	if len(features) == 0 {
		return nil, errors.NewValueError("dataset.New", "at least one feature is required")
	}
	ds := &Dataset{
		features: append([]string(nil), features...),
		records:  make([]Record, len(records)),
	}
	for i, r := range records {
		if len(r.Values) != len(features) {
			return nil, errors.NewDimensionError("dataset.New", len(features), len(r.Values), 1)
		}
		ds.records[i] = Record{Values: append([]float64(nil), r.Values...), Label: r.Label}
	}
	return ds, nil
}

// Len returns the number of records.
func (d *Dataset) Len() int { return len(d.records) }

// NumFeatures returns the number of feature columns.
func (d *Dataset) NumFeatures() int { return len(d.features) }

// Features returns the feature column names.
func (d *Dataset) Features() []string {
	return append([]string(nil), d.features...)
}

// Record returns a copy of the i-th record.
func (d *Dataset) Record(i int) Record {
	r := d.records[i]
	return Record{Values: append([]float64(nil), r.Values...), Label: r.Label}
}

// X returns the feature matrix (records × features).
func (d *Dataset) X() *mat.Dense {
	if len(d.records) == 0 {
		return nil
	}
	x := mat.NewDense(len(d.records), len(d.features), nil)
	for i, r := range d.records {
		x.SetRow(i, r.Values)
	}
	return x
}

// Labels returns the label codes in record order.
func (d *Dataset) Labels() []int {
	labels := make([]int, len(d.records))
	for i, r := range d.records {
		labels[i] = r.Label
	}
	return labels
}

// Subset returns a new Dataset with the records at indices, in that order.
func (d *Dataset) Subset(indices []int) (*Dataset, error) {
	records := make([]Record, len(indices))
	for j, i := range indices {
		if i < 0 || i >= len(d.records) {
			return nil, errors.NewValueError("Dataset.Subset", "index out of range")
		}
		records[j] = d.records[i]
	}
	return New(d.features, records)
}

// ClassCounts returns the number of records per label code.
func (d *Dataset) ClassCounts() map[int]int {
	counts := make(map[int]int)
	for _, r := range d.records {
		counts[r.Label]++
	}
	return counts
}

// Classes returns the distinct label codes in ascending order.
func (d *Dataset) Classes() []int {
	counts := d.ClassCounts()
	classes := make([]int, 0, len(counts))
	for c := range counts {
		classes = append(classes, c)
	}
	sort.Ints(classes)
	return classes
}
