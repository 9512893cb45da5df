// Package dataset loads the contact list and resolves which columns hold
// the email address and the company name.
package dataset

import (
	"encoding/csv"
	"fmt"
	"os"
	"strings"
)

// Row is one contact record: column name to raw value. Read-only for the
// duration of a campaign run.
type Row map[string]string

// Dataset is the loaded contact list with its resolved special columns.
type Dataset struct {
	Columns       []string
	Rows          []Row
	EmailColumn   string
	CompanyColumn string

	EmailConfidence   Confidence
	CompanyConfidence Confidence
}

// createdEmailColumn is the column added when the input has no detectable
// email column, matching the standardized name the upstream sheets use.
const createdEmailColumn = "Gmail"

// FromRecords builds a dataset from row-major records where the first
// record is the header. The email column is created if absent; the
// company column falls back to the first column.
func FromRecords(records [][]string) (*Dataset, error) {
	if len(records) == 0 {
		return nil, fmt.Errorf("dataset is empty")
	}

	header := records[0]
	if len(header) == 0 {
		return nil, fmt.Errorf("dataset has no columns")
	}

	d := &Dataset{Columns: append([]string(nil), header...)}
	for _, rec := range records[1:] {
		row := make(Row, len(header))
		for i, col := range header {
			if i < len(rec) {
				row[col] = strings.TrimSpace(rec[i])
			} else {
				row[col] = ""
			}
		}
		d.Rows = append(d.Rows, row)
	}

	d.EmailColumn, d.EmailConfidence = DetectEmailColumn(d.Columns, d.Rows)
	if d.EmailColumn == "" {
		d.EmailColumn = createdEmailColumn
		d.Columns = append(d.Columns, createdEmailColumn)
		for _, row := range d.Rows {
			row[createdEmailColumn] = ""
		}
	}

	d.CompanyColumn, d.CompanyConfidence = DetectCompanyColumn(d.Columns)

	return d, nil
}

// LoadCSV reads a CSV file with a header row into a dataset.
func LoadCSV(path string) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dataset: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse dataset: %w", err)
	}

	return FromRecords(records)
}

// Email returns the row's value in the resolved email column.
func (d *Dataset) Email(row Row) string {
	return strings.TrimSpace(row[d.EmailColumn])
}

// Company returns the row's value in the resolved company column, or
// "Unknown Company" when blank.
func (d *Dataset) Company(row Row) string {
	name := strings.TrimSpace(row[d.CompanyColumn])
	if name == "" {
		return "Unknown Company"
	}
	return name
}
