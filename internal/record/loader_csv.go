package record

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// ColumnMap maps a logical field name (record.FieldFName, a ground-truth
// ID name, ...) to the physical column name in a source file, the same
// shape as the per-dataset `vars` config block. The individual-id column
// is passed to the loaders separately, not through this map.
type ColumnMap map[string]string

var floatFields = map[string]bool{FieldByear: true, FieldBmonth: true, FieldBday: true}

// LoadCSV reads a standardized record table from a CSV file. indvIDCol
// is the physical column holding the individual identifier; columnMap
// supplies every other logical-to-physical mapping actually present in
// this dataset.
// groundTruthFields lists which of columnMap's keys are ground-truth IDs.
func LoadCSV(path string, indvIDCol string, columnMap ColumnMap, groundTruthFields []string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("record: open %s: %w", path, err)
	}
	defer f.Close()
	return loadCSVFromReader(f, indvIDCol, columnMap, groundTruthFields)
}

func loadCSVFromReader(r io.Reader, indvIDCol string, columnMap ColumnMap, groundTruthFields []string) (*Table, error) {
	cr := csv.NewReader(r)
	cr.ReuseRecord = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("record: read header: %w", err)
	}
	colIdx := make(map[string]int, len(header))
	for i, name := range header {
		colIdx[strings.TrimSpace(name)] = i
	}

	idvIdx, ok := colIdx[indvIDCol]
	if !ok {
		return nil, fmt.Errorf("record: required column %q not found in header", indvIDCol)
	}
	type mapping struct {
		logical string
		idx     int
	}
	mappings := make([]mapping, 0, len(columnMap))
	fields := FieldSet{}
	for logical, physical := range columnMap {
		idx, ok := colIdx[physical]
		if !ok {
			return nil, fmt.Errorf("record: mapped column %q (logical %q) not found in header", physical, logical)
		}
		mappings = append(mappings, mapping{logical: logical, idx: idx})
		fields[logical] = true
	}

	gtSet := make(map[string]bool, len(groundTruthFields))
	for _, g := range groundTruthFields {
		gtSet[g] = true
	}

	table := &Table{Fields: fields, GroundTruthFields: groundTruthFields}
	idx := 0
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("record: read row %d: %w", idx, err)
		}
		rec := Record{Idx: idx, IndvID: strings.TrimSpace(row[idvIdx])}
		for _, m := range mappings {
			raw := strings.TrimSpace(row[m.idx])
			if gtSet[m.logical] {
				if rec.GroundTruth == nil {
					rec.GroundTruth = make(map[string]string)
				}
				rec.GroundTruth[m.logical] = raw
				continue
			}
			if floatFields[m.logical] {
				if raw == "" {
					rec.SetFloat(m.logical, 0, false)
					continue
				}
				v, err := strconv.ParseFloat(raw, 64)
				if err != nil {
					rec.SetFloat(m.logical, 0, false)
					continue
				}
				rec.SetFloat(m.logical, v, true)
				continue
			}
			rec.SetString(m.logical, raw)
		}
		table.Records = append(table.Records, rec)
		idx++
	}
	return table, nil
}
