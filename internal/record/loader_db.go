package record

import (
	"fmt"

	"github.com/jmoiron/sqlx"
)

// LoadDB reads a standardized record table from a Postgres table. The
// physical table must expose an `idx` column usable for a stable scan
// order; indvIDCol/columnMap/groundTruthFields have the same meaning as
// in LoadCSV.
func LoadDB(db *sqlx.DB, tableName string, indvIDCol string, columnMap ColumnMap, groundTruthFields []string) (*Table, error) {
	cols := []string{indvIDCol}
	logicalOf := map[string]string{indvIDCol: "indv_id"}
	for logical, physical := range columnMap {
		cols = append(cols, physical)
		logicalOf[physical] = logical
	}

	query := fmt.Sprintf("SELECT %s FROM %s ORDER BY idx", joinCols(cols), tableName)
	rows, err := db.Queryx(query)
	if err != nil {
		return nil, fmt.Errorf("record: query %s: %w", tableName, err)
	}
	defer rows.Close()

	gtSet := make(map[string]bool, len(groundTruthFields))
	for _, g := range groundTruthFields {
		gtSet[g] = true
	}

	fields := FieldSet{}
	for logical := range columnMap {
		fields[logical] = true
	}

	table := &Table{Name: tableName, Fields: fields, GroundTruthFields: groundTruthFields}
	idx := 0
	for rows.Next() {
		values, err := rows.SliceScan()
		if err != nil {
			return nil, fmt.Errorf("record: scan row %d: %w", idx, err)
		}
		rec := Record{Idx: idx}
		for i, col := range cols {
			logical := logicalOf[col]
			val := toString(values[i])
			switch {
			case logical == "indv_id":
				rec.IndvID = val
			case gtSet[logical]:
				if rec.GroundTruth == nil {
					rec.GroundTruth = make(map[string]string)
				}
				rec.GroundTruth[logical] = val
			case floatFields[logical]:
				f, ok := toFloat(values[i])
				rec.SetFloat(logical, f, ok)
			default:
				rec.SetString(logical, val)
			}
		}
		table.Records = append(table.Records, rec)
		idx++
	}
	return table, rows.Err()
}

func joinCols(cols []string) string {
	out := cols[0]
	for _, c := range cols[1:] {
		out += ", " + c
	}
	return out
}

func toString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case []byte:
		return string(t)
	default:
		return fmt.Sprintf("%v", t)
	}
}

func toFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case nil:
		return 0, false
	case float64:
		return t, true
	case float32:
		return float64(t), true
	case int64:
		return float64(t), true
	case int:
		return float64(t), true
	default:
		return 0, false
	}
}
