package main

import (
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/chapinhall-oss/reclink/internal/config"
	"github.com/chapinhall-oss/reclink/internal/record"
)

// loadDataset materializes one side of a match per its data_param
// entry, dispatching on the configured source kind.
func loadDataset(dp config.DatasetParam, gtIDs []string, db *sqlx.DB) (*record.Table, error) {
	columnMap := record.ColumnMap(dp.Vars)
	switch dp.Kind {
	case "csv":
		t, err := record.LoadCSV(dp.Filepath, dp.IndvID, columnMap, gtIDs)
		if err != nil {
			return nil, fmt.Errorf("load dataset %s: %w", dp.Name, err)
		}
		t.Name = dp.Name
		return t, nil
	case "db":
		if db == nil {
			return nil, fmt.Errorf("load dataset %s: kind db requires a database connection", dp.Name)
		}
		t, err := record.LoadDB(db, dp.Table, dp.IndvID, columnMap, gtIDs)
		if err != nil {
			return nil, fmt.Errorf("load dataset %s: %w", dp.Name, err)
		}
		t.Name = dp.Name
		return t, nil
	default:
		return nil, fmt.Errorf("load dataset %s: unrecognized kind %q", dp.Name, dp.Kind)
	}
}
