package record

// FieldSet describes which logical fields a table actually carries, sourced
// from the table's configured logical-to-physical column map rather than
// scanned row-by-row. It drives the "field not present in both tables"
// skip-with-warning behavior in the blocker and the comparer registry.
type FieldSet map[string]bool

// Has reports whether field is mapped for this table.
func (f FieldSet) Has(field string) bool { return f[field] }

// HasAll reports whether every field in fields is mapped for this table.
func (f FieldSet) HasAll(fields ...string) bool {
	for _, field := range fields {
		if !f[field] {
			return false
		}
	}
	return true
}

// Table is a dense-indexed collection of records loaded from one logical
// dataset (CSV, Postgres, or a dedup alias of another table).
type Table struct {
	Name    string
	Records []Record
	Fields  FieldSet

	// GroundTruthFields lists the ground-truth identifier logical names
	// this table carries values for, in configured order.
	GroundTruthFields []string
}

// ByIdx returns the record at dense index idx. Callers hold idx values
// produced by the blocker, which always stay within range for a
// materialized table.
func (t *Table) ByIdx(idx int) *Record {
	return &t.Records[idx]
}

// Len returns the number of records in the table.
func (t *Table) Len() int { return len(t.Records) }

// DedupAlias returns a, reused as table B for a dedup match. No copy is
// made; the blocker additionally applies the dedup self-exclusion
// predicate.
func DedupAlias(a *Table) *Table { return a }
