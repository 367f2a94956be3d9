package warehouse

import (
	"time"

	"cloud.google.com/go/civil"
)

// NormalizeTimestamps rewrites every TIMESTAMP column to a zone-naive
// DATETIME column holding the UTC wall-clock value. The input is not mutated.
func NormalizeTimestamps(table Table) Table {
	zoned := make([]bool, len(table.Columns))
	found := false
	for i, column := range table.Columns {
		if column.Type == TypeTimestamp {
			zoned[i] = true
			found = true
		}
	}
	if !found {
		return table
	}

	columns := append([]Column(nil), table.Columns...)
	for i := range columns {
		if zoned[i] {
			columns[i].Type = TypeDateTime
		}
	}

	rows := make([][]any, len(table.Rows))
	for r, row := range table.Rows {
		out := append([]any(nil), row...)
		for i, value := range out {
			if !zoned[i] {
				continue
			}
			if ts, ok := value.(time.Time); ok {
				out[i] = civil.DateTimeOf(ts.UTC())
			}
		}
		rows[r] = out
	}
	return Table{Columns: columns, Rows: rows, Duration: table.Duration}
}
