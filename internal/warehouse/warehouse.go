// Package warehouse holds the tabular result model shared by every query
// backend and the Engine contract those backends implement.
package warehouse

import (
	"context"
	"fmt"
	"time"

	"github.com/samber/lo"
)

type ColumnType string

const (
	TypeString    ColumnType = "STRING"
	TypeInt64     ColumnType = "INT64"
	TypeFloat64   ColumnType = "FLOAT64"
	TypeNumeric   ColumnType = "NUMERIC"
	TypeBool      ColumnType = "BOOL"
	TypeBytes     ColumnType = "BYTES"
	TypeTimestamp ColumnType = "TIMESTAMP"
	TypeDateTime  ColumnType = "DATETIME"
	TypeDate      ColumnType = "DATE"
	TypeTime      ColumnType = "TIME"
	TypeGeography ColumnType = "GEOGRAPHY"
	TypeOther     ColumnType = "OTHER"
)

type Column struct {
	Name     string
	Type     ColumnType
	Nullable bool
}

// Table is an ordered set of named columns with unordered rows. Cell values
// use one Go type per ColumnType:
//
//	STRING, GEOGRAPHY  string
//	INT64              int64
//	FLOAT64            float64
//	NUMERIC            *big.Rat
//	BOOL               bool
//	BYTES              []byte
//	TIMESTAMP          time.Time (UTC instant)
//	DATETIME           civil.DateTime (zone-naive)
//	DATE               civil.Date
//	TIME               civil.Time
//
// NULL is nil for every type.
type Table struct {
	Columns  []Column
	Rows     [][]any
	Duration time.Duration
}

type Engine interface {
	Query(ctx context.Context, sql string) (Table, error)
	Name() string
	Close() error
}

func (t Table) NumRows() int {
	return len(t.Rows)
}

func (t Table) ColumnNames() []string {
	return lo.Map(t.Columns, func(column Column, _ int) string { return column.Name })
}

// ColumnIndex returns -1 when the table has no column with that name.
func (t Table) ColumnIndex(name string) int {
	_, index, ok := lo.FindIndexOf(t.Columns, func(column Column) bool { return column.Name == name })
	if !ok {
		return -1
	}
	return index
}

func (t Table) Column(name string) ([]any, error) {
	index := t.ColumnIndex(name)
	if index < 0 {
		return nil, fmt.Errorf("column %q not found", name)
	}
	values := make([]any, len(t.Rows))
	for i, row := range t.Rows {
		values[i] = row[index]
	}
	return values, nil
}

func (t Table) Head(n int) Table {
	if n < 0 {
		n = 0
	}
	if n > len(t.Rows) {
		n = len(t.Rows)
	}
	return t.Select(lo.Range(n))
}

// Select returns a table holding the given rows in the given order. Rows are
// copied so the result can be changed without touching t.
func (t Table) Select(indices []int) Table {
	rows := make([][]any, 0, len(indices))
	for _, index := range indices {
		rows = append(rows, append([]any(nil), t.Rows[index]...))
	}
	return Table{
		Columns:  append([]Column(nil), t.Columns...),
		Rows:     rows,
		Duration: t.Duration,
	}
}
