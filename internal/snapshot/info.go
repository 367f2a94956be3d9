package snapshot

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/pickuplens/pickuplens/internal/warehouse"
)

type ColumnInfo struct {
	Name     string
	Type     warehouse.ColumnType
	NonNull  int
	Nullable bool
}

// Info summarizes each column with its non-null count.
func Info(table warehouse.Table) []ColumnInfo {
	infos := make([]ColumnInfo, len(table.Columns))
	for i, column := range table.Columns {
		infos[i] = ColumnInfo{Name: column.Name, Type: column.Type, Nullable: column.Nullable}
	}
	for _, row := range table.Rows {
		for i := range infos {
			if i < len(row) && row[i] != nil {
				infos[i].NonNull++
			}
		}
	}
	return infos
}

// WriteInfo prints the column summary in the layout of a dataframe info dump.
func WriteInfo(w io.Writer, table warehouse.Table) error {
	if _, err := fmt.Fprintf(w, "%d rows, %d columns\n", table.NumRows(), len(table.Columns)); err != nil {
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "#\tColumn\tNon-Null Count\tType")
	for i, info := range Info(table) {
		_, _ = fmt.Fprintf(tw, "%d\t%s\t%d non-null\t%s\n", i, info.Name, info.NonNull, info.Type)
	}
	return tw.Flush()
}

// WriteHead prints the first n rows as an aligned text table.
func WriteHead(w io.Writer, table warehouse.Table, n int) error {
	head := table.Head(n)
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for i, name := range head.ColumnNames() {
		if i > 0 {
			_, _ = fmt.Fprint(tw, "\t")
		}
		_, _ = fmt.Fprint(tw, name)
	}
	_, _ = fmt.Fprintln(tw)
	for _, row := range head.Rows {
		for i, value := range row {
			if i > 0 {
				_, _ = fmt.Fprint(tw, "\t")
			}
			_, _ = fmt.Fprint(tw, warehouse.FormatValue(value))
		}
		_, _ = fmt.Fprintln(tw)
	}
	return tw.Flush()
}
