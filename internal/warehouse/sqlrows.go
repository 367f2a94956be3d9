package warehouse

import (
	"database/sql"
	"fmt"
	"strings"
)

// ScanRows drains rows into a Table, typing columns from the driver's
// database type names. The caller still owns and closes rows.
func ScanRows(rows *sql.Rows) (Table, error) {
	columnTypes, err := rows.ColumnTypes()
	if err != nil {
		return Table{}, fmt.Errorf("query columns: %w", err)
	}

	columns := make([]Column, len(columnTypes))
	for i, columnType := range columnTypes {
		nullable, ok := columnType.Nullable()
		columns[i] = Column{
			Name:     columnType.Name(),
			Type:     TypeFromDatabaseName(columnType.DatabaseTypeName()),
			Nullable: nullable || !ok,
		}
	}

	resultRows := make([][]any, 0)
	for rows.Next() {
		values := make([]any, len(columns))
		scanTargets := make([]any, len(columns))
		for i := range values {
			scanTargets[i] = &values[i]
		}
		if err := rows.Scan(scanTargets...); err != nil {
			return Table{}, fmt.Errorf("scan row: %w", err)
		}
		for i, value := range values {
			values[i] = ConvertValue(columns[i].Type, value)
		}
		resultRows = append(resultRows, values)
	}
	if err := rows.Err(); err != nil {
		return Table{}, fmt.Errorf("iterate rows: %w", err)
	}

	return Table{Columns: columns, Rows: resultRows}, nil
}

// TypeFromDatabaseName maps DuckDB and PostgreSQL type names onto ColumnType.
func TypeFromDatabaseName(name string) ColumnType {
	name = strings.ToUpper(strings.TrimSpace(name))
	base := name
	if i := strings.IndexByte(base, '('); i >= 0 {
		base = strings.TrimSpace(base[:i])
	}

	switch {
	case base == "TIMESTAMPTZ" || strings.HasPrefix(base, "TIMESTAMP WITH TIME ZONE"):
		return TypeTimestamp
	case strings.HasPrefix(base, "TIMESTAMP") || base == "DATETIME":
		return TypeDateTime
	case base == "DATE":
		return TypeDate
	case base == "TIME" || base == "TIMETZ" || strings.HasPrefix(base, "TIME "):
		return TypeTime
	}

	switch base {
	case "TINYINT", "SMALLINT", "INTEGER", "INT", "BIGINT", "HUGEINT",
		"UTINYINT", "USMALLINT", "UINTEGER", "UBIGINT",
		"INT2", "INT4", "INT8", "INT64", "SERIAL", "BIGSERIAL":
		return TypeInt64
	case "DOUBLE", "FLOAT", "REAL", "FLOAT4", "FLOAT8", "FLOAT64", "DOUBLE PRECISION":
		return TypeFloat64
	case "DECIMAL", "NUMERIC", "BIGNUMERIC":
		return TypeNumeric
	case "VARCHAR", "TEXT", "STRING", "CHAR", "BPCHAR", "NAME", "UUID", "JSON", "JSONB",
		"CHARACTER VARYING", "CHARACTER":
		return TypeString
	case "BOOLEAN", "BOOL":
		return TypeBool
	case "BLOB", "BYTEA", "BYTES", "VARBINARY":
		return TypeBytes
	case "GEOGRAPHY", "GEOMETRY":
		return TypeGeography
	default:
		return TypeOther
	}
}
