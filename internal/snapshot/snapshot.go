// Package snapshot persists query results as local columnar files so an
// analysis can be resumed without re-querying the warehouse.
package snapshot

import (
	"encoding/json"
	"fmt"
	"math/big"
	"os"
	"path/filepath"
	"strings"
	"time"

	"cloud.google.com/go/civil"

	"github.com/pickuplens/pickuplens/internal/observability"
	"github.com/pickuplens/pickuplens/internal/warehouse"
)

type Format string

const (
	FormatFeather Format = "feather"
	FormatParquet Format = "parquet"
)

// metadataKey holds the JSON encoded column list in both file formats.
const metadataKey = "pickuplens.columns"

// FormatFor picks the file format from the path extension.
func FormatFor(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".feather", ".arrow":
		return FormatFeather, nil
	case ".parquet":
		return FormatParquet, nil
	default:
		return "", fmt.Errorf("unsupported snapshot extension %q", filepath.Ext(path))
	}
}

func Encode(format Format, table warehouse.Table) ([]byte, error) {
	if err := validateColumns(table.Columns); err != nil {
		return nil, err
	}
	switch format {
	case FormatFeather:
		return encodeFeather(table)
	case FormatParquet:
		return encodeParquet(table)
	default:
		return nil, fmt.Errorf("unsupported snapshot format %q", format)
	}
}

func Decode(format Format, data []byte) (warehouse.Table, error) {
	switch format {
	case FormatFeather:
		return decodeFeather(data)
	case FormatParquet:
		return decodeParquet(data)
	default:
		return warehouse.Table{}, fmt.Errorf("unsupported snapshot format %q", format)
	}
}

// Write replaces the file at path with the encoded table, creating parent
// directories as needed.
func Write(path string, table warehouse.Table) error {
	format, err := FormatFor(path)
	if err != nil {
		return err
	}
	data, err := Encode(format, table)
	if err != nil {
		return fmt.Errorf("encode %s snapshot: %w", format, err)
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create snapshot dir: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write snapshot %q: %w", path, err)
	}
	observability.ObserveSnapshotWrite(string(format), int64(len(data)))
	return nil
}

func Read(path string) (warehouse.Table, error) {
	format, err := FormatFor(path)
	if err != nil {
		return warehouse.Table{}, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return warehouse.Table{}, fmt.Errorf("read snapshot %q: %w", path, err)
	}
	table, err := Decode(format, data)
	if err != nil {
		return warehouse.Table{}, fmt.Errorf("decode %s snapshot %q: %w", format, path, err)
	}
	return table, nil
}

type storedColumn struct {
	Name     string               `json:"name"`
	Type     warehouse.ColumnType `json:"type"`
	Nullable bool                 `json:"nullable,omitempty"`
}

func encodeColumns(columns []warehouse.Column) (string, error) {
	stored := make([]storedColumn, 0, len(columns))
	for _, column := range columns {
		stored = append(stored, storedColumn{Name: column.Name, Type: column.Type, Nullable: column.Nullable})
	}
	raw, err := json.Marshal(stored)
	if err != nil {
		return "", fmt.Errorf("encode column metadata: %w", err)
	}
	return string(raw), nil
}

func decodeColumns(raw string) ([]warehouse.Column, error) {
	var stored []storedColumn
	if err := json.Unmarshal([]byte(raw), &stored); err != nil {
		return nil, fmt.Errorf("decode column metadata: %w", err)
	}
	columns := make([]warehouse.Column, 0, len(stored))
	for _, column := range stored {
		columns = append(columns, warehouse.Column{Name: column.Name, Type: column.Type, Nullable: column.Nullable})
	}
	return columns, nil
}

func validateColumns(columns []warehouse.Column) error {
	seen := make(map[string]struct{}, len(columns))
	for _, column := range columns {
		if column.Name == "" {
			return fmt.Errorf("column name is required")
		}
		if _, ok := seen[column.Name]; ok {
			return fmt.Errorf("duplicate column %q", column.Name)
		}
		seen[column.Name] = struct{}{}
	}
	return nil
}

// storedAsString reports the column types kept as their text form.
func storedAsString(columnType warehouse.ColumnType) bool {
	switch columnType {
	case warehouse.TypeInt64, warehouse.TypeFloat64, warehouse.TypeBool, warehouse.TypeBytes,
		warehouse.TypeTimestamp, warehouse.TypeDateTime, warehouse.TypeDate:
		return false
	default:
		return true
	}
}

// cell is a non-null table value coerced to the physical type both formats
// store for its column.
type cell struct {
	str    string
	i64    int64
	f64    float64
	b      bool
	bytes  []byte
	micros int64
	days   int32
}

func encodeCell(column warehouse.Column, value any) (cell, error) {
	value = warehouse.ConvertValue(column.Type, value)
	switch column.Type {
	case warehouse.TypeInt64:
		if v, ok := value.(int64); ok {
			return cell{i64: v}, nil
		}
	case warehouse.TypeFloat64:
		if v, ok := value.(float64); ok {
			return cell{f64: v}, nil
		}
	case warehouse.TypeBool:
		if v, ok := value.(bool); ok {
			return cell{b: v}, nil
		}
	case warehouse.TypeBytes:
		if v, ok := value.([]byte); ok {
			return cell{bytes: v}, nil
		}
	case warehouse.TypeTimestamp:
		if v, ok := value.(time.Time); ok {
			return cell{micros: v.UnixMicro()}, nil
		}
	case warehouse.TypeDateTime:
		if v, ok := value.(civil.DateTime); ok {
			return cell{micros: v.In(utc).UnixMicro()}, nil
		}
	case warehouse.TypeDate:
		if v, ok := value.(civil.Date); ok {
			return cell{days: int32(v.DaysSince(epoch))}, nil
		}
	case warehouse.TypeNumeric:
		if v, ok := value.(*big.Rat); ok {
			return cell{str: formatRat(v)}, nil
		}
		return cell{str: fmt.Sprint(value)}, nil
	default:
		if v, ok := value.(fmt.Stringer); ok {
			return cell{str: v.String()}, nil
		}
		return cell{str: fmt.Sprint(value)}, nil
	}
	return cell{}, fmt.Errorf("column %q: cannot store %T as %s", column.Name, value, column.Type)
}

// decodeString restores a text-stored value to its column type.
func decodeString(column warehouse.Column, value string) (any, error) {
	switch column.Type {
	case warehouse.TypeNumeric:
		rat, ok := new(big.Rat).SetString(value)
		if !ok {
			return nil, fmt.Errorf("column %q: invalid numeric %q", column.Name, value)
		}
		return rat, nil
	case warehouse.TypeTime:
		parsed, err := civil.ParseTime(value)
		if err != nil {
			return nil, fmt.Errorf("column %q: %w", column.Name, err)
		}
		return parsed, nil
	default:
		return value, nil
	}
}

// formatRat prints a rational as an exact decimal when it has one.
func formatRat(value *big.Rat) string {
	if value.IsInt() {
		return value.Num().String()
	}
	text := value.FloatString(38)
	text = strings.TrimRight(text, "0")
	return strings.TrimSuffix(text, ".")
}
