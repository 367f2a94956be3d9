package snapshot

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/parquet-go/parquet-go"

	"github.com/pickuplens/pickuplens/internal/warehouse"
)

func parquetNode(columnType warehouse.ColumnType) parquet.Node {
	switch columnType {
	case warehouse.TypeInt64:
		return parquet.Int(64)
	case warehouse.TypeFloat64:
		return parquet.Leaf(parquet.DoubleType)
	case warehouse.TypeBool:
		return parquet.Leaf(parquet.BooleanType)
	case warehouse.TypeBytes:
		return parquet.Leaf(parquet.ByteArrayType)
	case warehouse.TypeTimestamp, warehouse.TypeDateTime:
		return parquet.Timestamp(parquet.Microsecond)
	case warehouse.TypeDate:
		return parquet.Date()
	default:
		return parquet.String()
	}
}

// parquetSchema builds a flat schema of optional columns. Parquet orders
// group fields by name, so leaf maps each table column to its leaf index.
func parquetSchema(columns []warehouse.Column) (*parquet.Schema, []int) {
	group := parquet.Group{}
	for _, column := range columns {
		group[column.Name] = parquet.Optional(parquetNode(column.Type))
	}
	schema := parquet.NewSchema("snapshot", group)

	byName := make(map[string]int, len(columns))
	for index, field := range schema.Fields() {
		byName[field.Name()] = index
	}
	leaf := make([]int, len(columns))
	for i, column := range columns {
		leaf[i] = byName[column.Name]
	}
	return schema, leaf
}

func encodeParquet(table warehouse.Table) ([]byte, error) {
	columnsJSON, err := encodeColumns(table.Columns)
	if err != nil {
		return nil, err
	}
	schema, leaf := parquetSchema(table.Columns)

	rows := make([]parquet.Row, 0, len(table.Rows))
	for rowIndex, row := range table.Rows {
		if len(row) != len(table.Columns) {
			return nil, fmt.Errorf("row %d has %d values, want %d", rowIndex, len(row), len(table.Columns))
		}
		out := make(parquet.Row, len(table.Columns))
		for i, column := range table.Columns {
			if row[i] == nil {
				out[leaf[i]] = parquet.NullValue().Level(0, 0, leaf[i])
				continue
			}
			value, err := parquetValue(column, row[i])
			if err != nil {
				return nil, fmt.Errorf("row %d: %w", rowIndex, err)
			}
			out[leaf[i]] = value.Level(0, 1, leaf[i])
		}
		rows = append(rows, out)
	}

	buf := bytes.NewBuffer(nil)
	writer := parquet.NewWriter(buf, schema, parquet.KeyValueMetadata(metadataKey, columnsJSON))
	if _, err := writer.WriteRows(rows); err != nil {
		return nil, fmt.Errorf("write parquet rows: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("close parquet writer: %w", err)
	}
	return buf.Bytes(), nil
}

func parquetValue(column warehouse.Column, value any) (parquet.Value, error) {
	c, err := encodeCell(column, value)
	if err != nil {
		return parquet.Value{}, err
	}
	switch column.Type {
	case warehouse.TypeInt64:
		return parquet.Int64Value(c.i64), nil
	case warehouse.TypeFloat64:
		return parquet.DoubleValue(c.f64), nil
	case warehouse.TypeBool:
		return parquet.BooleanValue(c.b), nil
	case warehouse.TypeBytes:
		return parquet.ByteArrayValue(c.bytes), nil
	case warehouse.TypeTimestamp, warehouse.TypeDateTime:
		return parquet.Int64Value(c.micros), nil
	case warehouse.TypeDate:
		return parquet.Int32Value(c.days), nil
	default:
		return parquet.ByteArrayValue([]byte(c.str)), nil
	}
}

// parquetLeaf describes how to read one leaf column back.
type parquetLeaf struct {
	column warehouse.Column
	// microsPerUnit scales int64 timestamps to microseconds; negative divides.
	microsPerUnit int64
}

func decodeParquet(data []byte) (warehouse.Table, error) {
	file, err := parquet.OpenFile(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return warehouse.Table{}, fmt.Errorf("open parquet file: %w", err)
	}
	fields := file.Schema().Fields()
	leaves := make([]parquetLeaf, len(fields))
	for index, field := range fields {
		if !field.Leaf() {
			return warehouse.Table{}, fmt.Errorf("nested parquet column %q is not supported", field.Name())
		}
		leaves[index] = parquetLeaf{column: columnFromParquet(field), microsPerUnit: microsPerUnit(field)}
	}

	// Stored column order wins over the schema's name order.
	columns := make([]warehouse.Column, len(fields))
	position := make([]int, len(fields))
	if raw, ok := file.Lookup(metadataKey); ok {
		stored, err := decodeColumns(raw)
		if err != nil {
			return warehouse.Table{}, err
		}
		if len(stored) != len(fields) {
			return warehouse.Table{}, fmt.Errorf("column metadata lists %d columns, file has %d", len(stored), len(fields))
		}
		byName := make(map[string]int, len(fields))
		for index, field := range fields {
			byName[field.Name()] = index
		}
		for i, column := range stored {
			index, ok := byName[column.Name]
			if !ok {
				return warehouse.Table{}, fmt.Errorf("column %q missing from parquet schema", column.Name)
			}
			leaves[index].column = column
			position[index] = i
			columns[i] = column
		}
	} else {
		for index := range fields {
			position[index] = index
			columns[index] = leaves[index].column
		}
	}

	table := warehouse.Table{Columns: columns, Rows: [][]any{}}
	buffer := make([]parquet.Row, 128)
	for _, rowGroup := range file.RowGroups() {
		if err := readRowGroup(rowGroup, buffer, leaves, position, &table); err != nil {
			return warehouse.Table{}, err
		}
	}
	return table, nil
}

func readRowGroup(rowGroup parquet.RowGroup, buffer []parquet.Row, leaves []parquetLeaf, position []int, table *warehouse.Table) error {
	rows := rowGroup.Rows()
	defer func() { _ = rows.Close() }()
	for {
		n, err := rows.ReadRows(buffer)
		for _, row := range buffer[:n] {
			values := make([]any, len(leaves))
			for _, value := range row {
				index := value.Column()
				if index < 0 || index >= len(leaves) || value.IsNull() {
					continue
				}
				converted, err := leaves[index].value(value)
				if err != nil {
					return err
				}
				values[position[index]] = converted
			}
			table.Rows = append(table.Rows, values)
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read parquet rows: %w", err)
		}
	}
}

func (l parquetLeaf) value(value parquet.Value) (any, error) {
	switch l.column.Type {
	case warehouse.TypeInt64:
		if value.Kind() == parquet.Int32 {
			return int64(value.Int32()), nil
		}
		return value.Int64(), nil
	case warehouse.TypeFloat64:
		if value.Kind() == parquet.Float {
			return float64(value.Float()), nil
		}
		return value.Double(), nil
	case warehouse.TypeBool:
		return value.Boolean(), nil
	case warehouse.TypeBytes:
		return bytes.Clone(value.ByteArray()), nil
	case warehouse.TypeTimestamp:
		return timestampFromMicros(l.micros(value.Int64())), nil
	case warehouse.TypeDateTime:
		return dateTimeFromMicros(l.micros(value.Int64())), nil
	case warehouse.TypeDate:
		return dateFromDays(value.Int32()), nil
	default:
		return decodeString(l.column, string(value.ByteArray()))
	}
}

func (l parquetLeaf) micros(raw int64) int64 {
	switch {
	case l.microsPerUnit > 0:
		return raw * l.microsPerUnit
	case l.microsPerUnit < 0:
		return raw / -l.microsPerUnit
	default:
		return raw
	}
}

func columnFromParquet(field parquet.Field) warehouse.Column {
	column := warehouse.Column{Name: field.Name(), Nullable: field.Optional()}
	logical := field.Type().LogicalType()
	switch {
	case logical != nil && logical.Timestamp != nil:
		column.Type = warehouse.TypeDateTime
		if logical.Timestamp.IsAdjustedToUTC {
			column.Type = warehouse.TypeTimestamp
		}
	case logical != nil && logical.Date != nil:
		column.Type = warehouse.TypeDate
	case logical != nil && logical.UTF8 != nil:
		column.Type = warehouse.TypeString
	default:
		switch field.Type().Kind() {
		case parquet.Boolean:
			column.Type = warehouse.TypeBool
		case parquet.Int32, parquet.Int64:
			column.Type = warehouse.TypeInt64
		case parquet.Float, parquet.Double:
			column.Type = warehouse.TypeFloat64
		case parquet.ByteArray, parquet.FixedLenByteArray:
			column.Type = warehouse.TypeBytes
		default:
			column.Type = warehouse.TypeOther
		}
	}
	return column
}

func microsPerUnit(field parquet.Field) int64 {
	logical := field.Type().LogicalType()
	if logical == nil || logical.Timestamp == nil {
		return 1
	}
	switch {
	case logical.Timestamp.Unit.Millis != nil:
		return 1000
	case logical.Timestamp.Unit.Nanos != nil:
		return -1000
	default:
		return 1
	}
}
