package snapshot

import (
	"bytes"
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/ipc"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/pickuplens/pickuplens/internal/warehouse"
)

func arrowType(columnType warehouse.ColumnType) arrow.DataType {
	switch columnType {
	case warehouse.TypeInt64:
		return arrow.PrimitiveTypes.Int64
	case warehouse.TypeFloat64:
		return arrow.PrimitiveTypes.Float64
	case warehouse.TypeBool:
		return arrow.FixedWidthTypes.Boolean
	case warehouse.TypeBytes:
		return arrow.BinaryTypes.Binary
	case warehouse.TypeTimestamp:
		return &arrow.TimestampType{Unit: arrow.Microsecond, TimeZone: "UTC"}
	case warehouse.TypeDateTime:
		return &arrow.TimestampType{Unit: arrow.Microsecond}
	case warehouse.TypeDate:
		return arrow.FixedWidthTypes.Date32
	default:
		return arrow.BinaryTypes.String
	}
}

func encodeFeather(table warehouse.Table) ([]byte, error) {
	columnsJSON, err := encodeColumns(table.Columns)
	if err != nil {
		return nil, err
	}
	fields := make([]arrow.Field, 0, len(table.Columns))
	for _, column := range table.Columns {
		fields = append(fields, arrow.Field{Name: column.Name, Type: arrowType(column.Type), Nullable: true})
	}
	metadata := arrow.NewMetadata([]string{metadataKey}, []string{columnsJSON})
	schema := arrow.NewSchema(fields, &metadata)

	mem := memory.NewGoAllocator()
	builder := array.NewRecordBuilder(mem, schema)
	defer builder.Release()

	for rowIndex, row := range table.Rows {
		if len(row) != len(table.Columns) {
			return nil, fmt.Errorf("row %d has %d values, want %d", rowIndex, len(row), len(table.Columns))
		}
		for i, column := range table.Columns {
			if err := appendArrow(builder.Field(i), column, row[i]); err != nil {
				return nil, fmt.Errorf("row %d: %w", rowIndex, err)
			}
		}
	}
	record := builder.NewRecord()
	defer record.Release()

	buf := bytes.NewBuffer(nil)
	writer, err := ipc.NewFileWriter(buf, ipc.WithSchema(schema), ipc.WithAllocator(mem))
	if err != nil {
		return nil, fmt.Errorf("create arrow writer: %w", err)
	}
	if err := writer.Write(record); err != nil {
		_ = writer.Close()
		return nil, fmt.Errorf("write arrow record: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("close arrow writer: %w", err)
	}
	return buf.Bytes(), nil
}

func appendArrow(builder array.Builder, column warehouse.Column, value any) error {
	if value == nil {
		builder.AppendNull()
		return nil
	}
	c, err := encodeCell(column, value)
	if err != nil {
		return err
	}
	switch b := builder.(type) {
	case *array.Int64Builder:
		b.Append(c.i64)
	case *array.Float64Builder:
		b.Append(c.f64)
	case *array.BooleanBuilder:
		b.Append(c.b)
	case *array.StringBuilder:
		b.Append(c.str)
	case *array.BinaryBuilder:
		b.Append(c.bytes)
	case *array.TimestampBuilder:
		b.Append(arrow.Timestamp(c.micros))
	case *array.Date32Builder:
		b.Append(arrow.Date32(c.days))
	default:
		return fmt.Errorf("column %q: unexpected arrow builder %T", column.Name, builder)
	}
	return nil
}

func decodeFeather(data []byte) (warehouse.Table, error) {
	mem := memory.NewGoAllocator()
	reader, err := ipc.NewFileReader(bytes.NewReader(data), ipc.WithAllocator(mem))
	if err != nil {
		return warehouse.Table{}, fmt.Errorf("open arrow file: %w", err)
	}
	defer func() { _ = reader.Close() }()

	schema := reader.Schema()
	columns, err := arrowColumns(schema)
	if err != nil {
		return warehouse.Table{}, err
	}

	table := warehouse.Table{Columns: columns, Rows: [][]any{}}
	for i := 0; i < reader.NumRecords(); i++ {
		record, err := reader.Record(i)
		if err != nil {
			return warehouse.Table{}, fmt.Errorf("read arrow record %d: %w", i, err)
		}
		for row := 0; row < int(record.NumRows()); row++ {
			values := make([]any, len(columns))
			for col, column := range columns {
				value, err := arrowValue(record.Column(col), row, column)
				if err != nil {
					return warehouse.Table{}, err
				}
				values[col] = value
			}
			table.Rows = append(table.Rows, values)
		}
	}
	return table, nil
}

// arrowColumns prefers the stored column list and falls back to the arrow
// types for files written by other tools.
func arrowColumns(schema *arrow.Schema) ([]warehouse.Column, error) {
	metadata := schema.Metadata()
	if index := metadata.FindKey(metadataKey); index >= 0 {
		columns, err := decodeColumns(metadata.Values()[index])
		if err != nil {
			return nil, err
		}
		if len(columns) != schema.NumFields() {
			return nil, fmt.Errorf("column metadata lists %d columns, file has %d", len(columns), schema.NumFields())
		}
		return columns, nil
	}

	columns := make([]warehouse.Column, 0, schema.NumFields())
	for _, field := range schema.Fields() {
		columns = append(columns, warehouse.Column{Name: field.Name, Type: columnTypeFromArrow(field.Type), Nullable: field.Nullable})
	}
	return columns, nil
}

func columnTypeFromArrow(dataType arrow.DataType) warehouse.ColumnType {
	switch dataType.ID() {
	case arrow.INT8, arrow.INT16, arrow.INT32, arrow.INT64, arrow.UINT8, arrow.UINT16, arrow.UINT32:
		return warehouse.TypeInt64
	case arrow.FLOAT32, arrow.FLOAT64:
		return warehouse.TypeFloat64
	case arrow.BOOL:
		return warehouse.TypeBool
	case arrow.STRING, arrow.LARGE_STRING:
		return warehouse.TypeString
	case arrow.BINARY, arrow.LARGE_BINARY:
		return warehouse.TypeBytes
	case arrow.TIMESTAMP:
		if dataType.(*arrow.TimestampType).TimeZone == "" {
			return warehouse.TypeDateTime
		}
		return warehouse.TypeTimestamp
	case arrow.DATE32:
		return warehouse.TypeDate
	default:
		return warehouse.TypeOther
	}
}

func arrowValue(arr arrow.Array, row int, column warehouse.Column) (any, error) {
	if arr.IsNull(row) {
		return nil, nil
	}
	switch a := arr.(type) {
	case *array.Int64:
		return a.Value(row), nil
	case *array.Int32:
		return int64(a.Value(row)), nil
	case *array.Int16:
		return int64(a.Value(row)), nil
	case *array.Int8:
		return int64(a.Value(row)), nil
	case *array.Uint32:
		return int64(a.Value(row)), nil
	case *array.Uint16:
		return int64(a.Value(row)), nil
	case *array.Uint8:
		return int64(a.Value(row)), nil
	case *array.Float64:
		return a.Value(row), nil
	case *array.Float32:
		return float64(a.Value(row)), nil
	case *array.Boolean:
		return a.Value(row), nil
	case *array.String:
		return decodeString(column, a.Value(row))
	case *array.LargeString:
		return decodeString(column, a.Value(row))
	case *array.Binary:
		return bytes.Clone(a.Value(row)), nil
	case *array.LargeBinary:
		return bytes.Clone(a.Value(row)), nil
	case *array.Timestamp:
		ts := a.Value(row).ToTime(a.DataType().(*arrow.TimestampType).Unit)
		if column.Type == warehouse.TypeDateTime {
			return dateTimeFromMicros(ts.UnixMicro()), nil
		}
		return ts.UTC(), nil
	case *array.Date32:
		return dateFromDays(int32(a.Value(row))), nil
	default:
		return arr.ValueStr(row), nil
	}
}
