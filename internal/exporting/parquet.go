package exporting

import (
	"fmt"
	"os"
	"strings"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/apache/arrow-go/v18/parquet"
	"github.com/apache/arrow-go/v18/parquet/compress"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"

	"flashdesk/internal/collection"
)

// ParquetExporter writes one row per note with string columns field1..fieldN,
// N being the widest note type exported, plus a tags column when IncludeTags
// is set. Fields are stored as HTML.
type ParquetExporter struct {
	base
}

func NewParquetExporter(col collection.Collection) Exporter {
	return &ParquetExporter{base: newBase(col, KindPlainText, "parquet", ".parquet")}
}

func (e *ParquetExporter) ExportInto(path string) error {
	e.count = 0

	notes, err := e.notes()
	if err != nil {
		return fmt.Errorf("failed to read notes: %w", err)
	}

	width := 0
	for _, note := range notes {
		width = max(width, len(note.Fields))
	}
	width = max(width, 1)

	schema := parquetSchema(width, e.options.IncludeTags)
	builder := array.NewRecordBuilder(memory.NewGoAllocator(), schema)
	defer builder.Release()

	for _, note := range notes {
		for i := 0; i < width; i++ {
			value := ""
			if i < len(note.Fields) {
				value = note.Fields[i]
			}
			builder.Field(i).(*array.StringBuilder).Append(value)
		}
		if e.options.IncludeTags {
			builder.Field(width).(*array.StringBuilder).Append(strings.Join(note.Tags, " "))
		}
	}

	record := builder.NewRecord()
	defer record.Release()

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create parquet file: %w", err)
	}
	defer file.Close()

	props := parquet.NewWriterProperties(parquet.WithCompression(compress.Codecs.Snappy))
	arrowProps := pqarrow.NewArrowWriterProperties(pqarrow.WithStoreSchema())

	writer, err := pqarrow.NewFileWriter(schema, file, props, arrowProps)
	if err != nil {
		return fmt.Errorf("failed to create parquet writer: %w", err)
	}
	if err := writer.Write(record); err != nil {
		writer.Close()
		return fmt.Errorf("failed to write parquet rows: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to finish parquet file: %w", err)
	}

	e.count = len(notes)
	return nil
}

// ParquetTagsColumn names the optional tags column.
const ParquetTagsColumn = "tags"

func parquetSchema(width int, withTags bool) *arrow.Schema {
	fields := make([]arrow.Field, 0, width+1)
	for i := 0; i < width; i++ {
		fields = append(fields, arrow.Field{Name: fmt.Sprintf("field%d", i+1), Type: arrow.BinaryTypes.String})
	}
	if withTags {
		fields = append(fields, arrow.Field{Name: ParquetTagsColumn, Type: arrow.BinaryTypes.String})
	}
	return arrow.NewSchema(fields, nil)
}
