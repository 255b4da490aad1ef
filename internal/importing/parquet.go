package importing

import (
	"context"
	"fmt"
	"os"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/apache/arrow-go/v18/parquet"
	"github.com/apache/arrow-go/v18/parquet/file"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"

	"flashdesk/internal/collection"
)

// ParquetImporter reads every column of a parquet file as text, one note per
// row. Column names become the field labels in the mapping dialog.
type ParquetImporter struct {
	tabular
}

func NewParquetImporter(col collection.Collection, path string) Importer {
	return &ParquetImporter{tabular: newTabular(col, path)}
}

func (i *ParquetImporter) NeedDelimiter() bool { return false }
func (i *ParquetImporter) Delimiter() rune     { return 0 }
func (i *ParquetImporter) SetDelimiter(rune)   {}
func (i *ParquetImporter) Dialect() rune       { return 0 }

func (i *ParquetImporter) Open() error {
	f, err := os.Open(i.path)
	if err != nil {
		return fmt.Errorf("failed to open parquet file: %w", err)
	}
	defer f.Close()

	pf, err := file.NewParquetReader(f, file.WithReadProps(&parquet.ReaderProperties{}))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnknownFormat, err)
	}
	defer pf.Close()

	reader, err := pqarrow.NewFileReader(pf, pqarrow.ArrowReadProperties{}, memory.NewGoAllocator())
	if err != nil {
		return fmt.Errorf("failed to create arrow reader: %w", err)
	}
	table, err := reader.ReadTable(context.Background())
	if err != nil {
		return fmt.Errorf("failed to read parquet data: %w", err)
	}
	defer table.Release()

	schema := table.Schema()
	if schema.NumFields() == 0 {
		return fmt.Errorf("%w: no columns", ErrUnknownFormat)
	}
	columns := make([]string, schema.NumFields())
	for c, field := range schema.Fields() {
		columns[c] = field.Name
	}

	rows := make([][]string, 0, table.NumRows())
	tr := array.NewTableReader(table, table.NumRows())
	defer tr.Release()
	for tr.Next() {
		rec := tr.Record()
		for r := 0; r < int(rec.NumRows()); r++ {
			row := make([]string, rec.NumCols())
			for c, col := range rec.Columns() {
				row[c] = cellString(col, r)
			}
			rows = append(rows, row)
		}
	}
	if err := tr.Err(); err != nil {
		return fmt.Errorf("failed to read parquet data: %w", err)
	}

	i.columns = columns
	i.rows = rows
	return nil
}

func (i *ParquetImporter) Run() error {
	if i.rows == nil {
		if err := i.Open(); err != nil {
			return err
		}
	}
	return i.importRows()
}

func cellString(col arrow.Array, r int) string {
	if col.IsNull(r) {
		return ""
	}
	switch a := col.(type) {
	case *array.String:
		return a.Value(r)
	case *array.LargeString:
		return a.Value(r)
	default:
		return col.ValueStr(r)
	}
}
