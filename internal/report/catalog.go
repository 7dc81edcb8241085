package report

import (
	"context"
	"fmt"
	"strings"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/datapeak/merchant-insights/internal/dataframe"
	"github.com/datapeak/merchant-insights/internal/errs"
)

// CatalogWriter materializes result tables in PostgreSQL. Each write drops
// and recreates the table with a schema derived from the frame, then bulk
// loads the rows with COPY.
type CatalogWriter struct {
	pool   *pgxpool.Pool
	schema string
}

// NewCatalogWriter connects to the catalog database. The caller owns the
// returned writer and must Close it.
func NewCatalogWriter(ctx context.Context, dsn, schema string) (*CatalogWriter, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, errs.NewWriteError("CatalogWriter", dsn, err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, errs.NewWriteError("CatalogWriter", dsn, err)
	}
	if schema == "" {
		schema = "public"
	}
	return &CatalogWriter{pool: pool, schema: schema}, nil
}

// Close releases the connection pool.
func (w *CatalogWriter) Close() {
	w.pool.Close()
}

// Write replaces the catalog table with the frame's contents.
func (w *CatalogWriter) Write(ctx context.Context, table string, df *dataframe.DataFrame) error {
	destination := w.schema + "." + table

	columns := df.Columns()
	defs := make([]string, 0, len(columns))
	for _, name := range columns {
		col, _ := df.Column(name)
		sqlType, err := sqlTypeFor(col.DataType())
		if err != nil {
			return errs.NewWriteError("CatalogWriter", destination, err)
		}
		defs = append(defs, pgx.Identifier{name}.Sanitize()+" "+sqlType)
	}

	ident := pgx.Identifier{w.schema, table}
	drop := "DROP TABLE IF EXISTS " + ident.Sanitize()
	create := fmt.Sprintf("CREATE TABLE %s (%s)", ident.Sanitize(), strings.Join(defs, ", "))

	if _, err := w.pool.Exec(ctx, drop); err != nil {
		return errs.NewWriteError("CatalogWriter", destination, err)
	}
	if _, err := w.pool.Exec(ctx, create); err != nil {
		return errs.NewWriteError("CatalogWriter", destination, err)
	}

	rows, err := frameRows(df)
	if err != nil {
		return errs.NewWriteError("CatalogWriter", destination, err)
	}

	if _, err := w.pool.CopyFrom(ctx, ident, columns, pgx.CopyFromRows(rows)); err != nil {
		return errs.NewWriteError("CatalogWriter", destination, err)
	}
	return nil
}

// sqlTypeFor maps an Arrow column type to its PostgreSQL column type.
func sqlTypeFor(dt arrow.DataType) (string, error) {
	switch dt.ID() {
	case arrow.STRING:
		return "text", nil
	case arrow.INT64:
		return "bigint", nil
	case arrow.FLOAT64:
		return "double precision", nil
	case arrow.BOOL:
		return "boolean", nil
	default:
		return "", fmt.Errorf("unsupported column type %s", dt)
	}
}

// frameRows converts the frame to COPY rows; null slots become SQL NULL.
func frameRows(df *dataframe.DataFrame) ([][]any, error) {
	columns := df.Columns()
	arrays := make([]arrow.Array, len(columns))
	for i, name := range columns {
		col, _ := df.Column(name)
		arrays[i] = col.Array()
	}
	defer func() {
		for _, arr := range arrays {
			arr.Release()
		}
	}()

	rows := make([][]any, df.Len())
	for i := 0; i < df.Len(); i++ {
		row := make([]any, len(arrays))
		for j, arr := range arrays {
			if arr.IsNull(i) {
				continue
			}
			switch typed := arr.(type) {
			case *array.String:
				row[j] = typed.Value(i)
			case *array.Int64:
				row[j] = typed.Value(i)
			case *array.Float64:
				row[j] = typed.Value(i)
			case *array.Boolean:
				row[j] = typed.Value(i)
			default:
				return nil, fmt.Errorf("unsupported column type %s", arr.DataType())
			}
		}
		rows[i] = row
	}
	return rows, nil
}
