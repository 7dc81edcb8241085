//nolint:testpackage // requires internal access to unexported types and functions
package job

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/datapeak/merchant-insights/internal/analysis"
	"github.com/datapeak/merchant-insights/internal/config"
	"github.com/datapeak/merchant-insights/internal/dataframe"
	dataio "github.com/datapeak/merchant-insights/internal/io"
	"github.com/datapeak/merchant-insights/internal/logging"
	"github.com/datapeak/merchant-insights/internal/series"
)

func TestParseSelection(t *testing.T) {
	tests := []struct {
		input   string
		want    []int
		wantErr bool
	}{
		{input: "all", want: []int{1, 2, 3, 4, 5}},
		{input: "", want: []int{1, 2, 3, 4, 5}},
		{input: "3", want: []int{3}},
		{input: "5,1,3", want: []int{1, 3, 5}},
		{input: "2,2", want: []int{2}},
		{input: "0", wantErr: true},
		{input: "6", wantErr: true},
		{input: "two", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseSelection(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

// writeInputs materializes a small transactions Parquet file and a
// merchants CSV file under dir.
func writeInputs(t *testing.T, dir string) (string, string) {
	t.Helper()
	mem := memory.NewGoAllocator()

	when := time.Date(2024, 5, 20, 11, 0, 0, 0, time.UTC).Unix()
	tx := dataframe.New(
		series.New("merchant_id", []string{"m1", "m2", "m1"}, mem),
		series.New("purchase_amount", []float64{10, 25, 40}, mem),
		series.New("purchase_date", []int64{when, when, when}, mem),
		series.NewWithNulls("category", []string{"food", "", "food"}, []bool{true, false, true}, mem),
		series.New("installments", []int64{0, 2, 0}, mem),
	)

	txPath := filepath.Join(dir, "transactions.parquet")
	f, err := os.Create(txPath)
	require.NoError(t, err)
	require.NoError(t, dataio.NewParquetWriter(f, dataio.DefaultParquetOptions()).Write(tx))
	require.NoError(t, f.Close())

	merchantsPath := filepath.Join(dir, "merchants.csv")
	csv := "merchant_id,merchant_name,city_id,state_id\nm1,Acme,1,10\nm2,,2,20\n"
	require.NoError(t, os.WriteFile(merchantsPath, []byte(csv), 0o600))

	return txPath, merchantsPath
}

type fakeWriter struct {
	tables []string
	errFor map[string]error
}

func (w *fakeWriter) Write(_ context.Context, table string, _ *dataframe.DataFrame) error {
	if err, ok := w.errFor[table]; ok {
		return err
	}
	w.tables = append(w.tables, table)
	return nil
}

func testConfig(txPath, merchantsPath string) config.Config {
	cfg := config.NewConfig()
	cfg.TransactionsPath = txPath
	cfg.MerchantsPath = merchantsPath
	return cfg
}

func TestRunAllTasks(t *testing.T) {
	txPath, merchantsPath := writeInputs(t, t.TempDir())
	writer := &fakeWriter{}
	runner := NewRunner(testConfig(txPath, merchantsPath), logging.NewWithWriter(os.Stderr), writer)

	selection, err := ParseSelection("all")
	require.NoError(t, err)

	results, err := runner.Run(context.Background(), selection)
	require.NoError(t, err)
	require.Len(t, results, TaskCount)

	for _, result := range results {
		assert.NoError(t, result.Err, result.Name)
		assert.NotEmpty(t, result.Tables, result.Name)
	}

	// Ten tables across the five tasks.
	assert.Len(t, writer.tables, 10)
	assert.Contains(t, writer.tables, analysis.TableTopMerchants)
	assert.Contains(t, writer.tables, analysis.TableInstallmentProf)
}

func TestRunSingleTask(t *testing.T) {
	txPath, merchantsPath := writeInputs(t, t.TempDir())
	writer := &fakeWriter{}
	runner := NewRunner(testConfig(txPath, merchantsPath), logging.NewWithWriter(os.Stderr), writer)

	results, err := runner.Run(context.Background(), []int{2})
	require.NoError(t, err)
	require.Len(t, results, 1)

	assert.Equal(t, 2, results[0].Task)
	assert.Equal(t, []string{analysis.TableAvgSales}, results[0].Tables)
	assert.Positive(t, results[0].Rows)
}

func TestRunIsolatesTaskFailures(t *testing.T) {
	txPath, merchantsPath := writeInputs(t, t.TempDir())
	sinkErr := errors.New("sink down")
	writer := &fakeWriter{errFor: map[string]error{analysis.TableAvgSales: sinkErr}}
	runner := NewRunner(testConfig(txPath, merchantsPath), logging.NewWithWriter(os.Stderr), writer)

	results, err := runner.Run(context.Background(), []int{1, 2, 3})
	// One failure among three tasks does not fail the run.
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.NoError(t, results[0].Err)
	require.ErrorIs(t, results[1].Err, sinkErr)
	assert.NoError(t, results[2].Err)
}

func TestRunFailsWhenAllTasksFail(t *testing.T) {
	txPath, merchantsPath := writeInputs(t, t.TempDir())
	sinkErr := errors.New("sink down")
	writer := &fakeWriter{errFor: map[string]error{analysis.TableAvgSales: sinkErr}}
	runner := NewRunner(testConfig(txPath, merchantsPath), logging.NewWithWriter(os.Stderr), writer)

	results, err := runner.Run(context.Background(), []int{2})
	require.Error(t, err)
	require.Len(t, results, 1)
	assert.ErrorIs(t, results[0].Err, sinkErr)
}

func TestRunMissingInputIsFatal(t *testing.T) {
	dir := t.TempDir()
	_, merchantsPath := writeInputs(t, dir)

	cfg := testConfig(filepath.Join(dir, "missing.parquet"), merchantsPath)
	runner := NewRunner(cfg, logging.NewWithWriter(os.Stderr), &fakeWriter{})

	results, err := runner.Run(context.Background(), []int{1})
	require.Error(t, err)
	assert.Nil(t, results)
}
