// Package job drives an analytics run: load inputs once, clean once, then
// execute the selected tasks and persist their result tables.
//
// A failing task never aborts its siblings; each task's outcome is
// captured in a TaskResult. Only two conditions fail the whole run:
// the inputs cannot be loaded, or every selected task failed.
package job

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/rs/zerolog"

	"github.com/datapeak/merchant-insights/internal/analysis"
	"github.com/datapeak/merchant-insights/internal/clean"
	"github.com/datapeak/merchant-insights/internal/config"
	"github.com/datapeak/merchant-insights/internal/dataframe"
	"github.com/datapeak/merchant-insights/internal/errs"
	dataio "github.com/datapeak/merchant-insights/internal/io"
	"github.com/datapeak/merchant-insights/internal/parallel"
	"github.com/datapeak/merchant-insights/internal/report"
)

// TaskCount is the number of analytic tasks.
const TaskCount = 5

// taskFunc computes one task's result tables from the cleaned frame.
type taskFunc func(*dataframe.DataFrame) ([]analysis.Result, error)

var tasks = map[int]struct {
	name string
	run  taskFunc
}{
	1: {"top_merchants_by_city_month", analysis.TopMerchantsByCityMonth},
	2: {"average_sale_by_merchant_state", analysis.AverageSaleByMerchantState},
	3: {"peak_hours_by_category", analysis.PeakHoursByCategory},
	4: {"location_popularity", analysis.LocationPopularity},
	5: {"business_recommendations", analysis.BusinessRecommendations},
}

// TaskResult captures the outcome of one task.
type TaskResult struct {
	Task    int
	Name    string
	Tables  []string
	Rows    int
	Err     error
	Elapsed time.Duration
}

// ParseSelection parses a task selector: "all" or a comma-separated list
// of task numbers 1 through 5. Duplicates collapse; order is ascending.
func ParseSelection(s string) ([]int, error) {
	if s == "" || strings.EqualFold(s, "all") {
		selection := make([]int, 0, TaskCount)
		for i := 1; i <= TaskCount; i++ {
			selection = append(selection, i)
		}
		return selection, nil
	}

	seen := make(map[int]bool)
	for _, part := range strings.Split(s, ",") {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil || n < 1 || n > TaskCount {
			return nil, fmt.Errorf("invalid task selector %q: tasks are 1-%d or \"all\"", part, TaskCount)
		}
		seen[n] = true
	}

	selection := make([]int, 0, len(seen))
	for n := range seen {
		selection = append(selection, n)
	}
	sort.Ints(selection)
	return selection, nil
}

// Runner executes analytics runs.
type Runner struct {
	cfg    config.Config
	log    zerolog.Logger
	writer report.Writer
}

// NewRunner creates a Runner from explicit collaborators.
func NewRunner(cfg config.Config, logger zerolog.Logger, writer report.Writer) *Runner {
	return &Runner{cfg: cfg, log: logger, writer: writer}
}

// Run loads and cleans the inputs, then executes the selected tasks
// sequentially. The cleaned frame is computed once and shared read-only.
func (r *Runner) Run(ctx context.Context, selection []int) ([]TaskResult, error) {
	parallel.SetDefaultWorkers(r.cfg.Workers)

	cleaned, err := r.loadAndClean()
	if err != nil {
		return nil, err
	}

	results := make([]TaskResult, 0, len(selection))
	failed := 0
	for _, taskNum := range selection {
		result := r.runTask(ctx, taskNum, cleaned)
		if result.Err != nil {
			failed++
			r.log.Error().Int("task", taskNum).Str("name", result.Name).
				Err(result.Err).Msg("task failed")
		} else {
			r.log.Info().Int("task", taskNum).Str("name", result.Name).
				Int("rows", result.Rows).Dur("elapsed", result.Elapsed).
				Msg("task complete")
		}
		results = append(results, result)
	}

	if len(selection) > 0 && failed == len(selection) {
		return results, errors.New("all selected tasks failed")
	}
	return results, nil
}

// runTask executes one task and writes its tables, capturing any failure.
func (r *Runner) runTask(ctx context.Context, taskNum int, cleaned *dataframe.DataFrame) TaskResult {
	task := tasks[taskNum]
	result := TaskResult{Task: taskNum, Name: task.name}
	start := time.Now()
	defer func() { result.Elapsed = time.Since(start) }()

	outputs, err := task.run(cleaned)
	if err != nil {
		result.Err = err
		return result
	}

	for _, out := range outputs {
		if err := r.writer.Write(ctx, out.Table, out.Frame); err != nil {
			result.Err = err
			return result
		}
		result.Tables = append(result.Tables, out.Table)
		result.Rows += out.Frame.Len()
	}
	return result
}

// loadAndClean reads both inputs and produces the cleaned frame.
func (r *Runner) loadAndClean() (*dataframe.DataFrame, error) {
	tx, err := r.readParquet(r.cfg.TransactionsPath)
	if err != nil {
		return nil, err
	}
	merchants, err := r.readCSV(r.cfg.MerchantsPath)
	if err != nil {
		return nil, err
	}

	r.log.Debug().Int("transactions", tx.Len()).Int("merchants", merchants.Len()).
		Msg("inputs loaded")

	cleaned, err := clean.Clean(tx, merchants)
	if err != nil {
		return nil, err
	}
	return cleaned, nil
}

func (r *Runner) readParquet(path string) (*dataframe.DataFrame, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errs.NewInputError("LoadTransactions", path, err)
	}
	defer f.Close()

	df, err := dataio.NewParquetReader(f, dataio.DefaultParquetOptions(), memory.NewGoAllocator()).Read()
	if err != nil {
		return nil, errs.NewInputError("LoadTransactions", path, err)
	}
	return df, nil
}

func (r *Runner) readCSV(path string) (*dataframe.DataFrame, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errs.NewInputError("LoadMerchants", path, err)
	}
	defer f.Close()

	df, err := dataio.NewCSVReader(f, dataio.DefaultCSVOptions(), memory.NewGoAllocator()).Read()
	if err != nil {
		return nil, errs.NewInputError("LoadMerchants", path, err)
	}
	return df, nil
}
