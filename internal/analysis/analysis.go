// Package analysis implements the five descriptive analytic tasks over
// cleaned transaction data.
//
// Every ranking follows the same determinism contract: order by the metric
// descending, then by the tie-break key ascending, and number rows within
// their partition starting at 1. Equal metrics therefore always rank the
// same way, and a top-N result never exceeds N rows per partition.
package analysis

import (
	"github.com/apache/arrow-go/v18/arrow/array"

	"github.com/datapeak/merchant-insights/internal/dataframe"
	"github.com/datapeak/merchant-insights/internal/errs"
)

// Result table names, matching the report sink naming.
const (
	TableTopMerchants    = "top_merchants_by_month_city"
	TableAvgSales        = "avg_sales_by_merchant_state"
	TableTopHours        = "top_hours_by_category"
	TablePopularByCity   = "popular_merchants_by_city"
	TableDominantByCity  = "city_dominant_categories"
	TableTopCities       = "recommended_cities"
	TableTopCategories   = "recommended_categories"
	TableMonthlyTrend    = "monthly_sales_trend"
	TableHourlyPattern   = "hourly_sales_pattern"
	TableInstallmentProf = "installment_profitability"
)

// Result names one output table of a task.
type Result struct {
	Table string
	Frame *dataframe.DataFrame
}

// Output column names shared across tasks.
const (
	colTotalAmount = "total_amount"
	colTxCount     = "transaction_count"
	colAvgAmount   = "avg_amount"
	colRank        = "rank"
)

// float64Column fetches a float64 column as a typed array; the caller
// releases it.
func float64Column(df *dataframe.DataFrame, op, name string) (*array.Float64, error) {
	col, ok := df.Column(name)
	if !ok {
		return nil, errs.NewColumnNotFound(op, name)
	}
	arr := col.Array()
	typed, ok := arr.(*array.Float64)
	if !ok {
		arr.Release()
		return nil, errs.NewTransformErrorForColumn(op, name, "column is not float64")
	}
	return typed, nil
}

// int64Column fetches an int64 column as a typed array; the caller releases it.
func int64Column(df *dataframe.DataFrame, op, name string) (*array.Int64, error) {
	col, ok := df.Column(name)
	if !ok {
		return nil, errs.NewColumnNotFound(op, name)
	}
	arr := col.Array()
	typed, ok := arr.(*array.Int64)
	if !ok {
		arr.Release()
		return nil, errs.NewTransformErrorForColumn(op, name, "column is not int64")
	}
	return typed, nil
}
