// Package clean prepares raw transaction data for analysis.
//
// Cleaning left-joins transactions with the merchant dimension, substitutes
// the documented fallbacks for missing merchant names and categories, and
// derives the calendar columns the analytic tasks group by. It never drops
// rows and never mutates its inputs.
package clean

import (
	"time"

	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/datapeak/merchant-insights/internal/dataframe"
	"github.com/datapeak/merchant-insights/internal/errs"
	"github.com/datapeak/merchant-insights/internal/series"
)

// Column names of the cleaned frame.
const (
	ColMerchantID     = "merchant_id"
	ColMerchantName   = "merchant_name"
	ColPurchaseAmount = "purchase_amount"
	ColPurchaseDate   = "purchase_date"
	ColCategory       = "category"
	ColInstallments   = "installments"
	ColCityID         = "city_id"
	ColStateID        = "state_id"
	ColYear           = "year"
	ColMonth          = "month"
	ColHour           = "hour"
)

// UnknownCategory is substituted for transactions without a category.
const UnknownCategory = "Unknown category"

// Clean joins transactions with merchants and normalizes the result.
//
// Transactions without a matching merchant keep null city_id and state_id;
// their merchant_name falls back to the merchant_id string. purchase_date is
// expected as int64 Unix seconds and yields year, month and hour columns.
func Clean(tx, merchants *dataframe.DataFrame) (*dataframe.DataFrame, error) {
	for _, col := range []string{ColMerchantID, ColPurchaseAmount, ColPurchaseDate} {
		if !tx.HasColumn(col) {
			return nil, errs.NewColumnNotFound("Clean", col)
		}
	}
	if !merchants.HasColumn(ColMerchantID) {
		return nil, errs.NewColumnNotFound("Clean", ColMerchantID)
	}

	joined, err := tx.Join(merchants, &dataframe.JoinOptions{
		Type:     dataframe.LeftJoin,
		LeftKey:  ColMerchantID,
		RightKey: ColMerchantID,
	})
	if err != nil {
		return nil, err
	}

	mem := memory.NewGoAllocator()

	// Derived frames share columns with joined, so joined is not released
	// here; the allocator is GC-backed.
	result := joined
	if result, err = fillMerchantName(result, mem); err != nil {
		return nil, err
	}
	if result, err = fillCategory(result, mem); err != nil {
		return nil, err
	}
	return deriveDateParts(result, mem)
}

// fillMerchantName replaces null merchant names with the merchant id.
func fillMerchantName(df *dataframe.DataFrame, mem memory.Allocator) (*dataframe.DataFrame, error) {
	if !df.HasColumn(ColMerchantName) {
		return nil, errs.NewColumnNotFound("Clean", ColMerchantName)
	}

	names, ids, err := stringColumns(df, ColMerchantName, ColMerchantID)
	if err != nil {
		return nil, err
	}
	defer names.Release()
	defer ids.Release()

	filled := make([]string, names.Len())
	for i := 0; i < names.Len(); i++ {
		switch {
		case !names.IsNull(i):
			filled[i] = names.Value(i)
		case !ids.IsNull(i):
			filled[i] = ids.Value(i)
		}
	}
	return df.WithColumn(series.New(ColMerchantName, filled, mem)), nil
}

// fillCategory replaces null categories with the unknown-category label.
func fillCategory(df *dataframe.DataFrame, mem memory.Allocator) (*dataframe.DataFrame, error) {
	col, ok := df.Column(ColCategory)
	if !ok {
		return nil, errs.NewColumnNotFound("Clean", ColCategory)
	}

	arr := col.Array()
	defer arr.Release()
	categories, ok := arr.(*array.String)
	if !ok {
		return nil, errs.NewTransformErrorForColumn("Clean", ColCategory, "column is not utf8")
	}

	filled := make([]string, categories.Len())
	for i := 0; i < categories.Len(); i++ {
		if categories.IsNull(i) {
			filled[i] = UnknownCategory
		} else {
			filled[i] = categories.Value(i)
		}
	}
	return df.WithColumn(series.New(ColCategory, filled, mem)), nil
}

// deriveDateParts appends year, month and hour columns computed in UTC
// from the purchase_date Unix-second timestamps.
func deriveDateParts(df *dataframe.DataFrame, mem memory.Allocator) (*dataframe.DataFrame, error) {
	col, ok := df.Column(ColPurchaseDate)
	if !ok {
		return nil, errs.NewColumnNotFound("Clean", ColPurchaseDate)
	}

	arr := col.Array()
	defer arr.Release()
	dates, ok := arr.(*array.Int64)
	if !ok {
		return nil, errs.NewTransformErrorForColumn("Clean", ColPurchaseDate, "column is not int64")
	}

	n := dates.Len()
	years := make([]int64, n)
	months := make([]int64, n)
	hours := make([]int64, n)
	valid := make([]bool, n)
	hasNull := false
	for i := 0; i < n; i++ {
		if dates.IsNull(i) {
			hasNull = true
			continue
		}
		ts := time.Unix(dates.Value(i), 0).UTC()
		years[i] = int64(ts.Year())
		months[i] = int64(ts.Month())
		hours[i] = int64(ts.Hour())
		valid[i] = true
	}

	mk := func(name string, values []int64) *series.Series[int64] {
		if hasNull {
			return series.NewWithNulls(name, values, valid, mem)
		}
		return series.New(name, values, mem)
	}

	return df.
		WithColumn(mk(ColYear, years)).
		WithColumn(mk(ColMonth, months)).
		WithColumn(mk(ColHour, hours)), nil
}

// stringColumns fetches two utf8 columns as typed arrays.
func stringColumns(df *dataframe.DataFrame, a, b string) (*array.String, *array.String, error) {
	first, err := stringColumn(df, a)
	if err != nil {
		return nil, nil, err
	}
	second, err := stringColumn(df, b)
	if err != nil {
		first.Release()
		return nil, nil, err
	}
	return first, second, nil
}

func stringColumn(df *dataframe.DataFrame, name string) (*array.String, error) {
	col, ok := df.Column(name)
	if !ok {
		return nil, errs.NewColumnNotFound("Clean", name)
	}
	arr := col.Array()
	typed, ok := arr.(*array.String)
	if !ok {
		arr.Release()
		return nil, errs.NewTransformErrorForColumn("Clean", name, "column is not utf8")
	}
	return typed, nil
}
