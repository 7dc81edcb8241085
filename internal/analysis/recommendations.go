package analysis

import (
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/datapeak/merchant-insights/internal/clean"
	"github.com/datapeak/merchant-insights/internal/dataframe"
	"github.com/datapeak/merchant-insights/internal/errs"
	"github.com/datapeak/merchant-insights/internal/series"
)

// Installment credit model parameters.
const (
	grossMarginRate = 0.25  // gross profit as a share of sales volume
	defaultRate     = 0.229 // share of installment sales expected to default
	recoveryRate    = 0.5   // share of a defaulted sale that is unrecoverable
)

// BusinessRecommendations produces the five tables backing expansion
// decisions: the strongest cities and categories, sales trends over months
// and hours, and the profitability of each installment plan.
func BusinessRecommendations(df *dataframe.DataFrame) ([]Result, error) {
	cities, err := topCities(df)
	if err != nil {
		return nil, err
	}
	categories, err := rankedTotals(df, clean.ColCategory, 5)
	if err != nil {
		return nil, err
	}
	monthly, err := salesTrend(df, clean.ColYear, clean.ColMonth)
	if err != nil {
		return nil, err
	}
	hourly, err := salesTrend(df, clean.ColHour)
	if err != nil {
		return nil, err
	}
	installments, err := installmentProfitability(df)
	if err != nil {
		return nil, err
	}

	return []Result{
		{Table: TableTopCities, Frame: cities},
		{Table: TableTopCategories, Frame: categories},
		{Table: TableMonthlyTrend, Frame: monthly},
		{Table: TableHourlyPattern, Frame: hourly},
		{Table: TableInstallmentProf, Frame: installments},
	}, nil
}

func topCities(df *dataframe.DataFrame) (*dataframe.DataFrame, error) {
	cityRows, err := df.DropNulls(clean.ColCityID)
	if err != nil {
		return nil, err
	}
	return rankedTotals(cityRows, clean.ColCityID, 5)
}

// rankedTotals aggregates total, count and average amount per key and keeps
// the top n keys by total.
func rankedTotals(df *dataframe.DataFrame, key string, n int64) (*dataframe.DataFrame, error) {
	grouped, err := df.GroupBy(key)
	if err != nil {
		return nil, err
	}

	totals, err := grouped.Agg(
		dataframe.Sum(clean.ColPurchaseAmount, colTotalAmount),
		dataframe.Count(colTxCount),
		dataframe.Mean(clean.ColPurchaseAmount, colAvgAmount),
	)
	if err != nil {
		return nil, err
	}

	window := dataframe.NewWindow().
		OrderBy(colTotalAmount, false).
		OrderBy(key, true)

	return window.TopN(totals, n, colRank)
}

// salesTrend aggregates total and count per time bucket in chronological order.
func salesTrend(df *dataframe.DataFrame, buckets ...string) (*dataframe.DataFrame, error) {
	grouped, err := df.GroupBy(buckets...)
	if err != nil {
		return nil, err
	}

	totals, err := grouped.Agg(
		dataframe.Sum(clean.ColPurchaseAmount, colTotalAmount),
		dataframe.Count(colTxCount),
	)
	if err != nil {
		return nil, err
	}

	keys := make([]dataframe.SortKey, len(buckets))
	for i, bucket := range buckets {
		keys[i] = dataframe.Asc(bucket)
	}
	return totals.SortBy(keys...)
}

// installmentProfitability models the credit economics of each installment
// plan: a flat gross margin on sales volume, less the expected loss from
// defaults. Single-payment sales (installments <= 1) carry no credit risk.
func installmentProfitability(df *dataframe.DataFrame) (*dataframe.DataFrame, error) {
	bucketed, err := bucketInstallments(df)
	if err != nil {
		return nil, err
	}

	grouped, err := bucketed.GroupBy(clean.ColInstallments)
	if err != nil {
		return nil, err
	}

	totals, err := grouped.Agg(
		dataframe.Mean(clean.ColPurchaseAmount, colAvgAmount),
		dataframe.Count(colTxCount),
		dataframe.Sum(clean.ColPurchaseAmount, colTotalAmount),
	)
	if err != nil {
		return nil, err
	}

	plans, err := int64Column(totals, "InstallmentProfitability", clean.ColInstallments)
	if err != nil {
		return nil, err
	}
	defer plans.Release()
	amounts, err := float64Column(totals, "InstallmentProfitability", colTotalAmount)
	if err != nil {
		return nil, err
	}
	defer amounts.Release()

	n := totals.Len()
	gross := make([]float64, n)
	loss := make([]float64, n)
	net := make([]float64, n)
	marginPct := make([]float64, n)
	for i := 0; i < n; i++ {
		total := amounts.Value(i)
		gross[i] = total * grossMarginRate
		if plans.Value(i) > 1 {
			loss[i] = total * defaultRate * recoveryRate
		}
		net[i] = gross[i] - loss[i]
		if total != 0 {
			marginPct[i] = net[i] / total * 100
		}
	}

	mem := memory.NewGoAllocator()
	enriched := totals.
		WithColumn(series.New("gross_profit", gross, mem)).
		WithColumn(series.New("expected_default_loss", loss, mem)).
		WithColumn(series.New("net_profit", net, mem)).
		WithColumn(series.New("profit_margin_pct", marginPct, mem))

	return enriched.SortBy(dataframe.Asc(clean.ColInstallments))
}

// bucketInstallments normalizes the installments column into plan buckets:
// a missing column or a null value means a single up-front payment (0).
func bucketInstallments(df *dataframe.DataFrame) (*dataframe.DataFrame, error) {
	mem := memory.NewGoAllocator()

	if !df.HasColumn(clean.ColInstallments) {
		zeros := make([]int64, df.Len())
		return df.WithColumn(series.New(clean.ColInstallments, zeros, mem)), nil
	}

	col, _ := df.Column(clean.ColInstallments)
	arr := col.Array()
	defer arr.Release()
	typed, ok := arr.(*array.Int64)
	if !ok {
		return nil, errs.NewTransformErrorForColumn(
			"InstallmentProfitability", clean.ColInstallments, "column is not int64")
	}

	buckets := make([]int64, typed.Len())
	for i := 0; i < typed.Len(); i++ {
		if !typed.IsNull(i) {
			buckets[i] = typed.Value(i)
		}
	}
	return df.WithColumn(series.New(clean.ColInstallments, buckets, mem)), nil
}
