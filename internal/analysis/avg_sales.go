package analysis

import (
	"github.com/datapeak/merchant-insights/internal/clean"
	"github.com/datapeak/merchant-insights/internal/dataframe"
)

// AverageSaleByMerchantState computes the mean sale amount per
// (merchant, state) pair. Refunds count toward the average, and a null
// state forms its own group, so the output has exactly one row per
// distinct pair in the cleaned data. Rows are ordered by average amount
// descending, merchant id ascending.
func AverageSaleByMerchantState(df *dataframe.DataFrame) ([]Result, error) {
	grouped, err := df.GroupBy(clean.ColMerchantID, clean.ColMerchantName, clean.ColStateID)
	if err != nil {
		return nil, err
	}

	averages, err := grouped.Agg(
		dataframe.Mean(clean.ColPurchaseAmount, colAvgAmount),
		dataframe.Count(colTxCount),
	)
	if err != nil {
		return nil, err
	}

	sorted, err := averages.SortBy(
		dataframe.Desc(colAvgAmount),
		dataframe.Asc(clean.ColMerchantID),
	)
	if err != nil {
		return nil, err
	}

	return []Result{{Table: TableAvgSales, Frame: sorted}}, nil
}
