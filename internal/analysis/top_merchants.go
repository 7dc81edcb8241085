package analysis

import (
	"github.com/datapeak/merchant-insights/internal/clean"
	"github.com/datapeak/merchant-insights/internal/dataframe"
)

// TopMerchantsByCityMonth ranks merchants by total sales within each
// (city, year, month) partition and keeps the top five. Transactions
// without a city are excluded: they belong to no city partition.
func TopMerchantsByCityMonth(df *dataframe.DataFrame) ([]Result, error) {
	cityRows, err := df.DropNulls(clean.ColCityID)
	if err != nil {
		return nil, err
	}

	grouped, err := cityRows.GroupBy(
		clean.ColCityID, clean.ColYear, clean.ColMonth,
		clean.ColMerchantID, clean.ColMerchantName,
	)
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

	window := dataframe.NewWindow().
		PartitionBy(clean.ColCityID, clean.ColYear, clean.ColMonth).
		OrderBy(colTotalAmount, false).
		OrderBy(clean.ColMerchantID, true)

	top, err := window.TopN(totals, 5, colRank)
	if err != nil {
		return nil, err
	}

	return []Result{{Table: TableTopMerchants, Frame: top}}, nil
}
