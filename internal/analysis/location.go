package analysis

import (
	"github.com/datapeak/merchant-insights/internal/clean"
	"github.com/datapeak/merchant-insights/internal/dataframe"
)

// LocationPopularity produces two tables: the ten most-visited merchants
// per city by transaction count, and the single dominant category per city.
// Transactions without a city are excluded from both.
func LocationPopularity(df *dataframe.DataFrame) ([]Result, error) {
	cityRows, err := df.DropNulls(clean.ColCityID)
	if err != nil {
		return nil, err
	}

	popular, err := popularMerchants(cityRows)
	if err != nil {
		return nil, err
	}
	dominant, err := dominantCategories(cityRows)
	if err != nil {
		return nil, err
	}

	return []Result{
		{Table: TablePopularByCity, Frame: popular},
		{Table: TableDominantByCity, Frame: dominant},
	}, nil
}

func popularMerchants(df *dataframe.DataFrame) (*dataframe.DataFrame, error) {
	grouped, err := df.GroupBy(clean.ColCityID, clean.ColMerchantID, clean.ColMerchantName)
	if err != nil {
		return nil, err
	}

	counts, err := grouped.Agg(
		dataframe.Count(colTxCount),
		dataframe.Sum(clean.ColPurchaseAmount, colTotalAmount),
	)
	if err != nil {
		return nil, err
	}

	window := dataframe.NewWindow().
		PartitionBy(clean.ColCityID).
		OrderBy(colTxCount, false).
		OrderBy(clean.ColMerchantID, true)

	return window.TopN(counts, 10, colRank)
}

func dominantCategories(df *dataframe.DataFrame) (*dataframe.DataFrame, error) {
	grouped, err := df.GroupBy(clean.ColCityID, clean.ColCategory)
	if err != nil {
		return nil, err
	}

	counts, err := grouped.Agg(dataframe.Count(colTxCount))
	if err != nil {
		return nil, err
	}

	window := dataframe.NewWindow().
		PartitionBy(clean.ColCityID).
		OrderBy(colTxCount, false).
		OrderBy(clean.ColCategory, true)

	top, err := window.TopN(counts, 1, colRank)
	if err != nil {
		return nil, err
	}

	return top.Drop(colRank), nil
}
