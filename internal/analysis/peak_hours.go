package analysis

import (
	"github.com/datapeak/merchant-insights/internal/clean"
	"github.com/datapeak/merchant-insights/internal/dataframe"
)

// PeakHoursByCategory finds, for every category, the three hours of the day
// with the highest summed sales. Hours tie-break ascending.
func PeakHoursByCategory(df *dataframe.DataFrame) ([]Result, error) {
	grouped, err := df.GroupBy(clean.ColCategory, clean.ColHour)
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
		PartitionBy(clean.ColCategory).
		OrderBy(colTotalAmount, false).
		OrderBy(clean.ColHour, true)

	top, err := window.TopN(totals, 3, colRank)
	if err != nil {
		return nil, err
	}

	return []Result{{Table: TableTopHours, Frame: top}}, nil
}
