package training

import (
	"fmt"
	"math"
	"os"
	"strconv"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
)

const DefaultReportName = "building_xgboost_performance.csv"

// Report column headers.
const (
	ColBuilding = "Building"
	ColMSE      = "MSE"
	ColMAE      = "MAE"
	ColR2       = "R2"
	ColMAPE     = "MAPE (%)"
)

type ReportRow struct {
	Building string
	Metrics
}

// Report builds the performance table. MSE, MAE and MAPE are rounded to two
// decimals and R2 to four.
func Report(rows []ReportRow) dataframe.DataFrame {
	n := len(rows)
	ids := make([]string, n)
	mse, mae, r2, mape := make([]string, n), make([]string, n), make([]string, n), make([]string, n)
	for i, r := range rows {
		ids[i] = r.Building
		mse[i] = formatRounded(r.MSE, 2)
		mae[i] = formatRounded(r.MAE, 2)
		r2[i] = formatRounded(r.R2, 4)
		mape[i] = formatRounded(r.MAPE, 2)
	}
	return dataframe.New(
		series.New(ids, series.String, ColBuilding),
		series.New(mse, series.String, ColMSE),
		series.New(mae, series.String, ColMAE),
		series.New(r2, series.String, ColR2),
		series.New(mape, series.String, ColMAPE),
	)
}

func formatRounded(v float64, places int) string {
	p := math.Pow(10, float64(places))
	r := math.Round(v*p) / p
	if r == 0 {
		r = 0 // drop negative zero
	}
	return strconv.FormatFloat(r, 'f', -1, 64)
}

// WriteReport writes the performance table as CSV, header included even
// when there are no rows.
func WriteReport(path string, rows []ReportRow) error {
	df := Report(rows)
	if df.Err != nil {
		return fmt.Errorf("build report: %w", df.Err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create report: %w", err)
	}
	if err := df.WriteCSV(f); err != nil {
		f.Close()
		return fmt.Errorf("write report: %w", err)
	}
	return f.Close()
}

// ReadReport loads a report written by WriteReport.
func ReadReport(path string) ([]ReportRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open report: %w", err)
	}
	defer f.Close()

	df := dataframe.ReadCSV(f, dataframe.WithTypes(map[string]series.Type{
		ColBuilding: series.String,
		ColMSE:      series.Float,
		ColMAE:      series.Float,
		ColR2:       series.Float,
		ColMAPE:     series.Float,
	}))
	if df.Err != nil {
		return nil, fmt.Errorf("read report: %w", df.Err)
	}

	ids := df.Col(ColBuilding).Records()
	mse, mae := df.Col(ColMSE).Float(), df.Col(ColMAE).Float()
	r2, mape := df.Col(ColR2).Float(), df.Col(ColMAPE).Float()
	rows := make([]ReportRow, df.Nrow())
	for i := range rows {
		rows[i] = ReportRow{
			Building: ids[i],
			Metrics:  Metrics{MSE: mse[i], MAE: mae[i], R2: r2[i], MAPE: mape[i]},
		}
	}
	return rows, nil
}
