package output

import (
	"bytes"
	"encoding/csv"
	"io"
	"os"
	"strconv"

	"github.com/iwvelando/proforma/internal/forecast"
	"github.com/iwvelando/proforma/internal/projection"
	"github.com/iwvelando/proforma/pkg/constants"
)

// ProjectionColumns are the exported columns, in order.
var ProjectionColumns = []string{"year", "revenue", "cogs", "grossProfit", "ebitda", "ebit", "netIncome", "bs_cash", "fcfe"}

// CsvFormat outputs every forecast in ';'-separated value format.
func CsvFormat(results []forecast.Forecast) {
	_ = WriteCSV(os.Stdout, results)
}

// CsvString returns the CSV export of every forecast.
func CsvString(results []forecast.Forecast) string {
	var buf bytes.Buffer
	_ = WriteCSV(&buf, results)
	return buf.String()
}

// WriteCSV writes one projection block per forecast, separated by a blank line.
func WriteCSV(w io.Writer, results []forecast.Forecast) error {
	for i, result := range results {
		if i > 0 {
			if _, err := io.WriteString(w, "\n"); err != nil {
				return err
			}
		}
		var rows []projection.YearRow
		if result.Result != nil {
			rows = result.Result.Rows
		}
		if err := WriteProjectionCSV(w, result.Name, rows); err != nil {
			return err
		}
	}
	return nil
}

// WriteProjectionCSV writes a "Scenario;<name>" header, a blank line and the
// projection rows with two decimals.
func WriteProjectionCSV(w io.Writer, name string, rows []projection.YearRow) error {
	writer := csv.NewWriter(w)
	writer.Comma = constants.CSVDelimiter

	if err := writer.Write([]string{"Scenario", name}); err != nil {
		return err
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return err
	}
	if _, err := io.WriteString(w, "\n"); err != nil {
		return err
	}

	if err := writer.Write(ProjectionColumns); err != nil {
		return err
	}
	for _, row := range rows {
		record := []string{
			strconv.Itoa(row.Year),
			money(row.Revenue),
			money(row.Cogs),
			money(row.GrossProfit),
			money(row.EBITDA),
			money(row.EBIT),
			money(row.NetIncome),
			money(row.BSCash),
			money(row.FCFE),
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

func money(v float64) string {
	if v == 0 {
		v = 0 // drop negative zero
	}
	return strconv.FormatFloat(v, 'f', 2, 64)
}
