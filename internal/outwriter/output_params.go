package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/huangsam/stationqc/internal/contract"
	"github.com/huangsam/stationqc/schema"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

// PrintParameters outputs the effective parameter table.
// Parquet output is not offered for parameters and falls back to the table.
func PrintParameters(params []schema.ParameterInfo, cfg *contract.Config) error {
	fmtFloat, _ := createFormatters(cfg.Precision)

	switch cfg.Output {
	case schema.JSONOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, params)
		}, "Wrote JSON")
	case schema.CSVOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeParameterCSV(w, params)
		}, "Wrote CSV")
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeParameterTable(w, params, fmtFloat)
		}, "Wrote table")
	}
}

func writeParameterCSV(w io.Writer, params []schema.ParameterInfo) error {
	header := []string{"spec"}
	return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
		for _, pi := range params {
			if err := cw.Write([]string{contract.FormatParameterInfo(pi)}); err != nil {
				return err
			}
		}
		return nil
	})
}

func writeParameterTable(w io.Writer, params []schema.ParameterInfo, fmtFloat func(float64) string) error {
	table := tablewriter.NewWriter(w)
	table.Header([]string{"Par", "Name", "Min", "Max", "Max Offset", "Max Sigma", "Accumulated", "Dew Point Of", "Min/Max Par"})
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})

	var data [][]string
	for _, pi := range params {
		dewPoint := "-"
		if ta, ok := pi.DependsOn(); ok {
			dewPoint = strconv.Itoa(ta)
		}
		extremes := "-"
		if pi.HasMinMax() {
			extremes = strconv.Itoa(pi.MinParam) + "/" + strconv.Itoa(pi.MaxParam)
		}
		data = append(data, []string{
			strconv.Itoa(pi.ID),
			pi.Name,
			formatOptional(pi.MinValue, fmtFloat),
			formatOptional(pi.MaxValue, fmtFloat),
			fmtFloat(pi.MaxOffset),
			fmtFloat(pi.MaxSigma),
			strconv.FormatBool(pi.Accumulated),
			dewPoint,
			extremes,
		})
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "%d parameters configured\n", len(params))
	return err
}
