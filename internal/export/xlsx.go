package export

import (
	"io"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/placefinder/internal/search"
)

// sheetName is the single worksheet holding exported results.
const sheetName = "Results"

// WriteXLSX writes results as a single-sheet workbook using the same column
// order as the CSV writer.
func WriteXLSX(w io.Writer, results []search.PlaceDetail) error {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet(sheetName)
	if err != nil {
		return eris.Wrap(err, "export: add xlsx sheet")
	}

	header := sheet.AddRow()
	for _, col := range columns {
		header.AddCell().Value = col
	}

	for _, r := range results {
		row := sheet.AddRow()
		cells := buildRow(r)

		row.AddCell().Value = cells[0] // name
		row.AddCell().Value = cells[1] // address
		row.AddCell().SetFloatWithFormat(r.Location.Lat, "0.000000")
		row.AddCell().SetFloatWithFormat(r.Location.Lng, "0.000000")
		if r.Rating > 0 {
			row.AddCell().SetFloatWithFormat(r.Rating, "0.0")
		} else {
			row.AddCell()
		}
		row.AddCell().SetInt(r.ReviewCount)
		for _, v := range cells[6:] {
			row.AddCell().Value = v
		}
	}

	if err := f.Write(w); err != nil {
		return eris.Wrap(err, "export: write xlsx")
	}
	return nil
}
