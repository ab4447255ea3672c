package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/rotisserie/eris"

	"github.com/sells-group/placefinder/internal/search"
)

// columns defines the ordered tabular output columns shared by the CSV and
// XLSX writers.
var columns = []string{
	"Name",
	"Address",
	"Latitude",
	"Longitude",
	"Rating",
	"Review Count",
	"Status",
	"Phone",
	"Website",
	"Price Level",
	"Place ID",
}

// WriteCSV writes results as CSV with a header row.
func WriteCSV(w io.Writer, results []search.PlaceDetail) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(columns); err != nil {
		return eris.Wrap(err, "export: write csv header")
	}

	for _, r := range results {
		if err := cw.Write(buildRow(r)); err != nil {
			return eris.Wrapf(err, "export: write csv row for %s", r.ID)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return eris.Wrap(err, "export: flush csv")
	}
	return nil
}

// buildRow maps one result onto the shared column order.
func buildRow(r search.PlaceDetail) []string {
	return []string{
		r.Name,
		r.Address,
		formatCoord(r.Location.Lat),
		formatCoord(r.Location.Lng),
		formatRating(r.Rating),
		strconv.Itoa(r.ReviewCount),
		r.Status,
		r.Phone,
		r.Website,
		r.PriceLevel,
		r.ID,
	}
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', 6, 64)
}

func formatRating(v float64) string {
	if v == 0 {
		return ""
	}
	return fmt.Sprintf("%.1f", v)
}
