package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/placefinder/internal/export"
	"github.com/sells-group/placefinder/internal/search"
)

var (
	searchMaxResults  int
	searchIntensity   string
	searchCSVPath     string
	searchXLSXPath    string
	searchGeoJSONPath string
	searchJSONOut     bool
)

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Run a one-shot place search",
	Long: `Runs a free-text place search, e.g. "coffee shops in Denver".
Budgets above the standard threshold partition the target area into a grid
of tiles and search each tile; results are deduplicated and enriched with
place details.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initSearch(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		query := strings.Join(args, " ")
		resp, err := env.Service.Search(ctx, search.Request{
			Query:      query,
			MaxResults: searchMaxResults,
			Intensity:  searchIntensity,
		})
		if err != nil {
			return err
		}

		if searchJSONOut {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			if err := enc.Encode(resp); err != nil {
				return eris.Wrap(err, "encode results")
			}
		} else {
			printResults(resp)
		}

		if err := writeExports(resp.Results); err != nil {
			return err
		}
		return nil
	},
}

func printResults(resp *search.Response) {
	for i, r := range resp.Results {
		fmt.Printf("%3d. %s\n", i+1, r.Name)
		fmt.Printf("     %s\n", r.Address)
		if r.Rating > 0 {
			fmt.Printf("     %.1f stars (%d reviews)", r.Rating, r.ReviewCount)
			if r.Phone != "" {
				fmt.Printf("  %s", r.Phone)
			}
			fmt.Println()
		} else if r.Phone != "" {
			fmt.Printf("     %s\n", r.Phone)
		}
	}

	fmt.Printf("\n%d results (%s strategy, %d API calls)\n",
		len(resp.Results), resp.Meta.Strategy, resp.Meta.TotalAPICalls)
	if resp.Meta.Strategy != search.StrategyStandard {
		fmt.Printf("tiles: %d created, %d processed; raw %d, unique %d\n",
			resp.Meta.TilesCreated, resp.Meta.TilesProcessed,
			resp.Meta.RawResults, resp.Meta.UniqueResults)
	}
	if resp.Meta.Error != "" {
		fmt.Printf("degraded: %s\n", resp.Meta.Error)
	}
}

func writeExports(results []search.PlaceDetail) error {
	type ex struct {
		path  string
		write func(f *os.File) error
	}
	exports := []ex{
		{searchCSVPath, func(f *os.File) error { return export.WriteCSV(f, results) }},
		{searchXLSXPath, func(f *os.File) error { return export.WriteXLSX(f, results) }},
		{searchGeoJSONPath, func(f *os.File) error { return export.WriteGeoJSON(f, results) }},
	}

	for _, e := range exports {
		if e.path == "" {
			continue
		}
		f, err := os.Create(e.path)
		if err != nil {
			return eris.Wrapf(err, "create %s", e.path)
		}
		if err := e.write(f); err != nil {
			f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return eris.Wrapf(err, "close %s", e.path)
		}
		zap.L().Info("wrote export", zap.String("path", e.path), zap.Int("results", len(results)))
	}
	return nil
}

func init() {
	searchCmd.Flags().IntVar(&searchMaxResults, "max-results", 0, "result budget (default from config)")
	searchCmd.Flags().StringVar(&searchIntensity, "intensity", "low", "grid density: low, medium, or high")
	searchCmd.Flags().StringVar(&searchCSVPath, "csv", "", "write results to a CSV file")
	searchCmd.Flags().StringVar(&searchXLSXPath, "xlsx", "", "write results to an XLSX workbook")
	searchCmd.Flags().StringVar(&searchGeoJSONPath, "geojson", "", "write results as a GeoJSON FeatureCollection")
	searchCmd.Flags().BoolVar(&searchJSONOut, "json", false, "print the full response as JSON")
	rootCmd.AddCommand(searchCmd)
}
