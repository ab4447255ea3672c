package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/placefinder/internal/history"
)

var (
	historyLimit   int
	historyJSONOut bool
	historyPrune   time.Duration
)

var historyCmd = &cobra.Command{
	Use:   "history [run-id]",
	Short: "List recorded search runs",
	Long: `Lists recorded search runs, newest first. With a run id argument it
prints that run in full. --prune deletes runs older than the given age
instead of listing.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		if cfg.History.Path == "" {
			return eris.New("history is not configured, set history.path")
		}

		st, err := history.Open(ctx, cfg.History.Path)
		if err != nil {
			return err
		}
		defer st.Close()

		if historyPrune > 0 {
			n, err := st.Prune(ctx, time.Now().UTC().Add(-historyPrune))
			if err != nil {
				return err
			}
			fmt.Printf("Pruned %d runs older than %s\n", n, historyPrune)
			return nil
		}

		if len(args) == 1 {
			run, err := st.Get(ctx, args[0])
			if err != nil {
				return err
			}
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return eris.Wrap(enc.Encode(run), "encode run")
		}

		runs, err := st.List(ctx, historyLimit)
		if err != nil {
			return err
		}

		if historyJSONOut {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return eris.Wrap(enc.Encode(runs), "encode runs")
		}

		if len(runs) == 0 {
			fmt.Println("No recorded runs")
			return nil
		}

		for _, r := range runs {
			fmt.Printf("%s  %s  %-18s %-40q %4d results  %4d calls  %6dms",
				r.ID,
				r.CreatedAt.Local().Format("2006-01-02 15:04:05"),
				r.Strategy, r.Query, r.ResultCount, r.APICalls, r.DurationMS)
			if r.Error != "" {
				fmt.Printf("  (%s)", r.Error)
			}
			fmt.Println()
		}
		return nil
	},
}

func init() {
	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "maximum runs to list")
	historyCmd.Flags().BoolVar(&historyJSONOut, "json", false, "print runs as JSON")
	historyCmd.Flags().DurationVar(&historyPrune, "prune", 0, "delete runs older than this age instead of listing")
	rootCmd.AddCommand(historyCmd)
}
