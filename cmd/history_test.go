package main

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/placefinder/internal/config"
	"github.com/sells-group/placefinder/internal/history"
	"github.com/sells-group/placefinder/internal/search"
)

func sampleHistoryResponse() *search.Response {
	return &search.Response{
		Results: []search.PlaceDetail{
			{PlaceSummary: search.PlaceSummary{ID: "p1", Name: "Corner Cafe"}, Reviews: []search.Review{}},
		},
		APICallsUsed: 7,
		Meta: search.Meta{
			Strategy:      search.StrategyGrid,
			RawResults:    1,
			UniqueResults: 1,
			SearchCalls:   6,
			GeocodeCalls:  1,
			TotalAPICalls: 7,
		},
	}
}

// seedHistory points cfg at a temp history database with one recorded run
// and returns that run's id.
func seedHistory(t *testing.T) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "history.db")
	prev := cfg
	cfg = &config.Config{History: config.HistoryConfig{Path: path}}
	t.Cleanup(func() { cfg = prev })

	// RunE is invoked directly in these tests, so cobra never sets the
	// command context; without this, cmd.Context() is nil.
	historyCmd.SetContext(context.Background())

	st, err := history.Open(context.Background(), path)
	require.NoError(t, err)
	defer st.Close()

	require.NoError(t, st.Record(context.Background(), "cafes in Springfield", search.StrategyGrid,
		sampleHistoryResponse(), 800*time.Millisecond))

	runs, err := st.List(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	return runs[0].ID
}

func TestHistoryCmd_List(t *testing.T) {
	seedHistory(t)
	historyLimit, historyJSONOut, historyPrune = 20, false, 0

	err := historyCmd.RunE(historyCmd, nil)
	assert.NoError(t, err)
}

func TestHistoryCmd_GetByID(t *testing.T) {
	id := seedHistory(t)
	historyLimit, historyJSONOut, historyPrune = 20, false, 0

	assert.NoError(t, historyCmd.RunE(historyCmd, []string{id}))
	assert.Error(t, historyCmd.RunE(historyCmd, []string{"no-such-run"}))
}

func TestHistoryCmd_Prune(t *testing.T) {
	seedHistory(t)
	historyLimit, historyJSONOut = 20, false
	historyPrune = time.Nanosecond
	t.Cleanup(func() { historyPrune = 0 })

	time.Sleep(5 * time.Millisecond)
	require.NoError(t, historyCmd.RunE(historyCmd, nil))

	st, err := history.Open(context.Background(), cfg.History.Path)
	require.NoError(t, err)
	defer st.Close()

	runs, err := st.List(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, runs)
}

func TestHistoryCmd_NotConfigured(t *testing.T) {
	prev := cfg
	cfg = &config.Config{}
	t.Cleanup(func() { cfg = prev })

	err := historyCmd.RunE(historyCmd, nil)
	assert.Error(t, err)
}
