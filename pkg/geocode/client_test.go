package geocode

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGeocode_CityWithBounds(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Springfield, IL", r.URL.Query().Get("address"))
		assert.Equal(t, "test-key", r.URL.Query().Get("key"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"status": "OK",
			"results": [{
				"formatted_address": "Springfield, IL, USA",
				"geometry": {
					"location": {"lat": 39.7817, "lng": -89.6501},
					"bounds": {
						"southwest": {"lat": 39.6, "lng": -89.8},
						"northeast": {"lat": 39.9, "lng": -89.5}
					},
					"viewport": {
						"southwest": {"lat": 39.7, "lng": -89.7},
						"northeast": {"lat": 39.85, "lng": -89.6}
					}
				}
			}]
		}`))
	}))
	defer srv.Close()

	client := NewClient("test-key", WithBaseURL(srv.URL))
	res, err := client.Geocode(context.Background(), "Springfield, IL")

	require.NoError(t, err)
	assert.True(t, res.Matched)
	assert.InDelta(t, 39.7817, res.Location.Lat, 0.0001)
	require.NotNil(t, res.Bounds)
	assert.InDelta(t, 39.6, res.Bounds.Southwest.Lat, 0.0001)
	assert.Equal(t, "Springfield, IL, USA", res.FormattedAddress)
}

func TestGeocode_ViewportFallback(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"status": "OK",
			"results": [{
				"geometry": {
					"location": {"lat": 40.0, "lng": -88.0},
					"viewport": {
						"southwest": {"lat": 39.99, "lng": -88.01},
						"northeast": {"lat": 40.01, "lng": -87.99}
					}
				}
			}]
		}`))
	}))
	defer srv.Close()

	client := NewClient("test-key", WithBaseURL(srv.URL))
	res, err := client.Geocode(context.Background(), "some address")

	require.NoError(t, err)
	require.NotNil(t, res.Bounds)
	assert.InDelta(t, 39.99, res.Bounds.Southwest.Lat, 0.0001)
}

func TestGeocode_ZeroResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status": "ZERO_RESULTS", "results": []}`))
	}))
	defer srv.Close()

	client := NewClient("test-key", WithBaseURL(srv.URL))
	res, err := client.Geocode(context.Background(), "xyzzy nowhere")

	require.NoError(t, err)
	assert.False(t, res.Matched)
	assert.Nil(t, res.Bounds)
}

func TestGeocode_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := NewClient("test-key", WithBaseURL(srv.URL))
	res, err := client.Geocode(context.Background(), "Springfield")

	assert.Error(t, err)
	assert.Nil(t, res)
}
