package app

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/blackwell-systems/nutriwatch/internal/api"
	"github.com/blackwell-systems/nutriwatch/internal/intake"
	"github.com/blackwell-systems/nutriwatch/internal/watcher"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testEnv builds an env against ts and records every notification.
func testEnv(t *testing.T, ts *httptest.Server) (*env, *[]watcher.Alert) {
	t.Helper()
	var (
		mu     sync.Mutex
		alerts []watcher.Alert
	)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	e := &env{
		cfg:    testConfig(),
		logger: logger,
		client: &api.Client{BaseURL: ts.URL, HTTPClient: ts.Client(), Logger: logger},
		food:   intake.Aggregator{Kind: intake.KindFood},
		water:  intake.Aggregator{Kind: intake.KindWater},
		notify: func(a watcher.Alert) {
			mu.Lock()
			defer mu.Unlock()
			alerts = append(alerts, a)
		},
	}
	return e, &alerts
}

func TestLoadRecords_Success(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/water-logs/mine", r.URL.Path)
		_, _ = w.Write([]byte(`{"page":1,"total_pages":1,"results":[{"id":1,"consumed_date":"2024-03-10","volume_ml":250}]}`))
	}))
	defer ts.Close()

	e, alerts := testEnv(t, ts)
	records, err := e.loadRecords(context.Background(), intake.KindWater)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, 250.0, records[0].Measures.VolumeML)
	assert.Empty(t, *alerts)
}

func TestLoadRecords_FailureNotifiesAndEmpties(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down for maintenance", http.StatusServiceUnavailable)
	}))
	defer ts.Close()

	e, alerts := testEnv(t, ts)
	records, err := e.loadRecords(context.Background(), intake.KindFood)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "loading food logs")
	assert.NotNil(t, records)
	assert.Empty(t, records)

	require.Len(t, *alerts, 1)
	assert.Equal(t, "Could not load food logs", (*alerts)[0].Title)
	assert.Equal(t, "warning", (*alerts)[0].Level)
}

func TestLoadAllRecords(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v1/food-logs/mine":
			_, _ = w.Write([]byte(`{"page":1,"total_pages":1,"results":[{"id":1,"food_name":"Egg","consumed_date":"2024-03-10","calories":70}]}`))
		case "/api/v1/water-logs/mine":
			_, _ = w.Write([]byte(`{"page":1,"total_pages":1,"results":[{"id":2,"consumed_date":"2024-03-10","volume_ml":300}]}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer ts.Close()

	e, _ := testEnv(t, ts)
	records, err := e.loadAllRecords(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, intake.KindFood, records[0].Kind)
	assert.Equal(t, intake.KindWater, records[1].Kind)
}

func TestParseKind(t *testing.T) {
	k, err := parseKind("water")
	require.NoError(t, err)
	assert.Equal(t, intake.KindWater, k)

	_, err = parseKind("")
	assert.Error(t, err)
}
