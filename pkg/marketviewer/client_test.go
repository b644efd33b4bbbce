package marketviewer

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"marketviewer/internal/httpapi"
	"marketviewer/internal/store"
	"marketviewer/internal/viewer"
)

const pricesCSV = `Date,Timestamp,Open,High,Low,Close
20240314,09:30:00,100,101,99,100.5
20240315,09:30:00,101,102,100,101.5
`

const newsCSV = `Date,Time,Currency,Impact,Description
2024/03/14,08:30,USD,H,PPI m/m
2024/03/15,10:00,EUR,L,ECB Speech
`

func TestNewClient(t *testing.T) {
	baseURL := "http://localhost:8501"
	c := NewClient(baseURL)

	require.NotNil(t, c)
	assert.Equal(t, baseURL, c.baseURL)
	require.NotNil(t, c.httpClient)
}

func newServer(t *testing.T) *Client {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	clock := func() time.Time { return time.Date(2024, 3, 14, 9, 0, 0, 0, time.UTC) }
	v := viewer.New(log, viewer.WithClock(clock), viewer.WithLocation(time.UTC))
	srv := httpapi.NewDashboardServer(v, store.NewParquetStore(t.TempDir()), 0, log)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return NewClient(ts.URL)
}

func TestClientRoundTrip(t *testing.T) {
	c := newServer(t)
	ctx := context.Background()

	st, err := c.Status(ctx)
	require.NoError(t, err)
	assert.False(t, st.Ready)

	_, err = c.View(ctx, nil, "")
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusConflict, apiErr.StatusCode)
	assert.Equal(t, []string{"nasdaq", "spx", "news"}, apiErr.Missing)

	dir := t.TempDir()
	nq := filepath.Join(dir, "nq.csv")
	require.NoError(t, os.WriteFile(nq, []byte(pricesCSV), 0o644))
	st, err = c.UploadFile(ctx, "nasdaq", nq)
	require.NoError(t, err)
	assert.Equal(t, "nq.csv", st.Inputs[0].File)

	_, err = c.Upload(ctx, "spx", "es.csv", []byte(pricesCSV))
	require.NoError(t, err)
	st, err = c.Upload(ctx, "news", "news.csv", []byte(newsCSV))
	require.NoError(t, err)
	assert.True(t, st.Ready)

	v, err := c.View(ctx, nil, "")
	require.NoError(t, err)
	assert.Equal(t, "News for 2024-03-14", v.Heading)
	require.Len(t, v.Charts, 2)
	assert.Len(t, v.Charts[1].Candles, 1)

	w, err := c.StepDay(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "2024-03-15", w.Anchor)

	_, err = c.StepWeek(ctx, 1)
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusConflict, apiErr.StatusCode)

	w, err = c.SetMode(ctx, "week")
	require.NoError(t, err)
	assert.Equal(t, "2024-03-11", w.WeekStart)

	v, err = c.View(ctx, []string{"L"}, "EUR")
	require.NoError(t, err)
	require.Len(t, v.News, 1)
	assert.Equal(t, "ECB Speech", v.News[0].Description)

	key, err := c.Export(ctx, nil, "")
	require.NoError(t, err)
	assert.Equal(t, "week:2024-03-11:2024-03-17:All|All", key)

	w, err = c.SetDate(ctx, "2024-03-20")
	require.NoError(t, err)
	assert.Equal(t, "2024-03-18", w.WeekStart)

	w, err = c.Reset(ctx)
	require.NoError(t, err)
	assert.Equal(t, "day", w.Mode)

	w, err = c.Session(ctx)
	require.NoError(t, err)
	assert.Equal(t, "2024-03-14", w.Anchor)
}

func TestUploadMissingFile(t *testing.T) {
	c := NewClient("http://127.0.0.1:1")
	_, err := c.UploadFile(context.Background(), "news", filepath.Join(t.TempDir(), "absent.csv"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}
