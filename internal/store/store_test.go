package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"marketviewer/internal/domain"
	"marketviewer/internal/filter"
	"marketviewer/internal/session"
)

func TestParquetStorePath(t *testing.T) {
	ps := NewParquetStore("/data")

	assert.Equal(t,
		filepath.Join("/data", "week_2024-03-11_2024-03-17", "nasdaq.parquet"),
		ps.barPath("week:2024-03-11:2024-03-17", domain.InstrumentNasdaq))
	assert.Equal(t,
		filepath.Join("/data", "day_2024-03-14_2024-03-14", "news.parquet"),
		ps.newsPath("day:2024-03-14:2024-03-14"))
}

func TestWindowDir(t *testing.T) {
	assert.Equal(t, "day_2024-03-14_2024-03-14_H-M_USD", WindowDir("day:2024-03-14:2024-03-14:H,M|USD"))
	assert.Equal(t, "week_2024-03-11_2024-03-17_All_a-b", WindowDir("week:2024-03-11:2024-03-17:All|a/b"))
}

func TestParquetStoreWriteReadBars(t *testing.T) {
	ps := NewParquetStore(t.TempDir())
	ctx := context.Background()

	// Out of timestamp order on purpose: exports keep slice order.
	bars := []domain.PriceBar{
		{
			Timestamp: time.Date(2024, 3, 14, 9, 31, 0, 0, time.UTC),
			Open:      18110.75, High: 18115, Low: 18100.5, Close: 18102,
		},
		{
			Timestamp: time.Date(2024, 3, 14, 9, 30, 0, 0, time.UTC),
			Open:      18100.25, High: 18120.5, Low: 18090, Close: 18110.75,
		},
	}
	require.NoError(t, ps.WriteBars(ctx, "day:2024-03-14:2024-03-14", domain.InstrumentNasdaq, bars))

	got, err := ps.ReadBars(ctx, "day:2024-03-14:2024-03-14", domain.InstrumentNasdaq)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, 18102.0, got[0].Close)
	assert.Equal(t, 18120.5, got[1].High)
	assert.True(t, got[1].Timestamp.Equal(bars[1].Timestamp))
}

func TestParquetStoreOverwrite(t *testing.T) {
	ps := NewParquetStore(t.TempDir())
	ctx := context.Background()
	key := "day:2024-03-14:2024-03-14"

	first := []domain.PriceBar{
		{Timestamp: time.Date(2024, 3, 14, 9, 30, 0, 0, time.UTC), Close: 1},
		{Timestamp: time.Date(2024, 3, 14, 9, 31, 0, 0, time.UTC), Close: 2},
	}
	require.NoError(t, ps.WriteBars(ctx, key, domain.InstrumentSPX, first))
	second := []domain.PriceBar{
		{Timestamp: time.Date(2024, 3, 14, 9, 32, 0, 0, time.UTC), Close: 3},
	}
	require.NoError(t, ps.WriteBars(ctx, key, domain.InstrumentSPX, second))

	got, err := ps.ReadBars(ctx, key, domain.InstrumentSPX)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 3.0, got[0].Close)
}

func TestParquetStoreWriteReadNews(t *testing.T) {
	ps := NewParquetStore(t.TempDir())
	ctx := context.Background()
	key := "week:2024-03-11:2024-03-17"

	events := []domain.NewsEvent{
		{Timestamp: time.Date(2024, 3, 14, 8, 30, 0, 0, time.UTC), Impact: domain.ImpactHigh, Currency: "USD", Description: "PPI m/m"},
		{Timestamp: time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC), Impact: domain.ImpactLow, Currency: "EUR", Description: "ECB Speech"},
	}
	require.NoError(t, ps.WriteNews(ctx, key, events))

	got, err := ps.ReadNews(ctx, key)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, domain.ImpactHigh, got[0].Impact)
	assert.Equal(t, "PPI m/m", got[0].Description)
	assert.Equal(t, "EUR", got[1].Currency)
	assert.True(t, got[1].Timestamp.Equal(events[1].Timestamp))
}

func TestParquetStoreListWindows(t *testing.T) {
	ps := NewParquetStore(t.TempDir())
	ctx := context.Background()

	ev := []domain.NewsEvent{{Timestamp: time.Date(2024, 3, 12, 8, 0, 0, 0, time.UTC), Impact: domain.ImpactNone, Currency: "JPY"}}
	require.NoError(t, ps.WriteNews(ctx, "week:2024-03-11:2024-03-17", ev))
	bars := []domain.PriceBar{{Timestamp: time.Date(2024, 3, 14, 9, 30, 0, 0, time.UTC), Close: 1}}
	require.NoError(t, ps.WriteBars(ctx, "day:2024-03-14:2024-03-14", domain.InstrumentNasdaq, bars))

	windows, err := ps.ListWindows(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"day_2024-03-14_2024-03-14", "week_2024-03-11_2024-03-17"}, windows)
}

func TestParquetStoreListWindowsMissingDir(t *testing.T) {
	ps := NewParquetStore(filepath.Join(t.TempDir(), "absent"))
	windows, err := ps.ListWindows(context.Background())
	require.NoError(t, err)
	assert.Empty(t, windows)
}

func exportDataset() *domain.Dataset {
	return &domain.Dataset{
		Bars: map[domain.Instrument][]domain.PriceBar{
			domain.InstrumentNasdaq: {
				{Timestamp: time.Date(2024, 3, 14, 9, 30, 0, 0, time.UTC), Close: 1},
				{Timestamp: time.Date(2024, 3, 15, 9, 30, 0, 0, time.UTC), Close: 2},
			},
			domain.InstrumentSPX: {
				{Timestamp: time.Date(2024, 3, 14, 9, 30, 0, 0, time.UTC), Close: 3},
			},
		},
		News: []domain.NewsEvent{
			{Timestamp: time.Date(2024, 3, 14, 8, 30, 0, 0, time.UTC), Impact: domain.ImpactHigh, Currency: "USD", Description: "PPI"},
			{Timestamp: time.Date(2024, 3, 14, 9, 0, 0, 0, time.UTC), Impact: domain.ImpactLow, Currency: "EUR", Description: "Speech"},
		},
	}
}

func TestExportWindow(t *testing.T) {
	ps := NewParquetStore(t.TempDir())
	ctx := context.Background()
	w := session.New(time.Date(2024, 3, 14, 0, 0, 0, 0, time.UTC))

	key, err := ExportWindow(ctx, ps, ps, exportDataset(), w, filter.News{Impacts: []string{"H"}})
	require.NoError(t, err)
	assert.Equal(t, "day:2024-03-14:2024-03-14:H|All", key)

	nq, err := ps.ReadBars(ctx, key, domain.InstrumentNasdaq)
	require.NoError(t, err)
	require.Len(t, nq, 1)
	assert.Equal(t, 1.0, nq[0].Close)

	news, err := ps.ReadNews(ctx, key)
	require.NoError(t, err)
	require.Len(t, news, 1)
	assert.Equal(t, "PPI", news[0].Description)
}

func TestExportWindowFiltersDoNotOverwrite(t *testing.T) {
	ps := NewParquetStore(t.TempDir())
	ctx := context.Background()
	ds := exportDataset()
	w := session.New(time.Date(2024, 3, 14, 0, 0, 0, 0, time.UTC))

	usd, err := ExportWindow(ctx, ps, ps, ds, w, filter.News{Currency: "USD"})
	require.NoError(t, err)
	eur, err := ExportWindow(ctx, ps, ps, ds, w, filter.News{Currency: "EUR"})
	require.NoError(t, err)
	require.NotEqual(t, usd, eur)

	news, err := ps.ReadNews(ctx, usd)
	require.NoError(t, err)
	require.Len(t, news, 1)
	assert.Equal(t, "PPI", news[0].Description)

	news, err = ps.ReadNews(ctx, eur)
	require.NoError(t, err)
	require.Len(t, news, 1)
	assert.Equal(t, "Speech", news[0].Description)

	windows, err := ps.ListWindows(ctx)
	require.NoError(t, err)
	assert.Len(t, windows, 2)
}
