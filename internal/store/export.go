package store

import (
	"context"

	"marketviewer/internal/domain"
	"marketviewer/internal/filter"
	"marketviewer/internal/session"
)

// ExportKey names an export of window w under news filter f, e.g.
// "day:2024-03-14:2024-03-14:H,M|USD". Exports of the same window with
// different filters get different keys.
func ExportKey(w session.Window, f filter.News) string {
	return w.Key() + ":" + f.Key()
}

// ExportWindow writes the slices visible in w (both price series and the
// filtered news) under ExportKey(w, f) and returns that key.
func ExportWindow(ctx context.Context, bars BarStore, news NewsStore, ds *domain.Dataset, w session.Window, f filter.News) (string, error) {
	key := ExportKey(w, f)
	for _, inst := range domain.Instruments {
		if err := bars.WriteBars(ctx, key, inst, filter.MarketSlice(ds.Bars[inst], w)); err != nil {
			return "", err
		}
	}
	if err := news.WriteNews(ctx, key, filter.NewsSlice(ds.News, w, f)); err != nil {
		return "", err
	}
	return key, nil
}
