// Package store writes and reads exported slices of the dashboard: the bars
// and news visible in one session window, saved for use outside the viewer.
package store

import (
	"context"

	"marketviewer/internal/domain"
)

// BarStore persists and retrieves exported price bars.
type BarStore interface {
	// WriteBars replaces the bars stored for an instrument under a window key.
	WriteBars(ctx context.Context, window string, inst domain.Instrument, bars []domain.PriceBar) error

	// ReadBars returns the bars stored for an instrument under a window key.
	ReadBars(ctx context.Context, window string, inst domain.Instrument) ([]domain.PriceBar, error)

	// ListWindows returns every window key that has exported data.
	ListWindows(ctx context.Context) ([]string, error)
}

// NewsStore persists and retrieves exported news events.
type NewsStore interface {
	// WriteNews replaces the news stored under a window key.
	WriteNews(ctx context.Context, window string, events []domain.NewsEvent) error

	// ReadNews returns the news stored under a window key.
	ReadNews(ctx context.Context, window string) ([]domain.NewsEvent, error)
}
