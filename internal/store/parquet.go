package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/parquet-go/parquet-go"

	"marketviewer/internal/domain"
)

// Compile-time interface checks.
var _ BarStore = (*ParquetStore)(nil)
var _ NewsStore = (*ParquetStore)(nil)

// ParquetStore implements BarStore and NewsStore using Parquet files on disk.
type ParquetStore struct {
	DataDir string
}

// NewParquetStore creates a new ParquetStore rooted at the given data directory.
func NewParquetStore(dataDir string) *ParquetStore {
	return &ParquetStore{DataDir: dataDir}
}

// ---------------------------------------------------------------------------
// Parquet record types (on-disk schema)
// ---------------------------------------------------------------------------

// BarRecord is the Parquet schema for an exported price bar.
type BarRecord struct {
	Instrument string  `parquet:"instrument"`
	Timestamp  int64   `parquet:"timestamp,timestamp(millisecond)"` // Unix ms
	Open       float64 `parquet:"open"`
	High       float64 `parquet:"high"`
	Low        float64 `parquet:"low"`
	Close      float64 `parquet:"close"`
}

// NewsRecord is the Parquet schema for an exported news event.
type NewsRecord struct {
	Timestamp   int64  `parquet:"timestamp,timestamp(millisecond)"` // Unix ms
	Impact      string `parquet:"impact"`
	Currency    string `parquet:"currency"`
	Description string `parquet:"description"`
}

// ---------------------------------------------------------------------------
// BarStore implementation
// ---------------------------------------------------------------------------

// WriteBars writes bars to <DataDir>/<window>/<instrument>.parquet, keeping
// their order.
func (s *ParquetStore) WriteBars(_ context.Context, window string, inst domain.Instrument, bars []domain.PriceBar) error {
	records := make([]BarRecord, len(bars))
	for i, b := range bars {
		records[i] = BarRecord{
			Instrument: string(inst),
			Timestamp:  b.Timestamp.UnixMilli(),
			Open:       b.Open,
			High:       b.High,
			Low:        b.Low,
			Close:      b.Close,
		}
	}
	path := s.barPath(window, inst)
	if err := writeParquetFile(path, records); err != nil {
		return fmt.Errorf("writing bars for %s/%s: %w", window, inst, err)
	}
	return nil
}

// ReadBars reads the bars exported for an instrument under a window key.
func (s *ParquetStore) ReadBars(_ context.Context, window string, inst domain.Instrument) ([]domain.PriceBar, error) {
	records, err := readParquetFile[BarRecord](s.barPath(window, inst))
	if err != nil {
		return nil, fmt.Errorf("reading bars for %s/%s: %w", window, inst, err)
	}
	bars := make([]domain.PriceBar, len(records))
	for i, r := range records {
		bars[i] = domain.PriceBar{
			Timestamp: time.UnixMilli(r.Timestamp).UTC(),
			Open:      r.Open,
			High:      r.High,
			Low:       r.Low,
			Close:     r.Close,
		}
	}
	return bars, nil
}

// ListWindows lists the window directories under DataDir.
func (s *ParquetStore) ListWindows(_ context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.DataDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var windows []string
	for _, e := range entries {
		if e.IsDir() {
			windows = append(windows, e.Name())
		}
	}
	sort.Strings(windows)
	return windows, nil
}

// ---------------------------------------------------------------------------
// NewsStore implementation
// ---------------------------------------------------------------------------

// WriteNews writes events to <DataDir>/<window>/news.parquet.
func (s *ParquetStore) WriteNews(_ context.Context, window string, events []domain.NewsEvent) error {
	records := make([]NewsRecord, len(events))
	for i, ev := range events {
		records[i] = NewsRecord{
			Timestamp:   ev.Timestamp.UnixMilli(),
			Impact:      string(ev.Impact),
			Currency:    ev.Currency,
			Description: ev.Description,
		}
	}
	if err := writeParquetFile(s.newsPath(window), records); err != nil {
		return fmt.Errorf("writing news for %s: %w", window, err)
	}
	return nil
}

// ReadNews reads the events exported under a window key.
func (s *ParquetStore) ReadNews(_ context.Context, window string) ([]domain.NewsEvent, error) {
	records, err := readParquetFile[NewsRecord](s.newsPath(window))
	if err != nil {
		return nil, fmt.Errorf("reading news for %s: %w", window, err)
	}
	events := make([]domain.NewsEvent, len(records))
	for i, r := range records {
		events[i] = domain.NewsEvent{
			Timestamp:   time.UnixMilli(r.Timestamp).UTC(),
			Impact:      domain.Impact(r.Impact),
			Currency:    r.Currency,
			Description: r.Description,
		}
	}
	return events, nil
}

// ---------------------------------------------------------------------------
// Path helpers
// ---------------------------------------------------------------------------

var dirReplacer = strings.NewReplacer(":", "_", "|", "_", ",", "-", "/", "-", "\\", "-")

// WindowDir turns a window or export key such as "week:2024-03-11:2024-03-17"
// into a single directory name.
func WindowDir(key string) string {
	return dirReplacer.Replace(key)
}

// barPath returns the filesystem path for an exported bar file.
// Layout: <dataDir>/<window>/<instrument>.parquet
func (s *ParquetStore) barPath(window string, inst domain.Instrument) string {
	return filepath.Join(s.DataDir, WindowDir(window), strings.ToLower(string(inst))+".parquet")
}

// newsPath returns the filesystem path for an exported news file.
// Layout: <dataDir>/<window>/news.parquet
func (s *ParquetStore) newsPath(window string) string {
	return filepath.Join(s.DataDir, WindowDir(window), "news.parquet")
}

// ---------------------------------------------------------------------------
// Parquet file helpers
// ---------------------------------------------------------------------------

func writeParquetFile[T any](path string, records []T) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return parquet.WriteFile(path, records)
}

func readParquetFile[T any](path string) ([]T, error) {
	rows, err := parquet.ReadFile[T](path)
	if err != nil {
		return nil, err
	}
	return rows, nil
}
