// Package loader turns the three uploaded CSV files (two price series and
// the news calendar) into typed, immutable in-memory sequences.
package loader

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gocarina/gocsv"
	"golang.org/x/sync/errgroup"

	"marketviewer/internal/domain"
)

// Slot names one of the three inputs the dashboard needs.
type Slot string

const (
	SlotNasdaq Slot = "nasdaq"
	SlotSPX    Slot = "spx"
	SlotNews   Slot = "news"
)

// Slots lists every input in upload order.
var Slots = []Slot{SlotNasdaq, SlotSPX, SlotNews}

// ParseSlot validates a slot name coming from a URL or flag.
func ParseSlot(s string) (Slot, bool) {
	switch Slot(strings.ToLower(s)) {
	case SlotNasdaq:
		return SlotNasdaq, true
	case SlotSPX:
		return SlotSPX, true
	case SlotNews:
		return SlotNews, true
	}
	return "", false
}

// Instrument maps a price slot to its instrument. ok is false for the news slot.
func (s Slot) Instrument() (domain.Instrument, bool) {
	switch s {
	case SlotNasdaq:
		return domain.InstrumentNasdaq, true
	case SlotSPX:
		return domain.InstrumentSPX, true
	}
	return "", false
}

// Source is the raw content of one uploaded file.
type Source struct {
	Name string
	Data []byte
}

// Inputs collects the sources for each slot. A nil entry means the file has
// not been supplied.
type Inputs map[Slot]*Source

// Missing returns the slots without a source, in upload order.
func (in Inputs) Missing() []Slot {
	var missing []Slot
	for _, s := range Slots {
		if in[s] == nil {
			missing = append(missing, s)
		}
	}
	return missing
}

// ReadFile reads a local file into a Source named after its base name.
func ReadFile(path string) (*Source, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return &Source{Name: filepath.Base(path), Data: data}, nil
}

// ---------------------------------------------------------------------------
// Row schemas
// ---------------------------------------------------------------------------

// Price files carry Date and Timestamp in separate columns. The compact date
// layout is what the exporting platform writes; the ISO layout is accepted
// for hand-edited files.
var barDateLayouts = []string{"20060102", "2006-01-02"}

const (
	barClockLayout  = "15:04:05"
	newsDateLayout  = "2006/01/02"
	newsClockLayout = "15:04"
)

// Row schemas are all strings; conversion happens in ParseBars and ParseNews
// so that an empty or malformed cell is reported instead of zeroed.
type barRow struct {
	Date      string `csv:"Date"`
	Timestamp string `csv:"Timestamp"`
	Open      string `csv:"Open"`
	High      string `csv:"High"`
	Low       string `csv:"Low"`
	Close     string `csv:"Close"`
}

type newsRow struct {
	Date        string `csv:"Date"`
	Time        string `csv:"Time"`
	Currency    string `csv:"Currency"`
	Impact      string `csv:"Impact"`
	Description string `csv:"Description"`
}

var (
	barColumns  = []string{"Date", "Timestamp", "Open", "High", "Low", "Close"}
	newsColumns = []string{"Date", "Time", "Currency", "Impact", "Description"}
)

// ---------------------------------------------------------------------------
// Parsing
// ---------------------------------------------------------------------------

// ParseBars decodes a price CSV. Rows keep their file order.
func ParseBars(src *Source) ([]domain.PriceBar, error) {
	var rows []barRow
	lines, err := decode(src, barColumns, &rows)
	if err != nil {
		return nil, err
	}

	bars := make([]domain.PriceBar, len(rows))
	for i, r := range rows {
		fail := func(col string, err error) error {
			return &ParseError{File: src.Name, Line: lines[i], Column: col, Err: err}
		}

		day, err := parseDate(r.Date, barDateLayouts...)
		if err != nil {
			return nil, fail("Date", err)
		}
		clock, err := time.Parse(barClockLayout, strings.TrimSpace(r.Timestamp))
		if err != nil {
			return nil, fail("Timestamp", err)
		}

		var ohlc [4]float64
		for j, cell := range []struct{ col, val string }{
			{"Open", r.Open}, {"High", r.High}, {"Low", r.Low}, {"Close", r.Close},
		} {
			if ohlc[j], err = parsePrice(cell.val); err != nil {
				return nil, fail(cell.col, err)
			}
		}

		bars[i] = domain.PriceBar{
			Timestamp: combine(day, clock),
			Open:      ohlc[0],
			High:      ohlc[1],
			Low:       ohlc[2],
			Close:     ohlc[3],
		}
	}
	return bars, nil
}

// ParseNews decodes a news calendar CSV. Rows keep their file order.
func ParseNews(src *Source) ([]domain.NewsEvent, error) {
	var rows []newsRow
	lines, err := decode(src, newsColumns, &rows)
	if err != nil {
		return nil, err
	}

	events := make([]domain.NewsEvent, len(rows))
	for i, r := range rows {
		day, err := parseDate(r.Date, newsDateLayout)
		if err != nil {
			return nil, &ParseError{File: src.Name, Line: lines[i], Column: "Date", Err: err}
		}
		clock, err := time.Parse(newsClockLayout, strings.TrimSpace(r.Time))
		if err != nil {
			return nil, &ParseError{File: src.Name, Line: lines[i], Column: "Time", Err: err}
		}
		events[i] = domain.NewsEvent{
			Timestamp:   combine(day, clock),
			Impact:      domain.Impact(strings.TrimSpace(r.Impact)),
			Currency:    strings.TrimSpace(r.Currency),
			Description: r.Description,
		}
	}
	return events, nil
}

func parseDate(value string, layouts ...string) (time.Time, error) {
	value = strings.TrimSpace(value)
	var firstErr error
	for _, layout := range layouts {
		d, err := time.Parse(layout, value)
		if err == nil {
			return d, nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	return time.Time{}, firstErr
}

// combine joins a calendar date and a wall-clock time into one UTC instant.
func combine(day, clock time.Time) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(),
		clock.Hour(), clock.Minute(), clock.Second(), 0, time.UTC)
}

// parsePrice accepts finite decimal numbers only.
func parsePrice(value string) (float64, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, errors.New("empty value")
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("non-finite value %q", value)
	}
	return f, nil
}

// decode checks the header for the required columns, records the starting
// line of every data row, then lets gocsv fill rows. The returned lines are
// 1-based file lines, one per row, and account for quoted fields that span
// several lines.
func decode(src *Source, required []string, rows any) ([]int, error) {
	data := bytes.TrimPrefix(src.Data, []byte("\xef\xbb\xbf"))

	r := csv.NewReader(bytes.NewReader(data))
	header, err := r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, &ParseError{File: src.Name, Err: errors.New("empty file")}
		}
		return nil, csvError(src, err)
	}
	present := make(map[string]bool, len(header))
	for _, h := range header {
		present[h] = true
	}
	var missing []string
	for _, col := range required {
		if !present[col] {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, &ParseError{
			File: src.Name,
			Line: 1,
			Err:  fmt.Errorf("missing required columns: %s", strings.Join(missing, ", ")),
		}
	}

	var lines []int
	for {
		if _, err := r.Read(); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, csvError(src, err)
		}
		line, _ := r.FieldPos(0)
		lines = append(lines, line)
	}

	if err := gocsv.UnmarshalBytes(data, rows); err != nil {
		return nil, csvError(src, err)
	}
	return lines, nil
}

func csvError(src *Source, err error) error {
	pe := &ParseError{File: src.Name, Err: err}
	var csvErr *csv.ParseError
	if errors.As(err, &csvErr) {
		pe.Line = csvErr.Line
		pe.Err = csvErr.Err
	}
	return pe
}

// ---------------------------------------------------------------------------
// Full load
// ---------------------------------------------------------------------------

// Load parses all three inputs into a Dataset. Any absent input yields a
// MissingInputError; any parse failure aborts the whole load. A cancelled
// ctx is reported before any file is parsed.
func Load(ctx context.Context, in Inputs) (*domain.Dataset, error) {
	if missing := in.Missing(); len(missing) > 0 {
		return nil, &MissingInputError{Missing: missing}
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var (
		nasdaq, spx []domain.PriceBar
		news        []domain.NewsEvent
	)

	var g errgroup.Group
	g.Go(func() error {
		var err error
		nasdaq, err = ParseBars(in[SlotNasdaq])
		return err
	})
	g.Go(func() error {
		var err error
		spx, err = ParseBars(in[SlotSPX])
		return err
	})
	g.Go(func() error {
		var err error
		news, err = ParseNews(in[SlotNews])
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &domain.Dataset{
		Bars: map[domain.Instrument][]domain.PriceBar{
			domain.InstrumentNasdaq: nasdaq,
			domain.InstrumentSPX:    spx,
		},
		News: news,
	}, nil
}
