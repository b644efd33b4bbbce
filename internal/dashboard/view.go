// Package dashboard shapes filtered market data into the records the
// presentation layer draws: candlestick panels, news lines and headings.
package dashboard

import (
	"marketviewer/internal/domain"
	"marketviewer/internal/filter"
	"marketviewer/internal/session"
)

// CandleTimeLayout is the time format charting widgets expect.
const CandleTimeLayout = "2006-01-02 15:04:05"

// NewsTimeLayout is the timestamp format of a rendered news line.
const NewsTimeLayout = "2006/01/02 15:04:05"

// Candle is the chart record for one price bar.
type Candle struct {
	Time  string
	Open  float64
	High  float64
	Low   float64
	Close float64
}

// ToCandle maps a price bar to its chart record.
func ToCandle(b domain.PriceBar) Candle {
	return Candle{
		Time:  b.Timestamp.Format(CandleTimeLayout),
		Open:  b.Open,
		High:  b.High,
		Low:   b.Low,
		Close: b.Close,
	}
}

// ToCandles maps bars in order.
func ToCandles(bars []domain.PriceBar) []Candle {
	out := make([]Candle, len(bars))
	for i := range bars {
		out[i] = ToCandle(bars[i])
	}
	return out
}

// Panel is one candlestick chart.
type Panel struct {
	Instrument domain.Instrument
	Watermark  string
	Candles    []Candle
}

// NewsLine is one rendered entry of the news feed.
type NewsLine struct {
	Time        string
	Impact      string
	Currency    string
	Description string
}

// Text renders the line as "timestamp - impact - description".
func (l NewsLine) Text() string {
	return l.Time + " - " + l.Impact + " - " + l.Description
}

// ToNewsLines renders events in order.
func ToNewsLines(events []domain.NewsEvent) []NewsLine {
	out := make([]NewsLine, len(events))
	for i, ev := range events {
		out[i] = NewsLine{
			Time:        ev.Timestamp.Format(NewsTimeLayout),
			Impact:      string(ev.Impact),
			Currency:    ev.Currency,
			Description: ev.Description,
		}
	}
	return out
}

// NewsHeading titles the news feed for the window.
func NewsHeading(w session.Window) string {
	first, last := w.Range()
	return "News for " + FormatRange(first.Format(session.DateLayout), last.Format(session.DateLayout))
}

// WeekLabel is the sidebar caption shown in week mode, or "" in day mode.
func WeekLabel(w session.Window) string {
	if w.Mode != session.ModeWeek {
		return ""
	}
	return "Week: " + w.WeekStart.Format(session.DateLayout) + " to " + w.WeekEnd.Format(session.DateLayout)
}

// View is everything the page needs for one render.
type View struct {
	Window     session.Window
	Heading    string
	WeekLabel  string
	Panels     []Panel
	News       []NewsLine
	Filter     filter.News
	Currencies []string
	Impacts    []string
}

// BuildView filters the dataset through w and f and shapes the result.
// labels overrides the default chart watermarks per instrument.
func BuildView(ds *domain.Dataset, w session.Window, f filter.News, labels map[domain.Instrument]string) View {
	f = f.Normalize()
	panels := make([]Panel, 0, len(domain.Instruments))
	for _, inst := range domain.Instruments {
		mark := inst.Watermark()
		if l := labels[inst]; l != "" {
			mark = l
		}
		panels = append(panels, Panel{
			Instrument: inst,
			Watermark:  mark,
			Candles:    ToCandles(filter.MarketSlice(ds.Bars[inst], w)),
		})
	}
	return View{
		Window:     w,
		Heading:    NewsHeading(w),
		WeekLabel:  WeekLabel(w),
		Panels:     panels,
		News:       ToNewsLines(filter.NewsSlice(ds.News, w, f)),
		Filter:     f,
		Currencies: filter.Currencies(ds.News),
		Impacts:    filter.ImpactOptions(),
	}
}
