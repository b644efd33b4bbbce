// Package httpapi serves the market viewer over HTTP: uploads, session
// navigation and the rendered view as JSON, plus the single page that draws it.
package httpapi

import (
	"errors"

	"marketviewer/internal/dashboard"
	"marketviewer/internal/loader"
	"marketviewer/internal/session"
	"marketviewer/internal/viewer"
)

// UploadPrompt is shown while any input is missing.
const UploadPrompt = "Please upload all CSV files."

// InputJSON describes one upload slot.
type InputJSON struct {
	Input  string `json:"input"`
	File   string `json:"file,omitempty"`
	Loaded bool   `json:"loaded"`
	Rows   int    `json:"rows"`
	Error  string `json:"error,omitempty"`
}

// StatusResponse is returned by the status and upload endpoints.
type StatusResponse struct {
	Ready   bool        `json:"ready"`
	Dataset string      `json:"dataset,omitempty"`
	Missing []string    `json:"missing"`
	Inputs  []InputJSON `json:"inputs"`
	Prompt  string      `json:"prompt,omitempty"`
}

// WindowJSON is the session window.
type WindowJSON struct {
	Mode      string `json:"mode"`
	Anchor    string `json:"anchor"`
	WeekStart string `json:"weekStart"`
	WeekEnd   string `json:"weekEnd"`
	WeekLabel string `json:"weekLabel,omitempty"`
}

// CandleJSON is one candlestick record.
type CandleJSON struct {
	Time  string  `json:"time"`
	Open  float64 `json:"open"`
	High  float64 `json:"high"`
	Low   float64 `json:"low"`
	Close float64 `json:"close"`
}

// ChartJSON is one candlestick panel.
type ChartJSON struct {
	Instrument string       `json:"instrument"`
	Watermark  string       `json:"watermark"`
	Candles    []CandleJSON `json:"candles"`
}

// NewsLineJSON is one entry of the news feed.
type NewsLineJSON struct {
	Time        string `json:"time"`
	Impact      string `json:"impact"`
	Currency    string `json:"currency"`
	Description string `json:"description"`
	Text        string `json:"text"`
}

// FilterJSON echoes the news filter that produced a view.
type FilterJSON struct {
	Impacts  []string `json:"impacts"`
	Currency string   `json:"currency"`
}

// OptionsJSON lists the choices for the news filter widgets.
type OptionsJSON struct {
	Impacts    []string `json:"impacts"`
	Currencies []string `json:"currencies"`
}

// ViewResponse is everything the page draws for one render.
type ViewResponse struct {
	Window  WindowJSON     `json:"window"`
	Heading string         `json:"heading"`
	Sync    bool           `json:"sync"`
	Charts  []ChartJSON    `json:"charts"`
	News    []NewsLineJSON `json:"news"`
	Filter  FilterJSON     `json:"filter"`
	Options OptionsJSON    `json:"options"`
}

// ExportResponse reports where a view was exported.
type ExportResponse struct {
	Window string `json:"window"`
	Dir    string `json:"dir"`
}

// ErrorResponse is the body of every non-2xx reply.
type ErrorResponse struct {
	Error   string   `json:"error"`
	Missing []string `json:"missing,omitempty"`
	File    string   `json:"file,omitempty"`
	Line    int      `json:"line,omitempty"`
}

// Request bodies.

type dateRequest struct {
	Date string `json:"date"`
}

type modeRequest struct {
	Mode string `json:"mode"`
}

type stepRequest struct {
	Delta int `json:"delta"`
}

func slotNames(slots []loader.Slot) []string {
	names := make([]string, 0, len(slots))
	for _, s := range slots {
		names = append(names, string(s))
	}
	return names
}

func convertStatus(s viewer.Status) StatusResponse {
	inputs := make([]InputJSON, 0, len(s.Inputs))
	for _, in := range s.Inputs {
		ij := InputJSON{
			Input:  string(in.Slot),
			File:   in.Name,
			Loaded: in.Loaded,
			Rows:   in.Rows,
		}
		if in.Err != nil {
			ij.Error = in.Err.Error()
		}
		inputs = append(inputs, ij)
	}
	resp := StatusResponse{
		Ready:   s.Ready,
		Dataset: s.Dataset,
		Missing: slotNames(s.Missing),
		Inputs:  inputs,
	}
	if !s.Ready {
		resp.Prompt = UploadPrompt
	}
	return resp
}

func convertWindow(w session.Window) WindowJSON {
	return WindowJSON{
		Mode:      string(w.Mode),
		Anchor:    w.Anchor.Format(session.DateLayout),
		WeekStart: w.WeekStart.Format(session.DateLayout),
		WeekEnd:   w.WeekEnd.Format(session.DateLayout),
		WeekLabel: dashboard.WeekLabel(w),
	}
}

func convertView(v dashboard.View) ViewResponse {
	charts := make([]ChartJSON, 0, len(v.Panels))
	for _, p := range v.Panels {
		candles := make([]CandleJSON, 0, len(p.Candles))
		for _, c := range p.Candles {
			candles = append(candles, CandleJSON{Time: c.Time, Open: c.Open, High: c.High, Low: c.Low, Close: c.Close})
		}
		charts = append(charts, ChartJSON{
			Instrument: string(p.Instrument),
			Watermark:  p.Watermark,
			Candles:    candles,
		})
	}

	news := make([]NewsLineJSON, 0, len(v.News))
	for _, n := range v.News {
		news = append(news, NewsLineJSON{
			Time:        n.Time,
			Impact:      n.Impact,
			Currency:    n.Currency,
			Description: n.Description,
			Text:        n.Text(),
		})
	}

	return ViewResponse{
		Window:  convertWindow(v.Window),
		Heading: v.Heading,
		Sync:    true,
		Charts:  charts,
		News:    news,
		Filter:  FilterJSON{Impacts: v.Filter.Impacts, Currency: v.Filter.Currency},
		Options: OptionsJSON{Impacts: v.Impacts, Currencies: v.Currencies},
	}
}

// errorResponse maps viewer errors to a status code and body.
func errorResponse(err error) (int, ErrorResponse) {
	var me *loader.MissingInputError
	if errors.As(err, &me) {
		return 409, ErrorResponse{Error: UploadPrompt, Missing: slotNames(me.Missing)}
	}
	var pe *loader.ParseError
	if errors.As(err, &pe) {
		return 422, ErrorResponse{Error: pe.Error(), File: pe.File, Line: pe.Line}
	}
	if errors.Is(err, session.ErrModeMismatch) {
		return 409, ErrorResponse{Error: err.Error()}
	}
	return 500, ErrorResponse{Error: err.Error()}
}
