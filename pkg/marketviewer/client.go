// Package marketviewer is a Go client for the marketviewer-server HTTP API.
package marketviewer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"
)

// Client provides a Go SDK for interacting with the marketviewer-server API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a new marketviewer API client.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// Input is one upload slot as reported by the server.
type Input struct {
	Input  string `json:"input"`
	File   string `json:"file,omitempty"`
	Loaded bool   `json:"loaded"`
	Rows   int    `json:"rows"`
	Error  string `json:"error,omitempty"`
}

// Status reports which inputs the server holds.
type Status struct {
	Ready   bool     `json:"ready"`
	Dataset string   `json:"dataset,omitempty"`
	Missing []string `json:"missing"`
	Inputs  []Input  `json:"inputs"`
	Prompt  string   `json:"prompt,omitempty"`
}

// Window is the server's session window.
type Window struct {
	Mode      string `json:"mode"`
	Anchor    string `json:"anchor"`
	WeekStart string `json:"weekStart"`
	WeekEnd   string `json:"weekEnd"`
	WeekLabel string `json:"weekLabel,omitempty"`
}

// Candle is one price bar of a chart.
type Candle struct {
	Time  string  `json:"time"`
	Open  float64 `json:"open"`
	High  float64 `json:"high"`
	Low   float64 `json:"low"`
	Close float64 `json:"close"`
}

// Chart is one instrument's candles.
type Chart struct {
	Instrument string   `json:"instrument"`
	Watermark  string   `json:"watermark"`
	Candles    []Candle `json:"candles"`
}

// NewsLine is one entry of the news feed.
type NewsLine struct {
	Time        string `json:"time"`
	Impact      string `json:"impact"`
	Currency    string `json:"currency"`
	Description string `json:"description"`
	Text        string `json:"text"`
}

// View is one rendered window.
type View struct {
	Window  Window     `json:"window"`
	Heading string     `json:"heading"`
	Sync    bool       `json:"sync"`
	Charts  []Chart    `json:"charts"`
	News    []NewsLine `json:"news"`
	Filter  struct {
		Impacts  []string `json:"impacts"`
		Currency string   `json:"currency"`
	} `json:"filter"`
	Options struct {
		Impacts    []string `json:"impacts"`
		Currencies []string `json:"currencies"`
	} `json:"options"`
}

// APIError is a non-2xx reply from the server.
type APIError struct {
	StatusCode int
	Message    string   `json:"error"`
	Missing    []string `json:"missing,omitempty"`
	File       string   `json:"file,omitempty"`
	Line       int      `json:"line,omitempty"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("server returned %d: %s", e.StatusCode, e.Message)
}

// Status retrieves the upload slots.
func (c *Client) Status(ctx context.Context) (*Status, error) {
	return call[Status](c, ctx, http.MethodGet, "/api/status", nil, "")
}

// Upload sends data as the named input (nasdaq, spx or news).
func (c *Client) Upload(ctx context.Context, input, name string, data []byte) (*Status, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", name)
	if err != nil {
		return nil, err
	}
	if _, err := fw.Write(data); err != nil {
		return nil, err
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}
	return call[Status](c, ctx, http.MethodPost, "/api/upload/"+url.PathEscape(input), &buf, mw.FormDataContentType())
}

// UploadFile reads path and uploads it as input.
func (c *Client) UploadFile(ctx context.Context, input, path string) (*Status, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return c.Upload(ctx, input, filepath.Base(path), data)
}

// Session retrieves the current window.
func (c *Client) Session(ctx context.Context) (*Window, error) {
	return call[Window](c, ctx, http.MethodGet, "/api/session", nil, "")
}

// Reset clears every input and returns the window to today.
func (c *Client) Reset(ctx context.Context) (*Window, error) {
	return call[Window](c, ctx, http.MethodDelete, "/api/session", nil, "")
}

// SetDate anchors the window on date (YYYY-MM-DD).
func (c *Client) SetDate(ctx context.Context, date string) (*Window, error) {
	return c.postWindow(ctx, "/api/session/date", map[string]string{"date": date})
}

// SetMode switches between "day" and "week".
func (c *Client) SetMode(ctx context.Context, mode string) (*Window, error) {
	return c.postWindow(ctx, "/api/session/mode", map[string]string{"mode": mode})
}

// StepDay moves the anchor by delta days. Only valid in day mode.
func (c *Client) StepDay(ctx context.Context, delta int) (*Window, error) {
	return c.postWindow(ctx, "/api/session/step-day", map[string]int{"delta": delta})
}

// StepWeek moves the anchor by delta weeks. Only valid in week mode.
func (c *Client) StepWeek(ctx context.Context, delta int) (*Window, error) {
	return c.postWindow(ctx, "/api/session/step-week", map[string]int{"delta": delta})
}

// View renders the current window. Empty impacts and currency mean "All".
func (c *Client) View(ctx context.Context, impacts []string, currency string) (*View, error) {
	return call[View](c, ctx, http.MethodGet, "/api/view"+filterQuery(impacts, currency), nil, "")
}

// Export asks the server to write the current window to parquet and returns
// the export key it was written under.
func (c *Client) Export(ctx context.Context, impacts []string, currency string) (string, error) {
	var out struct {
		Window string `json:"window"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/export"+filterQuery(impacts, currency), nil, "", &out); err != nil {
		return "", err
	}
	return out.Window, nil
}

func filterQuery(impacts []string, currency string) string {
	q := url.Values{}
	for _, imp := range impacts {
		q.Add("impact", imp)
	}
	if currency != "" {
		q.Set("currency", currency)
	}
	if len(q) == 0 {
		return ""
	}
	return "?" + q.Encode()
}

func (c *Client) postWindow(ctx context.Context, path string, body any) (*Window, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	return call[Window](c, ctx, http.MethodPost, path, bytes.NewReader(data), "application/json")
}

func call[T any](c *Client, ctx context.Context, method, path string, body io.Reader, contentType string) (*T, error) {
	var v T
	if err := c.do(ctx, method, path, body, contentType, &v); err != nil {
		return nil, err
	}
	return &v, nil
}

func (c *Client) do(ctx context.Context, method, path string, body io.Reader, contentType string, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		if err := json.NewDecoder(resp.Body).Decode(apiErr); err != nil {
			apiErr.Message = http.StatusText(resp.StatusCode)
		}
		return apiErr
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding %s response: %w", path, err)
	}
	return nil
}
