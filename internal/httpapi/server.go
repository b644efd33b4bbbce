package httpapi

import (
	"bytes"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strings"
	"time"

	"marketviewer/internal/filter"
	"marketviewer/internal/loader"
	"marketviewer/internal/session"
	"marketviewer/internal/store"
	"marketviewer/internal/viewer"
)

//go:embed web/index.html
var webFS embed.FS

// DashboardServer serves the viewer HTTP API.
type DashboardServer struct {
	viewer    *viewer.Viewer
	exporter  *store.ParquetStore // nil disables POST /api/export
	maxUpload int64
	log       *slog.Logger
}

// NewDashboardServer creates a new dashboard HTTP server. maxUpload caps the
// size of one uploaded file in bytes; zero means no limit.
func NewDashboardServer(v *viewer.Viewer, exporter *store.ParquetStore, maxUpload int64, log *slog.Logger) *DashboardServer {
	return &DashboardServer{
		viewer:    v,
		exporter:  exporter,
		maxUpload: maxUpload,
		log:       log,
	}
}

// RegisterRoutes registers all API routes on the given mux.
func (s *DashboardServer) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /api/status", s.handleStatus)
	mux.HandleFunc("POST /api/upload/{input}", s.handleUpload)
	mux.HandleFunc("GET /api/session", s.handleSession)
	mux.HandleFunc("DELETE /api/session", s.handleReset)
	mux.HandleFunc("POST /api/session/date", s.handleSelectDate)
	mux.HandleFunc("POST /api/session/mode", s.handleSwitchMode)
	mux.HandleFunc("POST /api/session/step-day", s.handleStepDay)
	mux.HandleFunc("POST /api/session/step-week", s.handleStepWeek)
	mux.HandleFunc("GET /api/view", s.handleView)
	mux.HandleFunc("POST /api/export", s.handleExport)
}

// Handler returns an http.Handler with logging and CORS middleware.
func (s *DashboardServer) Handler() http.Handler {
	mux := http.NewServeMux()
	s.RegisterRoutes(mux)
	return s.logMiddleware(corsMiddleware(mux))
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *DashboardServer) logMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.log.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"elapsed", time.Since(start),
		)
	})
}

// writeJSON encodes v before touching the response so that an encoding
// failure still yields a 500 rather than an empty 200.
func writeJSON(w http.ResponseWriter, v any) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		slog.Error("encoding JSON response", "error", err)
		writeError(w, http.StatusInternalServerError, "encoding response: "+err.Error())
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(buf.Bytes())
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeErrorBody(w, status, ErrorResponse{Error: msg})
}

func writeErrorBody(w http.ResponseWriter, status int, body ErrorResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

// writeViewerError maps loader and session errors onto HTTP statuses.
func writeViewerError(w http.ResponseWriter, err error) {
	status, body := errorResponse(err)
	writeErrorBody(w, status, body)
}

func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("decoding request body: %w", err)
	}
	return nil
}

// parseNewsFilter reads ?impact= (repeated or comma separated) and ?currency=.
func parseNewsFilter(r *http.Request) filter.News {
	q := r.URL.Query()
	var impacts []string
	for _, v := range q["impact"] {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				impacts = append(impacts, part)
			}
		}
	}
	return filter.News{Impacts: impacts, Currency: strings.TrimSpace(q.Get("currency"))}.Normalize()
}

// ---------------------------------------------------------------------------
// Handlers
// ---------------------------------------------------------------------------

func (s *DashboardServer) handleIndex(w http.ResponseWriter, r *http.Request) {
	page, err := webFS.ReadFile("web/index.html")
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(page)
}

func (s *DashboardServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, convertStatus(s.viewer.Status()))
}

// handleUpload accepts one CSV either as multipart field "file" or as the raw
// request body. The file name comes from the multipart header or ?name=.
func (s *DashboardServer) handleUpload(w http.ResponseWriter, r *http.Request) {
	slot, ok := loader.ParseSlot(r.PathValue("input"))
	if !ok {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown input %q", r.PathValue("input")))
		return
	}
	if s.maxUpload > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload)
	}

	src, err := readUpload(r, slot)
	if err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			writeError(w, http.StatusRequestEntityTooLarge, err.Error())
			return
		}
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if _, err := s.viewer.Upload(r.Context(), slot, src); err != nil {
		writeViewerError(w, err)
		return
	}
	writeJSON(w, convertStatus(s.viewer.Status()))
}

func readUpload(r *http.Request, slot loader.Slot) (*loader.Source, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "multipart/form-data" {
		f, hdr, err := r.FormFile("file")
		if err != nil {
			return nil, fmt.Errorf("reading multipart field %q: %w", "file", err)
		}
		defer f.Close()
		data, err := io.ReadAll(f)
		if err != nil {
			return nil, err
		}
		return &loader.Source{Name: hdr.Filename, Data: data}, nil
	}

	data, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, err
	}
	name := r.URL.Query().Get("name")
	if name == "" {
		name = string(slot) + ".csv"
	}
	return &loader.Source{Name: name, Data: data}, nil
}

func (s *DashboardServer) handleSession(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, convertWindow(s.viewer.Window()))
}

func (s *DashboardServer) handleReset(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, convertWindow(s.viewer.Reset()))
}

func (s *DashboardServer) handleSelectDate(w http.ResponseWriter, r *http.Request) {
	var req dateRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	d, err := session.ParseDate(req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, convertWindow(s.viewer.SelectDate(d)))
}

func (s *DashboardServer) handleSwitchMode(w http.ResponseWriter, r *http.Request) {
	var req modeRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	m, err := session.ParseMode(req.Mode)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	win, err := s.viewer.SwitchMode(m)
	if err != nil {
		writeViewerError(w, err)
		return
	}
	writeJSON(w, convertWindow(win))
}

func (s *DashboardServer) handleStepDay(w http.ResponseWriter, r *http.Request) {
	s.handleStep(w, r, s.viewer.StepDay)
}

func (s *DashboardServer) handleStepWeek(w http.ResponseWriter, r *http.Request) {
	s.handleStep(w, r, s.viewer.StepWeek)
}

func (s *DashboardServer) handleStep(w http.ResponseWriter, r *http.Request, step func(int) (session.Window, error)) {
	var req stepRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	win, err := step(req.Delta)
	if err != nil {
		writeViewerError(w, err)
		return
	}
	writeJSON(w, convertWindow(win))
}

func (s *DashboardServer) handleView(w http.ResponseWriter, r *http.Request) {
	v, err := s.viewer.View(parseNewsFilter(r))
	if err != nil {
		writeViewerError(w, err)
		return
	}
	writeJSON(w, convertView(v))
}

// handleExport writes the current slices to parquet. The news filter is read
// from the query string the same way as GET /api/view.
func (s *DashboardServer) handleExport(w http.ResponseWriter, r *http.Request) {
	if s.exporter == nil {
		writeError(w, http.StatusNotFound, "export is not configured")
		return
	}
	ds, win, err := s.viewer.Dataset()
	if err != nil {
		writeViewerError(w, err)
		return
	}
	key, err := store.ExportWindow(r.Context(), s.exporter, s.exporter, ds, win, parseNewsFilter(r))
	if err != nil {
		s.log.Error("export failed", "window", win.Key(), "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.log.Info("window exported", "window", key, "dir", s.exporter.DataDir)
	writeJSON(w, ExportResponse{Window: key, Dir: s.exporter.DataDir})
}
