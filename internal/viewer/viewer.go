// Package viewer holds the one interactive session: the uploaded inputs,
// the selected window and a cache of rendered views.
package viewer

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"marketviewer/internal/dashboard"
	"marketviewer/internal/domain"
	"marketviewer/internal/filter"
	"marketviewer/internal/loader"
	"marketviewer/internal/session"
)

// InputStatus describes one upload slot.
type InputStatus struct {
	Slot   loader.Slot
	Name   string
	Loaded bool
	Rows   int
	Err    error
}

// Status summarises the session's inputs.
type Status struct {
	Inputs  []InputStatus
	Missing []loader.Slot
	Ready   bool
	Dataset string // generation ID, empty before the first upload
}

type slotState struct {
	name string
	bars []domain.PriceBar
	news []domain.NewsEvent
	rows int
	err  error
}

// Viewer owns the uploaded data and the session window. It is safe for
// concurrent use; every call is one synchronous recomputation.
type Viewer struct {
	mu         sync.RWMutex
	slots      map[loader.Slot]*slotState
	generation string
	window     session.Window
	views      *sync.Map // cache key -> dashboard.View

	now    func() time.Time
	loc    *time.Location
	labels map[domain.Instrument]string
	log    *slog.Logger
}

// Option customises a Viewer.
type Option func(*Viewer)

// WithClock replaces time.Now as the source of today's date.
func WithClock(now func() time.Time) Option {
	return func(v *Viewer) { v.now = now }
}

// WithLocation sets the zone used to read today's calendar date.
func WithLocation(loc *time.Location) Option {
	return func(v *Viewer) { v.loc = loc }
}

// WithLabels overrides chart watermarks per instrument.
func WithLabels(labels map[domain.Instrument]string) Option {
	return func(v *Viewer) { v.labels = labels }
}

// New creates a Viewer with no inputs and a day window on today.
func New(log *slog.Logger, opts ...Option) *Viewer {
	v := &Viewer{
		slots: make(map[loader.Slot]*slotState),
		views: &sync.Map{},
		now:   time.Now,
		loc:   time.Local,
		log:   log,
	}
	for _, opt := range opts {
		opt(v)
	}
	v.window = session.New(v.now().In(v.loc))
	return v
}

// ---------------------------------------------------------------------------
// Inputs
// ---------------------------------------------------------------------------

// Upload parses src into slot, replacing whatever the slot held. On a parse
// failure the slot is left empty and the error is kept for Status and View.
func (v *Viewer) Upload(_ context.Context, slot loader.Slot, src *loader.Source) (InputStatus, error) {
	st := &slotState{name: src.Name}
	if _, ok := slot.Instrument(); ok {
		bars, err := loader.ParseBars(src)
		st.bars, st.rows, st.err = bars, len(bars), err
	} else {
		news, err := loader.ParseNews(src)
		st.news, st.rows, st.err = news, len(news), err
	}

	v.mu.Lock()
	v.slots[slot] = st
	v.generation = uuid.NewString()
	v.views = &sync.Map{}
	gen := v.generation
	v.mu.Unlock()

	status := InputStatus{Slot: slot, Name: st.name, Loaded: st.err == nil, Rows: st.rows, Err: st.err}
	if st.err != nil {
		v.log.Warn("upload rejected", "input", slot, "file", src.Name, "error", st.err)
		return status, st.err
	}
	v.log.Info("upload parsed", "input", slot, "file", src.Name, "rows", st.rows, "dataset", gen)
	return status, nil
}

// Reset discards every input and returns the window to today.
func (v *Viewer) Reset() session.Window {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.slots = make(map[loader.Slot]*slotState)
	v.generation = ""
	v.views = &sync.Map{}
	v.window = session.New(v.now().In(v.loc))
	v.log.Info("session reset")
	return v.window
}

// Status reports which inputs are loaded.
func (v *Viewer) Status() Status {
	v.mu.RLock()
	defer v.mu.RUnlock()

	s := Status{Dataset: v.generation}
	for _, slot := range loader.Slots {
		is := InputStatus{Slot: slot}
		if st := v.slots[slot]; st != nil {
			is.Name = st.name
			is.Err = st.err
			is.Loaded = st.err == nil
			is.Rows = st.rows
		}
		if !is.Loaded {
			s.Missing = append(s.Missing, slot)
		}
		s.Inputs = append(s.Inputs, is)
	}
	s.Ready = len(s.Missing) == 0
	return s
}

// dataset assembles the loaded inputs. Must be called with mu held.
func (v *Viewer) dataset() (*domain.Dataset, error) {
	for _, slot := range loader.Slots {
		if st := v.slots[slot]; st != nil && st.err != nil {
			return nil, st.err
		}
	}
	var missing []loader.Slot
	for _, slot := range loader.Slots {
		if v.slots[slot] == nil {
			missing = append(missing, slot)
		}
	}
	if len(missing) > 0 {
		return nil, &loader.MissingInputError{Missing: missing}
	}
	return &domain.Dataset{
		Bars: map[domain.Instrument][]domain.PriceBar{
			domain.InstrumentNasdaq: v.slots[loader.SlotNasdaq].bars,
			domain.InstrumentSPX:    v.slots[loader.SlotSPX].bars,
		},
		News: v.slots[loader.SlotNews].news,
	}, nil
}

// Dataset returns the loaded data with the current window, or the error that
// prevents rendering.
func (v *Viewer) Dataset() (*domain.Dataset, session.Window, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	ds, err := v.dataset()
	return ds, v.window, err
}

// ---------------------------------------------------------------------------
// Navigation
// ---------------------------------------------------------------------------

// Window returns the current session window.
func (v *Viewer) Window() session.Window {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.window
}

func (v *Viewer) apply(action string, fn func(session.Window) (session.Window, error)) (session.Window, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	next, err := fn(v.window)
	if err != nil {
		return v.window, err
	}
	v.window = next
	v.log.Debug("window changed", "action", action, "mode", next.Mode,
		"anchor", next.Anchor.Format(session.DateLayout))
	return next, nil
}

// SelectDate anchors the window on d.
func (v *Viewer) SelectDate(d time.Time) session.Window {
	w, _ := v.apply("select_date", func(w session.Window) (session.Window, error) {
		return w.SelectDate(d), nil
	})
	return w
}

// SwitchMode changes between day and week mode.
func (v *Viewer) SwitchMode(m session.Mode) (session.Window, error) {
	return v.apply("switch_mode", func(w session.Window) (session.Window, error) {
		return w.SwitchMode(m)
	})
}

// StepDay moves the day window by n days.
func (v *Viewer) StepDay(n int) (session.Window, error) {
	return v.apply("step_day", func(w session.Window) (session.Window, error) {
		return w.StepDay(n)
	})
}

// StepWeek moves the week window by n weeks.
func (v *Viewer) StepWeek(n int) (session.Window, error) {
	return v.apply("step_week", func(w session.Window) (session.Window, error) {
		return w.StepWeek(n)
	})
}

// ---------------------------------------------------------------------------
// Rendering
// ---------------------------------------------------------------------------

// View renders the current window with the given news filter. Results are
// cached per dataset generation, window and filter.
func (v *Viewer) View(f filter.News) (dashboard.View, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()

	ds, err := v.dataset()
	if err != nil {
		return dashboard.View{}, err
	}

	key := v.generation + "|" + string(v.window.Mode) + "|" +
		v.window.Anchor.Format(session.DateLayout) + "|" + f.Key()
	if cached, ok := v.views.Load(key); ok {
		return cached.(dashboard.View), nil
	}

	view := dashboard.BuildView(ds, v.window, f, v.labels)
	v.views.Store(key, view)
	return view, nil
}

// IsMissingInput reports whether err is a MissingInputError.
func IsMissingInput(err error) bool {
	var me *loader.MissingInputError
	return errors.As(err, &me)
}
