// Package domain defines the core value types shared across marketviewer:
// price bars, news events and the instruments they belong to.
package domain

import "time"

// Instrument identifies one of the two price series shown side by side.
type Instrument string

const (
	InstrumentNasdaq Instrument = "nasdaq"
	InstrumentSPX    Instrument = "spx"
)

// Instruments lists the price series in display order.
var Instruments = []Instrument{InstrumentNasdaq, InstrumentSPX}

// Watermark returns the short futures label drawn over the instrument's chart.
func (i Instrument) Watermark() string {
	switch i {
	case InstrumentNasdaq:
		return "NQ"
	case InstrumentSPX:
		return "ES"
	default:
		return string(i)
	}
}

// PriceBar is one OHLC sampling interval of an instrument.
type PriceBar struct {
	Timestamp time.Time
	Open      float64
	High      float64
	Low       float64
	Close     float64
}

// Impact is the severity category of a calendar news event.
type Impact string

const (
	ImpactHigh   Impact = "H"
	ImpactMedium Impact = "M"
	ImpactLow    Impact = "L"
	ImpactNone   Impact = "N"
)

// Impacts lists every impact level from most to least severe.
var Impacts = []Impact{ImpactHigh, ImpactMedium, ImpactLow, ImpactNone}

// NewsEvent is a single row of the macroeconomic calendar.
type NewsEvent struct {
	Timestamp   time.Time
	Impact      Impact
	Currency    string
	Description string
}

// Dataset holds everything parsed from one complete set of uploads.
type Dataset struct {
	Bars map[Instrument][]PriceBar
	News []NewsEvent
}
