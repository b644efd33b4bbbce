package loader

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"marketviewer/internal/domain"
)

const nasdaqCSV = `Date,Timestamp,Open,High,Low,Close,Volume
20240314,09:30:00,18100.25,18120.5,18090,18110.75,1200
20240314,09:31:00,18110.75,18115,18100.5,18102,900
20240315,09:30:00,18050,18060.25,18040,18055.5,1500
`

const newsCSV = `Date,Time,Currency,Impact,Description
2024/03/14,08:30,USD,H,PPI m/m
2024/03/14,08:30,USD,M,Unemployment Claims
2024/03/15,10:00,EUR,L,ECB Speech
`

func src(name, data string) *Source {
	return &Source{Name: name, Data: []byte(data)}
}

func TestParseBars(t *testing.T) {
	bars, err := ParseBars(src("nq.csv", nasdaqCSV))
	require.NoError(t, err)
	require.Len(t, bars, 3)

	assert.Equal(t, time.Date(2024, 3, 14, 9, 30, 0, 0, time.UTC), bars[0].Timestamp)
	assert.Equal(t, 18100.25, bars[0].Open)
	assert.Equal(t, 18120.5, bars[0].High)
	assert.Equal(t, 18090.0, bars[0].Low)
	assert.Equal(t, 18110.75, bars[0].Close)

	// File order is kept.
	assert.Equal(t, time.Date(2024, 3, 14, 9, 31, 0, 0, time.UTC), bars[1].Timestamp)
	assert.Equal(t, time.Date(2024, 3, 15, 9, 30, 0, 0, time.UTC), bars[2].Timestamp)
}

func TestParseBarsISODate(t *testing.T) {
	data := "Date,Timestamp,Open,High,Low,Close\n2024-03-14,16:00:00,1,2,0.5,1.5\n"
	bars, err := ParseBars(src("es.csv", data))
	require.NoError(t, err)
	require.Len(t, bars, 1)
	assert.Equal(t, time.Date(2024, 3, 14, 16, 0, 0, 0, time.UTC), bars[0].Timestamp)
}

func TestParseBarsKeepsUnsortedOrder(t *testing.T) {
	data := "Date,Timestamp,Open,High,Low,Close\n" +
		"20240315,09:30:00,1,1,1,1\n" +
		"20240314,09:30:00,2,2,2,2\n"
	bars, err := ParseBars(src("es.csv", data))
	require.NoError(t, err)
	require.Len(t, bars, 2)
	assert.Equal(t, 1.0, bars[0].Close)
	assert.Equal(t, 2.0, bars[1].Close)
}

func TestParseBarsStripsBOM(t *testing.T) {
	data := "\xef\xbb\xbfDate,Timestamp,Open,High,Low,Close\n20240314,09:30:00,1,2,0.5,1.5\n"
	bars, err := ParseBars(src("es.csv", data))
	require.NoError(t, err)
	assert.Len(t, bars, 1)
}

func TestParseBarsBadDate(t *testing.T) {
	data := "Date,Timestamp,Open,High,Low,Close\n" +
		"20240314,09:30:00,1,2,0.5,1.5\n" +
		"14/03/2024,09:31:00,1,2,0.5,1.5\n"
	_, err := ParseBars(src("nq.csv", data))
	require.Error(t, err)

	var pe *ParseError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, "nq.csv", pe.File)
	assert.Equal(t, 3, pe.Line)
	assert.Equal(t, "Date", pe.Column)
	assert.Contains(t, err.Error(), "nq.csv")
}

func TestParseBarsBadTimestamp(t *testing.T) {
	data := "Date,Timestamp,Open,High,Low,Close\n20240314,9h30,1,2,0.5,1.5\n"
	_, err := ParseBars(src("nq.csv", data))

	var pe *ParseError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, 2, pe.Line)
	assert.Equal(t, "Timestamp", pe.Column)
}

func TestParseBarsBadNumber(t *testing.T) {
	data := "Date,Timestamp,Open,High,Low,Close\n20240314,09:30:00,abc,2,0.5,1.5\n"
	_, err := ParseBars(src("nq.csv", data))
	require.Error(t, err)

	var pe *ParseError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, "nq.csv", pe.File)
	assert.Equal(t, 2, pe.Line)
	assert.Equal(t, "Open", pe.Column)
}

func TestParseBarsRejectsEmptyAndNonFinitePrices(t *testing.T) {
	cases := []struct {
		row    string
		column string
	}{
		{"20240314,09:30:00,,101,99,100", "Open"},
		{"20240314,09:30:00,100,  ,99,100", "High"},
		{"20240314,09:30:00,100,101,NaN,100", "Low"},
		{"20240314,09:30:00,100,101,99,+Inf", "Close"},
		{"20240314,09:30:00,-infinity,101,99,100", "Open"},
	}
	for _, tc := range cases {
		data := "Date,Timestamp,Open,High,Low,Close\n" + tc.row + "\n"
		bars, err := ParseBars(src("nq.csv", data))
		assert.Nil(t, bars, tc.row)

		var pe *ParseError
		require.True(t, errors.As(err, &pe), tc.row)
		assert.Equal(t, 2, pe.Line, tc.row)
		assert.Equal(t, tc.column, pe.Column, tc.row)
	}
}

func TestParseBarsMissingColumns(t *testing.T) {
	data := "Date,Open,High,Low\n20240314,1,2,0.5\n"
	_, err := ParseBars(src("nq.csv", data))

	var pe *ParseError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, 1, pe.Line)
	assert.Contains(t, pe.Error(), "Timestamp")
	assert.Contains(t, pe.Error(), "Close")
}

func TestParseBarsEmptyFile(t *testing.T) {
	_, err := ParseBars(src("empty.csv", ""))
	var pe *ParseError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, "empty.csv", pe.File)
}

func TestParseBarsHeaderOnly(t *testing.T) {
	bars, err := ParseBars(src("nq.csv", "Date,Timestamp,Open,High,Low,Close\n"))
	require.NoError(t, err)
	assert.Empty(t, bars)
}

func TestParseNews(t *testing.T) {
	events, err := ParseNews(src("news.csv", newsCSV))
	require.NoError(t, err)
	require.Len(t, events, 3)

	assert.Equal(t, time.Date(2024, 3, 14, 8, 30, 0, 0, time.UTC), events[0].Timestamp)
	assert.Equal(t, domain.ImpactHigh, events[0].Impact)
	assert.Equal(t, "USD", events[0].Currency)
	assert.Equal(t, "PPI m/m", events[0].Description)
	assert.Equal(t, domain.ImpactLow, events[2].Impact)
	assert.Equal(t, "EUR", events[2].Currency)
}

func TestParseNewsBadTime(t *testing.T) {
	data := "Date,Time,Currency,Impact,Description\n2024/03/14,8.30am,USD,H,PPI\n"
	_, err := ParseNews(src("news.csv", data))

	var pe *ParseError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, "news.csv", pe.File)
	assert.Equal(t, 2, pe.Line)
	assert.Equal(t, "Time", pe.Column)
}

func TestParseNewsLineAfterMultilineField(t *testing.T) {
	data := "Date,Time,Currency,Impact,Description\n" +
		"2024/03/14,08:30,USD,H,\"PPI m/m\nrevised\"\n" +
		"2024/03/14,8.30am,USD,M,Claims\n"
	_, err := ParseNews(src("news.csv", data))

	var pe *ParseError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, 4, pe.Line)
	assert.Equal(t, "Time", pe.Column)
}

func TestParseNewsKeepsMultilineDescription(t *testing.T) {
	data := "Date,Time,Currency,Impact,Description\n" +
		"2024/03/14,08:30,USD,H,\"PPI m/m\nrevised\"\n"
	events, err := ParseNews(src("news.csv", data))
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "PPI m/m\nrevised", events[0].Description)
}

func TestLoad(t *testing.T) {
	in := Inputs{
		SlotNasdaq: src("nq.csv", nasdaqCSV),
		SlotSPX:    src("es.csv", nasdaqCSV),
		SlotNews:   src("news.csv", newsCSV),
	}
	ds, err := Load(context.Background(), in)
	require.NoError(t, err)
	assert.Len(t, ds.Bars[domain.InstrumentNasdaq], 3)
	assert.Len(t, ds.Bars[domain.InstrumentSPX], 3)
	assert.Len(t, ds.News, 3)
}

func TestLoadCancelled(t *testing.T) {
	in := Inputs{
		SlotNasdaq: src("nq.csv", nasdaqCSV),
		SlotSPX:    src("es.csv", nasdaqCSV),
		SlotNews:   src("news.csv", newsCSV),
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	ds, err := Load(ctx, in)
	assert.Nil(t, ds)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLoadMissingInputs(t *testing.T) {
	in := Inputs{SlotSPX: src("es.csv", nasdaqCSV)}
	_, err := Load(context.Background(), in)

	var me *MissingInputError
	require.True(t, errors.As(err, &me))
	assert.Equal(t, []Slot{SlotNasdaq, SlotNews}, me.Missing)
	assert.Equal(t, "missing input: nasdaq, news", me.Error())
}

func TestLoadNoPartialResult(t *testing.T) {
	in := Inputs{
		SlotNasdaq: src("nq.csv", nasdaqCSV),
		SlotSPX:    src("es.csv", "Date,Timestamp\n"),
		SlotNews:   src("news.csv", newsCSV),
	}
	ds, err := Load(context.Background(), in)
	assert.Nil(t, ds)

	var pe *ParseError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, "es.csv", pe.File)
}

func TestParseSlot(t *testing.T) {
	s, ok := ParseSlot("NASDAQ")
	assert.True(t, ok)
	assert.Equal(t, SlotNasdaq, s)

	_, ok = ParseSlot("dax")
	assert.False(t, ok)

	inst, ok := SlotSPX.Instrument()
	assert.True(t, ok)
	assert.Equal(t, domain.InstrumentSPX, inst)

	_, ok = SlotNews.Instrument()
	assert.False(t, ok)
}
