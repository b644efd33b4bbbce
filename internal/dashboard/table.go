package dashboard

import (
	"fmt"
	"io"

	"github.com/olekukonko/tablewriter"
)

// RenderText writes the view as plain tables: one per chart panel followed
// by the news feed.
func RenderText(w io.Writer, v View) {
	if v.WeekLabel != "" {
		fmt.Fprintln(w, v.WeekLabel)
	}
	for _, p := range v.Panels {
		fmt.Fprintf(w, "\n%s (%s bars)\n", p.Watermark, FormatInt(len(p.Candles)))
		renderCandles(w, p.Candles)
	}

	fmt.Fprintf(w, "\n%s\n", v.Heading)
	if len(v.News) == 0 {
		fmt.Fprintln(w, "(no events)")
		return
	}
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Time", "Impact", "Currency", "Description"})
	table.SetAutoWrapText(false)
	for _, n := range v.News {
		table.Append([]string{n.Time, n.Impact, n.Currency, n.Description})
	}
	table.Render()
}

func renderCandles(w io.Writer, candles []Candle) {
	if len(candles) == 0 {
		fmt.Fprintln(w, "(no bars)")
		return
	}
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Time", "Open", "High", "Low", "Close"})
	table.SetAlignment(tablewriter.ALIGN_RIGHT)
	for _, c := range candles {
		table.Append([]string{c.Time, FormatPrice(c.Open), FormatPrice(c.High), FormatPrice(c.Low), FormatPrice(c.Close)})
	}
	table.Render()
}
