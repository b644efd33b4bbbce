package main

import (
	"fmt"
	"io"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"marketviewer/internal/filter"
	"marketviewer/internal/loader"
	"marketviewer/pkg/marketviewer"
)

var pushCmd = &cobra.Command{
	Use:   "push --server URL --nasdaq NQ.csv --spx ES.csv --news news.csv",
	Short: "Upload inputs to a running server and print its view",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		server := "http://" + cfg.Server.Addr()
		if cmd.Flags().Changed("server") {
			server, _ = cmd.Flags().GetString("server")
		}
		c := marketviewer.NewClient(server)

		for _, slot := range loader.Slots {
			path, _ := cmd.Flags().GetString(string(slot))
			if path == "" {
				continue
			}
			st, err := c.UploadFile(ctx, string(slot), path)
			if err != nil {
				return fmt.Errorf("uploading %s: %w", slot, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "uploaded %s (dataset %s)\n", path, st.Dataset)
		}

		if date, _ := cmd.Flags().GetString("date"); date != "" {
			if _, err := c.SetDate(ctx, date); err != nil {
				return err
			}
		}
		if cmd.Flags().Changed("mode") {
			mode, _ := cmd.Flags().GetString("mode")
			if _, err := c.SetMode(ctx, mode); err != nil {
				return err
			}
		}

		impacts, _ := cmd.Flags().GetStringSlice("impact")
		currency, _ := cmd.Flags().GetString("currency")
		v, err := c.View(ctx, impacts, currency)
		if err != nil {
			return err
		}
		printRemoteView(cmd.OutOrStdout(), v)
		return nil
	},
}

func printRemoteView(w io.Writer, v *marketviewer.View) {
	if v.Window.WeekLabel != "" {
		fmt.Fprintln(w, v.Window.WeekLabel)
	}
	summary := tablewriter.NewWriter(w)
	summary.SetHeader([]string{"Chart", "Bars", "First", "Last"})
	for _, c := range v.Charts {
		first, last := "-", "-"
		if n := len(c.Candles); n > 0 {
			first, last = c.Candles[0].Time, c.Candles[n-1].Time
		}
		summary.Append([]string{c.Watermark, fmt.Sprint(len(c.Candles)), first, last})
	}
	summary.Render()

	fmt.Fprintf(w, "\n%s\n", v.Heading)
	for _, n := range v.News {
		fmt.Fprintln(w, n.Text)
	}
}

func init() {
	addInputFlags(pushCmd)
	pushCmd.Flags().String("server", "", "marketviewer-server base URL (default from server.host and server.port)")
	pushCmd.Flags().String("date", "", "anchor date YYYY-MM-DD")
	pushCmd.Flags().String("mode", "day", "day or week")
	pushCmd.Flags().StringSlice("impact", nil, "impact levels to show")
	pushCmd.Flags().String("currency", filter.All, "currency to show")
}
