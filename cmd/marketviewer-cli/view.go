package main

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"marketviewer/internal/dashboard"
	"marketviewer/internal/domain"
	"marketviewer/internal/filter"
	"marketviewer/internal/loader"
	"marketviewer/internal/session"
	"marketviewer/internal/store"
)

// windowArgs are the flags shared by view and export.
type windowArgs struct {
	Inputs loader.Inputs
	Window session.Window
	Filter filter.News
}

func addInputFlags(cmd *cobra.Command) {
	cmd.Flags().String("nasdaq", "", "NASDAQ price CSV")
	cmd.Flags().String("spx", "", "SPX price CSV")
	cmd.Flags().String("news", "", "news calendar CSV")
}

func addWindowFlags(cmd *cobra.Command) {
	cmd.Flags().String("date", "", "anchor date YYYY-MM-DD (default today)")
	cmd.Flags().String("mode", string(session.ModeDay), "day or week")
	cmd.Flags().StringSlice("impact", []string{filter.All}, "impact levels to show (All, H, M, L, N)")
	cmd.Flags().String("currency", filter.All, "currency to show")
}

func readInputs(cmd *cobra.Command) (loader.Inputs, error) {
	in := loader.Inputs{}
	for _, slot := range loader.Slots {
		path, _ := cmd.Flags().GetString(string(slot))
		if path == "" {
			continue
		}
		src, err := loader.ReadFile(path)
		if err != nil {
			return nil, err
		}
		in[slot] = src
	}
	return in, nil
}

func readWindow(cmd *cobra.Command) (session.Window, filter.News, error) {
	loc, err := cfg.Viewer.Location()
	if err != nil {
		return session.Window{}, filter.News{}, err
	}
	w := session.New(time.Now().In(loc))
	if date, _ := cmd.Flags().GetString("date"); date != "" {
		d, err := session.ParseDate(date)
		if err != nil {
			return session.Window{}, filter.News{}, err
		}
		w = w.SelectDate(d)
	}
	modeFlag, _ := cmd.Flags().GetString("mode")
	mode, err := session.ParseMode(modeFlag)
	if err != nil {
		return session.Window{}, filter.News{}, err
	}
	if w, err = w.SwitchMode(mode); err != nil {
		return session.Window{}, filter.News{}, err
	}

	impacts, _ := cmd.Flags().GetStringSlice("impact")
	currency, _ := cmd.Flags().GetString("currency")
	return w, filter.News{Impacts: impacts, Currency: currency}.Normalize(), nil
}

func parseWindowArgs(cmd *cobra.Command) (windowArgs, error) {
	in, err := readInputs(cmd)
	if err != nil {
		return windowArgs{}, err
	}
	w, f, err := readWindow(cmd)
	if err != nil {
		return windowArgs{}, err
	}
	return windowArgs{Inputs: in, Window: w, Filter: f}, nil
}

func loadDataset(cmd *cobra.Command, args windowArgs) (*domain.Dataset, error) {
	ds, err := loader.Load(cmd.Context(), args.Inputs)
	if err != nil {
		return nil, err
	}
	slog.Debug("inputs loaded",
		"nasdaq", len(ds.Bars[domain.InstrumentNasdaq]),
		"spx", len(ds.Bars[domain.InstrumentSPX]),
		"news", len(ds.News),
	)
	return ds, nil
}

var viewCmd = &cobra.Command{
	Use:   "view --nasdaq NQ.csv --spx ES.csv --news news.csv [--date D] [--mode day|week]",
	Short: "Render one day or week of the inputs as tables",
	RunE: func(cmd *cobra.Command, _ []string) error {
		args, err := parseWindowArgs(cmd)
		if err != nil {
			return err
		}
		ds, err := loadDataset(cmd, args)
		if err != nil {
			return err
		}
		dashboard.RenderText(cmd.OutOrStdout(), dashboard.BuildView(ds, args.Window, args.Filter, labels()))
		return nil
	},
}

var exportCmd = &cobra.Command{
	Use:   "export --nasdaq NQ.csv --spx ES.csv --news news.csv --dir exports",
	Short: "Write the visible slices of one day or week to parquet",
	RunE: func(cmd *cobra.Command, _ []string) error {
		args, err := parseWindowArgs(cmd)
		if err != nil {
			return err
		}
		ds, err := loadDataset(cmd, args)
		if err != nil {
			return err
		}
		dir := cfg.Export.Dir
		if cmd.Flags().Changed("dir") {
			dir, _ = cmd.Flags().GetString("dir")
		}
		ps := store.NewParquetStore(dir)
		key, err := store.ExportWindow(cmd.Context(), ps, ps, ds, args.Window, args.Filter)
		if err != nil {
			return fmt.Errorf("exporting %s: %w", args.Window.Key(), err)
		}
		windows, err := ps.ListWindows(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "exported %s to %s (%d windows stored)\n", key, dir, len(windows))
		return nil
	},
}

func init() {
	for _, cmd := range []*cobra.Command{viewCmd, exportCmd} {
		addInputFlags(cmd)
		addWindowFlags(cmd)
	}
	exportCmd.Flags().String("dir", "", "export directory (overrides export.dir)")
}
