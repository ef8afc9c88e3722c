package main

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/san-kum/kinsim/internal/analysis"
	"github.com/san-kum/kinsim/internal/export"
	"github.com/san-kum/kinsim/internal/storage"
	"github.com/san-kum/kinsim/internal/viz"
)

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNETWORK\tTIME\tT0\tTF\tSTEPS\tWINDOWS\tMETHOD")

	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%g\t%g\t%d\t%d\t%s\n",
			run.ID,
			run.Network,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Start,
			run.End,
			run.Steps,
			run.Windows,
			run.Method,
		)
	}

	return w.Flush()
}

// loadSaved reads back a run's metadata and either its species or its
// extent series.
func loadSaved(runID string, reactions bool) (*storage.RunMetadata, *storage.Series, error) {
	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return nil, nil, err
	}
	var series *storage.Series
	if reactions {
		series, err = st.LoadReactions(runID)
	} else {
		series, err = st.LoadSpecies(runID)
	}
	if err != nil {
		return nil, nil, err
	}
	if len(series.Values) == 0 {
		return nil, nil, fmt.Errorf("no data in run %s", runID)
	}
	return meta, series, nil
}

func column(s *storage.Series, name string, fallback int) (int, error) {
	if name == "" {
		if fallback >= len(s.Names) {
			return 0, fmt.Errorf("run has only %d columns", len(s.Names))
		}
		return fallback, nil
	}
	i := slices.Index(s.Names, name)
	if i < 0 {
		return 0, fmt.Errorf("unknown column %q (have %v)", name, s.Names)
	}
	return i, nil
}

func plotRun(cmd *cobra.Command, args []string) error {
	meta, series, err := loadSaved(args[0], extents)
	if err != nil {
		return err
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("network: %s\n", meta.Network)
	fmt.Printf("samples: %d\n\n", len(series.Values))

	names := speciesFilter
	if len(names) == 0 {
		names = series.Names
	}
	columns := make([][]float64, 0, len(names))
	for _, name := range names {
		i, err := column(series, name, 0)
		if err != nil {
			return err
		}
		columns = append(columns, series.Column(i))
		caption := name + " vs time"
		if extents && i < len(meta.Reactions) && meta.Reactions[i] != "" {
			caption = meta.Reactions[i] + " extent"
		}
		fmt.Println(viz.PlotSeries(nil, [][]float64{series.Column(i)}, viz.PlotOptions{
			Height:  10,
			Caption: caption,
		}))
		fmt.Println()
	}

	if imageOut != "" {
		ylabel := "concentration"
		if extents {
			ylabel = "extent"
		}
		if err := export.SeriesPlot(imageOut, meta.Network, ylabel, names, series.Times, columns); err != nil {
			return err
		}
		log.WithField("path", imageOut).Info("plot saved")
	}
	return nil
}

func phasePlot(cmd *cobra.Command, args []string) error {
	meta, series, err := loadSaved(args[0], false)
	if err != nil {
		return err
	}
	x, err := column(series, xSpecies, 0)
	if err != nil {
		return err
	}
	y, err := column(series, ySpecies, 1)
	if err != nil {
		return err
	}

	fmt.Printf("phase portrait: %s\n", meta.ID)
	fmt.Printf("network: %s\n", meta.Network)
	fmt.Printf("x-axis: %s, y-axis: %s\n\n", series.Names[x], series.Names[y])

	canvas, minX, maxX, minY, maxY := viz.PlotXY(series.Column(x), series.Column(y), 60, 16)
	fmt.Printf("%10.4g ┐\n", maxY)
	for _, row := range canvas.Grid {
		fmt.Printf("%10s │%s\n", "", string(row))
	}
	fmt.Printf("%10.4g ┘\n", minY)
	fmt.Printf("%12s%-.4g%*s%.4g\n", "", minX, 50, "", maxX)

	if svgOut != "" {
		f, err := os.Create(svgOut)
		if err != nil {
			return err
		}
		defer f.Close()
		t := viz.CurrentTheme
		if err := export.CanvasToSVG(f, canvas, 6, "#0a0a0a", string(t.Primary)); err != nil {
			return err
		}
		log.WithField("path", svgOut).Info("phase portrait saved")
	}
	return nil
}

func exportRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	switch exportFormat {
	case "json":
		st := storage.New(dataDir)
		meta, err := st.Load(runID)
		if err != nil {
			return err
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(meta)

	case "csv":
		_, series, err := loadSaved(runID, extents)
		if err != nil {
			return err
		}
		w := csv.NewWriter(os.Stdout)
		defer w.Flush()

		header := append([]string{"window", "time"}, series.Names...)
		if err := w.Write(header); err != nil {
			return err
		}
		for t, row := range series.Values {
			rec := []string{strconv.Itoa(series.Windows[t]), strconv.FormatFloat(series.Times[t], 'g', -1, 64)}
			for _, v := range row {
				rec = append(rec, strconv.FormatFloat(v, 'g', -1, 64))
			}
			if err := w.Write(rec); err != nil {
				return err
			}
		}
		return nil
	}
	return fmt.Errorf("unknown export format %q (json or csv)", exportFormat)
}

func analyzeRun(cmd *cobra.Command, args []string) error {
	meta, series, err := loadSaved(args[0], false)
	if err != nil {
		return err
	}
	i, err := column(series, species, 0)
	if err != nil {
		return err
	}

	sp, err := analysis.NewSpectrum(series.Times, series.Column(i))
	if err != nil {
		return err
	}

	fmt.Printf("frequency analysis: %s\n", meta.ID)
	fmt.Printf("network: %s, species: %s\n\n", meta.Network, series.Names[i])

	// the upper half of the spectrum is mostly resampling noise
	n := max(len(sp.Power)/4, 2)
	fmt.Println(viz.PlotSeries(nil, [][]float64{sp.Power[:n]}, viz.PlotOptions{
		Height:  15,
		Caption: fmt.Sprintf("power spectrum (%s), 0 to %.3g hz", series.Names[i], sp.Freq[n-1]),
	}))
	fmt.Println()

	freq, power := sp.Dominant()
	fmt.Printf("dominant frequency: %.4g hz (power %.3g)\n", freq, power)
	if freq > 0 {
		fmt.Printf("period: %.4g\n", 1/freq)
	}
	return nil
}

func queryCatalog(cmd *cobra.Command, args []string) error {
	cat, err := storage.OpenCatalog(filepath.Join(dataDir, catalogFile))
	if err != nil {
		return err
	}
	defer cat.Close()
	ctx := cmd.Context()

	if len(args) == 1 {
		e, err := cat.Get(ctx, args[0])
		if err != nil {
			return err
		}
		fmt.Printf("id:       %s\n", e.ID)
		fmt.Printf("network:  %s\n", e.Network)
		fmt.Printf("method:   %s\n", e.Method)
		fmt.Printf("span:     [%g, %g]\n", e.Start, e.End)
		fmt.Printf("windows:  %d\n", e.Windows)
		fmt.Printf("warnings: %d\n", e.Warnings)
		fmt.Printf("elapsed:  %v\n", e.Elapsed)
		fmt.Printf("created:  %s\n", e.CreatedAt.Format("2006-01-02 15:04:05"))
		fmt.Printf("dir:      %s\n", e.Dir)

		m, err := cat.Metrics(ctx, e.ID)
		if err != nil {
			return err
		}
		if len(m) > 0 {
			fmt.Println("\nmetrics:")
			names := make([]string, 0, len(m))
			for name := range m {
				names = append(names, name)
			}
			slices.Sort(names)
			for _, name := range names {
				fmt.Printf("  %s: %.6g\n", name, m[name])
			}
		}
		return nil
	}

	entries, err := cat.List(ctx, networkFilter, limit)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Println("no runs catalogued")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNETWORK\tMETHOD\tWINDOWS\tWARNINGS\tELAPSED\tCREATED")
	for _, e := range entries {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%v\t%s\n",
			e.ID, e.Network, e.Method, e.Windows, e.Warnings, e.Elapsed,
			e.CreatedAt.Format("2006-01-02 15:04:05"))
	}
	return w.Flush()
}
