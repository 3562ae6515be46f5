package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/san-kum/windsim/internal/analysis"
	"github.com/san-kum/windsim/internal/config"
	"github.com/san-kum/windsim/internal/engine"
	"github.com/san-kum/windsim/internal/storage"
)

func listStages(cmd *cobra.Command, args []string) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, bold.Render("KIND")+"\t"+bold.Render("SELECTOR")+"\t"+bold.Render("IDENTIFIERS"))
	for _, k := range engine.Catalog() {
		kind := k.Kind
		if !k.Required {
			kind += dim.Render(" (nested)")
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", cyan.Render(kind), k.Param, strings.Join(k.IDs, ", "))
	}
	return w.Flush()
}

func showPresets(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		fmt.Println(white.Render("presets:"))
		for _, name := range config.PresetNames() {
			fmt.Printf("  %s\n", cyan.Render(name))
		}
		return nil
	}
	data := config.GetPreset(args[0])
	if data == nil {
		return fmt.Errorf("unknown preset: %s (available: %s)", args[0], strings.Join(config.PresetNames(), ", "))
	}
	_, err := os.Stdout.Write(data)
	return err
}

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
	fmt.Fprintln(w, "ID\tTIME\tSTATUS\tROLE\tDT\tDURATION\tSTEPS\tEOM")

	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%.4fs\t%.2fs\t%d\t%s\n",
			run.ID,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Status,
			run.Role,
			run.Dt,
			run.Duration,
			run.Steps,
			run.Stages[engine.KindEOM],
		)
	}

	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	times, vals, err := st.LoadSeries(runID, plotVar)
	if err != nil {
		return err
	}
	if len(vals) == 0 {
		return fmt.Errorf("no data to plot")
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("status: %s\n", meta.Status)
	fmt.Printf("samples: %d (t=%.3f..%.3f)\n\n", len(vals), times[0], times[len(times)-1])

	graph := asciigraph.Plot(vals,
		asciigraph.Height(plotRows),
		asciigraph.Width(80),
		asciigraph.Caption(plotVar+" vs time"),
	)
	fmt.Println(graph)
	return nil
}

func analyzeRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	_, vals, err := st.LoadSeries(runID, plotVar)
	if err != nil {
		return err
	}
	sp, err := analysis.NewSpectrum(vals, meta.Dt)
	if err != nil {
		return err
	}

	fmt.Printf("frequency analysis: %s\n", meta.ID)
	fmt.Printf("variable: %s\n\n", plotVar)

	if band := sp.Band(maxFreq); len(band) > 1 {
		graph := asciigraph.Plot(band,
			asciigraph.Height(15),
			asciigraph.Width(80),
			asciigraph.Caption(fmt.Sprintf("amplitude spectrum of %s, 0..%.1f hz", plotVar, maxFreq)),
		)
		fmt.Println(graph)
		fmt.Println()
	}

	freq, ok := sp.Dominant()
	if !ok {
		fmt.Println("trace is flat")
		return nil
	}
	fmt.Printf("dominant frequency: %.3f hz\n", freq)
	fmt.Printf("period: %.3f s\n", 1.0/freq)
	return nil
}

func exportRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	var w io.Writer = os.Stdout
	if exportTo != "" {
		f, err := os.Create(exportTo)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}
	return st.Export(w, args[0])
}
