package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/san-kum/phypno/internal/batch"
	"github.com/san-kum/phypno/internal/config"
	"github.com/san-kum/phypno/internal/data"
	"github.com/san-kum/phypno/internal/simulate"
	"github.com/san-kum/phypno/internal/storage"
)

var (
	simDataType string
	simNTrial   int
	simNChan    int
	simChan     string
	simSFreq    float64
	simFreqStep float64
	simTime     string
	simFreq     string
	simSignal   string
	simColor    float64
	simSeed     int64
	simPreset   string
	simName     string
	simNoSave   bool

	plotTrial int
	plotChans int

	sweepFrom   float64
	sweepTo     float64
	sweepSteps  int
	sweepPreset string
)

func simulateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "generate a simulated dataset and store it",
		Args:  cobra.NoArgs,
		RunE:  runSimulate,
	}
	cmd.Flags().StringVar(&simDataType, "datatype", string(simulate.DefaultDataType), "ChanTime, ChanFreq or ChanTimeFreq")
	cmd.Flags().IntVar(&simNTrial, "n-trial", simulate.DefaultNTrial, "number of trials")
	cmd.Flags().IntVar(&simNChan, "n-chan", simulate.DefaultNChan, "number of generated channel names")
	cmd.Flags().StringVar(&simChan, "chan", "", "comma separated channel names")
	cmd.Flags().Float64Var(&simSFreq, "s-freq", simulate.DefaultSFreq, "sampling frequency (Hz)")
	cmd.Flags().Float64Var(&simFreqStep, "freq-step", simulate.DefaultFreqStep, "frequency resolution (Hz)")
	cmd.Flags().StringVar(&simTime, "time", "", "time limits start,end (s)")
	cmd.Flags().StringVar(&simFreq, "freq", "", "frequency limits start,end (Hz)")
	cmd.Flags().StringVar(&simSignal, "signal", simulate.DefaultSignal, "signal generator")
	cmd.Flags().Float64Var(&simColor, "color", 0, "noise color exponent (0 white, 1 pink, 2 brown)")
	cmd.Flags().Int64Var(&simSeed, "seed", 0, "random seed")
	cmd.Flags().StringVar(&simPreset, "preset", "", "start from a named preset")
	cmd.Flags().StringVar(&simName, "name", "sim", "dataset name")
	cmd.Flags().BoolVar(&simNoSave, "no-save", false, "print the summary without storing")
	return cmd
}

// simulateOptions layers config, preset and explicitly set flags.
func simulateOptions(cmd *cobra.Command) (simulate.Options, error) {
	opts := cfg.Simulate
	if simPreset != "" {
		p := config.GetPreset(simPreset)
		if p == nil {
			return opts, fmt.Errorf("unknown preset: %s (available: %v)", simPreset, config.ListPresets())
		}
		opts = *p
	}

	f := cmd.Flags()
	if f.Changed("datatype") {
		opts.DataType = simDataType
	}
	if f.Changed("n-trial") {
		opts.NTrial = simNTrial
	}
	if f.Changed("n-chan") {
		opts.NChan = simNChan
		opts.Chan = nil
	}
	if f.Changed("chan") {
		opts.Chan = strings.Split(simChan, ",")
	}
	if f.Changed("s-freq") {
		opts.SFreq = simSFreq
	}
	if f.Changed("freq-step") {
		opts.FreqStep = simFreqStep
	}
	if f.Changed("signal") {
		opts.Signal = simSignal
	}
	if f.Changed("color") {
		opts.Color = simColor
	}
	if f.Changed("seed") {
		opts.Seed = simSeed
	}
	if f.Changed("time") {
		lim, err := parseLimits(simTime)
		if err != nil {
			return opts, fmt.Errorf("--time: %w", err)
		}
		opts.Time = lim
	}
	if f.Changed("freq") {
		lim, err := parseLimits(simFreq)
		if err != nil {
			return opts, fmt.Errorf("--freq: %w", err)
		}
		opts.Freq = lim
	}
	return opts, nil
}

func runSimulate(cmd *cobra.Command, args []string) error {
	opts, err := simulateOptions(cmd)
	if err != nil {
		return err
	}

	start := time.Now()
	d, err := simulate.CreateDataContext(cmd.Context(), opts)
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	var samples int
	for _, tr := range d.Trials {
		samples += tr.Len()
	}
	logger.Info("generated dataset", "datatype", d.Type, "trials", d.NumTrial(), "samples", humanize.Comma(int64(samples)), "took", elapsed)

	if !simNoSave {
		st, err := openStore()
		if err != nil {
			return err
		}
		id, err := st.Save(d, simName, storage.WithOptions(opts))
		if err != nil {
			return err
		}
		fmt.Printf("dataset id: %s\n", id)
	}
	return printSummary(d)
}

func printSummary(d *data.Data) error {
	if d.NumTrial() == 0 {
		fmt.Println("no trials")
		return nil
	}
	fmt.Printf("datatype: %s\n", d.Type)
	fmt.Printf("trials: %d\n", d.NumTrial())
	fmt.Printf("shape: %v\n", d.Trials[0].Shape())
	if d.Type != data.ChanTime {
		return nil
	}
	stats, err := d.Summary(0)
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "\nCHAN\tMEAN\tSTD")
	for _, s := range stats {
		fmt.Fprintf(w, "%s\t%.4f\t%.4f\n", s.Chan, s.Mean, s.Std)
	}
	return w.Flush()
}

func listCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "list stored datasets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st := storage.New(cfg.DataDir)
			sets, err := st.List()
			if err != nil {
				return err
			}
			if len(sets) == 0 {
				fmt.Println("no datasets found")
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tTYPE\tTRIALS\tSHAPE\tS_FREQ\tCREATED")
			for _, m := range sets {
				fmt.Fprintf(w, "%s\t%s\t%d\t%v\t%g\t%s\n",
					m.ID, m.DataType, m.NTrial, m.Shape, m.SFreq, humanize.Time(m.Timestamp))
			}
			return w.Flush()
		},
	}
}

func plotCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plot [dataset_id]",
		Short: "plot the channels of one trial",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st := storage.New(cfg.DataDir)
			d, err := st.LoadData(args[0])
			if err != nil {
				return err
			}
			if plotTrial < 0 || plotTrial >= d.NumTrial() {
				return fmt.Errorf("%w: %d of %d", data.ErrTrialRange, plotTrial, d.NumTrial())
			}
			names, err := d.ChanNames(plotTrial)
			if err != nil {
				return err
			}
			fmt.Printf("dataset: %s  trial %d/%d  %s\n\n", args[0], plotTrial+1, d.NumTrial(), d.Type)

			arr := d.Trials[plotTrial]
			nTime := 0
			if d.Type == data.ChanTimeFreq {
				times, _ := d.AxisValues(data.AxisTime, plotTrial)
				nTime = len(times)
			}
			for c, name := range names {
				if c >= plotChans {
					fmt.Printf("... %d more channels\n", len(names)-c)
					break
				}
				series := arr.Row(c)
				if nTime > 0 {
					series = freqMean(series, nTime)
				}
				graph := asciigraph.Plot(series,
					asciigraph.Height(6),
					asciigraph.Width(70),
					asciigraph.Caption(name))
				fmt.Println(graph)
				fmt.Println()
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&plotTrial, "trial", 0, "trial index")
	cmd.Flags().IntVar(&plotChans, "max-chan", 4, "maximum channels to plot")
	return cmd
}

func freqMean(values []float64, nTime int) []float64 {
	nFreq := len(values) / nTime
	out := make([]float64, nTime)
	for t := range out {
		for _, v := range values[t*nFreq : (t+1)*nFreq] {
			out[t] += v
		}
		out[t] /= float64(nFreq)
	}
	return out
}

func presetsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "presets",
		Short: "list simulation presets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tTYPE\tTRIALS\tS_FREQ\tSIGNAL")
			for _, name := range config.ListPresets() {
				p := config.GetPreset(name)
				fmt.Fprintf(w, "%s\t%s\t%d\t%g\t%s\n", name, p.DataType, p.NTrial, p.SFreq, p.Signal)
			}
			return w.Flush()
		},
	}
}

func batchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "batch [scenario.yaml]",
		Short: "run a scenario of generation steps",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sc, err := batch.LoadScenario(args[0])
			if err != nil {
				return err
			}
			st, err := openStore()
			if err != nil {
				return err
			}
			runner := &batch.Runner{Registry: simulate.NewRegistry(), Store: st, Logger: logger}
			results, err := runner.Run(cmd.Context(), sc)
			for _, r := range results {
				id := r.ID
				if id == "" {
					id = "(not saved)"
				}
				fmt.Printf("step %d: %s %d trials -> %s\n", r.Step, r.Data.Type, r.Data.NumTrial(), id)
			}
			return err
		},
	}
}

func sweepCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sweep [color|amplitude|sine_freq|s_freq]",
		Short: "vary one generator parameter and summarise each value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			base := cfg.Simulate
			if sweepPreset != "" {
				p := config.GetPreset(sweepPreset)
				if p == nil {
					return fmt.Errorf("unknown preset: %s (available: %v)", sweepPreset, config.ListPresets())
				}
				base = *p
			}
			runner := &batch.Runner{Registry: simulate.NewRegistry(), Logger: logger}
			results, err := runner.RunSweep(cmd.Context(), &batch.Sweep{
				Base:     base,
				Param:    args[0],
				Min:      sweepFrom,
				Max:      sweepTo,
				NumSteps: sweepSteps,
			})
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintf(w, "%s\tMEAN\tSTD\n", strings.ToUpper(args[0]))
			stds := make([]float64, len(results))
			for i, r := range results {
				fmt.Fprintf(w, "%g\t%.4f\t%.4f\n", r.Value, r.Mean, r.Std)
				stds[i] = r.Std
			}
			if err := w.Flush(); err != nil {
				return err
			}
			if len(stds) > 1 {
				fmt.Println()
				fmt.Println(asciigraph.Plot(stds, asciigraph.Height(6), asciigraph.Caption("std per step")))
			}
			return nil
		},
	}
	cmd.Flags().Float64Var(&sweepFrom, "from", 0, "first value")
	cmd.Flags().Float64Var(&sweepTo, "to", 2, "last value")
	cmd.Flags().IntVar(&sweepSteps, "steps", 5, "number of values")
	cmd.Flags().StringVar(&sweepPreset, "preset", "", "base preset")
	return cmd
}

func deleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete [dataset_id...]",
		Short: "remove stored datasets",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st := storage.New(cfg.DataDir)
			for _, id := range args {
				if err := st.Delete(id); err != nil {
					return err
				}
				logger.Info("deleted dataset", "id", id)
			}
			return nil
		},
	}
}
