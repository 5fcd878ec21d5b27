package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/montanaflynn/stats"
	"github.com/spf13/cobra"

	"github.com/san-kum/phypno/internal/montage"
	"github.com/san-kum/phypno/internal/simulate"
	"github.com/san-kum/phypno/internal/storage"
)

var (
	montageDataset string
	montageChan    string
	montageRef     string
	montageOut     string
	montageTrial   int
)

func montageDefaults() montage.Defaults {
	return montage.Defaults{
		HP:    cfg.Channels.HP,
		LP:    cfg.Channels.LP,
		Scale: cfg.Channels.Scale,
		Color: cfg.Channels.Color,
	}
}

// datasetChans returns the channels of a stored dataset, or the default
// simulated channel names when no dataset is given.
func datasetChans(id string) ([]string, error) {
	if id == "" {
		return simulate.ChanNames(simulate.DefaultNChan), nil
	}
	d, err := storage.New(cfg.DataDir).LoadData(id)
	if err != nil {
		return nil, err
	}
	return d.ChanNames(0)
}

func montageCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "montage",
		Short: "manage channel groups",
	}

	validate := &cobra.Command{
		Use:   "validate [montage.json]",
		Short: "check a montage against a dataset's channels",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			groups, err := montage.Load(args[0])
			if err != nil {
				return err
			}
			chans, err := datasetChans(montageDataset)
			if err != nil {
				return err
			}
			var errs []error
			for _, g := range groups {
				if err := g.Validate(chans); err != nil {
					errs = append(errs, err)
				}
			}
			if err := errors.Join(errs...); err != nil {
				return err
			}
			fmt.Printf("%d groups ok\n", len(groups))
			return nil
		},
	}
	validate.Flags().StringVar(&montageDataset, "dataset", "", "dataset id to validate against")

	apply := &cobra.Command{
		Use:   "apply [montage.json] [dataset_id]",
		Short: "apply a montage to a stored dataset and summarise the traces",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			groups, err := montage.Load(args[0])
			if err != nil {
				return err
			}
			d, err := storage.New(cfg.DataDir).LoadData(args[1])
			if err != nil {
				return err
			}
			out, err := montage.Apply(d, groups)
			if err != nil {
				return err
			}
			if montageTrial < 0 || montageTrial >= d.NumTrial() {
				return fmt.Errorf("trial %d out of range [0, %d)", montageTrial, d.NumTrial())
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "GROUP\tCHAN\tCOLOR\tMIN\tMAX\tSTD")
			for _, traces := range out {
				tr := traces[montageTrial]
				for c, name := range tr.Chan {
					row := tr.Values.Row(c)
					lo, _ := stats.Min(row)
					hi, _ := stats.Max(row)
					sd, _ := stats.StandardDeviation(row)
					fmt.Fprintf(w, "%s\t%s\t%s\t%.4f\t%.4f\t%.4f\n", tr.Group, name, montage.HexColor(tr.Color), lo, hi, sd)
				}
			}
			return w.Flush()
		},
	}
	apply.Flags().IntVar(&montageTrial, "trial", 0, "trial to summarise")

	newGroup := &cobra.Command{
		Use:   "new [name]",
		Short: "append a group with the configured defaults to a montage file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			groups, err := montage.Load(montageOut)
			if err != nil && !errors.Is(err, fs.ErrNotExist) {
				return err
			}
			g, err := montage.NewGroup(args[0], montageDefaults())
			if err != nil {
				return err
			}
			if montageChan != "" {
				g.ChanToPlot = strings.Split(montageChan, ",")
			}
			if montageRef == "average" {
				g.Rereference()
			} else if montageRef != "" {
				g.RefChan = strings.Split(montageRef, ",")
			}
			groups = append(groups, g)
			if err := montage.Save(montageOut, groups); err != nil {
				return err
			}
			logger.Info("added group", "name", g.Name, "file", montageOut, "groups", len(groups))
			return nil
		},
	}
	newGroup.Flags().StringVar(&montageChan, "chan", "", "comma separated channels to plot")
	newGroup.Flags().StringVar(&montageRef, "ref", "", "comma separated reference channels, or \"average\"")
	newGroup.Flags().StringVar(&montageOut, "out", "montage.json", "montage file")

	cmd.AddCommand(validate, apply, newGroup)
	return cmd
}
