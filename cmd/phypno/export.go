package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/san-kum/phypno/internal/data"
	"github.com/san-kum/phypno/internal/export"
	"github.com/san-kum/phypno/internal/montage"
	"github.com/san-kum/phypno/internal/storage"
)

var (
	exportOut     string
	exportTrial   int
	exportChan    string
	exportMontage string
	exportWidth   int
	exportHeight  int
)

func loadDataset(id string) (*data.Data, error) {
	return storage.New(cfg.DataDir).LoadData(id)
}

func exportCSVCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export-csv [dataset_id]",
		Short: "export one trial to CSV",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := loadDataset(args[0])
			if err != nil {
				return err
			}
			return writeOutput(exportOut, func(f *os.File) error {
				return storage.ExportCSV(f, d, exportTrial)
			})
		},
	}
	cmd.Flags().StringVarP(&exportOut, "out", "o", "", "output file (stdout when empty)")
	cmd.Flags().IntVar(&exportTrial, "trial", 0, "trial index")
	return cmd
}

func exportJSONCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export-json [dataset_id]",
		Short: "export a dataset to JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := loadDataset(args[0])
			if err != nil {
				return err
			}
			return writeOutput(exportOut, func(f *os.File) error {
				return storage.ExportJSON(f, d)
			})
		},
	}
	cmd.Flags().StringVarP(&exportOut, "out", "o", "", "output file (stdout when empty)")
	return cmd
}

func exportSVGCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export-svg [dataset_id]",
		Short: "render one channel, or a montage, to SVG",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := loadDataset(args[0])
			if err != nil {
				return err
			}
			if exportTrial < 0 || exportTrial >= d.NumTrial() {
				return fmt.Errorf("%w: %d of %d", data.ErrTrialRange, exportTrial, d.NumTrial())
			}

			var svg string
			if exportMontage != "" {
				groups, err := montage.Load(exportMontage)
				if err != nil {
					return err
				}
				out, err := montage.Apply(d, groups)
				if err != nil {
					return err
				}
				traces := make([]montage.Trace, len(out))
				for i := range out {
					traces[i] = out[i][exportTrial]
				}
				svg, err = export.MontageToSVG(traces, exportWidth, exportHeight)
				if err != nil {
					return err
				}
			} else {
				svg, err = channelSVG(d)
				if err != nil {
					return err
				}
			}
			return writeOutput(exportOut, func(f *os.File) error {
				_, err := io.WriteString(f, svg)
				return err
			})
		},
	}
	cmd.Flags().StringVarP(&exportOut, "out", "o", "", "output file (stdout when empty)")
	cmd.Flags().IntVar(&exportTrial, "trial", 0, "trial index")
	cmd.Flags().StringVar(&exportChan, "chan", "", "channel to draw (first when empty)")
	cmd.Flags().StringVar(&exportMontage, "montage", "", "montage file; draws every group instead of one channel")
	cmd.Flags().IntVar(&exportWidth, "width", 800, "width in pixels")
	cmd.Flags().IntVar(&exportHeight, "height", 200, "height in pixels, per row for montages")
	return cmd
}

func channelSVG(d *data.Data) (string, error) {
	names, err := d.ChanNames(exportTrial)
	if err != nil {
		return "", err
	}
	idx := 0
	if exportChan != "" {
		idx = -1
		for i, n := range names {
			if n == exportChan {
				idx = i
			}
		}
		if idx < 0 {
			return "", fmt.Errorf("unknown channel: %s", exportChan)
		}
	}
	xAxis := data.AxisTime
	if d.Type == data.ChanFreq {
		xAxis = data.AxisFreq
	}
	xs, err := d.AxisValues(xAxis, exportTrial)
	if err != nil {
		return "", err
	}
	ys := d.Trials[exportTrial].Row(idx)
	if d.Type == data.ChanTimeFreq {
		ys = freqMean(ys, len(xs))
	}
	color := montage.HexColor(0)
	if c, err := montage.ParseColor(cfg.Channels.Color); err == nil {
		color = montage.HexColor(c)
	}
	return export.TraceToSVG(xs, ys, exportWidth, exportHeight, color)
}
