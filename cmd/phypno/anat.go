package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/san-kum/phypno/internal/anat"
)

var (
	fsDir      string
	maxApprox  int
	parc       string
	excludeArg string
)

var (
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#888899")).Width(10)
	valueStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#00ccff")).Bold(true)
)

func swatch(rgba [4]float64) string {
	hex := fmt.Sprintf("#%02x%02x%02x", int(rgba[0]), int(rgba[1]), int(rgba[2]))
	return lipgloss.NewStyle().Background(lipgloss.Color(hex)).Render("    ")
}

func importLUT() (*anat.LUT, error) {
	return anat.ImportLUT(cfg.Freesurfer.Home, cfg.Freesurfer.LUT)
}

func openFreesurfer() (*anat.Freesurfer, error) {
	dir := cfg.Freesurfer.SubjectDir
	if fsDir != "" {
		dir = fsDir
	}
	if dir == "" {
		return nil, errNoFreesurfer
	}
	lut, err := importLUT()
	if err != nil {
		return nil, err
	}
	f, err := anat.NewFreesurferWithLUT(dir, lut)
	if err != nil {
		return nil, err
	}
	f.SetLogger(logger.WithPrefix("anat"))
	return f, nil
}

func lutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "lut [index|label]",
		Short: "look up a label in the freesurfer color table",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			lut, err := importLUT()
			if err != nil {
				return err
			}
			if len(args) == 0 {
				for i := range lut.Index {
					fmt.Printf("%6d  %s  %s\n", lut.Index[i], swatch(lut.RGBA[i]), lut.Label[i])
				}
				return nil
			}

			idx, err := strconv.Atoi(args[0])
			if err != nil {
				var ok bool
				idx, ok = lut.IndexOf(args[0])
				if !ok {
					return fmt.Errorf("label not in lookup table: %s", args[0])
				}
			}
			label, ok := lut.LabelOf(idx)
			if !ok {
				return fmt.Errorf("index not in lookup table: %d", idx)
			}
			rgba, _ := lut.ColorOf(idx)
			fmt.Println(labelStyle.Render("index") + valueStyle.Render(strconv.Itoa(idx)))
			fmt.Println(labelStyle.Render("label") + valueStyle.Render(label))
			fmt.Println(labelStyle.Render("rgba") + valueStyle.Render(fmt.Sprintf("%v", rgba)) + " " + swatch(rgba))
			return nil
		},
	}
}

func regionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "region [x] [y] [z]",
		Short: "find the brain region nearest to a coordinate",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			var coord [3]float64
			for i, a := range args {
				v, err := strconv.ParseFloat(a, 64)
				if err != nil {
					return fmt.Errorf("invalid coordinate %q: %w", a, err)
				}
				coord[i] = v
			}
			f, err := openFreesurfer()
			if err != nil {
				return err
			}

			opts := []anat.Option{anat.WithParcellation(parc)}
			if excludeArg != "" {
				opts = append(opts, anat.WithExclude(strings.Split(excludeArg, ",")...))
			}
			label, approx, err := f.FindBrainRegion(coord, maxApprox, opts...)
			if err != nil {
				return err
			}
			fmt.Println(labelStyle.Render("region") + valueStyle.Render(label))
			fmt.Println(labelStyle.Render("approx") + valueStyle.Render(strconv.Itoa(approx)))
			return nil
		},
	}
	cmd.Flags().StringVar(&fsDir, "fs-dir", "", "freesurfer subject directory")
	cmd.Flags().IntVar(&maxApprox, "max-approx", 3, "maximum search radius in voxels")
	cmd.Flags().StringVar(&parc, "parc", anat.DefaultParcellation, "parcellation (aparc, aparc.a2009s, aseg)")
	cmd.Flags().StringVar(&excludeArg, "exclude", "", "comma separated substrings of labels to skip")
	return cmd
}
