package main

import (
	"github.com/spf13/cobra"

	"github.com/san-kum/phypno/internal/montage"
	"github.com/san-kum/phypno/internal/server"
	"github.com/san-kum/phypno/internal/simulate"
	"github.com/san-kum/phypno/internal/viz"
)

var (
	serveAddr   string
	viewMontage string
	viewVisible int
	viewTheme   string
)

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "serve the HTTP and WebSocket API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("addr") {
				cfg.Server.Addr = serveAddr
			}
			st, err := openStore()
			if err != nil {
				return err
			}
			opts := []server.Option{
				server.WithStore(st),
				server.WithRegistry(simulate.NewRegistry()),
				server.WithLogger(logger.WithPrefix("server")),
			}
			if f, err := openFreesurfer(); err != nil {
				logger.Warn("region lookup disabled", "err", err)
			} else {
				opts = append(opts, server.WithFreesurfer(f))
			}
			return server.New(opts...).ListenAndServe(cmd.Context(), cfg.Server.Addr)
		},
	}
	cmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from config)")
	cmd.Flags().StringVar(&fsDir, "fs-dir", "", "freesurfer subject directory")
	return cmd
}

func viewCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "view [dataset_id]",
		Short: "browse a stored dataset in the terminal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := loadDataset(args[0])
			if err != nil {
				return err
			}
			opts := viz.Options{
				Title:          args[0],
				WindowLength:   cfg.Overview.WindowLength,
				WindowStep:     cfg.Overview.WindowStep,
				Visible:        viewVisible,
				Theme:          viewTheme,
				TimestampSteps: cfg.Overview.TimestampSteps,
				OverviewScale:  cfg.Overview.OverviewScale,
			}
			if viewMontage != "" {
				groups, err := montage.Load(viewMontage)
				if err != nil {
					return err
				}
				opts.Groups = groups
			}
			m, err := viz.NewModel(d, opts)
			if err != nil {
				return err
			}
			m.GotoWindow(cfg.Overview.WindowStart)
			return viz.Run(m)
		},
	}
	cmd.Flags().StringVar(&viewMontage, "montage", "", "montage file")
	cmd.Flags().IntVar(&viewVisible, "visible", 4, "channels shown at once")
	cmd.Flags().StringVar(&viewTheme, "theme", "clinical", "color theme")
	return cmd
}
