package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/plus3/frameloop/loop/config"
	"github.com/spf13/cobra"
)

func newValidateCommand() *cobra.Command {
	var initPath string

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "check a config file and print the resulting settings and groups",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if initPath != "" {
				if err := config.Save(initPath, config.Default()); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "wrote default config to %s\n", initPath)
				return nil
			}

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			return printConfig(cmd.OutOrStdout(), cfg)
		},
	}
	cmd.Flags().StringVar(&initPath, "init", "", "write the default config to this path instead of validating")
	return cmd
}

func printConfig(w io.Writer, cfg *config.File) error {
	settings, err := cfg.LoopSettings()
	if err != nil {
		return err
	}
	topology, err := cfg.Topology()
	if err != nil {
		return err
	}

	fmt.Fprintln(w, headerStyle.Render("settings"))
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "target frame rate\t%g Hz\n", settings.TargetFrameRate)
	fmt.Fprintf(tw, "frame period\t%s\n", settings.FramePeriod())
	fmt.Fprintf(tw, "fixed time step\t%g s\n", settings.FixedTimeStep)
	fmt.Fprintf(tw, "max allowed delta\t%g s\n", settings.MaxAllowedDeltaTime)
	fmt.Fprintf(tw, "use fixed time step\t%t\n", settings.UseFixedTimeStep)
	fmt.Fprintf(tw, "time scale\t%g\n", cfg.Settings.TimeScale)
	fmt.Fprintf(tw, "log\t%s/%s\n", cfg.Log.Level, cfg.Log.Format)
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, headerStyle.Render("groups"))
	tw = tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ORDER\tNAME")
	for _, g := range topology.Groups() {
		fmt.Fprintf(tw, "%d\t%s\n", g.Order, g.Name)
	}
	return tw.Flush()
}
