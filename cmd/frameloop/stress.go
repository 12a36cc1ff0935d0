package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"time"

	"github.com/plus3/frameloop/loop"
	"github.com/spf13/cobra"
)

type stressOptions struct {
	duration       time.Duration
	groups         int
	systems        int
	iterations     int
	rate           float64
	step           float64
	history        int
	gcPauseMetrics bool
}

func newStressCommand() *cobra.Command {
	opts := stressOptions{}
	cmd := &cobra.Command{
		Use:   "stress",
		Short: "run a self-hosted loop under synthetic load and report frame timings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStress(cmd.Context(), opts)
		},
	}

	cmd.Flags().DurationVar(&opts.duration, "duration", 10*time.Second, "total run time")
	cmd.Flags().IntVar(&opts.groups, "groups", 4, "number of groups")
	cmd.Flags().IntVar(&opts.systems, "systems", 50, "number of systems spread across the groups")
	cmd.Flags().IntVar(&opts.iterations, "work", 200, "floating point iterations per system update")
	cmd.Flags().Float64Var(&opts.rate, "rate", 0, "target frame rate override (0 keeps the config value)")
	cmd.Flags().Float64Var(&opts.step, "step", 0, "fixed time step override in seconds (0 keeps the config value)")
	cmd.Flags().IntVar(&opts.history, "history", 240, "frame times kept for the report graph")
	cmd.Flags().BoolVar(&opts.gcPauseMetrics, "gc-pause-metrics", false, "include GC pause metrics in the report")
	return cmd
}

func runStress(ctx context.Context, opts stressOptions) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := loggerFor(cfg)

	settings, err := cfg.LoopSettings()
	if err != nil {
		return err
	}
	if opts.rate > 0 {
		settings.TargetFrameRate = opts.rate
	}
	if opts.step > 0 {
		settings.FixedTimeStep = opts.step
	}

	groups, counter, err := buildStressGroups(opts.groups, opts.systems, opts.iterations)
	if err != nil {
		return err
	}

	stats := loop.NewStatsRecorder(opts.history)
	runner, err := loop.NewRunner(groups,
		loop.WithSettings(settings),
		loop.WithInstrumentation(stats),
		loop.WithLogger(logger),
	)
	if err != nil {
		return err
	}
	if err := runner.SetTimeScale(cfg.Settings.TimeScale); err != nil {
		return err
	}

	report := &Report{
		Duration:       opts.duration,
		Groups:         opts.groups,
		Systems:        opts.systems,
		Iterations:     opts.iterations,
		Settings:       settings,
		GCPauseMetrics: opts.gcPauseMetrics,
	}
	runtime.ReadMemStats(&report.MemStatsStart)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, opts.duration)
	defer cancel()

	logger.Info("starting stress run",
		"duration", opts.duration,
		"groups", opts.groups,
		"systems", opts.systems,
		"target_frame_rate", settings.TargetFrameRate)

	startTime := time.Now()
	if err := runner.Start(); err != nil {
		return err
	}

	select {
	case <-ctx.Done():
	case <-runner.Done():
	}

	info := runner.Time()
	runErr := runner.Close()
	report.TotalTime = time.Since(startTime)
	runtime.ReadMemStats(&report.MemStatsEnd)

	report.Frames = counter.frames
	report.FixedSteps = info.FixedStepCount
	report.SimulatedTime = info.FixedTime
	report.Stats = stats.Snapshot()

	logger.Info("stress run finished", "frames", report.Frames, "elapsed", report.TotalTime)
	if runErr != nil {
		return runErr
	}

	fmt.Println()
	return report.Generate(os.Stdout)
}

// buildStressGroups declares groups "stage-0".."stage-N" and spreads the
// workload systems across them round robin.
func buildStressGroups(groupCount, systemCount, iterations int) (*loop.Groups, *frameCounter, error) {
	if groupCount < 1 {
		groupCount = 1
	}

	configs := make([]loop.GroupConfig, 0, groupCount)
	for i := range groupCount {
		configs = append(configs, loop.GroupConfig{Name: fmt.Sprintf("stage-%d", i), Order: i * 10})
	}
	topology, err := loop.NewTopology(configs...)
	if err != nil {
		return nil, nil, err
	}

	registry := loop.NewRegistry(topology)
	counter := &frameCounter{}
	if err := registry.Register(counter, loop.InGroup(configs[0].Name), loop.WithPriority(1)); err != nil {
		return nil, nil, err
	}
	for i := range systemCount {
		group := configs[i%groupCount].Name
		if err := registry.Register(newWorkload(iterations), loop.InGroup(group)); err != nil {
			return nil, nil, err
		}
	}

	groups, err := registry.Build()
	if err != nil {
		return nil, nil, err
	}
	return groups, counter, nil
}
