package main

import (
	"context"
	"fmt"
	"io"
	"net"
	"time"

	"github.com/spf13/cobra"

	"planning/analysis"
	"planning/grid_world"
	"planning/reinforcement"
	"planning/report"
	"planning/server"
	"planning/server/cell_views"
)

var (
	configPath   string
	algorithm    string
	layout       string
	discount     float64
	noise        float64
	livingReward float64
	iterations   int
	plotPath     string
	host         string
	port         string
	stepDelay    time.Duration
)

func GetRootCommand() *cobra.Command {
	rootCommand := &cobra.Command{
		Use:           "planning",
		Short:         "Value and policy iteration on gridworlds",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCommand.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Training config yaml; built-in defaults when empty")
	rootCommand.PersistentFlags().StringVarP(&algorithm, "algorithm", "a", "", "value-iteration or policy-iteration, overrides the config")
	rootCommand.PersistentFlags().StringVarP(&layout, "layout", "l", "", "Built-in gridworld layout, overrides the config")
	rootCommand.PersistentFlags().Float64Var(&discount, "discount", 0, "Discount, overrides the config")
	rootCommand.PersistentFlags().Float64Var(&noise, "noise", 0, "Probability of a perpendicular slip, overrides the config")
	rootCommand.PersistentFlags().Float64Var(&livingReward, "living-reward", 0, "Reward for every non-exit step, overrides the config")
	rootCommand.PersistentFlags().IntVarP(&iterations, "iterations", "i", 0, "Iteration budget, overrides the config; 0 runs to convergence")
	// adding the subcommands here
	rootCommand.AddCommand(SolveCommand())
	rootCommand.AddCommand(ServeCommand())
	rootCommand.AddCommand(QuestionsCommand())
	return rootCommand
}

// loadConfig reads the config file, if any, and applies the flags that were set.
func loadConfig(cmd *cobra.Command) (cfg *reinforcement.TrainingConfig, err error) {
	if configPath == "" {
		cfg = reinforcement.DefaultConfig()
	} else if cfg, err = reinforcement.FromYaml(configPath); err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("algorithm") {
		cfg.Algorithm = map[string]string{"name": algorithm}
	}
	if flags.Changed("layout") {
		cfg.Grid = map[string]string{"layout": layout}
	}
	if flags.Changed("discount") {
		cfg.SetHyperParam(reinforcement.DiscountKey, discount)
	}
	if flags.Changed("noise") {
		cfg.SetHyperParam(reinforcement.NoiseKey, noise)
	}
	if flags.Changed("living-reward") {
		cfg.SetHyperParam(reinforcement.LivingRewardKey, livingReward)
	}
	if flags.Changed("iterations") {
		cfg.SetHyperParam(reinforcement.IterationsKey, float64(iterations))
	}

	if err = cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func buildGrid(cfg *reinforcement.TrainingConfig) (*grid_world.GridWorld, error) {
	rows, err := grid_world.Layout(cfg.LayoutName())
	if err != nil {
		return nil, err
	}
	return grid_world.NewGridWorld(
		rows,
		grid_world.WithNoise(cfg.Noise()),
		grid_world.WithLivingReward(cfg.LivingReward()))
}

func SolveCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "solve",
		Short: "Plan on a gridworld and print its values and policy",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			return solve(cmd.Context(), cmd.OutOrStdout(), cfg, plotPath)
		},
	}
	cmd.Flags().StringVarP(&plotPath, "plot", "p", "", "Save a convergence plot to this png")
	return cmd
}

func solve(
	ctx context.Context,
	w io.Writer,
	cfg *reinforcement.TrainingConfig,
	plotPath string,
) error {
	grid, err := buildGrid(cfg)
	if err != nil {
		return err
	}
	planner, err := reinforcement.NewPlanner[grid_world.State, grid_world.Action](grid, cfg)
	if err != nil {
		return err
	}

	trainingCtx, cancel, err := cfg.WithTrainingDeadline(ctx)
	if err != nil {
		return err
	}
	defer cancel()

	conv := report.NewConvergence[grid_world.State, grid_world.Action](
		fmt.Sprintf("%s on %s", cfg.AlgorithmName(), cfg.LayoutName()))
	last, err := reinforcement.Train[grid_world.State, grid_world.Action](
		trainingCtx,
		grid,
		planner,
		cfg,
		nil,
		func(_ context.Context, snap cell_views.GridSnapshot) {
			conv.Record(snap)
		})
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "%s on %s: %d iterations, delta %g, converged %v\n",
		cfg.AlgorithmName(), cfg.LayoutName(), last.Iteration, last.Delta, last.Converged)
	grid.ShowGrid(w)
	grid.ShowValues(w, planner.Value)
	grid.ShowPolicy(w, planner.BestPolicy)

	if plotPath != "" {
		if err = conv.Save(plotPath); err != nil {
			return fmt.Errorf("save plot: %w", err)
		}
		fmt.Fprintf(w, "convergence plot saved to %s\n", plotPath)
	}
	return nil
}

func ServeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Plan on a gridworld while serving a live view of its values and policy",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			return serve(cmd.Context(), cfg, net.JoinHostPort(host, port), stepDelay)
		},
	}
	cmd.Flags().StringVar(&host, "host", "", "The host ip")
	cmd.Flags().StringVar(&port, "port", "8080", "The host port")
	cmd.Flags().DurationVar(&stepDelay, "step-delay", 200*time.Millisecond, "Pause after each iteration, to watch training")
	return cmd
}

func serve(
	appCtx context.Context,
	cfg *reinforcement.TrainingConfig,
	addr string,
	stepDelay time.Duration,
) error {
	grid, err := buildGrid(cfg)
	if err != nil {
		return err
	}
	planner, err := reinforcement.NewPlanner[grid_world.State, grid_world.Action](grid, cfg)
	if err != nil {
		return err
	}

	snapshots := make(chan cell_views.GridSnapshot)
	monitor := reinforcement.NewMonitor()
	srv, err := server.NewServer(
		appCtx,
		addr,
		grid,
		reinforcement.TakeSnapshot[grid_world.State, grid_world.Action](grid, planner),
		snapshots,
		monitor)
	if err != nil {
		return err
	}

	trainingCtx, cancel, err := cfg.WithTrainingDeadline(appCtx)
	if err != nil {
		return err
	}

	go func() {
		defer cancel()
		last, err := reinforcement.Train[grid_world.State, grid_world.Action](trainingCtx, grid, planner, cfg, monitor, exportSnapshots(snapshots, stepDelay))
		if err != nil {
			fmt.Println(err)
		}
		// The final snapshot is never dropped.
		select {
		case snapshots <- last:
		case <-appCtx.Done():
		}
	}()

	return srv.Serve(appCtx)
}

// exportSnapshots returns a progress func that offers each snapshot to the views,
// dropping it if they are busy, and then pauses for @delay.
func exportSnapshots(
	snapshots chan<- cell_views.GridSnapshot,
	delay time.Duration,
) reinforcement.ProgressFunc[grid_world.State, grid_world.Action] {
	return func(ctx context.Context, snap cell_views.GridSnapshot) {
		select {
		case snapshots <- snap:
		default:
		}

		if delay > 0 {
			select {
			case <-time.After(delay):
			case <-ctx.Done():
			}
		}
	}
}

func QuestionsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "questions",
		Short: "Solve the parameter questions and report the greedy path each produces",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			return questions(cmd.Context(), cmd.OutOrStdout(), cfg)
		},
	}
}

func questions(ctx context.Context, w io.Writer, cfg *reinforcement.TrainingConfig) error {
	for _, q := range analysis.Questions {
		rows, err := grid_world.Layout(q.Layout)
		if err != nil {
			return err
		}
		params := q.Params()
		grid, last, err := analysis.Solve(ctx, rows, params, cfg)
		if err != nil {
			return fmt.Errorf("%s: %w", q.Name, err)
		}
		start, _ := grid.Start()
		path := analysis.GreedyPath(grid, last.Policy, start, 50)

		outcome := "never exits"
		if path.Exited {
			outcome = fmt.Sprintf("exits for %v after %d moves", path.ExitReward, len(path.States)-1)
		}
		fmt.Fprintf(w, "%-26s %-8s %v: %s\n", q.Name, q.Layout, params, outcome)
	}
	return nil
}
