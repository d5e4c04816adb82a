package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/polzovatel/uitrace/internal/browser"
	"github.com/polzovatel/uitrace/internal/capture"
	"github.com/polzovatel/uitrace/internal/config"
	"github.com/polzovatel/uitrace/internal/engine"
	"github.com/polzovatel/uitrace/internal/planner"
)

type cliOptions struct {
	configPath string
	headless   bool
	dataset    string
	saveState  string
	verbose    bool
}

func main() {
	_ = godotenv.Load()

	opts := cliOptions{}
	root := &cobra.Command{
		Use:   "uitrace <task>",
		Short: "Drive a browser through a natural language UI task",
		Long: `uitrace plans a natural language task into abstract browser actions,
executes them against a real page with fallback element resolution, and
records deduplicated page state snapshots along the way.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), strings.TrimSpace(strings.Join(args, " ")), opts)
		},
		SilenceUsage: true,
	}
	root.Flags().StringVarP(&opts.configPath, "config", "c", "uitrace.yaml", "Path to YAML config file")
	root.Flags().BoolVar(&opts.headless, "headless", false, "Run the browser headless")
	root.Flags().StringVar(&opts.dataset, "dataset", "", "Override the dataset root directory")
	root.Flags().StringVar(&opts.saveState, "save-state", "", "Path to save storage state after the run")
	root.Flags().BoolVarP(&opts.verbose, "verbose", "v", false, "Enable debug logging")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := root.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func run(ctx context.Context, task string, opts cliOptions) error {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	if opts.verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		log.Error().Err(err).Str("path", opts.configPath).Msg("load config")
		return err
	}
	if opts.headless {
		cfg.Headless = true
	}
	if opts.dataset != "" {
		cfg.DatasetRoot = opts.dataset
	}

	actions := planner.Plan(ctx, task, cfg, log.Logger)
	fmt.Printf("Plan for %q:\n", task)
	for i, a := range actions {
		fmt.Printf("  %d. %s", i+1, a.Type)
		switch {
		case a.URL != "":
			fmt.Printf(" %s", a.URL)
		case a.Text != "":
			fmt.Printf(" %q", a.Text)
		case len(a.Inputs) > 0:
			fmt.Printf(" (%d fields)", len(a.Inputs))
		}
		fmt.Println()
	}

	store, err := capture.NewStore(cfg.DatasetRoot, task, log.With().Str("comp", "capture").Logger())
	if err != nil {
		log.Error().Err(err).Msg("init capture store")
		return err
	}

	session, err := browser.NewSession(cfg)
	if err != nil {
		log.Error().Err(err).Msg("browser init")
		return err
	}
	defer session.Close()

	eng := engine.New(session.Page(), store, cfg, task, terminalPrompt(), log.Logger)
	results, err := eng.Run(ctx, actions)
	if err != nil {
		log.Error().Err(err).Msg("run finished with error")
		return err
	}

	succeeded := 0
	for _, r := range results {
		if r.Success {
			succeeded++
		}
	}
	summary := store.Summary()
	fmt.Printf("\nDone: %d/%d actions succeeded, %d states captured\n",
		succeeded, len(results), summary.TotalStates)
	fmt.Printf("Dataset: %s\n", summary.Dir)

	if opts.saveState != "" {
		if err := session.SaveState(opts.saveState); err != nil {
			log.Error().Err(err).Msg("save state")
		} else {
			log.Info().Str("path", opts.saveState).Msg("storage saved")
		}
	}
	return nil
}

func terminalPrompt() engine.PromptFunc {
	reader := bufio.NewReader(os.Stdin)
	return func(ctx context.Context, message string) (string, error) {
		fmt.Printf("\n=== Input required ===\n%s\n> ", message)
		text, err := reader.ReadString('\n')
		if err != nil {
			return "", err
		}
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		default:
		}
		return strings.TrimSpace(text), nil
	}
}
