// Command gradecard is the operator tool for the course gradecard: it syncs
// registrar rosters, provisions per-student card spreadsheets, propagates
// template views and imports Gradescope grade data. Run without arguments it
// presents the action menu; `gradecard sync` is the unattended entry point
// used by cron.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/j1mk1m/gradecard-cmu-15251-s23/internal/auth"
	"github.com/j1mk1m/gradecard-cmu-15251-s23/internal/config"
	"github.com/j1mk1m/gradecard-cmu-15251-s23/internal/gradecard"
	"github.com/j1mk1m/gradecard-cmu-15251-s23/internal/gradescope"
	"github.com/j1mk1m/gradecard-cmu-15251-s23/internal/hwconfig"
	"github.com/j1mk1m/gradecard-cmu-15251-s23/internal/prompt"
	"github.com/j1mk1m/gradecard-cmu-15251-s23/internal/sheets"
)

var (
	// Global flags
	verbose    bool
	configPath string

	// Logger
	logger *zap.Logger
)

// action is the closed set of operator actions.
type action int

const (
	actionAddStudents action = iota
	actionCreateCards
	actionUpdateViews
	actionSyncData
	actionLoadGradescope
)

// actionLabels maps each action to its menu entry, in menu order.
var actionLabels = []string{
	actionAddStudents:    "Add students",
	actionCreateCards:    "Create cards",
	actionUpdateViews:    "Update views",
	actionSyncData:       "Sync data",
	actionLoadGradescope: "Load Gradescope data",
}

var rootCmd = &cobra.Command{
	Use:   "gradecard",
	Short: "gradecard - roster, card and grade data sync for 15-251",
	Long: `gradecard keeps the course gradecard spreadsheet, the per-student card
spreadsheets and Gradescope grade data in sync.

Run without arguments to pick an action interactively.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg := zap.NewProductionConfig()
		if verbose {
			cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = cfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runInteractive(cmd.Context())
	},
}

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Load Gradescope data for every configuration without prompting",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := buildApp(cmd.Context(), true)
		if err != nil {
			return err
		}
		return app.loadGradescopeData(cmd.Context(), true)
	},
}

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Run the Google OAuth consent flow and cache the token",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		mgr, err := auth.NewManager(cfg.Auth.CredentialsFile, cfg.Auth.TokenFile, logger)
		if err != nil {
			return err
		}
		_, err = mgr.Authorize(cmd.Context())
		return err
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "gradecard.yaml", "path to the config file")
	rootCmd.AddCommand(syncCmd)
	rootCmd.AddCommand(authCmd)
}

func main() {
	// Secrets (Gradescope token, spreadsheet id) may live in a .env file.
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		if !errors.Is(err, prompt.ErrAborted) {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(1)
	}
}

// app bundles the wired services for one invocation.
type app struct {
	cfg      *config.Config
	service  *gradecard.Service
	source   *gradescope.Client
	prompter *prompt.Prompter
}

// buildApp loads configuration and constructs the authenticated clients.
// headless forces auto-confirmation regardless of configuration, for the
// unattended entry point.
func buildApp(ctx context.Context, headless bool) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if headless {
		cfg.Headless = true
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	mgr, err := auth.NewManager(cfg.Auth.CredentialsFile, cfg.Auth.TokenFile, logger)
	if err != nil {
		return nil, err
	}
	httpClient, err := mgr.Client(ctx)
	if err != nil {
		return nil, err
	}

	retry := sheets.RetryPolicy{MaxAttempts: cfg.Retry.MaxAttempts, Delay: cfg.RetryDelay()}
	store, err := sheets.NewClient(ctx, httpClient, retry, logger)
	if err != nil {
		return nil, err
	}

	return &app{
		cfg:      cfg,
		service:  gradecard.NewService(store, cfg, logger),
		source:   gradescope.NewClient(cfg.Gradescope.BaseURL, cfg.Gradescope.CourseID, cfg.Gradescope.Token, cfg.GradescopeTimeout(), logger),
		prompter: prompt.New(cfg.Headless),
	}, nil
}

func runInteractive(ctx context.Context) error {
	app, err := buildApp(ctx, false)
	if err != nil {
		return err
	}

	label, err := app.prompter.Select("What action would you like to perform?", actionLabels)
	if err != nil {
		return err
	}
	var picked action
	for i, l := range actionLabels {
		if l == label {
			picked = action(i)
		}
	}

	switch picked {
	case actionAddStudents:
		return app.addStudents(ctx)
	case actionCreateCards:
		return app.createCards(ctx)
	case actionUpdateViews:
		return app.updateViews(ctx)
	case actionSyncData:
		return app.syncData(ctx)
	case actionLoadGradescope:
		return app.loadGradescopeData(ctx, false)
	}
	return nil
}

func (a *app) addStudents(ctx context.Context) error {
	paths, err := gradecard.FindRosters(a.cfg.Paths.RosterDir)
	if err != nil {
		return err
	}
	path, err := a.prompter.Select("Which roster do you want to sync?", paths)
	if err != nil {
		return err
	}
	roster, err := gradecard.ReadRoster(path)
	if err != nil {
		return err
	}
	return a.service.AddStudents(ctx, roster)
}

func (a *app) createCards(ctx context.Context) error {
	agents, err := a.promptAgents()
	if err != nil {
		return err
	}
	return a.service.CreateCards(ctx, agents)
}

func (a *app) updateViews(ctx context.Context) error {
	views, err := a.prompter.MultiSelect("Which sheet views do you want to update?", gradecard.CardViews)
	if err != nil {
		return err
	}
	agents, err := a.promptAgents()
	if err != nil {
		return err
	}
	permit, onwards, err := a.prompter.Students()
	if err != nil {
		return err
	}
	return a.service.UpdateViews(ctx, views, agents, permit, onwards)
}

func (a *app) syncData(ctx context.Context) error {
	agents, err := a.promptAgents()
	if err != nil {
		return err
	}
	permit, onwards, err := a.prompter.Students()
	if err != nil {
		return err
	}
	return a.service.SyncData(ctx, agents, permit, onwards)
}

func (a *app) loadGradescopeData(ctx context.Context, all bool) error {
	entries, err := hwconfig.List(a.cfg.Paths.ConfigDir)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		return hwconfig.ErrNoConfigs
	}

	if !all {
		names := make([]string, len(entries))
		for i, e := range entries {
			names[i] = e.Name
		}
		picked, err := a.prompter.MultiSelect("Which assignments to pull grade data for?", names)
		if err != nil {
			return err
		}
		chosen := make(map[string]bool, len(picked))
		for _, name := range picked {
			chosen[name] = true
		}
		var selected []hwconfig.Entry
		for _, e := range entries {
			if chosen[e.Name] {
				selected = append(selected, e)
			}
		}
		entries = selected
	}

	confirm := func(name string) (bool, error) {
		return a.prompter.Confirm(fmt.Sprintf("Are you sure you want to pull grades for unpublished assignment %s?", name))
	}
	importer := gradecard.NewImporter(a.source, a.service, confirm, logger)

	for _, entry := range entries {
		if err := importer.LoadFromConfig(ctx, entry.Path); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			// One bad assignment must not block the rest of the run.
			logger.Error("failed to load grade data",
				zap.String("config", entry.Name),
				zap.Error(err))
		}
	}
	return nil
}

// promptAgents asks which cards to touch; an empty pick defaults to the
// student cards.
func (a *app) promptAgents() ([]gradecard.Agent, error) {
	picked, err := a.prompter.MultiSelect("Which agents' cards do you want to update?",
		[]string{string(gradecard.AgentStudent), string(gradecard.AgentTA)})
	if err != nil {
		return nil, err
	}
	if len(picked) == 0 {
		return []gradecard.Agent{gradecard.AgentStudent}, nil
	}
	agents := make([]gradecard.Agent, len(picked))
	for i, p := range picked {
		agents[i] = gradecard.Agent(p)
	}
	return agents, nil
}
