package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/ShayCichocki/relay/internal/agents"
	"github.com/ShayCichocki/relay/internal/api"
	"github.com/ShayCichocki/relay/internal/config"
	"github.com/ShayCichocki/relay/internal/orchestrator"
	"github.com/ShayCichocki/relay/internal/registry"
	"github.com/ShayCichocki/relay/internal/store"
	"github.com/ShayCichocki/relay/internal/tools"
)

var (
	askDirect  bool
	askModel   string
	askNoSave  bool
	askVerbose bool
)

func addAskFlags(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&askDirect, "direct", false, "Answer with a single agent, skipping decomposition")
	cmd.Flags().StringVar(&askModel, "model", "", "Override the configured model")
	cmd.Flags().BoolVar(&askNoSave, "no-save", false, "Do not persist this turn to history")
	cmd.Flags().BoolVarP(&askVerbose, "verbose", "v", false, "Show subtask progress")
}

var askCmd = &cobra.Command{
	Use:   "ask <request>",
	Short: "Process one request through the agent roster",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAsk(cmd, strings.Join(args, " "))
	},
}

func init() {
	addAskFlags(askCmd)
}

func runAsk(cmd *cobra.Command, request string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if askModel != "" {
		cfg.Anthropic.Model = askModel
	}

	client, err := newClient(cfg)
	if err != nil {
		return err
	}

	workDir := cfg.Agents.WorkDir
	if workDir == "" {
		if workDir, err = os.Getwd(); err != nil {
			return fmt.Errorf("resolve working directory: %w", err)
		}
	}

	tracker := tools.NewCallTracker()
	reg, err := buildRoster(cfg, client, tracker, workDir)
	if err != nil {
		return err
	}

	var logger *orchestrator.DebugLogger
	if cfg.Logging.Debug {
		logger = orchestrator.NewDebugLoggerForDir(workDir)
	} else {
		logger = orchestrator.NopLogger()
	}
	defer logger.Close()

	emitter := orchestrator.NewEventEmitter(64)
	sink := newProgressSink(cmd.OutOrStdout(), askVerbose)
	sinkDone := make(chan struct{})
	go func() {
		defer close(sinkDone)
		sink.run(emitter.Events())
	}()

	orc, err := orchestrator.New(orchestrator.Config{
		Registry:       reg,
		Runner:         client,
		Emitter:        emitter,
		Logger:         logger,
		UseCoordinator: cfg.Orchestrator.UseCoordinator && !askDirect,
		SubtaskTimeout: cfg.Orchestrator.SubtaskTimeout,
	})
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if cfg.Orchestrator.TurnTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Orchestrator.TurnTimeout)
		defer cancel()
	}

	// A "stop" file under .relay/signals cancels the turn.
	ctx, stopCancel := context.WithCancel(ctx)
	defer stopCancel()
	if nm, err := api.NewNotificationManager(workDir); err == nil {
		defer nm.Close()
		go func() {
			ticker := time.NewTicker(500 * time.Millisecond)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					if nm.ShouldStop() {
						nm.ClearSignals()
						stopCancel()
						return
					}
				}
			}
		}()
	}

	turn, err := orc.ProcessRequest(ctx, request)
	emitter.Close()
	<-sinkDone

	if err != nil {
		var be *orchestrator.BackendUnavailableError
		if errors.As(err, &be) {
			fmt.Fprintln(cmd.OutOrStdout(), be.Friendly)
			logger.Log("[ask] backend unavailable: %v", be.Err)
			return nil
		}
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), turn.Answer)

	if !askNoSave {
		if err := saveTurn(cfg, request, turn); err != nil {
			// History is best effort; the answer was already delivered.
			fmt.Fprintf(cmd.ErrOrStderr(), "warning: could not save history: %v\n", err)
		}
	}

	return nil
}

// newClient builds the model client from configuration.
func newClient(cfg *config.Config) (*api.Client, error) {
	apiKey := ""
	if !cfg.Anthropic.UseAWSBedrock {
		key, err := config.GetAPIKey(cfg)
		if err != nil {
			return nil, fmt.Errorf("%w\nSet ANTHROPIC_API_KEY or add anthropic.api_key to %s", err, config.GetUserConfigPath())
		}
		apiKey = key
	}

	return api.NewClient(api.ClientConfig{
		Model:         anthropic.Model(cfg.Anthropic.Model),
		APIKey:        apiKey,
		UseAWSBedrock: cfg.Anthropic.UseAWSBedrock,
		AWSRegion:     cfg.Anthropic.AWSRegion,
		AWSProfile:    cfg.Anthropic.AWSProfile,
	})
}

// buildRoster constructs the agent registry from the configured manifest, or
// the built-in default roster when none is configured.
func buildRoster(cfg *config.Config, runner api.Runner, tracker *tools.CallTracker, workDir string) (*registry.Registry, error) {
	manifest := registry.DefaultManifest()
	if cfg.Agents.Manifest != "" {
		loaded, err := registry.LoadManifest(cfg.Agents.Manifest)
		if err != nil {
			return nil, err
		}
		manifest = loaded
	}

	reg := registry.New()
	for _, entry := range manifest.Enabled() {
		agent, err := agents.FromManifest(entry, runner, tracker, workDir)
		if err != nil {
			return nil, fmt.Errorf("build agent %q: %w", entry.Name, err)
		}
		if err := reg.Register(agent); err != nil {
			return nil, err
		}
	}

	if reg.Count() == 0 {
		return nil, fmt.Errorf("agent roster is empty")
	}
	return reg, nil
}

// saveTurn persists the processed turn to the conversation store.
func saveTurn(cfg *config.Config, request string, turn *orchestrator.TurnResult) error {
	path := cfg.Storage.Path
	if path == "" {
		path = config.DefaultStoragePath()
	}

	db, err := store.Open(path)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := db.Migrate(); err != nil {
		return err
	}

	var records []store.SubtaskRecord
	for _, st := range turn.Subtasks {
		rec := store.SubtaskRecord{
			Seq:         st.Seq,
			Agent:       st.Agent,
			Description: st.Description,
			Status:      "completed",
		}
		if res := turn.Results[st.Seq]; res != nil {
			rec.Content = res.Content
			rec.Error = res.Error
			switch {
			case res.Skipped:
				rec.Status = "skipped"
			case !res.Success:
				rec.Status = "failed"
			}
		}
		records = append(records, rec)
	}

	return db.SaveTurn(store.Turn{
		ID:        uuid.New().String(),
		Request:   request,
		Answer:    turn.Answer,
		Mode:      string(turn.Mode),
		CreatedAt: time.Now(),
	}, records, turn.ToolCalls)
}
