package scoring

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"sift/internal/config"
	"sift/internal/contentid"
	"sift/internal/jobspec"
	"sift/internal/logging"
	"sift/internal/providers"
	"sift/internal/report"
	"sift/internal/scorecache"
	"sift/internal/services"
	"sift/internal/workflow"
)

// Run executes one scoring job over the shared graph. It returns the final
// result and the full execution history; on failure the history is still
// returned so callers can see exactly which node aborted the run.
func (p *Pipeline) Run(ctx context.Context, documentText string, spec jobspec.Spec, opts Options) (*report.Result, workflow.History, error) {
	if opts.Mode == "" {
		opts.Mode = ModeBalanced
	}
	runID := uuid.NewString()
	ctx = services.WithRunID(ctx, runID)
	if opts.CorrelationID != "" {
		ctx = services.WithCorrelationID(ctx, opts.CorrelationID)
	}

	state := &State{
		DocumentText: documentText,
		Spec:         spec,
		Options:      opts,
		RunID:        runID,
	}

	started := time.Now()
	result, err := p.exec.Run(ctx, state)
	if err != nil {
		var wfErr *workflow.Error
		if errors.As(err, &wfErr) {
			logging.WithContext(ctx, p.logger).Error("run failed",
				logging.String(logging.FieldEventType, "run_failed"),
				logging.String(logging.FieldNode, wfErr.NodeID),
				logging.Int(logging.FieldAttempt, wfErr.Attempts),
				logging.Duration("elapsed", time.Since(started)),
				logging.Error(wfErr.Err),
			)
			return nil, wfErr.History, err
		}
		return nil, nil, err
	}

	logging.WithContext(ctx, p.logger).Info("run completed",
		logging.String(logging.FieldEventType, "run_complete"),
		logging.Float64("score", result.State.Final.Score),
		logging.String("recommendation", string(result.State.Final.Recommendation)),
		logging.Bool("from_cache", result.State.Final.FromCache),
		logging.Duration("elapsed", time.Since(started)),
	)
	return result.State.Final, result.History, nil
}

// Runner wraps a Pipeline with the process-level collaborators the CLI
// needs: the cache store lifecycle and the optional in-flight guard.
type Runner struct {
	pipeline *Pipeline
	store    *scorecache.SQLite
	guard    *scorecache.InflightGuard
	clients  []providers.Client
	defaults Options
}

// FromConfig builds a Runner from loaded configuration: provider clients,
// cache store, weight table, and thresholds.
func FromConfig(cfg *config.Config, logger *slog.Logger) (*Runner, error) {
	if cfg == nil {
		return nil, services.Wrap(services.ErrConfiguration, "", "build runner", "configuration is required", nil)
	}

	deps := Deps{
		Weights:           weightsFromConfig(cfg),
		Thresholds:        cfg.Thresholds(),
		Bands:             cfg.Bands(),
		Retry:             cfg.RetryPolicy(),
		NodeTimeout:       cfg.NodeTimeout(),
		SecondaryTimeouts: make(map[string]time.Duration),
		Logger:            logger,
	}

	var clients []providers.Client
	for _, pc := range cfg.Providers {
		opts := []providers.Option{}
		if pc.Role == config.RoleArbiter {
			opts = append(opts, providers.WithScoringPrompt(providers.ArbitrationPrompt))
		}
		client := providers.NewOpenRouter(providers.Config{
			ID:             pc.ID,
			APIKey:         pc.APIKey,
			BaseURL:        pc.BaseURL,
			Model:          pc.Model,
			TimeoutSeconds: pc.TimeoutSeconds,
		}, opts...)
		clients = append(clients, client)

		switch pc.Role {
		case config.RolePrimary:
			deps.Primary = client
		case config.RoleSecondary:
			deps.Secondary = append(deps.Secondary, client)
			if pc.TimeoutSeconds > 0 {
				deps.SecondaryTimeouts[pc.ID] = time.Duration(pc.TimeoutSeconds) * time.Second
			}
		case config.RoleArbiter:
			deps.Arbiter = client
		}
	}

	runner := &Runner{clients: clients}
	if cfg.Cache.Enabled {
		store, err := scorecache.OpenSQLite(cfg.Cache.Path)
		if err != nil {
			return nil, fmt.Errorf("open score cache: %w", err)
		}
		runner.store = store
		deps.Cache = store

		if cfg.Cache.InflightGuard {
			guard, err := scorecache.NewInflightGuard(cfg.Cache.GuardDir)
			if err != nil {
				_ = store.Close()
				return nil, fmt.Errorf("init in-flight guard: %w", err)
			}
			runner.guard = guard
		}
	}

	pipeline, err := New(deps)
	if err != nil {
		if runner.store != nil {
			_ = runner.store.Close()
		}
		return nil, err
	}
	runner.pipeline = pipeline
	runner.defaults = Options{
		Mode:            ParseMode(cfg.Pipeline.DefaultMode),
		EnablePrefilter: cfg.Pipeline.EnablePrefilter,
		EnablePacking:   cfg.Pipeline.EnablePacking,
	}
	return runner, nil
}

// DefaultOptions returns the configured run options, which callers may
// override per job.
func (r *Runner) DefaultOptions() Options { return r.defaults }

// Providers returns every configured provider client, for health checks.
func (r *Runner) Providers() []providers.Client { return r.clients }

// Run scores one document, serializing against concurrent runs over the
// same fingerprint when the in-flight guard is enabled.
func (r *Runner) Run(ctx context.Context, documentText string, spec jobspec.Spec, opts Options) (*report.Result, workflow.History, error) {
	if r.guard != nil {
		spec.Normalize()
		fingerprint := contentid.Fingerprint(documentText, spec, string(opts.Mode))
		release, err := r.guard.Acquire(ctx, fingerprint)
		if err != nil {
			return nil, nil, err
		}
		defer release()
	}
	return r.pipeline.Run(ctx, documentText, spec, opts)
}

// Close releases the cache store.
func (r *Runner) Close() error {
	if r.store != nil {
		return r.store.Close()
	}
	return nil
}

// weightsFromConfig derives the base weight table: explicit per-provider
// weights win; otherwise the primary carries the configured primary weight
// and the secondaries split the remainder equally. The arbiter never votes,
// so it carries no weight.
func weightsFromConfig(cfg *config.Config) map[string]float64 {
	weights := make(map[string]float64)
	secondaries := cfg.ProviderByRole(config.RoleSecondary)

	var unweighted []string
	remainder := 1.0
	for _, pc := range cfg.ProviderByRole(config.RolePrimary) {
		weight := pc.Weight
		if weight <= 0 {
			weight = cfg.Consensus.PrimaryWeight
		}
		weights[pc.ID] = weight
		remainder -= weight
	}
	for _, pc := range secondaries {
		if pc.Weight > 0 {
			weights[pc.ID] = pc.Weight
			remainder -= pc.Weight
			continue
		}
		unweighted = append(unweighted, pc.ID)
	}
	if len(unweighted) > 0 && remainder > 0 {
		share := remainder / float64(len(unweighted))
		for _, id := range unweighted {
			weights[id] = share
		}
	}
	return weights
}
