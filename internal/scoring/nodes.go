package scoring

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"sift/internal/candidate"
	"sift/internal/consensus"
	"sift/internal/contentid"
	"sift/internal/jobspec"
	"sift/internal/logging"
	"sift/internal/providers"
	"sift/internal/report"
	"sift/internal/services"
)

// runInit seeds the run: normalizes the job spec and derives the content
// fingerprint that keys the cache.
func (p *Pipeline) runInit(ctx context.Context, st *State) error {
	st.DocumentText = strings.TrimSpace(st.DocumentText)
	if st.DocumentText == "" {
		return services.Wrap(services.ErrValidation, NodeInit, "seed state", "document text is empty", nil)
	}
	st.Spec.Normalize()
	if err := st.Spec.Validate(); err != nil {
		return services.Wrap(services.ErrValidation, NodeInit, "seed state", "", err)
	}
	st.Fingerprint = contentid.Fingerprint(st.DocumentText, st.Spec, string(st.Options.Mode))

	logging.WithContext(ctx, p.logger).Debug("run seeded",
		logging.String(logging.FieldEventType, "run_seeded"),
		logging.String(logging.FieldFingerprint, st.Fingerprint),
		logging.String("mode", string(st.Options.Mode)),
	)
	return nil
}

// runCacheCheck looks up a prior result for the fingerprint. A cache miss is
// a normal outcome; a cache failure is logged and treated as a miss.
func (p *Pipeline) runCacheCheck(ctx context.Context, st *State) error {
	cached, ok, err := p.deps.Cache.Get(ctx, st.Fingerprint)
	if err != nil {
		logging.WithContext(ctx, p.logger).Warn("cache read failed, treating as miss",
			logging.String(logging.FieldEventType, "cache_degraded"),
			logging.String(logging.FieldFingerprint, st.Fingerprint),
			logging.Error(err),
		)
		return nil
	}
	if ok {
		st.CacheHit = true
		st.Cached = cached
		logging.WithContext(ctx, p.logger).Info("cache hit",
			logging.String(logging.FieldEventType, "cache_hit"),
			logging.String(logging.FieldFingerprint, st.Fingerprint),
		)
	}
	return nil
}

// runExtract calls the primary provider to turn raw document text into a
// structured profile.
func (p *Pipeline) runExtract(ctx context.Context, st *State) error {
	profile, err := p.deps.Primary.Extract(ctx, st.DocumentText)
	if err != nil {
		return services.Wrap(services.ErrProvider, NodeExtract, "extract document", p.deps.Primary.ID(), err)
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	st.Profile = profile
	return nil
}

// runValidate applies the structural check; failure means the document is
// unusable for scoring.
func (p *Pipeline) runValidate(_ context.Context, st *State) error {
	return st.Profile.Validate()
}

// runPrefilter evaluates the spec's must-have rules. Failing candidates are
// routed straight to completion with the rejection reasons; no scoring runs.
func (p *Pipeline) runPrefilter(ctx context.Context, st *State) error {
	st.PrefilterApplied = true
	passed, reasons := st.Spec.Evaluate(st.Profile)
	st.PrefilterPassed = passed
	st.PrefilterReasons = reasons
	if !passed {
		logging.WithContext(ctx, p.logger).Info("candidate rejected by prefilter",
			logging.String(logging.FieldEventType, "prefilter_reject"),
			logging.Int("reasons", len(reasons)),
		)
	}
	return nil
}

// runPack compresses the profile and spec into the compact representation
// sent to scoring providers. Non-blocking: on failure downstream nodes fall
// back to the uncompressed profile.
func (p *Pipeline) runPack(ctx context.Context, st *State) error {
	packed, err := packProfile(st.Profile, st.Spec)
	if err != nil {
		return services.Wrap(services.ErrProvider, NodePack, "pack profile", "", err)
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	st.Packed = packed
	return nil
}

// runAnalyzeMain collects the primary provider's opinion. This is the
// minimum viable scoring path.
func (p *Pipeline) runAnalyzeMain(ctx context.Context, st *State) error {
	result, err := p.deps.Primary.Score(ctx, st.scoreInput())
	if err != nil {
		return services.Wrap(services.ErrProvider, NodeAnalyzeMain, "score document", p.deps.Primary.ID(), err)
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	result.Succeeded = true
	st.Primary = &result
	return nil
}

// runEvaluateNeedsMore decides whether secondary opinions are warranted.
// Pure decision over the primary result and mode; cannot fail.
func (p *Pipeline) runEvaluateNeedsMore(ctx context.Context, st *State) error {
	st.NeedsMore = p.needsMoreOpinions(st)
	logging.WithContext(ctx, p.logger).Debug("secondary opinion decision",
		logging.String(logging.FieldEventType, "needs_more_decision"),
		logging.Bool("needs_more", st.NeedsMore),
		logging.String("confidence", string(st.Primary.Confidence)),
		logging.String("mode", string(st.Options.Mode)),
	)
	return nil
}

func (p *Pipeline) needsMoreOpinions(st *State) bool {
	if len(p.deps.Secondary) == 0 || st.Primary == nil {
		return false
	}
	switch st.Options.Mode {
	case ModePremium:
		return true
	case ModeEco:
		return st.Primary.Confidence == providers.ConfidenceLow
	default:
		return st.Primary.Confidence != providers.ConfidenceHigh
	}
}

// runCallAdditional fans out to the remaining providers concurrently, each
// call bounded by its own timeout. Individual failures are tolerated; the
// node fails only when every secondary call failed.
func (p *Pipeline) runCallAdditional(ctx context.Context, st *State) error {
	input := st.scoreInput()
	outcomes := make([]*providers.Result, len(p.deps.Secondary))
	failures := make([]string, len(p.deps.Secondary))

	var wg sync.WaitGroup
	for i, client := range p.deps.Secondary {
		wg.Add(1)
		go func(i int, client providers.Client) {
			defer wg.Done()
			callCtx, cancel := context.WithTimeout(ctx, p.timeoutFor(client.ID()))
			defer cancel()

			result, err := client.Score(callCtx, input)
			if err != nil {
				failures[i] = client.ID()
				logging.WithContext(ctx, p.logger).Warn("secondary provider failed",
					logging.String(logging.FieldEventType, "provider_degraded"),
					logging.String(logging.FieldProvider, client.ID()),
					logging.Error(err),
				)
				return
			}
			result.Succeeded = true
			outcomes[i] = &result
		}(i, client)
	}
	wg.Wait()

	if ctx.Err() != nil {
		return ctx.Err()
	}
	for _, result := range outcomes {
		if result != nil {
			st.Secondary = append(st.Secondary, *result)
		}
	}
	for _, id := range failures {
		if id != "" {
			st.FailedProviders = append(st.FailedProviders, id)
		}
	}
	if len(st.Secondary) == 0 {
		return services.Wrap(services.ErrProvider, NodeCallAdditional, "collect opinions", "all secondary providers failed", nil)
	}
	return nil
}

func (p *Pipeline) timeoutFor(providerID string) time.Duration {
	if timeout, ok := p.deps.SecondaryTimeouts[providerID]; ok && timeout > 0 {
		return timeout
	}
	if p.deps.NodeTimeout > 0 {
		return p.deps.NodeTimeout
	}
	return 60 * time.Second
}

// runAggregate combines all successful provider results into a consensus.
// A single result passes through with weight 1.0.
func (p *Pipeline) runAggregate(ctx context.Context, st *State) error {
	results := append([]providers.Result{*st.Primary}, st.Secondary...)
	cons, err := consensus.Aggregate(results, p.deps.Weights, p.deps.Thresholds)
	if err != nil {
		return services.Wrap(services.ErrProvider, NodeAggregate, "aggregate results", "", err)
	}
	st.Consensus = &cons

	logging.WithContext(ctx, p.logger).Info("consensus computed",
		logging.String(logging.FieldEventType, "consensus"),
		logging.Float64("aggregated_score", cons.AggregatedScore),
		logging.Float64("spread", cons.Spread),
		logging.String("level", string(cons.Level)),
		logging.Int("providers", len(cons.PerProvider)),
	)
	return nil
}

// runArbiter asks the higher-scrutiny provider to break a weak consensus.
// Its verdict replaces the aggregated score outright.
func (p *Pipeline) runArbiter(ctx context.Context, st *State) error {
	verdict, err := p.deps.Arbiter.Score(ctx, st.scoreInput())
	if err != nil {
		return services.Wrap(services.ErrProvider, NodeArbiter, "arbitrate", p.deps.Arbiter.ID(), err)
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	verdict.Succeeded = true
	updated := consensus.Arbitrate(*st.Consensus, verdict)
	st.Consensus = &updated

	logging.WithContext(ctx, p.logger).Info("weak consensus arbitrated",
		logging.String(logging.FieldEventType, "arbitrated"),
		logging.String(logging.FieldProvider, p.deps.Arbiter.ID()),
		logging.Float64("score", verdict.Score),
	)
	return nil
}

// runSnapshot records which providers, rules, and thresholds were applied.
// Purely observational.
func (p *Pipeline) runSnapshot(ctx context.Context, st *State) error {
	st.Snapshot = p.buildSnapshot(st)
	return ctx.Err()
}

// runCacheStore persists the final result under the fingerprint for future
// cache hits. Failure here must never fail the run.
func (p *Pipeline) runCacheStore(ctx context.Context, st *State) error {
	if st.Final == nil {
		st.Final = p.buildFinal(st)
	}
	if err := p.deps.Cache.Put(ctx, st.Fingerprint, st.Final); err != nil {
		return services.Wrap(services.ErrCache, NodeCacheStore, "persist result", st.Fingerprint, err)
	}
	return nil
}

// runComplete assembles the final result object. The graph's sole exit node.
func (p *Pipeline) runComplete(_ context.Context, st *State) error {
	if st.CacheHit && st.Cached != nil {
		final := *st.Cached
		final.FromCache = true
		st.Final = &final
		return nil
	}
	if st.Final == nil {
		st.Final = p.buildFinal(st)
	}
	return nil
}

func (p *Pipeline) buildSnapshot(st *State) report.Snapshot {
	planned := []string{p.deps.Primary.ID()}
	for _, client := range p.deps.Secondary {
		planned = append(planned, client.ID())
	}
	var succeeded []string
	if st.Consensus != nil {
		for _, res := range st.Consensus.PerProvider {
			succeeded = append(succeeded, res.ProviderID)
		}
		if st.Consensus.Arbiter != nil {
			succeeded = append(succeeded, st.Consensus.Arbiter.ProviderID)
		}
	}
	return report.Snapshot{
		RunID:              st.RunID,
		CorrelationID:      st.Options.CorrelationID,
		Mode:               string(st.Options.Mode),
		ProvidersPlanned:   planned,
		ProvidersSucceeded: succeeded,
		ProvidersFailed:    append([]string(nil), st.FailedProviders...),
		RulesEvaluated:     len(st.Spec.MustHave),
		PrefilterApplied:   st.PrefilterApplied,
		PackingApplied:     st.Packed != "",
		Thresholds:         p.deps.Thresholds,
		CreatedAt:          time.Now().UTC(),
	}
}

func (p *Pipeline) buildFinal(st *State) *report.Result {
	if st.Snapshot.RunID == "" {
		st.Snapshot = p.buildSnapshot(st)
	}
	final := &report.Result{
		Fingerprint: st.Fingerprint,
		Snapshot:    st.Snapshot,
		CreatedAt:   time.Now().UTC(),
	}
	if st.rejected() {
		final.Score = 0
		final.Recommendation = report.RecommendNo
		final.Rationale = "candidate does not meet the must-have requirements"
		final.RejectionReasons = append([]string(nil), st.PrefilterReasons...)
		return final
	}
	if st.Consensus != nil {
		final.Score = st.Consensus.AggregatedScore
		final.Recommendation = p.deps.Bands.For(final.Score)
		final.Rationale = composeRationale(st.Consensus)
		final.Consensus = st.Consensus
	}
	return final
}

func composeRationale(cons *consensus.Result) string {
	if cons.Arbitrated && cons.Arbiter != nil && cons.Arbiter.Rationale != "" {
		return cons.Arbiter.Rationale
	}
	for _, res := range cons.PerProvider {
		if res.Rationale != "" {
			return res.Rationale
		}
	}
	return fmt.Sprintf("aggregated score across %d provider(s)", len(cons.PerProvider))
}

// packedProfile is the condensed candidate representation sent to scoring
// providers; it drops free text the scorers do not need.
type packedProfile struct {
	Name            string   `json:"name"`
	Skills          []string `json:"skills"`
	Certifications  []string `json:"certifications,omitempty"`
	Education       []string `json:"education,omitempty"`
	Roles           []string `json:"roles"`
	YearsExperience float64  `json:"years_experience"`
	TargetRole      string   `json:"target_role"`
}

func packProfile(profile *candidate.Profile, spec jobspec.Spec) (string, error) {
	if profile == nil {
		return "", fmt.Errorf("no profile to pack")
	}
	packed := packedProfile{
		Name:            profile.Name,
		Skills:          profile.Skills,
		Certifications:  profile.Certifications,
		Education:       profile.Education,
		YearsExperience: profile.TotalYears(),
		TargetRole:      spec.Title,
	}
	for _, role := range profile.Roles {
		label := role.Title
		if role.Company != "" {
			label += " @ " + role.Company
		}
		if role.Years > 0 {
			label += fmt.Sprintf(" (%.1fy)", role.Years)
		}
		packed.Roles = append(packed.Roles, label)
	}
	encoded, err := json.Marshal(packed)
	if err != nil {
		return "", fmt.Errorf("encode packed profile: %w", err)
	}
	return string(encoded), nil
}
