// Package testsupport provides shared fakes and fixtures for pipeline tests.
package testsupport

import (
	"context"
	"sync"
	"time"

	"sift/internal/candidate"
	"sift/internal/jobspec"
	"sift/internal/providers"
)

// StubProvider is a scriptable providers.Client for tests. Zero value plus
// a ProviderID is a working provider that extracts SampleProfile and scores
// 75/high.
type StubProvider struct {
	ProviderID string

	Profile    *candidate.Profile
	ExtractErr error

	ScoreResult providers.Result
	ScoreErr    error
	// ScoreFunc, when set, overrides ScoreResult/ScoreErr entirely.
	ScoreFunc func(ctx context.Context, input providers.ScoreInput) (providers.Result, error)

	// Delay simulates a slow provider; calls honor context cancellation
	// while waiting.
	Delay time.Duration

	mu           sync.Mutex
	extractCalls int
	scoreCalls   int
}

func (s *StubProvider) ID() string { return s.ProviderID }

func (s *StubProvider) Extract(ctx context.Context, _ string) (*candidate.Profile, error) {
	s.mu.Lock()
	s.extractCalls++
	s.mu.Unlock()
	if err := s.wait(ctx); err != nil {
		return nil, err
	}
	if s.ExtractErr != nil {
		return nil, s.ExtractErr
	}
	if s.Profile != nil {
		copied := *s.Profile
		return &copied, nil
	}
	profile := SampleProfile()
	return &profile, nil
}

func (s *StubProvider) Score(ctx context.Context, input providers.ScoreInput) (providers.Result, error) {
	s.mu.Lock()
	s.scoreCalls++
	s.mu.Unlock()
	if err := s.wait(ctx); err != nil {
		return providers.Result{}, err
	}
	if s.ScoreFunc != nil {
		return s.ScoreFunc(ctx, input)
	}
	if s.ScoreErr != nil {
		return providers.Result{}, s.ScoreErr
	}
	if s.ScoreResult.ProviderID != "" {
		return s.ScoreResult, nil
	}
	return providers.Result{
		ProviderID: s.ProviderID,
		Score:      75,
		Confidence: providers.ConfidenceHigh,
		Rationale:  "solid match",
		Succeeded:  true,
	}, nil
}

func (s *StubProvider) HealthCheck(ctx context.Context) error {
	return s.wait(ctx)
}

// ExtractCalls reports how many times Extract ran.
func (s *StubProvider) ExtractCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.extractCalls
}

// ScoreCalls reports how many times Score ran.
func (s *StubProvider) ScoreCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.scoreCalls
}

func (s *StubProvider) wait(ctx context.Context) error {
	if s.Delay <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(s.Delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// SampleProfile returns a structurally valid extracted profile.
func SampleProfile() candidate.Profile {
	return candidate.Profile{
		Name:   "Alex Rivers",
		Email:  "alex@example.com",
		Skills: []string{"Go", "PostgreSQL", "Kubernetes"},
		Roles: []candidate.Role{
			{Title: "Backend Engineer", Company: "Acme", Years: 4},
			{Title: "SRE", Company: "Initech", Years: 2.5},
		},
		Education:       []string{"BSc Computer Science"},
		YearsExperience: 6.5,
	}
}

// SampleSpec returns a normalized job spec with one must-have rule.
func SampleSpec() jobspec.Spec {
	spec := jobspec.Spec{
		Title:          "Senior Backend Engineer",
		RequiredSkills: []string{"Go", "PostgreSQL"},
		MustHave: []jobspec.Rule{
			{Kind: jobspec.RuleSkill, Value: "Go"},
		},
	}
	spec.Normalize()
	return spec
}
