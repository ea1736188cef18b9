package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"sift/internal/candidate"
)

const (
	jsonResponseType      = "json_object"
	defaultHTTPTimeout    = 30 * time.Second
	defaultRetryMaxDelay  = 10 * time.Second
	defaultRetryBaseDelay = 1 * time.Second
	defaultRetryAttempts  = 3
	defaultBaseURL        = "https://openrouter.ai/api/v1/chat/completions"
)

// Config captures the runtime settings required to talk to one provider.
type Config struct {
	ID             string
	APIKey         string
	BaseURL        string
	Model          string
	TimeoutSeconds int
}

// OpenRouter is a Client backed by an OpenRouter-compatible chat completion
// endpoint. It asks for JSON-only responses and tolerates the formatting
// quirks different upstream models exhibit.
type OpenRouter struct {
	cfg        Config
	httpClient *http.Client

	scorePrompt      string
	retryMaxAttempts int
	retryBaseDelay   time.Duration
	retryMaxDelay    time.Duration
	sleeper          func(time.Duration)
}

// Option customizes the client.
type Option func(*OpenRouter)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *OpenRouter) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithRetry overrides the retry count and backoff delays.
func WithRetry(attempts int, baseDelay, maxDelay time.Duration) Option {
	return func(c *OpenRouter) {
		c.retryMaxAttempts = attempts
		c.retryBaseDelay = baseDelay
		c.retryMaxDelay = maxDelay
	}
}

// WithScoringPrompt overrides the scoring system prompt. The arbiter role
// uses this to swap in the higher-scrutiny arbitration instructions.
func WithScoringPrompt(prompt string) Option {
	return func(c *OpenRouter) {
		if strings.TrimSpace(prompt) != "" {
			c.scorePrompt = prompt
		}
	}
}

// WithSleeper overrides how retry sleeps are performed (useful for tests).
func WithSleeper(sleeper func(time.Duration)) Option {
	return func(c *OpenRouter) {
		c.sleeper = sleeper
	}
}

// NewOpenRouter constructs a provider client from the supplied configuration.
func NewOpenRouter(cfg Config, opts ...Option) *OpenRouter {
	timeout := defaultHTTPTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	client := &OpenRouter{
		cfg: Config{
			ID:             strings.TrimSpace(cfg.ID),
			APIKey:         strings.TrimSpace(cfg.APIKey),
			BaseURL:        strings.TrimSpace(cfg.BaseURL),
			Model:          strings.TrimSpace(cfg.Model),
			TimeoutSeconds: cfg.TimeoutSeconds,
		},
		httpClient:       &http.Client{Timeout: timeout},
		scorePrompt:      ScoringPrompt,
		retryMaxAttempts: defaultRetryAttempts,
		retryBaseDelay:   defaultRetryBaseDelay,
		retryMaxDelay:    defaultRetryMaxDelay,
	}
	for _, opt := range opts {
		opt(client)
	}
	if client.cfg.BaseURL == "" {
		client.cfg.BaseURL = defaultBaseURL
	}
	return client
}

// ID returns the configured provider identifier.
func (c *OpenRouter) ID() string {
	return c.cfg.ID
}

// Extract turns raw document text into a structured candidate profile.
func (c *OpenRouter) Extract(ctx context.Context, documentText string) (*candidate.Profile, error) {
	documentText = strings.TrimSpace(documentText)
	if documentText == "" {
		return nil, errors.New("extract: document text required")
	}
	content, err := c.completeJSON(ctx, ExtractionPrompt, documentText, "extract")
	if err != nil {
		return nil, err
	}
	var profile candidate.Profile
	if err := DecodeJSON(content, &profile); err != nil {
		return nil, fmt.Errorf("extract: parse payload: %w", err)
	}
	profile.Normalize()
	return &profile, nil
}

// Score asks the provider for a fit score against the job spec.
func (c *OpenRouter) Score(ctx context.Context, input ScoreInput) (Result, error) {
	var empty Result
	packed := strings.TrimSpace(input.Packed)
	if packed == "" {
		return empty, errors.New("score: packed input required")
	}
	specJSON, err := json.Marshal(input.Spec)
	if err != nil {
		return empty, fmt.Errorf("score: encode job spec: %w", err)
	}
	userPrompt := fmt.Sprintf("Job specification:\n%s\n\nCandidate profile:\n%s", specJSON, packed)
	content, err := c.completeJSON(ctx, c.scorePrompt, userPrompt, "score")
	if err != nil {
		return empty, err
	}
	var parsed struct {
		Score      float64 `json:"score"`
		Confidence string  `json:"confidence"`
		Rationale  string  `json:"rationale"`
	}
	if err := DecodeJSON(content, &parsed); err != nil {
		return empty, fmt.Errorf("score: parse payload: %w", err)
	}
	return Result{
		ProviderID: c.cfg.ID,
		Score:      ClampScore(parsed.Score),
		Confidence: ParseConfidence(parsed.Confidence),
		Rationale:  strings.TrimSpace(parsed.Rationale),
		Succeeded:  true,
	}, nil
}

// HealthCheck issues a fast ping to verify the API key and model are usable.
func (c *OpenRouter) HealthCheck(ctx context.Context) error {
	content, err := c.completeJSON(ctx, "You must respond with JSON only.", `Respond with {"ok":true}`, "health")
	if err != nil {
		return err
	}
	var parsed struct {
		OK bool `json:"ok"`
	}
	if err := DecodeJSON(content, &parsed); err != nil {
		return fmt.Errorf("health: parse payload: %w", err)
	}
	if !parsed.OK {
		return errors.New("health: unexpected response")
	}
	return nil
}

type chatCompletionRequest struct {
	Model          string            `json:"model"`
	Messages       []chatMessage     `json:"messages"`
	Temperature    float64           `json:"temperature"`
	ResponseFormat map[string]string `json:"response_format"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message chatCompletionMessage `json:"message"`
		// Some providers return the streaming schema (delta) even when
		// stream=false, so tolerate it as a fallback.
		Delta chatCompletionMessage `json:"delta"`
		// Legacy "text" field (completion-style responses).
		Text         string `json:"text"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

type chatCompletionMessage struct {
	Content string `json:"content"`
	Refusal string `json:"refusal"`
}

type httpStatusError struct {
	StatusCode int
	Body       string
	RetryAfter time.Duration
}

func (e *httpStatusError) Error() string {
	return fmt.Sprintf("provider request: http %d: %s", e.StatusCode, strings.TrimSpace(e.Body))
}

func (c *OpenRouter) completeJSON(ctx context.Context, systemPrompt, userPrompt, op string) (string, error) {
	if strings.TrimSpace(c.cfg.APIKey) == "" {
		return "", fmt.Errorf("%s: api key required", op)
	}
	payload := chatCompletionRequest{
		Model: c.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
		Temperature:    0,
		ResponseFormat: map[string]string{"type": jsonResponseType},
	}

	attempts := c.retryAttempts()
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		content, err := c.sendOnce(ctx, payload, op)
		if err == nil {
			return content, nil
		}

		delay, retry := c.retryDelay(ctx, err, attempt, attempts)
		if !retry {
			return "", err
		}
		if sleepErr := c.sleep(ctx, delay); sleepErr != nil {
			return "", sleepErr
		}
		lastErr = err
	}

	if lastErr == nil {
		lastErr = errors.New("unknown retry failure")
	}
	return "", fmt.Errorf("%s: failed after %d attempts: %w", op, attempts, lastErr)
}

func (c *OpenRouter) sendOnce(ctx context.Context, payload chatCompletionRequest, op string) (string, error) {
	encoded, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("provider request: encode body: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL, bytes.NewReader(encoded))
	if err != nil {
		return "", fmt.Errorf("provider request: new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("provider request: http error: %w", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("provider request: read body: %w", err)
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		retryAfter, _ := parseRetryAfter(resp.Header.Get("Retry-After"))
		return "", &httpStatusError{
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(body)),
			RetryAfter: retryAfter,
		}
	}
	var completion chatCompletionResponse
	if err := json.Unmarshal(body, &completion); err != nil {
		return "", fmt.Errorf("provider request: decode response: %w", err)
	}
	if completion.Error != nil {
		return "", fmt.Errorf("provider request: api error: %s", strings.TrimSpace(completion.Error.Message))
	}
	content := extractContent(completion)
	if content == "" {
		return "", fmt.Errorf("%s: empty content (refusal=%q)", op, extractRefusal(completion))
	}
	return content, nil
}

func extractContent(completion chatCompletionResponse) string {
	for _, choice := range completion.Choices {
		for _, content := range []string{choice.Message.Content, choice.Delta.Content, choice.Text} {
			if trimmed := strings.TrimSpace(content); trimmed != "" {
				return trimmed
			}
		}
	}
	return ""
}

func extractRefusal(completion chatCompletionResponse) string {
	for _, choice := range completion.Choices {
		for _, refusal := range []string{choice.Message.Refusal, choice.Delta.Refusal} {
			if trimmed := strings.TrimSpace(refusal); trimmed != "" {
				return trimmed
			}
		}
	}
	return ""
}

func (c *OpenRouter) retryAttempts() int {
	if c.retryMaxAttempts <= 0 {
		return 1
	}
	return c.retryMaxAttempts
}

func (c *OpenRouter) retryDelay(ctx context.Context, err error, attempt, maxAttempts int) (time.Duration, bool) {
	if attempt >= maxAttempts || err == nil {
		return 0, false
	}
	if ctx == nil || ctx.Err() != nil {
		return 0, false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return 0, false
	}

	var statusErr *httpStatusError
	if errors.As(err, &statusErr) {
		switch {
		case statusErr.StatusCode == http.StatusRequestTimeout,
			statusErr.StatusCode == http.StatusTooManyRequests,
			statusErr.StatusCode >= http.StatusInternalServerError:
			if statusErr.RetryAfter > 0 {
				return c.capDelay(statusErr.RetryAfter), true
			}
			return c.backoffDelay(attempt), true
		default:
			return 0, false
		}
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return c.backoffDelay(attempt), true
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Timeout() {
		return c.backoffDelay(attempt), true
	}

	// Empty or unparseable content is worth one more ask.
	if strings.Contains(err.Error(), "empty content") {
		return c.backoffDelay(attempt), true
	}

	return 0, false
}

// backoffDelay doubles the base delay per completed attempt, capped at the
// configured maximum: attempt 1 -> base, attempt 2 -> base*2, and so on.
func (c *OpenRouter) backoffDelay(attempt int) time.Duration {
	base := c.retryBaseDelay
	if base <= 0 {
		return 0
	}
	maxDelay := c.retryMaxDelay
	if maxDelay <= 0 {
		maxDelay = defaultRetryMaxDelay
	}
	delay := base
	for i := 1; i < attempt; i++ {
		if delay > maxDelay/2 {
			delay = maxDelay
			break
		}
		delay *= 2
	}
	return c.capDelay(delay)
}

func (c *OpenRouter) capDelay(delay time.Duration) time.Duration {
	if delay < 0 {
		return 0
	}
	maxDelay := c.retryMaxDelay
	if maxDelay <= 0 {
		maxDelay = defaultRetryMaxDelay
	}
	if delay > maxDelay {
		return maxDelay
	}
	return delay
}

func (c *OpenRouter) sleep(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return nil
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if c.sleeper != nil {
		c.sleeper(delay)
		return ctx.Err()
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func parseRetryAfter(value string) (time.Duration, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, false
	}
	if seconds, err := strconv.Atoi(value); err == nil {
		if seconds < 0 {
			return 0, false
		}
		return time.Duration(seconds) * time.Second, true
	}
	if when, err := http.ParseTime(value); err == nil {
		delay := time.Until(when)
		if delay < 0 {
			return 0, false
		}
		return delay, true
	}
	return 0, false
}
