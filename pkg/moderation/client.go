// Package moderation screens user-submitted text through an external
// profanity-check API before it is stored. The service fails closed: when the
// API cannot give a verdict, content is rejected rather than stored
// unscreened.
package moderation

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"
	"go.uber.org/zap"

	"github.com/askstack/askstack/pkg/config"
	"github.com/askstack/askstack/pkg/errors"
	"github.com/askstack/askstack/pkg/logging"
)

const (
	censorCharacter  = "*"
	initialBackoff   = 250 * time.Millisecond
	jitterPercent    = 25
	maxResponseBytes = 1 << 20
)

// Result is the verdict for a piece of text.
type Result struct {
	Flagged  bool     // true when the text contains disallowed words
	Matches  []string // the words that were flagged
	Censored string   // the text with flagged words masked
}

// Gateway gives a moderation verdict for text. Implementations must treat
// any inability to decide as an error, never as a clean verdict.
type Gateway interface {
	Screen(ctx context.Context, text string) (Result, error)
}

// Client calls the profanity-check HTTP API with bounded retries and
// exponential backoff.
type Client struct {
	cfg    config.ModerationConfig
	http   *http.Client
	logger *logging.ColoredLogger
}

var _ Gateway = (*Client)(nil)

// NewClient creates a moderation client from config. An attempt budget below
// one is clamped to one, so a zero-valued config cannot turn the bounded
// retry into an unbounded one.
func NewClient(cfg config.ModerationConfig, logger *logging.ColoredLogger) *Client {
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}
	return &Client{
		cfg:    cfg,
		http:   &http.Client{Timeout: cfg.Timeout},
		logger: logger,
	}
}

// apiResponse mirrors the profanity API's JSON body.
type apiResponse struct {
	Content       string    `json:"content"`
	BadWordsTotal int       `json:"bad_words_total"`
	BadWordsList  []badWord `json:"bad_words_list"`
	Censored      string    `json:"censored_content"`
}

type badWord struct {
	Word     string `json:"word"`
	Original string `json:"original"`
	Start    int    `json:"start"`
	End      int    `json:"end"`
}

// Screen submits text for a verdict. Transient failures (5xx, network
// errors, timeouts) are retried up to the configured attempt budget; client
// errors from the API are terminal. When all attempts fail the returned error
// carries the moderation-unavailable code so callers reject the content.
func (c *Client) Screen(ctx context.Context, text string) (Result, error) {
	backoff := retry.NewExponential(initialBackoff)
	backoff = retry.WithJitterPercent(jitterPercent, backoff)
	backoff = retry.WithMaxRetries(uint64(c.cfg.MaxAttempts-1), backoff)

	var resp apiResponse
	attempt := 0
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		r, err := c.screenOnce(ctx, text)
		if err != nil {
			if isRetryable(err) {
				c.logger.ComponentWarn(logging.ComponentModeration, "moderation attempt failed",
					zap.Int("attempt", attempt),
					zap.Error(err))
				return retry.RetryableError(err)
			}
			return err
		}
		resp = r
		return nil
	})
	if err != nil {
		c.logger.ComponentError(logging.ComponentModeration, "moderation unavailable",
			zap.Int("attempts", attempt),
			zap.Error(err))
		return Result{}, errors.NewModerationUnavailableError(err)
	}

	result := Result{
		Flagged:  resp.BadWordsTotal > 0,
		Censored: resp.Censored,
	}
	for _, w := range resp.BadWordsList {
		result.Matches = append(result.Matches, w.Word)
	}
	if result.Flagged {
		c.logger.ComponentInfo(logging.ComponentModeration, "content flagged",
			zap.Int("matches", resp.BadWordsTotal))
	}
	return result, nil
}

// transientError marks a failure worth retrying.
type transientError struct{ cause error }

func (e *transientError) Error() string { return e.cause.Error() }
func (e *transientError) Unwrap() error { return e.cause }

func isRetryable(err error) bool {
	var te *transientError
	return errors.As(err, &te)
}

func (c *Client) screenOnce(ctx context.Context, text string) (apiResponse, error) {
	endpoint, err := url.Parse(c.cfg.Endpoint)
	if err != nil {
		return apiResponse{}, fmt.Errorf("parse moderation endpoint: %w", err)
	}
	q := endpoint.Query()
	q.Set("censor_character", censorCharacter)
	endpoint.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint.String(), strings.NewReader(text))
	if err != nil {
		return apiResponse{}, fmt.Errorf("build moderation request: %w", err)
	}
	req.Header.Set("apikey", c.cfg.APIKey)
	req.Header.Set("Content-Type", "text/plain")

	res, err := c.http.Do(req)
	if err != nil {
		// Network errors and timeouts are transient.
		return apiResponse{}, &transientError{cause: err}
	}
	defer res.Body.Close()

	body, err := io.ReadAll(io.LimitReader(res.Body, maxResponseBytes))
	if err != nil {
		return apiResponse{}, &transientError{cause: err}
	}

	switch {
	case res.StatusCode >= 500:
		return apiResponse{}, &transientError{
			cause: fmt.Errorf("moderation API returned %d", res.StatusCode),
		}
	case res.StatusCode != http.StatusOK:
		// 4xx means our request or key is wrong; retrying will not help.
		return apiResponse{}, fmt.Errorf("moderation API rejected request with %d: %s",
			res.StatusCode, strings.TrimSpace(string(body)))
	}

	var parsed apiResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return apiResponse{}, fmt.Errorf("decode moderation response: %w", err)
	}
	return parsed, nil
}
