// Package feed loads match batches from the collectors, over HTTP or from a file.
package feed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/yourusername/clever-tipster/internal/config"
	"github.com/yourusername/clever-tipster/internal/metrics"
)

// Source delivers one match batch per call
type Source interface {
	Fetch(ctx context.Context) (Batch, error)
	Name() string
}

// Feed error codes
const (
	ErrCodeAuthenticationFailed = "authentication_failed"
	ErrCodeRateLimitExceeded    = "rate_limit_exceeded"
	ErrCodeNetworkError         = "network_error"
	ErrCodeServerError          = "server_error"
	ErrCodeInvalidData          = "invalid_data"
)

// Error is a feed failure carrying the source name and a stable code
type Error struct {
	Source  string
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Source + ": " + e.Code + ": " + e.Message + " (" + e.Err.Error() + ")"
	}
	return e.Source + ": " + e.Code + ": " + e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(source, code, message string, err error) *Error {
	return &Error{Source: source, Code: code, Message: message, Err: err}
}

// HTTPSource fetches a batch from a collector endpoint
type HTTPSource struct {
	client *RateLimitedHTTPClient
	url    string
	apiKey string
	logger *logrus.Entry
}

// NewHTTPSource creates a source reading from url
func NewHTTPSource(client *RateLimitedHTTPClient, url, apiKey string, logger *logrus.Logger) *HTTPSource {
	if logger == nil {
		logger = logrus.New()
	}
	return &HTTPSource{
		client: client,
		url:    url,
		apiKey: apiKey,
		logger: logger.WithField("component", "feed"),
	}
}

// Name returns the source name
func (s *HTTPSource) Name() string {
	return "http"
}

// Fetch retrieves and decodes the current batch
func (s *HTTPSource) Fetch(ctx context.Context) (Batch, error) {
	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return Batch{}, newError(s.Name(), ErrCodeNetworkError, "failed to create request", err)
	}
	if s.apiKey != "" {
		req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", s.apiKey))
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(ctx, req)
	if err != nil {
		metrics.RecordFeedRequest("error", time.Since(start).Seconds())
		return Batch{}, newError(s.Name(), ErrCodeNetworkError, "failed to fetch matches", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		metrics.RecordFeedRequest("unauthorized", time.Since(start).Seconds())
		return Batch{}, newError(s.Name(), ErrCodeAuthenticationFailed, "invalid API key", nil)
	case resp.StatusCode == http.StatusTooManyRequests:
		metrics.RecordFeedRequest("rate_limited", time.Since(start).Seconds())
		return Batch{}, newError(s.Name(), ErrCodeRateLimitExceeded, "rate limit exceeded", nil)
	case resp.StatusCode != http.StatusOK:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		metrics.RecordFeedRequest("server_error", time.Since(start).Seconds())
		return Batch{}, newError(s.Name(), ErrCodeServerError,
			fmt.Sprintf("unexpected status %d: %s", resp.StatusCode, string(body)), nil)
	}

	batch, err := DecodeBatch(resp.Body)
	if err != nil {
		metrics.RecordFeedRequest("invalid", time.Since(start).Seconds())
		return Batch{}, newError(s.Name(), ErrCodeInvalidData, "failed to parse response", err)
	}
	metrics.RecordFeedRequest("ok", time.Since(start).Seconds())

	s.logDropped(batch)
	return batch, nil
}

func (s *HTTPSource) logDropped(batch Batch) {
	for _, d := range batch.Dropped {
		s.logger.WithFields(logrus.Fields{
			"kind":     d.Kind,
			"match_id": d.MatchID,
			"index":    d.Index,
		}).Warn("Dropped feed entry: " + d.Reason)
	}
}

// FileSource reads a batch from a JSON file on every fetch
type FileSource struct {
	path string
}

// NewFileSource creates a source reading from path
func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

// Name returns the source name
func (s *FileSource) Name() string {
	return "file"
}

// Fetch reads and decodes the file
func (s *FileSource) Fetch(ctx context.Context) (Batch, error) {
	if err := ctx.Err(); err != nil {
		return Batch{}, err
	}
	f, err := os.Open(s.path)
	if err != nil {
		return Batch{}, newError(s.Name(), ErrCodeInvalidData, "failed to open "+s.path, err)
	}
	defer f.Close()

	batch, err := DecodeBatch(f)
	if err != nil {
		return Batch{}, newError(s.Name(), ErrCodeInvalidData, "failed to parse "+s.path, err)
	}
	return batch, nil
}

// ErrNoSource is returned when neither a URL nor a file is configured
var ErrNoSource = errors.New("no feed source configured")

// NewSource builds the configured source. A URL takes precedence over a file.
func NewSource(cfg config.FeedConfig, logger *logrus.Logger) (Source, error) {
	switch {
	case cfg.URL != "":
		clientCfg := DefaultHTTPClientConfig()
		if cfg.Timeout > 0 {
			clientCfg.Timeout = cfg.Timeout
		}
		clientCfg.MaxRetries = cfg.RetryMax
		clientCfg.RateLimit = cfg.RequestsPerSecond
		return NewHTTPSource(NewRateLimitedHTTPClient(clientCfg, logger), cfg.URL, cfg.APIKey, logger), nil
	case cfg.File != "":
		return NewFileSource(cfg.File), nil
	default:
		return nil, ErrNoSource
	}
}
