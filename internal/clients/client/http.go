package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/babylonlabs-io/custody-engine/internal/observability/metrics"
	"github.com/rs/zerolog/log"
)

type BaseClient interface {
	GetBaseURL() string
	GetDefaultRequestTimeout() time.Duration
	GetHttpClient() *http.Client
}

type HttpClientOptions struct {
	Timeout      time.Duration
	Path         string
	TemplatePath string // Metrics purpose
	Headers      map[string]string
}

// HttpError carries the status code of a non-2xx response together with the
// server supplied message.
type HttpError struct {
	StatusCode int
	Message    string
}

func (e *HttpError) Error() string {
	return fmt.Sprintf("request failed with status %d: %s", e.StatusCode, e.Message)
}

func SendRequest[I any, R any](
	ctx context.Context, client BaseClient, method string, opts *HttpClientOptions, input *I,
) (*R, error) {
	timeout := client.GetDefaultRequestTimeout()
	// If timeout is set, use it instead of the default
	if opts.Timeout != 0 {
		timeout = opts.Timeout
	}
	// Set a timeout for the request
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var req *http.Request
	requestError := fmt.Errorf("error creating request")
	url := client.GetBaseURL() + opts.Path

	if input != nil {
		body, err := json.Marshal(input)
		if err != nil {
			log.Ctx(ctx).Err(err).Msg("failed to marshal request body")
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		req, err = http.NewRequestWithContext(ctx, method, url, bytes.NewReader(body))
		if err != nil {
			log.Ctx(ctx).Err(err).Msg("failed to create request")
			return nil, requestError
		}
		req.Header.Set("Content-Type", "application/json")
	} else {
		var err error
		req, err = http.NewRequestWithContext(ctx, method, url, nil)
		if err != nil {
			log.Ctx(ctx).Err(err).Msg("failed to create request")
			return nil, requestError
		}
	}

	for k, v := range opts.Headers {
		req.Header.Set(k, v)
	}

	// Metrics purpose, we only care about the template path
	timer := metrics.StartClientRequestDurationTimer(
		client.GetBaseURL(), method, opts.TemplatePath,
	)

	resp, err := client.GetHttpClient().Do(req)
	if err != nil {
		timer(0)
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			log.Ctx(ctx).Err(err).Msg("request timeout")
			return nil, fmt.Errorf("request timeout after %s: %w", timeout, err)
		}
		log.Ctx(ctx).Err(err).Msg("failed to send request")
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()
	timer(resp.StatusCode)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		// best effort, the body is only used in the error message
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		var body struct {
			Message string `json:"message"`
		}
		message := string(raw)
		if json.Unmarshal(raw, &body) == nil && body.Message != "" {
			message = body.Message
		}
		if resp.StatusCode == http.StatusTooManyRequests {
			message = "rate limit exceeded: " + message
		}
		return nil, &HttpError{StatusCode: resp.StatusCode, Message: message}
	}

	var output R
	if resp.StatusCode == http.StatusNoContent {
		return &output, nil
	}
	if err := json.NewDecoder(resp.Body).Decode(&output); err != nil {
		if errors.Is(err, io.EOF) {
			return &output, nil
		}
		log.Ctx(ctx).Err(err).Msg("failed to decode response body")
		return nil, fmt.Errorf("failed to decode response body: %w", err)
	}

	return &output, nil
}
