package registryclient

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/babylonlabs-io/custody-engine/internal/clients/client"
	"github.com/babylonlabs-io/custody-engine/internal/config"
	"github.com/rs/zerolog/log"
)

const (
	assetEndpoint    = "/v1/assets/%s"
	delegateEndpoint = "/v1/assets/%s/delegate"
	lockEndpoint     = "/v1/assets/%s/lock"
	revokeEndpoint   = "/v1/assets/%s/revoke"
)

type Client struct {
	httpClient *http.Client
	cfg        *config.RegistryConfig
}

func (c *Client) GetBaseURL() string {
	return strings.TrimSuffix(c.cfg.URL, "/")
}

func (c *Client) GetDefaultRequestTimeout() time.Duration {
	return c.cfg.Timeout
}

func (c *Client) GetHttpClient() *http.Client {
	return c.httpClient
}

func NewClient(cfg *config.RegistryConfig) *Client {
	if cfg == nil {
		cfg = config.DefaultRegistryConfig()
	}

	return &Client{
		httpClient: &http.Client{},
		cfg:        cfg,
	}
}

type empty struct{}

type delegateRequest struct {
	Owner    string `json:"owner"`
	Delegate string `json:"delegate"`
}

type lockRequest struct {
	Locked    bool   `json:"locked"`
	Authority string `json:"authority"`
}

type revokeRequest struct {
	Authority string `json:"authority"`
}

func (c *Client) DelegateLockAuthority(ctx context.Context, assetID, owner, delegate string) error {
	req := &delegateRequest{Owner: owner, Delegate: delegate}
	return c.post(ctx, assetID, delegateEndpoint, req)
}

func (c *Client) SetTransferLock(ctx context.Context, assetID string, locked bool, authority string) error {
	req := &lockRequest{Locked: locked, Authority: authority}
	return c.post(ctx, assetID, lockEndpoint, req)
}

func (c *Client) RevokeLockAuthority(ctx context.Context, assetID, authority string) error {
	req := &revokeRequest{Authority: authority}
	return c.post(ctx, assetID, revokeEndpoint, req)
}

func (c *Client) GetAsset(ctx context.Context, assetID string) (*AssetState, error) {
	if assetID == "" {
		return nil, fmt.Errorf("empty asset id provided")
	}

	call := func() (*AssetState, error) {
		opts := &client.HttpClientOptions{
			Path:         fmt.Sprintf(assetEndpoint, url.PathEscape(assetID)),
			TemplatePath: assetEndpoint,
		}
		return client.SendRequest[empty, AssetState](ctx, c, http.MethodGet, opts, nil)
	}

	result, err := clientCallWithRetry(ctx, call, c.cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to get asset %q: %w", assetID, err)
	}

	return result, nil
}

func (c *Client) post(ctx context.Context, assetID, endpoint string, body any) error {
	if assetID == "" {
		return fmt.Errorf("empty asset id provided")
	}

	call := func() (*empty, error) {
		opts := &client.HttpClientOptions{
			Path:         fmt.Sprintf(endpoint, url.PathEscape(assetID)),
			TemplatePath: endpoint,
		}
		return client.SendRequest[any, empty](ctx, c, http.MethodPost, opts, &body)
	}

	if _, err := clientCallWithRetry(ctx, call, c.cfg); err != nil {
		return fmt.Errorf("registry call %s for asset %q failed: %w", endpoint, assetID, err)
	}

	return nil
}

// clientCallWithRetry retries only rate limited calls: the registry did not
// process them. Every other failure is returned to the caller as is.
func clientCallWithRetry[T any](
	ctx context.Context,
	call retry.RetryableFuncWithData[T],
	cfg *config.RegistryConfig,
) (T, error) {
	result, err := retry.DoWithData(call,
		retry.Context(ctx),
		retry.Attempts(cfg.MaxRetryTimes),
		retry.Delay(cfg.RetryInterval),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(func(err error) bool {
			shouldRetry := isRateLimited(err)
			log.Ctx(ctx).Debug().
				Err(err).
				Bool("should_retry", shouldRetry).
				Msg("Retry condition check")
			return shouldRetry
		}),
		retry.OnRetry(func(n uint, err error) {
			log.Ctx(ctx).Debug().
				Uint("attempt", n+1).
				Uint("max_attempts", cfg.MaxRetryTimes).
				Err(err).
				Msg("rate limit exceeded, retrying with exponential backoff")
		}))
	if err != nil {
		var zero T
		return zero, err
	}
	return result, nil
}

func isRateLimited(err error) bool {
	var httpErr *client.HttpError
	return errors.As(err, &httpErr) && httpErr.StatusCode == http.StatusTooManyRequests
}
