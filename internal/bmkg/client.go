package bmkg

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"

	"github.com/danwib/tacwx/internal/config"
	"github.com/danwib/tacwx/pkg/logger"
)

// Client handles HTTP requests to the BMKG public forecast API
type Client struct {
	config     config.BMKGConfig
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *logger.Logger
}

// NewClient creates a new forecast API client
func NewClient(cfg config.BMKGConfig, log *logger.Logger) *Client {
	return &Client{
		config: cfg,
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.RequestTimeoutSeconds) * time.Second,
		},
		limiter: rate.NewLimiter(rate.Limit(cfg.RateLimitRPS), cfg.RateLimitBurst),
		logger:  log.Named("bmkg-client"),
	}
}

// FetchForecast fetches the forecast for the given region code.
// On failure the returned error carries an ErrorKind; the response is nil.
func (c *Client) FetchForecast(ctx context.Context, regionCode string) (*ForecastResponse, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, NewError(KindNetworkError, "rate limit wait canceled", err)
	}

	reqURL := fmt.Sprintf("%s?%s=%s", c.config.BaseURL, c.config.AdmLevel, url.QueryEscape(regionCode))

	var lastErr *Error
	for attempt := 0; attempt <= c.config.MaxRetries; attempt++ {
		if attempt > 0 {
			// Exponential backoff between retries
			backoffDuration := time.Duration(500*(1<<uint(attempt-1))) * time.Millisecond
			c.logger.Info("Retrying forecast fetch",
				logger.String("region", regionCode),
				logger.Int("attempt", attempt),
				logger.Duration("backoff", backoffDuration))
			select {
			case <-ctx.Done():
				return nil, NewError(KindNetworkError, "fetch canceled during backoff", ctx.Err())
			case <-time.After(backoffDuration):
			}
		}

		resp, err := c.fetchOnce(ctx, reqURL)
		if err == nil {
			if attempt > 0 {
				c.logger.Info("Forecast fetch succeeded after retries",
					logger.String("region", regionCode),
					logger.Int("attempts_needed", attempt+1))
			}
			return resp, nil
		}

		lastErr = err
		// Malformed payloads and empty results will not improve on retry
		if err.Kind != KindNetworkError {
			break
		}
		c.logger.Warn("Forecast fetch failed, may retry",
			logger.String("region", regionCode),
			logger.Error(err),
			logger.Int("attempt", attempt+1),
			logger.Int("max_attempts", c.config.MaxRetries+1))
	}

	c.logger.Error("All attempts to fetch forecast failed",
		logger.String("region", regionCode),
		logger.Error(lastErr),
		logger.Int("max_attempts", c.config.MaxRetries+1))
	return nil, lastErr
}

func (c *Client) fetchOnce(ctx context.Context, reqURL string) (*ForecastResponse, *Error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, NewError(KindNetworkError, "failed to build request", err)
	}
	req.Header.Set("User-Agent", c.config.UserAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, NewError(KindNetworkError, "request to forecast API failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, NewError(KindNetworkError, fmt.Sprintf("unexpected status code: %d", resp.StatusCode), nil)
	}

	var forecast ForecastResponse
	if err := json.NewDecoder(resp.Body).Decode(&forecast); err != nil {
		return nil, NewError(KindMalformedPayload, "failed to decode forecast body", err)
	}

	if len(forecast.Data) == 0 {
		return nil, NewError(KindEmptyResult, "forecast response contains no data", nil)
	}

	return &forecast, nil
}
