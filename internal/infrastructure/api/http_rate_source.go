package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/damon-houk/currency-converter/internal/domain/entity"
	"github.com/damon-houk/currency-converter/internal/domain/service"
	"github.com/damon-houk/currency-converter/internal/infrastructure/logger"
	"github.com/samber/lo"
)

const maxBodyBytes = 1 << 20

// RatesResponse is the latest-rates payload shared by the supported public endpoints.
// exchangerate-api.com and frankfurter.app send "date"; open.er-api.com sends the unix update time.
type RatesResponse struct {
	Base               string             `json:"base"`
	BaseCode           string             `json:"base_code"`
	Date               string             `json:"date"`
	TimeLastUpdateUnix int64              `json:"time_last_update_unix"`
	Rates              map[string]float64 `json:"rates"`
}

// HTTPRateSource fetches a base-relative rate table from one latest-rates endpoint
type HTTPRateSource struct {
	name       string
	url        string
	httpClient *http.Client
	maxRetries int
	backoff    func(attempt int) time.Duration
	now        func() time.Time
	logger     logger.Logger
}

// NewHTTPRateSource creates a source for endpoint. A nil httpClient gets a 10s timeout client.
func NewHTTPRateSource(endpoint string, httpClient *http.Client, maxRetries int, log logger.Logger) *HTTPRateSource {
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout: 10 * time.Second,
		}
	}
	if maxRetries < 1 {
		maxRetries = 1
	}
	if log == nil {
		log = logger.GetDefaultLogger()
	}

	name := endpoint
	if u, err := url.Parse(endpoint); err == nil && u.Host != "" {
		name = u.Host
	}

	return &HTTPRateSource{
		name:       name,
		url:        endpoint,
		httpClient: httpClient,
		maxRetries: maxRetries,
		backoff: func(attempt int) time.Duration {
			return time.Duration(attempt*attempt) * time.Second
		},
		now:    time.Now,
		logger: log.WithField("rate_source", name),
	}
}

// NewHTTPRateSources builds one source per endpoint, in order, sharing a single client
func NewHTTPRateSources(endpoints []string, timeout time.Duration, maxRetries int, log logger.Logger) []service.RateSource {
	client := &http.Client{
		Timeout: timeout,
	}

	return lo.Map(endpoints, func(endpoint string, _ int) service.RateSource {
		return NewHTTPRateSource(endpoint, client, maxRetries, log)
	})
}

// Name identifies the source by host
func (s *HTTPRateSource) Name() string {
	return s.name
}

// FetchRates retrieves the latest rates, retrying network errors with quadratic backoff
func (s *HTTPRateSource) FetchRates(ctx context.Context) (*entity.RateFetchResult, error) {
	var (
		resp *http.Response
		err  error
	)

	for attempt := 1; attempt <= s.maxRetries; attempt++ {
		var req *http.Request
		req, err = http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to create request: %v", entity.ErrRateFetchFailure, err)
		}
		req.Header.Add("Accept", "application/json")

		resp, err = s.httpClient.Do(req)
		if err == nil {
			break
		}

		if attempt < s.maxRetries {
			backoffTime := s.backoff(attempt)
			s.logger.Warn("Rate request failed, retrying", map[string]interface{}{
				"attempt":     attempt,
				"max_retries": s.maxRetries,
				"backoff":     backoffTime.String(),
				"error":       err.Error(),
			})

			select {
			case <-ctx.Done():
				return nil, fmt.Errorf("%w: %v", entity.ErrRateFetchFailure, ctx.Err())
			case <-time.After(backoffTime):
			}
		}
	}

	if err != nil {
		return nil, fmt.Errorf("%w: failed to execute request after %d attempts: %v", entity.ErrRateFetchFailure, s.maxRetries, err)
	}

	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			s.logger.Debug("Error closing response body", map[string]interface{}{
				"error": closeErr.Error(),
			})
		}
	}()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read response body: %v", entity.ErrRateFetchFailure, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: source returned status %d", entity.ErrRateFetchFailure, resp.StatusCode)
	}

	var payload RatesResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("%w: failed to decode response: %v", entity.ErrRateFetchFailure, err)
	}

	table, err := s.buildTable(payload)
	if err != nil {
		return nil, err
	}

	return &entity.RateFetchResult{
		Table:     table,
		Source:    s.name,
		FetchedAt: s.now(),
		RatesDate: ratesDate(payload),
	}, nil
}

// buildTable drops unusable entries and pins the base currency at 1.0
func (s *HTTPRateSource) buildTable(payload RatesResponse) (entity.RateTable, error) {
	if len(payload.Rates) == 0 {
		return nil, fmt.Errorf("%w: response carries no rates", entity.ErrRateFetchFailure)
	}

	base := payload.Base
	if base == "" {
		base = payload.BaseCode
	}
	if base != "" && base != entity.BaseCurrency {
		return nil, fmt.Errorf("%w: response is quoted against %s, not %s", entity.ErrRateFetchFailure, base, entity.BaseCurrency)
	}

	table := make(entity.RateTable, len(payload.Rates)+1)
	for code, rate := range payload.Rates {
		if !entity.IsValidRate(rate) {
			s.logger.Warn("Dropping invalid rate", map[string]interface{}{
				"currency": code,
				"rate":     fmt.Sprintf("%v", rate),
			})
			continue
		}
		table[code] = rate
	}

	if baseRate, ok := table[entity.BaseCurrency]; !ok {
		table[entity.BaseCurrency] = 1.0
	} else if baseRate != 1.0 {
		return nil, fmt.Errorf("%w: base currency rate is %v", entity.ErrRateFetchFailure, baseRate)
	}

	if len(table) < 2 {
		return nil, fmt.Errorf("%w: response carries no usable rates", entity.ErrRateFetchFailure)
	}

	return table, nil
}

func ratesDate(payload RatesResponse) string {
	if payload.Date != "" {
		return payload.Date
	}
	if payload.TimeLastUpdateUnix > 0 {
		return time.Unix(payload.TimeLastUpdateUnix, 0).UTC().Format("2006-01-02")
	}
	return ""
}
