// Package service runs the converter: it owns the current rate table, records history
// and formats results for the HTTP and CLI front ends.
package service

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/damon-houk/currency-converter/internal/domain/entity"
	"github.com/damon-houk/currency-converter/internal/domain/repository"
	domain "github.com/damon-houk/currency-converter/internal/domain/service"
	"github.com/damon-houk/currency-converter/internal/infrastructure/logger"
	"github.com/damon-houk/currency-converter/internal/infrastructure/middleware"
	"github.com/google/uuid"
	"github.com/samber/lo"
)

// ConversionView is everything a client needs to show after a conversion
type ConversionView struct {
	Request  entity.ConversionRequest `json:"request"`
	Result   entity.ConversionResult  `json:"result"`
	Display  ResultDisplay            `json:"display"`
	RateInfo RateInfo                 `json:"rate_info"`
	Rates    RateStatus               `json:"rates"`
	Entry    *entity.HistoryEntry     `json:"history_entry,omitempty"`
}

// RateStatus describes the rate table currently in use
type RateStatus struct {
	Freshness  entity.RateFreshness `json:"freshness"`
	Label      string               `json:"label"`
	Color      string               `json:"color"`
	Source     string               `json:"source"`
	RatesDate  string               `json:"rates_date,omitempty"`
	LastUpdate *time.Time           `json:"last_update,omitempty"`
	Currencies int                  `json:"currencies"`
	Degraded   bool                 `json:"degraded"`
}

// ConverterService owns the rate table and history for one converter instance
type ConverterService struct {
	provider  domain.RateProvider
	history   repository.HistoryRepository
	snapshots repository.RateSnapshotRepository
	logger    logger.Logger
	now       func() time.Time
	newID     func() string

	mu         sync.RWMutex
	table      entity.RateTable
	lastUpdate *time.Time
	source     string
	ratesDate  string
	degraded   bool
}

// NewConverterService creates a converter. snapshots may be nil to skip persisting rates.
func NewConverterService(provider domain.RateProvider, history repository.HistoryRepository, snapshots repository.RateSnapshotRepository, log logger.Logger) *ConverterService {
	if log == nil {
		log = logger.GetDefaultLogger()
	}

	return &ConverterService{
		provider:  provider,
		history:   history,
		snapshots: snapshots,
		logger:    log,
		now:       time.Now,
		newID:     func() string { return uuid.New().String() },
	}
}

// Initialize restores the last persisted live rates, if any, and then refreshes
func (s *ConverterService) Initialize(ctx context.Context) RateStatus {
	if s.snapshots != nil {
		snapshot, err := s.snapshots.Load(ctx)
		if err != nil {
			s.logger.Warn("Failed to load rate snapshot", map[string]interface{}{
				"error": err.Error(),
			})
		} else if snapshot != nil {
			s.install(snapshot)
			s.logger.Info("Rate snapshot restored", map[string]interface{}{
				"source":     snapshot.Source,
				"fetched_at": snapshot.FetchedAt.Format(time.RFC3339),
			})
		}
	}

	return s.Refresh(ctx)
}

// Refresh fetches rates and installs them. A degraded result only replaces the
// table when no real rates have been seen yet, so earlier live rates age naturally.
func (s *ConverterService) Refresh(ctx context.Context) RateStatus {
	requestID := middleware.GetRequestID(ctx)
	result := s.provider.FetchRates(ctx)

	if result.Degraded {
		s.mu.Lock()
		keep := s.table != nil && !s.degraded
		if !keep {
			s.table = result.Table.Clone()
			s.lastUpdate = nil
			s.source = result.Source
			s.ratesDate = result.RatesDate
			s.degraded = true
		}
		s.mu.Unlock()

		if keep {
			s.logger.Warn("Rate refresh failed, keeping previous rates", map[string]interface{}{
				"request_id": requestID,
			})
		} else {
			s.logger.Warn("Rate refresh failed, using offline rates", map[string]interface{}{
				"request_id": requestID,
				"currencies": len(result.Table),
			})
		}

		return s.RateStatus()
	}

	s.install(result)

	s.logger.Info("Rates refreshed", map[string]interface{}{
		"request_id": requestID,
		"source":     result.Source,
		"currencies": len(result.Table),
		"rates_date": result.RatesDate,
	})

	if s.snapshots != nil {
		if err := s.snapshots.Save(ctx, result); err != nil {
			s.logger.Warn("Failed to persist rate snapshot", map[string]interface{}{
				"request_id": requestID,
				"error":      err.Error(),
			})
		}
	}

	return s.RateStatus()
}

// RefreshNow bypasses the provider cache and refreshes; used for user-requested refreshes
func (s *ConverterService) RefreshNow(ctx context.Context) RateStatus {
	s.provider.Invalidate()
	return s.Refresh(ctx)
}

func (s *ConverterService) install(result *entity.RateFetchResult) {
	fetchedAt := result.FetchedAt

	s.mu.Lock()
	defer s.mu.Unlock()

	s.table = result.Table.Clone()
	s.lastUpdate = &fetchedAt
	s.source = result.Source
	s.ratesDate = result.RatesDate
	s.degraded = false
}

// StartAutoRefresh refreshes rates every interval until ctx is done
func (s *ConverterService) StartAutoRefresh(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				s.logger.Info("Auto refresh stopped", nil)
				return
			case <-ticker.C:
				s.Refresh(middleware.WithRequestID(ctx, ""))
			}
		}
	}()
}

// RateStatus reports the freshness and origin of the current table
func (s *ConverterService) RateStatus() RateStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.rateStatusLocked()
}

func (s *ConverterService) rateStatusLocked() RateStatus {
	freshness := domain.ClassifyFreshness(s.lastUpdate, s.now())
	label, color := FormatFreshness(freshness)

	var lastUpdate *time.Time
	if s.lastUpdate != nil {
		t := *s.lastUpdate
		lastUpdate = &t
	}

	return RateStatus{
		Freshness:  freshness,
		Label:      label,
		Color:      color,
		Source:     s.source,
		RatesDate:  s.ratesDate,
		LastUpdate: lastUpdate,
		Currencies: len(s.table),
		Degraded:   s.degraded,
	}
}

// Rates returns a copy of the current table
func (s *ConverterService) Rates() entity.RateTable {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.table.Clone()
}

// Currencies lists the codes in the current table in alphabetical order
func (s *ConverterService) Currencies() []string {
	s.mu.RLock()
	codes := lo.Keys(s.table)
	s.mu.RUnlock()

	slices.Sort(codes)
	return codes
}

// Convert parses rawAmount and converts it, recording the conversion in the history
func (s *ConverterService) Convert(ctx context.Context, rawAmount, from, to string) (*ConversionView, error) {
	amount, err := domain.ParseAmount(rawAmount)
	if err != nil {
		return nil, err
	}

	return s.convert(ctx, entity.ConversionRequest{
		Amount: amount,
		From:   normalizeCode(from),
		To:     normalizeCode(to),
	})
}

// Swap converts rawAmount forward, then converts the displayed result back with the
// currencies exchanged. Only the swapped conversion is recorded.
func (s *ConverterService) Swap(ctx context.Context, rawAmount, from, to string) (*ConversionView, error) {
	amount, err := domain.ParseAmount(rawAmount)
	if err != nil {
		return nil, err
	}

	req := entity.ConversionRequest{Amount: amount, From: normalizeCode(from), To: normalizeCode(to)}

	s.mu.RLock()
	forward, err := domain.Convert(req, s.table)
	s.mu.RUnlock()
	if err != nil {
		return nil, err
	}

	// amounts that round to 0.00 would be rejected, so keep the original input
	swappedAmount := roundCents(forward.ConvertedAmount)
	if swappedAmount <= 0 {
		swappedAmount = amount
	}

	return s.convert(ctx, entity.ConversionRequest{
		Amount: swappedAmount,
		From:   req.To,
		To:     req.From,
	})
}

func (s *ConverterService) convert(ctx context.Context, req entity.ConversionRequest) (*ConversionView, error) {
	requestID := middleware.GetRequestID(ctx)

	s.mu.RLock()
	result, err := domain.Convert(req, s.table)
	status := s.rateStatusLocked()
	s.mu.RUnlock()

	if err != nil {
		s.logger.Warn("Conversion rejected", map[string]interface{}{
			"request_id": requestID,
			"from":       req.From,
			"to":         req.To,
			"error":      err.Error(),
		})
		return nil, err
	}

	entry := &entity.HistoryEntry{
		ID:           s.newID(),
		FromAmount:   req.Amount,
		FromCurrency: req.From,
		ToAmount:     result.ConvertedAmount,
		ToCurrency:   req.To,
		Rate:         result.EffectiveRate,
		Timestamp:    s.now(),
	}

	if err := s.history.Append(ctx, entry); err != nil {
		// the conversion itself succeeded; a lost history line is not worth failing it
		s.logger.Error("Failed to record conversion history", map[string]interface{}{
			"request_id": requestID,
			"error":      err.Error(),
		})
		entry = nil
	}

	s.logger.Info("Conversion completed", map[string]interface{}{
		"request_id":       requestID,
		"from":             req.From,
		"to":               req.To,
		"amount":           req.Amount,
		"converted_amount": result.ConvertedAmount,
		"effective_rate":   result.EffectiveRate,
		"rate_status":      string(status.Freshness.Status),
	})

	return &ConversionView{
		Request:  req,
		Result:   *result,
		Display:  FormatResult(req, result),
		RateInfo: FormatRateInfo(req.From, req.To, result.EffectiveRate, status.Freshness),
		Rates:    status,
		Entry:    entry,
	}, nil
}

// History returns all recorded conversions, oldest first
func (s *ConverterService) History(ctx context.Context) ([]entity.HistoryEntry, error) {
	entries, err := s.history.LoadAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load history: %w", err)
	}
	return entries, nil
}

// ClearHistory removes every recorded conversion
func (s *ConverterService) ClearHistory(ctx context.Context) error {
	if err := s.history.Clear(ctx); err != nil {
		return fmt.Errorf("failed to clear history: %w", err)
	}

	s.logger.Info("History cleared", map[string]interface{}{
		"request_id": middleware.GetRequestID(ctx),
	})
	return nil
}

func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
