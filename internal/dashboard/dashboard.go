// Package dashboard holds the current portfolio snapshot and answers the
// views built on it.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/STTM-NSU/portfolio-alerts/internal/alerts"
	"github.com/STTM-NSU/portfolio-alerts/internal/highlights"
	"github.com/STTM-NSU/portfolio-alerts/internal/logger"
	"github.com/STTM-NSU/portfolio-alerts/internal/model"
	"github.com/STTM-NSU/portfolio-alerts/internal/normalize"
	"github.com/STTM-NSU/portfolio-alerts/internal/rules"
	"github.com/STTM-NSU/portfolio-alerts/internal/setalg"
	"github.com/STTM-NSU/portfolio-alerts/internal/source"
)

var UnknownPortfolioError = errors.New("unknown portfolio")

type Snapshot struct {
	Portfolios model.Portfolios
	FetchedAt  time.Time
}

type PortfolioSummary struct {
	Name          string  `json:"name"`
	Holdings      int     `json:"holdings"`
	TotalInvested float64 `json:"total_invested"`
	Valid         bool    `json:"valid"`
}

// AlertFilter narrows alerts to one portfolio and/or one rule display name.
// Empty fields match everything.
type AlertFilter struct {
	Portfolio string
	Rule      string
}

type Service struct {
	sources []source.Source
	rules   rules.Store
	logger  logger.Logger

	refreshInterval time.Duration

	// fetchMu serializes fetches; mu guards snapshot.
	fetchMu  sync.Mutex
	mu       sync.RWMutex
	snapshot *Snapshot
}

func NewService(sources []source.Source, store rules.Store, refreshInterval time.Duration, logger logger.Logger) *Service {
	return &Service{
		sources:         sources,
		rules:           store,
		logger:          logger,
		refreshInterval: refreshInterval,
	}
}

// Refresh drops the cached portfolios and fetches every source again.
func (s *Service) Refresh(ctx context.Context) (Snapshot, error) {
	s.fetchMu.Lock()
	defer s.fetchMu.Unlock()

	return s.fetch(ctx)
}

func (s *Service) fetch(ctx context.Context) (Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return Snapshot{}, err
	}

	raw := source.FetchAll(ctx, s.sources, s.logger)
	portfolios := make(model.Portfolios, len(raw))
	for name, table := range raw {
		portfolios[name] = normalize.Table(table)
		if portfolios[name].Empty() {
			s.logger.Warnf("portfolio %s is empty", name)
		}
	}

	snap := Snapshot{Portfolios: portfolios, FetchedAt: time.Now().UTC()}

	s.mu.Lock()
	s.snapshot = &snap
	s.mu.Unlock()

	s.logger.Infof("refreshed %d portfolios, %d valid", len(portfolios), len(portfolios.Valid()))

	return snap, nil
}

// Current returns the cached snapshot, fetching it on first use.
func (s *Service) Current(ctx context.Context) (Snapshot, error) {
	s.mu.RLock()
	snap := s.snapshot
	s.mu.RUnlock()
	if snap != nil {
		return *snap, nil
	}

	s.fetchMu.Lock()
	defer s.fetchMu.Unlock()

	s.mu.RLock()
	snap = s.snapshot
	s.mu.RUnlock()
	if snap != nil {
		return *snap, nil
	}

	return s.fetch(ctx)
}

func (s *Service) Portfolios(ctx context.Context) ([]PortfolioSummary, error) {
	snap, err := s.Current(ctx)
	if err != nil {
		return nil, err
	}

	names := snap.Portfolios.Names()
	out := make([]PortfolioSummary, 0, len(names))
	for _, name := range names {
		t := snap.Portfolios[name]
		out = append(out, PortfolioSummary{
			Name:          name,
			Holdings:      t.Len(),
			TotalInvested: t.TotalInvested(),
			Valid:         !t.Empty(),
		})
	}
	return out, nil
}

func (s *Service) table(ctx context.Context, name string) (model.Table, error) {
	snap, err := s.Current(ctx)
	if err != nil {
		return model.Table{}, err
	}

	t, ok := snap.Portfolios[name]
	if !ok {
		return model.Table{}, fmt.Errorf("%w: %s", UnknownPortfolioError, name)
	}
	return t, nil
}

func (s *Service) Holdings(ctx context.Context, name string) ([]model.Holding, error) {
	t, err := s.table(ctx, name)
	if err != nil {
		return nil, err
	}
	return t.Holdings(), nil
}

func (s *Service) Highlights(ctx context.Context, name string) (model.Highlights, error) {
	t, err := s.table(ctx, name)
	if err != nil {
		return model.Highlights{}, err
	}
	return highlights.Compute(t), nil
}

func (s *Service) Compare(ctx context.Context) (setalg.Result, error) {
	snap, err := s.Current(ctx)
	if err != nil {
		return setalg.Result{}, err
	}
	return setalg.Compute(snap.Portfolios), nil
}

func (s *Service) Stocks(ctx context.Context, filter []string) ([]model.StockRow, error) {
	snap, err := s.Current(ctx)
	if err != nil {
		return nil, err
	}

	for _, name := range filter {
		if _, ok := snap.Portfolios[name]; !ok {
			return nil, fmt.Errorf("%w: %s", UnknownPortfolioError, name)
		}
	}
	return setalg.Stocks(snap.Portfolios, filter), nil
}

func (s *Service) Alerts(ctx context.Context, filter AlertFilter) ([]model.Alert, error) {
	snap, err := s.Current(ctx)
	if err != nil {
		return nil, err
	}

	if filter.Portfolio != "" {
		if _, ok := snap.Portfolios[filter.Portfolio]; !ok {
			return nil, fmt.Errorf("%w: %s", UnknownPortfolioError, filter.Portfolio)
		}
	}

	list, err := s.rules.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: can't list rules", err)
	}

	all := alerts.Evaluate(snap.Portfolios, list)
	if filter.Portfolio == "" && filter.Rule == "" {
		return all, nil
	}

	out := make([]model.Alert, 0, len(all))
	for _, a := range all {
		if filter.Portfolio != "" && a.Portfolio != filter.Portfolio {
			continue
		}
		if filter.Rule != "" && a.Rule != filter.Rule {
			continue
		}
		out = append(out, a)
	}
	return out, nil
}

// Run refreshes the snapshot every refresh interval until ctx is done. A
// zero interval disables periodic refresh.
func (s *Service) Run(ctx context.Context) {
	if s.refreshInterval <= 0 {
		return
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-time.After(s.refreshInterval):
			if _, err := s.Refresh(ctx); err != nil {
				s.logger.Errorf("%s: error refreshing portfolios", err)
			}
		}
	}
}

func (s *Service) Close() error {
	return source.CloseAll(s.sources)
}
