// Package source fetches raw holdings tables from brokers.
package source

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/STTM-NSU/portfolio-alerts/internal/config"
	"github.com/STTM-NSU/portfolio-alerts/internal/logger"
	"github.com/STTM-NSU/portfolio-alerts/internal/model"
)

// Source returns one portfolio as a raw table with broker specific columns.
type Source interface {
	Name() string
	Fetch(ctx context.Context) (model.RawTable, error)
}

func New(ctx context.Context, cfg config.SourceConfig, logger logger.Logger) (Source, error) {
	switch cfg.Type {
	case config.CSV:
		return NewCSVSource(cfg.Name, cfg.Path), nil
	case config.HTTP:
		return NewHTTPSource(cfg, logger), nil
	case config.TInvest:
		return NewTInvestSource(ctx, cfg, logger)
	case config.Static:
		return NewStaticSource(cfg.Name, cfg.Rows), nil
	default:
		return nil, fmt.Errorf("unknown source type %q", cfg.Type)
	}
}

// FetchAll queries every source concurrently. A failing source is logged
// and reported as an empty table; it never fails the whole fetch.
func FetchAll(ctx context.Context, sources []Source, logger logger.Logger) map[string]model.RawTable {
	var (
		mu     sync.Mutex
		wg     sync.WaitGroup
		tables = make(map[string]model.RawTable, len(sources))
	)

	for _, src := range sources {
		wg.Add(1)
		go func() {
			defer wg.Done()

			table, err := src.Fetch(ctx)
			if err != nil {
				logger.Errorf("%s: can't fetch portfolio %s", err, src.Name())
				table = model.RawTable{}
			} else {
				logger.Debugf("fetched portfolio %s: %d rows", src.Name(), len(table.Rows))
			}

			mu.Lock()
			tables[src.Name()] = table
			mu.Unlock()
		}()
	}
	wg.Wait()

	return tables
}

// CloseAll releases sources that hold connections.
func CloseAll(sources []Source) error {
	var firstErr error
	for _, src := range sources {
		c, ok := src.(io.Closer)
		if !ok {
			continue
		}
		if err := c.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("%w: can't close source %s", err, src.Name())
		}
	}
	return firstErr
}

type StaticSource struct {
	name string
	rows []map[string]any
}

// NewStaticSource serves rows from config, e.g. a manually tracked demat
// account.
func NewStaticSource(name string, rows []map[string]any) *StaticSource {
	return &StaticSource{name: name, rows: rows}
}

func (s *StaticSource) Name() string {
	return s.name
}

func (s *StaticSource) Fetch(_ context.Context) (model.RawTable, error) {
	rows := make([]map[string]any, 0, len(s.rows))
	for _, r := range s.rows {
		row := make(map[string]any, len(r))
		for k, v := range r {
			row[k] = v
		}
		rows = append(rows, row)
	}
	return model.NewRawTable(rows), nil
}

// NewAll builds one source per config entry, closing the ones already
// built when a later one fails.
func NewAll(ctx context.Context, cfgs []config.SourceConfig, logger logger.Logger) ([]Source, error) {
	sources := make([]Source, 0, len(cfgs))
	for _, cfg := range cfgs {
		src, err := New(ctx, cfg, logger)
		if err != nil {
			if closeErr := CloseAll(sources); closeErr != nil {
				logger.Warnf("%s: can't close sources", closeErr)
			}
			return nil, fmt.Errorf("%w: can't create source %s", err, cfg.Name)
		}
		sources = append(sources, src)
	}
	return sources, nil
}

// renameColumns rewrites row keys in place using renames (from -> to).
func renameColumns(rows []map[string]any, renames map[string]string) []map[string]any {
	if len(renames) == 0 {
		return rows
	}
	for _, row := range rows {
		for from, to := range renames {
			v, ok := row[from]
			if !ok || from == to {
				continue
			}
			delete(row, from)
			row[to] = v
		}
	}
	return rows
}
