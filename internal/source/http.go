package source

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/STTM-NSU/portfolio-alerts/internal/config"
	"github.com/STTM-NSU/portfolio-alerts/internal/logger"
	"github.com/STTM-NSU/portfolio-alerts/internal/model"
	"github.com/bytedance/sonic"
	"go.uber.org/ratelimit"
	"resty.dev/v3"
)

// HTTPSource pulls holdings from a broker REST endpoint that answers with a
// JSON array of rows or an envelope such as {"data": [...]} or
// {"data": {"holdings": [...]}}. Header values may reference env vars as
// ${NAME}.
type HTTPSource struct {
	name    string
	url     string
	columns map[string]string
	c       *resty.Client

	rateLimiter ratelimit.Limiter
	logger      logger.Logger
}

func NewHTTPSource(cfg config.SourceConfig, logger logger.Logger) *HTTPSource {
	client := resty.New().
		SetLogger(logger).
		SetTimeout(cfg.Timeout).
		SetHeader("Accept", "application/json")

	for k, v := range cfg.Headers {
		client.SetHeader(k, os.ExpandEnv(v))
	}

	if cfg.TokenEnv != "" {
		if token := os.Getenv(cfg.TokenEnv); token != "" {
			client.SetAuthToken(token)
		} else {
			logger.Warnf("source %s: %s is empty, requesting without token", cfg.Name, cfg.TokenEnv)
		}
	}

	return &HTTPSource{
		name:        cfg.Name,
		url:         cfg.URL,
		columns:     cfg.Columns,
		c:           client,
		rateLimiter: ratelimit.New(cfg.RequestsPerMinute, ratelimit.Per(1*time.Minute)),
		logger:      logger,
	}
}

func (s *HTTPSource) Name() string {
	return s.name
}

type holdingsPayload struct {
	rows []map[string]any
}

func (p *holdingsPayload) UnmarshalJSON(data []byte) error {
	var v any
	if err := sonic.Unmarshal(data, &v); err != nil {
		return err
	}
	p.rows = extractRows(v)
	return nil
}

type errorPayload struct {
	Message string `json:"message"`
}

func extractRows(v any) []map[string]any {
	switch t := v.(type) {
	case []any:
		rows := make([]map[string]any, 0, len(t))
		for _, item := range t {
			if row, ok := item.(map[string]any); ok {
				rows = append(rows, row)
			}
		}
		return rows
	case map[string]any:
		for _, key := range []string{"data", "holdings"} {
			if inner, ok := t[key]; ok {
				return extractRows(inner)
			}
		}
	}
	return nil
}

func (s *HTTPSource) Fetch(ctx context.Context) (model.RawTable, error) {
	s.rateLimiter.Take()

	var payload holdingsPayload
	resp, err := s.c.R().
		SetContext(ctx).
		SetResult(&payload).
		SetError(&errorPayload{}).
		Get(s.url)
	if err != nil {
		return model.RawTable{}, fmt.Errorf("%w: can't send holdings request", err)
	}

	s.logger.Debugf("got response %s status: %s, %s", s.url, resp.Status(), resp.Duration())

	if resp.IsError() {
		if e, ok := resp.Error().(*errorPayload); ok && e.Message != "" {
			return model.RawTable{}, fmt.Errorf("%s: holdings request error", e.Message)
		}
		return model.RawTable{}, fmt.Errorf("holdings request error: %s", resp.Status())
	}

	return model.NewRawTable(renameColumns(payload.rows, s.columns)), nil
}

func (s *HTTPSource) Close() error {
	return s.c.Close()
}
