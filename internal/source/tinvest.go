package source

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/STTM-NSU/portfolio-alerts/internal/config"
	"github.com/STTM-NSU/portfolio-alerts/internal/logger"
	"github.com/STTM-NSU/portfolio-alerts/internal/model"
	"github.com/russianinvestments/invest-api-go-sdk/investgo"
	investapi "github.com/russianinvestments/invest-api-go-sdk/proto"
	"go.uber.org/ratelimit"
)

// TInvestSource reads an account portfolio through the T-Invest API. Rows
// are keyed by ticker; "pl" carries the broker's expected yield.
type TInvestSource struct {
	name      string
	accountID string

	client    *investgo.Client
	opsClient *investgo.OperationsServiceClient
	resolver  *InstrumentResolver

	logger logger.Logger
}

func NewTInvestSource(ctx context.Context, cfg config.SourceConfig, logger logger.Logger) (*TInvestSource, error) {
	investCfg, err := config.LoadInvestConfig(cfg)
	if err != nil {
		return nil, err
	}

	client, err := investgo.NewClient(ctx, investCfg, logger)
	if err != nil {
		return nil, fmt.Errorf("%w: can't create invest client", err)
	}

	return &TInvestSource{
		name:      cfg.Name,
		accountID: investCfg.AccountId,
		client:    client,
		opsClient: client.NewOperationsServiceClient(),
		resolver:  NewInstrumentResolver(client, logger),
		logger:    logger,
	}, nil
}

func (s *TInvestSource) Name() string {
	return s.name
}

func (s *TInvestSource) Fetch(ctx context.Context) (model.RawTable, error) {
	if err := ctx.Err(); err != nil {
		return model.RawTable{}, err
	}

	resp, err := s.opsClient.GetPortfolio(s.accountID, investapi.PortfolioRequest_RUB)
	if err != nil {
		return model.RawTable{}, fmt.Errorf("%w: can't get portfolio", err)
	}

	return model.NewRawTable(positionRows(resp.GetPositions(), s.resolver.Ticker)), nil
}

func (s *TInvestSource) Close() error {
	return s.client.Stop()
}

// positionRows skips cash positions. tickerOf falls back to the FIGI.
func positionRows(positions []*investapi.PortfolioPosition, tickerOf func(figi string) string) []map[string]any {
	rows := make([]map[string]any, 0, len(positions))
	for _, p := range positions {
		if model.InstrumentType(p.GetInstrumentType()) == model.Currency {
			continue
		}

		rows = append(rows, map[string]any{
			"instrument": tickerOf(p.GetFigi()),
			"quantity":   p.GetQuantity().ToFloat(),
			"avg_price":  p.GetAveragePositionPrice().ToFloat(),
			"ltp":        p.GetCurrentPrice().ToFloat(),
			"pl":         p.GetExpectedYield().ToFloat(),
		})
	}
	return rows
}

// InstrumentResolver maps FIGIs to instruments and caches the answers for
// the life of the process.
type InstrumentResolver struct {
	instrClient *investgo.InstrumentsServiceClient
	rateLimiter ratelimit.Limiter
	logger      logger.Logger

	mu    sync.Mutex
	cache map[string]model.Instrument
}

func NewInstrumentResolver(client *investgo.Client, logger logger.Logger) *InstrumentResolver {
	return &InstrumentResolver{
		instrClient: client.NewInstrumentsServiceClient(),
		rateLimiter: ratelimit.New(200, ratelimit.Per(1*time.Minute)),
		logger:      logger,
		cache:       make(map[string]model.Instrument),
	}
}

func (r *InstrumentResolver) Instrument(figi string) (model.Instrument, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if v, ok := r.cache[figi]; ok {
		return v, nil
	}

	r.rateLimiter.Take()
	resp, err := r.instrClient.InstrumentByFigi(figi)
	if err != nil {
		return model.Instrument{}, fmt.Errorf("%w: can't get instrument by figi", err)
	}

	info := resp.GetInstrument()
	instr := model.Instrument{
		FIGI:           info.GetFigi(),
		Ticker:         info.GetTicker(),
		ClassCode:      info.GetClassCode(),
		UID:            info.GetUid(),
		ISIN:           info.GetIsin(),
		Currency:       info.GetCurrency(),
		InstrumentType: model.FromInvestAPIType(info.GetInstrumentKind()),
	}
	r.cache[figi] = instr

	return instr, nil
}

func (r *InstrumentResolver) Ticker(figi string) string {
	instr, err := r.Instrument(figi)
	if err != nil || instr.Ticker == "" {
		if err != nil {
			r.logger.Warnf("%s: can't resolve figi=%s", err, figi)
		}
		return figi
	}
	return instr.Ticker
}
