package config

import (
	"fmt"
	"os"

	"github.com/russianinvestments/invest-api-go-sdk/investgo"
)

const _investTokenEnv = "T_INVEST_API_TOKEN"

// LoadInvestConfig reads the T-Invest SDK config of a tinvest source. The
// token always comes from the environment; a source account id overrides
// the file.
func LoadInvestConfig(src SourceConfig) (investgo.Config, error) {
	cfg, err := investgo.LoadConfig(src.InvestConfigPath)
	if err != nil {
		return investgo.Config{}, fmt.Errorf("%w: can't load invest config", err)
	}

	cfg.Token = os.Getenv(_investTokenEnv)
	if cfg.Token == "" {
		return investgo.Config{}, fmt.Errorf("empty %s", _investTokenEnv)
	}

	if src.AccountID != "" {
		cfg.AccountId = src.AccountID
	}
	if cfg.AccountId == "" {
		return investgo.Config{}, fmt.Errorf("source %s: empty t-invest account id", src.Name)
	}

	return cfg, nil
}
