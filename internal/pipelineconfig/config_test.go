package pipelineconfig

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/marketpipe/internal/contracts"
)

func TestParseDefaults(t *testing.T) {
	cfg, err := Parse([]byte("tickers: [aapl, msft]\n"))
	require.NoError(t, err)

	assert.Equal(t, []string{"AAPL", "MSFT"}, cfg.Tickers)
	assert.Equal(t, "1y", cfg.Period)
	assert.Equal(t, []string{"yahoo_finance"}, cfg.DataSources)
	assert.Equal(t, contracts.RiskOrderingSeverity, cfg.PortfolioRiskOrdering)
	assert.False(t, cfg.StopOnFailure)
}

func TestParseFullFile(t *testing.T) {
	yml := `
tickers: ["005930", "BRK-B", "^GSPC"]
period: 6mo
data_sources: [naver, alpha_vantage]
api_key: demo
portfolio_risk_ordering: lexical
stop_on_failure: true
`
	cfg, err := Parse([]byte(yml))
	require.NoError(t, err)

	assert.Equal(t, "6mo", cfg.Period)
	assert.Equal(t, []string{"naver", "alpha_vantage"}, cfg.DataSources)
	assert.Equal(t, "demo", cfg.APIKey)
	assert.Equal(t, contracts.RiskOrderingLexical, cfg.PortfolioRiskOrdering)
	assert.True(t, cfg.StopOnFailure)
}

func TestParseRejects(t *testing.T) {
	tests := []struct {
		name  string
		yml   string
		field string
	}{
		{"no tickers", "period: 1y\n", "tickers"},
		{"bad period", "tickers: [AAPL]\nperiod: 3w\n", "period"},
		{"bad ticker", "tickers: [\"AA PL\"]\n", "tickers[0]"},
		{"bad ordering", "tickers: [AAPL]\nportfolio_risk_ordering: alphabetical\n", "portfolio_risk_ordering"},
		{"empty source", "tickers: [AAPL]\ndata_sources: [\"\"]\n", "data_sources[0]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yml))
			require.Error(t, err)

			var verr ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Field)
		})
	}
}

func TestParseUnknownField(t *testing.T) {
	_, err := Parse([]byte("tickers: [AAPL]\nticker: MSFT\n"))
	assert.Error(t, err)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pipeline.yaml")
	require.NoError(t, os.WriteFile(path, []byte("tickers: [AAPL]\nperiod: 1mo\n"), 0o644))

	cfg, raw, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "1mo", cfg.Period)
	assert.Contains(t, string(raw), "tickers")

	_, _, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestApply(t *testing.T) {
	cfg, err := Parse([]byte("tickers: [AAPL]\n"))
	require.NoError(t, err)

	stop := true
	require.NoError(t, Apply(cfg, Overrides{Tickers: []string{"nvda"}, Period: "5d", StopOnFailure: &stop}))
	assert.Equal(t, []string{"NVDA"}, cfg.Tickers)
	assert.Equal(t, "5d", cfg.Period)
	assert.True(t, cfg.StopOnFailure)

	assert.Error(t, Apply(cfg, Overrides{Period: "forever"}))
}

func TestHash(t *testing.T) {
	a, err := Parse([]byte("tickers: [AAPL]\napi_key: one\n"))
	require.NoError(t, err)
	b, err := Parse([]byte("tickers: [AAPL]\napi_key: two\n"))
	require.NoError(t, err)

	ha, err := Hash(a)
	require.NoError(t, err)
	hb, err := Hash(b)
	require.NoError(t, err)

	assert.Len(t, ha, 64)
	assert.Equal(t, ha, hb, "api key must not change the hash")
}

func TestReadSkipsValidation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "partial.yaml")
	require.NoError(t, os.WriteFile(path, []byte("period: 6mo\n"), 0o600))

	cfg, _, err := Read(path)
	require.NoError(t, err)
	assert.Empty(t, cfg.Tickers)
	assert.Equal(t, "6mo", cfg.Period)

	require.NoError(t, Apply(cfg, Overrides{Tickers: []string{"nvda"}}))
	assert.Equal(t, []string{"NVDA"}, cfg.Tickers)
	assert.Equal(t, []string{"yahoo_finance"}, cfg.DataSources)

	_, _, err = Load(path)
	assert.Error(t, err)
}
