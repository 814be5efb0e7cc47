package contracts

// Portfolio risk orderings
const (
	RiskOrderingSeverity = "severity"
	RiskOrderingLexical  = "lexical"
)

// PipelineConfig is the input of a pipeline run.
// It is copied into the context at start and never mutated afterwards.
type PipelineConfig struct {
	Tickers     []string `json:"tickers" yaml:"tickers" validate:"required,min=1,dive,ticker"`
	Period      string   `json:"period" yaml:"period" default:"1y" validate:"oneof=1d 5d 1mo 3mo 6mo 1y 2y 5y 10y ytd max"`
	DataSources []string `json:"data_sources" yaml:"data_sources" default:"[\"yahoo_finance\"]" validate:"required,min=1,dive,required"`
	APIKey      string   `json:"-" yaml:"api_key"`

	// PortfolioRiskOrdering selects how per-ticker risk levels are aggregated
	PortfolioRiskOrdering string `json:"portfolio_risk_ordering" yaml:"portfolio_risk_ordering" default:"severity" validate:"oneof=severity lexical"`

	// StopOnFailure skips the remaining stages after the first failed one
	StopOnFailure bool `json:"stop_on_failure" yaml:"stop_on_failure"`
}

// Clone returns a deep copy so callers cannot mutate a running config
func (c PipelineConfig) Clone() PipelineConfig {
	out := c
	out.Tickers = append([]string(nil), c.Tickers...)
	out.DataSources = append([]string(nil), c.DataSources...)
	return out
}

// HasAPIKey reports whether an API key was supplied
func (c PipelineConfig) HasAPIKey() bool {
	return c.APIKey != ""
}
