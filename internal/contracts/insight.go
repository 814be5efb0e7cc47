package contracts

import "github.com/guregu/null/v6"

// Action is a per-ticker recommendation
type Action string

const (
	ActionBuy  Action = "BUY"
	ActionSell Action = "SELL"
	ActionHold Action = "HOLD"
)

// Sentiment labels used by the technical outlook and market timing
type Sentiment string

const (
	Bullish Sentiment = "BULLISH"
	Bearish Sentiment = "BEARISH"
	Neutral Sentiment = "NEUTRAL"
)

// Recommendation is the insight stage's call for one ticker
type Recommendation struct {
	Action      Action    `json:"action"`
	Confidence  float64   `json:"confidence"`
	Reasoning   string    `json:"reasoning"`
	TimeHorizon string    `json:"time_horizon"`
	RiskLevel   RiskLevel `json:"risk_level"`
}

// PriceTargets are naive support/resistance bands around the moving averages
type PriceTargets struct {
	Support20D    null.Float `json:"support_20d"`
	Resistance20D null.Float `json:"resistance_20d"`
	Support50D    null.Float `json:"support_50d"`
	Resistance50D null.Float `json:"resistance_50d"`
}

// RiskAssessment explains a ticker's risk level
type RiskAssessment struct {
	Level          RiskLevel `json:"level"`
	Factors        []string  `json:"factors"`
	Volatility     float64   `json:"volatility"`
	MaxDrawdown    float64   `json:"max_drawdown"`
	Recommendation string    `json:"recommendation"`
}

// TechnicalOutlook summarizes trend, momentum and signal balance
type TechnicalOutlook struct {
	Trend            Sentiment `json:"trend"`
	Momentum         Sentiment `json:"momentum"`
	OverallSentiment Sentiment `json:"overall_sentiment"`
	KeyIndicators    []string  `json:"key_indicators"`
}

// TickerInsight is the full insight bundle for one ticker
type TickerInsight struct {
	Ticker           string           `json:"ticker"`
	Recommendation   Recommendation   `json:"recommendation"`
	KeyInsights      []string         `json:"key_insights"`
	PriceTargets     PriceTargets     `json:"price_targets"`
	RiskAssessment   RiskAssessment   `json:"risk_assessment"`
	TechnicalOutlook TechnicalOutlook `json:"technical_outlook"`
	ActionableItems  []string         `json:"actionable_items"`
}

// Strategy labels
const (
	StrategyAggressiveGrowth    = "AGGRESSIVE_GROWTH"
	StrategyConservativeDefense = "CONSERVATIVE_DEFENSE"
	StrategyBalanced            = "BALANCED"
)

// PortfolioSummary counts recommendations across tickers
type PortfolioSummary struct {
	TotalTickers        int `json:"total_tickers"`
	BuyRecommendations  int `json:"buy_recommendations"`
	SellRecommendations int `json:"sell_recommendations"`
	HoldRecommendations int `json:"hold_recommendations"`
}

// PortfolioStrategy is the strategy label derived from relative counts
type PortfolioStrategy struct {
	Strategy             string `json:"strategy"`
	Description          string `json:"description"`
	RiskAdjustment       string `json:"risk_adjustment"`
	RebalancingFrequency string `json:"rebalancing_frequency"`
}

// Diversification reports how concentrated the BUY calls are
type Diversification struct {
	ConcentrationRisk          RiskLevel      `json:"concentration_risk"`
	RecommendationDistribution map[Action]int `json:"recommendation_distribution"`
	Suggestion                 string         `json:"suggestion"`
}

// MarketTiming derives a sentiment from the share of bullish outlooks
type MarketTiming struct {
	MarketSentimentScore float64   `json:"market_sentiment_score"`
	Sentiment            Sentiment `json:"sentiment"`
	TimingOpportunity    string    `json:"timing_opportunity"`
	Reasoning            string    `json:"reasoning"`
}

// PortfolioInsights aggregates more than one ticker's insights
type PortfolioInsights struct {
	Summary         PortfolioSummary  `json:"portfolio_summary"`
	PortfolioRisk   RiskLevel         `json:"portfolio_risk"`
	Strategy        PortfolioStrategy `json:"portfolio_strategy"`
	Diversification Diversification   `json:"diversification_insights"`
	MarketTiming    MarketTiming      `json:"market_timing"`
}

// ExecutiveSummary is the head of the final report
type ExecutiveSummary struct {
	TotalAnalyzed     int      `json:"total_analyzed"`
	PrimaryAction     Action   `json:"primary_action"`
	OverallConfidence string   `json:"overall_confidence"`
	KeyTakeaway       string   `json:"key_takeaway"`
	NextSteps         []string `json:"next_steps"`
}

// RiskSummary aggregates ticker risk assessments
type RiskSummary struct {
	PortfolioRisk     RiskLevel         `json:"portfolio_risk"`
	RiskDistribution  map[RiskLevel]int `json:"risk_distribution"`
	AverageVolatility float64           `json:"average_volatility"`
}

// Recommendation kinds in the actionable list
const (
	RecommendationPortfolio = "PORTFOLIO"
	RecommendationTicker    = "TICKER"
)

// ActionableRecommendation is one prioritized item of the final report
type ActionableRecommendation struct {
	Type      string `json:"type"`
	Ticker    string `json:"ticker,omitempty"`
	Action    string `json:"action"`
	Priority  string `json:"priority"`
	Timeline  string `json:"timeline"`
	Reasoning string `json:"reasoning,omitempty"`
}

// Methodology documents how the report was produced
type Methodology struct {
	PipelineStages     []string `json:"pipeline_stages"`
	IndicatorsUsed     []string `json:"indicators_used"`
	AnalysisConfidence float64  `json:"analysis_confidence"`
}

// FinalReport is the terminal artifact of a run
type FinalReport struct {
	ExecutiveSummary          ExecutiveSummary           `json:"executive_summary"`
	DetailedAnalysis          map[string]*TickerInsight  `json:"detailed_analysis"`
	PortfolioRecommendations  *PortfolioInsights         `json:"portfolio_recommendations"`
	RiskSummary               RiskSummary                `json:"risk_summary"`
	ActionableRecommendations []ActionableRecommendation `json:"actionable_recommendations"`
	Methodology               Methodology                `json:"methodology"`
	Disclaimer                string                     `json:"disclaimer"`
}
