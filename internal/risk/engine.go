package risk

import (
	"math"
	"time"

	"github.com/wonny/marketpipe/internal/contracts"
)

const (
	// TradingDays annualizes daily figures
	TradingDays = 252

	// AnnualRiskFree is the risk-free rate used for Sharpe
	AnnualRiskFree = 0.02
)

// Engine 리스크 엔진 (순수 계산기)
// ⭐ SSOT: 수익률 기반 리스크 지표는 여기서만 계산
type Engine struct {
	tradingDays float64
	dailyRF     float64
}

// NewEngine creates an engine with the standard annualization and risk-free rate
func NewEngine() *Engine {
	return &Engine{
		tradingDays: TradingDays,
		dailyRF:     AnnualRiskFree / TradingDays,
	}
}

// Compute derives risk metrics from a close-price series and its dates.
// Returns nil when there is no return to measure.
func (e *Engine) Compute(dates []time.Time, closes []float64) *contracts.RiskMetrics {
	returns := PctChange(closes)
	if len(returns) == 0 {
		return nil
	}

	daily := StdDev(returns)
	value, idx := MaxDrawdown(returns)

	var troughDate time.Time
	// returns[i] belongs to the row at i+1
	if idx+1 < len(dates) {
		troughDate = dates[idx+1]
	}

	return &contracts.RiskMetrics{
		Volatility: contracts.Volatility{
			Daily:      daily,
			Annualized: daily * math.Sqrt(e.tradingDays),
		},
		MaxDrawdown: contracts.Drawdown{Value: value, Date: troughDate},
		VaR95:       HistoricalVaR(returns, 0.95),
		SharpeRatio: e.Sharpe(returns),
	}
}

// MaxDrawdown is the minimum of (cum - running_max) / running_max over the
// cumulative product of 1+r, with the index of that minimum (first on ties)
func MaxDrawdown(returns []float64) (float64, int) {
	if len(returns) == 0 {
		return 0, -1
	}

	cum := 1.0
	peak := math.Inf(-1)
	worst := math.Inf(1)
	worstIdx := 0

	for i, r := range returns {
		cum *= 1 + r
		if cum > peak {
			peak = cum
		}
		dd := (cum - peak) / peak
		if dd < worst {
			worst = dd
			worstIdx = i
		}
	}

	return worst, worstIdx
}

// HistoricalVaR returns the (1-confidence) quantile of returns.
// Losses stay negative, e.g. -0.03 means a 3% daily loss at the tail.
func HistoricalVaR(returns []float64, confidence float64) float64 {
	if len(returns) == 0 {
		return 0
	}
	return Quantile(returns, 1-confidence)
}

// Sharpe is mean(r - rf_daily) / std(r) × √252, 0 with no returns or zero variance
func (e *Engine) Sharpe(returns []float64) float64 {
	if len(returns) == 0 {
		return 0
	}
	std := StdDev(returns)
	if std == 0 || math.IsNaN(std) {
		return 0
	}
	return (Mean(returns) - e.dailyRF) / std * math.Sqrt(e.tradingDays)
}
