package contracts

import (
	"time"

	"github.com/guregu/null/v6"
)

// SignalType is the direction of a trading signal
type SignalType string

const (
	SignalBuy  SignalType = "BUY"
	SignalSell SignalType = "SELL"
)

// Strength grades a signal
type Strength string

const (
	StrengthStrong   Strength = "STRONG"
	StrengthModerate Strength = "MODERATE"
	StrengthWeak     Strength = "WEAK"
)

// Rank orders strengths: STRONG=3 > MODERATE=2 > WEAK=1, unknown 0
func (s Strength) Rank() int {
	switch s {
	case StrengthStrong:
		return 3
	case StrengthModerate:
		return 2
	case StrengthWeak:
		return 1
	default:
		return 0
	}
}

// Indicator names as they appear in signals and reports
const (
	IndicatorRSI            = "rsi"
	IndicatorMACD           = "macd"
	IndicatorBollingerBands = "bollinger_bands"
	IndicatorMovingAverages = "moving_averages"
	IndicatorMomentum       = "momentum"
)

// Signal is one indicator's trading call
type Signal struct {
	Type      SignalType `json:"type"`
	Indicator string     `json:"indicator"`
	Reason    string     `json:"reason"`
	Strength  Strength   `json:"strength"`
}

// MACD holds the MACD line, its signal line and the histogram
type MACD struct {
	MACD      []float64 `json:"macd"`
	Signal    []float64 `json:"signal"`
	Histogram []float64 `json:"histogram"`
}

// BollingerBands holds the band series. Unfilled window positions are 0.
type BollingerBands struct {
	Upper  []float64 `json:"upper"`
	Middle []float64 `json:"middle"`
	Lower  []float64 `json:"lower"`
}

// MovingAverages is a last-value snapshot; each stays null until enough history exists
type MovingAverages struct {
	MA5  null.Float `json:"ma_5"`
	MA20 null.Float `json:"ma_20"`
	MA50 null.Float `json:"ma_50"`
}

// Available counts the averages that have a value
func (m MovingAverages) Available() int {
	n := 0
	for _, v := range []null.Float{m.MA5, m.MA20, m.MA50} {
		if v.Valid {
			n++
		}
	}
	return n
}

// Momentum holds fractional returns over fixed offsets (0 when history is too short)
type Momentum struct {
	PriceChange1D  float64 `json:"price_change_1d"`
	PriceChange5D  float64 `json:"price_change_5d"`
	PriceChange20D float64 `json:"price_change_20d"`
}

// Indicators is the per-ticker bundle. A nil member was not computed.
type Indicators struct {
	RSI            []float64       `json:"rsi,omitempty"`
	MACD           *MACD           `json:"macd,omitempty"`
	BollingerBands *BollingerBands `json:"bollinger_bands,omitempty"`
	MovingAverages *MovingAverages `json:"moving_averages,omitempty"`
	Momentum       *Momentum       `json:"momentum,omitempty"`
}

// Names lists the computed indicators in canonical order
func (ind *Indicators) Names() []string {
	if ind == nil {
		return nil
	}
	var names []string
	if len(ind.RSI) > 0 {
		names = append(names, IndicatorRSI)
	}
	if ind.MACD != nil {
		names = append(names, IndicatorMACD)
	}
	if ind.BollingerBands != nil {
		names = append(names, IndicatorBollingerBands)
	}
	if ind.MovingAverages != nil {
		names = append(names, IndicatorMovingAverages)
	}
	if ind.Momentum != nil {
		names = append(names, IndicatorMomentum)
	}
	return names
}

// Empty reports whether no indicator was computed
func (ind *Indicators) Empty() bool {
	return len(ind.Names()) == 0
}

// LastRSI returns the most recent RSI value
func (ind *Indicators) LastRSI() (float64, bool) {
	if ind == nil || len(ind.RSI) == 0 {
		return 0, false
	}
	return ind.RSI[len(ind.RSI)-1], true
}

// Volatility of the close-to-close return series
type Volatility struct {
	Daily      float64 `json:"daily"`
	Annualized float64 `json:"annualized"`
}

// Drawdown is the deepest peak-to-trough decline and the date of its trough
type Drawdown struct {
	Value float64   `json:"value"`
	Date  time.Time `json:"date"`
}

// RiskMetrics computed from the close-price return series
type RiskMetrics struct {
	Volatility  Volatility `json:"volatility"`
	MaxDrawdown Drawdown   `json:"max_drawdown"`
	VaR95       float64    `json:"var_95"`
	SharpeRatio float64    `json:"sharpe_ratio"`
}

// RiskLevel classifies drawdown severity
type RiskLevel string

const (
	RiskHigh    RiskLevel = "HIGH"
	RiskMedium  RiskLevel = "MEDIUM"
	RiskLow     RiskLevel = "LOW"
	RiskUnknown RiskLevel = "UNKNOWN"
)

// Severity orders levels HIGH=3 > MEDIUM=2 > LOW=1 > UNKNOWN=0
func (r RiskLevel) Severity() int {
	switch r {
	case RiskHigh:
		return 3
	case RiskMedium:
		return 2
	case RiskLow:
		return 1
	default:
		return 0
	}
}

// ClassifyDrawdown maps a max drawdown to a level: HIGH below -20%, MEDIUM below -10%
func ClassifyDrawdown(maxDrawdown float64) RiskLevel {
	switch {
	case maxDrawdown < -0.20:
		return RiskHigh
	case maxDrawdown < -0.10:
		return RiskMedium
	default:
		return RiskLow
	}
}

// AnalysisSummary condenses signals and risk into counts, a level and a confidence
type AnalysisSummary struct {
	TotalSignals       int       `json:"total_signals"`
	BuySignals         int       `json:"buy_signals"`
	SellSignals        int       `json:"sell_signals"`
	StrongestSignal    *Signal   `json:"strongest_signal"`
	RiskLevel          RiskLevel `json:"risk_level"`
	AnalysisConfidence float64   `json:"analysis_confidence"`
}

// TickerAnalysis is the analysis output for one ticker
type TickerAnalysis struct {
	Indicators  Indicators      `json:"indicators"`
	Signals     []Signal        `json:"signals"`
	RiskMetrics *RiskMetrics    `json:"risk_metrics"`
	Summary     AnalysisSummary `json:"analysis_summary"`
}

// CountSignals returns the number of BUY and SELL signals
func CountSignals(signals []Signal) (buys, sells int) {
	for _, s := range signals {
		switch s.Type {
		case SignalBuy:
			buys++
		case SignalSell:
			sells++
		}
	}
	return buys, sells
}
