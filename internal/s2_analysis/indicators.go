package s2_analysis

import (
	"math"

	"github.com/guregu/null/v6"

	"github.com/wonny/marketpipe/internal/contracts"
	"github.com/wonny/marketpipe/internal/risk"
)

// Minimum history lengths
const (
	MinHistory = 20 // below this nothing is computed
	rsiPeriod  = 14
	macdSlow   = 26
	macdFast   = 12
	macdSignal = 9
	bbPeriod   = 20
	bbWidth    = 2.0
)

// ComputeIndicators builds the indicator bundle for a close series.
// Shorter series than MinHistory yield an empty bundle.
func ComputeIndicators(closes []float64) contracts.Indicators {
	var ind contracts.Indicators
	n := len(closes)
	if n < MinHistory {
		return ind
	}

	if n >= rsiPeriod {
		ind.RSI = RSI(closes, rsiPeriod)
	}
	if n >= macdSlow {
		ind.MACD = MACD(closes)
	}
	if n >= bbPeriod {
		ind.BollingerBands = Bollinger(closes, bbPeriod, bbWidth)
	}

	ind.MovingAverages = &contracts.MovingAverages{
		MA5:  lastSMA(closes, 5),
		MA20: lastSMA(closes, 20),
		MA50: lastSMA(closes, 50),
	}
	ind.Momentum = &contracts.Momentum{
		PriceChange1D:  change(closes, 1),
		PriceChange5D:  change(closes, 5),
		PriceChange20D: change(closes, 20),
	}

	return ind
}

// RSI returns a value per row. The first delta counts as zero, so the first
// filled position is period-1. Unfilled positions and 0/0 windows are 0; a
// window without losses is 100.
func RSI(closes []float64, period int) []float64 {
	n := len(closes)
	out := make([]float64, n)
	if period <= 0 {
		return out
	}

	gains := make([]float64, n)
	losses := make([]float64, n)
	for i := 1; i < n; i++ {
		d := closes[i] - closes[i-1]
		if d > 0 {
			gains[i] = d
		} else if d < 0 {
			losses[i] = -d
		}
	}

	for i := period - 1; i < n; i++ {
		avgGain := risk.Mean(gains[i-period+1 : i+1])
		avgLoss := risk.Mean(losses[i-period+1 : i+1])

		switch {
		case avgLoss == 0 && avgGain == 0:
			out[i] = 0
		case avgLoss == 0:
			out[i] = 100
		default:
			rs := avgGain / avgLoss
			out[i] = 100 - 100/(1+rs)
		}
	}
	return out
}

// EMA is the bias-adjusted exponential mean with α = 2/(span+1): every output
// is the weighted mean of all prior values with weights (1-α)^age.
func EMA(values []float64, span int) []float64 {
	out := make([]float64, len(values))
	decay := 1 - 2/(float64(span)+1)

	var num, den float64
	for i, v := range values {
		num = v + decay*num
		den = 1 + decay*den
		out[i] = num / den
	}
	return out
}

// MACD computes EMA(12) - EMA(26), its 9-period EMA and the histogram
func MACD(closes []float64) *contracts.MACD {
	fast := EMA(closes, macdFast)
	slow := EMA(closes, macdSlow)

	line := make([]float64, len(closes))
	for i := range closes {
		line[i] = fast[i] - slow[i]
	}
	signal := EMA(line, macdSignal)

	hist := make([]float64, len(closes))
	for i := range closes {
		hist[i] = line[i] - signal[i]
	}

	return &contracts.MACD{MACD: line, Signal: signal, Histogram: hist}
}

// Bollinger computes SMA ± width × sample std over period. Unfilled positions are 0.
func Bollinger(closes []float64, period int, width float64) *contracts.BollingerBands {
	n := len(closes)
	bb := &contracts.BollingerBands{
		Upper:  make([]float64, n),
		Middle: make([]float64, n),
		Lower:  make([]float64, n),
	}

	for i := period - 1; i < n; i++ {
		window := closes[i-period+1 : i+1]
		mid := risk.Mean(window)
		std := risk.StdDev(window)
		bb.Middle[i] = mid
		bb.Upper[i] = mid + width*std
		bb.Lower[i] = mid - width*std
	}
	return bb
}

// lastSMA is the mean of the last window closes, null when history is too short
func lastSMA(closes []float64, window int) null.Float {
	if len(closes) < window {
		return null.Float{}
	}
	return null.FloatFrom(risk.Mean(closes[len(closes)-window:]))
}

// change is close[-1] / close[-1-offset] - 1, 0 when history is too short
func change(closes []float64, offset int) float64 {
	n := len(closes)
	if n < offset+1 {
		return 0
	}
	base := closes[n-1-offset]
	if base == 0 {
		return 0
	}
	v := closes[n-1]/base - 1
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
