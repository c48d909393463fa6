package model

// Indicators holds the single-timeframe technical snapshot for one symbol.
type Indicators struct {
	RSI             float64 `json:"rsi"`
	SMA20           float64 `json:"sma20"`
	SMA50           float64 `json:"sma50"`
	BollingerUpper  float64 `json:"bollingerUpper"`
	BollingerMiddle float64 `json:"bollingerMiddle"`
	BollingerLower  float64 `json:"bollingerLower"`
	PriceChange24h  float64 `json:"priceChange24h"`
}

// Bands are Bollinger bands around a moving average.
type Bands struct {
	Upper  float64
	Middle float64
	Lower  float64
}

// Trend is the direction classification of a single timeframe.
type Trend string

const (
	TrendBullish Trend = "BULLISH"
	TrendBearish Trend = "BEARISH"
	TrendNeutral Trend = "NEUTRAL"
)

// TimeframeIndicators is the indicator snapshot attached to a TimeframeSignal.
type TimeframeIndicators struct {
	RSI               float64 `json:"rsi"`
	SMA20             float64 `json:"sma20"`
	SMA50             float64 `json:"sma50"`
	BollingerPosition float64 `json:"bollingerPosition"` // 0 = lower band, 1 = upper band
}

// TimeframeSignal is the trend result for one candle interval.
type TimeframeSignal struct {
	Timeframe  string              `json:"timeframe"`
	Trend      Trend               `json:"trend"`
	Strength   float64             `json:"strength"` // 0 ~ 100
	Indicators TimeframeIndicators `json:"indicators"`
}

// CompositeSignal folds several TimeframeSignals into one recommendation.
type CompositeSignal struct {
	Action     Action   `json:"action"`
	Confidence float64  `json:"confidence"` // 0 ~ 100
	Reasons    []string `json:"reasons"`
}

// Thresholds are the composite-score cut-offs for buy and sell eligibility.
type Thresholds struct {
	Buy  float64 `json:"buy"`
	Sell float64 `json:"sell"`
}
