package model

import "time"

// PriceTick is the latest known quote for a tracked currency.
type PriceTick struct {
	Symbol     string    `json:"symbol"`
	Price      float64   `json:"price"`      // quote currency
	Change24h  float64   `json:"change24h"`  // percent
	Volume24h  float64   `json:"volume24h"`
	LastUpdate time.Time `json:"lastUpdate"`
}

// Candle represents a single candlestick bar. Series are ordered oldest to newest.
type Candle struct {
	OpenTime time.Time `json:"openTime"`
	Open     float64   `json:"open"`
	High     float64   `json:"high"`
	Low      float64   `json:"low"`
	Close    float64   `json:"close"`
	Volume   float64   `json:"volume"`
}

// Closes extracts the closing prices of a candle series.
func Closes(candles []Candle) []float64 {
	closes := make([]float64, len(candles))
	for i, c := range candles {
		closes[i] = c.Close
	}
	return closes
}

// FearGreed is a reading of the market sentiment index (0..100).
type FearGreed struct {
	Value          int       `json:"value"`
	Classification string    `json:"classification"`
	Timestamp      time.Time `json:"timestamp"`
}
