package calculator

// SMA computes the simple moving average of the last period prices.
// With fewer points than period the last price is returned unchanged.
func SMA(prices []float64, period int) float64 {
	n := len(prices)
	if n == 0 {
		return 0
	}
	if period <= 0 || n < period {
		return prices[n-1]
	}
	sum := 0.0
	for i := n - period; i < n; i++ {
		sum += prices[i]
	}
	return sum / float64(period)
}

// EMA computes the exponential moving average seeded with the first price.
func EMA(prices []float64, period int) float64 {
	if len(prices) == 0 {
		return 0
	}
	multiplier := 2.0 / float64(period+1)
	ema := prices[0]
	for _, p := range prices[1:] {
		ema = (p-ema)*multiplier + ema
	}
	return ema
}
