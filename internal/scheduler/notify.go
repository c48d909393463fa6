package scheduler

import (
	"context"
	"errors"
	"math"

	"CryptoAdvisor/internal/model"
	"CryptoAdvisor/internal/notifier"
	"CryptoAdvisor/internal/recorder"
)

// notify applies the notification policy to one symbol's signals.
func (s *Scheduler) notify(ctx context.Context, tick model.PriceTick, holding *model.Holding, signals []model.TradeSignal) {
	settings := s.Portfolio.Settings()
	if !settings.Enabled {
		return
	}
	now := s.now()

	var profit float64
	if holding != nil {
		profit = holding.ProfitPercent(tick.Price)
	}

	for i := range signals {
		sig := signals[i]
		switch sig.Action {
		case model.ActionBuy:
			if settings.BuySignals && sig.Score > s.opts.BuyMinScore {
				s.fire(ctx, model.NotifyBuy, nil, notifier.BuyAlert(&sig, now), &sig)
			}
		case model.ActionSell:
			if settings.SellSignals && holding != nil {
				s.fire(ctx, model.NotifySell, nil, notifier.SellAlert(&sig, profit, now), &sig)
			}
		}
	}

	if holding == nil || !settings.PriceAlerts {
		return
	}
	if target, ok := highestReached(settings.ProfitTargets, profit); ok {
		level := profit
		s.fire(ctx, model.NotifyProfit, &level, notifier.ProfitTargetAlert(tick.Symbol, profit, target, now), nil)
	}
	if limit, ok := highestReached(settings.LossLimits, -profit); ok {
		level := math.Abs(profit)
		s.fire(ctx, model.NotifyLoss, &level, notifier.LossLimitAlert(tick.Symbol, profit, limit, now), nil)
	}
}

// fire sends alert if the cooldown gate allows it, then records it.
func (s *Scheduler) fire(ctx context.Context, typ model.NotificationType, level *float64, alert notifier.Alert, sig *model.TradeSignal) {
	logger := s.logger.With().Str("symbol", alert.Symbol).Str("type", string(typ)).Logger()

	ok, err := s.Gate.CanSend(ctx, alert.Symbol, typ, level)
	if err != nil {
		logger.Error().Err(err).Msg("cooldown check failed")
		return
	}
	if !ok {
		logger.Debug().Msg("cooldown active, notification suppressed")
		return
	}

	results := s.Dispatcher.Dispatch(ctx, alert)
	if err := s.Gate.Record(ctx, alert.Symbol, typ, level); err != nil {
		logger.Error().Err(err).Msg("record cooldown")
	}
	if sig != nil {
		s.Portfolio.AddAlert(*sig)
	}

	evt := &recorder.NotificationEvent{Symbol: alert.Symbol, Type: typ, Level: level, Title: alert.Title}
	for _, r := range results {
		switch {
		case r.Err == nil:
			evt.Delivered = append(evt.Delivered, r.Channel)
		case !errors.Is(r.Err, notifier.ErrChannelDisabled):
			evt.Failed = append(evt.Failed, r.Channel)
		}
	}
	if err := s.Recorder.RecordNotification(evt); err != nil {
		logger.Error().Err(err).Msg("record notification")
	}
	logger.Info().Strs("delivered", evt.Delivered).Strs("failed", evt.Failed).Msg("notification sent")
}

// highestReached returns the largest threshold not above value.
func highestReached(thresholds []float64, value float64) (float64, bool) {
	best, found := 0.0, false
	for _, t := range thresholds {
		if value >= t && (!found || t > best) {
			best, found = t, true
		}
	}
	return best, found
}
