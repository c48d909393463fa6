// Package notifier formats alerts and fans them out to delivery channels.
package notifier

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// ErrChannelDisabled is returned by channels that are switched off.
var ErrChannelDisabled = errors.New("channel disabled")

// Channel is one independent delivery path.
type Channel interface {
	Name() string
	Send(ctx context.Context, a Alert) error
}

// Result is the outcome of one channel for one alert.
type Result struct {
	Channel string
	Err     error
}

// Dispatcher sends every alert through all channels.
type Dispatcher struct {
	channels []Channel
	logger   zerolog.Logger
}

// NewDispatcher creates a Dispatcher; nil channels are ignored.
func NewDispatcher(channels ...Channel) *Dispatcher {
	d := &Dispatcher{logger: log.With().Str("component", "dispatcher").Logger()}
	for _, c := range channels {
		if c != nil {
			d.channels = append(d.channels, c)
		}
	}
	return d
}

// Dispatch attempts every channel. A failing channel is logged and never
// prevents the others from running.
func (d *Dispatcher) Dispatch(ctx context.Context, a Alert) []Result {
	results := make([]Result, 0, len(d.channels))
	for _, c := range d.channels {
		err := c.Send(ctx, a)
		switch {
		case errors.Is(err, ErrChannelDisabled):
			d.logger.Debug().Str("channel", c.Name()).Msg("channel disabled, skipped")
		case err != nil:
			d.logger.Error().Err(err).Str("channel", c.Name()).Str("symbol", a.Symbol).Msg("delivery failed")
		default:
			d.logger.Info().Str("channel", c.Name()).Str("symbol", a.Symbol).Str("kind", string(a.Kind)).Msg("alert delivered")
		}
		results = append(results, Result{Channel: c.Name(), Err: err})
	}
	return results
}
