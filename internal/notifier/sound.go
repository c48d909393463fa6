package notifier

import (
	"context"
	"fmt"
	"io"
	"time"
)

// Chime is the audible cue: terminal bells in a pattern per alert kind.
type Chime struct {
	out     io.Writer
	enabled func() bool
	gap     time.Duration
}

// NewChime writes bells to out while enabled reports true.
func NewChime(out io.Writer, enabled func() bool) *Chime {
	return &Chime{out: out, enabled: enabled, gap: 150 * time.Millisecond}
}

func (c *Chime) Name() string { return "sound" }

func (c *Chime) Send(ctx context.Context, a Alert) error {
	if c.enabled != nil && !c.enabled() {
		return ErrChannelDisabled
	}
	for i := 0; i < bellCount(a.Kind); i++ {
		if i > 0 && c.gap > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(c.gap):
			}
		}
		if _, err := io.WriteString(c.out, "\a"); err != nil {
			return fmt.Errorf("ring bell: %w", err)
		}
	}
	return nil
}

func bellCount(k Kind) int {
	switch k {
	case KindBuy, KindSell:
		return 3
	default:
		return 2
	}
}
