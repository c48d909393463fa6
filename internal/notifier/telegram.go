package notifier

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// botAPI is the subset of *tgbotapi.BotAPI the channel uses.
type botAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// CommandHandler answers a chat command; an empty reply sends nothing.
type CommandHandler func(command string) string

// TelegramChannel pushes alerts to a phone through a Telegram bot.
type TelegramChannel struct {
	bot    botAPI
	chatID int64
	logger zerolog.Logger
}

// NewTelegramChannel connects to the Bot API with token.
func NewTelegramChannel(token string, chatID int64) (*TelegramChannel, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram bot: %w", err)
	}
	return newTelegramChannel(bot, chatID), nil
}

func newTelegramChannel(bot botAPI, chatID int64) *TelegramChannel {
	return &TelegramChannel{
		bot:    bot,
		chatID: chatID,
		logger: log.With().Str("component", "telegram").Logger(),
	}
}

func (t *TelegramChannel) Name() string { return "telegram" }

// Send delivers the alert as a chat message. Urgent alerts ring; others
// arrive silently.
func (t *TelegramChannel) Send(_ context.Context, a Alert) error {
	msg := tgbotapi.NewMessage(t.chatID, a.Text())
	msg.DisableNotification = !a.Urgent && a.Kind != KindBuy
	if _, err := t.bot.Send(msg); err != nil {
		return fmt.Errorf("send telegram message: %w", err)
	}
	return nil
}

// Listen answers commands from the configured chat until ctx is cancelled.
func (t *TelegramChannel) Listen(ctx context.Context, handler CommandHandler) {
	cfg := tgbotapi.NewUpdate(0)
	cfg.Timeout = 30
	updates := t.bot.GetUpdatesChan(cfg)
	defer t.bot.StopReceivingUpdates()

	for {
		select {
		case <-ctx.Done():
			t.logger.Info().Msg("telegram polling stopped")
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			if update.Message == nil || update.Message.Chat == nil || update.Message.Chat.ID != t.chatID {
				continue
			}
			text := strings.TrimSpace(update.Message.Text)
			if text == "" {
				continue
			}
			t.logger.Info().Str("command", text).Msg("received command")
			if reply := handler(text); reply != "" {
				if _, err := t.bot.Send(tgbotapi.NewMessage(t.chatID, reply)); err != nil {
					t.logger.Error().Err(err).Msg("send reply")
				}
			}
		}
	}
}
