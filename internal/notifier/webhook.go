package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const avatarURL = "https://cdn-icons-png.flaticon.com/512/6001/6001283.png"

type discordPayload struct {
	Content         string          `json:"content"`
	Username        string          `json:"username"`
	AvatarURL       string          `json:"avatar_url"`
	AllowedMentions allowedMentions `json:"allowed_mentions"`
	TTS             bool            `json:"tts"`
	Embeds          []discordEmbed  `json:"embeds"`
}

type allowedMentions struct {
	Parse []string `json:"parse"`
}

type discordEmbed struct {
	Title       string        `json:"title"`
	Description string        `json:"description"`
	Color       int           `json:"color"`
	Timestamp   string        `json:"timestamp"`
	Footer      discordFooter `json:"footer"`
}

type discordFooter struct {
	Text    string `json:"text"`
	IconURL string `json:"icon_url"`
}

type slackPayload struct {
	Text      string `json:"text"`
	Username  string `json:"username"`
	IconEmoji string `json:"icon_emoji"`
}

type textPayload struct {
	Text string `json:"text"`
}

// BuildPayload selects the body shape by the destination host: a rich
// embed for Discord, a named bot message for Slack, plain text otherwise.
func BuildPayload(destination string, a Alert) any {
	host := destination
	if u, err := url.Parse(destination); err == nil && u.Host != "" {
		host = u.Host
	}
	message := a.Text()

	switch {
	case strings.Contains(host, "discord.com"), strings.Contains(host, "discordapp.com"):
		title := "📱 Notification"
		color := 0x00FF00
		switch {
		case a.Kind == KindTest:
			title = "📱 Test notification"
		case a.Urgent:
			title = "🚨 Urgent alert 🚨"
			color = 0xFF0000
		}
		return discordPayload{
			Content:         "@everyone\n" + message,
			Username:        AppName,
			AvatarURL:       avatarURL,
			AllowedMentions: allowedMentions{Parse: []string{"everyone"}},
			TTS:             true,
			Embeds: []discordEmbed{{
				Title:       title,
				Description: message,
				Color:       color,
				Timestamp:   a.Timestamp.UTC().Format(time.RFC3339),
				Footer:      discordFooter{Text: AppName, IconURL: avatarURL},
			}},
		}
	case strings.Contains(host, "slack.com"):
		return slackPayload{Text: message, Username: AppName, IconEmoji: ":chart_with_upwards_trend:"}
	default:
		return textPayload{Text: message}
	}
}

// WebhookSender posts alerts to chat webhooks. Each delivery is a single
// attempt; callers decide what a failure means.
type WebhookSender struct {
	Client *http.Client
}

// NewWebhookSender creates a sender with optional proxy support.
func NewWebhookSender(proxyURL string, timeout time.Duration) *WebhookSender {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &WebhookSender{Client: &http.Client{Timeout: timeout, Transport: transport}}
}

// Deliver posts the alert to destination.
func (w *WebhookSender) Deliver(ctx context.Context, a Alert, destination string) error {
	if destination == "" {
		return fmt.Errorf("webhook destination is empty")
	}
	body, err := json.Marshal(BuildPayload(destination, a))
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, destination, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.Client.Do(req)
	if err != nil {
		return fmt.Errorf("post webhook: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("webhook error: status %d, body: %s", resp.StatusCode, string(respBody))
	}
	return nil
}

// WebhookChannel delivers alerts to one fixed webhook destination.
type WebhookChannel struct {
	sender      *WebhookSender
	destination func() string
}

// NewWebhookChannel creates a channel reading its destination on every send,
// so configuration changes apply without a restart.
func NewWebhookChannel(sender *WebhookSender, destination func() string) *WebhookChannel {
	return &WebhookChannel{sender: sender, destination: destination}
}

func (c *WebhookChannel) Name() string { return "webhook" }

func (c *WebhookChannel) Send(ctx context.Context, a Alert) error {
	dest := c.destination()
	if dest == "" {
		return ErrChannelDisabled
	}
	return c.sender.Deliver(ctx, a, dest)
}
