// Package telegram delivers HTML notification cards through the Telegram
// Bot API.
//
// One Bot is shared by every destination of a notification channel; each
// destination gets its own Transport bound to a Target.
package telegram

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	tele "gopkg.in/telebot.v4"

	"applog/internal/sink"
)

const (
	Kind           = "telegram"
	DefaultTimeout = 10 * time.Second
)

type Config struct {
	Token string
	// APIURL overrides https://api.telegram.org (self-hosted Bot API server).
	APIURL  string
	Timeout time.Duration
}

// Sender sends one HTML message to a target.
type Sender interface {
	SendHTML(ctx context.Context, to Target, text string) error
}

// Bot is a Sender backed by telebot. It never polls for updates.
type Bot struct {
	bot *tele.Bot
}

// NewBot builds a send-only bot. It performs no network call.
func NewBot(cfg Config) (*Bot, error) {
	token := strings.TrimSpace(cfg.Token)
	if token == "" {
		return nil, errors.New("telegram token is empty")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	b, err := tele.NewBot(tele.Settings{
		URL:     strings.TrimRight(strings.TrimSpace(cfg.APIURL), "/"),
		Token:   token,
		Client:  &http.Client{Timeout: timeout},
		Offline: true,
	})
	if err != nil {
		return nil, err
	}
	return &Bot{bot: b}, nil
}

func (b *Bot) SendHTML(ctx context.Context, to Target, text string) error {
	chat := &tele.Chat{ID: to.ChatID}
	for _, chunk := range splitText(text, textLimit) {
		if ctx != nil {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
		}
		_, err := b.bot.Send(chat, chunk, &tele.SendOptions{
			ParseMode:             tele.ModeHTML,
			DisableWebPagePreview: true,
			ThreadID:              to.ThreadID,
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// Transport delivers to a single Target.
type Transport struct {
	sender Sender
	to     Target
}

func New(sender Sender, to Target) *Transport {
	return &Transport{sender: sender, to: to}
}

func (t *Transport) Deliver(ctx context.Context, d sink.Delivery) error {
	if err := t.sender.SendHTML(ctx, t.to, string(d.Body)); err != nil {
		de := &sink.DeliveryError{Kind: Kind, Target: t.to.String(), Err: err}
		var te *tele.Error
		if errors.As(err, &te) {
			de.Status = te.Code
		}
		return de
	}
	return nil
}
