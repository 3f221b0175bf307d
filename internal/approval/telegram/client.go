// Package telegram renders approval requests as interactive two-button
// messages to the admin approver chat.
package telegram

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"leadhub/platform/config"
	"leadhub/platform/logger"
)

type Client struct {
	bot    *tgbotapi.BotAPI
	chatID int64
	log    *logger.Logger
}

// NewClient connects the bot. Returns nil when Telegram is not configured;
// callers treat a nil client as disabled and fall back to email.
func NewClient(cfg config.ApprovalConfig, log *logger.Logger) (*Client, error) {
	if !cfg.IsTelegramEnabled() {
		return nil, nil
	}

	bot, err := tgbotapi.NewBotAPI(cfg.GetTelegramBotToken())
	if err != nil {
		return nil, fmt.Errorf("telegram bot init: %w", err)
	}

	return &Client{
		bot:    bot,
		chatID: cfg.GetTelegramApproverChatID(),
		log:    log,
	}, nil
}

// Enabled reports whether the client can send.
func (c *Client) Enabled() bool {
	return c != nil && c.bot != nil
}

// SendDecisionRequest posts the summary with two mutually exclusive buttons.
// Each button carries a URL whose signed token encodes the full decision, so
// nothing about the choice is inferred from the approver's reply.
func (c *Client) SendDecisionRequest(summary, approveURL, rejectURL string) error {
	if !c.Enabled() {
		return fmt.Errorf("telegram client not configured")
	}

	msg := tgbotapi.NewMessage(c.chatID, summary)
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonURL("✅ Approve", approveURL),
			tgbotapi.NewInlineKeyboardButtonURL("❌ Reject", rejectURL),
		),
	)

	if _, err := c.bot.Send(msg); err != nil {
		return fmt.Errorf("telegram send: %w", err)
	}

	c.log.Info("approval request sent to telegram", "chat_id", c.chatID)
	return nil
}
