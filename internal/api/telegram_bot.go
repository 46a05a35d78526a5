// Package api provides handlers for external APIs and interfaces
package api

import (
	"context"
	"errors"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// messenger sends Telegram messages
type messenger interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// TelegramBot handles interactions with the Telegram API
type TelegramBot struct {
	bot     *tgbotapi.BotAPI
	sender  messenger
	handler *CommandHandler
	logger  *zap.Logger
}

// NewTelegramBot creates a new Telegram bot handler
func NewTelegramBot(botToken string, handler *CommandHandler, logger *zap.Logger) (*TelegramBot, error) {
	bot, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}

	return &TelegramBot{
		bot:     bot,
		sender:  bot,
		handler: handler,
		logger:  logger,
	}, nil
}

// Start listens for and handles Telegram messages until ctx is done
func (t *TelegramBot) Start(ctx context.Context) error {
	t.logger.Info("Authorized on Telegram account", zap.String("account", t.bot.Self.UserName))

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := t.bot.GetUpdatesChan(u)
	t.logger.Info("Bot is now listening for messages...")

	for {
		select {
		case <-ctx.Done():
			t.bot.StopReceivingUpdates()
			t.logger.Info("Bot stopped listening for messages")
			return nil
		case update, ok := <-updates:
			if !ok {
				return errors.New("telegram updates channel closed")
			}
			if update.Message == nil {
				continue
			}

			t.logger.Info("Received message",
				zap.String("user", userName(update.Message)),
				zap.String("text", update.Message.Text))

			t.handleMessage(ctx, update.Message)
		}
	}
}

// handleMessage answers one Telegram message
func (t *TelegramBot) handleMessage(ctx context.Context, message *tgbotapi.Message) {
	msg := tgbotapi.NewMessage(message.Chat.ID, "")

	if message.IsCommand() {
		t.logger.Debug("Handling command",
			zap.String("command", message.Command()),
			zap.String("args", message.CommandArguments()),
			zap.String("user", userName(message)))
		msg.Text = t.handler.Reply(ctx, message.Command(), message.CommandArguments())
	} else {
		msg.Text = "I don't understand. Use /help to see available commands."
	}

	t.logger.Debug("Sending response", zap.String("user", userName(message)))
	if _, err := t.sender.Send(msg); err != nil {
		t.logger.Error("Error sending message", zap.Error(err))
	}
}

func userName(message *tgbotapi.Message) string {
	if message.From == nil {
		return ""
	}
	return message.From.UserName
}
