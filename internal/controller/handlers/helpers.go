package handlers

import (
	"context"
	"strings"

	"github.com/Freeeeeet/medicony/internal/notify"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
	"golang.org/x/net/html"
)

// sendError отправляет сообщение об ошибке и логирует если не удалось
func (h *Handlers) sendError(ctx context.Context, b *bot.Bot, chatID int64, err error) {
	text := ErrorMessage(err)
	_, sendErr := b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: chatID,
		Text:   text,
	})
	if sendErr != nil {
		h.logger.Error("Failed to send error message",
			zap.Int64("chat_id", chatID),
			zap.String("text", text),
			zap.Error(sendErr),
		)
	}
}

// sendMessage отправляет сообщение и логирует если не удалось
func (h *Handlers) sendMessage(ctx context.Context, b *bot.Bot, chatID int64, text string) {
	_, err := b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: chatID,
		Text:   text,
	})
	if err != nil {
		h.logger.Error("Failed to send message",
			zap.Int64("chat_id", chatID),
			zap.Error(err),
		)
	}
}

// sendList отправляет элементы пачками под лимит Telegram
func (h *Handlers) sendList(ctx context.Context, b *bot.Bot, chatID int64, title string, elements []string) {
	for _, text := range notify.Batches(title, elements, notify.MaxMessageLength) {
		_, err := b.SendMessage(ctx, &bot.SendMessageParams{
			ChatID:    chatID,
			Text:      text,
			ParseMode: models.ParseModeHTML,
		})
		if err != nil {
			h.logger.Error("Failed to send list", zap.Int64("chat_id", chatID), zap.Error(err))
			return
		}
	}
}

// sendPre моноширинный блок
func (h *Handlers) sendPre(ctx context.Context, b *bot.Bot, chatID int64, text string) {
	_, err := b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:    chatID,
		Text:      "<pre>" + html.EscapeString(text) + "</pre>",
		ParseMode: models.ParseModeHTML,
	})
	if err != nil {
		h.logger.Error("Failed to send message", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}

func messageText(update *models.Update) string {
	if update.Message == nil {
		return ""
	}
	return strings.TrimSpace(update.Message.Text)
}
