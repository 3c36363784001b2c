package handlers

import (
	"context"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
)

// OnlyConfiguredChat пропускает апдейты только из настроенного чата
func (h *Handlers) OnlyConfiguredChat(next bot.HandlerFunc) bot.HandlerFunc {
	return func(ctx context.Context, b *bot.Bot, update *models.Update) {
		chatID, ok := updateChatID(update)
		if !ok {
			return
		}
		if chatID != h.chatID {
			h.logger.Warn("Ignoring update from unknown chat", zap.Int64("chat_id", chatID))
			return
		}
		next(ctx, b, update)
	}
}

func updateChatID(update *models.Update) (int64, bool) {
	switch {
	case update.Message != nil:
		return update.Message.Chat.ID, true
	case update.CallbackQuery != nil && update.CallbackQuery.Message.Message != nil:
		return update.CallbackQuery.Message.Message.Chat.ID, true
	default:
		return 0, false
	}
}
