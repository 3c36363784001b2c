package handlers

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/Freeeeeet/medicony/internal/controller/keyboard"
	"github.com/Freeeeeet/medicony/internal/controller/state"
	"github.com/Freeeeeet/medicony/internal/model"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
)

// HandleWatchAdd обрабатывает /watch_add. Без аргументов запускает диалог.
func (h *Handlers) HandleWatchAdd(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	chatID := update.Message.Chat.ID
	h.logger.Info("Received command", zap.String("command", "/watch_add"))

	raw := commandArgs(update.Message.Text)
	if raw == "" {
		h.startAddDialog(ctx, b, update)
		return
	}

	args, err := parseArgs(raw)
	if err != nil {
		h.sendError(ctx, b, chatID, err)
		return
	}
	w, err := watchFromArgs(args)
	if err != nil {
		h.sendError(ctx, b, chatID, err)
		return
	}
	h.addWatch(ctx, b, chatID, w)
}

// HandleWatchEdit обрабатывает /watch_edit <id> key=value ...
func (h *Handlers) HandleWatchEdit(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	chatID := update.Message.Chat.ID
	h.logger.Info("Received command", zap.String("command", "/watch_edit"))

	idStr, rest, _ := strings.Cut(commandArgs(update.Message.Text), " ")
	if idStr == "" {
		h.sendMessage(ctx, b, chatID, "Usage: /watch_edit <id> key=value ...")
		return
	}
	id, err := parseID(idStr)
	if err != nil {
		h.sendError(ctx, b, chatID, err)
		return
	}
	args, err := parseArgs(rest)
	if err != nil {
		h.sendError(ctx, b, chatID, err)
		return
	}
	u, err := updateFromArgs(args)
	if err != nil {
		h.sendError(ctx, b, chatID, err)
		return
	}
	if u.IsEmpty() {
		h.sendMessage(ctx, b, chatID, "Nothing to update")
		return
	}

	ok, err := h.watchService.Update(ctx, id, u)
	if err != nil {
		h.logger.Error("Failed to update watch", zap.Int64("watch_id", id), zap.Error(err))
		h.sendError(ctx, b, chatID, err)
		return
	}
	if !ok {
		h.sendMessage(ctx, b, chatID, fmt.Sprintf("❌ Watch %d not found", id))
		return
	}
	h.sendMessage(ctx, b, chatID, fmt.Sprintf("✅ Watch %d updated", id))
}

// HandleWatchRemove показывает клавиатуру с id watch
func (h *Handlers) HandleWatchRemove(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	chatID := update.Message.Chat.ID
	h.logger.Info("Received command", zap.String("command", "/watch_remove"))

	watches, err := h.watchService.List(ctx, "", false)
	if err != nil {
		h.sendError(ctx, b, chatID, err)
		return
	}
	if len(watches) == 0 {
		h.sendMessage(ctx, b, chatID, "📭 No watches to remove")
		return
	}

	buttons := make([]models.InlineKeyboardButton, 0, len(watches))
	lines := make([]string, 0, len(watches))
	for _, w := range watches {
		id := strconv.FormatInt(w.ID, 10)
		buttons = append(buttons, keyboard.Button(id, RemoveCallbackPrefix+id))
		lines = append(lines, w.ShortString())
	}
	markup := keyboard.NewBuilder().
		Grid(buttons, removeButtonsPerRow).
		Row(keyboard.Button("Cancel", removeCallbackCancel)).
		Build()

	_, err = b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:      chatID,
		Text:        "🗑 Choose a watch to remove:\n\n" + strings.Join(lines, "\n"),
		ReplyMarkup: markup,
	})
	if err != nil {
		h.logger.Error("Failed to send remove keyboard", zap.Error(err))
	}
}

// HandleRemoveCallback нажатие кнопки из /watch_remove
func (h *Handlers) HandleRemoveCallback(ctx context.Context, b *bot.Bot, update *models.Update) {
	query := update.CallbackQuery
	if query == nil || query.Message.Message == nil {
		return
	}
	chatID := query.Message.Message.Chat.ID

	_, err := b.AnswerCallbackQuery(ctx, &bot.AnswerCallbackQueryParams{CallbackQueryID: query.ID})
	if err != nil {
		h.logger.Warn("Failed to answer callback", zap.Error(err))
	}

	if query.Data == removeCallbackCancel {
		h.sendMessage(ctx, b, chatID, "🚫 Removal aborted")
		return
	}
	id, err := parseID(strings.TrimPrefix(query.Data, RemoveCallbackPrefix))
	if err != nil {
		h.sendError(ctx, b, chatID, err)
		return
	}

	removed, err := h.watchService.Remove(ctx, id)
	if err != nil {
		h.logger.Error("Failed to remove watch", zap.Int64("watch_id", id), zap.Error(err))
		h.sendError(ctx, b, chatID, err)
		return
	}
	if !removed {
		h.sendMessage(ctx, b, chatID, fmt.Sprintf("❌ Watch %d not found", id))
		return
	}
	h.sendMessage(ctx, b, chatID, fmt.Sprintf("✅ Watch %d removed", id))
}

func (h *Handlers) addWatch(ctx context.Context, b *bot.Bot, chatID int64, w *model.Watch) {
	id, err := h.watchService.Add(ctx, w)
	if err != nil {
		h.logger.Error("Failed to add watch", zap.Error(err))
		h.sendError(ctx, b, chatID, err)
		return
	}
	w.ID = id
	h.sendList(ctx, b, chatID, "✅ Watch added", []string{w.String()})
}

// HandleTextMessage обычный текст идёт в активный диалог
func (h *Handlers) HandleTextMessage(ctx context.Context, b *bot.Bot, update *models.Update) {
	text := messageText(update)
	if text == "" || strings.HasPrefix(text, "/") || update.Message.From == nil {
		return
	}
	if h.stateManager.GetState(update.Message.From.ID) == state.StateNone {
		return
	}
	h.continueAddDialog(ctx, b, update)
}
