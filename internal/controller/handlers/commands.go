package handlers

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/Freeeeeet/medicony/internal/controller/state"
	"github.com/Freeeeeet/medicony/internal/model"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
)

const helpText = "MediCony commands:\n\n" +
	"/watch_list - list watches\n" +
	"/watch_add key=value ... - add a watch, without arguments starts a dialog\n" +
	"    keys: region specialty city clinic doctor start end time autobook exclusions type account\n" +
	"    example: /watch_add region=200 specialty=52106 time=08:00-16:00 autobook=yes\n" +
	"/watch_edit <id> key=value ... - edit a watch\n" +
	"    keys: city clinic start end time autobook exclusions account\n" +
	"/watch_remove - remove a watch\n" +
	"/appointments - booked appointments\n" +
	"/search_now - run the search cycle now\n" +
	"/logs - last lines of the log\n" +
	"/cancel - abort the current dialog\n" +
	"/help - this message"

// HandleStart обрабатывает команду /start
func (h *Handlers) HandleStart(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	h.logger.Info("Received command", zap.String("command", "/start"))
	h.sendMessage(ctx, b, update.Message.Chat.ID, "👋 MediCony is watching Medicover appointments for you.\n\n"+helpText)
}

// HandleHelp обрабатывает команду /help
func (h *Handlers) HandleHelp(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	text := helpText
	if len(h.accountHint) > 1 {
		text += "\n\nAccounts: " + strings.Join(h.accountHint, ", ")
	}
	if h.suggested != "" {
		text += "\n\nSuggested properties: " + h.suggested
	}
	h.sendMessage(ctx, b, update.Message.Chat.ID, text)
}

// HandleWatchList обрабатывает команду /watch_list
func (h *Handlers) HandleWatchList(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	chatID := update.Message.Chat.ID
	h.logger.Info("Received command", zap.String("command", "/watch_list"))

	watches, err := h.watchService.List(ctx, "", true)
	if err != nil {
		h.logger.Error("Failed to list watches", zap.Error(err))
		h.sendError(ctx, b, chatID, err)
		return
	}
	if len(watches) == 0 {
		h.sendMessage(ctx, b, chatID, "📭 No watches yet. Add one with /watch_add")
		return
	}
	h.sendList(ctx, b, chatID, "Watches", model.WatchStrings(watches))
}

// HandleAppointments обрабатывает команду /appointments
func (h *Handlers) HandleAppointments(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	chatID := update.Message.Chat.ID
	h.logger.Info("Received command", zap.String("command", "/appointments"))

	booked, err := h.appointmentService.ListBooked(ctx, true)
	if err != nil {
		h.logger.Error("Failed to list appointments", zap.Error(err))
		h.sendError(ctx, b, chatID, err)
		return
	}
	if len(booked) == 0 {
		h.sendMessage(ctx, b, chatID, "📭 No booked appointments")
		return
	}
	h.sendList(ctx, b, chatID, "Booked appointments", model.AppointmentStrings(booked))
}

// HandleSearchNow обрабатывает команду /search_now
func (h *Handlers) HandleSearchNow(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	h.logger.Info("Received command", zap.String("command", "/search_now"))

	text := "🔎 Search cycle will start shortly"
	if !h.waker.Wake() {
		text = "⏳ Search is already scheduled"
	}
	h.sendMessage(ctx, b, update.Message.Chat.ID, text)
}

// HandleLogs обрабатывает команду /logs
func (h *Handlers) HandleLogs(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	chatID := update.Message.Chat.ID

	lines, err := tail(h.logPath, LogTailLines)
	if err != nil {
		h.logger.Error("Failed to read log file", zap.String("path", h.logPath), zap.Error(err))
		h.sendMessage(ctx, b, chatID, "❌ Log file is not available")
		return
	}
	if len(lines) == 0 {
		h.sendMessage(ctx, b, chatID, "📭 Log is empty")
		return
	}

	text := strings.Join(lines, "\n")
	if runes := []rune(text); len(runes) > 3500 {
		text = string(runes[len(runes)-3500:])
	}
	h.sendPre(ctx, b, chatID, text)
}

// tail последние n строк файла
func tail(path string, n int) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open log: %w", err)
	}
	defer f.Close()

	ring := make([]string, 0, n)
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		if len(ring) == n {
			ring = ring[1:]
		}
		ring = append(ring, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read log: %w", err)
	}
	return ring, nil
}

// HandleCancel обрабатывает команду /cancel - отмена текущего диалога
func (h *Handlers) HandleCancel(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	telegramID := update.Message.From.ID
	if h.stateManager.GetState(telegramID) == state.StateNone {
		h.sendMessage(ctx, b, update.Message.Chat.ID, "Nothing to cancel")
		return
	}
	h.stateManager.ClearState(telegramID)
	h.sendMessage(ctx, b, update.Message.Chat.ID, "🚫 Aborted")
}
