package handlers

import (
	"context"
	"strings"

	"github.com/Freeeeeet/medicony/internal/controller/state"
	"github.com/Freeeeeet/medicony/internal/model"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
)

// dialogStep один вопрос пошагового /watch_add
type dialogStep struct {
	state    state.UserState
	key      string
	prompt   string
	optional bool
}

var addWatchSteps = []dialogStep{
	{state.StateAddWatchRegion, "region", "🌍 Enter region ID:", false},
	{state.StateAddWatchCity, "city", "🏙️ Enter city name", true},
	{state.StateAddWatchSpecialty, "specialty", "🩺 Enter specialty IDs separated by commas, or gp for General Practitioner:", false},
	{state.StateAddWatchClinic, "clinic", "🏥 Enter clinic ID", true},
	{state.StateAddWatchDoctor, "doctor", "👨‍⚕️ Enter doctor ID", true},
	{state.StateAddWatchStartDate, "start", "📅 Enter start date YYYY-MM-DD", true},
	{state.StateAddWatchEndDate, "end", "📅 Enter end date YYYY-MM-DD", true},
	{state.StateAddWatchTimeRange, "time", "⏰ Enter time range HH:MM-HH:MM or HH:MM-*", true},
	{state.StateAddWatchAutoBook, "autobook", "🤖 Autobook? yes/no", true},
	{state.StateAddWatchExclusions, "exclusions", "🚫 Enter exclusions, e.g. doctor:123,345;clinic:777", true},
	{state.StateAddWatchType, "type", "🔬 Enter type: standard or examination", true},
}

var argValidators = map[string]func(string) error{
	"region": func(s string) error { _, err := parseID(s); return err },
	"specialty": func(s string) error {
		if strings.EqualFold(s, "gp") {
			return nil
		}
		_, err := parseIDs(s)
		return err
	},
	"clinic":     func(s string) error { _, err := parseID(s); return err },
	"doctor":     func(s string) error { _, err := parseID(s); return err },
	"start":      func(s string) error { _, err := parseDate(s); return err },
	"end":        func(s string) error { _, err := parseDate(s); return err },
	"time":       func(s string) error { _, err := model.ParseTimeRange(s); return err },
	"autobook":   func(s string) error { _, err := parseBool(s); return err },
	"exclusions": func(s string) error { _, err := model.ParseExclusions(s); return err },
	"type":       func(s string) error { _, err := model.ParseWatchType(s); return err },
}

func stepIndex(s state.UserState) int {
	for i, step := range addWatchSteps {
		if step.state == s {
			return i
		}
	}
	return -1
}

func (h *Handlers) startAddDialog(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message.From == nil {
		return
	}
	telegramID := update.Message.From.ID
	h.stateManager.ClearState(telegramID)
	h.stateManager.SetState(telegramID, addWatchSteps[0].state)
	h.logger.Info("Started adding new watch", zap.Int64("telegram_id", telegramID))
	h.ask(ctx, b, update.Message.Chat.ID, addWatchSteps[0])
}

func (h *Handlers) ask(ctx context.Context, b *bot.Bot, chatID int64, step dialogStep) {
	text := step.prompt
	if step.optional {
		text += " or send " + skipWord
	}
	text += "\n\nSend " + abortWord + " or /cancel to stop"
	h.sendMessage(ctx, b, chatID, text)
}

// continueAddDialog принимает ответ на текущий шаг и задаёт следующий вопрос
func (h *Handlers) continueAddDialog(ctx context.Context, b *bot.Bot, update *models.Update) {
	telegramID := update.Message.From.ID
	chatID := update.Message.Chat.ID
	answer := messageText(update)

	idx := stepIndex(h.stateManager.GetState(telegramID))
	if idx < 0 {
		h.logger.Warn("Unknown dialog state", zap.Int64("telegram_id", telegramID))
		h.stateManager.ClearState(telegramID)
		return
	}
	step := addWatchSteps[idx]

	switch {
	case strings.EqualFold(answer, abortWord):
		h.stateManager.ClearState(telegramID)
		h.sendMessage(ctx, b, chatID, "🚫 Adding aborted")
		h.logger.Info("Aborted adding watch", zap.Int64("telegram_id", telegramID))
		return
	case strings.EqualFold(answer, skipWord) && step.optional:
	case strings.EqualFold(answer, skipWord):
		h.sendMessage(ctx, b, chatID, "This value is required")
		return
	default:
		if validate, ok := argValidators[step.key]; ok {
			if err := validate(answer); err != nil {
				h.sendError(ctx, b, chatID, err)
				return
			}
		}
		h.stateManager.SetAnswer(telegramID, step.key, answer)
	}

	if idx+1 < len(addWatchSteps) {
		next := addWatchSteps[idx+1]
		h.stateManager.SetState(telegramID, next.state)
		h.ask(ctx, b, chatID, next)
		return
	}

	args := h.stateManager.Answers(telegramID)
	h.stateManager.ClearState(telegramID)

	w, err := watchFromArgs(args)
	if err != nil {
		h.sendError(ctx, b, chatID, err)
		return
	}
	h.addWatch(ctx, b, chatID, w)
}
