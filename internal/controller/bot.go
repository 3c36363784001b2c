package controller

import (
	"context"
	"strings"

	"github.com/Freeeeeet/medicony/internal/controller/handlers"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
)

// BotController чат-бот управления watch, отвечает только настроенному чату
type BotController struct {
	bot      *bot.Bot
	handlers *handlers.Handlers
	logger   *zap.Logger
}

func NewBotController(botInstance *bot.Bot, h *handlers.Handlers, logger *zap.Logger) *BotController {
	return &BotController{
		bot:      botInstance,
		handlers: h,
		logger:   logger,
	}
}

type command struct {
	name        string
	description string
	match       bot.MatchType
	handler     bot.HandlerFunc
}

func (c *BotController) commands() []command {
	h := c.handlers
	return []command{
		{"start", "Start the bot", bot.MatchTypeExact, h.HandleStart},
		{"help", "Show available commands", bot.MatchTypeExact, h.HandleHelp},
		{"watch_list", "List watches", bot.MatchTypeExact, h.HandleWatchList},
		{"watch_add", "Add a watch", bot.MatchTypePrefix, h.HandleWatchAdd},
		{"watch_edit", "Edit a watch", bot.MatchTypePrefix, h.HandleWatchEdit},
		{"watch_remove", "Remove a watch", bot.MatchTypeExact, h.HandleWatchRemove},
		{"appointments", "List booked appointments", bot.MatchTypeExact, h.HandleAppointments},
		{"search_now", "Run the search now", bot.MatchTypeExact, h.HandleSearchNow},
		{"logs", "Show the log tail", bot.MatchTypeExact, h.HandleLogs},
		{"cancel", "Abort the current dialog", bot.MatchTypeExact, h.HandleCancel},
	}
}

// RegisterHandlers регистрирует все обработчики команд
func (c *BotController) RegisterHandlers(ctx context.Context) error {
	guard := c.handlers.OnlyConfiguredChat

	for _, cmd := range c.commands() {
		c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/"+cmd.name, cmd.match, guard(cmd.handler))
	}

	// текст без команды идёт в диалог
	c.bot.RegisterHandlerMatchFunc(isPlainText, guard(c.handlers.HandleTextMessage))

	c.bot.RegisterHandler(bot.HandlerTypeCallbackQueryData, handlers.RemoveCallbackPrefix, bot.MatchTypePrefix, guard(c.handlers.HandleRemoveCallback))

	return c.setCommands(ctx)
}

func isPlainText(update *models.Update) bool {
	return update.Message != nil && update.Message.Text != "" && !strings.HasPrefix(update.Message.Text, "/")
}

// setCommands устанавливает список команд в меню бота
func (c *BotController) setCommands(ctx context.Context) error {
	cmds := c.commands()
	menu := make([]models.BotCommand, 0, len(cmds))
	for _, cmd := range cmds {
		menu = append(menu, models.BotCommand{Command: cmd.name, Description: cmd.description})
	}

	_, err := c.bot.SetMyCommands(ctx, &bot.SetMyCommandsParams{
		Commands: menu,
	})
	if err != nil {
		c.logger.Error("Failed to set bot commands", zap.Error(err))
		return err
	}

	c.logger.Info("Bot commands menu set")
	return nil
}

// Start блокирует до отмены контекста
func (c *BotController) Start(ctx context.Context) error {
	c.logger.Info("Starting bot")
	c.bot.Start(ctx)
	return nil
}
