// Package notify отправка найденных слотов и watch пользователю.
package notify

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
	"golang.org/x/net/html"
)

// MaxMessageLength лимит длины сообщения Telegram
const MaxMessageLength = 4096

// Separator разделитель элементов в сообщении и в логе
var Separator = strings.Repeat("-", 50)

// Sender часть API бота, нужная для отправки
type Sender interface {
	SendMessage(ctx context.Context, params *bot.SendMessageParams) (*models.Message, error)
}

// Telegram шлёт HTML-сообщения в один чат, разбивая длинные на пачки
type Telegram struct {
	sender Sender
	chatID int64
	logger *zap.Logger
}

func NewTelegram(sender Sender, chatID int64, logger *zap.Logger) *Telegram {
	return &Telegram{sender: sender, chatID: chatID, logger: logger}
}

// Notify не возвращает ошибок: сбои отправки только логируются
func (t *Telegram) Notify(ctx context.Context, title string, elements []string) {
	if len(elements) == 0 {
		t.logger.Info("No elements to notify, skipping Telegram notification")
		return
	}

	batches := Batches(title, elements, MaxMessageLength)
	if len(batches) > 1 {
		t.logger.Info("Message too long for Telegram, splitting into batches", zap.Int("batches", len(batches)))
	}
	for _, text := range batches {
		_, err := t.sender.SendMessage(ctx, &bot.SendMessageParams{
			ChatID:             t.chatID,
			Text:               text,
			ParseMode:          models.ParseModeHTML,
			LinkPreviewOptions: &models.LinkPreviewOptions{IsDisabled: bot.True()},
		})
		if err != nil {
			t.logger.Error("Telegram notification failed", zap.Error(err))
		}
	}
	t.logger.Info("Finished sending notifications via Telegram", zap.Int("elements", len(elements)))
}

// Batches собирает элементы в сообщения не длиннее limit символов.
// Каждое сообщение начинается с жирного заголовка, элементы отделены линией.
func Batches(title string, elements []string, limit int) []string {
	header := ""
	if title != "" {
		header = "<b>" + html.EscapeString(title) + "</b>\n"
	}
	room := limit - utf8.RuneCountInString(header)

	var (
		batches []string
		current strings.Builder
		size    int
	)
	flush := func() {
		if size > 0 {
			batches = append(batches, header+current.String())
			current.Reset()
			size = 0
		}
	}

	for _, el := range elements {
		for _, part := range splitEscaped(el+"\n"+Separator, room) {
			n := utf8.RuneCountInString(part)
			if size > 0 && size+1+n > room {
				flush()
			}
			if size > 0 {
				current.WriteByte('\n')
				size++
			}
			current.WriteString(part)
			size += n
		}
	}
	flush()
	return batches
}

// splitEscaped экранирует s и режет на части не длиннее max символов.
// Разрез не попадает внутрь сущности вроде &amp;.
func splitEscaped(s string, max int) []string {
	if max <= 0 {
		return []string{html.EscapeString(s)}
	}
	var (
		parts   []string
		current strings.Builder
		size    int
	)
	for _, r := range s {
		token := html.EscapeString(string(r))
		n := utf8.RuneCountInString(token)
		if size > 0 && size+n > max {
			parts = append(parts, current.String())
			current.Reset()
			size = 0
		}
		current.WriteString(token)
		size += n
	}
	return append(parts, current.String())
}

// Log пишет уведомления в лог, когда Telegram не настроен
type Log struct {
	logger *zap.Logger
}

func NewLog(logger *zap.Logger) *Log {
	return &Log{logger: logger}
}

func (l *Log) Notify(_ context.Context, title string, elements []string) {
	if title != "" {
		l.logger.Info(title)
	}
	for _, el := range elements {
		for _, line := range strings.Split(el, "\n") {
			l.logger.Info(line)
		}
		l.logger.Info(Separator)
	}
}
