/*
   TRAVELPOSTbot - Travel posts generator and publisher bot
   Copyright (C) 2025  Unbewohnte (Kasyanov Nikolay Alexeevich)

   This program is free software: you can redistribute it and/or modify
   it under the terms of the GNU General Public License as published by
   the Free Software Foundation, either version 3 of the License, or
   (at your option) any later version.

   This program is distributed in the hope that it will be useful,
   but WITHOUT ANY WARRANTY; without even the implied warranty of
   MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
   GNU General Public License for more details.

   You should have received a copy of the GNU General Public License
   along with this program.  If not, see <https://www.gnu.org/licenses/>.
*/

package bot

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"Unbewohnte/TRAVELPOSTbot/internal/bot/social"
	"Unbewohnte/TRAVELPOSTbot/internal/db"
	"Unbewohnte/TRAVELPOSTbot/internal/store"
)

var (
	ErrNoDestination = errors.New("не задана группа для публикации")
	ErrNoMessenger   = errors.New("мессенджер не настроен")
)

// Генерация содержимого поста
type ContentGenerator interface {
	GenerateText(ctx context.Context, extra string) string
	GenerateImagePrompt(ctx context.Context, post string) string
	// Пустая строка - изображения не будет
	GenerateImage(ctx context.Context, prompt string) string
	IsTravelRelated(ctx context.Context, comment string) bool
}

type Dependencies struct {
	Backend db.Backend
	// Может быть nil, если токен Telegram не задан
	Messenger social.Messenger
	Generator ContentGenerator
	Notifier  *AdminNotifier
	Now       func() time.Time
}

type Bot struct {
	conf      *Config
	backend   db.Backend
	messenger social.Messenger
	generator ContentGenerator
	notifier  *AdminNotifier
	commands  []Command
	now       func() time.Time
	startTime time.Time

	tickInterval    time.Duration
	engagementDelay time.Duration

	Schedule *store.ScheduleStore
	Comments *store.CommentCache
	Groups   *store.GroupRegistry
	Stats    *store.StatsStore
}

func NewBot(config *Config, deps Dependencies) *Bot {
	now := deps.Now
	if now == nil {
		now = time.Now
	}

	notifier := deps.Notifier
	if notifier == nil {
		notifier = NewAdminNotifier(deps.Messenger, config.Telegram.AdminChatID)
	}

	bot := &Bot{
		conf:            config,
		backend:         deps.Backend,
		messenger:       deps.Messenger,
		generator:       deps.Generator,
		notifier:        notifier,
		now:             now,
		startTime:       now(),
		tickInterval:    time.Minute,
		engagementDelay: config.EngagementDelay(),

		Schedule: store.NewScheduleStore(deps.Backend, config.ServerLocation(), now),
		Comments: store.NewCommentCache(deps.Backend, config.ServerLocation(), now),
		Groups:   store.NewGroupRegistry(deps.Backend, config.Telegram.GroupID),
		Stats:    store.NewStatsStore(deps.Backend, now),
	}
	bot.Init()

	return bot
}

func (bot *Bot) Init() {
	bot.NewCommand(Command{
		Name:        "start",
		Description: "Приветствие и список команд",
		Group:       "Общее",
		Call:        bot.Help,
	})

	bot.NewCommand(Command{
		Name:        "help",
		Description: "Напечатать вспомогательное сообщение",
		Example:     "/help settime",
		Group:       "Общее",
		Call:        bot.Help,
	})

	bot.NewCommand(Command{
		Name:        "schedule",
		Description: "Показать текущее расписание",
		Group:       "Расписание",
		Call:        bot.ShowSchedule,
	})

	bot.NewCommand(Command{
		Name:        "generate_now",
		Description: "Сгенерировать и опубликовать пост прямо сейчас, не трогая расписание",
		Group:       "Публикация",
		Call:        bot.GenerateNow,
	})

	bot.NewCommand(Command{
		Name:        "settime",
		Description: "Установить время публикации (часовой пояс сервера)",
		Example:     "/settime 09:00",
		Group:       "Расписание",
		Call:        bot.SetTime,
	})

	bot.NewCommand(Command{
		Name:        "setlocal",
		Description: "Установить время публикации в вашем часовом поясе",
		Example:     "/setlocal 12:30",
		Group:       "Расписание",
		Call:        bot.SetLocalTime,
	})

	bot.NewCommand(Command{
		Name:        "setfreq",
		Description: "Установить частоту публикаций в часах",
		Example:     "/setfreq 12",
		Group:       "Расписание",
		Call:        bot.SetFrequency,
	})

	bot.NewCommand(Command{
		Name:        "stats",
		Description: "Статистика публикаций за N дней (по умолчанию 7)",
		Example:     "/stats 30",
		Group:       "Публикация",
		Call:        bot.ShowStats,
	})

	bot.NewCommand(Command{
		Name:        "toggle_schedule",
		Description: "Включить или выключить публикацию по расписанию",
		Group:       "Расписание",
		Call:        bot.ToggleSchedule,
	})

	bot.NewCommand(Command{
		Name:        "groups",
		Description: "Показать группы для публикации",
		Group:       "Группы",
		Call:        bot.ListGroups,
	})

	bot.NewCommand(Command{
		Name:        "setgroup",
		Description: "Сделать группу активной для публикаций",
		Example:     "/setgroup -1001234567890",
		Group:       "Группы",
		Call:        bot.SetGroup,
	})

	bot.NewCommand(Command{
		Name:        "addgroup",
		Description: "Добавить группу (отправьте команду внутри нужной группы)",
		Group:       "Группы",
		Call:        bot.AddGroupHint,
	})

	bot.NewCommand(Command{
		Name:        "nextpost",
		Description: "Когда выйдет следующий пост",
		Group:       "Расписание",
		Call:        bot.NextPost,
	})
}

// Обрабатывает входящее сообщение мессенджера
func (bot *Bot) HandleMessage(ctx context.Context, message social.Message) {
	// Пропускаем сообщения, пришедшие до старта бота
	if !message.Date.IsZero() && message.Date.Before(bot.startTime.Truncate(time.Second)) {
		return
	}

	text := strings.TrimSpace(message.Text)
	if text == "" {
		return
	}

	if !message.FromGroup() {
		// Личные сообщения - только команды
		log.Printf("[%s] %s", message.ChatID, text)
		bot.reply(ctx, message.ChatID, bot.Handle(ctx, message.ChatID, text))
		return
	}

	if strings.HasPrefix(text, "/") {
		if !bot.isAdmin(message.FromID) {
			return
		}

		name, _ := parseCommand(text)
		if name == "addgroup" {
			bot.registerGroup(ctx, message)
			return
		}

		bot.reply(ctx, message.ChatID, bot.Handle(ctx, message.FromID, text))
		return
	}

	// Комментарий участника группы
	err := bot.Comments.Add(message.ChatID, message.MessageID, text, "")
	if err != nil {
		log.Printf("Комментарий из %s не сохранен: %s", message.ChatID, err)
		return
	}

	if bot.conf.Debug {
		log.Printf("Новый комментарий в %s (%s)", message.ChatTitle, message.ChatID)
	}
}

// /addgroup внутри группы
func (bot *Bot) registerGroup(ctx context.Context, message social.Message) {
	err := bot.Groups.Add(message.ChatID, message.ChatTitle)
	if err != nil {
		bot.reply(ctx, message.ChatID, "❌ Не удалось добавить группу: "+err.Error())
		return
	}

	log.Printf("Группа %s (%s) добавлена", message.ChatTitle, message.ChatID)
	bot.reply(ctx, message.ChatID, "✅ Группа добавлена: "+message.ChatTitle+" ("+message.ChatID+")")
}

func (bot *Bot) reply(ctx context.Context, chatID string, text string) {
	if bot.messenger == nil || text == "" {
		return
	}

	if _, err := bot.messenger.SendText(ctx, chatID, text); err != nil {
		log.Printf("Не удалось ответить в %s: %s", chatID, err)
	}
}

func (bot *Bot) isAdmin(chatID string) bool {
	return bot.conf.Telegram.AdminChatID != "" && chatID == bot.conf.Telegram.AdminChatID
}

func (bot *Bot) RelayMode() bool {
	return bot.conf.Schedule.RelayMode
}

func (bot *Bot) Config() *Config {
	return bot.conf
}

func (bot *Bot) BackendName() string {
	if bot.backend == nil {
		return "none"
	}
	return bot.backend.Name()
}

func (bot *Bot) MessengerConfigured() bool {
	return bot.messenger != nil
}

// Генератор без ключа работает на запасных текстах
func (bot *Bot) GeneratorConfigured() bool {
	configured, ok := bot.generator.(interface{ Configured() bool })
	return ok && configured.Configured()
}

func (bot *Bot) AdminNotificationsConfigured() bool {
	return bot.messenger != nil && bot.conf.Telegram.AdminChatID != ""
}

func (bot *Bot) NotifyAdmin(text string) bool {
	return bot.notifier.Notify(text)
}
