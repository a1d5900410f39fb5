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
	"fmt"
	"log"
	"sort"
	"strconv"
	"strings"
	"time"

	"Unbewohnte/TRAVELPOSTbot/internal/db"
	"Unbewohnte/TRAVELPOSTbot/internal/store"
)

const (
	accessDeniedMessage = "⛔ У вас нет доступа к управлению ботом."
	defaultStatsDays    = 7
)

type Command struct {
	Name        string
	Description string
	Example     string
	Group       string
	Call        func(ctx context.Context, args []string) string
}

func (bot *Bot) NewCommand(cmd Command) {
	bot.commands = append(bot.commands, cmd)
}

func (bot *Bot) CommandByName(name string) *Command {
	for i := range bot.commands {
		if bot.commands[i].Name == name {
			return &bot.commands[i]
		}
	}

	return nil
}

// "/settime@TravelBot 09:00" -> "settime", ["09:00"]
func parseCommand(text string) (string, []string) {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return "", nil
	}

	name := strings.ToLower(strings.TrimPrefix(fields[0], "/"))
	if at := strings.Index(name, "@"); at >= 0 {
		name = name[:at]
	}

	return name, fields[1:]
}

// Выполняет команду администратора и возвращает ответ
func (bot *Bot) Handle(ctx context.Context, chatID string, text string) string {
	if !bot.isAdmin(chatID) {
		if bot.conf.Debug {
			log.Printf("Не допустили к управлению чат %s", chatID)
		}
		return accessDeniedMessage
	}

	name, args := parseCommand(text)
	command := bot.CommandByName(name)
	if command == nil {
		return bot.commandSuggestions(name)
	}

	log.Printf("Команда администратора: %s", strings.TrimSpace(text))

	return command.Call(ctx, args)
}

func (bot *Bot) commandSuggestions(input string) string {
	message := "❓ Неизвестная команда."

	suggestions := bot.findSimilarCommands(input)
	if len(suggestions) == 0 || input == "" {
		return message + " Для справки используйте /help"
	}

	message += " Возможно, имеется в виду одна из этих команд:\n"
	for _, name := range suggestions {
		command := bot.CommandByName(name)
		if command != nil {
			message += fmt.Sprintf("/%s - %s\n", command.Name, command.Description)
		}
	}
	message += "\nДля справки используйте /help [команда]"

	return message
}

func constructCommandHelpMessage(command Command) string {
	commandHelp := fmt.Sprintf("\n/%s - %s\n", command.Name, command.Description)
	if command.Example != "" {
		commandHelp += fmt.Sprintf("Пример: %s\n", command.Example)
	}

	return commandHelp
}

func (bot *Bot) Help(ctx context.Context, args []string) string {
	if len(args) >= 1 {
		// Ответить лишь по конкретной команде
		command := bot.CommandByName(strings.ToLower(strings.TrimPrefix(args[0], "/")))
		if command != nil {
			return constructCommandHelpMessage(*command)
		}
	}

	helpMessage := "🌍 Бот для генерации и публикации постов о путешествиях"

	commandsByGroup := make(map[string][]Command)
	for _, command := range bot.commands {
		commandsByGroup[command.Group] = append(commandsByGroup[command.Group], command)
	}

	groups := []string{}
	for g := range commandsByGroup {
		groups = append(groups, g)
	}
	sort.Strings(groups)

	for _, group := range groups {
		helpMessage += fmt.Sprintf("\n\n[%s]", group)
		for _, command := range commandsByGroup[group] {
			helpMessage += constructCommandHelpMessage(command)
		}
	}

	return helpMessage
}

func enabledText(enabled bool) string {
	if enabled {
		return "включена"
	}
	return "выключена"
}

func (bot *Bot) ShowSchedule(ctx context.Context, args []string) string {
	schedule := bot.Schedule.Snapshot()
	location := bot.Schedule.Location()

	var response strings.Builder
	response.WriteString("📅 Расписание публикаций\n\n")
	response.WriteString(fmt.Sprintf("Публикация по расписанию: %s\n", enabledText(schedule.Enabled)))

	if schedule.NextPostTime != nil {
		response.WriteString(fmt.Sprintf("Время публикации: %s (%s)\n", *schedule.NextPostTime, location))
	} else {
		response.WriteString("Время публикации: не задано\n")
	}
	response.WriteString(fmt.Sprintf("Частота: каждые %d ч\n", schedule.FrequencyHours))

	if next, ok := bot.Schedule.NextRunAt(); ok {
		response.WriteString(fmt.Sprintf("Следующая публикация: %s (%s)\n",
			formatTime(next, location),
			formatUntil(next.Sub(bot.now())),
		))
	} else {
		response.WriteString("Следующая публикация: не запланирована\n")
	}

	if bot.RelayMode() {
		response.WriteString("Режим: через внешний ретранслятор\n")
	} else {
		response.WriteString("Режим: прямая публикация\n")
	}

	return response.String()
}

func (bot *Bot) GenerateNow(ctx context.Context, args []string) string {
	go func() {
		// Команда не должна зависеть от жизни запроса
		publishCtx := context.WithoutCancel(ctx)
		if _, err := bot.Publish(publishCtx); err != nil {
			log.Printf("Внеочередная публикация не удалась: %s", err)
			bot.NotifyAdmin("❌ Внеочередная публикация не удалась: " + err.Error())
		}
	}()

	return "🚀 Генерация поста запущена, расписание не изменится."
}

func (bot *Bot) applyPostTime(value string) string {
	err := bot.Schedule.SetNextPostTime(value)
	if errors.Is(err, store.ErrInvalidTime) {
		return "❌ Неверный формат времени. Используйте ЧЧ:ММ, например 09:00"
	}
	if err != nil {
		return "⚠️ Время установлено, но не сохранено: " + err.Error()
	}

	response := fmt.Sprintf("✅ Время публикации: %s (%s)", value, bot.Schedule.Location())
	if next, ok := bot.Schedule.NextRunAt(); ok {
		response += "\nСледующая публикация: " + formatTime(next, bot.Schedule.Location())
	}

	return response
}

func (bot *Bot) SetTime(ctx context.Context, args []string) string {
	if len(args) < 1 {
		return "❌ Укажите время в формате ЧЧ:ММ, например /settime 09:00"
	}

	hour, minute, err := store.ParseClock(args[0])
	if err != nil {
		return "❌ Неверный формат времени. Используйте ЧЧ:ММ, например /settime 09:00"
	}

	return bot.applyPostTime(fmt.Sprintf("%02d:%02d", hour, minute))
}

// Время в часовом поясе администратора переводится в часовой пояс расписания
func (bot *Bot) SetLocalTime(ctx context.Context, args []string) string {
	local := bot.conf.LocalLocation()
	if local == nil {
		return "❌ Локальный часовой пояс не настроен (LOCAL_TIMEZONE)"
	}

	if len(args) < 1 {
		return "❌ Укажите время в формате ЧЧ:ММ, например /setlocal 12:30"
	}

	hour, minute, err := store.ParseClock(args[0])
	if err != nil {
		return "❌ Неверный формат времени. Используйте ЧЧ:ММ, например /setlocal 12:30"
	}

	today := bot.now().In(local)
	localTime := time.Date(today.Year(), today.Month(), today.Day(), hour, minute, 0, 0, local)
	serverTime := localTime.In(bot.Schedule.Location())

	response := bot.applyPostTime(serverTime.Format("15:04"))
	if strings.HasPrefix(response, "✅") {
		response += fmt.Sprintf("\n(%02d:%02d по %s)", hour, minute, local)
	}

	return response
}

func (bot *Bot) SetFrequency(ctx context.Context, args []string) string {
	if len(args) < 1 {
		return "❌ Укажите частоту в часах, например /setfreq 12"
	}

	hours, err := strconv.Atoi(args[0])
	if err != nil {
		return "❌ Частота должна быть целым числом часов, например /setfreq 12"
	}

	err = bot.Schedule.SetFrequency(hours)
	if errors.Is(err, store.ErrInvalidFrequency) {
		return "❌ Частота должна быть не меньше 1 часа"
	}
	if err != nil {
		return "⚠️ Частота установлена, но не сохранена: " + err.Error()
	}

	return fmt.Sprintf("✅ Частота публикаций: каждые %d ч", hours)
}

func renderStats(summary db.StatsSummary, location *time.Location) string {
	var response strings.Builder
	response.WriteString(fmt.Sprintf("📊 Статистика за %d дн.\n\n", summary.PeriodDays))

	if summary.TotalPosts == 0 {
		response.WriteString("Публикаций за этот период нет.")
		return response.String()
	}

	response.WriteString(fmt.Sprintf("Постов: %d\n", summary.TotalPosts))
	response.WriteString(fmt.Sprintf("Просмотров: %d (в среднем %.1f)\n", summary.TotalViews, summary.AvgViews))
	response.WriteString(fmt.Sprintf("Комментариев: %d (в среднем %.1f)\n", summary.TotalComments, summary.AvgComments))

	response.WriteString("\nПоследние посты:\n")
	for _, post := range summary.Posts {
		response.WriteString(fmt.Sprintf("• %s: 👁 %d 💬 %d\n",
			formatTime(post.Timestamp, location),
			post.Views,
			post.Comments,
		))
	}

	return response.String()
}

// Неверное число дней молча заменяется на 7
func (bot *Bot) ShowStats(ctx context.Context, args []string) string {
	days := defaultStatsDays
	if len(args) >= 1 {
		if parsed, err := strconv.Atoi(args[0]); err == nil && parsed > 0 {
			days = parsed
		}
	}

	return renderStats(bot.Stats.Summary(days), bot.Schedule.Location())
}

func (bot *Bot) ToggleSchedule(ctx context.Context, args []string) string {
	enabled, err := bot.Schedule.Toggle()
	response := fmt.Sprintf("✅ Публикация по расписанию %s", enabledText(enabled))
	if err != nil {
		response += "\n⚠️ Изменение не сохранено: " + err.Error()
	}

	return response
}

func (bot *Bot) ListGroups(ctx context.Context, args []string) string {
	groups := bot.Groups.All()
	if len(groups) == 0 {
		active, ok := bot.Groups.Active()
		if ok {
			return fmt.Sprintf("Группы не добавлены. Публикация идет в группу по умолчанию: %s", active)
		}
		return "Группы не добавлены. Отправьте /addgroup внутри нужной группы."
	}

	active, _ := bot.Groups.Active()

	var response strings.Builder
	response.WriteString("📋 Группы для публикации:\n\n")
	for _, group := range groups {
		mark := "🔹"
		if group.GroupID == active {
			mark = "✅"
		}
		response.WriteString(fmt.Sprintf("%s %s\nID: %s\n\n", mark, group.Title, group.GroupID))
	}
	response.WriteString("✅ - активная группа")

	return response.String()
}

func (bot *Bot) SetGroup(ctx context.Context, args []string) string {
	if len(args) < 1 {
		return "❌ Укажите ID группы, например /setgroup -1001234567890"
	}

	if err := bot.Groups.SetActive(args[0]); err != nil {
		return "❌ Не удалось сменить группу: " + err.Error()
	}

	return fmt.Sprintf("✅ Активная группа: %s (%s)", bot.Groups.Title(args[0]), args[0])
}

func (bot *Bot) AddGroupHint(ctx context.Context, args []string) string {
	return "ℹ️ Чтобы добавить группу, добавьте бота в нее и отправьте /addgroup прямо в этой группе."
}

func (bot *Bot) NextPost(ctx context.Context, args []string) string {
	postTime, ok := bot.Schedule.NextPostTime()
	if !ok {
		postTime = "не задано"
	}

	response := fmt.Sprintf("⏰ Время публикации: %s\nЧастота: каждые %d ч", postTime, bot.Schedule.Frequency())
	if next, ok := bot.Schedule.NextRunAt(); ok {
		response += fmt.Sprintf("\nСледующий пост: %s (%s)",
			formatTime(next, bot.Schedule.Location()),
			formatUntil(next.Sub(bot.now())),
		)
	}
	if !bot.Schedule.Enabled() {
		response += "\n⏸ Публикация по расписанию выключена"
	}

	return response
}
