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
	"strings"
	"time"

	"Unbewohnte/TRAVELPOSTbot/internal/bot/social/telegram"
)

// Сгенерированный пост
type Post struct {
	FullText string
	Title    string
	Body     string
	PhotoURL string
}

type PublishResult struct {
	ChatID      string
	TextID      string
	PhotoID     string
	PublishedAt time.Time
}

// Заголовок - первая строка, тело - все после первой пустой (или из одних
// пробелов) строки. Без пустых строк тело - все после заголовка
func SplitPost(text string) (string, string) {
	lines := strings.Split(strings.TrimSpace(strings.ReplaceAll(text, "\r\n", "\n")), "\n")

	title := strings.TrimSpace(lines[0])
	rest := lines[1:]
	for i, line := range rest {
		if strings.TrimSpace(line) == "" {
			rest = rest[i+1:]
			break
		}
	}

	return title, strings.TrimSpace(strings.Join(rest, "\n"))
}

// Комментарий для персонализации: сначала из активной группы, затем любой
func (bot *Bot) pickComment(ctx context.Context, chatID string) string {
	comment, ok := bot.Comments.LatestForChat(chatID)
	if !ok {
		comment, ok = bot.Comments.LatestAny()
	}
	if !ok {
		return ""
	}

	if !bot.generator.IsTravelRelated(ctx, comment) {
		log.Printf("Последний комментарий не о путешествиях, генерируем без него")
		return ""
	}

	return comment
}

// Генерирует текст и изображение поста
func (bot *Bot) compose(ctx context.Context, chatID string) Post {
	comment := bot.pickComment(ctx, chatID)
	text := bot.generator.GenerateText(ctx, comment)
	imagePrompt := bot.generator.GenerateImagePrompt(ctx, text)
	photoURL := bot.generator.GenerateImage(ctx, imagePrompt)

	title, body := SplitPost(text)

	return Post{
		FullText: text,
		Title:    title,
		Body:     body,
		PhotoURL: photoURL,
	}
}

// С изображением: фото с заголовком, затем тело поста отдельным сообщением.
// Без изображения или при ошибке фото: весь текст одним сообщением
func (bot *Bot) deliver(ctx context.Context, chatID string, post Post) (PublishResult, error) {
	result := PublishResult{ChatID: chatID}

	if post.PhotoURL != "" {
		photoID, err := bot.messenger.SendPhoto(ctx, chatID, post.PhotoURL, telegram.Truncate(post.Title, telegram.CaptionLimit))
		if err == nil {
			result.PhotoID = photoID
			if post.Body == "" {
				return result, nil
			}

			textID, err := bot.messenger.SendText(ctx, chatID, post.Body)
			if err != nil {
				log.Printf("Фото отправлено, но текст поста нет: %s", err)
				bot.NotifyAdmin("⚠️ Фото опубликовано, но текст поста отправить не удалось: " + err.Error())
				return result, nil
			}
			result.TextID = textID
			return result, nil
		}

		log.Printf("Не удалось отправить фото: %s. Отправляем только текст", err)
		bot.NotifyAdmin("⚠️ Не удалось отправить фото, публикуем только текст: " + err.Error())
	}

	textID, err := bot.messenger.SendText(ctx, chatID, post.FullText)
	if err != nil {
		return result, fmt.Errorf("публикация поста: %w", err)
	}
	result.TextID = textID

	return result, nil
}

// Полный цикл: генерация, публикация, статистика
func (bot *Bot) Publish(ctx context.Context) (*PublishResult, error) {
	if bot.messenger == nil {
		return nil, ErrNoMessenger
	}

	chatID, ok := bot.Groups.Active()
	if !ok {
		return nil, ErrNoDestination
	}

	bot.NotifyAdmin("🚀 Начинаем генерацию поста...")
	log.Printf("Генерация поста для %s", chatID)

	post := bot.compose(ctx, chatID)
	if strings.TrimSpace(post.FullText) == "" {
		return nil, errors.New("сгенерирован пустой пост")
	}

	result, err := bot.deliver(ctx, chatID, post)
	if err != nil {
		return nil, err
	}
	result.PublishedAt = bot.now()

	postID := result.PhotoID
	if postID == "" {
		postID = result.TextID
	}
	if err := bot.Stats.AddPost(postID, result.TextID, result.PhotoID); err == nil {
		bot.scheduleEngagementRefresh(chatID, postID, result.PublishedAt)
	}

	log.Printf("Пост опубликован в %s (фото: %q, текст: %q)", chatID, result.PhotoID, result.TextID)
	bot.NotifyAdmin(fmt.Sprintf("✅ Пост опубликован в %s", chatID))

	return &result, nil
}

// Через engagementDelay подсчитывает комментарии к посту. Не отменяется при
// остановке процесса и не переживает перезапуск
func (bot *Bot) scheduleEngagementRefresh(chatID, postID string, publishedAt time.Time) *time.Timer {
	return time.AfterFunc(bot.engagementDelay, func() {
		comments := bot.Comments.CountSince(chatID, publishedAt)
		if err := bot.Stats.UpdatePost(postID, nil, &comments); err != nil {
			return
		}

		if bot.conf.Debug {
			log.Printf("Статистика поста %s обновлена: %d комментариев", postID, comments)
		}
	})
}
