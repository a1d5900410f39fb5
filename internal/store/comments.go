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

package store

import (
	"fmt"
	"log"
	"time"

	"Unbewohnte/TRAVELPOSTbot/internal/db"
)

// Кэш последних комментариев. Хранит не более limit записей,
// вытесняя самые старые по порядку добавления
type CommentCache struct {
	backend  db.CommentBackend
	limit    int
	location *time.Location
	now      func() time.Time
}

// location - часовой пояс для меток времени без смещения, как у расписания
func NewCommentCache(backend db.CommentBackend, location *time.Location, now func() time.Time) *CommentCache {
	if location == nil {
		location = time.Local
	}

	return &CommentCache{
		backend:  backend,
		limit:    db.CommentsCap,
		location: location,
		now:      nowOrDefault(now),
	}
}

// timestamp - ISO время или пустая строка (текущий момент)
func (c *CommentCache) Add(chatID, messageID, text, timestamp string) error {
	if chatID == "" {
		return fmt.Errorf("%w: chat_id", ErrEmptyID)
	}

	ts := c.now()
	if timestamp != "" {
		parsed, err := ParseTimestamp(timestamp, c.location)
		if err != nil {
			return err
		}
		ts = parsed
	}

	ctx, cancel := operationContext()
	defer cancel()

	err := c.backend.AppendComment(ctx, db.Comment{
		ChatID:    chatID,
		MessageID: messageID,
		Text:      text,
		Timestamp: ts,
	}, c.limit)
	if err != nil {
		log.Printf("Не удалось сохранить комментарий из %s: %s", chatID, err)
		return err
	}

	return nil
}

func (c *CommentCache) latest(chatID string) (string, bool) {
	ctx, cancel := operationContext()
	defer cancel()

	comment, err := c.backend.LatestComment(ctx, chatID)
	if err != nil {
		log.Printf("Не удалось получить последний комментарий: %s", err)
		return "", false
	}
	if comment == nil {
		return "", false
	}

	return comment.Text, true
}

// Текст последнего добавленного комментария по всем чатам
func (c *CommentCache) LatestAny() (string, bool) {
	return c.latest("")
}

func (c *CommentCache) LatestForChat(chatID string) (string, bool) {
	if chatID == "" {
		return "", false
	}
	return c.latest(chatID)
}

// Количество комментариев в чате начиная с since
func (c *CommentCache) CountSince(chatID string, since time.Time) int {
	ctx, cancel := operationContext()
	defer cancel()

	count, err := c.backend.CountComments(ctx, chatID, since)
	if err != nil {
		log.Printf("Не удалось посчитать комментарии в %s: %s", chatID, err)
		return 0
	}

	return count
}

func (c *CommentCache) All() []db.Comment {
	ctx, cancel := operationContext()
	defer cancel()

	comments, err := c.backend.Comments(ctx)
	if err != nil {
		log.Printf("Не удалось получить комментарии: %s", err)
		return nil
	}

	return comments
}
