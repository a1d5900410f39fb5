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

package telegram

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"time"

	"Unbewohnte/TRAVELPOSTbot/internal/bot/social"

	"github.com/mymmrac/telego"
)

// Ограничение Telegram на подпись к фото
const CaptionLimit = 1024

type Client struct {
	api *telego.Bot
}

// apiServer пустой для api.telegram.org
func NewClient(token string, apiServer string, debug bool) (*Client, error) {
	options := []telego.BotOption{}
	if apiServer != "" {
		options = append(options, telego.WithAPIServer(apiServer))
	}
	if debug {
		options = append(options, telego.WithDefaultDebugLogger())
	} else {
		options = append(options, telego.WithDiscardLogger())
	}

	api, err := telego.NewBot(token, options...)
	if err != nil {
		return nil, fmt.Errorf("создание клиента Telegram: %w", err)
	}

	return &Client{
		api: api,
	}, nil
}

// Числовой ID или @username канала
func chatID(value string) telego.ChatID {
	if id, err := strconv.ParseInt(value, 10, 64); err == nil {
		return telego.ChatID{ID: id}
	}
	return telego.ChatID{Username: value}
}

func (c *Client) SendText(ctx context.Context, chat string, text string) (string, error) {
	message, err := c.api.SendMessage(ctx, &telego.SendMessageParams{
		ChatID: chatID(chat),
		Text:   text,
		LinkPreviewOptions: &telego.LinkPreviewOptions{
			IsDisabled: true,
		},
	})
	if err != nil {
		return "", fmt.Errorf("отправка сообщения в %s: %w", chat, err)
	}

	return strconv.Itoa(message.MessageID), nil
}

func (c *Client) SendPhoto(ctx context.Context, chat string, photoURL string, caption string) (string, error) {
	caption = Truncate(caption, CaptionLimit)

	message, err := c.api.SendPhoto(ctx, &telego.SendPhotoParams{
		ChatID:  chatID(chat),
		Photo:   telego.InputFile{URL: photoURL},
		Caption: caption,
	})
	if err != nil {
		return "", fmt.Errorf("отправка фото в %s: %w", chat, err)
	}

	return strconv.Itoa(message.MessageID), nil
}

// Имя бота для проверки токена при старте
func (c *Client) Username(ctx context.Context) (string, error) {
	me, err := c.api.GetMe(ctx)
	if err != nil {
		return "", err
	}
	return me.Username, nil
}

// Получает обновления длинным опросом, пока не отменен ctx
func (c *Client) Listen(ctx context.Context, handle func(social.Message)) error {
	updates, err := c.api.UpdatesViaLongPolling(ctx, &telego.GetUpdatesParams{
		Timeout: 60,
	})
	if err != nil {
		return fmt.Errorf("запуск длинного опроса: %w", err)
	}

	for update := range updates {
		message, ok := MessageFromUpdate(update)
		if !ok {
			continue
		}

		go handle(message)
	}

	if errors.Is(ctx.Err(), context.Canceled) {
		log.Printf("Получение обновлений Telegram остановлено")
		return nil
	}

	return ctx.Err()
}

// Приводит обновление Telegram к social.Message. Только сообщения и посты каналов
func MessageFromUpdate(update telego.Update) (social.Message, bool) {
	message := update.Message
	if message == nil {
		message = update.ChannelPost
	}
	if message == nil {
		return social.Message{}, false
	}

	text := message.Text
	if text == "" {
		text = message.Caption
	}

	result := social.Message{
		ChatID:    strconv.FormatInt(message.Chat.ID, 10),
		ChatType:  message.Chat.Type,
		ChatTitle: message.Chat.Title,
		MessageID: strconv.Itoa(message.MessageID),
		Text:      text,
		Date:      time.Unix(message.Date, 0),
	}

	if message.From != nil {
		result.FromID = strconv.FormatInt(message.From.ID, 10)
	}

	return result, true
}

// Обрезает текст до limit символов (не байт)
func Truncate(text string, limit int) string {
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit])
}
