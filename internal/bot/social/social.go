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

package social

import (
	"context"
	"time"
)

const (
	ChatPrivate    = "private"
	ChatGroup      = "group"
	ChatSupergroup = "supergroup"
	ChatChannel    = "channel"
)

// Входящее сообщение мессенджера
type Message struct {
	ChatID    string
	ChatType  string
	ChatTitle string
	MessageID string
	FromID    string
	Text      string
	Date      time.Time
}

// Сообщение из группы, супергруппы или канала
func (m Message) FromGroup() bool {
	switch m.ChatType {
	case ChatGroup, ChatSupergroup, ChatChannel:
		return true
	default:
		return false
	}
}

// Отправка постов и служебных сообщений. Возвращает ID отправленного сообщения
type Messenger interface {
	SendText(ctx context.Context, chatID string, text string) (string, error)
	SendPhoto(ctx context.Context, chatID string, photoURL string, caption string) (string, error)
}
