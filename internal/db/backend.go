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

package db

import (
	"context"
	"strings"
	"time"
)

type ScheduleBackend interface {
	// Возвращает расписание по умолчанию, если ничего не сохранено
	LoadSchedule(ctx context.Context) (Schedule, error)
	SaveSchedule(ctx context.Context, schedule Schedule) error
}

type CommentBackend interface {
	// Добавляет комментарий и оставляет не более limit последних
	AppendComment(ctx context.Context, comment Comment, limit int) error
	// Последний добавленный комментарий. Пустой chatID - по всем чатам
	LatestComment(ctx context.Context, chatID string) (*Comment, error)
	CountComments(ctx context.Context, chatID string, since time.Time) (int, error)
	// Все комментарии в порядке добавления
	Comments(ctx context.Context) ([]Comment, error)
}

type GroupBackend interface {
	// Группы в порядке добавления
	LoadGroups(ctx context.Context) ([]Group, error)
	// Название обновляется только если оно не пустое
	UpsertGroup(ctx context.Context, groupID, title string) error
	// Снимает активность со всех остальных групп, неизвестную группу создает
	SetActiveGroup(ctx context.Context, groupID, fallbackTitle string) error
}

type StatsBackend interface {
	AppendPostStat(ctx context.Context, stat PostStat, limit int) error
	// nil счетчики не трогаются
	UpdatePostStat(ctx context.Context, key string, views, comments *int) error
	// Новые сверху
	PostStats(ctx context.Context, since time.Time) ([]PostStat, error)
}

type Backend interface {
	ScheduleBackend
	CommentBackend
	GroupBackend
	StatsBackend

	// "file", "postgres" или "sqlite"
	Name() string
	Close() error
}

// Выбирает хранилище один раз при старте: без строки подключения - файлы
func Open(databaseURL string, dataDir string) (Backend, error) {
	if strings.TrimSpace(databaseURL) == "" {
		return NewFileBackend(dataDir)
	}

	return NewSQLBackend(databaseURL)
}
