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

import "time"

const (
	DefaultFrequencyHours = 24
	CommentsCap           = 200
	PostStatsCap          = 100
)

// Расписание публикаций (единственная запись)
type Schedule struct {
	NextPostTime   *string    `json:"next_post_time"` // "HH:MM" или ISO время
	FrequencyHours int        `json:"frequency_hours"`
	Enabled        bool       `json:"enabled"`
	NextRunAt      *time.Time `json:"next_run_at"` // Когда реально публиковать
}

func DefaultSchedule() Schedule {
	return Schedule{
		FrequencyHours: DefaultFrequencyHours,
		Enabled:        true,
	}
}

// Копия без общих указателей
func (s Schedule) Clone() Schedule {
	clone := s
	if s.NextPostTime != nil {
		value := *s.NextPostTime
		clone.NextPostTime = &value
	}
	if s.NextRunAt != nil {
		value := *s.NextRunAt
		clone.NextRunAt = &value
	}
	return clone
}

// Модель входящего комментария
type Comment struct {
	ChatID    string    `json:"chat_id"`
	MessageID string    `json:"message_id,omitempty"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// Модель группы для публикаций
type Group struct {
	GroupID  string `json:"group_id"`
	Title    string `json:"title"`
	IsActive bool   `json:"is_active"`
}

// Статистика опубликованного поста
type PostStat struct {
	PostID    string    `json:"post_id"`
	TextID    string    `json:"text_id,omitempty"`
	PhotoID   string    `json:"photo_id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	Views     int       `json:"views"`
	Comments  int       `json:"comments"`
}

// Совпадает ли ключ с одним из идентификаторов поста
func (p PostStat) Matches(key string) bool {
	if key == "" {
		return false
	}
	return p.PostID == key || p.TextID == key || p.PhotoID == key
}

// Сводка статистики за период
type StatsSummary struct {
	PeriodDays    int        `json:"period_days"`
	TotalPosts    int        `json:"total_posts"`
	TotalViews    int        `json:"total_views"`
	TotalComments int        `json:"total_comments"`
	AvgViews      float64    `json:"avg_views"`
	AvgComments   float64    `json:"avg_comments"`
	Posts         []PostStat `json:"posts"`
}
