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
	"math"
	"time"

	"Unbewohnte/TRAVELPOSTbot/internal/db"
)

const summaryPostsLimit = 10

// Статистика публикаций, не более db.PostStatsCap последних постов
type StatsStore struct {
	backend db.StatsBackend
	limit   int
	now     func() time.Time
}

func NewStatsStore(backend db.StatsBackend, now func() time.Time) *StatsStore {
	return &StatsStore{
		backend: backend,
		limit:   db.PostStatsCap,
		now:     nowOrDefault(now),
	}
}

func (s *StatsStore) AddPost(postID, textID, photoID string) error {
	if postID == "" {
		postID = photoID
	}
	if postID == "" {
		postID = textID
	}
	if postID == "" {
		return fmt.Errorf("%w: post_id", ErrEmptyID)
	}

	ctx, cancel := operationContext()
	defer cancel()

	err := s.backend.AppendPostStat(ctx, db.PostStat{
		PostID:    postID,
		TextID:    textID,
		PhotoID:   photoID,
		Timestamp: s.now(),
	}, s.limit)
	if err != nil {
		log.Printf("Не удалось сохранить статистику поста %s: %s", postID, err)
		return err
	}

	return nil
}

// key может быть post_id, text_id или photo_id
func (s *StatsStore) UpdatePost(key string, views, comments *int) error {
	ctx, cancel := operationContext()
	defer cancel()

	if err := s.backend.UpdatePostStat(ctx, key, views, comments); err != nil {
		log.Printf("Не удалось обновить статистику поста %s: %s", key, err)
		return err
	}

	return nil
}

func roundOne(value float64) float64 {
	return math.Round(value*10) / 10
}

// Сводка за последние days дней
func (s *StatsStore) Summary(days int) db.StatsSummary {
	summary := db.StatsSummary{
		PeriodDays: days,
		Posts:      []db.PostStat{},
	}

	ctx, cancel := operationContext()
	defer cancel()

	since := s.now().Add(-time.Duration(days) * 24 * time.Hour)
	posts, err := s.backend.PostStats(ctx, since)
	if err != nil {
		log.Printf("Не удалось получить статистику: %s", err)
		return summary
	}

	for _, post := range posts {
		summary.TotalViews += post.Views
		summary.TotalComments += post.Comments
	}

	summary.TotalPosts = len(posts)
	if summary.TotalPosts > 0 {
		summary.AvgViews = roundOne(float64(summary.TotalViews) / float64(summary.TotalPosts))
		summary.AvgComments = roundOne(float64(summary.TotalComments) / float64(summary.TotalPosts))
	}

	if len(posts) > summaryPostsLimit {
		posts = posts[:summaryPostsLimit]
	}
	summary.Posts = append(summary.Posts, posts...)

	return summary
}
