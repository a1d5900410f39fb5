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
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"
)

const (
	scheduleFile = "schedule.json"
	commentsFile = "comments.json"
	groupsFile   = "groups.json"
	statsFile    = "stats.json"
)

// Хранилище на JSON файлах: каждый документ читается целиком при создании
// и перезаписывается целиком при каждом изменении
type FileBackend struct {
	dir string

	mu       sync.Mutex
	schedule Schedule
	comments []Comment
	groups   []Group
	stats    []PostStat
}

var _ Backend = (*FileBackend)(nil)

func NewFileBackend(dir string) (*FileBackend, error) {
	if dir == "" {
		dir = "."
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("не удалось создать директорию данных: %w", err)
	}

	backend := &FileBackend{
		dir:      dir,
		schedule: DefaultSchedule(),
	}

	// Ошибки чтения не фатальны: остаемся со значениями по умолчанию
	backend.readDocument(scheduleFile, &backend.schedule)
	if backend.schedule.FrequencyHours < 1 {
		backend.schedule.FrequencyHours = DefaultFrequencyHours
	}
	backend.readDocument(commentsFile, &backend.comments)
	backend.readDocument(groupsFile, &backend.groups)
	backend.readDocument(statsFile, &backend.stats)

	return backend, nil
}

func (fb *FileBackend) Name() string {
	return "file"
}

func (fb *FileBackend) Close() error {
	return nil
}

func (fb *FileBackend) readDocument(name string, target any) {
	path := filepath.Join(fb.dir, name)

	contents, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			log.Printf("Ошибка чтения %s: %s. Используем значения по умолчанию", path, err)
		}
		return
	}

	if err := json.Unmarshal(contents, target); err != nil {
		log.Printf("Поврежденный файл %s: %s. Используем значения по умолчанию", path, err)
	}
}

func (fb *FileBackend) writeDocument(name string, document any) error {
	path := filepath.Join(fb.dir, name)

	contents, err := json.MarshalIndent(document, "", "\t")
	if err != nil {
		return err
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, contents, 0644); err != nil {
		log.Printf("Не удалось записать %s: %s", path, err)
		return err
	}

	if err := os.Rename(tmp, path); err != nil {
		log.Printf("Не удалось записать %s: %s", path, err)
		return err
	}

	return nil
}

func (fb *FileBackend) LoadSchedule(ctx context.Context) (Schedule, error) {
	fb.mu.Lock()
	defer fb.mu.Unlock()

	return fb.schedule.Clone(), nil
}

func (fb *FileBackend) SaveSchedule(ctx context.Context, schedule Schedule) error {
	fb.mu.Lock()
	defer fb.mu.Unlock()

	fb.schedule = schedule.Clone()
	return fb.writeDocument(scheduleFile, fb.schedule)
}

func (fb *FileBackend) AppendComment(ctx context.Context, comment Comment, limit int) error {
	fb.mu.Lock()
	defer fb.mu.Unlock()

	fb.comments = append(fb.comments, comment)
	if limit > 0 && len(fb.comments) > limit {
		// Вытесняем самые старые по порядку добавления
		fb.comments = append([]Comment(nil), fb.comments[len(fb.comments)-limit:]...)
	}

	return fb.writeDocument(commentsFile, fb.comments)
}

func (fb *FileBackend) LatestComment(ctx context.Context, chatID string) (*Comment, error) {
	fb.mu.Lock()
	defer fb.mu.Unlock()

	for i := len(fb.comments) - 1; i >= 0; i-- {
		if chatID == "" || fb.comments[i].ChatID == chatID {
			comment := fb.comments[i]
			return &comment, nil
		}
	}

	return nil, nil
}

func (fb *FileBackend) CountComments(ctx context.Context, chatID string, since time.Time) (int, error) {
	fb.mu.Lock()
	defer fb.mu.Unlock()

	count := 0
	for _, comment := range fb.comments {
		if chatID != "" && comment.ChatID != chatID {
			continue
		}
		if comment.Timestamp.Before(since) {
			continue
		}
		count++
	}

	return count, nil
}

func (fb *FileBackend) Comments(ctx context.Context) ([]Comment, error) {
	fb.mu.Lock()
	defer fb.mu.Unlock()

	return append([]Comment(nil), fb.comments...), nil
}

func (fb *FileBackend) LoadGroups(ctx context.Context) ([]Group, error) {
	fb.mu.Lock()
	defer fb.mu.Unlock()

	return append([]Group(nil), fb.groups...), nil
}

func (fb *FileBackend) UpsertGroup(ctx context.Context, groupID, title string) error {
	fb.mu.Lock()
	defer fb.mu.Unlock()

	for i := range fb.groups {
		if fb.groups[i].GroupID == groupID {
			if title == "" {
				return nil
			}
			fb.groups[i].Title = title
			return fb.writeDocument(groupsFile, fb.groups)
		}
	}

	if title == "" {
		title = groupID
	}
	fb.groups = append(fb.groups, Group{GroupID: groupID, Title: title})

	return fb.writeDocument(groupsFile, fb.groups)
}

func (fb *FileBackend) SetActiveGroup(ctx context.Context, groupID, fallbackTitle string) error {
	fb.mu.Lock()
	defer fb.mu.Unlock()

	found := false
	for i := range fb.groups {
		fb.groups[i].IsActive = fb.groups[i].GroupID == groupID
		if fb.groups[i].IsActive {
			found = true
		}
	}

	if !found {
		fb.groups = append(fb.groups, Group{
			GroupID:  groupID,
			Title:    fallbackTitle,
			IsActive: true,
		})
	}

	return fb.writeDocument(groupsFile, fb.groups)
}

func (fb *FileBackend) AppendPostStat(ctx context.Context, stat PostStat, limit int) error {
	fb.mu.Lock()
	defer fb.mu.Unlock()

	fb.stats = append(fb.stats, stat)
	if limit > 0 && len(fb.stats) > limit {
		fb.stats = append([]PostStat(nil), fb.stats[len(fb.stats)-limit:]...)
	}

	return fb.writeDocument(statsFile, fb.stats)
}

func (fb *FileBackend) UpdatePostStat(ctx context.Context, key string, views, comments *int) error {
	fb.mu.Lock()
	defer fb.mu.Unlock()

	changed := false
	for i := range fb.stats {
		if !fb.stats[i].Matches(key) {
			continue
		}
		if views != nil {
			fb.stats[i].Views = *views
		}
		if comments != nil {
			fb.stats[i].Comments = *comments
		}
		changed = true
	}

	if !changed {
		return nil
	}

	return fb.writeDocument(statsFile, fb.stats)
}

func (fb *FileBackend) PostStats(ctx context.Context, since time.Time) ([]PostStat, error) {
	fb.mu.Lock()
	defer fb.mu.Unlock()

	var stats []PostStat
	for i := len(fb.stats) - 1; i >= 0; i-- {
		if fb.stats[i].Timestamp.Before(since) {
			continue
		}
		stats = append(stats, fb.stats[i])
	}

	return stats, nil
}
