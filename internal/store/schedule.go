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
	"strings"
	"sync"
	"time"

	"Unbewohnte/TRAVELPOSTbot/internal/db"
)

// Расписание публикаций. Каждое изменение сразу сохраняется
type ScheduleStore struct {
	backend  db.ScheduleBackend
	location *time.Location
	now      func() time.Time

	mu      sync.Mutex
	current db.Schedule
}

func NewScheduleStore(backend db.ScheduleBackend, location *time.Location, now func() time.Time) *ScheduleStore {
	if location == nil {
		location = time.Local
	}

	return &ScheduleStore{
		backend:  backend,
		location: location,
		now:      nowOrDefault(now),
		current:  db.DefaultSchedule(),
	}
}

// Часовой пояс, в котором трактуется "ЧЧ:ММ"
func (s *ScheduleStore) Location() *time.Location {
	return s.location
}

// Вызывается под s.mu. При ошибке чтения остаемся с последним известным состоянием
func (s *ScheduleStore) load() {
	ctx, cancel := operationContext()
	defer cancel()

	schedule, err := s.backend.LoadSchedule(ctx)
	if err != nil {
		log.Printf("Не удалось загрузить расписание: %s. Используем последнее известное", err)
		return
	}

	s.current = schedule
}

// Вызывается под s.mu
func (s *ScheduleStore) save() error {
	ctx, cancel := operationContext()
	defer cancel()

	if err := s.backend.SaveSchedule(ctx, s.current.Clone()); err != nil {
		log.Printf("Не удалось сохранить расписание: %s", err)
		return fmt.Errorf("сохранение расписания: %w", err)
	}

	return nil
}

func (s *ScheduleStore) Snapshot() db.Schedule {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.load()
	return s.current.Clone()
}

func (s *ScheduleStore) NextPostTime() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.load()
	if s.current.NextPostTime == nil {
		return "", false
	}

	return *s.current.NextPostTime, true
}

// Принимает "ЧЧ:ММ" или ISO время. "ЧЧ:ММ" сразу пересчитывает next_run_at,
// ISO время сбрасывает его, чтобы NextRunAt взял значение из next_post_time
func (s *ScheduleStore) SetNextPostTime(value string) error {
	var (
		normalized string
		nextRunAt  *time.Time
	)

	if hour, minute, err := ParseClock(value); err == nil {
		normalized = fmt.Sprintf("%02d:%02d", hour, minute)
		next := NextOccurrence(hour, minute, s.now(), s.location)
		nextRunAt = &next
	} else if _, err := ParseTimestamp(value, s.location); err == nil {
		normalized = strings.TrimSpace(value)
	} else {
		return fmt.Errorf("%w: %q", ErrInvalidTime, value)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.load()
	s.current.NextPostTime = &normalized
	s.current.NextRunAt = nextRunAt

	return s.save()
}

func (s *ScheduleStore) Frequency() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.load()
	return s.current.FrequencyHours
}

// Верхней границы нет
func (s *ScheduleStore) SetFrequency(hours int) error {
	if hours < 1 {
		return ErrInvalidFrequency
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.load()
	s.current.FrequencyHours = hours

	return s.save()
}

func (s *ScheduleStore) Enabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.load()
	return s.current.Enabled
}

func (s *ScheduleStore) SetEnabled(enabled bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.load()
	s.current.Enabled = enabled

	return s.save()
}

// Переключает расписание и возвращает новое значение
func (s *ScheduleStore) Toggle() (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.load()
	s.current.Enabled = !s.current.Enabled

	return s.current.Enabled, s.save()
}

// Момент следующей публикации. Если он еще не вычислен, выводится из
// next_post_time и сохраняется
func (s *ScheduleStore) NextRunAt() (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.load()
	if s.current.NextRunAt != nil {
		return *s.current.NextRunAt, true
	}

	if s.current.NextPostTime == nil {
		return time.Time{}, false
	}

	var next time.Time
	value := *s.current.NextPostTime
	if hour, minute, err := ParseClock(value); err == nil {
		next = NextOccurrence(hour, minute, s.now(), s.location)
	} else if timestamp, err := ParseTimestamp(value, s.location); err == nil {
		next = timestamp
	} else {
		log.Printf("Некорректное next_post_time в расписании: %q", value)
		return time.Time{}, false
	}

	s.current.NextRunAt = &next
	s.save()

	return next, true
}

// Сдвигает следующую публикацию на frequency_hours от текущего момента.
// Вызывается только после успешной (или переданной ретранслятору) публикации
func (s *ScheduleStore) SetNextRunAfterPublish() (time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.load()
	next := AddHours(s.now(), s.current.FrequencyHours)
	s.current.NextRunAt = &next

	return next, s.save()
}
