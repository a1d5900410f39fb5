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

// Хранилища состояния бота поверх db.Backend.
// Только эти типы изменяют расписание, комментарии, группы и статистику.
package store

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	ErrInvalidTime      = errors.New("неверный формат времени")
	ErrInvalidFrequency = errors.New("частота должна быть целым числом не меньше 1")
	ErrEmptyID          = errors.New("пустой идентификатор")
)

// Ограничение на одну операцию с хранилищем
const operationTimeout = 10 * time.Second

func operationContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), operationTimeout)
}

func nowOrDefault(now func() time.Time) func() time.Time {
	if now == nil {
		return time.Now
	}
	return now
}

var clockPattern = regexp.MustCompile(`^([01]?[0-9]|2[0-3]):([0-5][0-9])$`)

// Разбирает строгое "ЧЧ:ММ" (0-23:0-59)
func ParseClock(value string) (int, int, error) {
	matches := clockPattern.FindStringSubmatch(strings.TrimSpace(value))
	if matches == nil {
		return 0, 0, fmt.Errorf("%w: ожидается ЧЧ:ММ, получено %q", ErrInvalidTime, value)
	}

	hour, _ := strconv.Atoi(matches[1])
	minute, _ := strconv.Atoi(matches[2])

	return hour, minute, nil
}

// Ближайший момент hour:minute в location строго после now
func NextOccurrence(hour, minute int, now time.Time, location *time.Location) time.Time {
	if location == nil {
		location = now.Location()
	}

	local := now.In(location)
	candidate := time.Date(local.Year(), local.Month(), local.Day(), hour, minute, 0, 0, location)
	if !candidate.After(now) {
		candidate = candidate.AddDate(0, 0, 1)
	}

	return candidate
}

var timestampLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
}

// Разбирает ISO время. Без указания зоны время считается в location
func ParseTimestamp(value string, location *time.Location) (time.Time, error) {
	value = strings.TrimSpace(value)
	if location == nil {
		location = time.Local
	}

	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}

	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, value, location); err == nil {
			return t, nil
		}
	}

	return time.Time{}, fmt.Errorf("%w: %q не является ISO временем", ErrInvalidTime, value)
}

// t + hours часов без переполнения time.Duration: сутки прибавляются
// календарно в UTC, остаток часов - как длительность
func AddHours(t time.Time, hours int) time.Time {
	shifted := t.UTC().AddDate(0, 0, hours/24).Add(time.Duration(hours%24) * time.Hour)
	return shifted.In(t.Location())
}
