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

	"Unbewohnte/TRAVELPOSTbot/internal/db"
)

// Реестр групп для публикаций. Активной может быть не более одной группы
type GroupRegistry struct {
	backend   db.GroupBackend
	defaultID string
}

// defaultID используется, когда реестр пуст
func NewGroupRegistry(backend db.GroupBackend, defaultID string) *GroupRegistry {
	return &GroupRegistry{
		backend:   backend,
		defaultID: strings.TrimSpace(defaultID),
	}
}

func (r *GroupRegistry) All() []db.Group {
	ctx, cancel := operationContext()
	defer cancel()

	groups, err := r.backend.LoadGroups(ctx)
	if err != nil {
		log.Printf("Не удалось загрузить группы: %s", err)
		return nil
	}

	return groups
}

// Добавляет группу или обновляет название существующей (если оно не пустое)
func (r *GroupRegistry) Add(groupID, title string) error {
	groupID = strings.TrimSpace(groupID)
	if groupID == "" {
		return fmt.Errorf("%w: group_id", ErrEmptyID)
	}

	ctx, cancel := operationContext()
	defer cancel()

	if err := r.backend.UpsertGroup(ctx, groupID, strings.TrimSpace(title)); err != nil {
		log.Printf("Не удалось сохранить группу %s: %s", groupID, err)
		return err
	}

	return nil
}

// Делает группу активной. Неизвестная группа создается
func (r *GroupRegistry) SetActive(groupID string) error {
	groupID = strings.TrimSpace(groupID)
	if groupID == "" {
		return fmt.Errorf("%w: group_id", ErrEmptyID)
	}

	ctx, cancel := operationContext()
	defer cancel()

	if err := r.backend.SetActiveGroup(ctx, groupID, "Группа "+groupID); err != nil {
		log.Printf("Не удалось сделать группу %s активной: %s", groupID, err)
		return err
	}

	return nil
}

// Активная группа; если ни одна не отмечена - первая добавленная,
// если реестр пуст - группа по умолчанию из конфигурации
func (r *GroupRegistry) Active() (string, bool) {
	groups := r.All()

	for _, group := range groups {
		if group.IsActive {
			return group.GroupID, true
		}
	}

	if len(groups) > 0 {
		return groups[0].GroupID, true
	}

	if r.defaultID != "" {
		return r.defaultID, true
	}

	return "", false
}

func (r *GroupRegistry) Title(groupID string) string {
	for _, group := range r.All() {
		if group.GroupID == groupID {
			return group.Title
		}
	}

	return ""
}
