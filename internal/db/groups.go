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
)

func (b *SQLBackend) LoadGroups(ctx context.Context) ([]Group, error) {
	rows, err := b.query(ctx, `
		SELECT group_id, title, is_active
		FROM publish_groups
		ORDER BY id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var groups []Group
	for rows.Next() {
		var group Group
		err := rows.Scan(
			&group.GroupID,
			&group.Title,
			&group.IsActive,
		)
		if err != nil {
			return nil, err
		}

		groups = append(groups, group)
	}

	return groups, rows.Err()
}

func (b *SQLBackend) UpsertGroup(ctx context.Context, groupID, title string) error {
	if title == "" {
		// Новая группа без названия получает ID вместо названия, у существующей ничего не меняем
		_, err := b.exec(ctx, `
			INSERT INTO publish_groups (group_id, title, is_active)
			VALUES (?, ?, ?)
			ON CONFLICT (group_id) DO NOTHING
		`, groupID, groupID, false)
		return err
	}

	_, err := b.exec(ctx, `
		INSERT INTO publish_groups (group_id, title, is_active)
		VALUES (?, ?, ?)
		ON CONFLICT (group_id) DO UPDATE SET title = excluded.title
	`, groupID, title, false)
	return err
}

func (b *SQLBackend) SetActiveGroup(ctx context.Context, groupID, fallbackTitle string) error {
	conn, err := b.handle(ctx)
	if err != nil {
		return err
	}

	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, b.rebind(`UPDATE publish_groups SET is_active = ?`), false)
	if err != nil {
		return err
	}

	result, err := tx.ExecContext(ctx, b.rebind(`
		UPDATE publish_groups SET is_active = ? WHERE group_id = ?
	`), true, groupID)
	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if affected == 0 {
		_, err = tx.ExecContext(ctx, b.rebind(`
			INSERT INTO publish_groups (group_id, title, is_active)
			VALUES (?, ?, ?)
		`), groupID, fallbackTitle, true)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}
