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
	"database/sql"
	"time"
)

func (b *SQLBackend) AppendComment(ctx context.Context, comment Comment, limit int) error {
	_, err := b.exec(ctx, `
		INSERT INTO comments (chat_id, message_id, text, ts)
		VALUES (?, ?, ?, ?)
	`, comment.ChatID, comment.MessageID, comment.Text, toNanos(comment.Timestamp))
	if err != nil {
		return err
	}

	return b.trim(ctx, "comments", limit)
}

func (b *SQLBackend) LatestComment(ctx context.Context, chatID string) (*Comment, error) {
	var (
		row *sql.Row
		err error
	)
	if chatID == "" {
		row, err = b.queryRow(ctx, `
			SELECT chat_id, message_id, text, ts
			FROM comments ORDER BY id DESC LIMIT 1
		`)
	} else {
		row, err = b.queryRow(ctx, `
			SELECT chat_id, message_id, text, ts
			FROM comments WHERE chat_id = ? ORDER BY id DESC LIMIT 1
		`, chatID)
	}
	if err != nil {
		return nil, err
	}

	var (
		comment Comment
		ts      int64
	)
	err = row.Scan(&comment.ChatID, &comment.MessageID, &comment.Text, &ts)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	comment.Timestamp = fromNanos(ts)

	return &comment, nil
}

func (b *SQLBackend) CountComments(ctx context.Context, chatID string, since time.Time) (int, error) {
	var (
		row *sql.Row
		err error
	)
	if chatID == "" {
		row, err = b.queryRow(ctx, `SELECT COUNT(*) FROM comments WHERE ts >= ?`, toNanos(since))
	} else {
		row, err = b.queryRow(ctx, `
			SELECT COUNT(*) FROM comments WHERE chat_id = ? AND ts >= ?
		`, chatID, toNanos(since))
	}
	if err != nil {
		return 0, err
	}

	var count int
	err = row.Scan(&count)
	return count, err
}

func (b *SQLBackend) Comments(ctx context.Context) ([]Comment, error) {
	rows, err := b.query(ctx, `
		SELECT chat_id, message_id, text, ts
		FROM comments ORDER BY id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var comments []Comment
	for rows.Next() {
		var (
			comment Comment
			ts      int64
		)
		if err := rows.Scan(&comment.ChatID, &comment.MessageID, &comment.Text, &ts); err != nil {
			return nil, err
		}
		comment.Timestamp = fromNanos(ts)
		comments = append(comments, comment)
	}

	return comments, rows.Err()
}
