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

func (b *SQLBackend) AppendPostStat(ctx context.Context, stat PostStat, limit int) error {
	_, err := b.exec(ctx, `
		INSERT INTO stats_posts (post_id, text_id, photo_id, ts, views, comments_count)
		VALUES (?, ?, ?, ?, ?, ?)
	`, stat.PostID, stat.TextID, stat.PhotoID, toNanos(stat.Timestamp), stat.Views, stat.Comments)
	if err != nil {
		return err
	}

	return b.trim(ctx, "stats_posts", limit)
}

func (b *SQLBackend) UpdatePostStat(ctx context.Context, key string, views, comments *int) error {
	if key == "" {
		return nil
	}

	var (
		sets []string
		args []any
	)
	if views != nil {
		sets = append(sets, "views = ?")
		args = append(args, *views)
	}
	if comments != nil {
		sets = append(sets, "comments_count = ?")
		args = append(args, *comments)
	}
	if len(sets) == 0 {
		return nil
	}
	args = append(args, key, key, key)

	_, err := b.exec(ctx,
		"UPDATE stats_posts SET "+strings.Join(sets, ", ")+
			" WHERE post_id = ? OR text_id = ? OR photo_id = ?",
		args...,
	)
	return err
}

func (b *SQLBackend) PostStats(ctx context.Context, since time.Time) ([]PostStat, error) {
	rows, err := b.query(ctx, `
		SELECT post_id, text_id, photo_id, ts, views, comments_count
		FROM stats_posts
		WHERE ts >= ?
		ORDER BY id DESC
	`, toNanos(since))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stats []PostStat
	for rows.Next() {
		var (
			stat PostStat
			ts   int64
		)
		err := rows.Scan(
			&stat.PostID,
			&stat.TextID,
			&stat.PhotoID,
			&ts,
			&stat.Views,
			&stat.Comments,
		)
		if err != nil {
			return nil, err
		}
		stat.Timestamp = fromNanos(ts)
		stats = append(stats, stat)
	}

	return stats, rows.Err()
}
