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
)

func (b *SQLBackend) LoadSchedule(ctx context.Context) (Schedule, error) {
	row, err := b.queryRow(ctx, `
		SELECT next_post_time, frequency_hours, enabled, next_run_at
		FROM schedule WHERE id = 1
	`)
	if err != nil {
		return DefaultSchedule(), err
	}

	var (
		nextPostTime sql.NullString
		nextRunAt    sql.NullInt64
		schedule     Schedule
	)
	err = row.Scan(&nextPostTime, &schedule.FrequencyHours, &schedule.Enabled, &nextRunAt)
	if err == sql.ErrNoRows {
		return DefaultSchedule(), nil
	}
	if err != nil {
		return DefaultSchedule(), err
	}

	if nextPostTime.Valid {
		value := nextPostTime.String
		schedule.NextPostTime = &value
	}
	if nextRunAt.Valid {
		value := fromNanos(nextRunAt.Int64)
		schedule.NextRunAt = &value
	}
	if schedule.FrequencyHours < 1 {
		schedule.FrequencyHours = DefaultFrequencyHours
	}

	return schedule, nil
}

func (b *SQLBackend) SaveSchedule(ctx context.Context, schedule Schedule) error {
	var (
		nextPostTime sql.NullString
		nextRunAt    sql.NullInt64
	)
	if schedule.NextPostTime != nil {
		nextPostTime = sql.NullString{String: *schedule.NextPostTime, Valid: true}
	}
	if schedule.NextRunAt != nil {
		nextRunAt = sql.NullInt64{Int64: toNanos(*schedule.NextRunAt), Valid: true}
	}

	_, err := b.exec(ctx, `
		UPDATE schedule SET
			next_post_time = ?, frequency_hours = ?, enabled = ?,
			next_run_at = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = 1
	`, nextPostTime, schedule.FrequencyHours, schedule.Enabled, nextRunAt)
	return err
}
