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

// Время хранится в наносекундах unix в обоих диалектах

const postgresSchema = `
	CREATE TABLE IF NOT EXISTS schedule (
		id INT PRIMARY KEY DEFAULT 1,
		next_post_time VARCHAR(64),
		frequency_hours INT NOT NULL DEFAULT 24,
		enabled BOOLEAN NOT NULL DEFAULT TRUE,
		next_run_at BIGINT,
		updated_at TIMESTAMPTZ DEFAULT NOW(),
		CONSTRAINT single_row CHECK (id = 1)
	);

	INSERT INTO schedule (id, frequency_hours, enabled)
	VALUES (1, 24, TRUE)
	ON CONFLICT (id) DO NOTHING;

	CREATE TABLE IF NOT EXISTS stats_posts (
		id BIGSERIAL PRIMARY KEY,
		post_id VARCHAR(64) NOT NULL DEFAULT '',
		text_id VARCHAR(64) NOT NULL DEFAULT '',
		photo_id VARCHAR(64) NOT NULL DEFAULT '',
		ts BIGINT NOT NULL,
		views INT NOT NULL DEFAULT 0,
		comments_count INT NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS comments (
		id BIGSERIAL PRIMARY KEY,
		chat_id VARCHAR(64) NOT NULL,
		message_id VARCHAR(64) NOT NULL DEFAULT '',
		text TEXT NOT NULL,
		ts BIGINT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_comments_chat ON comments(chat_id);

	CREATE TABLE IF NOT EXISTS publish_groups (
		id BIGSERIAL PRIMARY KEY,
		group_id VARCHAR(64) UNIQUE NOT NULL,
		title VARCHAR(256) NOT NULL DEFAULT '',
		is_active BOOLEAN NOT NULL DEFAULT FALSE
	);
`

const sqliteSchema = `
	CREATE TABLE IF NOT EXISTS schedule (
		id INTEGER PRIMARY KEY DEFAULT 1 CHECK (id = 1),
		next_post_time TEXT,
		frequency_hours INTEGER NOT NULL DEFAULT 24,
		enabled BOOLEAN NOT NULL DEFAULT 1,
		next_run_at INTEGER,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	INSERT INTO schedule (id, frequency_hours, enabled)
	VALUES (1, 24, 1)
	ON CONFLICT (id) DO NOTHING;

	CREATE TABLE IF NOT EXISTS stats_posts (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		post_id TEXT NOT NULL DEFAULT '',
		text_id TEXT NOT NULL DEFAULT '',
		photo_id TEXT NOT NULL DEFAULT '',
		ts INTEGER NOT NULL,
		views INTEGER NOT NULL DEFAULT 0,
		comments_count INTEGER NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS comments (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		chat_id TEXT NOT NULL,
		message_id TEXT NOT NULL DEFAULT '',
		text TEXT NOT NULL,
		ts INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_comments_chat ON comments(chat_id);

	CREATE TABLE IF NOT EXISTS publish_groups (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		group_id TEXT UNIQUE NOT NULL,
		title TEXT NOT NULL DEFAULT '',
		is_active BOOLEAN NOT NULL DEFAULT 0
	);
`
