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
	"fmt"
	"log"
	"strconv"
	"strings"
	"sync"
	"time"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

type Dialect string

const (
	DialectPostgres Dialect = "postgres"
	DialectSQLite   Dialect = "sqlite"
)

// Реляционное хранилище. Соединение открывается лениво и проверяется
// перед каждым использованием; при сбое пересоздается на следующем вызове
type SQLBackend struct {
	dialect Dialect
	dsn     string

	mu   sync.Mutex
	conn *sql.DB
}

var _ Backend = (*SQLBackend)(nil)

// Разбирает строку подключения:
// postgres://..., postgresql://... - PostgreSQL;
// sqlite://path/to/file.db, file:path.db - SQLite
func ParseDatabaseURL(databaseURL string) (Dialect, string, error) {
	databaseURL = strings.TrimSpace(databaseURL)

	switch {
	case strings.HasPrefix(databaseURL, "postgres://"):
		return DialectPostgres, "postgresql://" + strings.TrimPrefix(databaseURL, "postgres://"), nil
	case strings.HasPrefix(databaseURL, "postgresql://"):
		return DialectPostgres, databaseURL, nil
	case strings.HasPrefix(databaseURL, "sqlite://"):
		path := strings.TrimPrefix(databaseURL, "sqlite://")
		if path == "" {
			return "", "", fmt.Errorf("не указан путь к файлу SQLite")
		}
		return DialectSQLite, path, nil
	case strings.HasPrefix(databaseURL, "file:"):
		return DialectSQLite, databaseURL, nil
	default:
		return "", "", fmt.Errorf("неподдерживаемая строка подключения к БД")
	}
}

func NewSQLBackend(databaseURL string) (*SQLBackend, error) {
	dialect, dsn, err := ParseDatabaseURL(databaseURL)
	if err != nil {
		return nil, err
	}

	if dialect == DialectSQLite && !strings.Contains(dsn, "?") {
		dsn += "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	}

	backend := &SQLBackend{
		dialect: dialect,
		dsn:     dsn,
	}

	// Пробуем подключиться сразу, но недоступная БД не мешает запуску
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if _, err := backend.handle(ctx); err != nil {
		log.Printf("БД пока недоступна: %s", err)
	}

	return backend, nil
}

func (b *SQLBackend) Name() string {
	return string(b.dialect)
}

func (b *SQLBackend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.conn == nil {
		return nil
	}

	err := b.conn.Close()
	b.conn = nil
	return err
}

// Возвращает живое соединение, при необходимости переподключаясь
func (b *SQLBackend) handle(ctx context.Context) (*sql.DB, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.conn != nil {
		if _, err := b.conn.ExecContext(ctx, "SELECT 1"); err == nil {
			return b.conn, nil
		}

		log.Printf("Соединение с БД потеряно. Переподключение...")
		b.conn.Close()
		b.conn = nil
	}

	conn, err := sql.Open(string(b.dialect), b.dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", b.dialect, err)
	}

	// Одно соединение на процесс
	conn.SetMaxOpenConns(1)
	conn.SetMaxIdleConns(1)

	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("ping %s: %w", b.dialect, err)
	}

	if err := b.migrate(ctx, conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Printf("Подключение к БД (%s) установлено", b.dialect)
	b.conn = conn

	return conn, nil
}

func (b *SQLBackend) migrate(ctx context.Context, conn *sql.DB) error {
	schema := sqliteSchema
	if b.dialect == DialectPostgres {
		schema = postgresSchema
	}

	_, err := conn.ExecContext(ctx, schema)
	return err
}

// Запросы пишутся с "?", для PostgreSQL заменяем на $1, $2...
func (b *SQLBackend) rebind(query string) string {
	if b.dialect != DialectPostgres {
		return query
	}

	var builder strings.Builder
	builder.Grow(len(query) + 8)

	n := 0
	for _, char := range query {
		if char == '?' {
			n++
			builder.WriteString("$" + strconv.Itoa(n))
			continue
		}
		builder.WriteRune(char)
	}

	return builder.String()
}

func (b *SQLBackend) exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	conn, err := b.handle(ctx)
	if err != nil {
		return nil, err
	}

	return conn.ExecContext(ctx, b.rebind(query), args...)
}

func (b *SQLBackend) query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	conn, err := b.handle(ctx)
	if err != nil {
		return nil, err
	}

	return conn.QueryContext(ctx, b.rebind(query), args...)
}

func (b *SQLBackend) queryRow(ctx context.Context, query string, args ...any) (*sql.Row, error) {
	conn, err := b.handle(ctx)
	if err != nil {
		return nil, err
	}

	return conn.QueryRowContext(ctx, b.rebind(query), args...), nil
}

// Оставляет в таблице только limit последних записей
func (b *SQLBackend) trim(ctx context.Context, table string, limit int) error {
	if limit <= 0 {
		return nil
	}

	_, err := b.exec(ctx, fmt.Sprintf(`
		DELETE FROM %s WHERE id NOT IN (
			SELECT id FROM %s ORDER BY id DESC LIMIT ?
		)`, table, table), limit)
	return err
}

func toNanos(t time.Time) int64 {
	return t.UnixNano()
}

func fromNanos(n int64) time.Time {
	return time.Unix(0, n)
}
