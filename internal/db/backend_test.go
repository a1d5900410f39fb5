package db

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func openBackends(t *testing.T) map[string]Backend {
	t.Helper()

	fileBackend, err := NewFileBackend(t.TempDir())
	if err != nil {
		t.Fatalf("file backend: %v", err)
	}

	sqlBackend, err := NewSQLBackend("sqlite://" + filepath.Join(t.TempDir(), "test.sqlite3"))
	if err != nil {
		t.Fatalf("sql backend: %v", err)
	}
	t.Cleanup(func() { sqlBackend.Close() })

	return map[string]Backend{
		"file":   fileBackend,
		"sqlite": sqlBackend,
	}
}

type snapshot struct {
	schedule Schedule
	comments []Comment
	groups   []Group
	stats    []PostStat
	latest   *Comment
	count    int
}

// Одна и та же последовательность операций для обоих хранилищ
func runScenario(t *testing.T, backend Backend) snapshot {
	t.Helper()
	ctx := context.Background()
	base := time.Date(2025, 5, 10, 8, 0, 0, 0, time.UTC)

	nextPostTime := "09:00"
	nextRunAt := base.Add(time.Hour)
	err := backend.SaveSchedule(ctx, Schedule{
		NextPostTime:   &nextPostTime,
		FrequencyHours: 12,
		Enabled:        false,
		NextRunAt:      &nextRunAt,
	})
	if err != nil {
		t.Fatalf("SaveSchedule: %v", err)
	}

	for i := 0; i < 7; i++ {
		chatID := "-100"
		if i%2 == 1 {
			chatID = "-200"
		}
		err := backend.AppendComment(ctx, Comment{
			ChatID:    chatID,
			MessageID: fmt.Sprint(i),
			Text:      fmt.Sprintf("comment %d", i),
			Timestamp: base.Add(time.Duration(i) * time.Minute),
		}, 5)
		if err != nil {
			t.Fatalf("AppendComment: %v", err)
		}
	}

	mustNil(t, backend.UpsertGroup(ctx, "-100", "Travel"))
	mustNil(t, backend.UpsertGroup(ctx, "-200", ""))
	mustNil(t, backend.UpsertGroup(ctx, "-100", ""))
	mustNil(t, backend.SetActiveGroup(ctx, "-200", "Группа -200"))
	mustNil(t, backend.SetActiveGroup(ctx, "-300", "Группа -300"))

	for i := 0; i < 4; i++ {
		err := backend.AppendPostStat(ctx, PostStat{
			PostID:    fmt.Sprintf("p%d", i),
			TextID:    fmt.Sprintf("t%d", i),
			Timestamp: base.Add(time.Duration(i) * time.Hour),
		}, 3)
		if err != nil {
			t.Fatalf("AppendPostStat: %v", err)
		}
	}
	views, comments := 10, 2
	mustNil(t, backend.UpdatePostStat(ctx, "t2", &views, nil))
	mustNil(t, backend.UpdatePostStat(ctx, "p3", nil, &comments))

	var snap snapshot
	snap.schedule, err = backend.LoadSchedule(ctx)
	mustNil(t, err)
	snap.comments, err = backend.Comments(ctx)
	mustNil(t, err)
	snap.groups, err = backend.LoadGroups(ctx)
	mustNil(t, err)
	snap.stats, err = backend.PostStats(ctx, base.Add(2*time.Hour))
	mustNil(t, err)
	snap.latest, err = backend.LatestComment(ctx, "-100")
	mustNil(t, err)
	snap.count, err = backend.CountComments(ctx, "-200", base.Add(4*time.Minute))
	mustNil(t, err)

	return snap
}

func mustNil(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatal(err)
	}
}

func TestBackendsParity(t *testing.T) {
	snaps := map[string]snapshot{}
	for name, backend := range openBackends(t) {
		snaps[name] = runScenario(t, backend)
	}

	file, sqlite := snaps["file"], snaps["sqlite"]

	if *file.schedule.NextPostTime != *sqlite.schedule.NextPostTime ||
		file.schedule.FrequencyHours != sqlite.schedule.FrequencyHours ||
		file.schedule.Enabled != sqlite.schedule.Enabled ||
		!file.schedule.NextRunAt.Equal(*sqlite.schedule.NextRunAt) {
		t.Errorf("schedule differs: file=%+v sqlite=%+v", file.schedule, sqlite.schedule)
	}

	if len(file.comments) != 5 || len(sqlite.comments) != 5 {
		t.Fatalf("comments cap not enforced: file=%d sqlite=%d", len(file.comments), len(sqlite.comments))
	}
	for i := range file.comments {
		f, s := file.comments[i], sqlite.comments[i]
		if f.ChatID != s.ChatID || f.MessageID != s.MessageID || f.Text != s.Text || !f.Timestamp.Equal(s.Timestamp) {
			t.Errorf("comment %d differs: file=%+v sqlite=%+v", i, f, s)
		}
	}
	if file.comments[0].Text != "comment 2" {
		t.Errorf("oldest comments must be evicted first, got %q", file.comments[0].Text)
	}

	if len(file.groups) != len(sqlite.groups) {
		t.Fatalf("groups differ: file=%+v sqlite=%+v", file.groups, sqlite.groups)
	}
	for i := range file.groups {
		if file.groups[i] != sqlite.groups[i] {
			t.Errorf("group %d differs: file=%+v sqlite=%+v", i, file.groups[i], sqlite.groups[i])
		}
	}
	expectedGroups := []Group{
		{GroupID: "-100", Title: "Travel"},
		{GroupID: "-200", Title: "-200"},
		{GroupID: "-300", Title: "Группа -300", IsActive: true},
	}
	for i, expected := range expectedGroups {
		if file.groups[i] != expected {
			t.Errorf("group %d: expected %+v, got %+v", i, expected, file.groups[i])
		}
	}

	if len(file.stats) != 2 || len(sqlite.stats) != 2 {
		t.Fatalf("stats differ: file=%+v sqlite=%+v", file.stats, sqlite.stats)
	}
	for i := range file.stats {
		f, s := file.stats[i], sqlite.stats[i]
		if f.PostID != s.PostID || f.Views != s.Views || f.Comments != s.Comments || !f.Timestamp.Equal(s.Timestamp) {
			t.Errorf("stat %d differs: file=%+v sqlite=%+v", i, f, s)
		}
	}
	if file.stats[0].PostID != "p3" || file.stats[0].Comments != 2 || file.stats[1].Views != 10 {
		t.Errorf("unexpected stats: %+v", file.stats)
	}

	if file.latest == nil || sqlite.latest == nil || file.latest.Text != sqlite.latest.Text || file.latest.Text != "comment 6" {
		t.Errorf("latest comment differs: file=%+v sqlite=%+v", file.latest, sqlite.latest)
	}
	if file.count != sqlite.count || file.count != 1 {
		t.Errorf("comment count differs: file=%d sqlite=%d", file.count, sqlite.count)
	}
}

func TestBackendsDefaultSchedule(t *testing.T) {
	for name, backend := range openBackends(t) {
		schedule, err := backend.LoadSchedule(context.Background())
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}

		if schedule.FrequencyHours != DefaultFrequencyHours || !schedule.Enabled ||
			schedule.NextPostTime != nil || schedule.NextRunAt != nil {
			t.Errorf("%s: unexpected default schedule %+v", name, schedule)
		}
	}
}

func TestFileBackendCorruptDocument(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, scheduleFile), []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, commentsFile), []byte("[]"), 0644); err != nil {
		t.Fatal(err)
	}

	backend, err := NewFileBackend(dir)
	if err != nil {
		t.Fatalf("corrupt document must not fail construction: %v", err)
	}

	schedule, _ := backend.LoadSchedule(context.Background())
	if schedule.FrequencyHours != DefaultFrequencyHours || !schedule.Enabled {
		t.Errorf("expected default schedule, got %+v", schedule)
	}
}

func TestFileBackendPersistsAcrossRestart(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	first, err := NewFileBackend(dir)
	mustNil(t, err)
	mustNil(t, first.UpsertGroup(ctx, "-1", "One"))
	mustNil(t, first.AppendComment(ctx, Comment{ChatID: "-1", Text: "hi", Timestamp: time.Now()}, CommentsCap))

	second, err := NewFileBackend(dir)
	mustNil(t, err)

	groups, _ := second.LoadGroups(ctx)
	if len(groups) != 1 || groups[0].Title != "One" {
		t.Errorf("groups not restored: %+v", groups)
	}
	latest, _ := second.LatestComment(ctx, "")
	if latest == nil || latest.Text != "hi" {
		t.Errorf("comments not restored: %+v", latest)
	}
}

func TestSQLBackendReconnects(t *testing.T) {
	ctx := context.Background()

	backend, err := NewSQLBackend("sqlite://" + filepath.Join(t.TempDir(), "reconnect.sqlite3"))
	if err != nil {
		t.Fatalf("sql backend: %v", err)
	}
	t.Cleanup(func() { backend.Close() })

	mustNil(t, backend.UpsertGroup(ctx, "-100", "Travel"))

	// Соединение умирает без ведома хранилища
	backend.mu.Lock()
	backend.conn.Close()
	backend.mu.Unlock()

	groups, err := backend.LoadGroups(ctx)
	if err != nil {
		t.Fatalf("LoadGroups after lost connection: %v", err)
	}
	if len(groups) != 1 || groups[0].GroupID != "-100" || groups[0].Title != "Travel" {
		t.Fatalf("unexpected groups %+v", groups)
	}

	backend.mu.Lock()
	alive := backend.conn != nil
	backend.mu.Unlock()
	if !alive {
		t.Fatal("connection was not reopened")
	}
}

func TestParseDatabaseURL(t *testing.T) {
	cases := []struct {
		url     string
		dialect Dialect
		dsn     string
		fails   bool
	}{
		{url: "postgres://u:p@host/db", dialect: DialectPostgres, dsn: "postgresql://u:p@host/db"},
		{url: "postgresql://u:p@host/db?sslmode=require", dialect: DialectPostgres, dsn: "postgresql://u:p@host/db?sslmode=require"},
		{url: "sqlite://data/bot.sqlite3", dialect: DialectSQLite, dsn: "data/bot.sqlite3"},
		{url: "file:bot.db", dialect: DialectSQLite, dsn: "file:bot.db"},
		{url: "mysql://nope", fails: true},
		{url: "sqlite://", fails: true},
	}

	for _, c := range cases {
		dialect, dsn, err := ParseDatabaseURL(c.url)
		if c.fails {
			if err == nil {
				t.Errorf("%s: expected error", c.url)
			}
			continue
		}
		if err != nil || dialect != c.dialect || dsn != c.dsn {
			t.Errorf("%s: got (%s, %s, %v)", c.url, dialect, dsn, err)
		}
	}
}

func TestRebindPostgres(t *testing.T) {
	backend := &SQLBackend{dialect: DialectPostgres}
	got := backend.rebind("UPDATE t SET a = ?, b = ? WHERE c = ?")
	if got != "UPDATE t SET a = $1, b = $2 WHERE c = $3" {
		t.Errorf("unexpected rebind: %s", got)
	}

	sqlite := &SQLBackend{dialect: DialectSQLite}
	if sqlite.rebind("a = ?") != "a = ?" {
		t.Error("sqlite queries must not be rebound")
	}
}
