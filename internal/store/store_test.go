package store

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
	_ "time/tzdata"

	"Unbewohnte/TRAVELPOSTbot/internal/db"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.now = c.now.Add(d)
}

func newFileBackend(t *testing.T) *db.FileBackend {
	t.Helper()

	backend, err := db.NewFileBackend(t.TempDir())
	if err != nil {
		t.Fatalf("file backend: %v", err)
	}

	return backend
}

// Хранилище расписания, которое перестает работать по команде
type flakyScheduleBackend struct {
	schedule db.Schedule
	broken   bool
}

func (f *flakyScheduleBackend) LoadSchedule(ctx context.Context) (db.Schedule, error) {
	if f.broken {
		return db.Schedule{}, errors.New("connection refused")
	}
	return f.schedule.Clone(), nil
}

func (f *flakyScheduleBackend) SaveSchedule(ctx context.Context, schedule db.Schedule) error {
	if f.broken {
		return errors.New("connection refused")
	}
	f.schedule = schedule.Clone()
	return nil
}

func TestParseClock(t *testing.T) {
	valid := map[string][2]int{
		"09:00": {9, 0},
		"9:05":  {9, 5},
		"23:59": {23, 59},
		"00:00": {0, 0},
	}
	for value, expected := range valid {
		hour, minute, err := ParseClock(value)
		if err != nil {
			t.Errorf("%q: unexpected error %v", value, err)
			continue
		}
		if hour != expected[0] || minute != expected[1] {
			t.Errorf("%q: got %d:%d", value, hour, minute)
		}
	}

	for _, value := range []string{"24:00", "12:60", "noon", "12", "12:5", "", "-1:30"} {
		if _, _, err := ParseClock(value); !errors.Is(err, ErrInvalidTime) {
			t.Errorf("%q: expected ErrInvalidTime, got %v", value, err)
		}
	}
}

func TestNextOccurrence(t *testing.T) {
	location := time.FixedZone("MSK", 3*60*60)
	now := time.Date(2025, 5, 10, 8, 0, 0, 0, location)

	next := NextOccurrence(9, 0, now, location)
	if !next.Equal(time.Date(2025, 5, 10, 9, 0, 0, 0, location)) {
		t.Fatalf("expected today 09:00, got %s", next)
	}

	// Ровно сейчас уже не считается будущим
	next = NextOccurrence(8, 0, now, location)
	if !next.Equal(time.Date(2025, 5, 11, 8, 0, 0, 0, location)) {
		t.Fatalf("expected tomorrow 08:00, got %s", next)
	}

	next = NextOccurrence(7, 30, now, location)
	if !next.Equal(time.Date(2025, 5, 11, 7, 30, 0, 0, location)) {
		t.Fatalf("expected tomorrow 07:30, got %s", next)
	}

	// Конец месяца
	now = time.Date(2025, 5, 31, 23, 0, 0, 0, location)
	next = NextOccurrence(6, 0, now, location)
	if !next.Equal(time.Date(2025, 6, 1, 6, 0, 0, 0, location)) {
		t.Fatalf("expected June 1st, got %s", next)
	}
}

func TestScheduleDefaults(t *testing.T) {
	schedule := NewScheduleStore(newFileBackend(t), time.UTC, nil)

	if schedule.Frequency() != 24 {
		t.Fatalf("expected default frequency 24, got %d", schedule.Frequency())
	}
	if !schedule.Enabled() {
		t.Fatal("expected schedule to be enabled by default")
	}
	if _, ok := schedule.NextPostTime(); ok {
		t.Fatal("expected no next post time")
	}
	if _, ok := schedule.NextRunAt(); ok {
		t.Fatal("expected no next run")
	}
}

func TestScheduleSetTimeBeforeAndAfter(t *testing.T) {
	clock := &fakeClock{now: time.Date(2025, 5, 10, 8, 0, 0, 0, time.UTC)}
	schedule := NewScheduleStore(newFileBackend(t), time.UTC, clock.Now)

	if err := schedule.SetNextPostTime("09:00"); err != nil {
		t.Fatalf("SetNextPostTime: %v", err)
	}
	next, ok := schedule.NextRunAt()
	if !ok || !next.Equal(time.Date(2025, 5, 10, 9, 0, 0, 0, time.UTC)) {
		t.Fatalf("expected 2025-05-10 09:00, got %s (%v)", next, ok)
	}

	clock.now = time.Date(2025, 5, 10, 10, 0, 0, 0, time.UTC)
	if err := schedule.SetNextPostTime("09:00"); err != nil {
		t.Fatalf("SetNextPostTime: %v", err)
	}
	next, ok = schedule.NextRunAt()
	if !ok || !next.Equal(time.Date(2025, 5, 11, 9, 0, 0, 0, time.UTC)) {
		t.Fatalf("expected 2025-05-11 09:00, got %s (%v)", next, ok)
	}

	value, _ := schedule.NextPostTime()
	if value != "09:00" {
		t.Fatalf("expected stored 09:00, got %q", value)
	}
}

func TestScheduleRejectsMalformedTime(t *testing.T) {
	clock := &fakeClock{now: time.Date(2025, 5, 10, 8, 0, 0, 0, time.UTC)}
	schedule := NewScheduleStore(newFileBackend(t), time.UTC, clock.Now)

	if err := schedule.SetNextPostTime("18:30"); err != nil {
		t.Fatalf("SetNextPostTime: %v", err)
	}
	before := schedule.Snapshot()

	for _, value := range []string{"25:00", "tomorrow", "2025-13-01T10:00"} {
		if err := schedule.SetNextPostTime(value); !errors.Is(err, ErrInvalidTime) {
			t.Fatalf("%q: expected ErrInvalidTime, got %v", value, err)
		}
	}

	after := schedule.Snapshot()
	if *after.NextPostTime != *before.NextPostTime || !after.NextRunAt.Equal(*before.NextRunAt) {
		t.Fatalf("schedule mutated by malformed input: %+v -> %+v", before, after)
	}
}

func TestScheduleISOTimestamp(t *testing.T) {
	clock := &fakeClock{now: time.Date(2025, 5, 10, 8, 0, 0, 0, time.UTC)}
	schedule := NewScheduleStore(newFileBackend(t), time.UTC, clock.Now)

	schedule.SetNextPostTime("07:00")
	if err := schedule.SetNextPostTime("2025-05-12T15:30:00"); err != nil {
		t.Fatalf("SetNextPostTime: %v", err)
	}

	next, ok := schedule.NextRunAt()
	if !ok || !next.Equal(time.Date(2025, 5, 12, 15, 30, 0, 0, time.UTC)) {
		t.Fatalf("expected next run from ISO timestamp, got %s (%v)", next, ok)
	}

	// Производное значение сохранено
	if snapshot := schedule.Snapshot(); snapshot.NextRunAt == nil {
		t.Fatal("expected derived next_run_at to be persisted")
	}
}

func TestScheduleFrequency(t *testing.T) {
	schedule := NewScheduleStore(newFileBackend(t), time.UTC, nil)

	for _, hours := range []int{0, -5} {
		if err := schedule.SetFrequency(hours); !errors.Is(err, ErrInvalidFrequency) {
			t.Fatalf("%d: expected ErrInvalidFrequency, got %v", hours, err)
		}
	}
	if schedule.Frequency() != 24 {
		t.Fatalf("frequency mutated: %d", schedule.Frequency())
	}

	if err := schedule.SetFrequency(12); err != nil {
		t.Fatalf("SetFrequency: %v", err)
	}
	if schedule.Frequency() != 12 {
		t.Fatalf("expected 12, got %d", schedule.Frequency())
	}

	if err := schedule.SetFrequency(24 * 365); err != nil {
		t.Fatalf("large frequency rejected: %v", err)
	}
}

func TestScheduleRollForward(t *testing.T) {
	clock := &fakeClock{now: time.Date(2025, 5, 10, 9, 0, 30, 0, time.UTC)}
	schedule := NewScheduleStore(newFileBackend(t), time.UTC, clock.Now)
	schedule.SetFrequency(12)

	next, err := schedule.SetNextRunAfterPublish()
	if err != nil {
		t.Fatalf("SetNextRunAfterPublish: %v", err)
	}
	if !next.Equal(clock.now.Add(12 * time.Hour)) {
		t.Fatalf("expected now+12h, got %s", next)
	}

	stored, _ := schedule.NextRunAt()
	if !stored.Equal(next) {
		t.Fatalf("expected stored %s, got %s", next, stored)
	}
}

func TestScheduleRollForwardHugeFrequency(t *testing.T) {
	clock := &fakeClock{now: time.Date(2025, 5, 10, 9, 0, 0, 0, time.UTC)}
	schedule := NewScheduleStore(newFileBackend(t), time.UTC, clock.Now)

	// Больше, чем вмещает time.Duration в часах
	if err := schedule.SetFrequency(3000000); err != nil {
		t.Fatalf("SetFrequency: %v", err)
	}

	next, err := schedule.SetNextRunAfterPublish()
	if err != nil {
		t.Fatalf("SetNextRunAfterPublish: %v", err)
	}

	expected := clock.now.AddDate(0, 0, 125000)
	if !next.Equal(expected) || !next.After(clock.now) {
		t.Fatalf("expected %s, got %s", expected, next)
	}

	schedule.SetFrequency(25)
	next, _ = schedule.SetNextRunAfterPublish()
	if !next.Equal(clock.now.Add(25 * time.Hour)) {
		t.Fatalf("expected now+25h, got %s", next)
	}
}

func TestAddHoursAcrossDST(t *testing.T) {
	berlin, err := time.LoadLocation("Europe/Berlin")
	if err != nil {
		t.Fatalf("load location: %v", err)
	}

	// Переход на летнее время 30.03.2025
	start := time.Date(2025, 3, 29, 12, 0, 0, 0, berlin)
	next := AddHours(start, 24)
	if next.Sub(start) != 24*time.Hour {
		t.Fatalf("expected exactly 24h, got %s", next.Sub(start))
	}
	if next.Location() != berlin {
		t.Fatalf("location lost: %s", next.Location())
	}
}

func TestScheduleToggleAndPersistence(t *testing.T) {
	dir := t.TempDir()
	backend, err := db.NewFileBackend(dir)
	if err != nil {
		t.Fatalf("file backend: %v", err)
	}

	schedule := NewScheduleStore(backend, time.UTC, nil)
	enabled, err := schedule.Toggle()
	if err != nil || enabled {
		t.Fatalf("expected disabled after toggle, got %v (%v)", enabled, err)
	}
	schedule.SetFrequency(6)

	reopened, err := db.NewFileBackend(dir)
	if err != nil {
		t.Fatalf("file backend: %v", err)
	}
	restored := NewScheduleStore(reopened, time.UTC, nil)
	if restored.Enabled() || restored.Frequency() != 6 {
		t.Fatalf("state not persisted: %+v", restored.Snapshot())
	}
}

func TestScheduleKeepsLastKnownOnLoadFailure(t *testing.T) {
	backend := &flakyScheduleBackend{schedule: db.DefaultSchedule()}
	schedule := NewScheduleStore(backend, time.UTC, nil)

	if err := schedule.SetFrequency(3); err != nil {
		t.Fatalf("SetFrequency: %v", err)
	}

	backend.broken = true
	if schedule.Frequency() != 3 {
		t.Fatalf("expected last known frequency 3, got %d", schedule.Frequency())
	}
	if err := schedule.SetFrequency(5); err == nil {
		t.Fatal("expected save error to be returned")
	}
}

func TestCommentCacheLatest(t *testing.T) {
	clock := &fakeClock{now: time.Date(2025, 5, 10, 8, 0, 0, 0, time.UTC)}
	comments := NewCommentCache(newFileBackend(t), time.UTC, clock.Now)

	if _, ok := comments.LatestAny(); ok {
		t.Fatal("expected empty cache")
	}

	comments.Add("-100", "1", "Хочу в Грузию", "")
	clock.Advance(time.Minute)
	comments.Add("-200", "2", "Расскажите про Алтай", "")

	latest, ok := comments.LatestAny()
	if !ok || latest != "Расскажите про Алтай" {
		t.Fatalf("unexpected latest comment %q", latest)
	}

	latest, ok = comments.LatestForChat("-100")
	if !ok || latest != "Хочу в Грузию" {
		t.Fatalf("unexpected latest comment for chat %q", latest)
	}

	if _, ok := comments.LatestForChat("-300"); ok {
		t.Fatal("expected no comments for unknown chat")
	}
}

func TestCommentCacheEviction(t *testing.T) {
	clock := &fakeClock{now: time.Date(2025, 5, 10, 8, 0, 0, 0, time.UTC)}
	comments := NewCommentCache(newFileBackend(t), time.UTC, clock.Now)

	total := db.CommentsCap + 1
	for i := 0; i < total; i++ {
		if err := comments.Add("-100", fmt.Sprint(i), fmt.Sprintf("comment %d", i), ""); err != nil {
			t.Fatalf("Add: %v", err)
		}
		clock.Advance(time.Second)
	}

	all := comments.All()
	if len(all) != db.CommentsCap {
		t.Fatalf("expected %d comments, got %d", db.CommentsCap, len(all))
	}
	if all[0].Text != "comment 1" {
		t.Fatalf("expected oldest to be evicted, first is %q", all[0].Text)
	}

	latest, _ := comments.LatestAny()
	if latest != fmt.Sprintf("comment %d", total-1) {
		t.Fatalf("unexpected latest %q", latest)
	}
}

func TestCommentCacheTimestamps(t *testing.T) {
	clock := &fakeClock{now: time.Date(2025, 5, 10, 8, 0, 0, 0, time.UTC)}
	comments := NewCommentCache(newFileBackend(t), time.UTC, clock.Now)

	if err := comments.Add("-100", "", "text", "вчера"); !errors.Is(err, ErrInvalidTime) {
		t.Fatalf("expected ErrInvalidTime, got %v", err)
	}
	if len(comments.All()) != 0 {
		t.Fatal("comment with malformed timestamp was stored")
	}
	if err := comments.Add("", "", "text", ""); !errors.Is(err, ErrEmptyID) {
		t.Fatalf("expected ErrEmptyID, got %v", err)
	}

	comments.Add("-100", "1", "old", "2025-05-10T07:00:00Z")
	comments.Add("-100", "2", "new", "2025-05-10T08:30:00Z")
	comments.Add("-200", "3", "other", "2025-05-10T08:30:00Z")

	count := comments.CountSince("-100", time.Date(2025, 5, 10, 8, 0, 0, 0, time.UTC))
	if count != 1 {
		t.Fatalf("expected 1 comment since 08:00, got %d", count)
	}
}

func TestCommentCacheNaiveTimestampLocation(t *testing.T) {
	moscow := time.FixedZone("MSK", 3*60*60)
	comments := NewCommentCache(newFileBackend(t), moscow, nil)

	if err := comments.Add("-100", "1", "text", "2025-05-10T12:00:00"); err != nil {
		t.Fatalf("Add: %v", err)
	}

	stored := comments.All()
	expected := time.Date(2025, 5, 10, 9, 0, 0, 0, time.UTC)
	if len(stored) != 1 || !stored[0].Timestamp.Equal(expected) {
		t.Fatalf("expected %s, got %+v", expected, stored)
	}
}

func TestGroupRegistrySingleActive(t *testing.T) {
	groups := NewGroupRegistry(newFileBackend(t), "")

	if _, ok := groups.Active(); ok {
		t.Fatal("expected no active group")
	}

	groups.Add("-100", "Путешествия")
	groups.Add("-200", "")

	// Ни одна не отмечена - активна первая
	active, ok := groups.Active()
	if !ok || active != "-100" {
		t.Fatalf("expected first group active, got %q", active)
	}

	for _, id := range []string{"-200", "-100", "-300"} {
		if err := groups.SetActive(id); err != nil {
			t.Fatalf("SetActive(%s): %v", id, err)
		}

		activeCount := 0
		for _, group := range groups.All() {
			if group.IsActive {
				activeCount++
			}
		}
		if activeCount != 1 {
			t.Fatalf("expected exactly one active group after SetActive(%s), got %d", id, activeCount)
		}

		active, _ := groups.Active()
		if active != id {
			t.Fatalf("expected %s to be active, got %s", id, active)
		}
	}

	if title := groups.Title("-300"); title != "Группа -300" {
		t.Fatalf("unexpected title of unknown group %q", title)
	}
	if title := groups.Title("-200"); title != "-200" {
		t.Fatalf("unexpected title of untitled group %q", title)
	}
}

func TestGroupRegistryDefault(t *testing.T) {
	groups := NewGroupRegistry(newFileBackend(t), " -500 ")

	active, ok := groups.Active()
	if !ok || active != "-500" {
		t.Fatalf("expected configured default, got %q", active)
	}

	if err := groups.Add(" ", "title"); !errors.Is(err, ErrEmptyID) {
		t.Fatalf("expected ErrEmptyID, got %v", err)
	}
}

func TestStatsSummary(t *testing.T) {
	clock := &fakeClock{now: time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)}
	stats := NewStatsStore(newFileBackend(t), clock.Now)

	// Старый пост за пределами периода
	stats.AddPost("old", "old", "")
	clock.Advance(10 * 24 * time.Hour)

	stats.AddPost("", "t1", "p1")
	stats.AddPost("t2", "t2", "")
	stats.AddPost("t3", "t3", "")

	views, comments := 10, 3
	stats.UpdatePost("p1", &views, &comments)
	views = 5
	stats.UpdatePost("t2", &views, nil)

	summary := stats.Summary(7)
	if summary.TotalPosts != 3 {
		t.Fatalf("expected 3 posts, got %d", summary.TotalPosts)
	}
	if summary.TotalViews != 15 || summary.TotalComments != 3 {
		t.Fatalf("unexpected totals %+v", summary)
	}
	if summary.AvgViews != 5 || summary.AvgComments != 1 {
		t.Fatalf("unexpected averages %v %v", summary.AvgViews, summary.AvgComments)
	}
	if summary.Posts[0].PostID != "t3" {
		t.Fatalf("expected newest first, got %s", summary.Posts[0].PostID)
	}
	if summary.Posts[2].PostID != "p1" {
		t.Fatalf("expected photo id used as post id, got %s", summary.Posts[2].PostID)
	}
}

func TestStatsSummaryRoundingAndLimit(t *testing.T) {
	clock := &fakeClock{now: time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)}
	stats := NewStatsStore(newFileBackend(t), clock.Now)

	for i := 0; i < 12; i++ {
		stats.AddPost(fmt.Sprint(i), "", "")
		clock.Advance(time.Minute)
	}
	views := 1
	stats.UpdatePost("0", &views, nil)

	summary := stats.Summary(7)
	if summary.TotalPosts != 12 || len(summary.Posts) != 10 {
		t.Fatalf("expected 12 posts with 10 listed, got %d/%d", summary.TotalPosts, len(summary.Posts))
	}
	if summary.AvgViews != 0.1 {
		t.Fatalf("expected rounded avg 0.1, got %v", summary.AvgViews)
	}

	empty := NewStatsStore(newFileBackend(t), clock.Now).Summary(7)
	if empty.TotalPosts != 0 || empty.AvgViews != 0 || empty.Posts == nil {
		t.Fatalf("unexpected empty summary %+v", empty)
	}
}
