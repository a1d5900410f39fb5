package bot

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestConfigFromKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	err := os.WriteFile(path, []byte(`{"telegram":{"admin_chat_id":"1001"},"server":{"port":9000}}`), 0600)
	if err != nil {
		t.Fatal(err)
	}

	conf, err := ConfigFrom(path)
	if err != nil {
		t.Fatalf("ConfigFrom: %v", err)
	}

	if conf.Telegram.AdminChatID != "1001" || conf.Server.Port != 9000 {
		t.Fatalf("file values not applied: %+v", conf)
	}
	if !conf.Telegram.Polling || conf.DB.DataDir != "data" || conf.Schedule.ServerTimezone != "UTC" {
		t.Fatalf("defaults lost: %+v", conf)
	}

	conf.Schedule.RelayMode = true
	if err := conf.Update(); err != nil {
		t.Fatalf("Update: %v", err)
	}

	reloaded, err := ConfigFrom(path)
	if err != nil || !reloaded.Schedule.RelayMode {
		t.Fatalf("update not persisted: %v %+v", err, reloaded)
	}

	if err := DefaultConfig().Update(); err == nil {
		t.Fatal("expected error for config without path")
	}
}

func TestApplyEnv(t *testing.T) {
	envFile := filepath.Join(t.TempDir(), ".env")
	err := os.WriteFile(envFile, []byte("TELEGRAM_TOKEN=from-dotenv\nOPENAI_API_KEY=sk-dotenv\n"), 0600)
	if err != nil {
		t.Fatal(err)
	}

	// Переменные окружения важнее .env
	t.Setenv("OPENAI_API_KEY", "sk-env")
	t.Setenv("RELAY_MODE", "true")
	t.Setenv("PORT", "8081")
	t.Setenv("TELEGRAM_POLLING", "not-a-bool")
	t.Setenv("LOCAL_TIMEZONE", "Asia/Tbilisi")
	t.Setenv("TELEGRAM_TOKEN", "")
	os.Unsetenv("TELEGRAM_TOKEN")

	conf := DefaultConfig()
	conf.ApplyEnv(envFile)

	if conf.Telegram.ApiToken != "from-dotenv" {
		t.Fatalf("dotenv value not applied: %q", conf.Telegram.ApiToken)
	}
	if conf.OpenAI.ApiKey != "sk-env" {
		t.Fatalf("environment should win over dotenv: %q", conf.OpenAI.ApiKey)
	}
	if !conf.Schedule.RelayMode || conf.Server.Port != 8081 {
		t.Fatalf("env overrides not applied: %+v", conf)
	}
	if !conf.Telegram.Polling {
		t.Fatal("invalid bool must keep the previous value")
	}
	if location := conf.LocalLocation(); location == nil || location.String() != "Asia/Tbilisi" {
		t.Fatalf("unexpected local location %v", location)
	}
}

func TestValidate(t *testing.T) {
	conf := DefaultConfig()
	conf.Schedule.ServerTimezone = "Mars/Olympus"
	conf.Schedule.LocalTimezone = "Nowhere/City"

	problems := strings.Join(conf.Validate(), "\n")
	for _, expected := range []string{"TELEGRAM_TOKEN", "ADMIN_CHAT_ID", "OPENAI_API_KEY", "Mars/Olympus", "Nowhere/City"} {
		if !strings.Contains(problems, expected) {
			t.Fatalf("problem %q not reported:\n%s", expected, problems)
		}
	}

	if conf.ServerLocation() != time.UTC {
		t.Fatal("unknown server zone must fall back to UTC")
	}
	if conf.LocalLocation() != nil {
		t.Fatal("unknown local zone must be nil")
	}

	conf.Schedule.EngagementMinutes = 0
	if conf.EngagementDelay() != 5*time.Minute {
		t.Fatalf("unexpected engagement delay %s", conf.EngagementDelay())
	}
}
