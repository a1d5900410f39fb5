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

package bot

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type TelegramConf struct {
	ApiToken    string `json:"api_token"`
	ApiServer   string `json:"api_server"`
	GroupID     string `json:"group_id"`
	AdminChatID string `json:"admin_chat_id"`
	Polling     bool   `json:"polling"`
}

type OpenAIConf struct {
	ApiKey      string `json:"api_key"`
	BaseURL     string `json:"base_url"`
	PromptsFile string `json:"prompts_file"`
}

type DBConf struct {
	// Пустая строка - JSON файлы в DataDir
	URL     string `json:"url"`
	DataDir string `json:"data_dir"`
}

type ServerConf struct {
	Port int `json:"port"`
}

type ScheduleConf struct {
	RelayMode bool `json:"relay_mode"`
	// Часовой пояс, в котором хранится и считается расписание
	ServerTimezone string `json:"server_timezone"`
	// Часовой пояс администратора для /setlocal
	LocalTimezone     string `json:"local_timezone"`
	StatsReportCron   string `json:"stats_report_cron"`
	EngagementMinutes int    `json:"engagement_refresh_minutes"`
}

type Config struct {
	Telegram TelegramConf `json:"telegram"`
	OpenAI   OpenAIConf   `json:"openai"`
	DB       DBConf       `json:"database"`
	Server   ServerConf   `json:"server"`
	Schedule ScheduleConf `json:"schedule"`
	Debug    bool         `json:"debug"`

	path string
}

func DefaultConfig() *Config {
	return &Config{
		Telegram: TelegramConf{
			Polling: true,
		},
		OpenAI: OpenAIConf{
			PromptsFile: "configs/prompts.yaml",
		},
		DB: DBConf{
			DataDir: "data",
		},
		Server: ServerConf{
			Port: 8000,
		},
		Schedule: ScheduleConf{
			ServerTimezone:    "UTC",
			LocalTimezone:     "Europe/Moscow",
			EngagementMinutes: 5,
		},
		Debug: false,
	}
}

func (conf *Config) Save(filepath string) error {
	file, err := os.OpenFile(filepath, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0600)
	if err != nil {
		return err
	}
	defer file.Close()

	jsonBytes, err := json.MarshalIndent(&conf, "", "\t")
	if err != nil {
		return err
	}

	_, err = file.Write(jsonBytes)

	// Запоминаем, куда сохранили
	conf.path = filepath

	return err
}

func ConfigFrom(filepath string) (*Config, error) {
	file, err := os.Open(filepath)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	contents, err := io.ReadAll(file)
	if err != nil {
		return nil, err
	}

	conf := DefaultConfig()
	err = json.Unmarshal(contents, conf)
	if err != nil {
		return nil, err
	}

	// Запоминаем, откуда взяли
	conf.path = filepath

	return conf, nil
}

// Обновляет конфигурационный файл
func (conf *Config) Update() error {
	if conf.path == "" {
		return errors.New("неизвестен путь к конфигурационному файлу")
	}

	return conf.Save(conf.path)
}

// Подгружает .env (если есть) и переопределяет поля переменными окружения
func (conf *Config) ApplyEnv(envFiles ...string) {
	if err := godotenv.Load(envFiles...); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("Не удалось загрузить .env: %s", err)
	}

	setString := func(name string, target *string) {
		if value, ok := os.LookupEnv(name); ok {
			*target = strings.TrimSpace(value)
		}
	}
	setBool := func(name string, target *bool) {
		value, ok := os.LookupEnv(name)
		if !ok {
			return
		}
		parsed, err := strconv.ParseBool(strings.TrimSpace(value))
		if err != nil {
			log.Printf("Неверное значение %s=%q, ожидается true/false", name, value)
			return
		}
		*target = parsed
	}

	setString("TELEGRAM_TOKEN", &conf.Telegram.ApiToken)
	setString("TELEGRAM_GROUP_ID", &conf.Telegram.GroupID)
	setString("ADMIN_CHAT_ID", &conf.Telegram.AdminChatID)
	setBool("TELEGRAM_POLLING", &conf.Telegram.Polling)
	setString("OPENAI_API_KEY", &conf.OpenAI.ApiKey)
	setString("PROMPTS_CONFIG_PATH", &conf.OpenAI.PromptsFile)
	setString("DATABASE_URL", &conf.DB.URL)
	setString("DATA_DIR", &conf.DB.DataDir)
	setBool("RELAY_MODE", &conf.Schedule.RelayMode)
	setString("SERVER_TIMEZONE", &conf.Schedule.ServerTimezone)
	setString("LOCAL_TIMEZONE", &conf.Schedule.LocalTimezone)
	setString("STATS_REPORT_CRON", &conf.Schedule.StatsReportCron)
	setBool("DEBUG", &conf.Debug)

	if value, ok := os.LookupEnv("PORT"); ok {
		port, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil || port <= 0 {
			log.Printf("Неверное значение PORT=%q", value)
		} else {
			conf.Server.Port = port
		}
	}
}

// Проблемы конфигурации. Ни одна из них не останавливает процесс
func (conf *Config) Validate() []string {
	var problems []string

	if conf.Telegram.ApiToken == "" {
		problems = append(problems, "TELEGRAM_TOKEN не задан: публикация и команды в Telegram недоступны")
	}
	if conf.Telegram.GroupID == "" {
		problems = append(problems, "TELEGRAM_GROUP_ID не задан: публикация возможна только в группы из реестра")
	}
	if conf.Telegram.AdminChatID == "" {
		problems = append(problems, "ADMIN_CHAT_ID не задан: команды и уведомления администратора недоступны")
	}
	if conf.OpenAI.ApiKey == "" {
		problems = append(problems, "OPENAI_API_KEY не задан: будут использоваться резервные тексты без изображений")
	}
	if _, err := time.LoadLocation(conf.Schedule.ServerTimezone); err != nil {
		problems = append(problems, fmt.Sprintf("неизвестный часовой пояс сервера %q, используется UTC", conf.Schedule.ServerTimezone))
	}
	if conf.Schedule.LocalTimezone != "" {
		if _, err := time.LoadLocation(conf.Schedule.LocalTimezone); err != nil {
			problems = append(problems, fmt.Sprintf("неизвестный локальный часовой пояс %q, /setlocal недоступна", conf.Schedule.LocalTimezone))
		}
	}

	return problems
}

// Часовой пояс расписания. При ошибке - UTC
func (conf *Config) ServerLocation() *time.Location {
	location, err := time.LoadLocation(conf.Schedule.ServerTimezone)
	if err != nil {
		return time.UTC
	}
	return location
}

// Часовой пояс администратора, nil если не задан или неизвестен
func (conf *Config) LocalLocation() *time.Location {
	if conf.Schedule.LocalTimezone == "" {
		return nil
	}

	location, err := time.LoadLocation(conf.Schedule.LocalTimezone)
	if err != nil {
		return nil
	}
	return location
}

func (conf *Config) EngagementDelay() time.Duration {
	if conf.Schedule.EngagementMinutes <= 0 {
		return 5 * time.Minute
	}
	return time.Duration(conf.Schedule.EngagementMinutes) * time.Minute
}
