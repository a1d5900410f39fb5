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

package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	_ "time/tzdata"

	"Unbewohnte/TRAVELPOSTbot/internal/bot"
	"Unbewohnte/TRAVELPOSTbot/internal/bot/social"
	"Unbewohnte/TRAVELPOSTbot/internal/bot/social/telegram"
	"Unbewohnte/TRAVELPOSTbot/internal/db"
	"Unbewohnte/TRAVELPOSTbot/internal/generator"
	"Unbewohnte/TRAVELPOSTbot/internal/server"

	"golang.org/x/sync/errgroup"
)

const CONFIG_NAME string = "config.json"

var (
	CONFIG *bot.Config
)

func init() {
	logfile, err := os.Create("logs.txt")
	if err != nil {
		log.Fatal("Failed to create logs file: " + err.Error())
	}
	log.SetOutput(io.MultiWriter(logfile, os.Stdout))

	CONFIG, err = bot.ConfigFrom(CONFIG_NAME)
	if err != nil {
		log.Println("Не удалось открыть конфигурационный файл: " + err.Error() + ". Создаем новый...")
		CONFIG = bot.DefaultConfig()
		err = CONFIG.Save(CONFIG_NAME)
		if err != nil {
			log.Panic("Не получилось создать новый конфигурационный файл: " + err.Error())
		}
	}

	// Переменные окружения важнее файла
	CONFIG.ApplyEnv()

	for _, problem := range CONFIG.Validate() {
		log.Printf("Конфигурация: %s", problem)
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	backend, err := db.Open(CONFIG.DB.URL, CONFIG.DB.DataDir)
	if err != nil {
		log.Panic("Не удалось открыть хранилище: " + err.Error())
	}
	defer backend.Close()
	log.Printf("Хранилище: %s", backend.Name())

	var (
		messenger social.Messenger
		tgClient  *telegram.Client
	)
	if CONFIG.Telegram.ApiToken != "" {
		tgClient, err = telegram.NewClient(CONFIG.Telegram.ApiToken, CONFIG.Telegram.ApiServer, CONFIG.Debug)
		if err != nil {
			log.Printf("Telegram недоступен: %s", err)
		} else {
			messenger = tgClient
			if username, err := tgClient.Username(ctx); err == nil {
				log.Printf("Авторизованы в Telegram как @%s", username)
			} else {
				log.Printf("Не удалось проверить токен Telegram: %s", err)
			}
		}
	}

	notifier := bot.NewAdminNotifier(messenger, CONFIG.Telegram.AdminChatID)

	prompts, err := generator.LoadPrompts(CONFIG.OpenAI.PromptsFile)
	if err != nil {
		log.Printf("Не удалось загрузить промпты: %s. Используем встроенные", err)
		prompts = generator.DefaultPrompts()
	}

	gen := generator.New(generator.Options{
		APIKey:  CONFIG.OpenAI.ApiKey,
		BaseURL: CONFIG.OpenAI.BaseURL,
		Prompts: prompts,
		Notify: func(message string) {
			notifier.Notify(message)
		},
	})

	travelBot := bot.NewBot(CONFIG, bot.Dependencies{
		Backend:   backend,
		Messenger: messenger,
		Generator: gen,
		Notifier:  notifier,
	})

	group, ctx := errgroup.WithContext(ctx)

	group.Go(func() error {
		return server.New(travelBot).Start(ctx, fmt.Sprintf(":%d", CONFIG.Server.Port))
	})

	group.Go(func() error {
		return travelBot.RunScheduler(ctx)
	})

	group.Go(func() error {
		return travelBot.RunReports(ctx)
	})

	if tgClient != nil && CONFIG.Telegram.Polling {
		group.Go(func() error {
			return tgClient.Listen(ctx, func(message social.Message) {
				travelBot.HandleMessage(ctx, message)
			})
		})
	}

	notifier.Notify("✅ Бот запущен")

	if err := group.Wait(); err != nil {
		log.Printf("Бот остановлен с ошибкой: %s", err)
		os.Exit(1)
	}

	log.Printf("Бот остановлен")
}
