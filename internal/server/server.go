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

package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"Unbewohnte/TRAVELPOSTbot/internal/bot"
	"Unbewohnte/TRAVELPOSTbot/internal/bot/social/telegram"
	"Unbewohnte/TRAVELPOSTbot/internal/store"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/mymmrac/telego"
)

const shutdownTimeout = 10 * time.Second

// HTTP интерфейс бота: здоровье, ручной запуск, ретранслятор и вебхуки
type Server struct {
	bot    *bot.Bot
	router chi.Router
	now    func() time.Time
}

func New(b *bot.Bot) *Server {
	s := &Server{
		bot: b,
		now: time.Now,
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/health", s.handleHealth)
	r.Post("/generate", s.handleGenerate)
	r.Get("/test-notification", s.handleTestNotification)

	r.Route("/relay", func(r chi.Router) {
		r.Get("/should-post", s.handleShouldPost)
		r.Get("/schedule", s.handleSchedule)
	})

	r.Route("/webhook", func(r chi.Router) {
		r.Post("/comment", s.handleComment)
		r.Post("/command", s.handleCommand)
		r.Post("/telegram", s.handleTelegramUpdate)
	})

	s.router = r
}

func (s *Server) Handler() http.Handler {
	return s.router
}

// Слушает addr до отмены ctx, затем корректно завершает активные запросы
func (s *Server) Start(ctx context.Context, addr string) error {
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errs := make(chan error, 1)
	go func() {
		log.Printf("HTTP сервер слушает %s", addr)
		errs <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errs:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http сервер: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	log.Printf("Останавливаем HTTP сервер")
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("остановка http сервера: %w", err)
	}

	return nil
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Printf("Не удалось записать ответ: %s", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	details := map[string]any{
		"openai_api_configured": s.bot.GeneratorConfigured(),
		"telegram_configured":   s.bot.MessengerConfigured(),
		"admin_notifications":   s.bot.AdminNotificationsConfigured(),
		"storage":               s.bot.BackendName(),
		"relay_mode":            s.bot.RelayMode(),
	}

	status := "healthy"
	if !s.bot.GeneratorConfigured() || !s.bot.MessengerConfigured() {
		status = "degraded"
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":    status,
		"timestamp": s.now().Format(time.RFC3339),
		"details":   details,
	})
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	message := s.bot.GenerateNow(r.Context(), nil)

	writeJSON(w, http.StatusOK, map[string]string{
		"status":    "processing",
		"message":   message,
		"timestamp": s.now().Format(time.RFC3339),
	})
}

func (s *Server) handleTestNotification(w http.ResponseWriter, r *http.Request) {
	if !s.bot.NotifyAdmin("🔔 Тестовое уведомление: бот на связи") {
		writeError(w, http.StatusInternalServerError, "не удалось отправить уведомление")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "sent"})
}

func (s *Server) handleShouldPost(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.bot.ShouldPost(r.Context()))
}

func (s *Server) handleSchedule(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.bot.ScheduleView())
}

func (s *Server) handleComment(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ChatID    string `json:"chat_id"`
		MessageID string `json:"message_id"`
		Text      string `json:"text"`
		Timestamp string `json:"timestamp"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "неверный запрос")
		return
	}

	if strings.TrimSpace(req.Text) == "" {
		writeError(w, http.StatusBadRequest, "пустой комментарий")
		return
	}

	err := s.bot.Comments.Add(req.ChatID, req.MessageID, strings.TrimSpace(req.Text), req.Timestamp)
	if errors.Is(err, store.ErrEmptyID) || errors.Is(err, store.ErrInvalidTime) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "комментарий не сохранен")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Команды администратора, пересланные ретранслятором
func (s *Server) handleCommand(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ChatID string `json:"chat_id"`
		Text   string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "неверный запрос")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"response": s.bot.Handle(r.Context(), req.ChatID, req.Text),
	})
}

func (s *Server) handleTelegramUpdate(w http.ResponseWriter, r *http.Request) {
	var update telego.Update
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		writeError(w, http.StatusBadRequest, "неверный update")
		return
	}

	if message, ok := telegram.MessageFromUpdate(update); ok {
		s.bot.HandleMessage(r.Context(), message)
	}

	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}
