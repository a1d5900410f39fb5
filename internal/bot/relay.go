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
	"context"
	"log"
	"time"

	"Unbewohnte/TRAVELPOSTbot/internal/bot/social/telegram"

	"github.com/google/uuid"
)

// Пост для внешнего ретранслятора
type RelayPost struct {
	ID           string `json:"id"`
	PhotoURL     string `json:"photo_url"`
	PhotoCaption string `json:"photo_caption"`
	BodyText     string `json:"body_text"`
	FullText     string `json:"full_text"`
}

type RelayDecision struct {
	ShouldPost bool       `json:"should_post"`
	Post       *RelayPost `json:"post"`
}

type ScheduleView struct {
	NextPostTime   *string    `json:"next_post_time"`
	FrequencyHours int        `json:"frequency_hours"`
	Enabled        bool       `json:"enabled"`
	NextRunAt      *time.Time `json:"next_run_at"`
	RelayMode      bool       `json:"relay_mode"`
}

// Ответ на опрос ретранслятора. Если время наступило, пост генерируется сразу
// и расписание сдвигается. Одновременные опросы могут сгенерировать пост дважды
func (bot *Bot) ShouldPost(ctx context.Context) RelayDecision {
	if !bot.Schedule.Enabled() {
		return RelayDecision{}
	}

	next, ok := bot.Schedule.NextRunAt()
	if !ok || bot.now().Before(next) {
		return RelayDecision{}
	}

	chatID, _ := bot.Groups.Active()
	post := bot.compose(ctx, chatID)

	relayPost := &RelayPost{
		ID:           uuid.NewString(),
		PhotoURL:     post.PhotoURL,
		PhotoCaption: telegram.Truncate(post.Title, telegram.CaptionLimit),
		BodyText:     post.Body,
		FullText:     post.FullText,
	}

	bot.Stats.AddPost(relayPost.ID, "", "")

	if _, err := bot.Schedule.SetNextRunAfterPublish(); err != nil {
		log.Printf("Следующая публикация не сохранена: %s", err)
	}

	log.Printf("Пост %s передан ретранслятору", relayPost.ID)
	bot.NotifyAdmin("📤 Пост передан ретранслятору для публикации")

	return RelayDecision{
		ShouldPost: true,
		Post:       relayPost,
	}
}

func (bot *Bot) ScheduleView() ScheduleView {
	schedule := bot.Schedule.Snapshot()

	return ScheduleView{
		NextPostTime:   schedule.NextPostTime,
		FrequencyHours: schedule.FrequencyHours,
		Enabled:        schedule.Enabled,
		NextRunAt:      schedule.NextRunAt,
		RelayMode:      bot.RelayMode(),
	}
}
